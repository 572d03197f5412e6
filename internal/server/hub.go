package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lonng/timewheel/internal/log"
)

// sendBuffer 每个订阅者缓存的事件数量, 写满后丢弃新事件
const sendBuffer = 64

// Event 定时器触发事件
type Event struct {
	ID     int64 `json:"id"`
	Cursor int   `json:"cursor"`
}

// subscriber 一个 websocket 订阅者, 读写各一个协程
type subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// writeLoop 把事件写到连接, send 关闭后退出并关闭连接
func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for ev := range s.send {
		if err := s.conn.WriteJSON(ev); err != nil {
			log.Error("Write event to subscriber %v error.", s.id, err)
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// hub 管理所有订阅者
type hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*subscriber
}

func newHub() *hub {
	return &hub{subs: map[uuid.UUID]*subscriber{}}
}

func (h *hub) add(conn *websocket.Conn) *subscriber {
	sub := &subscriber{
		id:   uuid.New(),
		conn: conn,
		send: make(chan Event, sendBuffer),
	}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

func (h *hub) remove(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		sub.close()
	}
}

// publish 非阻塞投递, 慢订阅者丢事件而不是拖慢时间轮
func (h *hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.send <- ev:
		default:
			log.Error("Subscriber %v is too slow, drop event of timer-%v.", sub.id, ev.ID)
		}
	}
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = map[uuid.UUID]*subscriber{}
	h.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
}
