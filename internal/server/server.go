// Package server exposes a scheduler over HTTP: timers are created and
// cancelled with plain requests and fire events are streamed to websocket
// subscribers.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/scheduler"
	"github.com/lonng/timewheel/scheduler/schedulerapi"
	"github.com/lonng/timewheel/wheel"
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// entry 一个由 HTTP 创建的定时器
type entry struct {
	handle wheel.Handle
}

// Server 时间轮的 HTTP 前端
type Server struct {
	sched    *scheduler.Scheduler
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	hub      *hub

	mu     sync.Mutex
	timers map[int64]*entry // 尚未触发的定时器
}

// New 创建 Server, gatherer 为 nil 时 /metrics 使用 prometheus.DefaultGatherer
func New(sched *scheduler.Scheduler, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		sched:    sched,
		gatherer: gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		hub:    newHub(),
		timers: map[int64]*entry{},
	}
}

// Handler 返回路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/timers", s.handleTimers)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Close 断开所有订阅者并丢弃定时器记录
func (s *Server) Close() {
	s.hub.closeAll()
	s.mu.Lock()
	clear(s.timers)
	s.mu.Unlock()
}

// Pending 返回通过 HTTP 创建且尚未触发的定时器数量
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropIfClosed()
	return len(s.timers)
}

// dropIfClosed 调度器关闭时时间轮已被重置, 记录随之失效; 调用方必须持有锁
func (s *Server) dropIfClosed() bool {
	if s.sched.State() != schedulerapi.ExecutorStateClosed {
		return false
	}
	clear(s.timers)
	return true
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTimer(w, r)
	case http.MethodDelete:
		s.cancelTimer(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, errors.Errorf("method %v not allowed", r.Method))
	}
}

func (s *Server) createTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	delay, err := time.ParseDuration(r.URL.Query().Get("delay"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Annotate(ErrBadRequest, err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[id]; ok {
		writeError(w, http.StatusConflict, errors.Annotatef(ErrDuplicateID, "timer-%v", id))
		return
	}
	e := &entry{}
	h, err := s.sched.Schedule(delay, id, func(cursor int) error {
		s.fired(id, e)
		s.hub.publish(Event{ID: id, Cursor: cursor})
		return nil
	})
	if err != nil {
		writeError(w, statusOf(err, http.StatusBadRequest), err)
		return
	}
	e.handle = h
	s.timers[id] = e

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "slot": h.Slot()})
}

func (s *Server) cancelTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropIfClosed() {
		writeError(w, http.StatusServiceUnavailable, errors.Annotatef(scheduler.ErrClosed, "timer-%v", id))
		return
	}
	e, ok := s.timers[id]
	if !ok {
		writeError(w, http.StatusNotFound, errors.Annotatef(ErrTimerMissing, "timer-%v", id))
		return
	}
	if err := s.sched.Cancel(e.handle); err != nil {
		// 与触发竞争失败时回调会负责清理
		writeError(w, statusOf(err, http.StatusNotFound), err)
		return
	}
	delete(s.timers, id)
	w.WriteHeader(http.StatusNoContent)
}

// fired 回调中移除记录; 同一个 ID 可能已经被重新注册, 只删除自己
func (s *Server) fired(id int64, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers[id] == e {
		delete(s.timers, id)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Info("Upgrade failure, URI=%s", r.RequestURI, err)
		return
	}
	sub := s.hub.add(conn)
	log.Info("Subscriber %v connected from %v.", sub.id, r.RemoteAddr)
	go sub.writeLoop()

	// 读到错误即视为断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.remove(sub.id)
}

// statusOf 调度器已关闭时返回 503, 否则返回 fallback
func statusOf(err error, fallback int) int {
	if errors.Cause(err) == scheduler.ErrClosed {
		return http.StatusServiceUnavailable
	}
	return fallback
}

func parseID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Annotatef(ErrBadRequest, "id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Write response error.", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
