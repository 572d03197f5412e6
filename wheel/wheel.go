// Package wheel implements a single-level hashed timing wheel.
//
// A Wheel owns horizon/granularity slots arranged as a ring. Schedule links a
// timer into the slot the cursor will reach after ceil(delay/granularity)
// ticks, Cancel unlinks it in O(1), and Tick advances the cursor by one slot
// and fires everything queued there. The wheel has no clock of its own; an
// external driver (see package scheduler) calls Tick once per granularity.
package wheel

import (
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/timandy/routine"
	"go.uber.org/multierr"
)

// Wheel 单层时间轮
type Wheel struct {
	mu          sync.Mutex    // 保护下面所有字段
	granularity time.Duration // 每个槽位代表的时间
	horizon     time.Duration // 可调度的最大延迟(不含)
	slots       []slot        // 槽位数组
	cursor      int           // 槽位指针, 代表"现在"
	pending     int           // 挂在槽位上的定时器数量
	free        *timer        // 回收的节点, 通过 next 串联
}

// New 创建时间轮, horizon 必须是 granularity 的整数倍
func New(horizon, granularity time.Duration) (*Wheel, error) {
	if granularity <= 0 || horizon <= 0 {
		return nil, errors.Annotatef(ErrInvalidConfiguration, "horizon %v, granularity %v must be positive", horizon, granularity)
	}
	if horizon%granularity != 0 {
		return nil, errors.Annotatef(ErrInvalidConfiguration, "horizon %v is not a multiple of granularity %v", horizon, granularity)
	}
	return &Wheel{
		granularity: granularity,
		horizon:     horizon,
		slots:       make([]slot, horizon/granularity),
	}, nil
}

// Granularity 返回每个槽位代表的时间
func (w *Wheel) Granularity() time.Duration {
	return w.granularity
}

// Horizon 返回可调度的最大延迟(不含)
func (w *Wheel) Horizon() time.Duration {
	return w.horizon
}

// SlotCount 返回槽位数量
func (w *Wheel) SlotCount() int {
	return len(w.slots)
}

// Cursor 返回当前槽位指针
func (w *Wheel) Cursor() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.cursor
}

// Len 返回尚未触发也未取消的定时器数量
func (w *Wheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pending
}

// SlotLen 返回指定槽位中的定时器数量
func (w *Wheel) SlotLen(idx int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idx < 0 || idx >= len(w.slots) {
		return 0
	}
	return w.slots[idx].size
}

// Schedule 注册一个定时器, 在 ceil(delay/granularity) 次 Tick 之后触发; 延迟为 0 时在下一次 Tick 触发.
// 同一槽位内的定时器按注册顺序触发.
func (w *Wheel) Schedule(delay time.Duration, id int64, cb Callback) (Handle, error) {
	if cb == nil {
		return Handle{}, errors.Annotatef(ErrNilCallback, "timer-%d", id)
	}
	if delay < 0 {
		return Handle{}, errors.Annotatef(ErrInvalidDelay, "timer-%d delay %v", id, delay)
	}
	if delay >= w.horizon {
		return Handle{}, errors.Annotatef(ErrDelayExceedsHorizon, "timer-%d delay %v, horizon %v", id, delay, w.horizon)
	}

	// 向上取整, 保证不会提前触发; 不用 delay+g-1 以免溢出
	ticks := int(delay / w.granularity)
	if delay%w.granularity != 0 {
		ticks++
	}
	if ticks == 0 {
		ticks = 1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := (w.cursor + ticks) % len(w.slots)
	t := w.alloc()
	t.id = id
	t.callback = cb
	w.slots[idx].link(t, idx)
	w.pending++

	return Handle{node: t, gen: t.gen, id: id, slot: idx}, nil
}

// Cancel 取消尚未触发的定时器. 句柄已失效(已触发、已取消、来自其他时间轮)时返回 ErrUnknownTimer.
// 返回 nil 之后, 回调保证不会被执行.
func (w *Wheel) Cancel(h Handle) error {
	if h.node == nil {
		return errors.Annotate(ErrUnknownTimer, "zero handle")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	t := h.node
	if t.owner != w || t.gen != h.gen || !t.linked() {
		return errors.Annotatef(ErrUnknownTimer, "timer-%d", h.id)
	}
	w.slots[t.slot].unlink(t)
	w.pending--
	t.retire()
	w.recycle(t)
	return nil
}

// Tick 推进指针并执行到期的定时器.
// 回调在锁外执行, 可以在回调中再次调用 Schedule 或 Cancel. 单个回调返回错误或 panic 不影响其他回调,
// 所有失败以 *CallbackError 合并返回, 用 multierr.Errors 拆分.
func (w *Wheel) Tick() error {
	_, err := w.Advance()
	return err
}

// Advance 同 Tick, 额外返回本次触发的定时器数量(包含失败的)
func (w *Wheel) Advance() (int, error) {
	// 摘下到期链表, 在锁内标记终结, 此后 Cancel 会返回 ErrUnknownTimer
	w.mu.Lock()
	w.cursor = (w.cursor + 1) % len(w.slots)
	cursor := w.cursor
	head := w.slots[cursor].detach()
	var tail *timer
	for t := head; t != nil; t = t.next {
		t.retire()
		w.pending--
		tail = t
	}
	w.mu.Unlock()

	// 空槽位
	if head == nil {
		return 0, nil
	}

	// 遍历执行
	var errs error
	fired := 0
	for t := head; t != nil; t = t.next {
		fired++
		if err := run(t.callback, cursor); err != nil {
			errs = multierr.Append(errs, &CallbackError{Expiry: Expiry{ID: t.id, Cursor: cursor}, Err: err})
		}
	}

	// 整条链表放回空闲列表
	w.mu.Lock()
	for t := head; t != nil; t = t.next {
		t.callback = nil
		t.prev = nil
	}
	tail.next = w.free
	w.free = head
	w.mu.Unlock()

	return fired, errs
}

// Reset 丢弃所有定时器并把指针归零, 所有旧的 Handle 都将失效
func (w *Wheel) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.slots {
		var next *timer
		for t := w.slots[i].detach(); t != nil; t = next {
			next = t.next
			t.retire()
			w.recycle(t)
		}
	}
	w.pending = 0
	w.cursor = 0
}

// alloc 优先复用空闲节点; 调用方必须持有锁
func (w *Wheel) alloc() *timer {
	t := w.free
	if t == nil {
		return &timer{owner: w, slot: -1}
	}
	w.free = t.next
	t.next = nil
	return t
}

// recycle 清理节点并放回空闲列表; 调用方必须持有锁
func (w *Wheel) recycle(t *timer) {
	t.callback = nil
	t.prev = nil
	t.next = w.free
	w.free = t
}

// run 执行回调, 捕获 panic
func run(cb Callback, cursor int) (err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = routine.NewRuntimeError(cause)
		}
	}()
	return cb(cursor)
}
