package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/lonng/timewheel/internal/env"
	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/internal/snowflake"
	"github.com/lonng/timewheel/metrics"
	"github.com/lonng/timewheel/scheduler/schedulerapi"
	"github.com/lonng/timewheel/wheel"
	"github.com/pingcap/errors"
	"go.uber.org/multierr"
)

var _ schedulerapi.Scheduler = (*Scheduler)(nil)

// Scheduler 调度器, 在子协程中每隔 granularity 推进一次时间轮
type Scheduler struct {
	name    string               // 调度器名称
	wheel   *wheel.Wheel         // 时间轮
	state   atomic.Int32         // 调度器状态
	chDie   chan struct{}        // 关闭信号通道
	chDone  chan struct{}        // 主循环退出后关闭
	ticks   <-chan time.Time     // 外部时钟, 为 nil 时使用 time.Ticker
	logger  log.Logger           // 为 nil 时使用全局日志
	metrics *metrics.Registry    // 为 nil 时不采集
	onError func(error)          // 回调失败的处理函数
	nodeId  int64                // 雪花节点号, 为负数时自动推导
	ids     *snowflake.Generator // AfterFunc 的 ID 生成器
}

// New 构造一个新的调度器, 需要调用 Start() 方法来启动调度器.
func New(name string, horizon, granularity time.Duration, opts ...Option) (*Scheduler, error) {
	w, err := wheel.New(horizon, granularity)
	if err != nil {
		return nil, errors.Annotatef(err, "scheduler [%v]", name)
	}
	s := &Scheduler{
		name:   name,
		wheel:  w,
		chDie:  make(chan struct{}),
		chDone: make(chan struct{}),
		nodeId: -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	// ID 生成器
	if s.nodeId < 0 {
		s.ids, err = snowflake.New()
	} else {
		s.ids, err = snowflake.NewWithNode(s.nodeId)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "scheduler [%v]", name)
	}
	return s, nil
}

// Name 返回调度器名称
func (s *Scheduler) Name() string {
	return s.name
}

// Wheel 返回底层时间轮
func (s *Scheduler) Wheel() *wheel.Wheel {
	return s.wheel
}

// Start 启动调度器
func (s *Scheduler) Start() {
	if !s.state.CompareAndSwap(schedulerapi.ExecutorStateCreated, schedulerapi.ExecutorStateRunning) {
		return
	}

	// 子协程启动循环
	go s.run()
}

// Close 关闭调度器, 等待主循环退出并丢弃所有未触发的定时器
func (s *Scheduler) Close() {
	if !s.state.CompareAndSwap(schedulerapi.ExecutorStateRunning, schedulerapi.ExecutorStateClosed) {
		return
	}
	close(s.chDie)
	<-s.chDone
}

// State 返回调度器的当前状态
func (s *Scheduler) State() schedulerapi.ExecutorState {
	return s.state.Load()
}

// Schedule 注册一个定时器, 等待 delay 后执行 cb
func (s *Scheduler) Schedule(delay time.Duration, id int64, cb wheel.Callback) (wheel.Handle, error) {
	if s.state.Load() == schedulerapi.ExecutorStateClosed {
		s.metrics.ObserveRejected(s.name, metrics.ReasonClosed)
		return wheel.Handle{}, errors.Annotatef(ErrClosed, "scheduler [%v] timer-%v", s.name, id)
	}
	h, err := s.wheel.Schedule(delay, id, cb)
	if err != nil {
		s.metrics.ObserveRejected(s.name, rejectReason(err))
		return h, err
	}
	s.metrics.ObserveScheduled(s.name, s.wheel.Len())
	return h, nil
}

// AfterFunc 注册一个由调度器生成 ID 的定时器, 等待 delay 后执行 fn
func (s *Scheduler) AfterFunc(delay time.Duration, fn schedulerapi.TimerFunc) (wheel.Handle, error) {
	var cb wheel.Callback
	if fn != nil {
		cb = func(int) error {
			fn()
			return nil
		}
	}
	return s.Schedule(delay, s.ids.NextId(), cb)
}

// Cancel 取消尚未触发的定时器
func (s *Scheduler) Cancel(h wheel.Handle) error {
	if s.state.Load() == schedulerapi.ExecutorStateClosed {
		return errors.Annotatef(ErrClosed, "scheduler [%v] timer-%v", s.name, h.ID())
	}
	if err := s.wheel.Cancel(h); err != nil {
		return err
	}
	s.metrics.ObserveCancelled(s.name, s.wheel.Len())
	return nil
}

// run 调度器的主循环
func (s *Scheduler) run() {
	if env.Debug {
		s.logInfo("Timewheel scheduler [%v] starting, %v slots of %v.", s.name, s.wheel.SlotCount(), s.wheel.Granularity())
	}

	ticks := s.ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(s.wheel.Granularity())
		ticks = ticker.C
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		s.wheel.Reset()
		s.metrics.ObservePending(s.name, 0)
		if env.Debug {
			s.logInfo("Timewheel scheduler [%v] closed.", s.name)
		}
		// 最后一步, Close 返回后主循环不再访问任何状态
		close(s.chDone)
	}()

	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				// 外部时钟已关闭, 等待 Close
				ticks = nil
				continue
			}
			s.tick()

		case <-s.chDie:
			return
		}
	}
}

// tick 推进一格, 记录失败的回调
func (s *Scheduler) tick() {
	start := time.Now()
	fired, err := s.wheel.Advance()
	failures := multierr.Errors(err)
	for _, e := range failures {
		s.logError("Timewheel scheduler [%v] execute timer error.", s.name, e)
		if s.onError != nil {
			s.onError(e)
		}
	}
	s.metrics.ObserveTick(s.name, time.Since(start), fired, len(failures), s.wheel.Len())
}

func (s *Scheduler) logInfo(args ...any) {
	if s.logger != nil {
		s.logger.Info(args...)
		return
	}
	log.Info(args...)
}

func (s *Scheduler) logError(args ...any) {
	if s.logger != nil {
		s.logger.Error(args...)
		return
	}
	log.Error(args...)
}

// rejectReason 把错误映射为指标标签
func rejectReason(err error) string {
	switch errors.Cause(err) {
	case wheel.ErrDelayExceedsHorizon:
		return metrics.ReasonDelayExceedsHorizon
	case wheel.ErrInvalidDelay:
		return metrics.ReasonInvalidDelay
	case wheel.ErrNilCallback:
		return metrics.ReasonNilCallback
	case ErrClosed:
		return metrics.ReasonClosed
	default:
		return metrics.ReasonUnknown
	}
}
