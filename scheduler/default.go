package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/lonng/timewheel/internal/env"
	"github.com/lonng/timewheel/wheel"
)

// global 默认的全局调度器, 使用 env 中的默认跨度和精度
var global atomic.Pointer[Scheduler]

func init() {
	global.Store(mustNew("default", env.DefaultHorizon, env.DefaultGranularity))
}

func mustNew(name string, horizon, granularity time.Duration) *Scheduler {
	s, err := New(name, horizon, granularity)
	if err != nil {
		panic(err)
	}
	return s
}

// Default 返回默认的调度器
func Default() *Scheduler {
	return global.Load()
}

// Replace 替换默认的调度器, 旧的调度器会被关闭
func Replace(s *Scheduler) {
	if s == nil {
		return
	}
	s.Start()
	if old := global.Swap(s); old != nil && old != s {
		old.Close()
	}
}

// Start 启动默认的调度器
func Start() {
	Default().Start()
}

// Close 关闭默认的调度器, 丢弃所有未触发的定时器
func Close() {
	Default().Close()
}

// AfterFunc 在默认调度器上注册定时器, 等待 delay 后执行 fn
func AfterFunc(delay time.Duration, fn func()) (wheel.Handle, error) {
	return Default().AfterFunc(delay, fn)
}

// Cancel 在默认调度器上取消定时器
func Cancel(h wheel.Handle) error {
	return Default().Cancel(h)
}
