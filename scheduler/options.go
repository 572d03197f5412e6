package scheduler

import (
	"time"

	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/metrics"
)

// Option 调度器选项
type Option func(*Scheduler)

// WithLogger 设置日志, 默认使用 internal/log 的全局日志
func WithLogger(logger log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics 设置指标注册表
func WithMetrics(registry *metrics.Registry) Option {
	return func(s *Scheduler) {
		s.metrics = registry
	}
}

// WithErrorHandler 设置回调失败时的处理函数, 每个失败的定时器调用一次, 参数为 *wheel.CallbackError
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithTickSource 使用外部时钟驱动, 每收到一个值推进一格; 通道关闭后调度器停止推进
func WithTickSource(ch <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.ticks = ch
	}
}

// WithIDNode 设置 AfterFunc 生成 ID 使用的雪花节点号
func WithIDNode(node int64) Option {
	return func(s *Scheduler) {
		s.nodeId = node
	}
}
