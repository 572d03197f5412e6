package schedulerapi

import (
	"time"

	"github.com/lonng/timewheel/wheel"
)

// TimerFunc 由调度器生成 ID 的定时器执行函数类型
type TimerFunc func()

// ExecutorState 调度器状态常量
type ExecutorState = int32

const (
	// ExecutorStateCreated 执行器已创建, 但未启动
	ExecutorStateCreated ExecutorState = 0
	// ExecutorStateRunning 执行器正在运行
	ExecutorStateRunning ExecutorState = 1
	// ExecutorStateClosed 执行器已关闭
	ExecutorStateClosed ExecutorState = 2
)

// Scheduler 调度器接口, 以固定间隔驱动一个时间轮
type Scheduler interface {
	// Start 启动调度器
	Start()

	// Close 关闭调度器, 丢弃所有未触发的定时器
	Close()

	// State 返回调度器的当前状态
	State() ExecutorState

	// Schedule 注册一个定时器, 等待 delay 后执行 cb. 返回的句柄可用于 Cancel.
	Schedule(delay time.Duration, id int64, cb wheel.Callback) (wheel.Handle, error)

	// Cancel 取消尚未触发的定时器
	Cancel(h wheel.Handle) error

	// AfterFunc 注册一个由调度器生成 ID 的定时器, 等待 delay 后执行 fn.
	AfterFunc(delay time.Duration, fn TimerFunc) (wheel.Handle, error)
}
