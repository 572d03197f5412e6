package wheel

import (
	"errors"
	"fmt"
)

// Errors returned by the wheel.
var (
	ErrInvalidConfiguration = errors.New("invalid timing wheel configuration")
	ErrInvalidDelay         = errors.New("negative delay")
	ErrDelayExceedsHorizon  = errors.New("delay exceeds horizon")
	ErrNilCallback          = errors.New("nil callback")
	ErrUnknownTimer         = errors.New("unknown timer")
)

// Expiry 描述一次到期
type Expiry struct {
	ID     int64 // 定时器 ID
	Cursor int   // 触发时的槽位指针
}

// CallbackError 回调执行失败, 包含返回的 error 或 panic 转换后的 error
type CallbackError struct {
	Expiry
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("timer-%d at slot %d: %v", e.ID, e.Cursor, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
