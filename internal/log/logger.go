package log

// Logger 日志接口, 可以通过 SetLogger 替换为任意实现
type Logger interface {
	Info(args ...any)
	Error(args ...any)
	Fatal(args ...any)
}

func init() {
	SetLogger(NewConsoleLogger())
}

var (
	Info  func(args ...any)
	Error func(args ...any)
	Fatal func(args ...any)
)

var current Logger

// SetLogger rewrites the default logger
func SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	current = logger
	Info = logger.Info
	Error = logger.Error
	Fatal = logger.Fatal
}

// Current 返回当前使用的日志实现
func Current() Logger {
	return current
}
