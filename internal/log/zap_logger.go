package log

import (
	"go.uber.org/zap"
)

// ZapLogger 把 Format 风格的参数转发给 zap
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger 包装一个 zap.Logger, 跳过一层调用栈使 caller 指向业务代码
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l.WithOptions(zap.AddCallerSkip(1))}
}

func (z *ZapLogger) Info(args ...any) {
	msg, err := splitArgs(args)
	if err != nil {
		z.l.Info(msg, zap.Error(err))
		return
	}
	z.l.Info(msg)
}

func (z *ZapLogger) Error(args ...any) {
	msg, err := splitArgs(args)
	if err != nil {
		z.l.Error(msg, zap.Error(err))
		return
	}
	z.l.Error(msg)
}

func (z *ZapLogger) Fatal(args ...any) {
	msg, err := splitArgs(args)
	if err != nil {
		z.l.Fatal(msg, zap.Error(err))
		return
	}
	z.l.Fatal(msg)
}

// Sync 刷新缓冲
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}

// splitArgs 末尾的 error 作为结构化字段, 其余参数格式化为消息
func splitArgs(args []any) (string, error) {
	n := len(args)
	if n > 1 {
		if err, ok := args[n-1].(error); ok {
			return FormatArgs(args[:n-1]...), err
		}
	}
	return FormatArgs(args...), nil
}
