package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapOptions 构造 zap.Logger 的参数
type ZapOptions struct {
	File       string // 日志文件, 为空时输出到 stderr
	JSON       bool   // JSON 编码, 否则为控制台格式
	Debug      bool   // 开启 debug 级别
	MaxSizeMB  int    // 单个文件大小上限
	MaxBackups int    // 保留的旧文件数量
	MaxAgeDays int    // 旧文件保留天数
}

// BuildZap 按照参数构造 zap.Logger, 文件输出由 lumberjack 负责切割.
// 返回的 io.Closer 用于关闭日志文件, 输出到 stderr 时为 nil.
func BuildZap(opts ZapOptions) (*zap.Logger, io.Closer) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	var closer io.Closer
	if opts.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		sink = zapcore.AddSync(rotate)
		closer = rotate
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), closer
}
