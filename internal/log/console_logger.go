package log

import (
	"io"
	"log"
	"os"
)

// ConsoleLogger 基于标准库 log 的默认实现
type ConsoleLogger log.Logger

// NewConsoleLogger 输出到 stdout
func NewConsoleLogger() *ConsoleLogger {
	return NewWriterLogger(os.Stdout)
}

// NewWriterLogger 输出到任意 io.Writer
func NewWriterLogger(w io.Writer) *ConsoleLogger {
	logger := log.New(w, "", log.LstdFlags|log.Lshortfile)
	return (*ConsoleLogger)(logger)
}

func (c *ConsoleLogger) Info(args ...any) {
	_ = (*log.Logger)(c).Output(2, "[INFO] "+FormatArgs(args...))
}

func (c *ConsoleLogger) Error(args ...any) {
	_ = (*log.Logger)(c).Output(2, "[ERROR] "+FormatArgs(args...))
}

func (c *ConsoleLogger) Fatal(args ...any) {
	_ = (*log.Logger)(c).Output(2, "[FATAL] "+FormatArgs(args...))
	os.Exit(1)
}
