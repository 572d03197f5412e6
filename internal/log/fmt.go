package log

import (
	"fmt"
	"strconv"
	"strings"
)

// placeholders 能被参数替换的占位符, 其它占位符原样输出
const placeholders = "vsd"

// Format 把 args 依次填入 format 中的 %v、%s、%d, %% 输出一个 %.
// 没有占位符可用的参数以空格追加在末尾, 末尾的 error 以 " - 错误信息" 追加, 缺少参数的占位符原样保留.
//
//	Format("timer-%v fired at %v", 1, 10)     // "timer-1 fired at 10"
//	Format("tick failed", errors.New("boom")) // "tick failed - boom"
func Format(format string, args ...any) string {
	var trailing error
	if n := len(args); n > 0 {
		if err, ok := args[n-1].(error); ok {
			trailing = err
			args = args[:n-1]
		}
	}

	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		verb := format[i]
		switch {
		case verb == '%':
			b.WriteByte('%')
		case next < len(args) && strings.IndexByte(placeholders, verb) >= 0:
			b.WriteString(toString(args[next]))
			next++
		default:
			b.WriteByte('%')
			b.WriteByte(verb)
		}
	}

	for _, arg := range args[next:] {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(toString(arg))
	}
	if trailing != nil {
		b.WriteString(" - ")
		b.WriteString(trailing.Error())
	}
	return b.String()
}

// FormatArgs 第一个参数作为 format; 只有一个参数时原样输出, 不处理占位符
func FormatArgs(args ...any) string {
	if len(args) == 0 {
		return ""
	}
	if len(args) == 1 {
		return toString(args[0])
	}
	return Format(toString(args[0]), args[1:]...)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(val)
	}
}
