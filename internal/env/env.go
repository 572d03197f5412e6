package env

import (
	"time"
)

//goland:noinspection GoVarAndConstTypeMayBeOmitted,GoCommentStart
var (
	Debug              bool          = false                  //调试模式
	DefaultHorizon     time.Duration = time.Minute            //默认时间轮跨度
	DefaultGranularity time.Duration = 100 * time.Millisecond //默认时间轮精度
	MetricsAddr        string        = "127.0.0.1:9464"       //serve 命令的监听地址
	ShutdownTimeout    time.Duration = 5 * time.Second        //serve 命令优雅退出的等待时间
)
