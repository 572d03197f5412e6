package main

import (
	"io"
	"os"

	"github.com/lonng/timewheel/internal/config"
	"github.com/lonng/timewheel/internal/env"
	"github.com/lonng/timewheel/internal/log"
	"github.com/pingcap/errors"
	"github.com/urfave/cli/v2"
)

// App.Metadata 中保存的对象
const (
	configKey = "config"     // 加载好的配置
	closerKey = "log-closer" // 日志文件
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal("Startup timewheel error.", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "timewheel"
	app.Usage = "Single-level timing wheel demo and HTTP server"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "TOML config file",
		},
		&cli.DurationFlag{
			Name:  "horizon",
			Usage: "Maximum schedulable delay (exclusive)",
			Value: env.DefaultHorizon,
		},
		&cli.DurationFlag{
			Name:  "granularity",
			Usage: "Time covered by one slot",
			Value: env.DefaultGranularity,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to a rotated file instead of stderr",
		},
		&cli.BoolFlag{
			Name:  "log-json",
			Usage: "Encode logs as JSON",
		},
	}
	app.Before = setup
	app.After = teardown
	app.Commands = []*cli.Command{
		demoCommand(),
		serveCommand(),
	}
	return app
}

// setup 加载配置文件, 命令行参数覆盖文件中的值, 然后初始化日志
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("horizon") || c.String("config") == "" {
		cfg.Horizon = c.Duration("horizon")
	}
	if c.IsSet("granularity") || c.String("config") == "" {
		cfg.Granularity = c.Duration("granularity")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.IsSet("log-json") {
		cfg.Log.JSON = c.Bool("log-json")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	env.Debug = cfg.Debug

	if cfg.Log.File != "" || cfg.Log.JSON {
		z, closer := log.BuildZap(log.ZapOptions{
			File:       cfg.Log.File,
			JSON:       cfg.Log.JSON,
			Debug:      cfg.Debug,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		log.SetLogger(log.NewZapLogger(z))
		c.App.Metadata[closerKey] = closer
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

// teardown 刷新日志并关闭日志文件
func teardown(c *cli.Context) error {
	if z, ok := log.Current().(*log.ZapLogger); ok {
		_ = z.Sync()
	}
	if closer, ok := c.App.Metadata[closerKey].(io.Closer); ok && closer != nil {
		return closer.Close()
	}
	return nil
}

func loadedConfig(c *cli.Context) (config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(config.Config)
	if !ok {
		return cfg, errors.New("config not loaded")
	}
	return cfg, nil
}
