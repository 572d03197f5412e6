// Package config loads the settings of the timewheel command from a TOML file.
package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lonng/timewheel/internal/env"
	"github.com/pingcap/errors"
)

// Config 命令行程序的完整配置
type Config struct {
	Name        string        `toml:"name"`        // 调度器名称, 作为指标标签
	Horizon     time.Duration `toml:"horizon"`     // 时间轮跨度
	Granularity time.Duration `toml:"granularity"` // 时间轮精度
	Debug       bool          `toml:"debug"`       // 调试模式
	Metrics     Metrics       `toml:"metrics"`
	Log         Log           `toml:"log"`
}

// Metrics 指标相关配置
type Metrics struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	Namespace string `toml:"namespace"`
}

// Log 日志相关配置, File 为空时输出到控制台
type Log struct {
	File       string `toml:"file"`
	JSON       bool   `toml:"json"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Name:        "timewheel",
		Horizon:     env.DefaultHorizon,
		Granularity: env.DefaultGranularity,
		Debug:       env.Debug,
		Metrics: Metrics{
			Enabled:   true,
			Addr:      env.MetricsAddr,
			Namespace: "timewheel",
		},
		Log: Log{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load 读取 TOML 文件, 未出现的字段保留默认值. path 为空时直接返回默认配置.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Annotatef(err, "load config %v", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return cfg, errors.Annotatef(ErrInvalidConfig, "%v: unknown keys %v", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate 检查时间轮参数和日志参数
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.Annotate(ErrInvalidConfig, "empty name")
	}
	if c.Horizon <= 0 || c.Granularity <= 0 {
		return errors.Annotatef(ErrInvalidConfig, "horizon %v, granularity %v must be positive", c.Horizon, c.Granularity)
	}
	if c.Horizon%c.Granularity != 0 {
		return errors.Annotatef(ErrInvalidConfig, "horizon %v is not a multiple of granularity %v", c.Horizon, c.Granularity)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.Annotate(ErrInvalidConfig, "metrics enabled without addr")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.Annotate(ErrInvalidConfig, "negative log rotation setting")
	}
	return nil
}
