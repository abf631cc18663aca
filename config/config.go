// Package config 提供定价引擎默认参数的统一加载、校验与热更新能力.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/optionpricing/logging"
	"github.com/wyfcoding/optionpricing/xerrors"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version     string            `mapstructure:"version"     toml:"version"`
	Log         LogConfig         `mapstructure:"log"         toml:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"     toml:"metrics"`
	Simulation  SimulationConfig  `mapstructure:"simulation"  toml:"simulation"`
	Lattice     LatticeConfig     `mapstructure:"lattice"     toml:"lattice"`
	LSM         LSMConfig         `mapstructure:"lsm"         toml:"lsm"`
	Quadrature  QuadratureConfig  `mapstructure:"quadrature"  toml:"quadrature"`
	Merton      MertonConfig      `mapstructure:"merton"      toml:"merton"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" toml:"concurrency"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"min=0"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
	Console    bool   `mapstructure:"console"     toml:"console"`
}

// MetricsConfig 指标采集配置.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   toml:"enabled"`
	Namespace string `mapstructure:"namespace" toml:"namespace" validate:"required_if=Enabled true"`
}

// SimulationConfig 蒙特卡洛模拟默认规模.
type SimulationConfig struct {
	Paths int    `mapstructure:"paths" toml:"paths" validate:"min=1"`
	Steps int    `mapstructure:"steps" toml:"steps" validate:"min=1"`
	Seed  uint64 `mapstructure:"seed"  toml:"seed"`
}

// LatticeConfig CRR 二叉树默认步数.
type LatticeConfig struct {
	Steps int `mapstructure:"steps" toml:"steps" validate:"min=1"`
}

// LSMConfig Longstaff-Schwartz 回归配置.
type LSMConfig struct {
	Basis  string `mapstructure:"basis"   toml:"basis"   validate:"oneof=polynomial laguerre"`
	Degree int    `mapstructure:"degree"  toml:"degree"  validate:"min=1,max=8"`
	MinITM int    `mapstructure:"min_itm" toml:"min_itm" validate:"min=0"`
}

// QuadratureConfig Lewis 积分的截断与细分配置.
type QuadratureConfig struct {
	Limit  float64 `mapstructure:"limit"  toml:"limit"  validate:"gt=0"`
	Panels int     `mapstructure:"panels" toml:"panels" validate:"min=1"`
	Order  int     `mapstructure:"order"  toml:"order"  validate:"min=2,max=128"`
}

// MertonConfig Merton 级数截断项数.
type MertonConfig struct {
	Terms int `mapstructure:"terms" toml:"terms" validate:"min=1,max=500"`
}

// ConcurrencyConfig 批量定价的并发度.
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" toml:"workers" validate:"min=1"`
}

// Default 返回一份可直接使用的默认配置.
func Default() *Config {
	return &Config{
		Version: "dev",
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Namespace: "optionpricing"},
		Simulation: SimulationConfig{
			Paths: 20000,
			Steps: 50,
			Seed:  42,
		},
		Lattice:     LatticeConfig{Steps: 200},
		LSM:         LSMConfig{Basis: "polynomial", Degree: 2, MinITM: 0},
		Quadrature:  QuadratureConfig{Limit: 250, Panels: 250, Order: 16},
		Merton:      MertonConfig{Terms: 50},
		Concurrency: ConcurrencyConfig{Workers: 4},
	}
}

var (
	vInstance = viper.New()
	validate  = validator.New()
	onReload  []func(*Config)
	hooksMu   sync.Mutex
	watchOnce sync.Once
)

// RegisterReloadHook 注册配置热更新后的回调.
func RegisterReloadHook(hook func(*Config)) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	onReload = append(onReload, hook)
}

// Validate 校验配置结构体.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return xerrors.ErrInvalidConfig.WithDetail("config validation failed: %v", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("simulation.paths", d.Simulation.Paths)
	v.SetDefault("simulation.steps", d.Simulation.Steps)
	v.SetDefault("simulation.seed", d.Simulation.Seed)
	v.SetDefault("lattice.steps", d.Lattice.Steps)
	v.SetDefault("lsm.basis", d.LSM.Basis)
	v.SetDefault("lsm.degree", d.LSM.Degree)
	v.SetDefault("lsm.min_itm", d.LSM.MinITM)
	v.SetDefault("quadrature.limit", d.Quadrature.Limit)
	v.SetDefault("quadrature.panels", d.Quadrature.Panels)
	v.SetDefault("quadrature.order", d.Quadrature.Order)
	v.SetDefault("merton.terms", d.Merton.Terms)
	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
}

// Load 从 TOML 文件加载配置，环境变量 (OPTPRICING_ 前缀) 优先，缺省项使用 Default.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := read(v, path); err != nil {
		return nil, err
	}
	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func read(v *viper.Viper, path string) error {
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("OPTPRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}
	return nil
}

// Watch 加载配置并监听文件变化；校验通过的新配置会写回 conf 并触发回调.
func Watch(path string, conf *Config) error {
	if err := read(vInstance, path); err != nil {
		return err
	}
	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return err
	}

	// 每次 WatchConfig 都会启动新的监听协程，只启动一次.
	watchOnce.Do(vInstance.WatchConfig)
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		next := &Config{}
		if err := vInstance.Unmarshal(next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := Validate(next); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}

		*conf = *next
		logging.SetLevel(conf.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		hooksMu.Lock()
		hooks := append([]func(*Config){}, onReload...)
		hooksMu.Unlock()
		for _, hook := range hooks {
			hook(conf)
		}
	})

	return nil
}

// LoggingConfig 将日志配置转换为 logging.Config.
func (c *Config) LoggingConfig(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Console:    c.Log.Console,
	}
}
