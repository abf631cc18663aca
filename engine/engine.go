// Package engine 是定价内核的配置驱动门面：按配置构建定价器，并以有界并发批量执行独立的定价任务。
package engine

import (
	"sync"

	"github.com/wyfcoding/optionpricing/algorithm/finance"
	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/payoff"
	"github.com/wyfcoding/optionpricing/algorithm/pricer"
	"github.com/wyfcoding/optionpricing/algorithm/sim"
	"github.com/wyfcoding/optionpricing/config"
	"github.com/wyfcoding/optionpricing/logging"
	"github.com/wyfcoding/optionpricing/metrics"
	"github.com/wyfcoding/optionpricing/rng"
)

const serviceName = "optionpricing"

var registerReloadHook = config.RegisterReloadHook

// Engine 持有配置快照、日志与指标，所有构建出的定价器共享后两者.
type Engine struct {
	mu       sync.RWMutex
	conf     config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	hookOnce sync.Once
}

// Option 定义 Engine 构造参数。
type Option func(*Engine)

// WithLogger 注入日志记录器，默认按配置创建.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics 注入指标采集器，默认在配置开启时创建.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New 校验配置并创建 Engine。conf 为 nil 时使用 config.Default().
func New(conf *config.Config, opts ...Option) (*Engine, error) {
	if conf == nil {
		conf = config.Default()
	}
	if err := config.Validate(conf); err != nil {
		return nil, err
	}

	e := &Engine{conf: *conf}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewFromConfig(conf.LoggingConfig(serviceName, "engine"))
	}
	if e.metrics == nil && conf.Metrics.Enabled {
		e.metrics = metrics.NewMetrics(conf.Metrics.Namespace)
	}
	e.metrics.RegisterBuildInfo(serviceName, conf.Version)

	e.logger.Info("pricing engine initialized",
		"paths", conf.Simulation.Paths,
		"steps", conf.Simulation.Steps,
		"lattice_steps", conf.Lattice.Steps,
		"basis", conf.LSM.Basis,
		"workers", conf.Concurrency.Workers,
	)
	return e, nil
}

// Watch 监听配置文件，热更新后新构建的定价器使用新配置.
// 重载钩子每个 Engine 只注册一次，重复调用不会重复应用.
func (e *Engine) Watch(path string) error {
	e.hookOnce.Do(func() { registerReloadHook(e.apply) })
	watched := e.Config()
	if err := config.Watch(path, &watched); err != nil {
		return err
	}
	e.apply(&watched)
	return nil
}

func (e *Engine) apply(conf *config.Config) {
	e.mu.Lock()
	e.conf = *conf
	e.mu.Unlock()
	e.logger.Info("pricing engine config applied", "paths", conf.Simulation.Paths, "steps", conf.Simulation.Steps)
}

// Config 返回当前配置快照.
func (e *Engine) Config() config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conf
}

// Logger 返回引擎使用的日志记录器.
func (e *Engine) Logger() *logging.Logger { return e.logger }

// Metrics 返回引擎的指标采集器，未开启时为 nil.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// SeedFor 为第 i 个独立任务派生种子，并发任务之间互不相关.
func (e *Engine) SeedFor(i int) uint64 {
	return rng.Derive(e.Config().Simulation.Seed, i)
}

func (e *Engine) pricerOptions(module string) []pricer.Option {
	return []pricer.Option{
		pricer.WithLogger(e.logger.Named(module).Logger),
		pricer.WithMetrics(e.metrics),
	}
}

// European 以配置的路径数、步数与种子构建欧式蒙特卡洛定价器.
func (e *Engine) European(model sim.Model, po payoff.Payoff) *pricer.EuropeanPricer {
	sc := e.Config().Simulation
	return pricer.NewEuropeanPricer(model, po, sc.Paths, sc.Steps, sc.Seed, e.pricerOptions("european")...)
}

// Binomial 以配置的格点步数构建 CRR 二叉树定价器.
func (e *Engine) Binomial(model sim.LatticeModel, po payoff.Payoff) *pricer.AmericanBinomialPricer {
	return pricer.NewAmericanBinomialPricer(model, po, e.Config().Lattice.Steps, e.pricerOptions("binomial")...)
}

// LongstaffSchwartz 以配置的回归基与模拟规模构建 LSM 定价器.
func (e *Engine) LongstaffSchwartz(model sim.Model, po payoff.Payoff) (*pricer.LongstaffSchwartzPricer, error) {
	conf := e.Config()
	basis, err := algomath.NewBasis(conf.LSM.Basis, conf.LSM.Degree)
	if err != nil {
		return nil, err
	}
	opts := append(e.pricerOptions("lsm"), pricer.WithBasis(basis), pricer.WithMinITM(conf.LSM.MinITM))
	return pricer.NewLongstaffSchwartzPricer(model, po, conf.Simulation.Paths, conf.Simulation.Steps, conf.Simulation.Seed, opts...), nil
}

// AnalyticOptions 返回按配置设置的解析定价数值参数.
func (e *Engine) AnalyticOptions() []finance.Option {
	conf := e.Config()
	return []finance.Option{
		finance.WithTerms(conf.Merton.Terms),
		finance.WithIntegrationLimit(conf.Quadrature.Limit),
		finance.WithPanels(conf.Quadrature.Panels),
		finance.WithOrder(conf.Quadrature.Order),
	}
}
