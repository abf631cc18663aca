package pricer

import (
	"math"
	"time"

	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/payoff"
	"github.com/wyfcoding/optionpricing/algorithm/sim"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/rng"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// EuropeanPricer 蒙特卡洛欧式 (含路径依赖) 期权定价器.
// 每次 Price 调用都从 seed 重新创建随机源，相同输入得到逐位相同的结果.
type EuropeanPricer struct {
	model  sim.Model
	payoff payoff.Payoff
	paths  int
	steps  int
	seed   uint64
	opts   options
}

// NewEuropeanPricer 创建欧式定价器.
func NewEuropeanPricer(model sim.Model, po payoff.Payoff, nPaths, nSteps int, seed uint64, opts ...Option) *EuropeanPricer {
	return &EuropeanPricer{
		model:  model,
		payoff: po,
		paths:  nPaths,
		steps:  nSteps,
		seed:   seed,
		opts:   applyOptions(opts),
	}
}

// Price 以无风险利率 r 模拟并贴现平均收益，返回点估计与标准误差.
func (p *EuropeanPricer) Price(s0, t, r float64) (est types.Estimate, err error) {
	start := time.Now()
	defer func() {
		p.observe("european", start, est, err)
	}()

	if p.model == nil {
		return types.Estimate{}, xerrors.ErrUnsupportedModel.WithDetail("nil model")
	}
	if err := p.payoff.Type.Validate(); err != nil {
		return types.Estimate{}, err
	}

	paths, err := p.model.Simulate(s0, t, p.paths, p.steps, rng.New(p.seed), sim.WithRate(r))
	if err != nil {
		return types.Estimate{}, err
	}

	discount := math.Exp(-r * t)
	flows := p.payoff.Evaluate(paths)
	for i := range flows {
		flows[i] *= discount
	}
	mean, stdErr := algomath.MeanStdErr(flows)
	return types.Estimate{Price: math.Max(mean, 0), StdErr: stdErr}, nil
}

func (p *EuropeanPricer) modelName() string {
	if p.model == nil {
		return "none"
	}
	return p.model.Name()
}

func (p *EuropeanPricer) observe(kind string, start time.Time, est types.Estimate, err error) {
	elapsed := time.Since(start)
	p.opts.metrics.ObservePricing(kind, p.modelName(), elapsed, p.paths, err)
	if err != nil {
		p.opts.logger.Debug("pricing failed", "pricer", kind, "model", p.modelName(), "payoff", p.payoff.String(), "error", err)
		return
	}
	p.opts.logger.Debug("pricing finished",
		"pricer", kind,
		"model", p.modelName(),
		"payoff", p.payoff.String(),
		"paths", p.paths,
		"steps", p.steps,
		"estimate", est.String(),
		"duration", elapsed,
	)
}
