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

// LongstaffSchwartzPricer 实现了 Longstaff-Schwartz (LSM) 最小二乘蒙特卡洛美式期权定价.
//
// 对每条路径记录已实现现金流及其发生的时间步，从 nSteps-1 反向迭代到 1，
// 仅用价内路径把贴现后的未来现金流对 S/S0 的基函数做回归，得到延续价值估计.
type LongstaffSchwartzPricer struct {
	model  sim.Model
	payoff payoff.Payoff
	paths  int
	steps  int
	seed   uint64
	opts   options
}

// NewLongstaffSchwartzPricer 创建 LSM 定价器，默认回归基为二次多项式.
func NewLongstaffSchwartzPricer(model sim.Model, po payoff.Payoff, nPaths, nSteps int, seed uint64, opts ...Option) *LongstaffSchwartzPricer {
	return &LongstaffSchwartzPricer{
		model:  model,
		payoff: po,
		paths:  nPaths,
		steps:  nSteps,
		seed:   seed,
		opts:   applyOptions(opts),
	}
}

// minRegression 回归所需的最少价内路径数.
func (p *LongstaffSchwartzPricer) minRegression() int {
	return max(p.opts.minITM, p.opts.basis.Size()+1)
}

// Price 计算美式期权现值与标准误差.
func (p *LongstaffSchwartzPricer) Price(s0, t, r float64) (est types.Estimate, err error) {
	start := time.Now()
	fallbacks := 0
	defer func() {
		elapsed := time.Since(start)
		p.opts.metrics.ObservePricing("lsm", p.modelName(), elapsed, p.paths, err)
		p.opts.logger.Debug("pricing finished",
			"pricer", "lsm",
			"model", p.modelName(),
			"payoff", p.payoff.String(),
			"basis", p.opts.basis.Name(),
			"paths", p.paths,
			"steps", p.steps,
			"fallbacks", fallbacks,
			"estimate", est.String(),
			"error", err,
			"duration", elapsed,
		)
	}()

	switch {
	case p.model == nil:
		return types.Estimate{}, xerrors.ErrUnsupportedModel.WithDetail("nil model")
	case p.payoff.PathDependent():
		return types.Estimate{}, xerrors.ErrPathDependentPayoff.WithDetail("lsm cannot price %s", p.payoff)
	}
	if err := p.payoff.Type.Validate(); err != nil {
		return types.Estimate{}, err
	}

	// 1. 生成路径
	paths, err := p.model.Simulate(s0, t, p.paths, p.steps, rng.New(p.seed), sim.WithRate(r))
	if err != nil {
		return types.Estimate{}, err
	}
	dt := t / float64(p.steps)

	// 2. 初始化末端收益
	cashFlows := make([]float64, p.paths)
	exerciseStep := make([]int, p.paths)
	for i := range cashFlows {
		cashFlows[i] = p.payoff.Exercise(paths.At(i, p.steps))
		exerciseStep[i] = p.steps
	}

	// 3. 反向回归
	var (
		xData   = make([]float64, 0, p.paths)
		yData   = make([]float64, 0, p.paths)
		indices = make([]int, 0, p.paths)
		scratch = make([]float64, p.opts.basis.Size())
	)
	for step := p.steps - 1; step > 0; step-- {
		xData, yData, indices = xData[:0], yData[:0], indices[:0]
		for i := range p.paths {
			s := paths.At(i, step)
			if p.payoff.Exercise(s) > 0 { // 仅考虑价内路径
				xData = append(xData, s/s0)
				yData = append(yData, cashFlows[i]*math.Exp(-r*float64(exerciseStep[i]-step)*dt))
				indices = append(indices, i)
			}
		}
		if len(indices) == 0 {
			continue
		}

		continuation, fellBack := p.continuation(xData, yData, scratch)
		if fellBack != "" {
			fallbacks++
			p.opts.metrics.ObserveFallback(fellBack)
		}

		// 比较行权价值与预测的等待价值
		for idx, i := range indices {
			iv := p.payoff.Exercise(paths.At(i, step))
			if iv > continuation(xData[idx]) {
				cashFlows[i] = iv
				exerciseStep[i] = step
			}
		}
	}

	return p.discounted(cashFlows, exerciseStep, r, dt), nil
}

// continuation 拟合延续价值函数。价内路径不足时延续价值取 0；
// 回归秩亏时退化为回归因变量的均值.
func (p *LongstaffSchwartzPricer) continuation(x, y, scratch []float64) (fn func(float64) float64, fallback string) {
	if len(x) < p.minRegression() {
		return func(float64) float64 { return 0 }, "insufficient_itm"
	}
	coeffs, err := algomath.LeastSquares(p.opts.basis, x, y)
	if err != nil {
		mean, _ := algomath.MeanStdErr(y)
		return func(float64) float64 { return mean }, "singular"
	}
	return func(v float64) float64 {
		return algomath.Predict(p.opts.basis, coeffs, v, scratch)
	}, ""
}

func (p *LongstaffSchwartzPricer) discounted(cashFlows []float64, exerciseStep []int, r, dt float64) types.Estimate {
	pv := make([]float64, len(cashFlows))
	for i, cf := range cashFlows {
		pv[i] = cf * math.Exp(-r*float64(exerciseStep[i])*dt)
	}
	mean, stdErr := algomath.MeanStdErr(pv)
	return types.Estimate{Price: math.Max(mean, 0), StdErr: stdErr}
}

func (p *LongstaffSchwartzPricer) modelName() string {
	if p.model == nil {
		return "none"
	}
	return p.model.Name()
}
