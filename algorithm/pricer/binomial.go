package pricer

import (
	"math"
	"time"

	"github.com/wyfcoding/optionpricing/algorithm/payoff"
	"github.com/wyfcoding/optionpricing/algorithm/sim"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// AmericanBinomialPricer Cox-Ross-Rubinstein 重组二叉树美式期权定价器.
// 使用模型的常数波动率与股息率，仅支持非路径依赖收益.
type AmericanBinomialPricer struct {
	model  sim.LatticeModel
	payoff payoff.Payoff
	steps  int
	opts   options
}

// NewAmericanBinomialPricer 创建 CRR 二叉树定价器.
func NewAmericanBinomialPricer(model sim.LatticeModel, po payoff.Payoff, nSteps int, opts ...Option) *AmericanBinomialPricer {
	return &AmericanBinomialPricer{
		model:  model,
		payoff: po,
		steps:  nSteps,
		opts:   applyOptions(opts),
	}
}

// Price 计算美式期权价格.
func (p *AmericanBinomialPricer) Price(s0, t, r float64) (price float64, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		p.opts.metrics.ObservePricing("binomial", p.modelName(), elapsed, 0, err)
		p.opts.logger.Debug("pricing finished",
			"pricer", "binomial",
			"model", p.modelName(),
			"payoff", p.payoff.String(),
			"steps", p.steps,
			"price", price,
			"error", err,
			"duration", elapsed,
		)
	}()

	if err := p.validate(s0, t); err != nil {
		return 0, err
	}
	_, q := p.model.Rates()
	sigma := p.model.Volatility()

	if sigma <= 0 || t <= 0 {
		return p.deterministic(s0, t, r, q), nil
	}

	n := p.steps
	dt := t / float64(n)
	upLog := sigma * math.Sqrt(dt)
	u := math.Exp(upLog)
	d := 1 / u
	prob := (math.Exp((r-q)*dt) - d) / (u - d)
	disc := math.Exp(-r * dt)

	// 到期层: values[j] 对应 j 次上涨.
	values := make([]float64, n+1)
	for j := range values {
		values[j] = p.payoff.Exercise(s0 * math.Exp(float64(2*j-n)*upLog))
	}

	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			cont := disc * (prob*values[j+1] + (1-prob)*values[j])
			exercise := p.payoff.Exercise(s0 * math.Exp(float64(2*j-i)*upLog))
			values[j] = math.Max(cont, exercise)
		}
	}
	return math.Max(values[0], 0), nil
}

// Estimate 以零标准误差包装 Price 的结果，便于与蒙特卡洛定价器统一比较.
func (p *AmericanBinomialPricer) Estimate(s0, t, r float64) (types.Estimate, error) {
	price, err := p.Price(s0, t, r)
	if err != nil {
		return types.Estimate{}, err
	}
	return types.Estimate{Price: price}, nil
}

func (p *AmericanBinomialPricer) validate(s0, t float64) error {
	switch {
	case p.model == nil:
		return xerrors.ErrUnsupportedModel.WithDetail("nil model")
	case p.payoff.PathDependent():
		return xerrors.ErrPathDependentPayoff.WithDetail("binomial tree cannot price %s", p.payoff)
	case p.steps < 1:
		return xerrors.ErrInvalidInput.WithDetail("nSteps must be >= 1, got %d", p.steps)
	case math.IsNaN(s0) || math.IsInf(s0, 0) || s0 <= 0:
		return xerrors.ErrInvalidInput.WithDetail("spot must be positive and finite, got %g", s0)
	case math.IsNaN(t) || t < 0:
		return xerrors.ErrInvalidInput.WithDetail("maturity must be >= 0, got %g", t)
	}
	if err := p.payoff.Type.Validate(); err != nil {
		return err
	}
	return p.model.Validate()
}

// deterministic 零波动率或零期限：沿确定性远期路径取贴现内在价值的最大值，即最优行权时点.
func (p *AmericanBinomialPricer) deterministic(s0, t, r, q float64) float64 {
	if t <= 0 {
		return p.payoff.Exercise(s0)
	}
	best := 0.0
	for j := 0; j <= p.steps; j++ {
		tj := t * float64(j) / float64(p.steps)
		v := math.Exp(-r*tj) * p.payoff.Exercise(s0*math.Exp((r-q)*tj))
		best = math.Max(best, v)
	}
	return best
}

func (p *AmericanBinomialPricer) modelName() string {
	if p.model == nil {
		return "none"
	}
	return p.model.Name()
}
