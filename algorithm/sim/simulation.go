package sim

import (
	"math"
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// GeometricBrownianMotion 几何布朗运动 (Black-Scholes-Merton) 模型.
type GeometricBrownianMotion struct {
	rate       float64 // 无风险利率.
	volatility float64 // 波动.
	dividend   float64 // 股息率.
}

// NewGeometricBrownianMotion 创建 GBM 模型.
func NewGeometricBrownianMotion(rate, volatility, dividend float64) *GeometricBrownianMotion {
	return &GeometricBrownianMotion{
		rate:       rate,
		volatility: volatility,
		dividend:   dividend,
	}
}

func (gbm *GeometricBrownianMotion) Name() string { return "gbm" }

func (gbm *GeometricBrownianMotion) Rates() (r, q float64) { return gbm.rate, gbm.dividend }

// Volatility 返回扩散波动率.
func (gbm *GeometricBrownianMotion) Volatility() float64 { return gbm.volatility }

func (gbm *GeometricBrownianMotion) Deterministic() bool { return gbm.volatility == 0 }

func (gbm *GeometricBrownianMotion) Validate() error {
	if !finite(gbm.rate, gbm.volatility, gbm.dividend) || gbm.volatility < 0 {
		return xerrors.ErrInvalidInput.WithDetail("gbm: invalid parameters r=%g sigma=%g q=%g", gbm.rate, gbm.volatility, gbm.dividend)
	}
	return nil
}

// Simulate 模拟价格路径，每步使用精确的对数正态转移.
func (gbm *GeometricBrownianMotion) Simulate(s0, t float64, nPaths, nSteps int, rng *rand.Rand, opts ...SimulateOption) (*mat.Dense, error) {
	if err := gbm.Validate(); err != nil {
		return nil, err
	}
	paths, err := newPaths(s0, t, nPaths, nSteps, rng)
	if err != nil {
		return nil, err
	}
	r, q := ResolveRates(gbm, opts...)
	if t == 0 || gbm.Deterministic() {
		return fillForward(paths, s0, t, r, q), nil
	}

	dt := t / float64(nSteps)
	// 预计算常量.
	driftTerm := (r - q - 0.5*gbm.volatility*gbm.volatility) * dt
	volTerm := gbm.volatility * math.Sqrt(dt)

	for i := range nPaths {
		row := paths.RawRowView(i)
		for j := 1; j <= nSteps; j++ {
			z := rng.NormFloat64()
			row[j] = row[j-1] * math.Exp(driftTerm+volTerm*z)
		}
	}
	return paths, nil
}
