package sim

import (
	"math"
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// JumpParams Merton 对数正态跳跃参数.
type JumpParams struct {
	Lambda float64 // 跳跃强度 (Poisson 速率)
	MuJ    float64 // 对数跳幅均值
	SigmaJ float64 // 对数跳幅波动率
}

func (p JumpParams) validate() error {
	if !finite(p.Lambda, p.MuJ, p.SigmaJ) || p.Lambda < 0 || p.SigmaJ < 0 {
		return xerrors.ErrInvalidInput.WithDetail("jumps: invalid parameters %+v", p)
	}
	return nil
}

// Compensator 返回跳跃补偿项 κ = E[e^J - 1]，使贴现价格保持鞅性.
func (p JumpParams) Compensator() float64 {
	return jumpCompensator(p.MuJ, p.SigmaJ)
}

// Merton 跳跃扩散模型: GBM 扩散叠加复合 Poisson 对数正态跳跃.
type Merton struct {
	JumpParams
	rate       float64
	volatility float64
	dividend   float64
}

// NewMerton 创建 Merton 跳跃扩散模型.
func NewMerton(rate, volatility float64, jumps JumpParams, dividend float64) *Merton {
	return &Merton{JumpParams: jumps, rate: rate, volatility: volatility, dividend: dividend}
}

func (m *Merton) Name() string { return "merton" }

func (m *Merton) Rates() (r, q float64) { return m.rate, m.dividend }

// DiffusionVolatility 返回扩散部分的波动率。Merton 不实现 LatticeModel，
// 二叉树无法表达跳跃.
func (m *Merton) DiffusionVolatility() float64 { return m.volatility }

func (m *Merton) Deterministic() bool {
	return m.volatility == 0 && jumpsDeterministic(m.Lambda, m.MuJ, m.SigmaJ)
}

func (m *Merton) Validate() error {
	if !finite(m.rate, m.volatility, m.dividend) || m.volatility < 0 {
		return xerrors.ErrInvalidInput.WithDetail("merton: invalid parameters r=%g sigma=%g q=%g", m.rate, m.volatility, m.dividend)
	}
	return m.validate()
}

// Simulate 模拟价格路径，漂移项经 λκ 补偿.
func (m *Merton) Simulate(s0, t float64, nPaths, nSteps int, rng *rand.Rand, opts ...SimulateOption) (*mat.Dense, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	paths, err := newPaths(s0, t, nPaths, nSteps, rng)
	if err != nil {
		return nil, err
	}
	r, q := ResolveRates(m, opts...)
	if t == 0 || m.Deterministic() {
		return fillForward(paths, s0, t, r, q), nil
	}

	dt := t / float64(nSteps)
	drift := (r - q - m.Lambda*m.Compensator() - 0.5*m.volatility*m.volatility) * dt
	diffusion := m.volatility * math.Sqrt(dt)
	jumps := newJumpSampler(m.Lambda, m.MuJ, m.SigmaJ, dt, rng)

	for i := range nPaths {
		row := paths.RawRowView(i)
		for j := 1; j <= nSteps; j++ {
			z := rng.NormFloat64()
			row[j] = row[j-1] * math.Exp(drift+diffusion*z+jumps.sample(rng))
		}
	}
	return paths, nil
}
