package sim

import (
	"math"
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// Bates Bates/BCC 模型: Heston 随机方差 (QE) 叠加 Merton 跳跃.
type Bates struct {
	HestonParams
	JumpParams
	rate     float64
	dividend float64
}

// NewBates 创建 Bates 模型.
func NewBates(rate float64, heston HestonParams, jumps JumpParams, dividend float64) *Bates {
	return &Bates{HestonParams: heston, JumpParams: jumps, rate: rate, dividend: dividend}
}

func (b *Bates) Name() string { return "bates" }

func (b *Bates) Rates() (r, q float64) { return b.rate, b.dividend }

func (b *Bates) Deterministic() bool {
	return b.HestonParams.deterministic() && jumpsDeterministic(b.Lambda, b.MuJ, b.SigmaJ)
}

func (b *Bates) Validate() error {
	if !finite(b.rate, b.dividend) {
		return xerrors.ErrInvalidInput.WithDetail("bates: invalid rates r=%g q=%g", b.rate, b.dividend)
	}
	if err := b.HestonParams.validate(); err != nil {
		return err
	}
	return b.JumpParams.validate()
}

// Simulate 模拟价格路径。第 t 步的扩散与跳跃使用上一步的方差，之后再推进方差.
func (b *Bates) Simulate(s0, t float64, nPaths, nSteps int, rng *rand.Rand, opts ...SimulateOption) (*mat.Dense, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	paths, err := newPaths(s0, t, nPaths, nSteps, rng)
	if err != nil {
		return nil, err
	}
	r, q := ResolveRates(b, opts...)
	if t == 0 || b.Deterministic() {
		return fillForward(paths, s0, t, r, q), nil
	}

	dt := t / float64(nSteps)
	qe := newQEScheme(b.Kappa, b.Theta, b.Xi, dt)
	rhoBar := math.Sqrt(1 - b.Rho*b.Rho)
	compensated := (r - q - b.Lambda*b.Compensator()) * dt
	jumps := newJumpSampler(b.Lambda, b.MuJ, b.SigmaJ, dt, rng)

	for i := range nPaths {
		row := paths.RawRowView(i)
		v := b.V0
		for j := 1; j <= nSteps; j++ {
			z1 := rng.NormFloat64()
			z2 := rng.NormFloat64()
			w2 := b.Rho*z1 + rhoBar*z2

			vp := math.Max(v, 0)
			logReturn := compensated - 0.5*vp*dt + math.Sqrt(vp*dt)*z1 + jumps.sample(rng)
			row[j] = row[j-1] * math.Exp(logReturn)
			v = qe.step(v, w2, rng)
		}
	}
	return paths, nil
}
