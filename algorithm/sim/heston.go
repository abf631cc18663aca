package sim

import (
	"math"
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// HestonParams Heston 随机波动率参数.
//
//	dS/S = (r - q) dt + √v dW1
//	dv   = κ(θ - v) dt + ξ√v dW2,  corr(dW1, dW2) = ρ
type HestonParams struct {
	Kappa float64 // 方差均值回复速度
	Theta float64 // 长期方差
	Xi    float64 // 方差的波动率 (vol-of-vol)
	Rho   float64 // 价格与方差冲击的相关系数
	V0    float64 // 初始方差
}

func (p HestonParams) validate() error {
	if !finite(p.Kappa, p.Theta, p.Xi, p.Rho, p.V0) ||
		p.Kappa < 0 || p.Theta < 0 || p.Xi < 0 || p.V0 < 0 || math.Abs(p.Rho) > 1 {
		return xerrors.ErrInvalidInput.WithDetail("heston: invalid parameters %+v", p)
	}
	return nil
}

func (p HestonParams) deterministic() bool {
	return p.Xi == 0 && p.V0 == 0 && (p.Theta == 0 || p.Kappa == 0)
}

// Heston 随机波动率模型。价格使用全截断 Euler-log 格式，方差使用 QE 格式.
type Heston struct {
	HestonParams
	rate     float64
	dividend float64
}

// NewHeston 创建 Heston 模型.
func NewHeston(rate float64, params HestonParams, dividend float64) *Heston {
	return &Heston{HestonParams: params, rate: rate, dividend: dividend}
}

func (h *Heston) Name() string { return "heston" }

func (h *Heston) Rates() (r, q float64) { return h.rate, h.dividend }

func (h *Heston) Deterministic() bool { return h.deterministic() }

func (h *Heston) Validate() error {
	if !finite(h.rate, h.dividend) {
		return xerrors.ErrInvalidInput.WithDetail("heston: invalid rates r=%g q=%g", h.rate, h.dividend)
	}
	return h.validate()
}

// Simulate 联合模拟价格与方差，仅返回价格路径.
func (h *Heston) Simulate(s0, t float64, nPaths, nSteps int, rng *rand.Rand, opts ...SimulateOption) (*mat.Dense, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	paths, err := newPaths(s0, t, nPaths, nSteps, rng)
	if err != nil {
		return nil, err
	}
	r, q := ResolveRates(h, opts...)
	if t == 0 || h.Deterministic() {
		return fillForward(paths, s0, t, r, q), nil
	}

	dt := t / float64(nSteps)
	qe := newQEScheme(h.Kappa, h.Theta, h.Xi, dt)
	rhoBar := math.Sqrt(1 - h.Rho*h.Rho)

	for i := range nPaths {
		row := paths.RawRowView(i)
		v := h.V0
		for j := 1; j <= nSteps; j++ {
			z1 := rng.NormFloat64()
			z2 := rng.NormFloat64()
			w2 := h.Rho*z1 + rhoBar*z2

			vp := math.Max(v, 0)
			row[j] = row[j-1] * math.Exp((r-q-0.5*vp)*dt+math.Sqrt(vp*dt)*z1)
			v = qe.step(v, w2, rng)
		}
	}
	return paths, nil
}
