// Package sim 提供风险中性测度下的标的价格路径模拟器。
//
// 每个模型都是不可变的参数集合；随机性完全来自调用方传入的 *rand.Rand。
// 返回的路径矩阵形状为 nPaths × (nSteps+1)，第 0 列恒等于 S0。
package sim

import (
	"math"
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// Model 随机过程模拟器的统一能力接口。
type Model interface {
	// Simulate 模拟价格路径。r/q 默认取模型自身字段，可通过 WithRate/WithDividend 覆盖。
	Simulate(s0, t float64, nPaths, nSteps int, rng *rand.Rand, opts ...SimulateOption) (*mat.Dense, error)
	// Rates 返回模型自身的无风险利率与股息率。
	Rates() (r, q float64)
	// Deterministic 模型是否不含任何扩散、方差或跳跃随机性。
	Deterministic() bool
	// Validate 校验模型参数。
	Validate() error
	Name() string
}

// LatticeModel 可在常数波动率格点上定价的模型 (CRR 二叉树所需)。
type LatticeModel interface {
	Model
	Volatility() float64
}

type simulateOptions struct {
	rate, dividend       float64
	hasRate, hasDividend bool
}

// SimulateOption 单次模拟的参数覆盖，不修改模型实例。
type SimulateOption func(*simulateOptions)

// WithRate 覆盖本次模拟的无风险利率。
func WithRate(r float64) SimulateOption {
	return func(o *simulateOptions) {
		o.rate, o.hasRate = r, true
	}
}

// WithDividend 覆盖本次模拟的股息率。
func WithDividend(q float64) SimulateOption {
	return func(o *simulateOptions) {
		o.dividend, o.hasDividend = q, true
	}
}

// ResolveRates 合并模型默认值与调用覆盖。
func ResolveRates(m Model, opts ...SimulateOption) (r, q float64) {
	o := simulateOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	r, q = m.Rates()
	if o.hasRate {
		r = o.rate
	}
	if o.hasDividend {
		q = o.dividend
	}
	return r, q
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// newPaths 校验通用输入并分配路径矩阵，第 0 列填入 S0。
func newPaths(s0, t float64, nPaths, nSteps int, rng *rand.Rand) (*mat.Dense, error) {
	switch {
	case nPaths < 1:
		return nil, xerrors.ErrInvalidInput.WithDetail("nPaths must be >= 1, got %d", nPaths)
	case nSteps < 1:
		return nil, xerrors.ErrInvalidInput.WithDetail("nSteps must be >= 1, got %d", nSteps)
	case !finite(s0, t) || s0 <= 0:
		return nil, xerrors.ErrInvalidInput.WithDetail("spot must be positive and finite, got %g", s0)
	case t < 0:
		return nil, xerrors.ErrInvalidInput.WithDetail("maturity must be >= 0, got %g", t)
	case rng == nil:
		return nil, xerrors.ErrInvalidInput.WithDetail("random generator is required")
	}
	paths := mat.NewDense(nPaths, nSteps+1, nil)
	for i := range nPaths {
		paths.Set(i, 0, s0)
	}
	return paths, nil
}

// fillForward 确定性分支：每一列为 S0·exp((r-q)·t_j)，不消耗随机数。
// 终值列直接使用 T 计算，避免逐步累乘的舍入误差。
func fillForward(paths *mat.Dense, s0, t, r, q float64) *mat.Dense {
	rows, cols := paths.Dims()
	nSteps := cols - 1
	fwd := make([]float64, cols)
	fwd[0] = s0
	for j := 1; j < nSteps; j++ {
		fwd[j] = s0 * math.Exp((r-q)*t*float64(j)/float64(nSteps))
	}
	fwd[nSteps] = s0 * math.Exp((r-q)*t)
	for i := range rows {
		copy(paths.RawRowView(i), fwd)
	}
	return paths
}

// jumpCompensator 返回 κ = E[e^J - 1] = exp(μ + σ²/2) - 1。
func jumpCompensator(muJ, sigmaJ float64) float64 {
	return math.Exp(muJ+0.5*sigmaJ*sigmaJ) - 1
}
