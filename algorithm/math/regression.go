// Package math 提供定价算法共用的数值工具：回归基函数、最小二乘、求积与样本统计。
package math

import (
	"errors"
	"fmt"
	"math"

	"github.com/wyfcoding/optionpricing/xerrors"
	"gonum.org/v1/gonum/mat"
)

// Basis 回归基函数策略，决定 Longstaff-Schwartz 延续价值的函数形式。
type Basis interface {
	// Size 基函数个数 (含常数项)。
	Size() int
	// Eval 在 x 处计算全部基函数值并写入 dst，len(dst) == Size()。
	Eval(x float64, dst []float64)
	Name() string
}

// Polynomial 单项式基 1, x, x², ..., x^Degree。
type Polynomial struct {
	Degree int
}

func (p Polynomial) Size() int { return p.Degree + 1 }

func (p Polynomial) Eval(x float64, dst []float64) {
	v := 1.0
	for i := range dst {
		dst[i] = v
		v *= x
	}
}

func (p Polynomial) Name() string { return fmt.Sprintf("polynomial(%d)", p.Degree) }

// Laguerre 加权 Laguerre 基 exp(-x/2)·L_n(x)，n = 0..Degree。
type Laguerre struct {
	Degree int
}

func (l Laguerre) Size() int { return l.Degree + 1 }

func (l Laguerre) Eval(x float64, dst []float64) {
	w := math.Exp(-x / 2)
	prev, cur := 1.0, 1.0-x
	for n := range dst {
		switch n {
		case 0:
			dst[n] = w
		case 1:
			dst[n] = w * cur
		default:
			k := float64(n - 1)
			next := ((2*k+1-x)*cur - k*prev) / (k + 1)
			prev, cur = cur, next
			dst[n] = w * cur
		}
	}
}

func (l Laguerre) Name() string { return fmt.Sprintf("laguerre(%d)", l.Degree) }

// NewBasis 按名称构造基函数，供配置驱动使用。
func NewBasis(name string, degree int) (Basis, error) {
	if degree < 1 {
		return nil, xerrors.ErrInvalidInput.WithDetail("basis degree must be >= 1, got %d", degree)
	}
	switch name {
	case "", "polynomial":
		return Polynomial{Degree: degree}, nil
	case "laguerre":
		return Laguerre{Degree: degree}, nil
	default:
		return nil, xerrors.ErrInvalidInput.WithDetail("unknown regression basis %q", name)
	}
}

// LeastSquares 以 QR 分解求解 min ||A·c - y||，A 的第 i 行为 basis(x[i])。
// 设计矩阵秩亏或严重病态时返回 ErrMathConvergence。
func LeastSquares(basis Basis, x, y []float64) ([]float64, error) {
	n, m := len(x), basis.Size()
	if n != len(y) {
		return nil, xerrors.ErrDimMismatch
	}
	if n < m {
		return nil, xerrors.ErrInvalidInput.WithDetail("need at least %d samples, got %d", m, n)
	}

	if !distinctAtLeast(x, m) {
		return nil, xerrors.ErrMathConvergence.WithDetail("rank-deficient regression: fewer than %d distinct abscissae", m)
	}

	a := mat.NewDense(n, m, nil)
	for i, xi := range x {
		basis.Eval(xi, a.RawRowView(i))
	}

	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			// 条件数超过 mat.ConditionTolerance 或三角求解失败 (Inf) 时解不可信.
			return nil, xerrors.ErrMathConvergence.WithDetail("ill-conditioned regression with %d samples, condition %g", n, float64(cond))
		}
		return nil, xerrors.Wrap(err, xerrors.ErrInternal, "least squares solve failed")
	}

	coeffs := make([]float64, m)
	for i := range coeffs {
		v := c.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, xerrors.ErrMathConvergence.WithDetail("rank-deficient regression with %d samples", n)
		}
		coeffs[i] = v
	}
	return coeffs, nil
}

// distinctAtLeast 判断 x 中是否至少有 m 个互不相同的取值；多项式类基函数满秩当且仅当如此.
func distinctAtLeast(x []float64, m int) bool {
	seen := make([]float64, 0, m)
outer:
	for _, v := range x {
		for _, s := range seen {
			if v == s {
				continue outer
			}
		}
		seen = append(seen, v)
		if len(seen) >= m {
			return true
		}
	}
	return false
}

// Predict 计算 Σ coeffs[j]·basis_j(x)，scratch 长度须为 basis.Size()。
func Predict(basis Basis, coeffs []float64, x float64, scratch []float64) float64 {
	basis.Eval(x, scratch)
	var v float64
	for j, c := range coeffs {
		v += c * scratch[j]
	}
	return v
}
