// Package finance 提供期权定价的解析与半解析参考实现：
// Black-Scholes-Merton 闭式解、Merton 跳跃扩散级数解以及基于特征函数的 Lewis (2001) 积分解。
package finance

import (
	"math"

	"github.com/shopspring/decimal"
	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

func validMarket(s0, k, t float64) error {
	if !finite(s0, k, t) || s0 <= 0 || k <= 0 || t < 0 {
		return xerrors.ErrInvalidInput.WithDetail("invalid market inputs s0=%g k=%g t=%g", s0, k, t)
	}
	return nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func d1d2(s0, k, t, r, sigma, q float64) (d1, d2 float64) {
	sqrtT := math.Sqrt(t)
	d1 = (math.Log(s0/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// bsmCall 无校验的 BSM 看涨价格。σ ≤ 0 或 T ≤ 0 时返回贴现远期内在价值.
func bsmCall(s0, k, t, r, sigma, q float64) float64 {
	if sigma <= 0 || t <= 0 {
		return math.Exp(-r*t) * math.Max(s0*math.Exp((r-q)*t)-k, 0)
	}
	d1, d2 := d1d2(s0, k, t, r, sigma, q)
	return s0*math.Exp(-q*t)*algomath.NormCDF(d1) - k*math.Exp(-r*t)*algomath.NormCDF(d2)
}

// putFromCall 由看涨-看跌平价得到看跌价格，结果下限为 0.
func putFromCall(call, s0, k, t, r, q float64) float64 {
	return math.Max(call-s0*math.Exp(-q*t)+k*math.Exp(-r*t), 0)
}

// BSMPrice Black-Scholes-Merton 闭式解。σ ≤ 0 或 T ≤ 0 时返回贴现远期内在价值.
func BSMPrice(s0, k, t, r, sigma, q float64, typ types.OptionType) (float64, error) {
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	if err := validMarket(s0, k, t); err != nil {
		return 0, err
	}
	if sigma <= 0 || t <= 0 {
		fwd := s0 * math.Exp((r-q)*t)
		return math.Exp(-r*t) * typ.Intrinsic(fwd, k), nil
	}
	if typ.IsCall() {
		return math.Max(bsmCall(s0, k, t, r, sigma, q), 0), nil
	}
	d1, d2 := d1d2(s0, k, t, r, sigma, q)
	put := k*math.Exp(-r*t)*algomath.NormCDF(-d2) - s0*math.Exp(-q*t)*algomath.NormCDF(-d1)
	return math.Max(put, 0), nil
}

// BlackScholesCalculator Black-Scholes 期权定价计算器，以 decimal 作为输入输出.
type BlackScholesCalculator struct{}

// NewBlackScholesCalculator 创建 Black-Scholes 计算器。
func NewBlackScholesCalculator() *BlackScholesCalculator {
	return &BlackScholesCalculator{}
}

// bsInputs 计算器共用的浮点参数.
type bsInputs struct {
	s, k, t, r, sigma, q float64
}

func newBSInputs(spot, strike, expiry, rate, vol, div decimal.Decimal) (bsInputs, error) {
	if spot.LessThanOrEqual(decimal.Zero) || strike.LessThanOrEqual(decimal.Zero) || expiry.LessThanOrEqual(decimal.Zero) || vol.LessThanOrEqual(decimal.Zero) {
		return bsInputs{}, xerrors.ErrInvalidInput.WithDetail("spot, strike, expiry and vol must be positive")
	}
	return bsInputs{
		s:     spot.InexactFloat64(),
		k:     strike.InexactFloat64(),
		t:     expiry.InexactFloat64(),
		r:     rate.InexactFloat64(),
		sigma: vol.InexactFloat64(),
		q:     div.InexactFloat64(),
	}, nil
}

// CalculateCallPrice 计算看涨期权价格。
func (bsc *BlackScholesCalculator) CalculateCallPrice(spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	in, err := newBSInputs(spot, strike, expiry, rate, vol, div)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := BSMPrice(in.s, in.k, in.t, in.r, in.sigma, in.q, types.OptionTypeCall)
	return decimal.NewFromFloat(price), err
}

// CalculatePutPrice 计算看跌期权价格。
func (bsc *BlackScholesCalculator) CalculatePutPrice(spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	in, err := newBSInputs(spot, strike, expiry, rate, vol, div)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := BSMPrice(in.s, in.k, in.t, in.r, in.sigma, in.q, types.OptionTypePut)
	return decimal.NewFromFloat(price), err
}

// BlackScholesResult 包含计算出的期权价格及其希腊字母。
// Vega 与 Rho 按 1% 变动计，Theta 按日计。
type BlackScholesResult struct {
	Price decimal.Decimal
	Delta decimal.Decimal
	Gamma decimal.Decimal
	Vega  decimal.Decimal
	Theta decimal.Decimal
	Rho   decimal.Decimal
}

// Calculate 一次性计算期权价格及所有希腊字母。
func (bsc *BlackScholesCalculator) Calculate(optionType types.OptionType, spot, strike, expiry, rate, vol, div decimal.Decimal) (*BlackScholesResult, error) {
	if err := optionType.Validate(); err != nil {
		return nil, err
	}
	in, err := newBSInputs(spot, strike, expiry, rate, vol, div)
	if err != nil {
		return nil, err
	}
	s, k, t, r, sigma, q := in.s, in.k, in.t, in.r, in.sigma, in.q

	d1, d2 := d1d2(s, k, t, r, sigma, q)
	sqrtT := math.Sqrt(t)
	expRT := math.Exp(-r * t)
	expQT := math.Exp(-q * t)
	phiD1 := algomath.NormPDF(d1)
	decay := -s * expQT * phiD1 * sigma / (2 * sqrtT)

	res := &BlackScholesResult{}
	if optionType.IsCall() {
		nD1, nD2 := algomath.NormCDF(d1), algomath.NormCDF(d2)
		res.Price = decimal.NewFromFloat(math.Max(s*expQT*nD1-k*expRT*nD2, 0))
		res.Delta = decimal.NewFromFloat(expQT * nD1)
		res.Theta = decimal.NewFromFloat((decay - r*k*expRT*nD2 + q*s*expQT*nD1) / 365)
		res.Rho = decimal.NewFromFloat(k * t * expRT * nD2 / 100)
	} else {
		nD1, nD2 := algomath.NormCDF(-d1), algomath.NormCDF(-d2)
		res.Price = decimal.NewFromFloat(math.Max(k*expRT*nD2-s*expQT*nD1, 0))
		res.Delta = decimal.NewFromFloat(-expQT * nD1)
		res.Theta = decimal.NewFromFloat((decay + r*k*expRT*nD2 - q*s*expQT*nD1) / 365)
		res.Rho = decimal.NewFromFloat(-k * t * expRT * nD2 / 100)
	}
	res.Gamma = decimal.NewFromFloat(expQT * phiD1 / (s * sigma * sqrtT))
	res.Vega = decimal.NewFromFloat(s * expQT * phiD1 * sqrtT / 100)

	return res, nil
}

const (
	ivTolerance     = 1e-8
	ivMaxIterations = 100
	ivLower         = 1e-6
	ivUpper         = 5.0
)

// CalculateImpliedVolatility 计算隐含波动率。
// 先用 Newton 迭代，Vega 过小或迭代越界时退回区间 [1e-6, 5] 上的二分法.
// 市场价格超出无套利区间时返回 ErrMathConvergence.
func (bsc *BlackScholesCalculator) CalculateImpliedVolatility(optionType types.OptionType, spot, strike, expiry, rate, div, marketPrice decimal.Decimal) (decimal.Decimal, error) {
	if err := optionType.Validate(); err != nil {
		return decimal.Zero, err
	}
	in, err := newBSInputs(spot, strike, expiry, rate, decimal.NewFromInt(1), div)
	if err != nil {
		return decimal.Zero, err
	}
	target := marketPrice.InexactFloat64()
	price := func(sigma float64) float64 {
		p, _ := BSMPrice(in.s, in.k, in.t, in.r, sigma, in.q, optionType)
		return p
	}

	lo, hi := price(ivLower), price(ivUpper)
	if target < lo-ivTolerance || target > hi+ivTolerance {
		return decimal.Zero, xerrors.ErrMathConvergence.WithDetail("market price %g outside [%g, %g]", target, lo, hi)
	}

	sigma := 0.3
	for range ivMaxIterations {
		diff := price(sigma) - target
		if math.Abs(diff) < ivTolerance {
			return decimal.NewFromFloat(sigma), nil
		}
		d1, _ := d1d2(in.s, in.k, in.t, in.r, sigma, in.q)
		vega := in.s * math.Exp(-in.q*in.t) * algomath.NormPDF(d1) * math.Sqrt(in.t)
		if vega < 1e-10 {
			break
		}
		next := sigma - diff/vega
		if next <= ivLower || next >= ivUpper || math.IsNaN(next) {
			break
		}
		sigma = next
	}

	return decimal.NewFromFloat(bisectVolatility(price, target)), nil
}

func bisectVolatility(price func(float64) float64, target float64) float64 {
	a, b := ivLower, ivUpper
	for range 200 {
		mid := 0.5 * (a + b)
		if price(mid) < target {
			a = mid
		} else {
			b = mid
		}
		if b-a < ivTolerance {
			break
		}
	}
	return 0.5 * (a + b)
}
