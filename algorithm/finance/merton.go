package finance

import (
	"math"

	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

func validJumps(lam, muJ, sigmaJ float64) error {
	if !finite(lam, muJ, sigmaJ) || lam < 0 || sigmaJ < 0 {
		return xerrors.ErrInvalidInput.WithDetail("invalid jump parameters lambda=%g muJ=%g sigmaJ=%g", lam, muJ, sigmaJ)
	}
	return nil
}

// MertonPrice Merton 跳跃扩散模型的 Poisson 级数解.
//
//	C = Σ_n Poisson(λ'T, n)·BS(S0, K, T, r_n, σ_n, q)
//	λ' = λ(1+κ), σ_n² = σ² + nσⱼ²/T, r_n = r − λκ + n·ln(1+κ)/T
//
// 截断项数取配置值与 ⌈λ'T + 10√(λ'T)⌉ 中的较大者，看跌价格由平价关系得到.
func MertonPrice(s0, k, t, r, sigma, lam, muJ, sigmaJ, q float64, typ types.OptionType, opts ...Option) (float64, error) {
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	if err := validMarket(s0, k, t); err != nil {
		return 0, err
	}
	if err := validJumps(lam, muJ, sigmaJ); err != nil {
		return 0, err
	}
	if t <= 0 || lam == 0 {
		return BSMPrice(s0, k, t, r, sigma, q, typ)
	}

	cfg := newSettings(opts)
	kappa := math.Exp(muJ+0.5*sigmaJ*sigmaJ) - 1
	lamT := lam * (1 + kappa) * t
	logJump := muJ + 0.5*sigmaJ*sigmaJ

	var call float64
	for n := range mertonTerms(cfg.terms, lamT) {
		w := algomath.PoissonPMF(lamT, n)
		fn := float64(n)
		sigmaN := math.Sqrt(sigma*sigma + fn*sigmaJ*sigmaJ/t)
		rN := r - lam*kappa + fn*logJump/t
		call += w * bsmCall(s0, k, t, rN, sigmaN, q)
	}
	call = math.Max(call, 0)

	if typ.IsCall() {
		return call, nil
	}
	return putFromCall(call, s0, k, t, r, q), nil
}

// mertonTerms Poisson 权重在均值以上 10 个标准差外可忽略.
func mertonTerms(configured int, lamT float64) int {
	return max(configured, int(math.Ceil(lamT+10*math.Sqrt(lamT))))
}

// MertonLewisPrice 通过 Lewis 特征函数积分为 Merton 模型定价，用于与级数解交叉校验.
func MertonLewisPrice(s0, k, t, r, sigma, lam, muJ, sigmaJ, q float64, typ types.OptionType, opts ...Option) (float64, error) {
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	if err := validMarket(s0, k, t); err != nil {
		return 0, err
	}
	if err := validJumps(lam, muJ, sigmaJ); err != nil {
		return 0, err
	}
	if t <= 0 || (sigma <= 0 && lam == 0) {
		return BSMPrice(s0, k, t, r, sigma, q, typ)
	}

	cf := mertonCF{r: r, q: q, t: t, sigma: sigma, jumps: jumpCF{lam: lam, muJ: muJ, sigmaJ: sigmaJ}}
	return lewisPrice(cf.eval, s0, k, t, r, q, typ, newSettings(opts)), nil
}
