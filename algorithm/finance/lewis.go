package finance

import (
	"math"
	"math/cmplx"

	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// cfEpsilon 特征函数内部分母的最小模长，避免对数分支处的 NaN.
const cfEpsilon = 1e-12

// xiEpsilon 以下的方差波动率视为零，模型退化为确定性方差.
const xiEpsilon = 1e-6

// charFunc ln(S_T/S0) 的特征函数，漂移为 (r−q).
type charFunc func(w complex128) complex128

func guard(z complex128) complex128 {
	if cmplx.Abs(z) < cfEpsilon {
		return complex(cfEpsilon, 0)
	}
	return z
}

// jumpCF 对数正态复合 Poisson 跳跃对特征函数的乘子 (已含 λκ 补偿).
type jumpCF struct {
	lam, muJ, sigmaJ float64
}

func (j jumpCF) exponent(w complex128, t float64) complex128 {
	if j.lam == 0 {
		return 0
	}
	kappa := math.Exp(j.muJ+0.5*j.sigmaJ*j.sigmaJ) - 1
	iw := complex(0, 1) * w
	mu := complex(j.muJ, 0)
	s2 := complex(0.5*j.sigmaJ*j.sigmaJ, 0)
	lamT := complex(j.lam*t, 0)
	return lamT*(cmplx.Exp(iw*mu-s2*w*w)-1) - iw*complex(j.lam*kappa*t, 0)
}

type mertonCF struct {
	r, q, t, sigma float64
	jumps          jumpCF
}

func (m mertonCF) eval(w complex128) complex128 {
	iw := complex(0, 1) * w
	s2 := 0.5 * m.sigma * m.sigma
	drift := complex((m.r-m.q-s2)*m.t, 0)
	diffusion := complex(s2*m.t, 0)
	return cmplx.Exp(iw*drift - diffusion*w*w + m.jumps.exponent(w, m.t))
}

// hestonCF 使用 Albrecher 等人的 "little trap" 形式，避免复对数的分支跳跃.
type hestonCF struct {
	r, q, t                   float64
	kappa, theta, xi, rho, v0 float64
	jumps                     jumpCF
}

func (h hestonCF) eval(w complex128) complex128 {
	i := complex(0, 1)
	iw := i * w
	xi := complex(h.xi, 0)
	xi2 := xi * xi
	t := complex(h.t, 0)
	sum := w*w + iw

	beta := complex(h.kappa, 0) - complex(h.rho, 0)*xi*iw
	d := cmplx.Sqrt(beta*beta + xi2*sum)
	bpd := guard(beta + d)
	// (β−d)/ξ² 与 g 按 β²−d² = −ξ²(w²+iw) 展开，小 ξ 时不做相消减法.
	bmdOverXi2 := -sum / bpd
	g := xi2 * bmdOverXi2 / bpd
	edt := cmplx.Exp(-d * t)

	// num/den = 1 + z，z 与 ξ² 同阶.
	zOverXi2 := bmdOverXi2 / bpd * (1 - edt) / guard(1-g)
	logRatioOverXi2 := zOverXi2 * log1pRatio(xi2*zOverXi2)

	c := complex(h.r-h.q, 0)*iw*t +
		complex(h.kappa*h.theta, 0)*(bmdOverXi2*t-2*logRatioOverXi2)
	dd := bmdOverXi2 * (1 - edt) / guard(1-g*edt)

	return cmplx.Exp(c + dd*complex(h.v0, 0) + h.jumps.exponent(w, h.t))
}

// log1pRatio 返回 ln(1+z)/z，|z| 很小时用级数展开.
func log1pRatio(z complex128) complex128 {
	if cmplx.Abs(z) < 1e-4 {
		return 1 - z/2 + z*z/3
	}
	return cmplx.Log(guard(1+z)) / z
}

// lewisPrice Lewis (2001) 单积分公式:
//
//	C = S0·e^{−qT} − e^{−rT}·√(S0K)/π · ∫_0^∞ Re[e^{iu·ln(S0/K)}·φ(u − i/2)] / (u² + ¼) du
//
// 积分在 limit 处截断，看涨价格下限为 0，看跌由平价关系得到.
func lewisPrice(phi charFunc, s0, k, t, r, q float64, typ types.OptionType, cfg settings) float64 {
	x := math.Log(s0 / k)
	integrand := func(u float64) float64 {
		w := complex(u, -0.5)
		v := cmplx.Exp(complex(0, u*x)) * phi(w)
		return real(v) / (u*u + 0.25)
	}
	integral := cfg.quadrature().Integrate(integrand, 0, cfg.limit)

	call := s0*math.Exp(-q*t) - math.Exp(-r*t)*math.Sqrt(s0*k)/math.Pi*integral
	call = math.Max(call, 0)
	if typ.IsCall() {
		return call
	}
	return putFromCall(call, s0, k, t, r, q)
}

func validHeston(kappa, theta, xi, rho, v0 float64) error {
	if !finite(kappa, theta, xi, rho, v0) || kappa < 0 || theta < 0 || xi < 0 || v0 < 0 || math.Abs(rho) > 1 {
		return xerrors.ErrInvalidInput.WithDetail("invalid heston parameters kappa=%g theta=%g xi=%g rho=%g v0=%g", kappa, theta, xi, rho, v0)
	}
	return nil
}

// effectiveVol ξ = 0 时方差确定性演化，返回 √(∫v dt / T).
func effectiveVol(kappa, theta, v0, t float64) float64 {
	var integrated float64
	if kappa < 1e-10 {
		integrated = v0 * t
	} else {
		integrated = theta*t + (v0-theta)*(1-math.Exp(-kappa*t))/kappa
	}
	return math.Sqrt(math.Max(integrated, 0) / t)
}

// HestonPrice Heston 随机波动率模型的 Lewis 半解析价格.
// ξ ≈ 0 时精确退化为以积分方差为波动率的 BSM 价格.
func HestonPrice(s0, k, t, r, q, kappa, theta, xi, rho, v0 float64, typ types.OptionType, opts ...Option) (float64, error) {
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	if err := validMarket(s0, k, t); err != nil {
		return 0, err
	}
	if err := validHeston(kappa, theta, xi, rho, v0); err != nil {
		return 0, err
	}
	if t <= 0 || xi < xiEpsilon {
		sigma := 0.0
		if t > 0 {
			sigma = effectiveVol(kappa, theta, v0, t)
		}
		return BSMPrice(s0, k, t, r, sigma, q, typ)
	}

	cf := hestonCF{r: r, q: q, t: t, kappa: kappa, theta: theta, xi: xi, rho: rho, v0: v0}
	return lewisPrice(cf.eval, s0, k, t, r, q, typ, newSettings(opts)), nil
}

// BatesPrice Bates (Heston + Merton 跳跃) 模型的 Lewis 半解析价格.
// ξ ≈ 0 时退化为以积分方差为扩散波动率的 Merton 级数解.
func BatesPrice(s0, k, t, r, q, kappa, theta, xi, rho, v0, lam, muJ, sigmaJ float64, typ types.OptionType, opts ...Option) (float64, error) {
	if err := typ.Validate(); err != nil {
		return 0, err
	}
	if err := validMarket(s0, k, t); err != nil {
		return 0, err
	}
	if err := validHeston(kappa, theta, xi, rho, v0); err != nil {
		return 0, err
	}
	if err := validJumps(lam, muJ, sigmaJ); err != nil {
		return 0, err
	}
	if t <= 0 || xi < xiEpsilon {
		sigma := 0.0
		if t > 0 {
			sigma = effectiveVol(kappa, theta, v0, t)
		}
		return MertonPrice(s0, k, t, r, sigma, lam, muJ, sigmaJ, q, typ, opts...)
	}

	cf := hestonCF{
		r: r, q: q, t: t,
		kappa: kappa, theta: theta, xi: xi, rho: rho, v0: v0,
		jumps: jumpCF{lam: lam, muJ: muJ, sigmaJ: sigmaJ},
	}
	return lewisPrice(cf.eval, s0, k, t, r, q, typ, newSettings(opts)), nil
}
