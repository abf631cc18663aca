package pricer

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/optionpricing/algorithm/finance"
	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/algorithm/payoff"
	"github.com/wyfcoding/optionpricing/algorithm/sim"
	"github.com/wyfcoding/optionpricing/algorithm/types"
	"github.com/wyfcoding/optionpricing/metrics"
	"github.com/wyfcoding/optionpricing/xerrors"
)

const (
	bsmCall = 10.450583572185565
	bsmPut  = 5.573526022256971
)

func TestEuropeanMonteCarloMatchesBSM(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	p := NewEuropeanPricer(gbm, payoff.NewCall(100), 20000, 1, 42)
	est, err := p.Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(est.Price-bsmCall) / bsmCall; rel >= 0.05 {
		t.Errorf("mc price %v deviates %.2f%% from %v", est.Price, rel*100, bsmCall)
	}
	if est.StdErr <= 0 || est.StdErr > 0.2 {
		t.Errorf("unexpected stderr %v", est.StdErr)
	}
}

func TestEuropeanReproducible(t *testing.T) {
	heston := sim.NewHeston(0.05, sim.HestonParams{Kappa: 2, Theta: 0.04, Xi: 0.3, Rho: -0.7, V0: 0.04}, 0)
	p := NewEuropeanPricer(heston, payoff.NewAsianCall(100), 2000, 20, 7)
	a, err := p.Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := p.Price(100, 1, 0.05)
	if a != b {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestEuropeanZeroVolatility(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0, 0)
	p := NewEuropeanPricer(gbm, payoff.NewCall(100), 500, 10, 1)
	est, err := p.Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	want := 100 - 100*math.Exp(-0.05)
	if math.Abs(est.Price-want) > 1e-10 {
		t.Errorf("deterministic price %v, want %v", est.Price, want)
	}
	if est.StdErr != 0 {
		t.Errorf("deterministic stderr must be 0, got %v", est.StdErr)
	}
}

func TestEuropeanRateOverridesModel(t *testing.T) {
	// 模型自带利率 0，定价时传入的 r 同时驱动模拟与贴现.
	gbm := sim.NewGeometricBrownianMotion(0, 0.2, 0)
	p := NewEuropeanPricer(gbm, payoff.NewCall(100), 20000, 1, 42)
	est, err := p.Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(est.Price-bsmCall)/bsmCall >= 0.05 {
		t.Errorf("rate override ignored: got %v", est.Price)
	}
}

func TestEuropeanInvalidType(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	p := NewEuropeanPricer(gbm, payoff.Payoff{Type: "digital", Strike: 100}, 10, 1, 1)
	if _, err := p.Price(100, 1, 0.05); !errors.Is(err, xerrors.ErrInvalidOptionType) {
		t.Errorf("expected ErrInvalidOptionType, got %v", err)
	}
}

func TestBinomialCallMatchesBSM(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	price, err := NewAmericanBinomialPricer(gbm, payoff.NewCall(100), 200).Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(price-bsmCall) / bsmCall; rel >= 0.02 {
		t.Errorf("crr call %v deviates %.2f%% from bsm", price, rel*100)
	}
}

func TestAmericanPutExceedsEuropean(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	put := payoff.NewPut(100)

	crr, err := NewAmericanBinomialPricer(gbm, put, 200).Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if crr < bsmPut {
		t.Errorf("crr american put %v below european %v", crr, bsmPut)
	}

	lsm, err := NewLongstaffSchwartzPricer(gbm, put, 20000, 50, 42).Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if lsm.Price < bsmPut {
		t.Errorf("lsm american put %v below european %v", lsm.Price, bsmPut)
	}
	if math.Abs(lsm.Price-crr) > 0.25 {
		t.Errorf("lsm %v and crr %v disagree", lsm.Price, crr)
	}
}

func TestLongstaffSchwartzLaguerreBasis(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	put := payoff.NewPut(100)
	crr, err := NewAmericanBinomialPricer(gbm, put, 200).Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.NewMetrics("lsm_test")
	p := NewLongstaffSchwartzPricer(gbm, put, 10000, 50, 3,
		WithBasis(algomath.Laguerre{Degree: 3}), WithMinITM(50), WithMetrics(m))
	est, err := p.Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(est.Price-crr) > 0.3 {
		t.Errorf("laguerre lsm %v and crr %v disagree", est.Price, crr)
	}
}

func TestLongstaffSchwartzDeterministic(t *testing.T) {
	// σ = 0 时所有路径相同，回归秩亏，延续价值退化为因变量均值.
	// LSM 不在 0 时刻行权，结果等于 j >= 1 网格点上贴现内在价值的最大值.
	const (
		k, s0, maturity = 110.0, 100.0, 1.0
		steps           = 10
	)
	put := payoff.NewPut(k)
	for _, r := range []float64{-0.02, 0, 0.05} {
		gbm := sim.NewGeometricBrownianMotion(r, 0, 0)
		crr, err := NewAmericanBinomialPricer(gbm, put, steps).Price(s0, maturity, r)
		if err != nil {
			t.Fatal(err)
		}
		m := metrics.NewMetrics("lsm_deterministic")
		est, err := NewLongstaffSchwartzPricer(gbm, put, 100, steps, 1, WithMetrics(m)).Price(s0, maturity, r)
		if err != nil {
			t.Fatal(err)
		}

		lagged := 0.0
		for j := 1; j <= steps; j++ {
			tj := maturity * float64(j) / steps
			lagged = math.Max(lagged, math.Exp(-r*tj)*put.Exercise(s0*math.Exp(r*tj)))
		}
		if math.Abs(est.Price-lagged) > 1e-9 {
			t.Errorf("r=%v: lsm %v, want %v", r, est.Price, lagged)
		}
		if r <= 0 && math.Abs(est.Price-crr) > 1e-9 {
			t.Errorf("r=%v: lsm %v must equal crr %v", r, est.Price, crr)
		}
		if est.Price > crr+1e-9 {
			t.Errorf("r=%v: lsm %v exceeds crr %v", r, est.Price, crr)
		}
		if est.StdErr != 0 {
			t.Errorf("r=%v: deterministic stderr must be 0, got %v", r, est.StdErr)
		}
		if got := testutil.ToFloat64(m.RegressionFallbacks.WithLabelValues("singular")); got != steps-1 {
			t.Errorf("r=%v: singular fallbacks = %v, want %d", r, got, steps-1)
		}
	}
}

func TestBinomialDeterministicBranch(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0, 0)
	price, err := NewAmericanBinomialPricer(gbm, payoff.NewPut(110), 50).Price(100, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if price != 10 {
		t.Errorf("immediate exercise expected, got %v", price)
	}
	est, err := NewAmericanBinomialPricer(gbm, payoff.NewCall(90), 50).Estimate(100, 0, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if est != (types.Estimate{Price: 10}) {
		t.Errorf("T=0 estimate %+v", est)
	}
}

func TestAmericanRejectsPathDependent(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	if _, err := NewAmericanBinomialPricer(gbm, payoff.NewAsianPut(100), 50).Price(100, 1, 0.05); !errors.Is(err, xerrors.ErrPathDependentPayoff) {
		t.Errorf("binomial: expected ErrPathDependentPayoff, got %v", err)
	}
	if _, err := NewLongstaffSchwartzPricer(gbm, payoff.NewLookbackCall(100), 100, 10, 1).Price(100, 1, 0.05); !errors.Is(err, xerrors.ErrPathDependentPayoff) {
		t.Errorf("lsm: expected ErrPathDependentPayoff, got %v", err)
	}
}

func TestBinomialInvalidSteps(t *testing.T) {
	gbm := sim.NewGeometricBrownianMotion(0.05, 0.2, 0)
	if _, err := NewAmericanBinomialPricer(gbm, payoff.NewPut(100), 0).Price(100, 1, 0.05); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStochasticVolatilityMonteCarloMatchesLewis(t *testing.T) {
	hp := sim.HestonParams{Kappa: 2, Theta: 0.04, Xi: 0.5, Rho: -0.7, V0: 0.04}
	jp := sim.JumpParams{Lambda: 0.4, MuJ: -0.1, SigmaJ: 0.15}

	cases := []struct {
		name  string
		model sim.Model
		exact func(types.OptionType) (float64, error)
	}{
		{
			name:  "heston",
			model: sim.NewHeston(0.05, hp, 0),
			exact: func(typ types.OptionType) (float64, error) {
				return finance.HestonPrice(100, 100, 1, 0.05, 0, hp.Kappa, hp.Theta, hp.Xi, hp.Rho, hp.V0, typ)
			},
		},
		{
			name:  "bates",
			model: sim.NewBates(0.05, hp, jp, 0),
			exact: func(typ types.OptionType) (float64, error) {
				return finance.BatesPrice(100, 100, 1, 0.05, 0, hp.Kappa, hp.Theta, hp.Xi, hp.Rho, hp.V0, jp.Lambda, jp.MuJ, jp.SigmaJ, typ)
			},
		},
		{
			name:  "merton",
			model: sim.NewMerton(0.05, 0.2, jp, 0),
			exact: func(typ types.OptionType) (float64, error) {
				return finance.MertonPrice(100, 100, 1, 0.05, 0.2, jp.Lambda, jp.MuJ, jp.SigmaJ, 0, typ)
			},
		},
	}

	for _, tc := range cases {
		for _, po := range []payoff.Payoff{payoff.NewCall(100), payoff.NewPut(100)} {
			want, err := tc.exact(po.Type)
			if err != nil {
				t.Fatal(err)
			}
			est, err := NewEuropeanPricer(tc.model, po, 20000, 50, 42).Price(100, 1, 0.05)
			if err != nil {
				t.Fatal(err)
			}
			if diff := math.Abs(est.Price - want); diff > 4*est.StdErr+0.05 {
				t.Errorf("%s %s: mc %v, analytic %v (stderr %v)", tc.name, po.Type, est.Price, want, est.StdErr)
			}
		}
	}
}
