package math

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/optionpricing/xerrors"
)

func TestLeastSquaresRecoversPolynomial(t *testing.T) {
	basis := Polynomial{Degree: 2}
	var x, y []float64
	for i := range 20 {
		v := float64(i) / 10
		x = append(x, v)
		y = append(y, 1+2*v+3*v*v)
	}
	coeffs, err := LeastSquares(basis, x, y)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if math.Abs(coeffs[i]-want[i]) > 1e-9 {
			t.Errorf("coeff %d: got %v, want %v", i, coeffs[i], want[i])
		}
	}
	scratch := make([]float64, basis.Size())
	if got := Predict(basis, coeffs, 0.5, scratch); math.Abs(got-2.75) > 1e-9 {
		t.Errorf("predict: got %v, want 2.75", got)
	}
}

func TestLeastSquaresErrors(t *testing.T) {
	if _, err := LeastSquares(Polynomial{Degree: 1}, []float64{1, 2}, []float64{1}); !errors.Is(err, xerrors.ErrDimMismatch) {
		t.Errorf("expected ErrDimMismatch, got %v", err)
	}
	if _, err := LeastSquares(Polynomial{Degree: 3}, []float64{1, 2}, []float64{1, 2}); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLeastSquaresRejectsSingularDesign(t *testing.T) {
	y := []float64{5, 6, 7, 8, 9}
	for _, v := range []float64{0.9, 1} {
		x := []float64{v, v, v, v, v}
		coeffs, err := LeastSquares(Polynomial{Degree: 2}, x, y)
		if !errors.Is(err, xerrors.ErrMathConvergence) {
			t.Errorf("x=%v: expected ErrMathConvergence, got coeffs=%v err=%v", v, coeffs, err)
		}
	}
	if _, err := LeastSquares(Laguerre{Degree: 2}, []float64{1.2, 1.2, 1.2, 1.2}, []float64{1, 2, 3, 4}); !errors.Is(err, xerrors.ErrMathConvergence) {
		t.Errorf("laguerre: expected ErrMathConvergence, got %v", err)
	}
}

func TestLaguerreBasis(t *testing.T) {
	l := Laguerre{Degree: 2}
	dst := make([]float64, l.Size())
	l.Eval(0, dst)
	for i, v := range dst {
		if v != 1 {
			t.Errorf("L_%d(0) = %v, want 1", i, v)
		}
	}
	x := 1.5
	l.Eval(x, dst)
	w := math.Exp(-x / 2)
	want := []float64{w, w * (1 - x), w * (x*x - 4*x + 2) / 2}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-12 {
			t.Errorf("L_%d(%v) = %v, want %v", i, x, dst[i], want[i])
		}
	}
}

func TestNewBasis(t *testing.T) {
	b, err := NewBasis("laguerre", 3)
	if err != nil || b.Size() != 4 {
		t.Fatalf("unexpected basis %v, err %v", b, err)
	}
	if _, err := NewBasis("chebyshev", 2); err == nil {
		t.Error("expected error for unknown basis")
	}
	if _, err := NewBasis("polynomial", 0); err == nil {
		t.Error("expected error for degree 0")
	}
}

func TestGaussLegendre(t *testing.T) {
	g := NewGaussLegendre(10, 8)
	if got := g.Integrate(math.Sin, 0, math.Pi); math.Abs(got-2) > 1e-12 {
		t.Errorf("∫sin: got %v, want 2", got)
	}
	if got := g.Integrate(func(x float64) float64 { return x * x }, 0, 1); math.Abs(got-1.0/3) > 1e-14 {
		t.Errorf("∫x²: got %v, want 1/3", got)
	}
}

func TestMeanStdErr(t *testing.T) {
	mean, se := MeanStdErr([]float64{1, 2, 3, 4})
	if mean != 2.5 {
		t.Errorf("mean: got %v", mean)
	}
	if want := math.Sqrt(5.0/3) / 2; math.Abs(se-want) > 1e-12 {
		t.Errorf("stderr: got %v, want %v", se, want)
	}
	if _, se := MeanStdErr([]float64{7, 7, 7}); se != 0 {
		t.Errorf("constant sample stderr must be exactly 0, got %v", se)
	}
}

func TestDistributions(t *testing.T) {
	if NormCDF(0) != 0.5 {
		t.Errorf("N(0) = %v", NormCDF(0))
	}
	if math.Abs(NormCDF(1.96)-0.9750021048517795) > 1e-12 {
		t.Errorf("N(1.96) = %v", NormCDF(1.96))
	}
	if math.Abs(NormPDF(0)-1/math.Sqrt(2*math.Pi)) > 1e-15 {
		t.Errorf("n(0) = %v", NormPDF(0))
	}
	if math.Abs(PoissonPMF(2, 0)-math.Exp(-2)) > 1e-15 {
		t.Errorf("Poisson(2, 0) = %v", PoissonPMF(2, 0))
	}
	if PoissonPMF(0, 0) != 1 || PoissonPMF(0, 3) != 0 {
		t.Error("degenerate Poisson pmf")
	}
}
