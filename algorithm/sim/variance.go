package sim

import (
	"math"
	"math/rand/v2"
)

// psiCritical QE 格式在二次 (平方高斯) 与指数分支之间切换的阈值.
const psiCritical = 1.5

// kappaEpsilon 以下视为无均值回复，使用 κ→0 的矩极限.
const kappaEpsilon = 1e-10

// qeScheme Andersen 二次-指数 (Quadratic-Exponential) 方差离散格式.
// 依据 CIR 过程非中心卡方分布的条件一、二阶矩进行矩匹配，保证方差非负.
type qeScheme struct {
	kappa, theta, xi float64
	dt               float64
	expK             float64
}

func newQEScheme(kappa, theta, xi, dt float64) qeScheme {
	return qeScheme{
		kappa: kappa,
		theta: theta,
		xi:    xi,
		dt:    dt,
		expK:  math.Exp(-kappa * dt),
	}
}

// moments 返回给定上一步方差时 v_{t+dt} 的条件均值与条件方差.
func (s qeScheme) moments(v float64) (m, s2 float64) {
	vp := math.Max(v, 0)
	xi2 := s.xi * s.xi
	if s.kappa < kappaEpsilon {
		return vp, vp * xi2 * s.dt
	}
	e := s.expK
	m = s.theta + (vp-s.theta)*e
	s2 = vp*xi2*e*(1-e)/s.kappa + s.theta*xi2/(2*s.kappa)*(1-e)*(1-e)
	return m, s2
}

// step 推进一步方差. w2 为与价格冲击相关的标准正态变量，
// 指数分支需要的均匀变量按需从 rng 抽取.
func (s qeScheme) step(v, w2 float64, rng *rand.Rand) float64 {
	m, s2 := s.moments(v)
	if m <= 0 {
		return 0
	}
	if s2 <= 0 {
		// 无方差波动：方差确定性地演化为条件均值.
		return m
	}

	psi := s2 / (m * m)
	if psi <= psiCritical {
		inv := 2 / psi
		b2 := inv - 1 + math.Sqrt(inv)*math.Sqrt(inv-1)
		a := m / (1 + b2)
		x := math.Sqrt(b2) + w2
		return a * x * x
	}

	p := (psi - 1) / (psi + 1)
	beta := (1 - p) / m
	u := rng.Float64()
	if u <= p {
		return 0
	}
	return -math.Log((1-u)/(1-p)) / beta
}
