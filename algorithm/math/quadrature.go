package math

import (
	"gonum.org/v1/gonum/integrate/quad"
)

// GaussLegendre 复合 Gauss-Legendre 求积：将区间等分为 Panels 段，每段使用 Order 点规则。
// 节点与权重只计算一次，可在多次积分之间复用；实例本身只读，可并发使用。
type GaussLegendre struct {
	nodes   []float64
	weights []float64
	panels  int
}

// NewGaussLegendre 创建复合求积器。panels < 1 或 order < 2 时使用下限值。
func NewGaussLegendre(panels, order int) *GaussLegendre {
	if panels < 1 {
		panels = 1
	}
	if order < 2 {
		order = 2
	}
	g := &GaussLegendre{
		nodes:   make([]float64, order),
		weights: make([]float64, order),
		panels:  panels,
	}
	var rule quad.Legendre
	rule.FixedLocations(g.nodes, g.weights, -1, 1)
	return g
}

// Integrate 计算 ∫_a^b f(x) dx。
func (g *GaussLegendre) Integrate(f func(float64) float64, a, b float64) float64 {
	h := (b - a) / float64(g.panels)
	half := h / 2
	var total float64
	for p := range g.panels {
		mid := a + (float64(p)+0.5)*h
		var s float64
		for i, x := range g.nodes {
			s += g.weights[i] * f(mid+half*x)
		}
		total += s * half
	}
	return total
}
