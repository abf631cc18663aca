package finance

import (
	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
)

const (
	defaultMertonTerms      = 50
	defaultIntegrationLimit = 250.0
	defaultPanels           = 250
	defaultOrder            = 16
)

type settings struct {
	terms  int
	limit  float64
	panels int
	order  int
}

// Option 解析定价器的数值参数.
type Option func(*settings)

// WithTerms 设置 Merton 级数的截断项数.
func WithTerms(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.terms = n
		}
	}
}

// WithIntegrationLimit 设置 Lewis 积分的上限截断.
func WithIntegrationLimit(limit float64) Option {
	return func(s *settings) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithPanels 设置复合 Gauss-Legendre 求积的分段数.
func WithPanels(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.panels = n
		}
	}
}

// WithOrder 设置每段 Gauss-Legendre 规则的节点数.
func WithOrder(n int) Option {
	return func(s *settings) {
		if n > 1 {
			s.order = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		terms:  defaultMertonTerms,
		limit:  defaultIntegrationLimit,
		panels: defaultPanels,
		order:  defaultOrder,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) quadrature() *algomath.GaussLegendre {
	return algomath.NewGaussLegendre(s.panels, s.order)
}
