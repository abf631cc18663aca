// Package pricer 在模拟器与收益函数之上构建期权定价器：
// 蒙特卡洛欧式定价、CRR 二叉树美式定价与 Longstaff-Schwartz 最小二乘蒙特卡洛。
package pricer

import (
	"log/slog"

	algomath "github.com/wyfcoding/optionpricing/algorithm/math"
	"github.com/wyfcoding/optionpricing/metrics"
)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	basis   algomath.Basis
	minITM  int
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		basis:  algomath.Polynomial{Degree: 2},
	}
}

// Option 定价器构造参数。
type Option func(*options)

// WithLogger 注入日志记录器，定价摘要以 debug 级别输出。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 注入指标采集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBasis 设置 Longstaff-Schwartz 的回归基函数，其他定价器忽略该选项。
func WithBasis(basis algomath.Basis) Option {
	return func(o *options) {
		if basis != nil && basis.Size() > 0 {
			o.basis = basis
		}
	}
}

// WithMinITM 设置回归所需的最少价内路径数，实际下限为 max(n, 基函数个数+1)。
func WithMinITM(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minITM = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
