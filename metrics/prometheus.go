// Package metrics 封装了基于 Prometheus 的定价引擎指标采集注册表。
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了内部独立的 Prometheus 注册中心及预定义的定价指标。
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	PricingRunsTotal    *prometheus.CounterVec   // 定价调用次数 (维度: pricer, model, status)
	PricingDuration     *prometheus.HistogramVec // 定价耗时分布
	PathsSimulatedTotal *prometheus.CounterVec   // 已模拟的路径总数 (维度: model)
	RegressionFallbacks *prometheus.CounterVec   // LSM 回归退化次数 (维度: reason)
	BuildInfo           *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg, namespace: namespace}

	m.PricingRunsTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_runs_total",
		Help:      "Total number of pricing invocations",
	}, []string{"pricer", "model", "status"})

	m.PricingDuration = m.NewHistogramVec(&prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pricing_duration_seconds",
		Help:      "Pricing latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"pricer", "model"})

	m.PathsSimulatedTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_paths_simulated_total",
		Help:      "Total number of simulated price paths",
	}, []string{"model"})

	m.RegressionFallbacks = m.NewCounterVec(&prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_regression_fallbacks_total",
		Help:      "Longstaff-Schwartz steps that fell back to a degenerate continuation estimate",
	}, []string{"reason"})

	slog.Info("pricing metrics registry initialized", "namespace", namespace)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts *prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(*opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts *prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(*opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts *prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(*opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回底层注册中心，便于调用方聚合或测试。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePricing 记录一次定价调用。m 为 nil 时静默忽略。
func (m *Metrics) ObservePricing(pricer, model string, elapsed time.Duration, paths int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.PricingRunsTotal.WithLabelValues(pricer, model, status).Inc()
	m.PricingDuration.WithLabelValues(pricer, model).Observe(elapsed.Seconds())
	if paths > 0 && err == nil {
		m.PathsSimulatedTotal.WithLabelValues(model).Add(float64(paths))
	}
}

// ObserveFallback 记录一次回归退化。
func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.RegressionFallbacks.WithLabelValues(reason).Inc()
}

// Handler 返回用于暴露指标的 HTTP 处理器，由调用方挂载到自己的服务上。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
