package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo 注册定价引擎的构建信息指标，重复调用只保留第一次注册.
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if version == "" {
		version = "dev"
	}

	m.BuildInfo = m.NewGaugeVec(&prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "build_info",
		Help:      "Build information of the pricing engine",
	}, []string{"service", "version", "go_version"})
	m.BuildInfo.WithLabelValues(serviceName, version, runtime.Version()).Set(1)
}
