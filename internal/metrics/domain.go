package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "导出耗时分布（秒），按格式与结果区分。",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"format", "outcome"},
	)

	rewriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "rewrite",
			Name:      "duration_seconds",
			Help:      "改写请求耗时分布（秒）。",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 60},
		},
		[]string{"outcome"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "当前存活的编辑会话数量。",
		},
	)
)

// ObserveExport records one export attempt. outcome is "ok" or an error code name.
func ObserveExport(format, outcome string, d time.Duration) {
	exportDuration.WithLabelValues(format, outcome).Observe(d.Seconds())
}

// ObserveRewrite records one rewrite attempt.
func ObserveRewrite(outcome string, d time.Duration) {
	rewriteDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetActiveSessions publishes the registry size.
func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}
