package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for one editor server. Each
// server registers into its own registry so tests can run several
// servers in one process.
type metrics struct {
	registry *prometheus.Registry

	sessionsActive prometheus.Gauge
	editOps        *prometheus.CounterVec
	patchesSent    prometheus.Counter
	renderDuration prometheus.Histogram
	exportsTotal   *prometheus.CounterVec
	queryDuration  prometheus.Histogram
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "forma",
			Name:      "sessions_active",
			Help:      "Number of active editing sessions.",
		}),

		editOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forma",
			Name:      "edit_operations_total",
			Help:      "Editing operations processed, by operation type.",
		}, []string{"op"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forma",
			Name:      "patches_sent_total",
			Help:      "DOM patches sent to editing sessions.",
		}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forma",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering the canvas tree.",
			Buckets:   prometheus.DefBuckets,
		}),

		exportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forma",
			Name:      "exports_total",
			Help:      "Standalone exports generated, by mode.",
		}, []string{"mode"}),

		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forma",
			Name:      "query_duration_seconds",
			Help:      "Saved query execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
