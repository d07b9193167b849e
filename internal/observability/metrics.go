package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service, plus a
// rolling latency window backing the perf snapshot endpoint.
type Metrics struct {
	ActiveStreams        prometheus.Gauge
	TurnsTotal           *prometheus.CounterVec
	StreamErrors         *prometheus.CounterVec
	FirstFragmentLatency prometheus.Histogram

	window *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of chat responses currently being streamed.",
		}),
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Persisted transcript turns by role.",
		}, []string{"role"}),
		StreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Failed chat turns by failure source.",
		}, []string{"source"}),
		FirstFragmentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_fragment_latency_ms",
			Help:      "Latency to the first streamed fragment in milliseconds.",
			Buckets:   []float64{50, 100, 200, 400, 700, 1000, 2000, 5000},
		}),
		window: newLatencyWindow(256),
	}
}

func (m *Metrics) ObserveFirstFragmentLatency(d time.Duration) {
	m.FirstFragmentLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	m.window.Observe(stage, float64(d.Milliseconds()))
}

func (m *Metrics) ObserveIndicator(name string) {
	m.window.ObserveIndicator(name)
}

func (m *Metrics) SnapshotTurnStages() StageSnapshot {
	return m.window.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
