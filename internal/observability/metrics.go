package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the selection/chat pipeline.
type Metrics struct {
	FetchRequests  *prometheus.CounterVec // labels: outcome={success,error}
	ForecastRuns   *prometheus.CounterVec // labels: metric, outcome={success,insufficient_data,error}
	GeocodeLookups *prometheus.CounterVec // labels: outcome={success,error,disabled}
	ChatTurns      *prometheus.CounterVec // labels: outcome={success,error}
	ActiveSessions prometheus.Gauge
	ContextBytes   prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.ForecastRuns,
		m.GeocodeLookups,
		m.ChatTurns,
		m.ActiveSessions,
		m.ContextBytes,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathersight",
			Name:      "fetch_requests_total",
			Help:      "Historical weather fetches by outcome.",
		}, []string{"outcome"}),
		ForecastRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathersight",
			Name:      "forecast_runs_total",
			Help:      "Per-metric forecast fits by outcome.",
		}, []string{"metric", "outcome"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathersight",
			Name:      "geocode_lookups_total",
			Help:      "Reverse geocoding lookups by outcome.",
		}, []string{"outcome"}),
		ChatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathersight",
			Name:      "chat_turns_total",
			Help:      "Chat completions by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weathersight",
			Name:      "active_sessions",
			Help:      "Number of live user sessions.",
		}),
		ContextBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weathersight",
			Name:      "prompt_context_bytes",
			Help:      "Size of the prompt context built per chat turn.",
			Buckets:   []float64{250, 500, 1000, 1500, 2000},
		}),
	}
}
