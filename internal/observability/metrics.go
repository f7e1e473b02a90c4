package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "choropleth"

// Metrics holds the Prometheus collectors for the dashboard server.
type Metrics struct {
	Events         *prometheus.CounterVec // labels: event
	SessionsActive prometheus.Gauge

	// Upstream cases-per-test API.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint, outcome
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.Events,
		m.SessionsActive,
		m.UpstreamRequests,
		m.UpstreamDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Dashboard events by name.",
		}, []string{"event"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open dashboard sessions.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Cases-per-test API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Cases-per-test API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
	}
}
