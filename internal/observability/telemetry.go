package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/pkg/casesapi"
)

// Telemetry records dashboard events as Prometheus metrics and debug logs.
type Telemetry struct {
	metrics *Metrics
	logger  *slog.Logger
}

var (
	_ choropleth.Telemetry = (*Telemetry)(nil)
	_ casesapi.Observer    = (*Telemetry)(nil)
)

// NewTelemetry wires metrics and logger. Either may be nil.
func NewTelemetry(metrics *Metrics, logger *slog.Logger) *Telemetry {
	return &Telemetry{metrics: metrics, logger: logger}
}

// Record implements choropleth.Telemetry.
func (t *Telemetry) Record(ctx context.Context, event string, payload map[string]any) {
	if t.metrics != nil {
		t.metrics.Events.WithLabelValues(event).Inc()
		switch event {
		case choropleth.EventSessionStarted:
			t.metrics.SessionsActive.Inc()
		case choropleth.EventSessionExpired, choropleth.EventSessionClosed:
			t.metrics.SessionsActive.Dec()
		}
	}
	if t.logger != nil && t.logger.Enabled(ctx, slog.LevelDebug) {
		attrs := make([]any, 0, len(payload)*2+2)
		attrs = append(attrs, "event", event)
		for k, v := range payload {
			attrs = append(attrs, k, v)
		}
		t.logger.DebugContext(ctx, "telemetry", attrs...)
	}
}

// ObserveFetch implements casesapi.Observer.
func (t *Telemetry) ObserveFetch(endpoint, outcome string, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	t.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
