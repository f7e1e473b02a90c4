package choropleth

import "context"

// Telemetry event names.
const (
	EventRegionHover       = "choropleth.region.hover"
	EventRegionSelect      = "choropleth.region.select"
	EventSelectionClear    = "choropleth.selection.clear"
	EventMetricsLoaded     = "choropleth.metrics.loaded"
	EventMetricsFailed     = "choropleth.metrics.failed"
	EventSeriesLoaded      = "choropleth.series.loaded"
	EventSeriesFailed      = "choropleth.series.failed"
	EventSeriesStale       = "choropleth.series.stale"
	EventTooltipMissing    = "choropleth.tooltip.unavailable"
	EventSessionStarted    = "choropleth.session.started"
	EventSessionExpired    = "choropleth.session.expired"
	EventSessionClosed     = "choropleth.session.closed"
	EventSurfaceRegistered = "choropleth.surface.registered"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
