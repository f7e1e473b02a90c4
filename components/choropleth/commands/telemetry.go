package commands

import "context"

// Events recorded after a command succeeds.
const (
	EventDispatch       = "choropleth.command.dispatch"
	EventClearSelection = "choropleth.command.clear_selection"
	EventRetry          = "choropleth.command.retry"
	EventClose          = "choropleth.command.close"
)

// Telemetry receives command events. *observability.Telemetry implements it.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func orDiscard(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}

func sessionPayload(sessionID string) map[string]any {
	return map[string]any{"session": sessionID}
}
