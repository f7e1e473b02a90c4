package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
)

// DispatchPointerInput routes one pointer event to a session's map.
type DispatchPointerInput struct {
	SessionID string                  `json:"session_id"`
	Event     choropleth.PointerEvent `json:"event"`
}

type dispatchService interface {
	Dispatch(ctx context.Context, sessionID string, event choropleth.PointerEvent) (choropleth.ViewPayload, error)
}

// DispatchPointerCommand forwards hover and click events to a session.
type DispatchPointerCommand struct {
	service   dispatchService
	telemetry Telemetry
}

// NewDispatchPointerCommand creates the command.
func NewDispatchPointerCommand(service dispatchService, telemetry Telemetry) *DispatchPointerCommand {
	return &DispatchPointerCommand{service: service, telemetry: orDiscard(telemetry)}
}

var _ gocommand.Commander[DispatchPointerInput] = (*DispatchPointerCommand)(nil)

// Execute validates the event type and delegates to the controller.
func (c *DispatchPointerCommand) Execute(ctx context.Context, msg DispatchPointerInput) error {
	if c.service == nil {
		return errors.New("dispatch command requires service")
	}
	switch msg.Event.Type {
	case choropleth.EventMouseOver, choropleth.EventMouseOut, choropleth.EventClick:
	default:
		return choropleth.InvalidEvent("unsupported pointer event %q", msg.Event.Type)
	}
	if _, err := c.service.Dispatch(ctx, msg.SessionID, msg.Event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventDispatch, map[string]any{
		"session": msg.SessionID,
		"type":    msg.Event.Type,
		"region":  msg.Event.Region,
	})
	return nil
}
