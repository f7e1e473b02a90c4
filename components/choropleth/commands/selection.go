package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
)

// ClearSelectionInput closes the detail view of a session.
type ClearSelectionInput struct {
	SessionID string `json:"session_id"`
}

type selectionService interface {
	ClearSelection(ctx context.Context, sessionID string) (choropleth.ViewPayload, error)
}

// ClearSelectionCommand drops the selected region of a session.
type ClearSelectionCommand struct {
	service   selectionService
	telemetry Telemetry
}

// NewClearSelectionCommand creates the command.
func NewClearSelectionCommand(service selectionService, telemetry Telemetry) *ClearSelectionCommand {
	return &ClearSelectionCommand{service: service, telemetry: orDiscard(telemetry)}
}

var _ gocommand.Commander[ClearSelectionInput] = (*ClearSelectionCommand)(nil)

// Execute delegates to the controller.
func (c *ClearSelectionCommand) Execute(ctx context.Context, msg ClearSelectionInput) error {
	if c.service == nil {
		return errors.New("clear selection command requires service")
	}
	if _, err := c.service.ClearSelection(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventClearSelection, sessionPayload(msg.SessionID))
	return nil
}
