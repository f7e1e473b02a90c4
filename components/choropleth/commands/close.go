package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// CloseSessionInput ends a session, typically when the page unloads.
type CloseSessionInput struct {
	SessionID string `json:"session_id"`
}

type closeService interface {
	CloseSession(sessionID string)
}

// CloseSessionCommand releases a session and its event loop.
type CloseSessionCommand struct {
	service   closeService
	telemetry Telemetry
}

// NewCloseSessionCommand creates the command.
func NewCloseSessionCommand(service closeService, telemetry Telemetry) *CloseSessionCommand {
	return &CloseSessionCommand{service: service, telemetry: orDiscard(telemetry)}
}

var _ gocommand.Commander[CloseSessionInput] = (*CloseSessionCommand)(nil)

// Execute delegates to the controller.
func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionInput) error {
	if c.service == nil {
		return errors.New("close session command requires service")
	}
	c.service.CloseSession(msg.SessionID)
	c.telemetry.Record(ctx, EventClose, sessionPayload(msg.SessionID))
	return nil
}
