package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
)

// RetryInput reloads whatever failed in a session.
type RetryInput struct {
	SessionID string `json:"session_id"`
}

type retryService interface {
	Retry(ctx context.Context, sessionID string) (choropleth.ViewPayload, error)
}

// RetryCommand restarts failed metric or series loads.
type RetryCommand struct {
	service   retryService
	telemetry Telemetry
}

// NewRetryCommand creates the command.
func NewRetryCommand(service retryService, telemetry Telemetry) *RetryCommand {
	return &RetryCommand{service: service, telemetry: orDiscard(telemetry)}
}

var _ gocommand.Commander[RetryInput] = (*RetryCommand)(nil)

// Execute delegates to the controller.
func (c *RetryCommand) Execute(ctx context.Context, msg RetryInput) error {
	if c.service == nil {
		return errors.New("retry command requires service")
	}
	if _, err := c.service.Retry(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventRetry, sessionPayload(msg.SessionID))
	return nil
}
