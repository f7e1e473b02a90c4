package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/components/choropleth/commands"
)

// Executor runs session commands on behalf of a transport.
type Executor interface {
	Dispatch(ctx context.Context, input commands.DispatchPointerInput) error
	ClearSelection(ctx context.Context, input commands.ClearSelectionInput) error
	Retry(ctx context.Context, input commands.RetryInput) error
	CloseSession(ctx context.Context, input commands.CloseSessionInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	DispatchCommander gocommand.Commander[commands.DispatchPointerInput]
	ClearCommander    gocommand.Commander[commands.ClearSelectionInput]
	RetryCommander    gocommand.Commander[commands.RetryInput]
	CloseCommander    gocommand.Commander[commands.CloseSessionInput]
}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) Dispatch(ctx context.Context, input commands.DispatchPointerInput) error {
	if e.DispatchCommander == nil {
		return errors.New("httpapi: dispatch commander not configured")
	}
	return e.DispatchCommander.Execute(ctx, input)
}

func (e *CommandExecutor) ClearSelection(ctx context.Context, input commands.ClearSelectionInput) error {
	if e.ClearCommander == nil {
		return errors.New("httpapi: clear commander not configured")
	}
	return e.ClearCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Retry(ctx context.Context, input commands.RetryInput) error {
	if e.RetryCommander == nil {
		return errors.New("httpapi: retry commander not configured")
	}
	return e.RetryCommander.Execute(ctx, input)
}

func (e *CommandExecutor) CloseSession(ctx context.Context, input commands.CloseSessionInput) error {
	if e.CloseCommander == nil {
		return errors.New("httpapi: close commander not configured")
	}
	return e.CloseCommander.Execute(ctx, input)
}

// NewExecutor wires the session commands to controller.
func NewExecutor(controller *choropleth.Controller, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		DispatchCommander: commands.NewDispatchPointerCommand(controller, telemetry),
		ClearCommander:    commands.NewClearSelectionCommand(controller, telemetry),
		RetryCommander:    commands.NewRetryCommand(controller, telemetry),
		CloseCommander:    commands.NewCloseSessionCommand(controller, telemetry),
	}
}
