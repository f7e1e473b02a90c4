package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
)

// ViewInput identifies the session to read.
type ViewInput struct {
	SessionID string `json:"session_id"`
}

type viewService interface {
	View(ctx context.Context, sessionID string) (choropleth.ViewPayload, error)
}

// ViewQuery executes read-only view resolution.
type ViewQuery struct {
	service viewService
}

// NewViewQuery builds the query.
func NewViewQuery(service viewService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, choropleth.ViewPayload] = (*ViewQuery)(nil)

// Query returns the current view of the session.
func (q *ViewQuery) Query(ctx context.Context, input ViewInput) (choropleth.ViewPayload, error) {
	if q.service == nil {
		return choropleth.ViewPayload{}, errors.New("view query requires service")
	}
	return q.service.View(ctx, input.SessionID)
}
