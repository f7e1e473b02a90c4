package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
)

// LegendInput identifies the session whose legend to read.
type LegendInput struct {
	SessionID string `json:"session_id"`
}

// LegendQuery resolves the legend shown on a session's map. The result is nil
// until metrics have loaded.
type LegendQuery struct {
	service viewService
}

// NewLegendQuery builds the query.
func NewLegendQuery(service viewService) *LegendQuery {
	return &LegendQuery{service: service}
}

var _ gocommand.Querier[LegendInput, *choropleth.LegendModel] = (*LegendQuery)(nil)

// Query returns the session legend.
func (q *LegendQuery) Query(ctx context.Context, input LegendInput) (*choropleth.LegendModel, error) {
	view, err := NewViewQuery(q.service).Query(ctx, ViewInput(input))
	if err != nil {
		return nil, err
	}
	return view.Map.Legend, nil
}
