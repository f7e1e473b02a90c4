package queries

import (
	"context"
	"testing"

	"github.com/goliatone/go-choropleth/components/choropleth"
)

type stubViewService struct {
	calls   int
	session string
	view    choropleth.ViewPayload
	err     error
}

func (s *stubViewService) View(_ context.Context, sessionID string) (choropleth.ViewPayload, error) {
	s.calls++
	s.session = sessionID
	return s.view, s.err
}

func TestViewQuery(t *testing.T) {
	service := &stubViewService{view: choropleth.ViewPayload{SessionID: "s1"}}
	query := NewViewQuery(service)
	view, err := query.Query(context.Background(), ViewInput{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || service.session != "s1" {
		t.Fatalf("expected 1 call for s1, got %d for %q", service.calls, service.session)
	}
	if view.SessionID != "s1" {
		t.Fatalf("unexpected view %#v", view)
	}
}

func TestViewQueryRequiresService(t *testing.T) {
	if _, err := NewViewQuery(nil).Query(context.Background(), ViewInput{}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestLegendQuery(t *testing.T) {
	legend := &choropleth.LegendModel{Title: choropleth.LegendTitle}
	service := &stubViewService{view: choropleth.ViewPayload{Map: choropleth.MapModel{Legend: legend}}}
	got, err := NewLegendQuery(service).Query(context.Background(), LegendInput{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got != legend {
		t.Fatalf("expected session legend, got %#v", got)
	}
}

func TestLegendQueryPropagatesErrors(t *testing.T) {
	service := &stubViewService{err: choropleth.ErrSessionNotFound}
	if _, err := NewLegendQuery(service).Query(context.Background(), LegendInput{SessionID: "gone"}); err != choropleth.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
}
