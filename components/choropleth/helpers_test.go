package choropleth

import (
	"context"
	"sync"
)

type recordedEvent struct {
	name    string
	payload map[string]any
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, payload: payload})
}

func (r *recordingTelemetry) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.name == name {
			n++
		}
	}
	return n
}

type metricsFunc func(ctx context.Context) (map[string]float64, error)

func (f metricsFunc) LatestMetrics(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

func staticMetrics(values map[string]float64) MetricSource {
	return metricsFunc(func(context.Context) (map[string]float64, error) {
		return values, nil
	})
}

type seriesFunc func(ctx context.Context, region string) (HistoricalSeries, error)

func (f seriesFunc) HistoricalSeries(ctx context.Context, region string) (HistoricalSeries, error) {
	return f(ctx, region)
}

// gatedSeries blocks each fetch until the test releases it.
type gatedSeries struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedSeries() *gatedSeries {
	return &gatedSeries{gates: map[string]chan struct{}{}, started: make(chan string, 8)}
}

func (g *gatedSeries) gate(region string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[region]
	if !ok {
		ch = make(chan struct{})
		g.gates[region] = ch
	}
	return ch
}

func (g *gatedSeries) release(region string) { close(g.gate(region)) }

func (g *gatedSeries) HistoricalSeries(ctx context.Context, region string) (HistoricalSeries, error) {
	g.started <- region
	select {
	case <-g.gate(region):
	case <-ctx.Done():
		return HistoricalSeries{}, ctx.Err()
	}
	return NewHistoricalSeries(region, map[string]float64{"2020-10-01": 0.1, "2020-11-01": 0.2})
}

type styleCall struct {
	region string
	style  RegionStyle
}

type recordingSurface struct {
	styles []styleCall
	fronts []string
}

func (s *recordingSurface) SetStyle(region string, style RegionStyle) {
	s.styles = append(s.styles, styleCall{region: region, style: style})
}

func (s *recordingSurface) BringToFront(region string) {
	s.fronts = append(s.fronts, region)
}

func (s *recordingSurface) last(region string) (RegionStyle, bool) {
	for i := len(s.styles) - 1; i >= 0; i-- {
		if s.styles[i].region == region {
			return s.styles[i].style, true
		}
	}
	return RegionStyle{}, false
}

func testCatalog() *RegionCatalog {
	catalog, err := NewRegionCatalog([]RegionEntry{
		{Code: "CA", Name: "California"},
		{Code: "NE", Name: "Nebraska"},
		{Code: "OH", Name: "Ohio"},
		{Code: "TX", Name: "Texas"},
	})
	if err != nil {
		panic(err)
	}
	return catalog
}

func loadedStore(values map[string]float64) *MetricStore {
	store := NewMetricStore(testCatalog(), nil)
	if _, err := store.Load(values); err != nil {
		panic(err)
	}
	return store
}
