package choropleth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapView(telemetry Telemetry) *MapView {
	catalog := testCatalog()
	return NewMapView(MapViewOptions{
		Catalog:   catalog,
		Store:     NewMetricStore(catalog, nil),
		Telemetry: telemetry,
	})
}

func TestMapViewStartsLoadingWithoutSurfaces(t *testing.T) {
	view := newTestMapView(nil)
	model := view.Model()

	assert.Equal(t, LoadPending, model.State)
	assert.Nil(t, model.Legend)
	assert.Empty(t, model.Controls)
	require.Len(t, model.Regions, 4)
	for _, region := range model.Regions {
		assert.Nil(t, region.Value)
		assert.Equal(t, StyleResting, region.Style.Kind)
		assert.Equal(t, NoDataColor, region.Style.FillColor)
	}
}

func TestMapViewTooltipNeedsRegisteredSurface(t *testing.T) {
	view := newTestMapView(nil)
	ctx := context.Background()

	require.NoError(t, view.Dispatch(ctx, PointerEvent{Type: EventMouseOver, Region: "Texas"}))
	_, visible := view.Tooltip()
	assert.False(t, visible)
	assert.Equal(t, StyleHover, view.StyleOf("Texas").Kind, "hover style applies even without data")
}

func TestMapViewMetricsLoaded(t *testing.T) {
	telemetry := &recordingTelemetry{}
	view := newTestMapView(telemetry)
	ctx := context.Background()

	skipped, err := view.MetricsLoaded(ctx, map[string]float64{"Texas": 0.2, "Ohio": 0.1, "Atlantis": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlantis"}, skipped)

	model := view.Model()
	assert.Equal(t, LoadReady, model.State)
	assert.Equal(t, []string{ControlLegend, ControlTooltip}, model.Controls)
	require.NotNil(t, model.Legend)
	assert.Equal(t, LegendTitle, model.Legend.Title)
	assert.Equal(t, LegendPosition, model.Legend.Position)
	assert.Len(t, model.Legend.Entries, LegendSteps)
	assert.Equal(t, Domain{Min: 0.1, Max: 0.2}, model.Domain)
	assert.Equal(t, DarkColor, view.StyleOf("Texas").FillColor)
	assert.Equal(t, LightColor, view.StyleOf("Ohio").FillColor)
	assert.Equal(t, NoDataColor, view.StyleOf("Nebraska").FillColor)
	assert.Equal(t, 1, telemetry.count(EventSurfaceRegistered))

	require.NoError(t, view.Dispatch(ctx, PointerEvent{Type: EventMouseOver, Region: "Texas"}))
	payload, visible := view.Tooltip()
	require.True(t, visible)
	assert.Equal(t, "0.2000", payload.Label)
	assert.Equal(t, "Texas", view.Model().Tooltip.Region)
	assert.Equal(t, "Texas", view.Model().Hovered)

	_, err = view.MetricsLoaded(ctx, map[string]float64{"Texas": 0.9})
	assert.ErrorIs(t, err, ErrMetricsAlreadyLoaded)
	assert.Equal(t, 1, telemetry.count(EventSurfaceRegistered))
}

func TestMapViewModelCarriesLoadTime(t *testing.T) {
	catalog := testCatalog()
	clock := clockwork.NewFakeClockAt(time.Date(2020, 12, 1, 9, 30, 0, 0, time.UTC))
	view := NewMapView(MapViewOptions{Catalog: catalog, Store: NewMetricStore(catalog, clock)})
	assert.Nil(t, view.Model().LoadedAt)

	_, err := view.MetricsLoaded(context.Background(), map[string]float64{"Texas": 0.2})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	model := view.Model()
	require.NotNil(t, model.LoadedAt)
	assert.Equal(t, time.Date(2020, 12, 1, 9, 30, 0, 0, time.UTC), *model.LoadedAt)
}

func TestMapViewMetricsFailed(t *testing.T) {
	view := newTestMapView(nil)
	ctx := context.Background()

	view.MetricsFailed(ctx, errors.New("connection refused"))
	model := view.Model()
	assert.Equal(t, LoadFailed, model.State)
	assert.True(t, IsFetchFailure(view.Err()))
	assert.True(t, strings.Contains(model.Error, "fetch latest metrics"))

	view.MetricsPending()
	assert.Equal(t, LoadPending, view.State())
	assert.NoError(t, view.Err())

	_, err := view.MetricsLoaded(ctx, map[string]float64{"Ohio": 0.1})
	require.NoError(t, err)
	view.MetricsFailed(ctx, errors.New("late failure"))
	assert.Equal(t, LoadReady, view.State(), "a loaded map ignores later failures")
}

func TestMapViewDispatchValidatesEvents(t *testing.T) {
	view := newTestMapView(nil)
	ctx := context.Background()

	err := view.Dispatch(ctx, PointerEvent{Type: EventClick, Region: "Atlantis"})
	assert.True(t, IsInvalidEvent(err))

	err = view.Dispatch(ctx, PointerEvent{Type: "dblclick", Region: "Texas"})
	assert.True(t, IsInvalidEvent(err))
}

func TestMapViewZOrder(t *testing.T) {
	view := newTestMapView(nil)
	ctx := context.Background()
	assert.Equal(t, []string{"California", "Nebraska", "Ohio", "Texas"}, view.Order())

	require.NoError(t, view.Dispatch(ctx, PointerEvent{Type: EventMouseOver, Region: "California"}))
	assert.Equal(t, "California", view.Order()[3])

	require.NoError(t, view.Dispatch(ctx, PointerEvent{Type: EventClick, Region: "Nebraska"}))
	order := view.Order()
	assert.Equal(t, "Nebraska", order[3])
	assert.Len(t, order, 4)

	model := view.Model()
	assert.Equal(t, "Nebraska", model.Selected)
	assert.Equal(t, "Nebraska", model.Regions[3].Name)
	assert.Equal(t, StyleSelected, model.Regions[3].Style.Kind)
}

func TestMapConfigBasemapURL(t *testing.T) {
	assert.Empty(t, DefaultMapConfig().BasemapURL())

	cfg := DefaultMapConfig()
	cfg.AccessToken = "pk.test"
	url := cfg.BasemapURL()
	assert.Contains(t, url, "mapbox/light-v10/static/-99.168823,40.930626,3/")
	assert.True(t, strings.HasSuffix(url, "access_token=pk.test"))
}
