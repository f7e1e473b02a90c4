package choropleth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type interactionFixture struct {
	controller *RegionInteractionController
	surface    *recordingSurface
	tooltip    *TooltipPanel
	telemetry  *recordingTelemetry
	changes    []Selection
}

func newInteractionFixture(values map[string]float64) *interactionFixture {
	store := loadedStore(values)
	f := &interactionFixture{
		surface:   &recordingSurface{},
		tooltip:   &TooltipPanel{},
		telemetry: &recordingTelemetry{},
	}
	f.controller = NewRegionInteractionController(InteractionOptions{
		Values:    store,
		Scale:     NewColorScale(store),
		Surface:   f.surface,
		Tooltip:   f.tooltip,
		Telemetry: f.telemetry,
	})
	f.controller.OnSelectionChange(func(_ context.Context, _, next Selection) {
		f.changes = append(f.changes, next)
	})
	return f
}

func TestHoverEnterEmphasizesAndShowsTooltip(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2, "Ohio": 0.1})
	ctx := context.Background()

	require.NoError(t, f.controller.HoverEnter(ctx, "Texas"))

	style, ok := f.surface.last("Texas")
	require.True(t, ok)
	assert.Equal(t, StyleHover, style.Kind)
	assert.Equal(t, HoverBorderColor, style.BorderColor)
	assert.Equal(t, float64(EmphasisBorderWidth), style.BorderWidth)
	assert.False(t, style.Dashed)
	assert.Equal(t, DarkColor, style.FillColor)
	assert.Equal(t, []string{"Texas"}, f.surface.fronts)

	payload, ok := f.tooltip.Current()
	require.True(t, ok)
	assert.Equal(t, TooltipPayload{Region: "Texas", Value: 0.2, Label: "0.2000"}, payload)

	hovered, ok := f.controller.Hovered()
	assert.True(t, ok)
	assert.Equal(t, "Texas", hovered)
}

func TestHoverExitRestoresRestingStyle(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2, "Ohio": 0.1})
	ctx := context.Background()
	require.NoError(t, f.controller.HoverEnter(ctx, "Ohio"))

	f.controller.HoverExit(ctx, "Ohio")

	style, _ := f.surface.last("Ohio")
	assert.Equal(t, StyleResting, style.Kind)
	assert.Equal(t, RestingBorderColor, style.BorderColor)
	assert.Equal(t, float64(RestingBorderWidth), style.BorderWidth)
	assert.True(t, style.Dashed)
	assert.Equal(t, RegionFillOpacity, style.FillOpacity)
	_, visible := f.tooltip.Current()
	assert.False(t, visible)
	_, hovering := f.controller.Hovered()
	assert.False(t, hovering)
}

func TestHoverWithoutValueHidesTooltip(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2})
	f.tooltip.Show(TooltipPayload{Region: "Texas"})

	err := f.controller.HoverEnter(context.Background(), "Nebraska")
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))

	style, _ := f.surface.last("Nebraska")
	assert.Equal(t, StyleHover, style.Kind)
	assert.Equal(t, NoDataColor, style.FillColor)
	_, visible := f.tooltip.Current()
	assert.False(t, visible)
	assert.Equal(t, 1, f.telemetry.count(EventTooltipMissing))
}

func TestHoverOnSelectedRegionIsNoop(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2, "Ohio": 0.1})
	ctx := context.Background()
	f.controller.Click(ctx, "Texas")
	calls := len(f.surface.styles)

	require.NoError(t, f.controller.HoverEnter(ctx, "Texas"))
	f.controller.HoverExit(ctx, "Texas")

	assert.Len(t, f.surface.styles, calls)
	assert.Equal(t, StyleSelected, f.controller.StyleFor("Texas").Kind)
	_, visible := f.tooltip.Current()
	assert.False(t, visible)
}

func TestClickSelectsAndReselectionRestoresPrevious(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2, "Ohio": 0.1})
	ctx := context.Background()

	f.controller.Click(ctx, "Texas")
	style, _ := f.surface.last("Texas")
	assert.Equal(t, StyleSelected, style.Kind)
	assert.Equal(t, SelectedBorderColor, style.BorderColor)

	f.controller.Click(ctx, "Ohio")
	prev, _ := f.surface.last("Texas")
	assert.Equal(t, StyleResting, prev.Kind)
	next, _ := f.surface.last("Ohio")
	assert.Equal(t, StyleSelected, next.Kind)

	assert.True(t, f.controller.Selection().Is("Ohio"))
	assert.Equal(t, []Selection{Selected("Texas"), Selected("Ohio")}, f.changes)
	assert.Equal(t, []string{"Texas", "Ohio"}, f.surface.fronts)
}

func TestClickSameRegionDoesNotNotify(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2})
	ctx := context.Background()
	f.controller.Click(ctx, "Texas")
	f.controller.Click(ctx, "Texas")

	assert.Len(t, f.changes, 1)
	assert.Equal(t, StyleSelected, f.controller.StyleFor("Texas").Kind)
}

func TestClickHoveredRegionClearsHover(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2})
	ctx := context.Background()
	require.NoError(t, f.controller.HoverEnter(ctx, "Texas"))
	f.controller.Click(ctx, "Texas")

	_, hovering := f.controller.Hovered()
	assert.False(t, hovering)
	assert.Equal(t, StyleSelected, f.controller.StyleFor("Texas").Kind)
}

func TestClearSelection(t *testing.T) {
	f := newInteractionFixture(map[string]float64{"Texas": 0.2})
	ctx := context.Background()

	f.controller.ClearSelection(ctx)
	assert.Empty(t, f.changes, "clearing nothing does not notify")

	f.controller.Click(ctx, "Texas")
	f.controller.ClearSelection(ctx)

	assert.False(t, f.controller.Selection().Active())
	style, _ := f.surface.last("Texas")
	assert.Equal(t, StyleResting, style.Kind)
	require.Len(t, f.changes, 2)
	assert.Equal(t, NoSelection(), f.changes[1])
	assert.Equal(t, 1, f.telemetry.count(EventSelectionClear))
}

func TestStylesReadScaleAtEventTime(t *testing.T) {
	store := NewMetricStore(testCatalog(), nil)
	controller := NewRegionInteractionController(InteractionOptions{Values: store, Scale: NewColorScale(store)})
	assert.Equal(t, NoDataColor, controller.RestingStyle("Texas").FillColor)

	_, err := store.Load(map[string]float64{"Texas": 0.2, "Ohio": 0.1})
	require.NoError(t, err)
	assert.Equal(t, DarkColor, controller.RestingStyle("Texas").FillColor)
	assert.Equal(t, LightColor, controller.RestingStyle("Ohio").FillColor)
}

func TestSelectionValue(t *testing.T) {
	assert.Equal(t, "none", NoSelection().String())
	assert.False(t, NoSelection().Is(""))
	region, ok := Selected("Ohio").Region()
	assert.True(t, ok)
	assert.Equal(t, "Ohio", region)
	assert.Equal(t, "Ohio", Selected("Ohio").String())
}
