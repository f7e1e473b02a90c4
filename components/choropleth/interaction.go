package choropleth

import "context"

// Fixed presentation constants.
const (
	RestingBorderColor  = "#ffffff"
	HoverBorderColor    = "#000000"
	SelectedBorderColor = "#ffff00"
	RestingBorderWidth  = 2
	EmphasisBorderWidth = 3
	RegionFillOpacity   = 0.7
)

// RegionSurface applies styles and z-order to region boundaries.
type RegionSurface interface {
	SetStyle(region string, style RegionStyle)
	BringToFront(region string)
}

// TooltipSink receives tooltip updates.
type TooltipSink interface {
	Show(payload TooltipPayload)
	Hide()
}

// SelectionListener is notified after the selection changes.
type SelectionListener func(ctx context.Context, prev, next Selection)

// RegionInteractionController owns hover and selection state and emits the
// style, z-order and tooltip effects of pointer events. Metric values and the
// color scale are read when an event is handled, never cached.
type RegionInteractionController struct {
	values    ValueSource
	scale     *ColorScale
	surface   RegionSurface
	tooltip   TooltipSink
	telemetry Telemetry

	selection Selection
	hovered   string
	listeners []SelectionListener
}

// InteractionOptions wires the controller collaborators.
type InteractionOptions struct {
	Values    ValueSource
	Scale     *ColorScale
	Surface   RegionSurface
	Tooltip   TooltipSink
	Telemetry Telemetry
}

// NewRegionInteractionController builds a controller with no selection.
func NewRegionInteractionController(opts InteractionOptions) *RegionInteractionController {
	surface := opts.Surface
	if surface == nil {
		surface = noopSurface{}
	}
	tooltip := opts.Tooltip
	if tooltip == nil {
		tooltip = noopTooltip{}
	}
	scale := opts.Scale
	if scale == nil {
		scale = NewColorScale(nil)
	}
	return &RegionInteractionController{
		values:    opts.Values,
		scale:     scale,
		surface:   surface,
		tooltip:   tooltip,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// OnSelectionChange registers a listener for selection changes.
func (c *RegionInteractionController) OnSelectionChange(fn SelectionListener) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

// Selection returns the current selection.
func (c *RegionInteractionController) Selection() Selection { return c.selection }

// Hovered returns the region under the pointer, if any.
func (c *RegionInteractionController) Hovered() (string, bool) {
	return c.hovered, c.hovered != ""
}

// HoverEnter emphasizes region and publishes its tooltip. Hovering the
// selected region does nothing. A DataUnavailable error is returned when the
// region has no value; the style is still applied and the tooltip hidden.
func (c *RegionInteractionController) HoverEnter(ctx context.Context, region string) error {
	if c.selection.Is(region) {
		return nil
	}
	c.hovered = region
	c.surface.SetStyle(region, c.HoverStyle(region))
	c.surface.BringToFront(region)

	value, ok := c.value(region)
	if !ok {
		c.tooltip.Hide()
		c.telemetry.Record(ctx, EventTooltipMissing, map[string]any{"region": region})
		return DataUnavailable(region)
	}
	c.tooltip.Show(TooltipPayload{Region: region, Value: value, Label: FormatMetric(value)})
	c.telemetry.Record(ctx, EventRegionHover, map[string]any{"region": region})
	return nil
}

// HoverExit restores the resting style of region and clears the tooltip.
// Leaving the selected region does nothing.
func (c *RegionInteractionController) HoverExit(ctx context.Context, region string) {
	if c.selection.Is(region) {
		return
	}
	if c.hovered == region {
		c.hovered = ""
	}
	c.surface.SetStyle(region, c.RestingStyle(region))
	c.tooltip.Hide()
}

// Click selects region. A previously selected region returns to its resting style.
func (c *RegionInteractionController) Click(ctx context.Context, region string) {
	prev := c.selection
	if prevRegion, ok := prev.Region(); ok && prevRegion != region {
		c.surface.SetStyle(prevRegion, c.RestingStyle(prevRegion))
	}
	if c.hovered == region {
		c.hovered = ""
	}
	c.selection = Selected(region)
	c.surface.SetStyle(region, c.SelectedStyle(region))
	c.surface.BringToFront(region)
	c.telemetry.Record(ctx, EventRegionSelect, map[string]any{"region": region})
	if prev != c.selection {
		c.notify(ctx, prev)
	}
}

// ClearSelection drops the selection and restores the resting style of the
// previously selected region.
func (c *RegionInteractionController) ClearSelection(ctx context.Context) {
	prev := c.selection
	prevRegion, ok := prev.Region()
	if !ok {
		return
	}
	c.selection = NoSelection()
	c.surface.SetStyle(prevRegion, c.RestingStyle(prevRegion))
	c.telemetry.Record(ctx, EventSelectionClear, map[string]any{"region": prevRegion})
	c.notify(ctx, prev)
}

// StyleFor returns the style region should currently show.
func (c *RegionInteractionController) StyleFor(region string) RegionStyle {
	switch {
	case c.selection.Is(region):
		return c.SelectedStyle(region)
	case c.hovered == region:
		return c.HoverStyle(region)
	default:
		return c.RestingStyle(region)
	}
}

// RestingStyle is the metric derived fill with a thin dashed white border.
func (c *RegionInteractionController) RestingStyle(region string) RegionStyle {
	return RegionStyle{
		Kind:        StyleResting,
		FillColor:   c.fill(region),
		FillOpacity: RegionFillOpacity,
		BorderColor: RestingBorderColor,
		BorderWidth: RestingBorderWidth,
		Dashed:      true,
	}
}

// HoverStyle keeps the fill and draws a solid black border.
func (c *RegionInteractionController) HoverStyle(region string) RegionStyle {
	style := c.RestingStyle(region)
	style.Kind = StyleHover
	style.BorderColor = HoverBorderColor
	style.BorderWidth = EmphasisBorderWidth
	style.Dashed = false
	return style
}

// SelectedStyle keeps the fill and draws a solid yellow border.
func (c *RegionInteractionController) SelectedStyle(region string) RegionStyle {
	style := c.RestingStyle(region)
	style.Kind = StyleSelected
	style.BorderColor = SelectedBorderColor
	style.BorderWidth = EmphasisBorderWidth
	style.Dashed = false
	return style
}

func (c *RegionInteractionController) fill(region string) string {
	value, ok := c.value(region)
	if !ok {
		return NoDataColor
	}
	return c.scale.ColorFor(value)
}

func (c *RegionInteractionController) value(region string) (float64, bool) {
	if c.values == nil {
		return 0, false
	}
	return c.values.Value(region)
}

func (c *RegionInteractionController) notify(ctx context.Context, prev Selection) {
	next := c.selection
	for _, fn := range c.listeners {
		fn(ctx, prev, next)
	}
}

type noopSurface struct{}

func (noopSurface) SetStyle(string, RegionStyle) {}
func (noopSurface) BringToFront(string)          {}

type noopTooltip struct{}

func (noopTooltip) Show(TooltipPayload) {}
func (noopTooltip) Hide()               {}
