package choropleth

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Map surfaces registered after the first successful load.
const (
	ControlLegend  = "legend"
	ControlTooltip = "tooltip"
)

// Legend placement and heading.
const (
	LegendTitle    = "Scale"
	LegendPosition = "bottomleft"
)

// MapConfig describes the basemap under the region layer.
type MapConfig struct {
	CenterLat   float64
	CenterLng   float64
	Zoom        int
	AccessToken string
}

// DefaultMapConfig centers the contiguous United States.
func DefaultMapConfig() MapConfig {
	return MapConfig{CenterLat: 40.930626, CenterLng: -99.168823, Zoom: 4}
}

// BasemapURL returns a static light basemap image URL, or "" without a token.
func (c MapConfig) BasemapURL() string {
	if c.AccessToken == "" {
		return ""
	}
	zoom := c.Zoom - 1
	if zoom < 0 {
		zoom = 0
	}
	return fmt.Sprintf(
		"https://api.mapbox.com/styles/v1/mapbox/light-v10/static/%.6f,%.6f,%d/1280x720?access_token=%s",
		c.CenterLng, c.CenterLat, zoom, url.QueryEscape(c.AccessToken),
	)
}

// RegionModel is one region in the rendered layer.
type RegionModel struct {
	Name  string      `json:"name"`
	Slug  string      `json:"slug"`
	Value *float64    `json:"value,omitempty"`
	Label string      `json:"label,omitempty"`
	Style RegionStyle `json:"style"`
}

// LegendModel is the rendered legend.
type LegendModel struct {
	Title    string        `json:"title"`
	Position string        `json:"position"`
	Entries  []LegendEntry `json:"entries"`
}

// MapModel is the render state of the map.
type MapModel struct {
	State    LoadState       `json:"state"`
	Error    string          `json:"error,omitempty"`
	Regions  []RegionModel   `json:"regions"`
	Legend   *LegendModel    `json:"legend,omitempty"`
	Tooltip  *TooltipPayload `json:"tooltip,omitempty"`
	Selected string          `json:"selected,omitempty"`
	Hovered  string          `json:"hovered,omitempty"`
	Domain   Domain          `json:"domain"`
	Controls []string        `json:"controls"`
	Basemap  string          `json:"basemap,omitempty"`
	LoadedAt *time.Time      `json:"loaded_at,omitempty"`
}

// MapViewOptions configures a MapView.
type MapViewOptions struct {
	Catalog   *RegionCatalog
	Store     *MetricStore
	Config    MapConfig
	Telemetry Telemetry
}

// MapView owns the region layer: the current style of every region, their
// z-order, and the legend and tooltip surfaces.
type MapView struct {
	catalog   *RegionCatalog
	store     *MetricStore
	scale     *ColorScale
	config    MapConfig
	telemetry Telemetry

	controller *RegionInteractionController
	legend     *LegendPanel
	tooltip    *TooltipPanel

	styles   map[string]RegionStyle
	order    []string
	state    LoadState
	err      error
	controls []string
}

// NewMapView builds a map in the loading state.
func NewMapView(opts MapViewOptions) *MapView {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultRegionCatalog()
	}
	store := opts.Store
	if store == nil {
		store = NewMetricStore(catalog, nil)
	}
	v := &MapView{
		catalog:   catalog,
		store:     store,
		scale:     NewColorScale(store),
		config:    opts.Config,
		telemetry: normalizeTelemetry(opts.Telemetry),
		tooltip:   &TooltipPanel{},
		styles:    make(map[string]RegionStyle, catalog.Len()),
		order:     catalog.Names(),
		state:     LoadPending,
	}
	v.legend = NewLegendPanel(store, v.scale)
	v.controller = NewRegionInteractionController(InteractionOptions{
		Values:    store,
		Scale:     v.scale,
		Surface:   v,
		Tooltip:   registeredTooltip{view: v},
		Telemetry: opts.Telemetry,
	})
	for _, region := range v.order {
		v.styles[region] = v.controller.RestingStyle(region)
	}
	return v
}

// Controller returns the interaction controller.
func (v *MapView) Controller() *RegionInteractionController { return v.controller }

// Store returns the metric store.
func (v *MapView) Store() *MetricStore { return v.store }

// Scale returns the color scale.
func (v *MapView) Scale() *ColorScale { return v.scale }

// State returns the metric load state.
func (v *MapView) State() LoadState { return v.state }

// Err returns the last metric load error.
func (v *MapView) Err() error { return v.err }

// Controls returns the registered surfaces.
func (v *MapView) Controls() []string { return append([]string(nil), v.controls...) }

// Dispatch routes a raw pointer event to the controller.
func (v *MapView) Dispatch(ctx context.Context, event PointerEvent) error {
	if !v.catalog.Has(event.Region) {
		return InvalidEvent("unknown region %q", event.Region)
	}
	switch event.Type {
	case EventMouseOver:
		if err := v.controller.HoverEnter(ctx, event.Region); err != nil && !IsDataUnavailable(err) {
			return err
		}
	case EventMouseOut:
		v.controller.HoverExit(ctx, event.Region)
	case EventClick:
		v.controller.Click(ctx, event.Region)
	default:
		return InvalidEvent("unknown pointer event %q", event.Type)
	}
	return nil
}

// SetStyle implements RegionSurface.
func (v *MapView) SetStyle(region string, style RegionStyle) {
	v.styles[region] = style
}

// BringToFront implements RegionSurface.
func (v *MapView) BringToFront(region string) {
	idx := slices.Index(v.order, region)
	if idx < 0 {
		v.order = append(v.order, region)
		return
	}
	v.order = append(slices.Delete(v.order, idx, idx+1), region)
}

// MetricsLoaded fills the store, restyles the layer and registers the legend
// and tooltip surfaces.
func (v *MapView) MetricsLoaded(ctx context.Context, values map[string]float64) ([]string, error) {
	skipped, err := v.store.Load(values)
	if err != nil {
		return nil, err
	}
	v.state = LoadReady
	v.err = nil
	for _, region := range v.order {
		v.styles[region] = v.controller.StyleFor(region)
	}
	v.registerSurfaces(ctx)
	v.telemetry.Record(ctx, EventMetricsLoaded, map[string]any{
		"regions": v.store.Len(),
		"skipped": len(skipped),
	})
	return skipped, nil
}

// MetricsFailed switches the map to its error state.
func (v *MapView) MetricsFailed(ctx context.Context, err error) {
	if v.store.Loaded() {
		return
	}
	v.state = LoadFailed
	v.err = FetchFailure("fetch latest metrics", err)
	v.telemetry.Record(ctx, EventMetricsFailed, map[string]any{"error": ErrorMessage(v.err)})
}

// MetricsPending marks a metric load as in flight.
func (v *MapView) MetricsPending() {
	if !v.store.Loaded() {
		v.state = LoadPending
		v.err = nil
	}
}

func (v *MapView) registerSurfaces(ctx context.Context) {
	if len(v.controls) > 0 {
		return
	}
	v.controls = []string{ControlLegend, ControlTooltip}
	v.telemetry.Record(ctx, EventSurfaceRegistered, map[string]any{"controls": v.Controls()})
}

// StyleOf returns the current style of region.
func (v *MapView) StyleOf(region string) RegionStyle { return v.styles[region] }

// Order returns the z-order, back to front.
func (v *MapView) Order() []string { return append([]string(nil), v.order...) }

// Tooltip returns the visible tooltip.
func (v *MapView) Tooltip() (TooltipPayload, bool) { return v.tooltip.Current() }

// Model returns the render state of the map.
func (v *MapView) Model() MapModel {
	model := MapModel{
		State:    v.state,
		Error:    ErrorMessage(v.err),
		Regions:  make([]RegionModel, 0, len(v.order)),
		Domain:   v.scale.Domain(),
		Controls: v.Controls(),
		Basemap:  v.config.BasemapURL(),
	}
	for _, region := range v.order {
		rm := RegionModel{Name: region, Slug: RegionSlug(region), Style: v.styles[region]}
		if value, ok := v.store.Value(region); ok {
			rm.Value = &value
			rm.Label = FormatMetric(value)
		}
		model.Regions = append(model.Regions, rm)
	}
	if slices.Contains(v.controls, ControlLegend) {
		if entries := v.legend.Entries(); len(entries) > 0 {
			model.Legend = &LegendModel{Title: LegendTitle, Position: LegendPosition, Entries: entries}
		}
	}
	if payload, ok := v.tooltip.Current(); ok {
		model.Tooltip = &payload
	}
	if region, ok := v.controller.Selection().Region(); ok {
		model.Selected = region
	}
	if region, ok := v.controller.Hovered(); ok {
		model.Hovered = region
	}
	if v.store.Loaded() {
		at := v.store.LoadedAt()
		model.LoadedAt = &at
	}
	return model
}

// registeredTooltip forwards to the tooltip panel once it is registered.
type registeredTooltip struct {
	view *MapView
}

func (t registeredTooltip) Show(payload TooltipPayload) {
	if slices.Contains(t.view.controls, ControlTooltip) {
		t.view.tooltip.Show(payload)
	}
}

func (t registeredTooltip) Hide() { t.view.tooltip.Hide() }
