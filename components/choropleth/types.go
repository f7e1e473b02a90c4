package choropleth

import (
	"context"
	"time"
)

// Selection is either no selection or exactly one selected region.
// The zero value is no selection.
type Selection struct {
	region string
	active bool
}

// NoSelection returns the empty selection.
func NoSelection() Selection { return Selection{} }

// Selected returns a selection holding region.
func Selected(region string) Selection { return Selection{region: region, active: true} }

// Region returns the selected region, if any.
func (s Selection) Region() (string, bool) { return s.region, s.active }

// Is reports whether region is the selected region.
func (s Selection) Is(region string) bool { return s.active && s.region == region }

// Active reports whether a region is selected.
func (s Selection) Active() bool { return s.active }

func (s Selection) String() string {
	if !s.active {
		return "none"
	}
	return s.region
}

// Pointer event types forwarded by the map surface.
const (
	EventMouseOver = "mouseover"
	EventMouseOut  = "mouseout"
	EventClick     = "click"
)

// PointerEvent is a raw pointer event raised on a region boundary.
type PointerEvent struct {
	Type   string `json:"type"`
	Region string `json:"region"`
}

// StyleKind names the presentation state of a region.
type StyleKind string

const (
	StyleResting  StyleKind = "resting"
	StyleHover    StyleKind = "hover"
	StyleSelected StyleKind = "selected"
)

// RegionStyle is the boundary presentation for one region.
type RegionStyle struct {
	Kind        StyleKind `json:"kind"`
	FillColor   string    `json:"fill_color"`
	FillOpacity float64   `json:"fill_opacity"`
	BorderColor string    `json:"border_color"`
	BorderWidth float64   `json:"border_width"`
	Dashed      bool      `json:"dashed"`
}

// TooltipPayload is what the tooltip surface shows for a hovered region.
type TooltipPayload struct {
	Region string  `json:"region"`
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
}

// HistoricalPoint is one dated metric sample.
type HistoricalPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// HistoricalSeries holds the samples of one region ordered by date.
type HistoricalSeries struct {
	Region string            `json:"region"`
	Points []HistoricalPoint `json:"points"`
}

// LoadState tracks an asynchronous load.
type LoadState string

const (
	LoadIdle    LoadState = "idle"
	LoadPending LoadState = "loading"
	LoadReady   LoadState = "ready"
	LoadFailed  LoadState = "failed"
)

// MetricSource provides the latest metric per region.
type MetricSource interface {
	LatestMetrics(ctx context.Context) (map[string]float64, error)
}

// SeriesSource provides the historical series for one region.
type SeriesSource interface {
	HistoricalSeries(ctx context.Context, region string) (HistoricalSeries, error)
}

// ValueSource reads the current metric of a region.
type ValueSource interface {
	Value(region string) (float64, bool)
}

// DomainSource reports the extent of present metric values.
type DomainSource interface {
	Extent() (min, max float64, ok bool)
}

// ViewEvent is published when a session view changes outside a request.
type ViewEvent struct {
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// RefreshHook receives view change notifications.
type RefreshHook interface {
	ViewChanged(ctx context.Context, event ViewEvent) error
}
