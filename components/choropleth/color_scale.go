package choropleth

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Gradient endpoints and the fill used for regions without data.
const (
	LightColor  = "#bfbfff"
	DarkColor   = "#0000ff"
	NoDataColor = "#e5e7eb"
)

// Domain is the value range mapped onto the gradient.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultDomain is used while no value is present.
var DefaultDomain = Domain{Min: 0, Max: 1}

// Degenerate reports whether the domain collapsed to a single point.
func (d Domain) Degenerate() bool { return d.Min == d.Max }

// DomainOf derives the domain from the present values of src.
func DomainOf(src DomainSource) Domain {
	if src == nil {
		return DefaultDomain
	}
	min, max, ok := src.Extent()
	if !ok {
		return DefaultDomain
	}
	return Domain{Min: min, Max: max}
}

// ColorScale maps metric values onto a two point linear RGB gradient. The
// domain is read from its source on every call.
type ColorScale struct {
	source DomainSource
	light  colorful.Color
	dark   colorful.Color
}

// NewColorScale builds a scale over the extent of source.
func NewColorScale(source DomainSource) *ColorScale {
	return &ColorScale{
		source: source,
		light:  mustHex(LightColor),
		dark:   mustHex(DarkColor),
	}
}

// NewFixedColorScale builds a scale over a fixed domain.
func NewFixedColorScale(domain Domain) *ColorScale {
	return NewColorScale(fixedDomain(domain))
}

// Domain returns the current domain.
func (s *ColorScale) Domain() Domain {
	return DomainOf(s.source)
}

// ColorFor returns the hex color of value. Values outside the domain clamp to
// the nearest endpoint and a degenerate domain yields the dark endpoint.
func (s *ColorScale) ColorFor(value float64) string {
	d := s.Domain()
	if math.IsNaN(value) {
		return s.light.Hex()
	}
	if d.Degenerate() {
		return s.dark.Hex()
	}
	t := (value - d.Min) / (d.Max - d.Min)
	switch {
	case t <= 0:
		return s.light.Hex()
	case t >= 1:
		return s.dark.Hex()
	}
	return s.light.BlendRgb(s.dark, t).Hex()
}

type fixedDomain Domain

func (d fixedDomain) Extent() (float64, float64, bool) { return d.Min, d.Max, true }

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}
