package choropleth

import (
	"fmt"
	"sync"
)

// LegendSteps is the number of samples in a legend.
const LegendSteps = 10

// LegendEntry is one sampled value and its color.
type LegendEntry struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

// GenerateLegend samples [min, max) in LegendSteps even steps. It returns nil
// when src has no values and a single entry when min equals max.
func GenerateLegend(src DomainSource, scale *ColorScale) []LegendEntry {
	if src == nil || scale == nil {
		return nil
	}
	min, max, ok := src.Extent()
	if !ok {
		return nil
	}
	if min == max {
		return []LegendEntry{legendEntry(min, scale)}
	}
	step := (max - min) / LegendSteps
	entries := make([]LegendEntry, LegendSteps)
	for i := range entries {
		entries[i] = legendEntry(min+float64(i)*step, scale)
	}
	return entries
}

func legendEntry(value float64, scale *ColorScale) LegendEntry {
	return LegendEntry{
		Value: value,
		Color: scale.ColorFor(value),
		Label: FormatMetric(value),
	}
}

// FormatMetric renders a metric with four decimals.
func FormatMetric(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// LegendPanel keeps the legend in sync with a metric store.
type LegendPanel struct {
	mu      sync.RWMutex
	store   *MetricStore
	scale   *ColorScale
	entries []LegendEntry
}

// NewLegendPanel subscribes a panel to store.
func NewLegendPanel(store *MetricStore, scale *ColorScale) *LegendPanel {
	p := &LegendPanel{store: store, scale: scale}
	if store != nil {
		store.Subscribe(p.refresh)
		if store.Loaded() {
			p.refresh()
		}
	}
	return p
}

func (p *LegendPanel) refresh() {
	entries := GenerateLegend(p.store, p.scale)
	p.mu.Lock()
	p.entries = entries
	p.mu.Unlock()
}

// Entries returns the current legend entries.
func (p *LegendPanel) Entries() []LegendEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]LegendEntry(nil), p.entries...)
}

// TooltipPanel is the tooltip surface. It holds at most one payload.
type TooltipPanel struct {
	mu      sync.RWMutex
	payload *TooltipPayload
}

// Show displays payload.
func (p *TooltipPanel) Show(payload TooltipPayload) {
	p.mu.Lock()
	p.payload = &payload
	p.mu.Unlock()
}

// Hide clears the tooltip.
func (p *TooltipPanel) Hide() {
	p.mu.Lock()
	p.payload = nil
	p.mu.Unlock()
}

// Current returns the visible payload.
func (p *TooltipPanel) Current() (TooltipPayload, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.payload == nil {
		return TooltipPayload{}, false
	}
	return *p.payload, true
}
