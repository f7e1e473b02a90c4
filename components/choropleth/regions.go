package choropleth

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"
)

//go:embed data/regions.yaml
var embeddedRegions []byte

// RegionDocument is the YAML layout of a region catalog.
type RegionDocument struct {
	Regions []RegionEntry `json:"regions" yaml:"regions"`
}

// RegionEntry names one region.
type RegionEntry struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// RegionCatalog is the set of region identifiers the dashboard knows about.
type RegionCatalog struct {
	entries []RegionEntry
	byName  map[string]RegionEntry
}

// NewRegionCatalog builds a catalog from entries, rejecting empty or duplicate names.
func NewRegionCatalog(entries []RegionEntry) (*RegionCatalog, error) {
	c := &RegionCatalog{byName: make(map[string]RegionEntry, len(entries))}
	for _, entry := range entries {
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			return nil, fmt.Errorf("choropleth: region name is required")
		}
		if _, exists := c.byName[entry.Name]; exists {
			return nil, fmt.Errorf("choropleth: duplicate region %s", entry.Name)
		}
		c.byName[entry.Name] = entry
		c.entries = append(c.entries, entry)
	}
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Name < c.entries[j].Name })
	return c, nil
}

// DecodeRegionCatalog reads a YAML region document.
func DecodeRegionCatalog(r io.Reader) (*RegionCatalog, error) {
	var doc RegionDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("choropleth: decode regions: %w", err)
	}
	return NewRegionCatalog(doc.Regions)
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *RegionCatalog
)

// DefaultRegionCatalog returns the embedded catalog of US states, DC and Puerto Rico.
func DefaultRegionCatalog() *RegionCatalog {
	defaultCatalogOnce.Do(func() {
		var doc RegionDocument
		if err := yaml.Unmarshal(embeddedRegions, &doc); err != nil {
			panic(fmt.Sprintf("choropleth: embedded regions: %v", err))
		}
		catalog, err := NewRegionCatalog(doc.Regions)
		if err != nil {
			panic(fmt.Sprintf("choropleth: embedded regions: %v", err))
		}
		defaultCatalog = catalog
	})
	return defaultCatalog
}

// Has reports whether name is a known region.
func (c *RegionCatalog) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.byName[name]
	return ok
}

// Names returns region names in alphabetical order.
func (c *RegionCatalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.entries))
	for i, entry := range c.entries {
		out[i] = entry.Name
	}
	return out
}

// Code returns the postal code for name.
func (c *RegionCatalog) Code(name string) string {
	if c == nil {
		return ""
	}
	return c.byName[name].Code
}

// Len returns the number of regions.
func (c *RegionCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// RegionSlug returns a DOM and label friendly identifier for a region name.
func RegionSlug(name string) string {
	return strcase.ToKebab(name)
}
