package choropleth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Boundaries is a GeoJSON FeatureCollection of region outlines. Geometry is
// passed through to the browser untouched; only feature names are read.
type Boundaries struct {
	names []string
	raw   json.RawMessage
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

// EmptyBoundaries returns a collection with no features.
func EmptyBoundaries() *Boundaries {
	return &Boundaries{raw: json.RawMessage(`{"type":"FeatureCollection","features":[]}`)}
}

// LoadBoundaries reads a GeoJSON file.
func LoadBoundaries(path string) (*Boundaries, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("choropleth: open boundaries %s: %w", path, err)
	}
	defer f.Close()
	return DecodeBoundaries(f)
}

// DecodeBoundaries reads a GeoJSON FeatureCollection.
func DecodeBoundaries(r io.Reader) (*Boundaries, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("choropleth: read boundaries: %w", err)
	}
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("choropleth: decode boundaries: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("choropleth: boundaries must be a FeatureCollection, got %q", fc.Type)
	}
	b := &Boundaries{raw: json.RawMessage(raw)}
	for _, feature := range fc.Features {
		if feature.Properties.Name != "" {
			b.names = append(b.names, feature.Properties.Name)
		}
	}
	sort.Strings(b.names)
	return b, nil
}

// Names returns the feature names, sorted.
func (b *Boundaries) Names() []string { return append([]string(nil), b.names...) }

// Missing returns catalog regions that have no boundary feature.
func (b *Boundaries) Missing(catalog *RegionCatalog) []string {
	have := make(map[string]struct{}, len(b.names))
	for _, name := range b.names {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range catalog.Names() {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Script returns JavaScript registering the collection with ECharts.
func (b *Boundaries) Script() []byte {
	var buf bytes.Buffer
	buf.WriteString("echarts.registerMap(")
	name, _ := json.Marshal(MapName)
	buf.Write(name)
	buf.WriteString(", ")
	buf.Write(bytes.TrimSpace(b.raw))
	buf.WriteString(");\n")
	return buf.Bytes()
}
