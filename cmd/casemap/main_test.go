package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/pkg/casesapi"
)

func TestBuildLegendFromDemoData(t *testing.T) {
	client := casesapi.NewMockClient(casesapi.DemoData())
	out, err := buildLegend(context.Background(), casesapi.NewMetricRepository(client), clockwork.NewFakeClock())
	require.NoError(t, err)

	assert.Equal(t, 6, out.Regions)
	assert.Equal(t, 0.0387, out.Min)
	assert.Equal(t, 0.1543, out.Max)
	require.Len(t, out.Entries, choropleth.LegendSteps)
	assert.Equal(t, choropleth.LightColor, out.Entries[0].Color)
	assert.Equal(t, "0.0387", out.Entries[0].Label)
}

func TestBuildLegendReportsSkippedRegions(t *testing.T) {
	client := casesapi.NewMockClient(casesapi.MockData{
		Latest: map[string]float64{"Texas": 0.2, "Atlantis": 0.5},
	})
	out, err := buildLegend(context.Background(), casesapi.NewMetricRepository(client), clockwork.NewFakeClock())
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlantis"}, out.Skipped)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, choropleth.DarkColor, out.Entries[0].Color)
}

func TestWriteLegend(t *testing.T) {
	out := legendOutput{
		Min:     0.1,
		Max:     0.2,
		Regions: 2,
		Entries: []choropleth.LegendEntry{{Value: 0.1, Color: "#bfbfff", Label: "0.1000"}},
	}

	var text bytes.Buffer
	require.NoError(t, writeLegend(&text, out, false))
	assert.Contains(t, text.String(), "Scale (2 regions, 0.1000 to 0.2000)")
	assert.Contains(t, text.String(), "#bfbfff  0.1000")

	var raw bytes.Buffer
	require.NoError(t, writeLegend(&raw, out, true))
	var decoded legendOutput
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Equal(t, out, decoded)

	var empty bytes.Buffer
	require.NoError(t, writeLegend(&empty, legendOutput{}, false))
	assert.Equal(t, "no metrics loaded\n", empty.String())
}

const sampleGeoJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"name":"Texas"},"geometry":null},
	{"type":"Feature","properties":{"name":"Ohio"},"geometry":null}
]}`

func TestFetchBoundariesWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleGeoJSON))
	}))
	t.Cleanup(server.Close)

	output := filepath.Join(t.TempDir(), "geo", "usa.geojson")
	cmd := &fetchBoundariesCmd{URL: server.URL, Output: output, Timeout: 5 * time.Second}
	require.NoError(t, cmd.Run(context.Background()))

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, sampleGeoJSON, string(written))

	err = cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	cmd.Force = true
	require.NoError(t, cmd.Run(context.Background()))
}

func TestDownloadBoundariesRejectsBadPayloads(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		},
		"not geojson": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"type":"Feature"}`))
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			t.Cleanup(server.Close)
			_, _, err := downloadBoundaries(context.Background(), server.Client(), server.URL)
			require.Error(t, err)
		})
	}
}

func TestDownloadBoundariesReadsNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleGeoJSON))
	}))
	t.Cleanup(server.Close)

	raw, boundaries, err := downloadBoundaries(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `{"type":"FeatureCollection"`))
	assert.Equal(t, []string{"Ohio", "Texas"}, boundaries.Names())
}
