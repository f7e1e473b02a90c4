package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-choropleth/components/choropleth"
)

// DefaultBoundariesURL is the US states outline shipped with the ECharts examples.
const DefaultBoundariesURL = "https://raw.githubusercontent.com/apache/echarts-examples/gh-pages/public/data/asset/geo/USA.json"

const maxBoundariesSize = 32 << 20

type fetchBoundariesCmd struct {
	URL     string        `help:"GeoJSON FeatureCollection to download (defaults to the ECharts USA outline)."`
	Output  string        `short:"o" type:"path" default:"usa-states.geojson" help:"Where to write the file; point BOUNDARIES_PATH at it."`
	Timeout time.Duration `default:"30s" help:"Download timeout."`
	Force   bool          `help:"Overwrite an existing file."`
}

func (cmd *fetchBoundariesCmd) Run(ctx context.Context) error {
	source := cmd.URL
	if source == "" {
		source = DefaultBoundariesURL
	}
	if !cmd.Force {
		if _, err := os.Stat(cmd.Output); err == nil {
			return fmt.Errorf("casemap: %s already exists (use --force to replace)", cmd.Output)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("casemap: stat %s: %w", cmd.Output, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()
	raw, boundaries, err := downloadBoundaries(ctx, http.DefaultClient, source)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(cmd.Output, raw); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Wrote %d features to %s\n", len(boundaries.Names()), cmd.Output)
	if missing := boundaries.Missing(choropleth.DefaultRegionCatalog()); len(missing) > 0 {
		fmt.Fprintf(os.Stdout, "! No outline for: %v\n", missing)
	}
	return nil
}

func downloadBoundaries(ctx context.Context, client *http.Client, source string) ([]byte, *choropleth.Boundaries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("casemap: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("casemap: download boundaries: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("casemap: download boundaries: unexpected status %s", resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBoundariesSize))
	if err != nil {
		return nil, nil, fmt.Errorf("casemap: read boundaries: %w", err)
	}
	boundaries, err := choropleth.DecodeBoundaries(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	return raw, boundaries, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("casemap: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".boundaries-*")
	if err != nil {
		return fmt.Errorf("casemap: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("casemap: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("casemap: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("casemap: write %s: %w", path, err)
	}
	return nil
}
