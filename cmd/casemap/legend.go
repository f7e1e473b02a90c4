package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jonboulle/clockwork"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/pkg/casesapi"
)

type legendCmd struct {
	JSON bool `help:"Print the legend as JSON."`
}

type legendOutput struct {
	Min     float64                  `json:"min"`
	Max     float64                  `json:"max"`
	Regions int                      `json:"regions"`
	Skipped []string                 `json:"skipped,omitempty"`
	Entries []choropleth.LegendEntry `json:"entries"`
}

func (cmd *legendCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	root.logger(cfg)
	client, _ := root.dataClient(cfg, nil)
	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	out, err := buildLegend(ctx, casesapi.NewMetricRepository(client), clockwork.NewRealClock())
	if err != nil {
		return err
	}
	return writeLegend(os.Stdout, out, cmd.JSON)
}

func buildLegend(ctx context.Context, source choropleth.MetricSource, clock clockwork.Clock) (legendOutput, error) {
	values, err := source.LatestMetrics(ctx)
	if err != nil {
		return legendOutput{}, err
	}
	store := choropleth.NewMetricStore(choropleth.DefaultRegionCatalog(), clock)
	skipped, err := store.Load(values)
	if err != nil {
		return legendOutput{}, err
	}
	scale := choropleth.NewColorScale(store)
	domain := scale.Domain()
	return legendOutput{
		Min:     domain.Min,
		Max:     domain.Max,
		Regions: store.Len(),
		Skipped: skipped,
		Entries: choropleth.GenerateLegend(store, scale),
	}, nil
}

func writeLegend(w io.Writer, out legendOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(out.Entries) == 0 {
		_, err := fmt.Fprintln(w, "no metrics loaded")
		return err
	}
	fmt.Fprintf(w, "%s (%d regions, %s to %s)\n", choropleth.LegendTitle, out.Regions,
		choropleth.FormatMetric(out.Min), choropleth.FormatMetric(out.Max))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, entry := range out.Entries {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Color, entry.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(out.Skipped) > 0 {
		fmt.Fprintf(w, "skipped unknown regions: %v\n", out.Skipped)
	}
	return nil
}
