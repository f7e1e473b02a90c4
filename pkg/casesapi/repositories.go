package casesapi

import (
	"context"

	"github.com/goliatone/go-choropleth/components/choropleth"
)

// NewMetricRepository adapts a client into the dashboard metric source.
func NewMetricRepository(client LatestClient) choropleth.MetricSource {
	return &metricRepository{client: client}
}

type metricRepository struct {
	client LatestClient
}

func (r *metricRepository) LatestMetrics(ctx context.Context) (map[string]float64, error) {
	if r.client == nil {
		return nil, choropleth.Unconfigured(ConfigField)
	}
	return r.client.LatestCasesPerTest(ctx)
}

// NewSeriesRepository adapts a client into the detail view series source.
func NewSeriesRepository(client HistoricalClient) choropleth.SeriesSource {
	return &seriesRepository{client: client}
}

type seriesRepository struct {
	client HistoricalClient
}

func (r *seriesRepository) HistoricalSeries(ctx context.Context, region string) (choropleth.HistoricalSeries, error) {
	if r.client == nil {
		return choropleth.HistoricalSeries{}, choropleth.Unconfigured(ConfigField)
	}
	byDate, err := r.client.HistoricalCasesPerTest(ctx, region)
	if err != nil {
		return choropleth.HistoricalSeries{}, err
	}
	series, err := choropleth.NewHistoricalSeries(region, byDate)
	if err != nil {
		return choropleth.HistoricalSeries{}, choropleth.FetchFailure("casesapi: historical cases per test", err)
	}
	return series, nil
}
