package casesapi

import "context"

// LatestClient fetches the latest cases per test of every state.
type LatestClient interface {
	LatestCasesPerTest(ctx context.Context) (map[string]float64, error)
}

// HistoricalClient fetches the dated cases per test of one state.
type HistoricalClient interface {
	HistoricalCasesPerTest(ctx context.Context, state string) (map[string]float64, error)
}

// Client is a convenience union for services that implement both calls.
type Client interface {
	LatestClient
	HistoricalClient
}
