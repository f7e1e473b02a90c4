package casesapi

import (
	"context"
	"sync"
)

// MockData seeds deterministic responses for tests or local demos.
type MockData struct {
	Latest     map[string]float64
	Historical map[string]map[string]float64
	LatestErr  error
	SeriesErr  error
}

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	data  MockData
	mu    sync.RWMutex
	calls map[string]int
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data, calls: map[string]int{}}
}

// LatestCasesPerTest returns the configured latest values.
func (c *MockClient) LatestCasesPerTest(context.Context) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[PathLatest]++
	if c.data.LatestErr != nil {
		return nil, c.data.LatestErr
	}
	return cloneValues(c.data.Latest), nil
}

// HistoricalCasesPerTest returns the configured series for state. Unknown
// states yield an empty map, as the upstream API does.
func (c *MockClient) HistoricalCasesPerTest(_ context.Context, state string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[PathHistorical+"?state="+state]++
	if c.data.SeriesErr != nil {
		return nil, c.data.SeriesErr
	}
	return cloneValues(c.data.Historical[state]), nil
}

// SetLatest replaces the latest values.
func (c *MockClient) SetLatest(values map[string]float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Latest = cloneValues(values)
	c.data.LatestErr = err
}

// SetSeriesErr makes every historical call fail with err.
func (c *MockClient) SetSeriesErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.SeriesErr = err
}

// Calls returns how many times endpoint was requested. Historical endpoints
// are keyed with their state query.
func (c *MockClient) Calls(endpoint string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[endpoint]
}

// DemoData returns a small fixture set covering a handful of states.
func DemoData() MockData {
	return MockData{
		Latest: map[string]float64{
			"California": 0.0612,
			"Texas":      0.1124,
			"New York":   0.0387,
			"Florida":    0.0975,
			"Washington": 0.0451,
			"Nebraska":   0.1543,
		},
		Historical: map[string]map[string]float64{
			"California": {"2020-10-01": 0.031, "2020-11-01": 0.048, "2020-12-01": 0.0612},
			"Texas":      {"2020-10-01": 0.089, "2020-11-01": 0.102, "2020-12-01": 0.1124},
			"Nebraska":   {"2020-10-01": 0.121, "2020-11-01": 0.168, "2020-12-01": 0.1543},
		},
	}
}

func cloneValues(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
