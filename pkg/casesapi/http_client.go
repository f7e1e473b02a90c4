package casesapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/goliatone/go-choropleth/components/choropleth"
)

// Upstream endpoints.
const (
	PathLatest     = "/latest-cases-per-test"
	PathHistorical = "/historical-cases-per-test"
)

// ConfigField names the setting that holds the API host.
const ConfigField = "CASES_PER_TEST_API_HOST"

// Fetch outcomes reported to an Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unconfigured"
)

const maxErrorBody = 512

// Observer receives one call per upstream request.
type Observer interface {
	ObserveFetch(endpoint, outcome string, elapsed time.Duration)
}

// HTTPConfig configures the HTTP cases-per-test client.
type HTTPConfig struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration
	BreakerName string
	Validator   PayloadValidator
	Observer    Observer
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("casesapi: remote error %d: %s", e.StatusCode, e.Body)
}

// HTTPClient talks to the cases-per-test REST API. Calls go through a circuit
// breaker that opens after repeated transport or 5xx failures.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	validator PayloadValidator
	observer  Observer
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client. An empty BaseURL is accepted; every call then
// fails with an unconfigured error.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	name := cfg.BreakerName
	if name == "" {
		name = "casesapi"
	}
	validator := cfg.Validator
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:    httpClient,
		validator: validator,
		observer:  cfg.Observer,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsExcluded: isExcluded,
		}),
	}
}

// Configured reports whether the client has an API host.
func (c *HTTPClient) Configured() bool { return c.baseURL != "" }

// BreakerState returns the circuit breaker state name.
func (c *HTTPClient) BreakerState() string { return c.breaker.State().String() }

// CheckReadiness fails while the client has no host or its breaker is open.
func (c *HTTPClient) CheckReadiness(context.Context) error {
	if !c.Configured() {
		return choropleth.Unconfigured(ConfigField)
	}
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("casesapi: circuit %s is open", c.breaker.Name())
	}
	return nil
}

// LatestCasesPerTest returns the latest value of every state.
func (c *HTTPClient) LatestCasesPerTest(ctx context.Context) (map[string]float64, error) {
	raw, err := c.get(ctx, PathLatest, nil)
	if err != nil {
		return nil, err
	}
	values, err := decodePayload(c.validator, SchemaLatest, raw)
	if err != nil {
		return nil, choropleth.FetchFailure("casesapi: latest cases per test", err)
	}
	return values, nil
}

// HistoricalCasesPerTest returns dated values for state.
func (c *HTTPClient) HistoricalCasesPerTest(ctx context.Context, state string) (map[string]float64, error) {
	if strings.TrimSpace(state) == "" {
		return nil, choropleth.InvalidEvent("casesapi: state is required")
	}
	raw, err := c.get(ctx, PathHistorical, url.Values{"state": {state}})
	if err != nil {
		return nil, err
	}
	values, err := decodePayload(c.validator, SchemaHistorical, raw)
	if err != nil {
		return nil, choropleth.FetchFailure("casesapi: historical cases per test", err)
	}
	return values, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	if !c.Configured() {
		c.observe(path, OutcomeUnavailable, start)
		return nil, choropleth.Unconfigured(ConfigField)
	}
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, query)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.observe(path, OutcomeRejected, start)
		return nil, choropleth.FetchFailure("casesapi: "+path, err)
	case err != nil:
		c.observe(path, OutcomeError, start)
		return nil, choropleth.FetchFailure("casesapi: "+path, err)
	}
	c.observe(path, OutcomeSuccess, start)
	return raw, nil
}

func (c *HTTPClient) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("casesapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("casesapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("casesapi: read response: %w", err)
	}
	return raw, nil
}

func (c *HTTPClient) observe(path, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveFetch(path, outcome, time.Since(start))
	}
}

// isExcluded keeps client errors and caller cancellation out of the breaker counts.
func isExcluded(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode < 500
	}
	return false
}
