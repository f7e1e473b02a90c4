package choropleth

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MetricStore holds the latest metric value per region. It is loaded once per
// session and is read-only afterwards.
type MetricStore struct {
	mu        sync.RWMutex
	catalog   *RegionCatalog
	clock     clockwork.Clock
	values    map[string]float64
	loaded    bool
	loadedAt  time.Time
	listeners []func()
}

// NewMetricStore builds an empty store. A nil catalog accepts any region name.
func NewMetricStore(catalog *RegionCatalog, clock clockwork.Clock) *MetricStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MetricStore{
		catalog: catalog,
		clock:   clock,
		values:  map[string]float64{},
	}
}

// Load populates the store. Entries for unknown regions and negative or
// non-finite values are skipped and returned as skipped.
func (s *MetricStore) Load(values map[string]float64) (skipped []string, err error) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil, ErrMetricsAlreadyLoaded
	}
	for region, value := range values {
		if s.catalog != nil && !s.catalog.Has(region) {
			skipped = append(skipped, region)
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			skipped = append(skipped, region)
			continue
		}
		s.values[region] = value
	}
	s.loaded = true
	s.loadedAt = s.clock.Now()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	sort.Strings(skipped)
	for _, fn := range listeners {
		fn()
	}
	return skipped, nil
}

// Subscribe registers fn to run after the store is loaded.
func (s *MetricStore) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Value returns the metric for region.
func (s *MetricStore) Value(region string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[region]
	return v, ok
}

// Extent returns the min and max over present values.
func (s *MetricStore) Extent() (min, max float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.values {
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// Regions returns the regions with a value, sorted.
func (s *MetricStore) Regions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for region := range s.values {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of present values.
func (s *MetricStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Loaded reports whether Load has completed.
func (s *MetricStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadedAt returns when the store was loaded.
func (s *MetricStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
