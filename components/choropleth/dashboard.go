package choropleth

import (
	"context"
	"log/slog"
	"time"
)

// View is the complete render state of a dashboard.
type View struct {
	Map    MapModel     `json:"map"`
	Detail *DetailModel `json:"detail,omitempty"`
}

// DashboardOptions configures a DashboardRoot.
type DashboardOptions struct {
	Catalog      *RegionCatalog
	Store        *MetricStore
	Metrics      MetricSource
	Series       SeriesSource
	Loop         Loop
	MapConfig    MapConfig
	FetchTimeout time.Duration
	Telemetry    Telemetry
	Logger       *slog.Logger
	// OnChange runs on the loop after an asynchronous load changed the view.
	OnChange func(ctx context.Context, reason string)
}

// DashboardRoot composes the map and the detail panel and routes selection
// changes between them.
type DashboardRoot struct {
	mapView  *MapView
	detail   *DetailView
	metrics  MetricSource
	loop     Loop
	timeout  time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context, reason string)
	started  bool
	inflight bool
}

// NewDashboardRoot wires the map and detail views.
func NewDashboardRoot(opts DashboardOptions) *DashboardRoot {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root := &DashboardRoot{
		metrics:  opts.Metrics,
		loop:     opts.Loop,
		timeout:  timeout,
		logger:   logger,
		onChange: opts.OnChange,
	}
	root.mapView = NewMapView(MapViewOptions{
		Catalog:   opts.Catalog,
		Store:     opts.Store,
		Config:    opts.MapConfig,
		Telemetry: opts.Telemetry,
	})
	root.detail = NewDetailView(DetailViewOptions{
		Source:       opts.Series,
		Loop:         opts.Loop,
		Telemetry:    opts.Telemetry,
		FetchTimeout: timeout,
		OnClose:      root.ClearSelection,
		OnChange:     root.changed,
	})
	root.mapView.Controller().OnSelectionChange(root.selectionChanged)
	return root
}

// Map returns the map view.
func (r *DashboardRoot) Map() *MapView { return r.mapView }

// Detail returns the detail view.
func (r *DashboardRoot) Detail() *DetailView { return r.detail }

// Start begins the one time metric load. Later calls do nothing.
func (r *DashboardRoot) Start(ctx context.Context) {
	if r.started {
		return
	}
	r.started = true
	r.loadMetrics(ctx)
}

// Dispatch forwards a pointer event to the map.
func (r *DashboardRoot) Dispatch(ctx context.Context, event PointerEvent) error {
	return r.mapView.Dispatch(ctx, event)
}

// ClearSelection drops the current selection.
func (r *DashboardRoot) ClearSelection(ctx context.Context) {
	r.mapView.Controller().ClearSelection(ctx)
}

// Retry reloads whatever failed: the metrics, the detail series, or both.
func (r *DashboardRoot) Retry(ctx context.Context) bool {
	retried := false
	if r.mapView.State() == LoadFailed && !r.inflight {
		r.loadMetrics(ctx)
		retried = true
	}
	if r.detail.Retry(ctx) {
		retried = true
	}
	return retried
}

// View returns the current render state.
func (r *DashboardRoot) View() View {
	return View{Map: r.mapView.Model(), Detail: r.detail.Model()}
}

func (r *DashboardRoot) selectionChanged(ctx context.Context, _, next Selection) {
	if region, ok := next.Region(); ok {
		r.detail.Show(ctx, region)
		return
	}
	r.detail.Hide(ctx)
}

func (r *DashboardRoot) loadMetrics(ctx context.Context) {
	r.mapView.MetricsPending()
	if r.metrics == nil {
		r.mapView.MetricsFailed(ctx, Unconfigured("metric source"))
		return
	}
	r.inflight = true
	base := context.WithoutCancel(ctx)
	run := func() (map[string]float64, error) {
		fetchCtx, cancel := context.WithTimeout(base, r.timeout)
		defer cancel()
		return r.metrics.LatestMetrics(fetchCtx)
	}
	if r.loop == nil {
		values, err := run()
		r.applyMetrics(base, values, err)
		return
	}
	go func() {
		values, err := run()
		r.loop.Post(func() {
			r.applyMetrics(base, values, err)
			r.changed(base, "metrics")
		})
	}()
}

func (r *DashboardRoot) applyMetrics(ctx context.Context, values map[string]float64, err error) {
	r.inflight = false
	if err != nil {
		r.logger.Warn("metric load failed", "error", err)
		r.mapView.MetricsFailed(ctx, err)
		return
	}
	skipped, err := r.mapView.MetricsLoaded(ctx, values)
	if err != nil {
		r.logger.Warn("metric load rejected", "error", err)
		return
	}
	if len(skipped) > 0 {
		r.logger.Debug("skipped metric entries", "regions", skipped)
	}
}

func (r *DashboardRoot) changed(ctx context.Context, reason string) {
	if r.onChange != nil {
		r.onChange(ctx, reason)
	}
}
