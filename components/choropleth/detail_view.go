package choropleth

import (
	"context"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// DetailModel is the render state of the detail panel.
type DetailModel struct {
	Region string            `json:"region"`
	Title  string            `json:"title"`
	State  LoadState         `json:"state"`
	Error  string            `json:"error,omitempty"`
	Series *HistoricalSeries `json:"series,omitempty"`
}

// DetailViewOptions configures a DetailView.
type DetailViewOptions struct {
	Source       SeriesSource
	Loop         Loop
	Telemetry    Telemetry
	FetchTimeout time.Duration
	// OnClose runs when the close action is used.
	OnClose func(ctx context.Context)
	// OnChange runs on the loop after an asynchronous result was applied.
	OnChange func(ctx context.Context, reason string)
}

// DetailView shows the historical series of the selected region. Each fetch is
// tagged with a token; results carrying an outdated token are dropped.
type DetailView struct {
	source    SeriesSource
	loop      Loop
	telemetry Telemetry
	timeout   time.Duration
	onClose   func(ctx context.Context)
	onChange  func(ctx context.Context, reason string)

	region string
	token  uint64
	state  LoadState
	series *HistoricalSeries
	err    error
}

// NewDetailView builds a hidden detail view.
func NewDetailView(opts DetailViewOptions) *DetailView {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &DetailView{
		source:    opts.Source,
		loop:      opts.Loop,
		telemetry: normalizeTelemetry(opts.Telemetry),
		timeout:   timeout,
		onClose:   opts.OnClose,
		onChange:  opts.OnChange,
		state:     LoadIdle,
	}
}

// Show displays region, fetching its series when region differs from the one
// already shown.
func (d *DetailView) Show(ctx context.Context, region string) {
	if region == "" {
		d.Hide(ctx)
		return
	}
	if region == d.region && d.state != LoadIdle {
		return
	}
	d.region = region
	d.series = nil
	d.err = nil
	d.fetch(ctx)
}

// Hide discards the series and invalidates any fetch in flight.
func (d *DetailView) Hide(context.Context) {
	d.token++
	d.region = ""
	d.series = nil
	d.err = nil
	d.state = LoadIdle
}

// Close runs the close action.
func (d *DetailView) Close(ctx context.Context) {
	if d.onClose != nil {
		d.onClose(ctx)
	}
}

// Retry refetches after a failure.
func (d *DetailView) Retry(ctx context.Context) bool {
	if d.region == "" || d.state != LoadFailed {
		return false
	}
	d.err = nil
	d.fetch(ctx)
	return true
}

// Visible reports whether a region is shown.
func (d *DetailView) Visible() bool { return d.region != "" }

// Region returns the shown region.
func (d *DetailView) Region() string { return d.region }

// State returns the load state of the current series.
func (d *DetailView) State() LoadState { return d.state }

// Series returns the loaded series.
func (d *DetailView) Series() (HistoricalSeries, bool) {
	if d.series == nil {
		return HistoricalSeries{}, false
	}
	return *d.series, true
}

// Err returns the last fetch error for the current region.
func (d *DetailView) Err() error { return d.err }

// Model returns the render state, or nil when hidden.
func (d *DetailView) Model() *DetailModel {
	if !d.Visible() {
		return nil
	}
	model := &DetailModel{
		Region: d.region,
		Title:  DetailTitle(d.region),
		State:  d.state,
		Error:  ErrorMessage(d.err),
	}
	if d.series != nil {
		series := *d.series
		model.Series = &series
	}
	return model
}

// DetailTitle is the heading of the detail panel.
func DetailTitle(region string) string {
	return "Historical Cases Per Test for " + region
}

func (d *DetailView) fetch(ctx context.Context) {
	d.token++
	token := d.token
	region := d.region
	d.state = LoadPending

	if d.source == nil {
		d.apply(ctx, token, region, HistoricalSeries{}, Unconfigured("series source"))
		return
	}
	if d.loop == nil {
		series, err := d.load(ctx, region)
		d.apply(ctx, token, region, series, err)
		return
	}

	base := context.WithoutCancel(ctx)
	go func() {
		series, err := d.load(base, region)
		d.loop.Post(func() {
			if d.apply(base, token, region, series, err) && d.onChange != nil {
				d.onChange(base, "series")
			}
		})
	}()
}

func (d *DetailView) load(ctx context.Context, region string) (HistoricalSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.source.HistoricalSeries(ctx, region)
}

// apply stores a fetch result when token is still current.
func (d *DetailView) apply(ctx context.Context, token uint64, region string, series HistoricalSeries, err error) bool {
	if token != d.token || region != d.region {
		d.telemetry.Record(ctx, EventSeriesStale, map[string]any{"region": region, "current": d.region})
		return false
	}
	if err != nil {
		d.state = LoadFailed
		d.err = FetchFailure("fetch historical series", err)
		d.telemetry.Record(ctx, EventSeriesFailed, map[string]any{"region": region, "error": err.Error()})
		return true
	}
	normalized := NormalizeSeries(series)
	normalized.Region = region
	d.series = &normalized
	d.state = LoadReady
	d.telemetry.Record(ctx, EventSeriesLoaded, map[string]any{"region": region, "points": len(normalized.Points)})
	return true
}
