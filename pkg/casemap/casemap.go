// Package casemap assembles the cases-per-test dashboard for embedding in
// other applications.
package casemap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/pkg/casesapi"
)

// Controller exposes the underlying components/choropleth.Controller type.
type Controller = choropleth.Controller

// SessionManager exposes the underlying components/choropleth.SessionManager type.
type SessionManager = choropleth.SessionManager

// Options wires a dashboard around an upstream client.
type Options struct {
	Client            casesapi.Client
	Renderer          choropleth.Renderer
	Telemetry         choropleth.Telemetry
	Logger            *slog.Logger
	MapboxAccessToken string
	BasePath          string
	ChartTheme        string
	AssetsHost        string
	FetchTimeout      time.Duration
	SessionTTL        time.Duration
}

// Dashboard bundles the session manager, controller and broadcast hook.
type Dashboard struct {
	Sessions   *SessionManager
	Controller *Controller
	Broadcast  *choropleth.BroadcastHook
}

// New builds a dashboard. Without a renderer the embedded templates are used.
func New(opts Options) (*Dashboard, error) {
	if opts.Client == nil {
		return nil, errors.New("casemap: client is required")
	}
	renderer := opts.Renderer
	if renderer == nil {
		var err error
		if renderer, err = choropleth.NewTemplateRenderer(); err != nil {
			return nil, err
		}
	}
	mapConfig := choropleth.DefaultMapConfig()
	mapConfig.AccessToken = opts.MapboxAccessToken

	charts := choropleth.NewChartRenderer(
		choropleth.WithChartTheme(opts.ChartTheme),
		choropleth.WithChartAssetsHost(opts.AssetsHost),
	)
	hook := choropleth.NewBroadcastHook()
	sessions := choropleth.NewSessionManager(choropleth.SessionManagerOptions{
		Metrics:      casesapi.NewMetricRepository(opts.Client),
		Series:       casesapi.NewSeriesRepository(opts.Client),
		MapConfig:    mapConfig,
		FetchTimeout: opts.FetchTimeout,
		TTL:          opts.SessionTTL,
		Telemetry:    opts.Telemetry,
		Logger:       opts.Logger,
		Hook:         hook,
		Purgers:      []choropleth.Purger{charts},
	})
	controller := choropleth.NewController(choropleth.ControllerOptions{
		Sessions: sessions,
		Charts:   charts,
		Renderer: renderer,
		BasePath: opts.BasePath,
	})
	return &Dashboard{Sessions: sessions, Controller: controller, Broadcast: hook}, nil
}

// Run sweeps idle sessions until ctx is done, then closes the rest.
func (d *Dashboard) Run(ctx context.Context) {
	d.Sessions.Run(ctx)
}
