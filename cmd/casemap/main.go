package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-choropleth/internal/config"
	"github.com/goliatone/go-choropleth/internal/observability"
	"github.com/goliatone/go-choropleth/pkg/casesapi"
)

type cli struct {
	EnvFile []string `name:"env-file" type:"path" help:"Env files to load before the environment (defaults to ./.env when present)."`
	Demo    bool     `help:"Serve built-in sample data instead of calling the cases-per-test API."`

	Serve           serveCmd           `cmd:"" default:"1" help:"Run the dashboard server."`
	Legend          legendCmd          `cmd:"" help:"Fetch the latest metrics and print the map legend."`
	FetchBoundaries fetchBoundariesCmd `cmd:"" name:"fetch-boundaries" help:"Download the state boundary GeoJSON used by the map."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("casemap"),
		kong.Description("US state cases-per-test choropleth dashboard."),
		kong.UsageOnError(),
		kong.Bind(&root),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.EnvFile...)
	if err != nil {
		return nil, fmt.Errorf("casemap: %w", err)
	}
	return cfg, nil
}

func (c *cli) logger(cfg *config.Config) *slog.Logger {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

// dataClient returns the upstream client and, for the HTTP client, its
// readiness check.
func (c *cli) dataClient(cfg *config.Config, observer casesapi.Observer) (casesapi.Client, observability.ReadinessChecker) {
	if c.Demo {
		return casesapi.NewMockClient(casesapi.DemoData()), nil
	}
	client := casesapi.NewHTTPClient(casesapi.HTTPConfig{
		BaseURL:  cfg.APIHost,
		Timeout:  cfg.FetchTimeout,
		Observer: observer,
	})
	return client, client
}
