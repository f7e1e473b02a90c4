package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/components/choropleth/gorouter"
	"github.com/goliatone/go-choropleth/components/choropleth/httpapi"
	"github.com/goliatone/go-choropleth/internal/config"
	"github.com/goliatone/go-choropleth/internal/observability"
	"github.com/goliatone/go-choropleth/pkg/casemap"
)

type serveCmd struct {
	Addr            string        `help:"Dashboard listen address (overrides HTTP_ADDR)."`
	OpsAddr         string        `name:"ops-addr" help:"Health and metrics listen address (overrides OPS_ADDR)."`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

func (cmd *serveCmd) Run(ctx context.Context, root *cli) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.HTTPAddr = cmd.Addr
	}
	if cmd.OpsAddr != "" {
		cfg.OpsAddr = cmd.OpsAddr
	}
	logger := root.logger(cfg)
	if missing := cfg.Unconfigured(); len(missing) > 0 && !root.Demo {
		logger.Warn("starting with missing settings", "missing", missing)
	}

	metrics := observability.NewMetrics()
	telemetry := observability.NewTelemetry(metrics, logger)
	client, readiness := root.dataClient(cfg, telemetry)

	boundaries, err := loadBoundaries(cfg, logger)
	if err != nil {
		return err
	}

	dash, err := casemap.New(casemap.Options{
		Client:            client,
		Telemetry:         telemetry,
		Logger:            logger,
		MapboxAccessToken: cfg.MapboxAccessToken,
		BasePath:          cfg.BasePath,
		ChartTheme:        cfg.ChartTheme,
		AssetsHost:        cfg.AssetsHost,
		FetchTimeout:      cfg.FetchTimeout,
		SessionTTL:        cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	server := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "casemap",
			DisableStartupMessage: true,
			ReadTimeout:           15 * time.Second,
		})
		app.Use(recover.New())
		return app
	})
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:      server.Router(),
		Controller:  dash.Controller,
		API:         httpapi.NewExecutor(dash.Controller, telemetry),
		Broadcast:   dash.Broadcast,
		Boundaries:  boundaries,
		BasePath:    cfg.BasePath,
		StreamPiped: true,
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Run(gctx)
		return nil
	})
	var ops *observability.Server
	if cfg.OpsAddr != "" {
		ops = observability.NewServer(cfg.OpsAddr, readiness, logger)
		g.Go(func() error {
			if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("dashboard listening", "addr", cfg.HTTPAddr, "path", cfg.BasePath, "demo", root.Demo)
		return server.Serve(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cmd.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown", "error", err)
		}
		if ops != nil {
			if err := ops.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops shutdown", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}
	return nil
}

func loadBoundaries(cfg *config.Config, logger *slog.Logger) (*choropleth.Boundaries, error) {
	if cfg.BoundariesPath == "" {
		logger.Warn("no boundaries configured, the map renders without outlines", "setting", "BOUNDARIES_PATH")
		return choropleth.EmptyBoundaries(), nil
	}
	boundaries, err := choropleth.LoadBoundaries(cfg.BoundariesPath)
	if err != nil {
		return nil, err
	}
	if missing := boundaries.Missing(choropleth.DefaultRegionCatalog()); len(missing) > 0 {
		logger.Warn("boundaries missing regions", "regions", missing)
	}
	return boundaries, nil
}
