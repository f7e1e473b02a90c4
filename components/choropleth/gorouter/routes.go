package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/components/choropleth/commands"
	"github.com/goliatone/go-choropleth/components/choropleth/httpapi"
)

// Config wires go-router with the choropleth controller, commands, and hooks.
type Config[T any] struct {
	Router     router.Router[T]
	Controller *choropleth.Controller
	API        httpapi.Executor
	Broadcast  *choropleth.BroadcastHook
	Boundaries *choropleth.Boundaries
	BasePath   string
	Routes     RouteConfig
	// StreamPiped serves SSE through a piped response body instead of the
	// adapter's net/http bridge. Set it for Fiber, whose bridge buffers.
	StreamPiped bool
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML       string
	View       string
	Events     string
	Selection  string
	Retry      string
	Close      string
	Stream     string
	WebSocket  string
	Boundaries string
}

// Register mounts dashboard routes (HTML, JSON, SSE, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = choropleth.DefaultBasePath
	}
	api := cfg.API
	if api == nil {
		api = httpapi.NewExecutor(cfg.Controller, nil)
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		if _, err := cfg.Controller.RenderPage(ctx.Context(), &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.View, router.WrapHandler(func(ctx router.Context) error {
		return respondView(ctx, cfg.Controller, ctx.Param("id"))
	}))

	group.Get(routes.Boundaries, router.WrapHandler(func(ctx router.Context) error {
		boundaries := cfg.Boundaries
		if boundaries == nil {
			boundaries = choropleth.EmptyBoundaries()
		}
		ctx.SetHeader("Content-Type", "application/javascript; charset=utf-8")
		ctx.SetHeader("Cache-Control", "public, max-age=86400")
		return ctx.Send(boundaries.Script())
	}))

	registerAPI(group, cfg.Controller, api, routes)

	if cfg.Broadcast != nil {
		registerStream(group, cfg.Broadcast, routes.Stream, cfg.StreamPiped)
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], controller *choropleth.Controller, api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Events, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		var event choropleth.PointerEvent
		if err := json.Unmarshal(ctx.Body(), &event); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if err := api.Dispatch(ctx.Context(), commands.DispatchPointerInput{SessionID: id, Event: event}); err != nil {
			return respondError(ctx, err)
		}
		return respondView(ctx, controller, id)
	}))

	r.Delete(routes.Selection, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.ClearSelection(ctx.Context(), commands.ClearSelectionInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return respondView(ctx, controller, id)
	}))

	r.Post(routes.Retry, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.Retry(ctx.Context(), commands.RetryInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return respondView(ctx, controller, id)
	}))

	r.Post(routes.Close, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if err := api.CloseSession(ctx.Context(), commands.CloseSessionInput{SessionID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.NoContent(http.StatusNoContent)
	}))
}

func registerStream[T any](r router.Router[T], hook *choropleth.BroadcastHook, path string, piped bool) {
	r.Get(path, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if httpCtx, ok := router.AsHTTPContext(ctx); ok && !piped {
			req := httpCtx.Request().WithContext(ctx.Context())
			hook.ServeSSE(httpCtx.Response(), req, id)
			return nil
		}
		ctx.SetHeader("Content-Type", "text/event-stream")
		ctx.SetHeader("Cache-Control", "no-cache")
		reader, writer := io.Pipe()
		events, cancel := hook.Subscribe(id)
		go func() {
			defer writer.Close()
			defer cancel()
			for {
				select {
				case <-ctx.Context().Done():
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					data, _ := json.Marshal(event)
					if _, err := writer.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
						return
					}
				}
			}
		}()
		return ctx.SendStream(reader)
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *choropleth.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(ws.Param("id"))
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func respondView(ctx router.Context, controller *choropleth.Controller, sessionID string) error {
	view, err := controller.View(ctx.Context(), sessionID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), map[string]string{"error": choropleth.ErrorMessage(err)})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/"
	}
	if routes.View == "" {
		routes.View = "/sessions/:id/view"
	}
	if routes.Events == "" {
		routes.Events = "/sessions/:id/events"
	}
	if routes.Selection == "" {
		routes.Selection = "/sessions/:id/selection"
	}
	if routes.Retry == "" {
		routes.Retry = "/sessions/:id/retry"
	}
	if routes.Close == "" {
		routes.Close = "/sessions/:id/close"
	}
	if routes.Stream == "" {
		routes.Stream = "/sessions/:id/stream"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/sessions/:id/ws"
	}
	if routes.Boundaries == "" {
		routes.Boundaries = "/assets/boundaries.js"
	}
	return routes
}
