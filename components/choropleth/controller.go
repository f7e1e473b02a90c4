package choropleth

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Page defaults.
const (
	DefaultTitle       = "US State COVID-19 Cases Per Test Dashboard"
	DefaultDescription = "Latest and historical COVID-19 cases per test for each US state, computed from Johns Hopkins University data. Hover a state to see its value and click it to see its history."
	DefaultTemplate    = "dashboard"
	DefaultBasePath    = "/dashboard"
)

// ViewPayload is the view of one session as sent to the browser. Version
// grows with each payload of a session; clients drop payloads older than
// the last one applied.
type ViewPayload struct {
	SessionID    string         `json:"session_id"`
	Version      uint64         `json:"version"`
	Map          MapModel       `json:"map"`
	Patch        []StyledRegion `json:"patch"`
	Detail       *DetailModel   `json:"detail,omitempty"`
	DetailOption string         `json:"detail_option,omitempty"`
}

// ControllerOptions wires the controller collaborators.
type ControllerOptions struct {
	Sessions      *SessionManager
	Charts        *ChartRenderer
	Renderer      Renderer
	Template      string
	Title         string
	Description   string
	BasePath      string
	BoundariesURL string
}

// Controller serves dashboard pages and session actions independent of transport.
type Controller struct {
	sessions      *SessionManager
	charts        *ChartRenderer
	renderer      Renderer
	template      string
	title         string
	description   string
	basePath      string
	boundariesURL string
}

// NewController applies defaults to opts.
func NewController(opts ControllerOptions) *Controller {
	c := &Controller{
		sessions:      opts.Sessions,
		charts:        opts.Charts,
		renderer:      opts.Renderer,
		template:      opts.Template,
		title:         opts.Title,
		description:   opts.Description,
		basePath:      strings.TrimRight(opts.BasePath, "/"),
		boundariesURL: opts.BoundariesURL,
	}
	if c.charts == nil {
		c.charts = NewChartRenderer()
	}
	if c.template == "" {
		c.template = DefaultTemplate
	}
	if c.title == "" {
		c.title = DefaultTitle
	}
	if c.description == "" {
		c.description = DefaultDescription
	}
	if opts.BasePath == "" {
		c.basePath = DefaultBasePath
	}
	if c.boundariesURL == "" {
		c.boundariesURL = c.basePath + "/assets/boundaries.js"
	}
	return c
}

// RenderPage opens a session and writes the dashboard page.
func (c *Controller) RenderPage(ctx context.Context, out io.Writer) (string, error) {
	if c.sessions == nil {
		return "", errors.New("choropleth: controller requires a session manager")
	}
	if c.renderer == nil {
		return "", errors.New("choropleth: controller requires a template renderer")
	}
	session, err := c.sessions.Create(ctx)
	if err != nil {
		return "", err
	}
	payload, err := c.payload(ctx, session)
	if err != nil {
		return "", err
	}
	mapChart, err := c.charts.RenderMap(payload.Map)
	if err != nil {
		return "", err
	}
	if _, err := c.renderer.Render(c.template, c.pageData(payload, mapChart), out); err != nil {
		return "", err
	}
	return session.ID, nil
}

// View returns the current view of a session.
func (c *Controller) View(ctx context.Context, sessionID string) (ViewPayload, error) {
	session, err := c.session(sessionID)
	if err != nil {
		return ViewPayload{}, err
	}
	return c.payload(ctx, session)
}

// Dispatch routes a pointer event and returns the updated view.
func (c *Controller) Dispatch(ctx context.Context, sessionID string, event PointerEvent) (ViewPayload, error) {
	return c.act(ctx, sessionID, func(ctx context.Context, root *DashboardRoot) error {
		return root.Dispatch(ctx, event)
	})
}

// ClearSelection drops the session selection and returns the updated view.
func (c *Controller) ClearSelection(ctx context.Context, sessionID string) (ViewPayload, error) {
	return c.act(ctx, sessionID, func(ctx context.Context, root *DashboardRoot) error {
		root.Detail().Close(ctx)
		return nil
	})
}

// Retry reloads failed data and returns the updated view.
func (c *Controller) Retry(ctx context.Context, sessionID string) (ViewPayload, error) {
	return c.act(ctx, sessionID, func(ctx context.Context, root *DashboardRoot) error {
		root.Retry(ctx)
		return nil
	})
}

// CloseSession ends a session.
func (c *Controller) CloseSession(sessionID string) {
	if c.sessions != nil {
		c.sessions.Close(sessionID)
	}
}

func (c *Controller) act(ctx context.Context, sessionID string, fn func(context.Context, *DashboardRoot) error) (ViewPayload, error) {
	session, err := c.session(sessionID)
	if err != nil {
		return ViewPayload{}, err
	}
	if err := session.Do(ctx, fn); err != nil {
		return ViewPayload{}, err
	}
	return c.payload(ctx, session)
}

func (c *Controller) session(id string) (*Session, error) {
	if c.sessions == nil {
		return nil, errors.New("choropleth: controller requires a session manager")
	}
	return c.sessions.Get(id)
}

func (c *Controller) payload(ctx context.Context, session *Session) (ViewPayload, error) {
	view, version, err := session.Snapshot(ctx)
	if err != nil {
		return ViewPayload{}, err
	}
	payload := ViewPayload{
		SessionID: session.ID,
		Version:   version,
		Map:       view.Map,
		Patch:     StylePatch(view.Map),
		Detail:    view.Detail,
	}
	if view.Detail != nil && view.Detail.Series != nil {
		chart, err := c.charts.RenderSeries(*view.Detail)
		if err != nil {
			return ViewPayload{}, err
		}
		payload.DetailOption = chart.Option
	}
	return payload, nil
}

func (c *Controller) pageData(payload ViewPayload, mapChart ChartSnippet) map[string]any {
	data := map[string]any{
		"title":          c.title,
		"description":    c.description,
		"session_id":     payload.SessionID,
		"base_path":      c.basePath,
		"theme":          c.charts.theme,
		"echarts_src":    c.charts.ScriptURL(),
		"boundaries_src": c.boundariesURL,
		"map_state":      string(payload.Map.State),
		"map_error":      payload.Map.Error,
		"basemap":        payload.Map.Basemap,
		"map_element":    mapChart.Element,
		"map_script":     mapChart.Script,
	}
	if at := payload.Map.LoadedAt; at != nil {
		data["loaded_at"] = at.UTC().Format(time.RFC1123)
	}
	if legend := payload.Map.Legend; legend != nil {
		entries := make([]map[string]any, len(legend.Entries))
		for i, entry := range legend.Entries {
			entries[i] = map[string]any{"color": entry.Color, "label": entry.Label}
		}
		data["legend"] = map[string]any{"title": legend.Title, "entries": entries}
	}
	if tooltip := payload.Map.Tooltip; tooltip != nil {
		data["tooltip"] = map[string]any{"region": tooltip.Region, "label": tooltip.Label}
	}
	if detail := payload.Detail; detail != nil {
		data["detail"] = map[string]any{
			"title": detail.Title,
			"state": string(detail.State),
			"error": detail.Error,
		}
	}
	return data
}
