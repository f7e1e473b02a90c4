package choropleth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  any
	err          error
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.lastTemplate = name
	s.lastPayload = data
	if s.err != nil {
		return "", s.err
	}
	for _, w := range out {
		_, _ = io.WriteString(w, "<html></html>")
	}
	return "<html></html>", nil
}

func newTestController(t *testing.T, metrics MetricSource, renderer Renderer) *Controller {
	t.Helper()
	sessions := NewSessionManager(SessionManagerOptions{
		Catalog: testCatalog(),
		Metrics: metrics,
		Series:  fixedSeries(),
		NewID:   func() string { return "s1" },
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sessions.Run(ctx)
	})
	return NewController(ControllerOptions{
		Sessions: sessions,
		Charts:   NewChartRenderer(WithChartCache(nil)),
		Renderer: renderer,
	})
}

func waitView(t *testing.T, c *Controller, done func(ViewPayload) bool) ViewPayload {
	t.Helper()
	var payload ViewPayload
	require.Eventually(t, func() bool {
		var err error
		payload, err = c.View(context.Background(), "s1")
		return err == nil && done(payload)
	}, 2*time.Second, 5*time.Millisecond)
	return payload
}

func TestControllerRenderPage(t *testing.T) {
	renderer := &stubRenderer{}
	c := newTestController(t, staticMetrics(map[string]float64{"Texas": 0.2}), renderer)

	var buf bytes.Buffer
	id, err := c.RenderPage(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	assert.Equal(t, "<html></html>", buf.String())
	assert.Equal(t, DefaultTemplate, renderer.lastTemplate)

	data, ok := renderer.lastPayload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultTitle, data["title"])
	assert.Equal(t, "s1", data["session_id"])
	assert.Equal(t, DefaultBasePath, data["base_path"])
	assert.Equal(t, DefaultAssetsHost+"echarts.min.js", data["echarts_src"])
	assert.Equal(t, DefaultBasePath+"/assets/boundaries.js", data["boundaries_src"])
	assert.Contains(t, data["map_element"], MapChartID)
}

func TestControllerRequiresCollaborators(t *testing.T) {
	_, err := NewController(ControllerOptions{Renderer: &stubRenderer{}}).RenderPage(context.Background(), io.Discard)
	require.Error(t, err)

	sessions := NewSessionManager(SessionManagerOptions{})
	_, err = NewController(ControllerOptions{Sessions: sessions}).RenderPage(context.Background(), io.Discard)
	require.Error(t, err)

	_, err = NewController(ControllerOptions{}).View(context.Background(), "s1")
	require.Error(t, err)
}

func TestControllerRendererFailure(t *testing.T) {
	c := newTestController(t, staticMetrics(nil), &stubRenderer{err: errors.New("boom")})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.EqualError(t, err, "boom")
}

func TestControllerUnknownSession(t *testing.T) {
	c := newTestController(t, staticMetrics(nil), &stubRenderer{})
	_, err := c.View(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = c.Dispatch(context.Background(), "missing", PointerEvent{Type: EventClick, Region: "Ohio"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestControllerDispatchAndClear(t *testing.T) {
	c := newTestController(t, staticMetrics(map[string]float64{"Texas": 0.2, "Ohio": 0.1}), &stubRenderer{})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.NoError(t, err)
	waitView(t, c, func(p ViewPayload) bool { return p.Map.State == LoadReady })

	payload, err := c.Dispatch(context.Background(), "s1", PointerEvent{Type: EventClick, Region: "Ohio"})
	require.NoError(t, err)
	assert.Equal(t, "Ohio", payload.Map.Selected)
	require.NotNil(t, payload.Detail)
	assert.Len(t, payload.Patch, len(payload.Map.Regions))

	payload = waitView(t, c, func(p ViewPayload) bool {
		return p.Detail != nil && p.Detail.State == LoadReady
	})
	assert.Contains(t, payload.DetailOption, "2020-10-01")

	_, err = c.Dispatch(context.Background(), "s1", PointerEvent{Type: "drag", Region: "Ohio"})
	assert.True(t, IsInvalidEvent(err))

	payload, err = c.ClearSelection(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, payload.Detail)
	assert.Empty(t, payload.Map.Selected)
	assert.Empty(t, payload.DetailOption)
}

func TestControllerRetry(t *testing.T) {
	var calls atomic.Int32
	metrics := metricsFunc(func(context.Context) (map[string]float64, error) {
		if calls.Add(1) == 1 {
			return nil, FetchFailure("latest metrics", errors.New("unreachable"))
		}
		return map[string]float64{"Texas": 0.2}, nil
	})
	c := newTestController(t, metrics, &stubRenderer{})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.NoError(t, err)
	failed := waitView(t, c, func(p ViewPayload) bool { return p.Map.State == LoadFailed })
	assert.NotEmpty(t, failed.Map.Error)

	_, err = c.Retry(context.Background(), "s1")
	require.NoError(t, err)
	waitView(t, c, func(p ViewPayload) bool { return p.Map.State == LoadReady })
}

func TestControllerCloseSession(t *testing.T) {
	c := newTestController(t, staticMetrics(nil), &stubRenderer{})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.NoError(t, err)
	c.CloseSession("s1")
	_, err = c.View(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	NewController(ControllerOptions{}).CloseSession("s1")
}

func TestControllerPayloadVersionsIncrease(t *testing.T) {
	c := newTestController(t, staticMetrics(map[string]float64{"Texas": 0.2, "Ohio": 0.1}), &stubRenderer{})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.NoError(t, err)
	ready := waitView(t, c, func(p ViewPayload) bool { return p.Map.State == LoadReady })
	assert.Positive(t, ready.Version)
	assert.NotNil(t, ready.Map.LoadedAt)

	first, err := c.Dispatch(context.Background(), "s1", PointerEvent{Type: EventClick, Region: "Ohio"})
	require.NoError(t, err)
	second, err := c.Dispatch(context.Background(), "s1", PointerEvent{Type: EventClick, Region: "Texas"})
	require.NoError(t, err)
	view, err := c.View(context.Background(), "s1")
	require.NoError(t, err)

	assert.Greater(t, first.Version, ready.Version)
	assert.Greater(t, second.Version, first.Version)
	assert.Greater(t, view.Version, second.Version)
	assert.Equal(t, "Texas", view.Map.Selected, "the highest version carries the latest selection")
}

func TestControllerConcurrentDispatchVersionsAreUnique(t *testing.T) {
	c := newTestController(t, staticMetrics(map[string]float64{"Texas": 0.2, "Ohio": 0.1}), &stubRenderer{})
	_, err := c.RenderPage(context.Background(), io.Discard)
	require.NoError(t, err)
	waitView(t, c, func(p ViewPayload) bool { return p.Map.State == LoadReady })

	regions := []string{"Ohio", "Texas", "Ohio", "Texas", "Ohio", "Texas"}
	versions := make(chan uint64, len(regions))
	var wg sync.WaitGroup
	for _, region := range regions {
		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			payload, err := c.Dispatch(context.Background(), "s1", PointerEvent{Type: EventMouseOver, Region: region})
			if assert.NoError(t, err) {
				versions <- payload.Version
			}
		}(region)
	}
	wg.Wait()
	close(versions)

	seen := map[uint64]bool{}
	for v := range versions {
		assert.False(t, seen[v], "version %d reused", v)
		seen[v] = true
	}
	assert.Len(t, seen, len(regions))
}
