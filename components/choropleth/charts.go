package choropleth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/event"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Chart identifiers and the registered map name.
const (
	MapName        = "USA"
	MapChartID     = "choropleth_map"
	DetailChartID  = "choropleth_detail"
	SeriesName     = "Cases Per Test"
	mapChartHeight = "560px"
	lineHeight     = "320px"
)

// DefaultAssetsHost serves the ECharts library.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ChartSnippet is rendered chart markup split into its parts.
type ChartSnippet struct {
	Element string `json:"element"`
	Script  string `json:"script"`
	Option  string `json:"option"`
}

// ChartRenderer turns map and detail models into go-echarts markup.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartRendererOption customizes a ChartRenderer.
type ChartRendererOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the chart theme.
func WithChartTheme(theme string) ChartRendererOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost sets where ECharts assets load from.
func WithChartAssetsHost(host string) ChartRendererOption {
	return func(r *ChartRenderer) {
		if host != "" {
			r.assetsHost = host
		}
	}
}

// NewChartRenderer builds a renderer with a five minute cache.
func NewChartRenderer(options ...ChartRendererOption) *ChartRenderer {
	r := &ChartRenderer{
		cache:      NewChartCache(5 * time.Minute),
		theme:      types.ThemeWesteros,
		assetsHost: DefaultAssetsHost,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// AssetsHost returns the ECharts assets host.
func (r *ChartRenderer) AssetsHost() string { return r.assetsHost }

// Purge drops expired cached charts when the cache supports it.
func (r *ChartRenderer) Purge() int {
	if purger, ok := r.cache.(Purger); ok {
		return purger.Purge()
	}
	return 0
}

// ScriptURL returns the ECharts library URL.
func (r *ChartRenderer) ScriptURL() string { return r.assetsHost + "echarts.min.js" }

// RenderMap renders the region layer. Styles are applied by a script that
// runs after the initial option, since map data items carry no style in the
// go-echarts model.
func (r *ChartRenderer) RenderMap(model MapModel) (ChartSnippet, error) {
	key := "map:" + r.theme + ":" + contentHash(model.Regions)
	return r.cached(key, func() (ChartSnippet, error) {
		return r.renderMap(model)
	})
}

func (r *ChartRenderer) renderMap(model MapModel) (ChartSnippet, error) {
	data := make([]opts.MapData, len(model.Regions))
	for i, region := range model.Regions {
		data[i] = opts.MapData{Name: region.Name}
		if region.Value != nil {
			data[i].Value = *region.Value
		}
	}
	patch, err := json.Marshal(StylePatch(model))
	if err != nil {
		return ChartSnippet{}, fmt.Errorf("choropleth: encode style patch: %w", err)
	}

	m := charts.NewMap()
	m.RegisterMapType(MapName)
	m.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(MapChartID, mapChartHeight)),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(false)}),
		charts.WithEventListeners(
			pointerListener(EventMouseOver),
			pointerListener(EventMouseOut),
			pointerListener(EventClick),
		),
	)
	m.AddSeries(SeriesName, data)
	m.AddJSFuncStrs(types.FuncStr(fmt.Sprintf(
		"%%MY_ECHARTS%%.setOption({series: [{emphasis: {disabled: true}, select: {disabled: true}, data: %s}]});"+
			"if (window.choropleth) { window.choropleth.attach(%%MY_ECHARTS%%); }",
		patch,
	)))
	return snippetOf(m), nil
}

// RenderSeries renders the detail line chart.
func (r *ChartRenderer) RenderSeries(model DetailModel) (ChartSnippet, error) {
	if model.Series == nil {
		return ChartSnippet{}, nil
	}
	key := "series:" + r.theme + ":" + contentHash(model.Series)
	return r.cached(key, func() (ChartSnippet, error) {
		return r.renderSeries(model), nil
	})
}

func (r *ChartRenderer) renderSeries(model DetailModel) ChartSnippet {
	dates := make([]string, len(model.Series.Points))
	points := make([]opts.LineData, len(model.Series.Points))
	for i, point := range model.Series.Points {
		dates[i] = point.Date.Format(time.DateOnly)
		points[i] = opts.LineData{Name: dates[i], Value: point.Value}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(DetailChartID, lineHeight)),
		charts.WithTitleOpts(opts.Title{Title: model.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:           opts.Bool(true),
			Trigger:        "axis",
			ValueFormatter: opts.FuncOpts("function (value) { return Number(value).toFixed(4); }"),
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: SeriesName}),
	)
	line.SetXAxis(dates)
	line.AddSeries(SeriesName, points)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	return snippetOf(line)
}

func (r *ChartRenderer) initOpts(id, height string) opts.Initialization {
	return opts.Initialization{
		ChartID:    id,
		Theme:      r.theme,
		Width:      "100%",
		Height:     height,
		AssetsHost: r.assetsHost,
	}
}

func (r *ChartRenderer) cached(key string, render func() (ChartSnippet, error)) (ChartSnippet, error) {
	if r.cache == nil {
		return render()
	}
	raw, err := r.cache.GetOrRender(key, func() (string, error) {
		snippet, err := render()
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(snippet)
		return string(b), err
	})
	if err != nil {
		return ChartSnippet{}, err
	}
	var snippet ChartSnippet
	if err := json.Unmarshal([]byte(raw), &snippet); err != nil {
		return ChartSnippet{}, fmt.Errorf("choropleth: decode cached chart: %w", err)
	}
	return snippet, nil
}

func snippetOf(renderable interface{ RenderSnippet() render.ChartSnippet }) ChartSnippet {
	s := renderable.RenderSnippet()
	return ChartSnippet{Element: s.Element, Script: s.Script, Option: s.Option}
}

func pointerListener(name string) event.Listener {
	return event.Listener{
		EventName: name,
		Handler: opts.FuncOpts(fmt.Sprintf(
			"function (params) { if (window.choropleth) { window.choropleth.dispatch(%q, params.name); } }",
			name,
		)),
	}
}

// StyledRegion is an ECharts map data item carrying its own style.
type StyledRegion struct {
	Name      string          `json:"name"`
	Value     *float64        `json:"value,omitempty"`
	ItemStyle EChartsItemStyle `json:"itemStyle"`
}

// EChartsItemStyle mirrors the ECharts itemStyle keys used by the map.
type EChartsItemStyle struct {
	AreaColor   string  `json:"areaColor"`
	Opacity     float64 `json:"opacity"`
	BorderColor string  `json:"borderColor"`
	BorderWidth float64 `json:"borderWidth"`
	BorderType  string  `json:"borderType"`
}

// StylePatch converts the map model into ECharts data items in z-order.
func StylePatch(model MapModel) []StyledRegion {
	out := make([]StyledRegion, len(model.Regions))
	for i, region := range model.Regions {
		borderType := "solid"
		if region.Style.Dashed {
			borderType = "dashed"
		}
		out[i] = StyledRegion{
			Name:  region.Name,
			Value: region.Value,
			ItemStyle: EChartsItemStyle{
				AreaColor:   region.Style.FillColor,
				Opacity:     region.Style.FillOpacity,
				BorderColor: region.Style.BorderColor,
				BorderWidth: region.Style.BorderWidth,
				BorderType:  borderType,
			},
		}
	}
	return out
}
