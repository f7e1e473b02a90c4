package choropleth

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Date layouts accepted for historical samples.
var seriesDateLayouts = []string{
	time.DateOnly,
	"01-02-2006",
	time.RFC3339,
}

// ParseSeriesDate parses an ISO or month-day-year date.
func ParseSeriesDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range seriesDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("choropleth: unrecognized date %q", raw)
}

// NewHistoricalSeries converts a date keyed payload into an ordered series.
func NewHistoricalSeries(region string, byDate map[string]float64) (HistoricalSeries, error) {
	points := make([]HistoricalPoint, 0, len(byDate))
	for raw, value := range byDate {
		date, err := ParseSeriesDate(raw)
		if err != nil {
			return HistoricalSeries{}, err
		}
		points = append(points, HistoricalPoint{Date: date, Value: value})
	}
	return NormalizeSeries(HistoricalSeries{Region: region, Points: points}), nil
}

// NormalizeSeries sorts points ascending by date and drops repeated dates,
// keeping the first occurrence.
func NormalizeSeries(series HistoricalSeries) HistoricalSeries {
	points := append([]HistoricalPoint(nil), series.Points...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	out := points[:0]
	for i, p := range points {
		if i > 0 && p.Date.Equal(out[len(out)-1].Date) {
			continue
		}
		out = append(out, p)
	}
	series.Points = out
	return series
}
