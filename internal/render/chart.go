package render

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/water-quality-monitor/internal/water"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("render: no points to plot")

const (
	defaultWidth  = 900
	defaultHeight = 400

	phAxisMin = 6.0
	phAxisMax = 8.0
)

var seriesColor = drawing.Color{R: 59, G: 130, B: 246, A: 255}

// PHTrend renders the chronological pH series of one location as a PNG.
func PHTrend(w io.Writer, view water.LocationView, tz *time.Location) error {
	if len(view.Series) == 0 {
		return ErrNoData
	}
	if tz == nil {
		tz = time.Local
	}

	times := make([]time.Time, 0, len(view.Series))
	ys := make([]float64, 0, len(view.Series))
	for _, p := range view.Series {
		times = append(times, p.Timestamp)
		ys = append(ys, p.PH)
	}

	// Points sharing one instant have no x extent; repeat the last a minute later.
	if last := len(times) - 1; times[0].Equal(times[last]) {
		times = append(times, times[last].Add(time.Minute))
		ys = append(ys, ys[last])
	}

	lo, hi := phAxisMin, phAxisMax
	for _, y := range ys {
		lo = math.Min(lo, math.Floor(y*2)/2)
		hi = math.Max(hi, math.Ceil(y*2)/2)
	}

	graph := chart.Chart{
		Title:  "Water Quality Trends",
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			ValueFormatter: dateFormatter(tz),
		},
		YAxis: chart.YAxis{
			Name:  "pH Level",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "pH Level - " + view.Name,
				XValues: times,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func dateFormatter(tz *time.Location) chart.ValueFormatter {
	return func(v interface{}) string {
		switch typed := v.(type) {
		case time.Time:
			return typed.In(tz).Format(water.ChartDateLayout)
		case float64:
			return time.Unix(0, int64(typed)).In(tz).Format(water.ChartDateLayout)
		case int64:
			return time.Unix(0, typed).In(tz).Format(water.ChartDateLayout)
		default:
			return ""
		}
	}
}
