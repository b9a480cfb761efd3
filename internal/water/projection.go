package water

import (
	"fmt"
	"time"
)

// ChartDateLayout is the MM/DD/YYYY label format used on the trend chart.
const ChartDateLayout = "01/02/2006"

// NoDataPlaceholder is displayed instead of a statistic computed over no readings.
const NoDataPlaceholder = "--"

// SeriesPoint is one point of the pH trend chart.
type SeriesPoint struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	PH        float64   `json:"pH"`
}

// Headline carries the four headline values of the latest reading.
type Headline struct {
	Location     string      `json:"location"`
	PH           float64     `json:"pH"`
	TemperatureC float64     `json:"temperatureC"`
	ORPMillivolt float64     `json:"orpMv"`
	Timestamp    time.Time   `json:"timestamp"`
	Quality      Quality     `json:"quality"`
	Tone         Tone        `json:"tone"`
	InRange      RangeStatus `json:"inRange"`
}

// LogEntry is one row of the status log.
type LogEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Quality   Quality   `json:"quality"`
	Badge     Badge     `json:"badge"`
}

// LocationView is everything the detail pane needs for one location.
type LocationView struct {
	Name   string        `json:"name"`
	Latest *Headline     `json:"latest"`
	Series []SeriesPoint `json:"series"`
	Log    []LogEntry    `json:"log"`
}

// ProjectLocation builds the detail view from a newest-first history.
// The chart series is chronological; the log stays newest-first.
func ProjectLocation(name string, history []Reading, tz *time.Location) LocationView {
	if tz == nil {
		tz = time.Local
	}

	view := LocationView{
		Name:   name,
		Series: make([]SeriesPoint, 0, len(history)),
		Log:    make([]LogEntry, 0, len(history)),
	}
	if len(history) == 0 {
		return view
	}

	latest := history[0]
	view.Latest = &Headline{
		Location:     name,
		PH:           latest.PH,
		TemperatureC: latest.TemperatureC,
		ORPMillivolt: latest.ORPMillivolt,
		Timestamp:    latest.Timestamp,
		Quality:      latest.Quality,
		Tone:         latest.Quality.Tone(),
		InRange:      Classify(latest),
	}

	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		view.Series = append(view.Series, SeriesPoint{
			Label:     r.Timestamp.In(tz).Format(ChartDateLayout),
			Timestamp: r.Timestamp,
			PH:        r.PH,
		})
	}

	for i, r := range history {
		view.Log = append(view.Log, LogEntry{
			Index:     i + 1,
			Timestamp: r.Timestamp,
			Quality:   r.Quality,
			Badge:     r.Quality.Badge(),
		})
	}

	return view
}

// TodayStats are the quick counters over today's readings.
// AvgTemperatureC is nil when there are no readings, never NaN.
type TodayStats struct {
	Total           int      `json:"total"`
	Good            int      `json:"good"`
	Bad             int      `json:"bad"`
	AvgTemperatureC *float64 `json:"avgTemperatureC"`
	HasData         bool     `json:"hasData"`
}

// SummarizeToday counts readings by quality tag and averages temperature.
func SummarizeToday(today []Reading) TodayStats {
	stats := TodayStats{Total: len(today)}
	if len(today) == 0 {
		return stats
	}

	var sum float64
	for _, r := range today {
		switch r.Quality {
		case QualityGood:
			stats.Good++
		case QualityBad:
			stats.Bad++
		}
		sum += r.TemperatureC
	}

	avg := sum / float64(len(today))
	stats.AvgTemperatureC = &avg
	stats.HasData = true
	return stats
}

// AvgTemperatureLabel formats the average with one decimal, or the
// placeholder when there is nothing to average.
func (s TodayStats) AvgTemperatureLabel() string {
	if s.AvgTemperatureC == nil {
		return NoDataPlaceholder
	}
	return fmt.Sprintf("%.1f°C", *s.AvgTemperatureC)
}
