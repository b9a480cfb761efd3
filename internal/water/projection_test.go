package water

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestProjectLocation(t *testing.T) {
	t.Parallel()

	newest := Reading{Location: "North", Timestamp: at(2024, 5, 10, 9, 0, 0), PH: 7.2, TemperatureC: 31, ORPMillivolt: 480, Quality: QualityGood}
	middle := Reading{Location: "North", Timestamp: at(2024, 5, 9, 9, 0, 0), PH: 6.9, Quality: QualityBad}
	oldest := Reading{Location: "North", Timestamp: at(2024, 5, 8, 9, 0, 0), PH: 7.0, Quality: QualityWarning}

	view := ProjectLocation("North", []Reading{newest, middle, oldest}, testZone)

	if view.Latest == nil {
		t.Fatalf("expected headline")
	}
	h := view.Latest
	if h.PH != 7.2 || h.TemperatureC != 31 || h.ORPMillivolt != 480 || h.Location != "North" {
		t.Fatalf("headline=%+v", h)
	}
	if !h.Timestamp.Equal(newest.Timestamp) {
		t.Fatalf("headline timestamp=%v", h.Timestamp)
	}
	if h.InRange.Temperature || !h.InRange.PH {
		t.Fatalf("headline ranges=%+v", h.InRange)
	}

	wantLabels := []string{"05/08/2024", "05/09/2024", "05/10/2024"}
	if len(view.Series) != 3 {
		t.Fatalf("series len=%d", len(view.Series))
	}
	for i, label := range wantLabels {
		if view.Series[i].Label != label {
			t.Fatalf("Series[%d].Label=%q want %q", i, view.Series[i].Label, label)
		}
	}
	if view.Series[0].PH != 7.0 || view.Series[2].PH != 7.2 {
		t.Fatalf("series not chronological: %+v", view.Series)
	}

	wantBadges := []Badge{BadgeGood, BadgeBad, BadgeBad}
	for i, b := range wantBadges {
		if view.Log[i].Badge != b || view.Log[i].Index != i+1 {
			t.Fatalf("Log[%d]=%+v want badge %q", i, view.Log[i], b)
		}
	}
	if !view.Log[0].Timestamp.Equal(newest.Timestamp) {
		t.Fatalf("log not newest-first")
	}
}

func TestProjectLocationEmpty(t *testing.T) {
	t.Parallel()

	view := ProjectLocation("Ghost", nil, nil)
	if view.Latest != nil || len(view.Series) != 0 || len(view.Log) != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
}

func TestSummarizeToday(t *testing.T) {
	t.Parallel()

	today := []Reading{
		{TemperatureC: 20, Quality: QualityGood},
		{TemperatureC: 25, Quality: QualityBad},
		{TemperatureC: 27.5, Quality: QualityWarning},
		{TemperatureC: 22.5, Quality: QualityGood},
	}

	stats := SummarizeToday(today)
	if stats.Total != 4 || stats.Good != 2 || stats.Bad != 1 || !stats.HasData {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.AvgTemperatureC == nil || math.Abs(*stats.AvgTemperatureC-23.75) > 1e-9 {
		t.Fatalf("avg=%v want 23.75", stats.AvgTemperatureC)
	}
	if got := stats.AvgTemperatureLabel(); got != "23.8°C" {
		t.Fatalf("label=%q", got)
	}
}

// TestSummarizeTodayEmptyHasNoNaN ensures an empty day yields a placeholder
// rather than a NaN average.
func TestSummarizeTodayEmptyHasNoNaN(t *testing.T) {
	t.Parallel()

	stats := SummarizeToday(nil)
	if stats.HasData || stats.AvgTemperatureC != nil || stats.Total != 0 {
		t.Fatalf("stats=%+v", stats)
	}
	if got := stats.AvgTemperatureLabel(); got != NoDataPlaceholder {
		t.Fatalf("label=%q want %q", got, NoDataPlaceholder)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"avgTemperatureC":null`) || strings.Contains(string(b), "NaN") {
		t.Fatalf("json=%s", b)
	}
}

func TestProjectLocationUsesZoneForLabels(t *testing.T) {
	t.Parallel()

	// 23:30 UTC is already the next day at UTC+2.
	r := Reading{Location: "X", Timestamp: time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC)}
	view := ProjectLocation("X", []Reading{r}, testZone)
	if view.Series[0].Label != "01/01/2025" {
		t.Fatalf("label=%q", view.Series[0].Label)
	}
}
