package dashboard

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/i474232898/water-quality-monitor/internal/metrics"
	"github.com/i474232898/water-quality-monitor/internal/poller"
	"github.com/i474232898/water-quality-monitor/internal/store"
	"github.com/i474232898/water-quality-monitor/internal/water"
)

var (
	zone = time.FixedZone("UTC+1", 60*60)
	now  = time.Date(2024, 5, 10, 15, 0, 0, 0, zone)
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), Options{
		TZ:    zone,
		Clock: func() time.Time { return now },
	}, zaptest.NewLogger(t), metrics.New())
}

func sampleDataset() []water.Reading {
	return []water.Reading{
		{Location: "North", Timestamp: now.Add(-time.Hour), PH: 7.2, TemperatureC: 22, ORPMillivolt: 450, Quality: water.QualityGood},
		{Location: "South", Timestamp: now.Add(-2 * time.Hour), PH: 6.1, TemperatureC: 26, ORPMillivolt: 380, Quality: water.QualityBad},
		{Location: "North", Timestamp: now.Add(-26 * time.Hour), PH: 7.0, TemperatureC: 21, ORPMillivolt: 440, Quality: water.QualityGood},
	}
}

func TestLoadingBeforeFirstSuccess(t *testing.T) {
	svc := newService(t)

	svc.HandleResult(poller.Result{Seq: 1, Err: errors.New("fetch network: refused"), CompletedAt: now})

	ov := svc.Overview()
	if !ov.Loading || ov.AvgTemperatureLabel != water.NoDataPlaceholder {
		t.Fatalf("overview=%+v", ov)
	}
	if ov.Status.Failures != 1 || ov.Status.LastError == "" {
		t.Fatalf("status=%+v", ov.Status)
	}
	if v := svc.Dashboard(); !v.Loading || v.Selection.IsSelected() {
		t.Fatalf("dashboard=%+v", v)
	}
	if _, err := svc.Location("North"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

// TestFailureRetainsProjection applies a good dataset, then a failed cycle,
// and expects identical projections before and after the failure.
func TestFailureRetainsProjection(t *testing.T) {
	svc := newService(t)

	svc.HandleResult(poller.Result{Seq: 1, CycleID: "c1", Readings: sampleDataset(), CompletedAt: now})
	beforeOverview := svc.Overview()
	beforeDetail, err := svc.Location("North")
	if err != nil {
		t.Fatalf("Location: %v", err)
	}

	svc.HandleResult(poller.Result{Seq: 2, Err: errors.New("fetch status (status 502)"), CompletedAt: now.Add(30 * time.Second)})

	afterOverview := svc.Overview()
	afterDetail, err := svc.Location("North")
	if err != nil {
		t.Fatalf("Location after failure: %v", err)
	}

	if !reflect.DeepEqual(beforeOverview.Today, afterOverview.Today) || !reflect.DeepEqual(beforeOverview.Cards, afterOverview.Cards) {
		t.Fatalf("overview changed after failure:\n%+v\n%+v", beforeOverview, afterOverview)
	}
	if !reflect.DeepEqual(beforeDetail, afterDetail) {
		t.Fatalf("detail changed after failure")
	}
	if afterOverview.Status.LastError == "" || afterOverview.Loading {
		t.Fatalf("status=%+v", afterOverview.Status)
	}
}

func TestOverviewCountsToday(t *testing.T) {
	svc := newService(t)
	svc.HandleResult(poller.Result{Seq: 1, Readings: sampleDataset(), CompletedAt: now})

	ov := svc.Overview()
	if ov.Today.Total != 2 || ov.Today.Good != 1 || ov.Today.Bad != 1 {
		t.Fatalf("today=%+v", ov.Today)
	}
	if ov.AvgTemperatureLabel != "24.0°C" {
		t.Fatalf("avg label=%q", ov.AvgTemperatureLabel)
	}
	if len(ov.Cards) != 2 || ov.Cards[1].InRange.PH {
		t.Fatalf("cards=%+v", ov.Cards)
	}
	if !reflect.DeepEqual(ov.Locations, []string{"North", "South"}) {
		t.Fatalf("locations=%v", ov.Locations)
	}
}

func TestSelectionFollowsDataset(t *testing.T) {
	svc := newService(t)

	svc.HandleResult(poller.Result{Seq: 1, Readings: sampleDataset(), CompletedAt: now})
	if name, _ := svc.Selection().Name(); name != "North" {
		t.Fatalf("default selection=%v want North", svc.Selection())
	}

	if _, err := svc.Select("South"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	svc.HandleResult(poller.Result{Seq: 2, Readings: sampleDataset(), CompletedAt: now})
	if name, _ := svc.Selection().Name(); name != "South" {
		t.Fatalf("selection not kept across refresh: %v", svc.Selection())
	}

	// South disappears: fall back to the first remaining location.
	svc.HandleResult(poller.Result{Seq: 3, Readings: []water.Reading{
		{Location: "East", Timestamp: now, Quality: water.QualityGood},
		{Location: "North", Timestamp: now, Quality: water.QualityGood},
	}, CompletedAt: now})
	if name, _ := svc.Selection().Name(); name != "East" {
		t.Fatalf("selection=%v want East", svc.Selection())
	}

	if _, err := svc.Select("Nowhere"); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("err=%v want ErrUnknownLocation", err)
	}
}

func TestDashboardDetail(t *testing.T) {
	svc := newService(t)
	svc.HandleResult(poller.Result{Seq: 1, Readings: sampleDataset(), CompletedAt: now})

	v := svc.Dashboard()
	if v.Loading || v.Detail == nil {
		t.Fatalf("view=%+v", v)
	}
	if v.Detail.Name != "North" || len(v.Detail.Series) != 2 || len(v.Detail.Log) != 2 {
		t.Fatalf("detail=%+v", v.Detail)
	}
	if v.Detail.Latest.PH != 7.2 {
		t.Fatalf("latest=%+v", v.Detail.Latest)
	}

	sums, err := svc.Locations()
	if err != nil || len(sums) != 2 || sums[1].Tone != water.ToneCritical {
		t.Fatalf("summaries=%+v err=%v", sums, err)
	}
}

func TestEmptySuccessfulFetchClearsSelection(t *testing.T) {
	svc := newService(t)
	svc.HandleResult(poller.Result{Seq: 1, Readings: sampleDataset(), CompletedAt: now})
	svc.HandleResult(poller.Result{Seq: 2, Readings: []water.Reading{}, CompletedAt: now})

	v := svc.Dashboard()
	if v.Loading || v.Selection.IsSelected() || v.Detail != nil {
		t.Fatalf("view=%+v", v)
	}
	if ov := svc.Overview(); ov.Today.HasData || ov.AvgTemperatureLabel != water.NoDataPlaceholder {
		t.Fatalf("overview=%+v", ov)
	}
}
