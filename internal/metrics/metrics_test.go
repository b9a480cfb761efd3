package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	m := New()

	m.FetchCompleted("success", 20*time.Millisecond)
	m.FetchCompleted("timeout", time.Second)
	m.FetchCompleted("success", 10*time.Millisecond)
	m.ResultDiscarded("stale")
	m.InvalidRecords(4)
	m.InvalidRecords(0)
	m.DatasetApplied(7, 3, time.Unix(1715000000, 0))

	if got := testutil.ToFloat64(m.fetchCycles.WithLabelValues("success")); got != 2 {
		t.Fatalf("success cycles=%v", got)
	}
	if got := testutil.ToFloat64(m.fetchCycles.WithLabelValues("timeout")); got != 1 {
		t.Fatalf("timeout cycles=%v", got)
	}
	if got := testutil.ToFloat64(m.discarded.WithLabelValues("stale")); got != 1 {
		t.Fatalf("discarded=%v", got)
	}
	if got := testutil.ToFloat64(m.invalidRecords); got != 4 {
		t.Fatalf("invalid=%v", got)
	}
	if got := testutil.ToFloat64(m.locations); got != 3 {
		t.Fatalf("locations=%v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess); got != 1715000000 {
		t.Fatalf("lastSuccess=%v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var m *Recorder
	m.FetchCompleted("success", time.Millisecond)
	m.ResultDiscarded("stopped")
	m.InvalidRecords(1)
	m.DatasetApplied(1, 1, time.Now())
	m.SetCircuitBreakerState("source", 2)
	if m.Registry() != nil {
		t.Fatalf("nil recorder should have no registry")
	}
}

func TestMiddlewareCountsRoutes(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, target := range []string{"/ping", "/ping", "/missing"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatalf("request %s: %v", target, err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/ping", "200")); got != 2 {
		t.Fatalf("/ping count=%v", got)
	}
	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/missing", "404")); got != 1 {
		t.Fatalf("/missing count=%v", got)
	}
}
