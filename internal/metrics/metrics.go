package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder instruments poll cycles, the upstream circuit breaker and the API.
// All methods are safe on a nil receiver.
type Recorder struct {
	registry *prometheus.Registry

	fetchCycles    *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	discarded      *prometheus.CounterVec
	invalidRecords prometheus.Counter
	readings       prometheus.Gauge
	locations      prometheus.Gauge
	lastSuccess    prometheus.Gauge
	cbState        *prometheus.GaugeVec

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers all collectors on a dedicated registry.
func New() *Recorder {
	m := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "water_fetch_cycles_total",
			Help: "Fetch cycles by outcome (success or the fetch error kind).",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "water_fetch_duration_seconds",
			Help:    "Histogram of fetch cycle durations.",
			Buckets: prometheus.DefBuckets,
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "water_fetch_results_discarded_total",
			Help: "Fetch results dropped before being applied, by reason.",
		}, []string{"reason"}),
		invalidRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "water_invalid_records_total",
			Help: "Source records rejected by validation.",
		}),
		readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "water_dataset_readings",
			Help: "Readings in the current dataset.",
		}),
		locations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "water_dataset_locations",
			Help: "Distinct locations in the current dataset.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "water_last_success_timestamp_seconds",
			Help: "Unix time of the last applied dataset.",
		}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.fetchCycles,
		m.fetchDuration,
		m.discarded,
		m.invalidRecords,
		m.readings,
		m.locations,
		m.lastSuccess,
		m.cbState,
		m.httpRequestsTotal,
		m.httpDuration,
	)

	return m
}

// Registry exposes the underlying registry (for tests).
func (m *Recorder) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Recorder) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FetchCompleted records one finished fetch cycle. outcome is "success" or an error kind.
func (m *Recorder) FetchCompleted(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetchCycles.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

// ResultDiscarded counts a result that arrived stale or after stop.
func (m *Recorder) ResultDiscarded(reason string) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(reason).Inc()
}

// InvalidRecords counts source records dropped by validation.
func (m *Recorder) InvalidRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invalidRecords.Add(float64(n))
}

// DatasetApplied updates the dataset gauges after a successful replacement.
func (m *Recorder) DatasetApplied(readings, locations int, at time.Time) {
	if m == nil {
		return
	}
	m.readings.Set(float64(readings))
	m.locations.Set(float64(locations))
	m.lastSuccess.Set(float64(at.Unix()))
}

// SetCircuitBreakerState sets the breaker gauge for target.
func (m *Recorder) SetCircuitBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(state)
}

// Middleware records request counts and durations per matched route.
func (m *Recorder) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}
