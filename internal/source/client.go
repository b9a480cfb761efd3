package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/water-quality-monitor/internal/metrics"
	"github.com/i474232898/water-quality-monitor/internal/water"
)

// DefaultURL is the items endpoint the dashboard reads from.
const DefaultURL = "https://otbbh4v81j.execute-api.us-east-1.amazonaws.com/items"

const maxBodyBytes = 32 << 20

var validate = validator.New()

// itemPayload maps one element of the items array. Pointers distinguish a
// missing field from a zero value.
type itemPayload struct {
	DormName    *string         `json:"DormName" validate:"required,min=1"`
	Timestamp   json.RawMessage `json:"timestamp" validate:"required"`
	PH          *float64        `json:"pH" validate:"required"`
	Temperature *float64        `json:"temperature" validate:"required"`
	ORP         *float64        `json:"ORP" validate:"required"`
	Quality     *string         `json:"quality"`
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL        string
	HTTPClient *http.Client
	Backoff    BackoffConfig

	// Strict fails the whole cycle on the first invalid record instead of
	// dropping it.
	Strict bool

	// TZ interprets timestamps that carry no zone. Nil means time.Local.
	TZ *time.Location

	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Client performs fetch cycles against the items endpoint.
type Client struct {
	name    string
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	strict  bool
	tz      *time.Location
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewClient builds a Client with defaults filled in and its circuit breaker ready.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Backoff.InitialInterval <= 0 {
		opts.Backoff = BackoffConfig{
			MaxRetries:      opts.Backoff.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}
	if opts.TZ == nil {
		opts.TZ = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Client{
		name: "items",
		url:  opts.URL,
		httpCfg: HTTPClientConfig{
			Client:  opts.HTTPClient,
			Backoff: opts.Backoff,
		},
		strict:  opts.Strict,
		tz:      opts.TZ,
		logger:  opts.Logger.Named("source"),
		metrics: opts.Metrics,
	}

	c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			c.metrics.SetCircuitBreakerState(name, breakerGauge(to))
		},
	})
	c.metrics.SetCircuitBreakerState(c.name, 0)

	return c
}

// Name identifies the upstream in logs and the breaker gauge.
func (c *Client) Name() string {
	return c.name
}

// Fetch performs one GET and decodes the readings. Every failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context) ([]water.Reading, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(err)
	}

	return c.decode(body)
}

func (c *Client) decode(body []byte) ([]water.Reading, error) {
	if !json.Valid(body) {
		return nil, &FetchError{Kind: KindDecode, Err: errors.New("response body is not valid JSON")}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || items == nil {
		return nil, &FetchError{Kind: KindShape, Err: errNotArray}
	}

	readings := make([]water.Reading, 0, len(items))
	dropped := 0
	for i, raw := range items {
		r, err := c.toReading(raw)
		if err != nil {
			if c.strict {
				c.metrics.InvalidRecords(1)
				return nil, &FetchError{Kind: KindShape, Err: fmt.Errorf("record %d: %w", i, err)}
			}
			dropped++
			c.logger.Warn("dropping invalid record", zap.Int("index", i), zap.Error(err))
			continue
		}
		readings = append(readings, r)
	}
	c.metrics.InvalidRecords(dropped)

	return readings, nil
}

func (c *Client) toReading(raw json.RawMessage) (water.Reading, error) {
	var p itemPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return water.Reading{}, err
	}
	if err := validate.Struct(p); err != nil {
		return water.Reading{}, err
	}

	ts, err := parseTimestamp(p.Timestamp, c.tz)
	if err != nil {
		return water.Reading{}, err
	}

	var q water.Quality
	if p.Quality != nil {
		q = water.Quality(*p.Quality)
	}

	return water.Reading{
		Location:     *p.DormName,
		Timestamp:    ts,
		PH:           *p.PH,
		TemperatureC: *p.Temperature,
		ORPMillivolt: *p.ORP,
		Quality:      q,
	}, nil
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
