package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/water-quality-monitor/internal/metrics"
	"github.com/i474232898/water-quality-monitor/internal/water"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 30 * time.Second

// Fetcher performs one fetch cycle.
type Fetcher interface {
	Fetch(ctx context.Context) ([]water.Reading, error)
}

// Result is the outcome of one fetch cycle. Exactly one of Readings and Err
// is meaningful: Err != nil means the cycle produced no update.
type Result struct {
	Seq         uint64
	CycleID     string
	Readings    []water.Reading
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Poller runs fetch cycles on a fixed interval.
type Poller struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// New creates a Poller. A timeout <= 0 means each cycle may take up to one
// interval before it is abandoned.
func New(fetcher Fetcher, timeout time.Duration, logger *zap.Logger, m *metrics.Recorder) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger.Named("poller"),
		metrics: m,
	}
}

// Handle owns one running poll loop. It must be stopped by whoever started it.
type Handle struct {
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	onResult  func(Result)
	logger    *zap.Logger
	metrics   *metrics.Recorder

	seq atomic.Uint64

	// mu serializes deliveries and guards the fields below.
	mu      sync.Mutex
	stopped bool
	applied uint64
}

// Start runs a fetch cycle immediately and then every interval until Stop.
// onResult is never called concurrently with itself and must not call Stop.
func (p *Poller) Start(interval time.Duration, onResult func(Result)) (*Handle, error) {
	if p.fetcher == nil {
		return nil, errors.New("poller: no fetcher configured")
	}
	if onResult == nil {
		return nil, errors.New("poller: onResult is nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := p.timeout
	if timeout <= 0 {
		timeout = interval
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		scheduler: gocron.NewScheduler(time.UTC),
		ctx:       ctx,
		cancel:    cancel,
		onResult:  onResult,
		logger:    p.logger,
		metrics:   p.metrics,
	}

	_, err := h.scheduler.Every(interval).Do(func() {
		h.runCycle(p.fetcher, timeout)
	})
	if err != nil {
		cancel()
		return nil, err
	}

	p.logger.Info("poller start", zap.Duration("interval", interval), zap.Duration("timeout", timeout))
	h.scheduler.StartAsync()
	return h, nil
}

func (h *Handle) runCycle(fetcher Fetcher, timeout time.Duration) {
	if h.ctx.Err() != nil {
		return
	}

	res := Result{
		Seq:       h.seq.Add(1),
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(h.ctx, timeout)
	defer cancel()

	res.Readings, res.Err = fetcher.Fetch(ctx)
	res.CompletedAt = time.Now()
	if res.Err != nil {
		res.Readings = nil
	}

	h.deliver(res)
}

// deliver applies the ordering rules: nothing after Stop, and nothing older
// than the newest applied dataset.
func (h *Handle) deliver(res Result) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := h.logger.With(zap.Uint64("seq", res.Seq), zap.String("cycle", res.CycleID))

	if h.stopped {
		log.Debug("discarding result after stop")
		h.metrics.ResultDiscarded("stopped")
		return false
	}
	if res.Seq <= h.applied {
		log.Debug("discarding stale result", zap.Uint64("applied", h.applied))
		h.metrics.ResultDiscarded("stale")
		return false
	}

	duration := res.CompletedAt.Sub(res.StartedAt)
	if res.Err != nil {
		log.Warn("fetch cycle failed; keeping last good dataset", zap.Error(res.Err), zap.Duration("took", duration))
		h.metrics.FetchCompleted(outcome(res.Err), duration)
	} else {
		h.applied = res.Seq
		log.Info("fetch cycle completed", zap.Int("readings", len(res.Readings)), zap.Duration("took", duration))
		h.metrics.FetchCompleted("success", duration)
	}

	h.onResult(res)
	return true
}

// Stop cancels future ticks and in-flight requests. No onResult call happens
// after Stop returns. Stop is idempotent.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.mu.Lock()
	already := h.stopped
	h.stopped = true
	h.mu.Unlock()

	h.cancel()
	if already {
		return
	}
	h.scheduler.Stop()
	h.logger.Info("poller stopped")
}

func outcome(err error) string {
	var k interface{ FetchKind() string }
	if errors.As(err, &k) {
		return k.FetchKind()
	}
	return "error"
}
