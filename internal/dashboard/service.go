package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/water-quality-monitor/internal/metrics"
	"github.com/i474232898/water-quality-monitor/internal/poller"
	"github.com/i474232898/water-quality-monitor/internal/store"
	"github.com/i474232898/water-quality-monitor/internal/water"
)

// ErrUnknownLocation is returned for a location absent from the current dataset.
var ErrUnknownLocation = errors.New("unknown location")

// Store is the contract the dataset holder must satisfy.
type Store interface {
	Replace(ds store.Dataset)
	RecordFailure(err error, at time.Time)
	Current() (store.Dataset, error)
	Status() store.Status
}

// Options configures how datasets are aggregated and projected.
type Options struct {
	TZ                  *time.Location
	PreserveSourceOrder bool

	// Clock supplies "now" for today filtering. Nil means time.Now.
	Clock func() time.Time
}

// Service applies poll results and serves read-only projections of the
// current dataset.
type Service struct {
	store   Store
	opts    water.AggregateOptions
	clock   func() time.Time
	logger  *zap.Logger
	metrics *metrics.Recorder

	mu        sync.Mutex
	selection water.Selection
}

// NewService creates a new Service.
func NewService(st Store, opts Options, logger *zap.Logger, m *metrics.Recorder) *Service {
	if opts.TZ == nil {
		opts.TZ = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: st,
		opts: water.AggregateOptions{
			TZ:                  opts.TZ,
			PreserveSourceOrder: opts.PreserveSourceOrder,
		},
		clock:     opts.Clock,
		logger:    logger.Named("dashboard"),
		metrics:   m,
		selection: water.Unselected(),
	}
}

// HandleResult is the poller callback. A failed cycle only updates
// diagnostics; a successful one replaces the dataset and reconciles the
// selection.
func (s *Service) HandleResult(res poller.Result) {
	if res.Err != nil {
		at := res.CompletedAt
		if at.IsZero() {
			at = s.clock()
		}
		s.store.RecordFailure(res.Err, at)
		return
	}

	fetchedAt := res.CompletedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.clock()
	}
	s.store.Replace(store.Dataset{
		Seq:       res.Seq,
		CycleID:   res.CycleID,
		Readings:  res.Readings,
		FetchedAt: fetchedAt,
	})

	agg := water.AggregateReadings(res.Readings, s.clock(), s.opts)

	s.mu.Lock()
	prev := s.selection
	s.selection = water.Reconcile(s.selection, agg.Locations)
	next := s.selection
	s.mu.Unlock()

	if prev != next {
		s.logger.Info("selection changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	}
	s.metrics.DatasetApplied(len(res.Readings), len(agg.Locations), fetchedAt)
}

func (s *Service) aggregate() (water.Aggregate, error) {
	ds, err := s.store.Current()
	if err != nil {
		return water.Aggregate{}, err
	}
	return water.AggregateReadings(ds.Readings, s.clock(), s.opts), nil
}

// Overview is the landing-page projection: today's counters and cards.
type Overview struct {
	Loading             bool             `json:"loading"`
	Status              store.Status     `json:"status"`
	Today               water.TodayStats `json:"today"`
	AvgTemperatureLabel string           `json:"avgTemperatureLabel"`
	Cards               []water.Summary  `json:"cards"`
	Locations           []string         `json:"locations"`
}

// Overview summarizes today's readings. Before the first successful fetch
// it reports Loading.
func (s *Service) Overview() Overview {
	out := Overview{
		Status:    s.store.Status(),
		Cards:     []water.Summary{},
		Locations: []string{},
	}

	agg, err := s.aggregate()
	if err != nil {
		out.Loading = true
		out.AvgTemperatureLabel = water.NoDataPlaceholder
		return out
	}

	out.Today = water.SummarizeToday(agg.Today)
	out.AvgTemperatureLabel = out.Today.AvgTemperatureLabel()
	out.Locations = agg.Locations
	for _, r := range agg.Today {
		out.Cards = append(out.Cards, water.Summarize(r))
	}
	return out
}

// Locations returns the latest summary of every location in first-appearance order.
func (s *Service) Locations() ([]water.Summary, error) {
	agg, err := s.aggregate()
	if err != nil {
		return nil, err
	}
	return agg.Summaries(), nil
}

// History returns a location's readings, newest first.
func (s *Service) History(name string) ([]water.Reading, error) {
	agg, err := s.aggregate()
	if err != nil {
		return nil, err
	}
	history, ok := agg.ByLocation[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return history, nil
}

// Location returns the detail projection of one location.
func (s *Service) Location(name string) (water.LocationView, error) {
	history, err := s.History(name)
	if err != nil {
		return water.LocationView{}, err
	}
	return water.ProjectLocation(name, history, s.opts.TZ), nil
}

// Selection returns the current selection, reconciled against the dataset.
func (s *Service) Selection() water.Selection {
	agg, err := s.aggregate()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.selection = water.Reconcile(s.selection, agg.Locations)
	}
	return s.selection
}

// Select focuses the detail view on a location present in the current dataset.
func (s *Service) Select(name string) (water.Selection, error) {
	agg, err := s.aggregate()
	if err != nil {
		return water.Unselected(), err
	}
	if _, ok := agg.ByLocation[name]; !ok {
		return water.Unselected(), fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}

	s.mu.Lock()
	s.selection = water.Selected(name)
	s.mu.Unlock()

	s.logger.Debug("location selected", zap.String("location", name))
	return water.Selected(name), nil
}

// View is the dashboard-page projection: location list, selection and the
// selected location's detail.
type View struct {
	Loading   bool                `json:"loading"`
	Status    store.Status        `json:"status"`
	Locations []string            `json:"locations"`
	Selection water.Selection     `json:"selection"`
	Detail    *water.LocationView `json:"detail"`
}

// Dashboard builds the dashboard-page projection.
func (s *Service) Dashboard() View {
	out := View{
		Status:    s.store.Status(),
		Locations: []string{},
		Selection: water.Unselected(),
	}

	agg, err := s.aggregate()
	if err != nil {
		out.Loading = true
		return out
	}

	s.mu.Lock()
	s.selection = water.Reconcile(s.selection, agg.Locations)
	sel := s.selection
	s.mu.Unlock()

	out.Locations = agg.Locations
	out.Selection = sel
	if name, ok := sel.Name(); ok {
		view := water.ProjectLocation(name, agg.ByLocation[name], s.opts.TZ)
		out.Detail = &view
	}
	return out
}

// Status reports data freshness.
func (s *Service) Status() store.Status {
	return s.store.Status()
}
