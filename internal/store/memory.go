package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/water-quality-monitor/internal/water"
)

var (
	// ErrNotFound is returned while no dataset has been fetched successfully.
	ErrNotFound = errors.New("no water quality data loaded yet")
)

// Dataset is one complete reading set as returned by a successful fetch.
type Dataset struct {
	Seq       uint64
	CycleID   string
	Readings  []water.Reading
	FetchedAt time.Time
}

// Status describes freshness of the stored data.
type Status struct {
	Loaded       bool      `json:"loaded"`
	LastUpdated  time.Time `json:"lastUpdated"`
	LastAttempt  time.Time `json:"lastAttempt"`
	LastError    string    `json:"lastError,omitempty"`
	LastErrorAt  time.Time `json:"lastErrorAt"`
	Readings     int       `json:"readings"`
	Successes    int       `json:"successes"`
	Failures     int       `json:"failures"`
	CurrentCycle string    `json:"currentCycle,omitempty"`
}

// MemoryStore is a concurrency-safe holder of the last known good dataset.
type MemoryStore struct {
	mu sync.RWMutex

	current *Dataset

	lastAttempt time.Time
	lastErr     error
	lastErrAt   time.Time
	successes   int
	failures    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps in a new dataset wholesale. The readings slice is copied so
// later changes by the caller cannot leak in.
func (s *MemoryStore) Replace(ds Dataset) {
	ds.Readings = append([]water.Reading(nil), ds.Readings...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &ds
	s.lastAttempt = ds.FetchedAt
	s.successes++
}

// RecordFailure notes a failed cycle. The current dataset is left untouched.
func (s *MemoryStore) RecordFailure(err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAttempt = at
	s.lastErr = err
	s.lastErrAt = at
	s.failures++
}

// Current returns the last successfully fetched dataset.
func (s *MemoryStore) Current() (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Dataset{}, ErrNotFound
	}
	return *s.current, nil
}

// Status reports freshness information for diagnostics.
func (s *MemoryStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		LastAttempt: s.lastAttempt,
		LastErrorAt: s.lastErrAt,
		Successes:   s.successes,
		Failures:    s.failures,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.current != nil {
		st.Loaded = true
		st.LastUpdated = s.current.FetchedAt
		st.Readings = len(s.current.Readings)
		st.CurrentCycle = s.current.CycleID
	}
	return st
}
