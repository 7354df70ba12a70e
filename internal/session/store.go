// Package session keeps one simulated race per session key and serializes access to each of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/bcdxn/f1sim/internal/metrics"
	"github.com/bcdxn/f1sim/internal/racesim"
)

// DefaultKey is used when a caller does not name a session.
const DefaultKey = "default"

var (
	// ErrStepFailed is returned when simulating a lap failed; the previous race state is kept.
	ErrStepFailed = errors.New("simulation step failed")
	// ErrNotFound is returned by Get for unknown session keys.
	ErrNotFound = errors.New("session not found")
)

// Request describes what to do with a session before its snapshot is returned.
type Request struct {
	Reset bool // Reset discards the race and starts a fresh one
	Laps  int  // Laps is the number of laps to advance, clamped to [0, MaxLaps]; ignored on reset
}

// EngineFactory creates the engine owned by a new session.
type EngineFactory func() *racesim.Engine

// New returns a new session Store.
func New(opts ...StoreOption) *Store {
	s := &Store{
		sessions:  make(map[string]*entry),
		newEngine: func() *racesim.Engine { return racesim.New() },
		maxLaps:   5,
		ttl:       30 * time.Minute,
		now:       time.Now,
		logger:    slog.Default(),
	}
	// apply given options
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	// configuration
	newEngine EngineFactory
	maxLaps   int
	ttl       time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// entry owns a single race; mu guards engine and race. lastUsed holds unix nanoseconds and is
// read by the janitor without taking mu.
type entry struct {
	mu       sync.Mutex
	engine   *racesim.Engine
	race     domain.RaceState
	lastUsed atomic.Int64
}

/* Store Optional Functional Parameters
------------------------------------------------------------------------------------------------- */

type StoreOption = func(s *Store)

// WithEngineFactory configures how engines are created for new sessions.
func WithEngineFactory(f EngineFactory) StoreOption {
	return func(s *Store) { s.newEngine = f }
}

// WithMaxLaps configures the number of laps a single request may advance.
func WithMaxLaps(n int) StoreOption {
	return func(s *Store) { s.maxLaps = n }
}

// WithTTL configures how long an idle session is kept before it is evicted.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock configures the clock used for idle tracking and snapshots; primarily used for testing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithMetrics configures the collectors updated by the store.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithLogger configures the logger to use within the store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

/* Store API
------------------------------------------------------------------------------------------------- */

// ClampLaps bounds a requested lap count to [0, max].
func ClampLaps(laps, max int) int {
	if laps <= 0 {
		return 0
	}
	if laps > max {
		return max
	}
	return laps
}

// Advance applies req to the session named key, creating the session if needed, and returns the
// resulting snapshot. The new race state replaces the stored one only when every lap succeeded.
func (s *Store) Advance(ctx context.Context, key string, req Request) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	if key == "" {
		key = DefaultKey
	}
	e := s.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.race
	next, err := s.transition(e, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.StepFailures.Inc()
		}
		s.logger.Error("discarding failed simulation step", "session", key, "err", err)
		return domain.Snapshot{}, err
	}
	e.race = next
	e.lastUsed.Store(s.now().UnixNano())
	s.metrics.ObserveAdvance(prev, next)

	return domain.NewSnapshot(next, s.now()), nil
}

// Get returns the current snapshot of a session without advancing it.
func (s *Store) Get(key string) (domain.Snapshot, error) {
	s.mu.Lock()
	e, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.NewSnapshot(e.race, s.now()), nil
}

// Delete discards a session.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	s.updateGauge()
}

// Len returns the number of sessions held in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle removes sessions that have not been used within the configured TTL and returns how
// many were removed.
func (s *Store) EvictIdle() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.sessions {
		if e.lastUsed.Load() < cutoff.UnixNano() {
			delete(s.sessions, key)
			n++
		}
	}
	s.updateGauge()
	return n
}

// RunJanitor evicts idle sessions periodically until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

// entry returns the session for key, creating an empty one when it does not exist yet. The entry
// is marked as used before the store lock is released so the janitor cannot evict it while the
// caller waits for the entry lock.
func (s *Store) entry(key string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	if !ok {
		e = &entry{engine: s.newEngine()}
		s.sessions[key] = e
		s.updateGauge()
		s.logger.Debug("created session", "session", key)
	}
	e.lastUsed.Store(s.now().UnixNano())
	return e
}

// transition computes the next race state without touching the stored one. A panic while
// simulating is reported as ErrStepFailed.
func (s *Store) transition(e *entry, req Request) (next domain.RaceState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepFailed, r)
		}
	}()

	// a reset returns the fresh race as is; laps only apply to a race that already exists
	if req.Reset {
		return e.engine.Initialize(), nil
	}
	next = e.race
	if !next.Started {
		next = e.engine.Initialize()
	}
	return e.engine.StepN(next, ClampLaps(req.Laps, s.maxLaps)), nil
}

func (s *Store) updateGauge() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
}
