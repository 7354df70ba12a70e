// Package racesim simulates a Formula 1 race one lap at a time. Every transition takes a race
// state and returns a new one, leaving the input untouched, so a caller can swap the result in
// only once a step has succeeded.
package racesim

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/nats-io/nuid"
)

// Rand is the source of randomness used by the simulation. *rand.Rand from math/rand/v2
// satisfies it; tests substitute scripted implementations.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// PitDecider decides whether a driver stops at the end of the lap about to be simulated.
type PitDecider func(r Rand, d domain.Driver, race domain.RaceState) bool

// New returns a new race simulation Engine. An Engine is not safe for concurrent use; callers
// that share one must serialize access.
func New(opts ...EngineOption) *Engine {
	// create a default instance of the engine
	e := &Engine{
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:        time.Now,
		newID:      nuid.Next,
		pitDecider: DefaultPitDecider,
		logger:     slog.Default(),
	}
	// apply given options
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Engine struct {
	rng        Rand
	now        func() time.Time
	newID      func() string
	pitDecider PitDecider
	logger     *slog.Logger
}

/* Engine Optional Functional Parameters
------------------------------------------------------------------------------------------------- */

type EngineOption = func(e *Engine)

// WithRand configures the source of randomness; primarily used for testing.
func WithRand(r Rand) EngineOption {
	return func(e *Engine) { e.rng = r }
}

// WithSeed configures a deterministic PCG source so that a race can be replayed.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock configures the function used to timestamp incidents and lap records.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator configures how session identifiers are generated.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) { e.newID = newID }
}

// WithPitDecider replaces the default wear based pit stop policy.
func WithPitDecider(d PitDecider) EngineOption {
	return func(e *Engine) { e.pitDecider = d }
}

// WithLogger configures the logger to use within the engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

/* Helpers
------------------------------------------------------------------------------------------------- */

// uniform returns a value drawn uniformly from [min, max).
func uniform(r Rand, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// chance reports true with probability p.
func chance(r Rand, p float64) bool {
	return r.Float64() < p
}

func (e *Engine) addIncident(race *domain.RaceState, sector int, t domain.IncidentType, driver, desc string) {
	race.Incidents = append(race.Incidents, domain.Incident{
		Lap:          race.CurrentLap,
		Sector:       sector,
		Timestamp:    e.now(),
		Type:         t,
		Description:  desc,
		DriverNumber: driver,
	})
	e.logger.Debug("race incident", "lap", race.CurrentLap, "type", t, "desc", desc)
}
