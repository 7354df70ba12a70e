package racesim

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
)

func TestInitialize(t *testing.T) {
	e := newTestEngine(t, 1)
	race := e.Initialize()

	if race.CurrentLap != 1 {
		t.Errorf("expected current lap %d but found %d", 1, race.CurrentLap)
	}
	if !race.Started {
		t.Errorf("expected race to be started")
	}
	if race.Finished {
		t.Errorf("expected race not to be finished")
	}
	if len(race.Drivers) != 20 {
		t.Fatalf("expected %d drivers but found %d", 20, len(race.Drivers))
	}
	for i, d := range race.Drivers {
		if d.Position != d.GridPosition || d.Position != i+1 {
			t.Errorf("expected %s in position %d but found %d", d.Name, i+1, d.Position)
		}
		if d.TireCompound != domain.TireCompoundSoft && d.TireCompound != domain.TireCompoundMedium {
			t.Errorf("expected %s to start on softs or mediums but found %s", d.Name, d.TireCompound)
		}
		if d.SkillFactor < minSkillFactor || d.SkillFactor > maxSkillFactor {
			t.Errorf("expected skill factor in [%.2f, %.2f] but found %f", minSkillFactor, maxSkillFactor, d.SkillFactor)
		}
		want := poleTime + float64(i)*gridStepTime
		if math.Abs(d.QualifyingTime-want) > 0.05 {
			t.Errorf("expected qualifying time near %.3f but found %.3f", want, d.QualifyingTime)
		}
	}
	if race.Drivers[0].Name != "Charles Leclerc" {
		t.Errorf("expected '%s' on pole but found '%s'", "Charles Leclerc", race.Drivers[0].Name)
	}
	if len(race.Incidents) != 1 || race.Incidents[0].Type != domain.IncidentTypeRaceStart {
		t.Errorf("expected exactly one race start incident but found %v", race.Incidents)
	}
	if len(race.LapHistory) != 1 || race.LapHistory[0].Lap != 0 {
		t.Errorf("expected the formation lap in the history but found %v", race.LapHistory)
	}
	if race.SessionID == "" {
		t.Errorf("expected a session id")
	}

	t.Run("InjectedIDs", func(t *testing.T) {
		n := 0
		e := newTestEngine(t, 1, WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("race-%d", n)
		}))
		if id := e.Initialize().SessionID; id != "race-1" {
			t.Errorf("expected session id '%s' but found '%s'", "race-1", id)
		}
		if id := e.Initialize().SessionID; id != "race-2" {
			t.Errorf("expected session id '%s' but found '%s'", "race-2", id)
		}
	})

	t.Run("ResetCreatesNewSession", func(t *testing.T) {
		again := e.Initialize()
		if again.SessionID == race.SessionID {
			t.Errorf("expected a new session id but found '%s' again", again.SessionID)
		}
	})
}

func TestStepInvariants(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 2024} {
		e := newTestEngine(t, seed)
		race := e.Initialize()
		dnfAt := make(map[string]domain.Driver)

		for step := 0; step < race.TotalLaps+5; step++ {
			prev := race
			race = e.Step(race)

			if len(race.Drivers) != 20 {
				t.Fatalf("seed %d: expected %d drivers but found %d", seed, 20, len(race.Drivers))
			}
			seen := make(map[int]bool)
			for _, d := range race.Drivers {
				if d.Position < 1 || d.Position > 20 || seen[d.Position] {
					t.Fatalf("seed %d: invalid or duplicate position %d", seed, d.Position)
				}
				seen[d.Position] = true
			}
			if race.CurrentLap < prev.CurrentLap {
				t.Fatalf("seed %d: current lap went from %d to %d", seed, prev.CurrentLap, race.CurrentLap)
			}
			if prev.Finished && !race.Finished {
				t.Fatalf("seed %d: finished race was reopened", seed)
			}
			if len(race.Incidents) < len(prev.Incidents) || len(race.LapHistory) < len(prev.LapHistory) {
				t.Fatalf("seed %d: incidents or lap history shrank", seed)
			}
			for _, d := range race.Drivers {
				frozen, ok := dnfAt[d.Number]
				if !ok {
					if d.DNF {
						dnfAt[d.Number] = d
					}
					continue
				}
				if !d.DNF || d.CurrentLap != frozen.CurrentLap || d.TireCompound != frozen.TireCompound ||
					d.SectorTimes != frozen.SectorTimes {
					t.Fatalf("seed %d: retired driver %s changed after retirement", seed, d.Name)
				}
			}
		}
		if !race.Finished {
			t.Errorf("seed %d: expected race to be finished", seed)
		}
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t, 3)
	race := e.Initialize()
	before := race.Clone()

	next := e.Step(race)

	if race.CurrentLap != before.CurrentLap || len(race.Incidents) != len(before.Incidents) ||
		len(race.LapHistory) != len(before.LapHistory) {
		t.Errorf("expected input race to be unchanged")
	}
	for i := range race.Drivers {
		if race.Drivers[i] != before.Drivers[i] {
			t.Errorf("expected driver %s to be unchanged", race.Drivers[i].Name)
		}
	}
	if next.CurrentLap != 2 {
		t.Errorf("expected current lap %d but found %d", 2, next.CurrentLap)
	}
}

func TestFullRace(t *testing.T) {
	e := newTestEngine(t, 11)
	race := e.Initialize()
	for i := 0; i < domain.MonacoTotalLaps; i++ {
		if race.Finished {
			t.Fatalf("race finished early after %d laps", i)
		}
		race = e.Step(race)
	}

	if !race.Finished {
		t.Fatalf("expected race to be finished after %d laps", domain.MonacoTotalLaps)
	}
	n := len(race.Incidents)
	if race.Incidents[n-2].Type != domain.IncidentTypeRaceFinish {
		t.Errorf("expected '%s' but found '%s'", domain.IncidentTypeRaceFinish, race.Incidents[n-2].Type)
	}
	podium := race.Incidents[n-1]
	if podium.Type != domain.IncidentTypePodium {
		t.Fatalf("expected '%s' but found '%s'", domain.IncidentTypePodium, podium.Type)
	}

	top := make([]domain.Driver, 0, 3)
	for _, d := range race.Drivers {
		if !d.DNF && len(top) < 3 {
			top = append(top, d)
		}
	}
	for i, d := range top {
		if d.Position != i+1 {
			t.Errorf("expected podium finisher %s in position %d but found %d", d.Name, i+1, d.Position)
		}
		if !strings.Contains(podium.Description, d.Name) {
			t.Errorf("expected podium '%s' to name %s", podium.Description, d.Name)
		}
	}
	for _, d := range race.Drivers[3:] {
		if strings.Contains(podium.Description, d.Name) {
			t.Errorf("expected podium '%s' not to name %s", podium.Description, d.Name)
		}
	}
	if len(race.LapHistory) != domain.MonacoTotalLaps+1 {
		t.Errorf("expected %d lap records but found %d", domain.MonacoTotalLaps+1, len(race.LapHistory))
	}

	t.Run("StepAfterFinishIsNoop", func(t *testing.T) {
		again := e.Step(race)
		if again.CurrentLap != race.CurrentLap || len(again.Incidents) != len(race.Incidents) {
			t.Errorf("expected stepping a finished race to change nothing")
		}
	})
}

func TestStepN(t *testing.T) {
	e := newTestEngine(t, 5)
	race := e.StepN(e.Initialize(), 3)
	if race.CurrentLap != 4 {
		t.Errorf("expected current lap %d but found %d", 4, race.CurrentLap)
	}
	race = e.StepN(race, 1000)
	if !race.Finished || race.CurrentLap != domain.MonacoTotalLaps+1 {
		t.Errorf("expected a finished race after lap %d but found lap %d", domain.MonacoTotalLaps, race.CurrentLap)
	}
}

func TestStepUninitializedIsNoop(t *testing.T) {
	e := newTestEngine(t, 5)
	race := e.Step(domain.NewRaceState("x"))
	if race.Started || race.CurrentLap != 0 || len(race.Drivers) != 0 {
		t.Errorf("expected an uninitialized race to stay untouched")
	}
}

/* Test Helpers
------------------------------------------------------------------------------------------------- */

// testLogger creates a new logger to be used in tests that writes all logs to /dev/null so they
// don't uglify the test output.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, seed uint64, opts ...EngineOption) *Engine {
	t.Helper()
	clock := time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)
	base := []EngineOption{
		WithSeed(seed),
		WithLogger(testLogger(t)),
		WithClock(func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		}),
	}
	return New(append(base, opts...)...)
}

// scriptedRand returns the given values in order and 0.5 (or 0 for IntN) once they run out.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}
