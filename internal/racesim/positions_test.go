package racesim

import (
	"testing"

	"github.com/bcdxn/f1sim/internal/domain"
)

func TestRecomputePositions(t *testing.T) {
	// every draw returns 0.5: gaps use a factor of exactly 1.0 and no overtake is announced
	e := New(WithRand(&scriptedRand{}), WithLogger(testLogger(t)))

	newDriver := func(number string, pos, lap int, last float64) domain.Driver {
		d := domain.NewDriver(number, "Driver "+number, "Team", pos)
		d.CurrentLap = lap
		d.LastLapSeconds = last
		return d
	}
	retired := newDriver("9", 1, 3, 74.0)
	retired.DNF = true

	race := domain.NewRaceState("test")
	race.Drivers = []domain.Driver{
		retired,
		newDriver("2", 2, 5, 75.0),
		newDriver("1", 3, 5, 74.0),
		newDriver("4", 4, 4, 73.0),
		newDriver("3", 5, 5, 75.0),
	}

	got := e.RecomputePositions(race)

	wantOrder := []string{"1", "2", "3", "4", "9"}
	for i, number := range wantOrder {
		if got.Drivers[i].Number != number {
			t.Errorf("expected driver %s in position %d but found %s", number, i+1, got.Drivers[i].Number)
		}
		if got.Drivers[i].Position != i+1 {
			t.Errorf("expected position %d but found %d", i+1, got.Drivers[i].Position)
		}
	}

	t.Run("FasterLastLapSortsAhead", func(t *testing.T) {
		a, _ := got.Driver("1")
		b, _ := got.Driver("2")
		if a.Position >= b.Position {
			t.Errorf("expected the faster driver ahead but found P%d and P%d", a.Position, b.Position)
		}
	})

	t.Run("TieKeepsPreviousOrder", func(t *testing.T) {
		b, _ := got.Driver("2")
		c, _ := got.Driver("3")
		if b.Position >= c.Position {
			t.Errorf("expected previous order to break the tie but found P%d and P%d", b.Position, c.Position)
		}
	})

	t.Run("PositionDeltas", func(t *testing.T) {
		a, _ := got.Driver("1")
		if a.PositionsGained != 2 || a.PositionsLost != 0 {
			t.Errorf("expected 2 positions gained but found +%d/-%d", a.PositionsGained, a.PositionsLost)
		}
		r, _ := got.Driver("9")
		if r.PositionsLost != 4 {
			t.Errorf("expected 4 positions lost but found %d", r.PositionsLost)
		}
	})

	t.Run("Gaps", func(t *testing.T) {
		want := map[string][2]string{
			"1": {"", ""},
			"2": {"+1.000", "+1.000"},
			"3": {"+2.000", "+1.000"},
			"4": {"+1 lap", "+1 lap"},
			"9": {"DNF", "DNF"},
		}
		for number, w := range want {
			d, _ := got.Driver(number)
			if d.GapToLeader != w[0] {
				t.Errorf("driver %s: expected gap to leader '%s' but found '%s'", number, w[0], d.GapToLeader)
			}
			if d.Interval != w[1] {
				t.Errorf("driver %s: expected interval '%s' but found '%s'", number, w[1], d.Interval)
			}
		}
	})

	t.Run("Statuses", func(t *testing.T) {
		r, _ := got.Driver("9")
		if r.Status != domain.DriverStatusDNF {
			t.Errorf("expected status '%s' but found '%s'", domain.DriverStatusDNF, r.Status)
		}
		a, _ := got.Driver("1")
		if a.Status != domain.DriverStatusRacing {
			t.Errorf("expected status '%s' but found '%s'", domain.DriverStatusRacing, a.Status)
		}
	})

	t.Run("InputUnchanged", func(t *testing.T) {
		if race.Drivers[0].Number != "9" || race.Drivers[0].Position != 1 {
			t.Errorf("expected the input race to keep its order")
		}
	})
}

func TestOvertakeIncidents(t *testing.T) {
	newDriver := func(number string, pos, lap int, last float64) domain.Driver {
		d := domain.NewDriver(number, "Driver "+number, "Team", pos)
		d.CurrentLap = lap
		d.LastLapSeconds = last
		return d
	}
	// a retired car whose stale position is behind the cars it ends up ahead of
	retired := newDriver("9", 9, 3, 74.0)
	retired.DNF = true

	race := domain.NewRaceState("test")
	race.Drivers = []domain.Driver{
		newDriver("2", 1, 5, 75.0),
		newDriver("1", 2, 5, 74.0),
		retired,
	}

	tests := []struct {
		name  string
		draw  float64
		wantN int
	}{
		{"Announced", 0.29, 1},
		{"NotAnnounced", 0.3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithRand(&scriptedRand{floats: []float64{tt.draw}}), WithLogger(testLogger(t)))
			got := e.RecomputePositions(race)

			r, _ := got.Driver("9")
			if r.PositionsGained == 0 {
				t.Fatalf("expected the retired car to be credited with positions")
			}
			overtakes := 0
			for _, inc := range got.Incidents {
				if inc.Type != domain.IncidentTypeOvertake {
					continue
				}
				overtakes++
				if inc.DriverNumber != "1" {
					t.Errorf("expected only driver 1 to be announced but found %s", inc.DriverNumber)
				}
				if inc.Description != "Driver 1 overtakes Driver 2 for P1" {
					t.Errorf("expected description '%s' but found '%s'", "Driver 1 overtakes Driver 2 for P1", inc.Description)
				}
			}
			if overtakes != tt.wantN {
				t.Errorf("expected %d overtake incidents but found %d", tt.wantN, overtakes)
			}
		})
	}

	t.Run("LosersAreNeverAnnounced", func(t *testing.T) {
		// every roll succeeds: only the single gainer that is still running may be announced
		e := New(WithRand(&scriptedRand{floats: []float64{0, 0, 0, 0, 0, 0}}), WithLogger(testLogger(t)))
		got := e.RecomputePositions(race)
		for _, inc := range got.Incidents {
			if inc.Type == domain.IncidentTypeOvertake && inc.DriverNumber != "1" {
				t.Errorf("expected no overtake incident for driver %s", inc.DriverNumber)
			}
		}
	})
}

func TestDriverStatusPriority(t *testing.T) {
	race := domain.NewRaceState("test")
	race.SafetyCarActive = true
	race.YellowFlagSectors[1] = true

	tests := []struct {
		name   string
		driver domain.Driver
		race   domain.RaceState
		want   domain.DriverStatus
	}{
		{"DNF", domain.Driver{DNF: true, PitThisLap: true}, race, domain.DriverStatusDNF},
		{"Pit", domain.Driver{PitThisLap: true}, race, domain.DriverStatusPit},
		{"SafetyCar", domain.Driver{}, race, domain.DriverStatusSafetyCar},
		{"Yellow", domain.Driver{}, domain.RaceState{YellowFlagSectors: [3]bool{false, true, false}}, domain.DriverStatusYellowFlag},
		{"Racing", domain.Driver{}, domain.RaceState{}, domain.DriverStatusRacing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := driverStatus(tt.driver, tt.race); got != tt.want {
				t.Errorf("expected status '%s' but found '%s'", tt.want, got)
			}
		})
	}
}
