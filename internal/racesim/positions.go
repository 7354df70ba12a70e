package racesim

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bcdxn/f1sim/internal/domain"
)

// RecomputePositions returns a copy of the race with the running order, gaps and statuses
// recalculated from the drivers' lap counts and last lap times.
func (e *Engine) RecomputePositions(race domain.RaceState) domain.RaceState {
	r := race.Clone()
	e.recomputePositions(&r)
	return r
}

// compareRaceOrder orders retired drivers last, then by laps completed, then by last lap time and
// finally by the previous position. Race order is not derived from accumulated race time.
func compareRaceOrder(a, b domain.Driver) int {
	if a.DNF != b.DNF {
		if a.DNF {
			return 1
		}
		return -1
	}
	if !a.DNF {
		if c := cmp.Compare(b.CurrentLap, a.CurrentLap); c != 0 {
			return c
		}
		if c := cmp.Compare(lapTimeKey(a), lapTimeKey(b)); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Position, b.Position)
}

// lapTimeKey sorts drivers without a completed lap behind those with one.
func lapTimeKey(d domain.Driver) float64 {
	if d.LastLapSeconds <= 0 {
		return 1e9
	}
	return d.LastLapSeconds
}

func (e *Engine) recomputePositions(race *domain.RaceState) {
	slices.SortStableFunc(race.Drivers, compareRaceOrder)

	for i := range race.Drivers {
		d := &race.Drivers[i]
		prev, next := d.Position, i+1
		switch {
		case next < prev:
			d.PositionsGained += prev - next
			if !d.DNF && chance(e.rng, 0.3) {
				e.addIncident(race, 0, domain.IncidentTypeOvertake, d.Number, overtakeDescription(race.Drivers, i))
			}
		case next > prev:
			d.PositionsLost += next - prev
		}
		d.Position = next
	}

	e.computeGaps(race)
	for i := range race.Drivers {
		race.Drivers[i].Status = driverStatus(race.Drivers[i], *race)
	}
}

func overtakeDescription(drivers []domain.Driver, i int) string {
	d := drivers[i]
	if i+1 < len(drivers) && !drivers[i+1].DNF {
		return fmt.Sprintf("%s overtakes %s for P%d", d.Name, drivers[i+1].Name, i+1)
	}
	return fmt.Sprintf("%s moves up to P%d", d.Name, i+1)
}

// computeGaps fills in the gap to the leader and the interval to the car ahead. Drivers on the
// same lap are separated by a synthetic offset proportional to their position difference.
func (e *Engine) computeGaps(race *domain.RaceState) {
	if len(race.Drivers) == 0 {
		return
	}
	leader := race.Drivers[0]
	for i := range race.Drivers {
		d := &race.Drivers[i]
		switch {
		case d.DNF:
			d.GapToLeader = "DNF"
			d.Interval = "DNF"
		case i == 0:
			d.GapToLeader = ""
			d.Interval = ""
		default:
			ahead := race.Drivers[i-1]
			if d.CurrentLap == leader.CurrentLap {
				d.GapToLeader = FormatGap(float64(d.Position-1) * uniform(e.rng, 0.8, 1.2))
			} else {
				d.GapToLeader = FormatLapsDown(leader.CurrentLap - d.CurrentLap)
			}
			if d.CurrentLap == ahead.CurrentLap {
				d.Interval = FormatGap(float64(d.Position-ahead.Position) * uniform(e.rng, 0.8, 1.2))
			} else {
				d.Interval = FormatLapsDown(ahead.CurrentLap - d.CurrentLap)
			}
		}
	}
}

// driverStatus picks the status shown on the timing board, highest priority first.
func driverStatus(d domain.Driver, race domain.RaceState) domain.DriverStatus {
	switch {
	case d.DNF:
		return domain.DriverStatusDNF
	case d.PitThisLap:
		return domain.DriverStatusPit
	case race.SafetyCarActive:
		return domain.DriverStatusSafetyCar
	case len(race.ActiveYellowSectors()) > 0:
		return domain.DriverStatusYellowFlag
	}
	return domain.DriverStatusRacing
}
