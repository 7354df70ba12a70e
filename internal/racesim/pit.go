package racesim

import (
	"fmt"

	"github.com/bcdxn/f1sim/internal/domain"
)

const (
	firstPitLap     = 5    // no driver pits before this lap
	basePitStopTime = 22.0 // basePitStopTime is the time lost in the pit lane in seconds
)

// PitProbability returns the chance that a driver stops at the end of the given lap.
func PitProbability(d domain.Driver, lap, totalLaps int, safetyCar bool) float64 {
	if lap < firstPitLap {
		return 0
	}

	p := 0.0
	switch {
	case d.TireWear > 90:
		p = 0.95
	case d.TireWear > 75:
		p = 0.7
	case d.TireWear > 60:
		p = 0.3
	case d.TireWear > 45:
		p = 0.1
	}
	if safetyCar {
		p += 0.3
	}
	remaining := totalLaps - lap
	if float64(remaining) < 0.3*float64(totalLaps) && d.PitStops == 0 {
		p += 0.2
	}
	return p
}

// DefaultPitDecider draws against PitProbability for the lap the driver is about to complete.
func DefaultPitDecider(r Rand, d domain.Driver, race domain.RaceState) bool {
	p := PitProbability(d, d.CurrentLap+1, race.TotalLaps, race.SafetyCarActive)
	if p <= 0 {
		return false
	}
	return chance(r, p)
}

type compoundWeight struct {
	compound domain.TireCompound
	weight   float64
}

// ChooseCompound picks the tire fitted during a stop. Late in the race softs are preferred, in the
// middle of the race mediums, and early on the harder compounds.
func ChooseCompound(r Rand, lapsRemaining int) domain.TireCompound {
	var weights []compoundWeight
	switch {
	case lapsRemaining < 20:
		weights = []compoundWeight{
			{domain.TireCompoundSoft, 0.6},
			{domain.TireCompoundMedium, 0.3},
			{domain.TireCompoundHard, 0.1},
		}
	case lapsRemaining < 45:
		weights = []compoundWeight{
			{domain.TireCompoundSoft, 0.2},
			{domain.TireCompoundMedium, 0.5},
			{domain.TireCompoundHard, 0.3},
		}
	default:
		weights = []compoundWeight{
			{domain.TireCompoundSoft, 0.1},
			{domain.TireCompoundMedium, 0.4},
			{domain.TireCompoundHard, 0.5},
		}
	}

	draw := r.Float64()
	cumulative := 0.0
	for _, w := range weights {
		cumulative += w.weight
		if draw < cumulative {
			return w.compound
		}
	}
	return weights[len(weights)-1].compound
}

// executePitStop fits a new set of tires and returns the time lost in the pit lane.
func (e *Engine) executePitStop(race *domain.RaceState, d *domain.Driver) float64 {
	stopTime := basePitStopTime + uniform(e.rng, -0.5, 2.5)
	lapsRemaining := race.TotalLaps - (d.CurrentLap + 1)

	d.PitStops++
	d.PitStopTotalTime += stopTime
	d.TireCompound = ChooseCompound(e.rng, lapsRemaining)
	d.TireAge = 0
	d.TireWear = 0

	e.addIncident(race, domain.SectorCount, domain.IncidentTypePitStop, d.Number,
		fmt.Sprintf("%s pits for %s tires (%.1fs)", d.Name, d.TireCompound, stopTime))
	return stopTime
}
