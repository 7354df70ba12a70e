package racesim

import (
	"fmt"

	"github.com/bcdxn/f1sim/internal/domain"
)

const (
	safetyCarEndChance    = 0.3
	baseIncidentChance    = 0.05
	lateRaceIncidentBoost = 0.10
	majorIncidentBelow    = 0.03
	mediumIncidentBelow   = 0.10
	minorIncidentBelow    = 0.20
	crashSafetyCarChance  = 0.3
	damageSkillPenalty    = 0.95
)

// IncidentChance returns the probability that something happens on track during the given lap.
func IncidentChance(lap, totalLaps int) float64 {
	return baseIncidentChance + float64(lap)/float64(totalLaps)*lateRaceIncidentBoost
}

// preLap runs before any driver is simulated for the lap: a deployed safety car may come in,
// otherwise a new incident may occur.
func (e *Engine) preLap(race *domain.RaceState) {
	if race.SafetyCarActive {
		if chance(e.rng, safetyCarEndChance) {
			race.SafetyCarActive = false
			e.addIncident(race, 0, domain.IncidentTypeSafetyCar, "",
				"Safety car in this lap, racing resumes")
		}
		return
	}

	if !chance(e.rng, IncidentChance(race.CurrentLap, race.TotalLaps)) {
		return
	}

	running := make([]int, 0, len(race.Drivers))
	for i, d := range race.Drivers {
		if !d.DNF {
			running = append(running, i)
		}
	}
	if len(running) == 0 {
		return
	}
	d := &race.Drivers[running[e.rng.IntN(len(running))]]
	sector := e.rng.IntN(domain.SectorCount) + 1

	severity := e.rng.Float64()
	switch {
	case severity < majorIncidentBelow:
		d.DNF = true
		d.Status = domain.DriverStatusDNF
		d.CurrentSector = 0
		race.YellowFlagSectors[sector-1] = true
		if chance(e.rng, crashSafetyCarChance) {
			race.SafetyCarActive = true
			e.addIncident(race, sector, domain.IncidentTypeSafetyCar, d.Number,
				fmt.Sprintf("%s crashes out in sector %d, safety car deployed", d.Name, sector))
		} else {
			e.addIncident(race, sector, domain.IncidentTypeYellowFlag, d.Number,
				fmt.Sprintf("%s crashes out in sector %d, yellow flag", d.Name, sector))
		}
	case severity < mediumIncidentBelow:
		d.SkillFactor *= damageSkillPenalty
		e.addIncident(race, sector, domain.IncidentTypeDamage, d.Number,
			fmt.Sprintf("%s makes contact in sector %d and damages the car", d.Name, sector))
	case severity < minorIncidentBelow:
		e.addIncident(race, sector, domain.IncidentTypeOffTrack, d.Number,
			fmt.Sprintf("%s runs wide in sector %d", d.Name, sector))
	}
}
