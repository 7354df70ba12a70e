package racesim

import (
	"fmt"
	"math"

	"github.com/bcdxn/f1sim/internal/domain"
)

// sectorSpec describes one of the three timing sectors of the circuit.
type sectorSpec struct {
	LengthKm float64
	BaseTime float64 // BaseTime is the reference sector time in seconds
	TopSpeed float64 // TopSpeed in km/h reached on the fastest part of the sector
	MinSpeed float64 // MinSpeed in km/h through the slowest corner of the sector
	Corners  float64 // Corners is the number of braking zones used by the telemetry heuristic
}

var sectors = [domain.SectorCount]sectorSpec{
	{LengthKm: 1.15, BaseTime: 24.5, TopSpeed: 275, MinSpeed: 95, Corners: 3},
	{LengthKm: 1.20, BaseTime: 28.3, TopSpeed: 290, MinSpeed: 50, Corners: 4},
	{LengthKm: 0.99, BaseTime: 25.7, TopSpeed: 260, MinSpeed: 80, Corners: 5},
}

const (
	minSectorTimeRatio = 0.94 // no sector is ever faster than this fraction of its base time
	safetyCarMaxSpeed  = 160
)

// SectorInput carries everything the sector time model depends on.
type SectorInput struct {
	Sector      int // Sector is the 0-based sector index
	FuelLoad    float64
	TireWear    float64
	Compound    domain.TireCompound
	SkillFactor float64
	YellowFlag  bool
	SafetyCar   bool
	OutLap      bool // OutLap marks the first sector after a pit stop
	FirstLap    bool // FirstLap marks a sector of lap 1 for a driver not pitting that lap
}

// SectorTime returns the simulated time in seconds for a single sector.
func SectorTime(r Rand, in SectorInput) float64 {
	base := sectors[in.Sector].BaseTime

	fuel := (100 - in.FuelLoad) * 0.005
	wear := in.TireWear * 0.01
	skill := (in.SkillFactor - 1) * -5
	random := uniform(r, -0.15, 0.15)

	special := 0.0
	if in.YellowFlag {
		special += uniform(r, 0.5, 2.0)
	}
	if in.SafetyCar {
		special += uniform(r, 5, 8)
	}
	if chance(r, 0.2) {
		special -= 0.1 // pushing
	}
	if in.OutLap {
		special += 1.5
	}
	if in.FirstLap {
		special += 0.8
	}

	t := base - fuel + wear + compoundDelta(in.Compound) + skill + random + special
	return math.Max(t, base*minSectorTimeRatio)
}

func compoundDelta(c domain.TireCompound) float64 {
	switch c {
	case domain.TireCompoundSoft:
		return -0.2
	case domain.TireCompoundHard:
		return 0.3
	case domain.TireCompoundMedium:
		return 0
	}
	return 0
}

// wearIncrement returns the tire wear added by one lap on the given compound.
func wearIncrement(r Rand, c domain.TireCompound) float64 {
	switch c {
	case domain.TireCompoundSoft:
		return uniform(r, 1.8, 2.6)
	case domain.TireCompoundMedium:
		return uniform(r, 1.2, 1.8)
	case domain.TireCompoundHard:
		return uniform(r, 0.7, 1.2)
	}
	return uniform(r, 1.2, 1.8)
}

// Step simulates one lap and returns the resulting race. The given race is not modified. Stepping
// a race that is finished, or was never initialized, returns it unchanged.
func (e *Engine) Step(prev domain.RaceState) domain.RaceState {
	if prev.Finished || !prev.Started {
		return prev
	}
	race := prev.Clone()
	startedAt := e.now()

	race.YellowFlagSectors = [domain.SectorCount]bool{}
	e.preLap(&race)

	for i := range race.Drivers {
		if race.Drivers[i].DNF {
			continue
		}
		e.simulateDriverLap(&race, &race.Drivers[i])
	}

	e.recomputePositions(&race)

	positions := make([]string, len(race.Drivers))
	for i, d := range race.Drivers {
		positions[i] = d.Number
	}
	race.LapHistory = append(race.LapHistory, domain.LapRecord{
		Lap:               race.CurrentLap,
		StartedAt:         startedAt,
		CompletedAt:       e.now(),
		SafetyCarActive:   race.SafetyCarActive,
		YellowFlagSectors: race.ActiveYellowSectors(),
		Positions:         positions,
	})

	race.CurrentLap++
	if race.CurrentLap > race.TotalLaps {
		e.finish(&race)
	}
	race.UpdatedAt = e.now()
	return race
}

// StepN simulates up to n laps, stopping early once the race is finished.
func (e *Engine) StepN(race domain.RaceState, n int) domain.RaceState {
	for i := 0; i < n && !race.Finished; i++ {
		race = e.Step(race)
	}
	return race
}

// simulateDriverLap runs a single driver through the three sectors of the current lap.
func (e *Engine) simulateDriverLap(race *domain.RaceState, d *domain.Driver) {
	d.OutLap = d.PitThisLap
	d.PitThisLap = e.pitDecider(e.rng, *d, *race)
	d.SectorTimes = [domain.SectorCount]float64{}

	pitted := false
	lapTotal := 0.0
	for s := 0; s < domain.SectorCount; s++ {
		d.CurrentSector = s + 1
		t := SectorTime(e.rng, SectorInput{
			Sector:      s,
			FuelLoad:    d.FuelLoad,
			TireWear:    d.TireWear,
			Compound:    d.TireCompound,
			SkillFactor: d.SkillFactor,
			YellowFlag:  race.YellowFlagSectors[s],
			SafetyCar:   race.SafetyCarActive,
			OutLap:      d.OutLap && s == 0,
			FirstLap:    race.CurrentLap == 1 && !d.PitThisLap,
		})
		d.SectorTimes[s] = t
		lapTotal += t
		d.Telemetry = sampleTelemetry(e.rng, s, race.SafetyCarActive)

		if d.PitThisLap && s == domain.SectorCount-1 {
			lapTotal += e.executePitStop(race, d)
			pitted = true
		}
	}
	d.CurrentSector = 0

	d.LastLapSeconds = lapTotal
	d.LastLapTime = FormatLapTime(lapTotal)
	if d.BestLapSeconds == 0 || lapTotal < d.BestLapSeconds {
		d.BestLapSeconds = lapTotal
		d.BestLapTime = d.LastLapTime
		if chance(e.rng, 0.1) {
			e.addIncident(race, 0, domain.IncidentTypeFastestLap, d.Number,
				fmt.Sprintf("%s sets a personal best lap of %s", d.Name, d.BestLapTime))
		}
	}

	d.FuelLoad = math.Max(0, d.FuelLoad-100/float64(race.TotalLaps))
	if !pitted {
		d.TireAge++
		d.TireWear += wearIncrement(e.rng, d.TireCompound)
	}
	d.CurrentLap++
}

// sampleTelemetry produces a plausible car data sample somewhere inside the given sector. Monaco
// alternates short bursts of acceleration with slow corners, which is modeled as a cosine wave
// between the minimum and top speed of the sector.
func sampleTelemetry(r Rand, sector int, safetyCar bool) domain.Telemetry {
	spec := sectors[sector]
	progress := r.Float64()
	openness := 0.5 + 0.5*math.Cos(progress*2*math.Pi*spec.Corners)

	speed := spec.MinSpeed + (spec.TopSpeed-spec.MinSpeed)*openness + uniform(r, -5, 5)
	if safetyCar {
		speed = math.Min(speed, safetyCarMaxSpeed)
	}
	speed = math.Max(speed, 40)

	gear := gearForSpeed(speed)
	throttle := int(math.Round(openness * 100))
	brake := 0
	if throttle < 30 {
		brake = int(math.Round((1 - openness) * 100))
	}
	return domain.Telemetry{
		Speed:    int(math.Round(speed)),
		RPM:      rpmFor(speed, gear),
		Gear:     gear,
		Throttle: throttle,
		Brake:    brake,
	}
}

// gearBands holds the upper speed limit in km/h of gears 1 through 7; 8th gear is above.
var gearBands = []float64{85, 120, 155, 190, 225, 255, 280}

func gearForSpeed(speed float64) int {
	for i, limit := range gearBands {
		if speed < limit {
			return i + 1
		}
	}
	return len(gearBands) + 1
}

func rpmFor(speed float64, gear int) int {
	lower := 0.0
	if gear > 1 {
		lower = gearBands[gear-2]
	}
	upper := 320.0
	if gear <= len(gearBands) {
		upper = gearBands[gear-1]
	}
	ratio := (speed - lower) / (upper - lower)
	rpm := 8000 + ratio*4500
	return int(math.Round(math.Min(math.Max(rpm, 8000), 12500)))
}

// finish closes the race after the last lap and announces the result.
func (e *Engine) finish(race *domain.RaceState) {
	race.Finished = true
	race.CurrentLap = race.TotalLaps + 1

	podium := make([]domain.Driver, 0, 3)
	for _, d := range race.Drivers {
		if !d.DNF && len(podium) < 3 {
			podium = append(podium, d)
		}
	}

	winner := "nobody"
	if len(podium) > 0 {
		winner = podium[0].Name
	}
	e.addIncident(race, 0, domain.IncidentTypeRaceFinish, "",
		fmt.Sprintf("Chequered flag! %s wins the %s", winner, race.RaceName))

	desc := "Podium:"
	for i, d := range podium {
		desc += fmt.Sprintf(" P%d %s (%s)", i+1, d.Name, d.Team)
		if i < len(podium)-1 {
			desc += ","
		}
	}
	e.addIncident(race, 0, domain.IncidentTypePodium, "", desc)
	e.logger.Info("race finished", "session", race.SessionID, "winner", winner, "classified", race.Running())
}
