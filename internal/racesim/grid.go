package racesim

import (
	"fmt"

	"github.com/bcdxn/f1sim/internal/domain"
)

const (
	poleTime       = 72.25 // poleTime is the qualifying lap time of the pole sitter in seconds
	gridStepTime   = 0.15  // gridStepTime is the qualifying gap between consecutive grid slots
	minSkillFactor = 0.95
	maxSkillFactor = 1.05
)

type gridEntry struct {
	number string
	name   string
	team   string
}

// monacoGrid is the starting order of the race, pole position first.
var monacoGrid = []gridEntry{
	{"16", "Charles Leclerc", "Ferrari"},
	{"81", "Oscar Piastri", "McLaren"},
	{"55", "Carlos Sainz", "Ferrari"},
	{"4", "Lando Norris", "McLaren"},
	{"63", "George Russell", "Mercedes"},
	{"1", "Max Verstappen", "Red Bull Racing"},
	{"44", "Lewis Hamilton", "Mercedes"},
	{"22", "Yuki Tsunoda", "RB"},
	{"23", "Alexander Albon", "Williams"},
	{"10", "Pierre Gasly", "Alpine"},
	{"31", "Esteban Ocon", "Alpine"},
	{"27", "Nico Hulkenberg", "Haas F1 Team"},
	{"3", "Daniel Ricciardo", "RB"},
	{"77", "Valtteri Bottas", "Kick Sauber"},
	{"18", "Lance Stroll", "Aston Martin"},
	{"2", "Logan Sargeant", "Williams"},
	{"14", "Fernando Alonso", "Aston Martin"},
	{"24", "Zhou Guanyu", "Kick Sauber"},
	{"11", "Sergio Perez", "Red Bull Racing"},
	{"20", "Kevin Magnussen", "Haas F1 Team"},
}

// Initialize builds a fresh race from the fixed starting grid. The returned race has a new
// session id, is started and waits for lap 1 to be simulated.
func (e *Engine) Initialize() domain.RaceState {
	race := domain.NewRaceState(e.newID())
	now := e.now()

	positions := make([]string, 0, len(monacoGrid))
	for i, entry := range monacoGrid {
		gridPos := i + 1
		d := domain.NewDriver(entry.number, entry.name, entry.team, gridPos)
		d.QualifyingTime = poleTime + float64(i)*gridStepTime + uniform(e.rng, -0.05, 0.05)
		if chance(e.rng, 0.5) {
			d.TireCompound = domain.TireCompoundSoft
		} else {
			d.TireCompound = domain.TireCompoundMedium
		}
		d.SkillFactor = uniform(e.rng, minSkillFactor, maxSkillFactor)
		race.Drivers = append(race.Drivers, d)
		positions = append(positions, d.Number)
	}

	race.LapHistory = append(race.LapHistory, domain.LapRecord{
		Lap:               0,
		StartedAt:         now,
		CompletedAt:       now,
		YellowFlagSectors: []int{},
		Positions:         positions,
	})
	race.Started = true
	race.CurrentLap = 1
	e.addIncident(&race, 0, domain.IncidentTypeRaceStart, "",
		fmt.Sprintf("Lights out and away we go at the %s! %s leads from pole.", race.RaceName, race.Drivers[0].Name))
	race.UpdatedAt = now

	e.logger.Debug("race initialized", "session", race.SessionID, "drivers", len(race.Drivers))
	return race
}
