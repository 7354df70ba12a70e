package domain

import (
	"slices"
	"time"
)

const (
	MonacoRaceName  = "Monaco Grand Prix"
	MonacoLocation  = "Monte Carlo, Monaco"
	MonacoTotalLaps = 78
)

// NewRaceState returns an empty, not yet started race with fields initialized to allow safe access.
func NewRaceState(sessionID string) RaceState {
	return RaceState{
		SessionID:  sessionID,
		RaceName:   MonacoRaceName,
		Location:   MonacoLocation,
		TotalLaps:  MonacoTotalLaps,
		Drivers:    make([]Driver, 0, 20),
		LapHistory: make([]LapRecord, 0, MonacoTotalLaps+1),
		Incidents:  make([]Incident, 0),
	}
}

// RaceState is the complete snapshot of a simulated race. Drivers are kept in race order.
type RaceState struct {
	SessionID         string
	RaceName          string
	Location          string
	CurrentLap        int // CurrentLap is 0 before the start and the lap being raced afterwards
	TotalLaps         int
	Started           bool
	Finished          bool
	SafetyCarActive   bool
	YellowFlagSectors [SectorCount]bool // indexed by sector 0..2
	Drivers           []Driver
	LapHistory        []LapRecord
	Incidents         []Incident
	UpdatedAt         time.Time
}

// LapRecord is the audit entry appended after each lap. Lap 0 is the formation lap.
type LapRecord struct {
	Lap               int
	StartedAt         time.Time
	CompletedAt       time.Time
	SafetyCarActive   bool
	YellowFlagSectors []int    // 1-indexed sectors that carried a yellow flag during the lap
	Positions         []string // driver numbers in race order at the end of the lap
}

// Clone returns a deep copy of the race state so a transition can be computed without touching
// the original.
func (r RaceState) Clone() RaceState {
	c := r
	c.Drivers = slices.Clone(r.Drivers)
	c.Incidents = slices.Clone(r.Incidents)
	c.LapHistory = make([]LapRecord, len(r.LapHistory), cap(r.LapHistory))
	for i, lr := range r.LapHistory {
		lr.YellowFlagSectors = slices.Clone(lr.YellowFlagSectors)
		lr.Positions = slices.Clone(lr.Positions)
		c.LapHistory[i] = lr
	}
	return c
}

// ActiveYellowSectors returns the 1-indexed sectors currently under a yellow flag.
func (r RaceState) ActiveYellowSectors() []int {
	sectors := make([]int, 0, SectorCount)
	for i, yellow := range r.YellowFlagSectors {
		if yellow {
			sectors = append(sectors, i+1)
		}
	}
	return sectors
}

// Driver returns the driver with the given racing number.
func (r RaceState) Driver(number string) (Driver, bool) {
	for _, d := range r.Drivers {
		if d.Number == number {
			return d, true
		}
	}
	return Driver{}, false
}

// Running returns the number of drivers still classified as racing.
func (r RaceState) Running() int {
	n := 0
	for _, d := range r.Drivers {
		if !d.DNF {
			n++
		}
	}
	return n
}
