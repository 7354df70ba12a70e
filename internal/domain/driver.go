package domain

import (
	"fmt"
	"slices"
	"strings"
)

const (
	TireCompoundSoft   TireCompound = "SOFT"
	TireCompoundMedium TireCompound = "MEDIUM"
	TireCompoundHard   TireCompound = "HARD"
)

const (
	DriverStatusRacing     DriverStatus = "Racing"
	DriverStatusDNF        DriverStatus = "DNF"
	DriverStatusPit        DriverStatus = "PIT"
	DriverStatusSafetyCar  DriverStatus = "SC"
	DriverStatusYellowFlag DriverStatus = "YEL"
)

// SectorCount is the number of timing sectors a lap is divided into.
const SectorCount = 3

// TireCompound represents one of the dry tire compounds available during the race.
type TireCompound string

// TireCompounds lists every valid compound, softest first.
var TireCompounds = []TireCompound{TireCompoundSoft, TireCompoundMedium, TireCompoundHard}

func (t TireCompound) String() string {
	return string(t)
}

// Valid reports whether t is one of the known compounds.
func (t TireCompound) Valid() bool {
	return slices.Contains(TireCompounds, t)
}

func (t TireCompound) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tire compound %q", string(t))
	}
	return []byte(t), nil
}

func (t *TireCompound) UnmarshalText(b []byte) error {
	c := TireCompound(strings.ToUpper(string(b)))
	if !c.Valid() {
		return fmt.Errorf("invalid tire compound %q", string(b))
	}
	*t = c
	return nil
}

// DriverStatus is the single status shown next to a driver on the timing board.
type DriverStatus string

func (s DriverStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusRacing, DriverStatusDNF, DriverStatusPit, DriverStatusSafetyCar, DriverStatusYellowFlag:
		return true
	}
	return false
}

func (s DriverStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid driver status %q", string(s))
	}
	return []byte(s), nil
}

func (s *DriverStatus) UnmarshalText(b []byte) error {
	v := DriverStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid driver status %q", string(b))
	}
	*s = v
	return nil
}

// NewDriver returns a new instance of a driver as modeled per the domain with fields initialized
// to a car sitting on the grid with a full tank.
func NewDriver(number, name, team string, gridPosition int) Driver {
	return Driver{
		Number:       number,
		Name:         name,
		Team:         team,
		GridPosition: gridPosition,
		Position:     gridPosition,
		TireCompound: TireCompoundMedium,
		FuelLoad:     100,
		SkillFactor:  1,
		Status:       DriverStatusRacing,
	}
}

// Driver domain model represents intrinsic data about a driver as well as the simulated timing,
// strategy and car state that is updated every lap.
type Driver struct {
	// Intrinsic Data
	Number       string // Number is the unique driver racing number present on their car
	Name         string // Name is the full name of the driver
	Team         string // Team is the short name of the team that the driver races for
	GridPosition int    // GridPosition is the starting slot, pole position is 1
	// Race progress
	Position      int // Position is the driver's position on the timing board
	CurrentLap    int // CurrentLap is the number of laps the driver has completed
	CurrentSector int // CurrentSector is 0 between laps and 1..3 while a lap is being simulated
	// Timing data, in seconds; a zero sector time means the sector has not been completed yet
	SectorTimes    [SectorCount]float64
	QualifyingTime float64
	LastLapSeconds float64
	BestLapSeconds float64
	LastLapTime    string // LastLapTime is the formatted time of the last completed lap
	BestLapTime    string // BestLapTime is the formatted time of the fastest completed lap
	GapToLeader    string // GapToLeader is the delta between the driver and the lead driver
	Interval       string // Interval is the delta between the driver and the driver ahead
	// Stint data
	TireCompound     TireCompound
	TireAge          int     // TireAge is the number of laps completed on the current set
	TireWear         float64 // TireWear grows from 0 and may exceed 100 on a worn set
	FuelLoad         float64 // FuelLoad is the remaining fuel in percent
	PitStops         int
	PitStopTotalTime float64 // PitStopTotalTime is the accumulated time lost in the pits
	PitThisLap       bool    // PitThisLap is set for the lap in which the driver stops
	OutLap           bool    // OutLap is set for the lap following a pit stop
	// Outcome
	DNF             bool // DNF is terminal; the driver is no longer simulated
	PositionsGained int
	PositionsLost   int
	Status          DriverStatus
	// Modifiers
	SkillFactor float64 // SkillFactor is fixed at the start and may be degraded by damage
	Telemetry   Telemetry
}

// Telemetry is the most recent car data sample taken at the end of a simulated sector.
type Telemetry struct {
	Speed    int // Speed in km/h
	RPM      int
	Gear     int
	Throttle int // Throttle application in percent
	Brake    int // Brake application in percent
}

// ShortName returns the broadcast-style three letter abbreviation of the driver's last name.
func (d Driver) ShortName() string {
	parts := strings.Fields(d.Name)
	if len(parts) == 0 {
		return d.Number
	}
	last := strings.ToUpper(parts[len(parts)-1])
	if len(last) > 3 {
		return last[:3]
	}
	return last
}
