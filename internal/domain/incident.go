package domain

import (
	"fmt"
	"time"
)

const (
	IncidentTypeRaceStart  IncidentType = "RACE_START"
	IncidentTypeFastestLap IncidentType = "FASTEST_LAP"
	IncidentTypePitStop    IncidentType = "PIT_STOP"
	IncidentTypeOvertake   IncidentType = "OVERTAKE"
	IncidentTypeSafetyCar  IncidentType = "SAFETY_CAR"
	IncidentTypeYellowFlag IncidentType = "YELLOW_FLAG"
	IncidentTypeOffTrack   IncidentType = "OFF_TRACK"
	IncidentTypeDamage     IncidentType = "INCIDENT"
	IncidentTypeRaceFinish IncidentType = "RACE_FINISH"
	IncidentTypePodium     IncidentType = "PODIUM"
)

// IncidentType categorizes race control messages emitted by the simulation.
type IncidentType string

// IncidentTypes lists every valid incident type.
var IncidentTypes = []IncidentType{
	IncidentTypeRaceStart,
	IncidentTypeFastestLap,
	IncidentTypePitStop,
	IncidentTypeOvertake,
	IncidentTypeSafetyCar,
	IncidentTypeYellowFlag,
	IncidentTypeOffTrack,
	IncidentTypeDamage,
	IncidentTypeRaceFinish,
	IncidentTypePodium,
}

func (t IncidentType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known incident types.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentTypeRaceStart, IncidentTypeFastestLap, IncidentTypePitStop, IncidentTypeOvertake,
		IncidentTypeSafetyCar, IncidentTypeYellowFlag, IncidentTypeOffTrack, IncidentTypeDamage,
		IncidentTypeRaceFinish, IncidentTypePodium:
		return true
	}
	return false
}

// Title is the short heading shown on the race control banner.
func (t IncidentType) Title() string {
	switch t {
	case IncidentTypeRaceStart:
		return "LIGHTS\nOUT"
	case IncidentTypeFastestLap:
		return "FASTEST\nLAP"
	case IncidentTypePitStop:
		return "PIT\nSTOP"
	case IncidentTypeOvertake:
		return "OVERTAKE"
	case IncidentTypeSafetyCar:
		return "SAFETY\nCAR"
	case IncidentTypeYellowFlag:
		return "YELLOW\nFLAG"
	case IncidentTypeOffTrack:
		return "OFF\nTRACK"
	case IncidentTypeDamage:
		return "INCIDENT"
	case IncidentTypeRaceFinish:
		return "CHEQUERED\nFLAG"
	case IncidentTypePodium:
		return "PODIUM"
	}
	return "RACE\nCONTROL"
}

func (t IncidentType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid incident type %q", string(t))
	}
	return []byte(t), nil
}

func (t *IncidentType) UnmarshalText(b []byte) error {
	v := IncidentType(b)
	if !v.Valid() {
		return fmt.Errorf("invalid incident type %q", string(b))
	}
	*t = v
	return nil
}

// Incident is a race control message. Incidents are never modified after they are appended to the
// race state.
type Incident struct {
	Lap          int
	Sector       int // Sector is 1..3, or 0 when the incident is not tied to a sector
	Timestamp    time.Time
	Type         IncidentType
	Description  string
	DriverNumber string // DriverNumber is empty for race-wide incidents
}
