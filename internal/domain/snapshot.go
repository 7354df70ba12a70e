package domain

import (
	"math"
	"time"
)

// SnapshotIncidentLimit is the number of most recent incidents included in a snapshot.
const SnapshotIncidentLimit = 10

// Snapshot is the public view of a race as returned to API consumers.
type Snapshot struct {
	SessionID             string             `json:"sessionId"`
	RaceName              string             `json:"raceName"`
	Location              string             `json:"location"`
	CurrentLap            int                `json:"currentLap"`
	TotalLaps             int                `json:"totalLaps"`
	RaceCompletionPercent float64            `json:"raceCompletionPercent"`
	Started               bool               `json:"started"`
	Finished              bool               `json:"finished"`
	SafetyCarActive       bool               `json:"safetyCarActive"`
	YellowFlagSectors     []int              `json:"yellowFlagSectors"`
	Timestamp             string             `json:"timestamp"`
	Drivers               []DriverSnapshot   `json:"drivers"`
	Incidents             []IncidentSnapshot `json:"incidents"`
	LastUpdate            int64              `json:"lastUpdate"`
}

type DriverSnapshot struct {
	Position         int          `json:"position"`
	Number           string       `json:"number"`
	ShortName        string       `json:"shortName"`
	Name             string       `json:"name"`
	Team             string       `json:"team"`
	CurrentLap       int          `json:"currentLap"`
	CurrentSector    int          `json:"currentSector"`
	Sector1Time      *float64     `json:"sector1Time"`
	Sector2Time      *float64     `json:"sector2Time"`
	Sector3Time      *float64     `json:"sector3Time"`
	LastLapTime      string       `json:"lastLapTime"`
	BestLapTime      string       `json:"bestLapTime"`
	GapToLeader      string       `json:"gapToLeader"`
	Interval         string       `json:"interval"`
	TireCompound     TireCompound `json:"tireCompound"`
	TireAge          int          `json:"tireAge"`
	TireWear         float64      `json:"tireWear"`
	FuelLoad         float64      `json:"fuelLoad"`
	PitStops         int          `json:"pitStops"`
	PitStopTotalTime float64      `json:"pitStopTotalTime"`
	DNF              bool         `json:"dnf"`
	PositionsGained  int          `json:"positionsGained"`
	PositionsLost    int          `json:"positionsLost"`
	Status           DriverStatus `json:"status"`
	Speed            int          `json:"speed"`
	RPM              int          `json:"rpm"`
	Gear             int          `json:"gear"`
	Throttle         int          `json:"throttle"`
	Brake            int          `json:"brake"`
}

type IncidentSnapshot struct {
	Lap          int          `json:"lap"`
	Sector       int          `json:"sector"`
	Timestamp    time.Time    `json:"timestamp"`
	Type         IncidentType `json:"type"`
	Description  string       `json:"description"`
	DriverNumber string       `json:"driverNumber,omitempty"`
}

// NewSnapshot converts the race state to its public view. The reported lap never exceeds the
// race distance even though a finished race has moved past its last lap.
func NewSnapshot(r RaceState, now time.Time) Snapshot {
	lap := min(r.CurrentLap, r.TotalLaps)
	completed := 0.0
	if r.TotalLaps > 0 {
		done := min(max(r.CurrentLap-1, 0), r.TotalLaps)
		completed = round(float64(done)/float64(r.TotalLaps)*100, 1)
	}

	s := Snapshot{
		SessionID:             r.SessionID,
		RaceName:              r.RaceName,
		Location:              r.Location,
		CurrentLap:            lap,
		TotalLaps:             r.TotalLaps,
		RaceCompletionPercent: completed,
		Started:               r.Started,
		Finished:              r.Finished,
		SafetyCarActive:       r.SafetyCarActive,
		YellowFlagSectors:     r.ActiveYellowSectors(),
		Timestamp:             now.UTC().Format(time.RFC3339Nano),
		Drivers:               make([]DriverSnapshot, 0, len(r.Drivers)),
		Incidents:             make([]IncidentSnapshot, 0, SnapshotIncidentLimit),
		LastUpdate:            r.UpdatedAt.UnixMilli(),
	}

	for _, d := range r.Drivers {
		s.Drivers = append(s.Drivers, DriverSnapshot{
			Position:         d.Position,
			Number:           d.Number,
			ShortName:        d.ShortName(),
			Name:             d.Name,
			Team:             d.Team,
			CurrentLap:       d.CurrentLap,
			CurrentSector:    d.CurrentSector,
			Sector1Time:      sectorTime(d.SectorTimes[0]),
			Sector2Time:      sectorTime(d.SectorTimes[1]),
			Sector3Time:      sectorTime(d.SectorTimes[2]),
			LastLapTime:      d.LastLapTime,
			BestLapTime:      d.BestLapTime,
			GapToLeader:      d.GapToLeader,
			Interval:         d.Interval,
			TireCompound:     d.TireCompound,
			TireAge:          d.TireAge,
			TireWear:         round(d.TireWear, 1),
			FuelLoad:         round(d.FuelLoad, 1),
			PitStops:         d.PitStops,
			PitStopTotalTime: round(d.PitStopTotalTime, 3),
			DNF:              d.DNF,
			PositionsGained:  d.PositionsGained,
			PositionsLost:    d.PositionsLost,
			Status:           d.Status,
			Speed:            d.Telemetry.Speed,
			RPM:              d.Telemetry.RPM,
			Gear:             d.Telemetry.Gear,
			Throttle:         d.Telemetry.Throttle,
			Brake:            d.Telemetry.Brake,
		})
	}

	from := max(len(r.Incidents)-SnapshotIncidentLimit, 0)
	for _, inc := range r.Incidents[from:] {
		s.Incidents = append(s.Incidents, IncidentSnapshot{
			Lap:          inc.Lap,
			Sector:       inc.Sector,
			Timestamp:    inc.Timestamp,
			Type:         inc.Type,
			Description:  inc.Description,
			DriverNumber: inc.DriverNumber,
		})
	}
	return s
}

func sectorTime(t float64) *float64 {
	if t == 0 {
		return nil
	}
	v := round(t, 3)
	return &v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
