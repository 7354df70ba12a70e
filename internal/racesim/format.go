package racesim

import (
	"fmt"
	"math"
)

// FormatLapTime renders seconds the way timing screens do, e.g. 74.25 -> "1:14.250".
func FormatLapTime(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	ms := int64(math.Round(seconds * 1000))
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// FormatGap renders a time gap, e.g. 1.5 -> "+1.500".
func FormatGap(seconds float64) string {
	return fmt.Sprintf("+%.3f", seconds)
}

// FormatLapsDown renders a gap expressed in whole laps, e.g. "+1 lap" or "+3 laps".
func FormatLapsDown(laps int) string {
	if laps == 1 {
		return "+1 lap"
	}
	return fmt.Sprintf("+%d laps", laps)
}
