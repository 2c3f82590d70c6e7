// Package units provides shared constants and formatting for lap durations
package units

import (
	"fmt"
	"math"
)

// Unit constants
const (
	MS  = "ms"
	SEC = "s"
	MIN = "min"
)

// ValidUnits contains all valid duration unit values
var ValidUnits = []string{MS, SEC, MIN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertDuration converts a duration from milliseconds to the target unit.
// Analysis results store durations in milliseconds.
func ConvertDuration(durationMs float64, targetUnits string) float64 {
	switch targetUnits {
	case SEC:
		return durationMs / 1000.0
	case MIN:
		return durationMs / 60000.0
	case MS:
		return durationMs
	default:
		return durationMs // default to ms if unknown unit
	}
}

// FormatLapTime renders milliseconds as "m:ss.mmm", the conventional lap
// time display. Non-positive input renders as "0:00.000".
func FormatLapTime(durationMs float64) string {
	if durationMs <= 0 || math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		return "0:00.000"
	}
	total := int64(math.Round(durationMs))
	minutes := total / 60000
	seconds := (total % 60000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}
