// Package laps locates lap boundaries in a telemetry stream given an
// estimated lap period. Three strategies are tried in order: template
// cross-correlation, straight-section detection, and fixed-interval
// slicing. The first strategy that produces at least one plausible lap
// interval wins; each strategy is independently testable.
package laps

import (
	"github.com/banshee-data/circuit.report/internal/telemetry"
)

// Method identifies which detection strategy produced a boundary list.
type Method string

const (
	MethodTemplate  Method = "template"
	MethodStraights Method = "straights"
	MethodInterval  Method = "interval"
	MethodNone      Method = "none"
)

// Boundary is one detected lap: contiguous, ordered, 1-based. StartMs of
// lap n+1 equals EndMs of lap n when both come from the same detection run.
type Boundary struct {
	Lap        int     `json:"lap"`
	StartMs    float64 `json:"start_ms"`
	EndMs      float64 `json:"end_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// Plausibility bounds, deliberately asymmetric between strategies: template
// refinement can legitimately stretch a lap toward 2x the period, while
// straight-gap matching rejects anything past 1.5x as a missed straight.
const (
	templateMinFactor = 0.5
	templateMaxFactor = 2.0
	straightMinFactor = 0.5
	straightMaxFactor = 1.5
)

// Detect finds lap boundaries using the first strategy that yields at
// least one plausible lap. A non-positive period, or fewer than two rows,
// yields an empty list with MethodNone.
func Detect(rows []telemetry.Row, periodMs float64) ([]Boundary, Method) {
	if periodMs <= 0 || len(rows) < 2 {
		return nil, MethodNone
	}
	strategies := []struct {
		method Method
		run    func() []Boundary
	}{
		{MethodTemplate, func() []Boundary { return detectTemplate(rows, periodMs) }},
		{MethodStraights, func() []Boundary { return detectStraights(rows, periodMs) }},
		{MethodInterval, func() []Boundary { return sliceInterval(rows, periodMs) }},
	}
	for _, s := range strategies {
		if b := s.run(); len(b) > 0 {
			return b, s.method
		}
	}
	return nil, MethodNone
}

// sliceInterval is the last-resort strategy: cut the session into
// fixed-length intervals of exactly periodMs. Callers should treat the
// result as low confidence.
func sliceInterval(rows []telemetry.Row, periodMs float64) []Boundary {
	start := rows[0].TimeMs
	end := rows[len(rows)-1].TimeMs
	var out []Boundary
	for t := start; t+periodMs <= end+1e-9; t += periodMs {
		out = append(out, Boundary{
			Lap:        len(out) + 1,
			StartMs:    t,
			EndMs:      t + periodMs,
			DurationMs: periodMs,
		})
	}
	return out
}
