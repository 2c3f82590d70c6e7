package laps

import (
	"math"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

const (
	// straightSteerLimit is the |steering| ceiling for a straight run.
	straightSteerLimit = 5.0

	// straightMinDurationMs is the shortest run that counts as a straight.
	straightMinDurationMs = 500.0

	// straightKeepFraction keeps only straights at least this fraction of
	// the longest (main) straight.
	straightKeepFraction = 0.6
)

// straight is a maximal low-steering run.
type straight struct {
	startMs    float64
	endMs      float64
	centerMs   float64
	durationMs float64
}

// detectStraights is the fallback strategy: find the main straight of the
// course, keep comparable straights whose spacing matches the expected lap
// period, and cut laps at their end timestamps. Works on courses where the
// start/finish straight dominates even when the steering trace is too
// irregular for template matching.
func detectStraights(rows []telemetry.Row, periodMs float64) []Boundary {
	runs := straightRuns(rows)
	if len(runs) < 2 {
		return nil
	}

	var mainDuration float64
	for _, s := range runs {
		if s.durationMs > mainDuration {
			mainDuration = s.durationMs
		}
	}

	var candidates []straight
	for _, s := range runs {
		if s.durationMs >= straightKeepFraction*mainDuration {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) < 2 {
		return nil
	}

	// Greedy gap filter: keep a candidate only when its spacing from the
	// previously kept one is a plausible lap duration. Rejects spurious
	// mid-lap straights.
	kept := []straight{candidates[0]}
	for _, s := range candidates[1:] {
		gap := s.centerMs - kept[len(kept)-1].centerMs
		if gap < straightMinFactor*periodMs || gap > straightMaxFactor*periodMs {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) < 2 {
		return nil
	}

	var out []Boundary
	for i := 1; i < len(kept); i++ {
		start := kept[i-1].endMs
		end := kept[i].endMs
		out = append(out, Boundary{
			Lap:        len(out) + 1,
			StartMs:    start,
			EndMs:      end,
			DurationMs: end - start,
		})
	}
	return out
}

// straightRuns finds maximal runs of |steering| <= straightSteerLimit
// lasting at least straightMinDurationMs.
func straightRuns(rows []telemetry.Row) []straight {
	steer := telemetry.Series(rows, telemetry.MetricSteering)
	var runs []straight
	runStart := -1
	flush := func(endIdx int) {
		if runStart < 0 {
			return
		}
		s := straight{
			startMs: rows[runStart].TimeMs,
			endMs:   rows[endIdx].TimeMs,
		}
		s.durationMs = s.endMs - s.startMs
		s.centerMs = s.startMs + s.durationMs/2
		if s.durationMs >= straightMinDurationMs {
			runs = append(runs, s)
		}
		runStart = -1
	}
	for i, v := range steer {
		if math.Abs(v) <= straightSteerLimit {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(rows) - 1)
	return runs
}
