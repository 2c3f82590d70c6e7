// Package course reconstructs a closed 2-D course shape from steering and
// throttle telemetry. Each lap is dead-reckoned with a simple bicycle-like
// forward model, all laps are resampled onto a canonical time grid and
// averaged, drift is removed so the loop closes, and the path is rotated so
// it starts on the longest near-straight stretch. The model is not
// physically exact; it only needs a topologically faithful loop.
package course

import (
	"math"

	"github.com/banshee-data/circuit.report/internal/laps"
	"github.com/banshee-data/circuit.report/internal/signal"
	"github.com/banshee-data/circuit.report/internal/telemetry"
)

// Direction is the travel direction around the course.
type Direction string

const (
	Clockwise        Direction = "cw"
	CounterClockwise Direction = "ccw"
)

// LapSource selects how rows are sliced into laps.
const (
	LapSourcePeriodicity = "periodicity"
	LapSourceLap         = "lap"
)

const (
	// CanonicalPoints is the fixed resampling resolution of a Shape.
	CanonicalPoints = 240

	// straightTurnLimit is the turn-angle ceiling (radians) for a point to
	// count as part of a straight stretch during canonical rotation.
	straightTurnLimit = 0.08

	// normalizationQuantile sets the session-wide steering/throttle maxima.
	normalizationQuantile = 0.95

	// directionSteerLimit: samples with |steering| above this feed the
	// direction vote.
	directionSteerLimit = 5.0
)

// Point is one course sample in arbitrary planar units (dead-reckoned, not
// metric). Time is the position within one canonical lap cycle.
type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time float64 `json:"time"`
}

// Shape is a closed, canonically rotated course polyline of exactly
// CanonicalPoints points (cyclic; the last point coincides with the first
// after closure) plus the lap duration it represents. A zero Shape means no
// laps could be reconstructed.
type Shape struct {
	Points        []Point `json:"points"`
	LapDurationMs float64 `json:"lap_duration_ms"`
}

// Options configures reconstruction. Zero-value fields are replaced by
// defaults in withDefaults; the normalization maxima are computed once per
// session inside Build so all averaged laps share the same scale.
type Options struct {
	Direction      Direction
	LapSource      string
	BaseSpeed      float64
	SteerGain      float64
	SteerSpeedLoss float64 // 0..1
	BrakeSpeedLoss float64 // 0..1
	SteerGamma     float64 // 0.4..2.5
	SmoothWindow   int
	BaseDtMs       float64

	// PeriodMs is the resolved lap duration for periodicity slicing.
	PeriodMs float64
	// Boundaries, when present, supply lap start times directly.
	Boundaries []laps.Boundary
}

func (o Options) withDefaults() Options {
	if o.LapSource == "" {
		o.LapSource = LapSourcePeriodicity
	}
	if o.BaseSpeed <= 0 {
		o.BaseSpeed = 1
	}
	if o.SteerGain <= 0 {
		o.SteerGain = 1
	}
	if o.SteerGamma == 0 {
		o.SteerGamma = 1
	}
	if o.SteerGamma < 0.4 {
		o.SteerGamma = 0.4
	}
	if o.SteerGamma > 2.5 {
		o.SteerGamma = 2.5
	}
	if o.SmoothWindow <= 0 {
		o.SmoothWindow = 5
	}
	if o.BaseDtMs <= 0 {
		o.BaseDtMs = 60
	}
	return o
}

// Build reconstructs the canonical course shape for a session. Zero
// resulting laps yields a zero Shape rather than an error.
func Build(rows []telemetry.Row, opts Options) Shape {
	if len(rows) < 2 {
		return Shape{}
	}
	opts = opts.withDefaults()
	if opts.Direction == "" {
		opts.Direction = DetectDirection(rows)
	}

	lapSlices, lapDurationMs := sliceLaps(rows, opts)
	if len(lapSlices) == 0 || lapDurationMs <= 0 {
		return Shape{}
	}

	// Session-wide normalization constants shared by every lap so averaged
	// laps keep a consistent scale.
	steerMax := math.Max(1, signal.Percentile(absSeries(rows, telemetry.MetricSteering), normalizationQuantile))
	throttleMax := math.Max(1, signal.Percentile(absSeries(rows, telemetry.MetricThrottle), normalizationQuantile))

	var paths [][]Point
	for _, lap := range lapSlices {
		if p := buildLapPoints(lap, steerMax, throttleMax, opts); len(p) >= 2 {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return Shape{}
	}

	avg := averageLaps(paths, lapDurationMs)
	closed := closeLoop(avg)
	rotated := rotateToStraight(closed, lapDurationMs)
	return Shape{Points: rotated, LapDurationMs: lapDurationMs}
}

// DetectDirection votes on travel direction using the mean signed steering
// over samples with meaningful steering input. A non-negative mean implies
// clockwise.
func DetectDirection(rows []telemetry.Row) Direction {
	var sum float64
	count := 0
	for _, r := range rows {
		v, ok := r.Metric(telemetry.MetricSteering)
		if !ok || math.Abs(v) <= directionSteerLimit {
			continue
		}
		sum += v
		count++
	}
	if count > 0 && sum/float64(count) < 0 {
		return CounterClockwise
	}
	return Clockwise
}

// sliceLaps cuts the session into per-lap row slices, re-based to start at
// 0, and returns them with the resolved lap duration. Slices shorter than
// two rows are dropped.
func sliceLaps(rows []telemetry.Row, opts Options) ([][]telemetry.Row, float64) {
	if opts.LapSource == LapSourceLap && telemetry.HasMetric(rows, telemetry.MetricLap) {
		return sliceByLabels(rows)
	}
	if opts.PeriodMs <= 0 {
		return nil, 0
	}

	starts := lapStarts(rows, opts)
	var slices [][]telemetry.Row
	for _, start := range starts {
		window := telemetry.Window(rows, start, start+opts.PeriodMs)
		if len(window) < 2 {
			continue
		}
		slices = append(slices, telemetry.Rebase(window, start))
	}
	return slices, opts.PeriodMs
}

func lapStarts(rows []telemetry.Row, opts Options) []float64 {
	if len(opts.Boundaries) > 0 {
		starts := make([]float64, len(opts.Boundaries))
		for i, b := range opts.Boundaries {
			starts[i] = b.StartMs
		}
		return starts
	}
	var starts []float64
	end := rows[len(rows)-1].TimeMs
	for t := rows[0].TimeMs; t+opts.PeriodMs <= end+1e-9; t += opts.PeriodMs {
		starts = append(starts, t)
	}
	return starts
}

// sliceByLabels groups rows by the externally supplied lap metric. The
// resolved lap duration is the mean duration of the kept slices.
func sliceByLabels(rows []telemetry.Row) ([][]telemetry.Row, float64) {
	var slices [][]telemetry.Row
	var current []telemetry.Row
	lastLap := math.Inf(-1)
	for _, r := range rows {
		lap := r.Values[telemetry.MetricLap]
		if lap != lastLap && len(current) > 0 {
			slices = append(slices, current)
			current = nil
		}
		lastLap = lap
		current = append(current, r)
	}
	if len(current) > 0 {
		slices = append(slices, current)
	}

	var kept [][]telemetry.Row
	var totalMs float64
	for _, s := range slices {
		if len(s) < 2 {
			continue
		}
		totalMs += telemetry.DurationMs(s)
		kept = append(kept, telemetry.Rebase(s, s[0].TimeMs))
	}
	if len(kept) == 0 {
		return nil, 0
	}
	return kept, totalMs / float64(len(kept))
}

func absSeries(rows []telemetry.Row, metric string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = math.Abs(r.Values[metric])
	}
	return out
}
