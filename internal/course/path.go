package course

import (
	"math"

	"github.com/banshee-data/circuit.report/internal/signal"
	"github.com/banshee-data/circuit.report/internal/telemetry"
)

const (
	// Forward speed floor: a car with zero throttle still rolls at 30% of
	// base speed so the path keeps advancing through coasting sections.
	minSpeedFraction = 0.3

	// turnRate scales curvature into heading change per base time step.
	turnRate = 0.15
)

// buildLapPoints dead-reckons one lap's rows into a 2-D path. Accumulator
// state (position, heading) is local to this call; nothing is shared
// between laps or concurrent reconstructions. Rows are expected re-based so
// the lap starts at TimeMs = 0.
func buildLapPoints(rows []telemetry.Row, steerMax, throttleMax float64, opts Options) []Point {
	steer := signal.MovingAverage(telemetry.Series(rows, telemetry.MetricSteering), opts.SmoothWindow)
	throttle := signal.MovingAverage(telemetry.Series(rows, telemetry.MetricThrottle), opts.SmoothWindow)

	directionSign := 1.0
	if opts.Direction == Clockwise {
		directionSign = -1.0
	}

	var x, y float64
	angle := math.Pi / 2 // start heading "up"
	lastTime := 0.0

	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		dt := row.TimeMs - lastTime
		if dt <= 0 {
			dt = opts.BaseDtMs
		}
		if dt < 1 {
			dt = 1
		}
		lastTime = row.TimeMs

		accelRatio := math.Max(0, throttle[i]/throttleMax)
		brakeRatio := math.Max(0, -throttle[i]/throttleMax)
		speedRatio := math.Max(0, accelRatio*(1-brakeRatio*opts.BrakeSpeedLoss))

		curve := signal.SteerCurve(steer[i], steerMax, opts.SteerGamma)
		curvature := curve * opts.SteerGain * directionSign * (1 - opts.SteerSpeedLoss*speedRatio)

		speed := minSpeedFraction + (1-minSpeedFraction)*speedRatio
		segment := speed * opts.BaseSpeed * (dt / opts.BaseDtMs)

		angle += curvature * turnRate * (dt / opts.BaseDtMs)
		x += math.Cos(angle) * segment
		y += math.Sin(angle) * segment

		points = append(points, Point{X: x, Y: y, Time: row.TimeMs})
	}
	return points
}

// averageLaps resamples every lap path onto CanonicalPoints canonical times
// spanning [0, lapDurationMs] and averages the positions across laps at
// each canonical time. Lap paths are clamped to their first/last point
// outside their own time range.
func averageLaps(paths [][]Point, lapDurationMs float64) []Point {
	out := make([]Point, CanonicalPoints)
	for i := 0; i < CanonicalPoints; i++ {
		t := lapDurationMs * float64(i) / float64(CanonicalPoints-1)
		var sx, sy float64
		count := 0
		for _, path := range paths {
			p, ok := sampleAt(path, t)
			if !ok {
				continue
			}
			sx += p.X
			sy += p.Y
			count++
		}
		pt := Point{Time: t}
		if count > 0 {
			pt.X = sx / float64(count)
			pt.Y = sy / float64(count)
		}
		out[i] = pt
	}
	return out
}

// sampleAt linearly interpolates a path position at time t, clamping to the
// endpoints outside the path's time range.
func sampleAt(path []Point, t float64) (Point, bool) {
	if len(path) == 0 {
		return Point{}, false
	}
	if t <= path[0].Time {
		return path[0], true
	}
	last := path[len(path)-1]
	if t >= last.Time {
		return last, true
	}
	for i := 1; i < len(path); i++ {
		if path[i].Time < t {
			continue
		}
		a, b := path[i-1], path[i]
		span := b.Time - a.Time
		if span <= 0 {
			return a, true
		}
		f := (t - a.Time) / span
		return Point{
			X:    a.X + f*(b.X-a.X),
			Y:    a.Y + f*(b.Y-a.Y),
			Time: t,
		}, true
	}
	return last, true
}
