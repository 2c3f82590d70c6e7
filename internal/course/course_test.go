package course

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/circuit.report/internal/laps"
	"github.com/banshee-data/circuit.report/internal/telemetry"
	"github.com/banshee-data/circuit.report/internal/testutil"
)

func TestBuild_SquareSession(t *testing.T) {
	rows := testutil.SquareSession(20_000, 180_000, 50)
	shape := Build(rows, Options{PeriodMs: 20_000})

	require.Len(t, shape.Points, CanonicalPoints)
	assert.Equal(t, 20_000.0, shape.LapDurationMs)

	first := shape.Points[0]
	last := shape.Points[len(shape.Points)-1]
	assert.Equal(t, first.X, last.X, "loop must close exactly")
	assert.Equal(t, first.Y, last.Y, "loop must close exactly")

	// Times re-linearized over the canonical lap.
	assert.Equal(t, 0.0, first.Time)
	assert.InDelta(t, 20_000, last.Time, 1e-6)
	for i := 1; i < len(shape.Points); i++ {
		assert.Greater(t, shape.Points[i].Time, shape.Points[i-1].Time)
	}

	// The reconstructed loop must have nonzero extent.
	var maxAbs float64
	for _, p := range shape.Points {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	assert.Greater(t, maxAbs, 0.0)
}

func TestBuild_Deterministic(t *testing.T) {
	rows := testutil.SquareSession(20_000, 180_000, 50)
	a := Build(rows, Options{PeriodMs: 20_000})
	b := Build(rows, Options{PeriodMs: 20_000})
	assert.True(t, reflect.DeepEqual(a, b), "same input must reconstruct bit-identical shapes")
}

func TestBuild_EmptyInputs(t *testing.T) {
	assert.Equal(t, Shape{}, Build(nil, Options{PeriodMs: 20_000}))

	rows := testutil.SquareSession(20_000, 60_000, 50)
	assert.Equal(t, Shape{}, Build(rows, Options{}), "periodicity slicing without a period yields nothing")
}

func TestBuild_LapLabels(t *testing.T) {
	var rows []telemetry.Row
	for lap := 1; lap <= 2; lap++ {
		for i := 0; i < 100; i++ {
			rows = append(rows, telemetry.Row{
				TimeMs: float64((lap-1)*10_000 + i*100),
				Values: map[string]float64{
					telemetry.MetricSteering: 30,
					telemetry.MetricThrottle: 50,
					telemetry.MetricLap:      float64(lap),
				},
			})
		}
	}

	shape := Build(rows, Options{LapSource: LapSourceLap})

	require.Len(t, shape.Points, CanonicalPoints)
	assert.InDelta(t, 9_900, shape.LapDurationMs, 1e-9, "lap duration is the mean slice duration")
}

func TestDetectDirection(t *testing.T) {
	mkRows := func(steer float64) []telemetry.Row {
		rows := make([]telemetry.Row, 10)
		for i := range rows {
			rows[i] = telemetry.Row{
				TimeMs: float64(i) * 100,
				Values: map[string]float64{telemetry.MetricSteering: steer},
			}
		}
		return rows
	}

	assert.Equal(t, Clockwise, DetectDirection(mkRows(50)))
	assert.Equal(t, CounterClockwise, DetectDirection(mkRows(-50)))
	assert.Equal(t, Clockwise, DetectDirection(mkRows(2)), "near-center steering defaults to clockwise")
	assert.Equal(t, Clockwise, DetectDirection(nil))
}

func TestLapStarts_PrefersBoundaries(t *testing.T) {
	rows := []telemetry.Row{{TimeMs: 0}, {TimeMs: 10_000}}
	opts := Options{
		PeriodMs: 1_000,
		Boundaries: []laps.Boundary{
			{Lap: 1, StartMs: 100, EndMs: 1_100},
			{Lap: 2, StartMs: 1_100, EndMs: 2_100},
		},
	}
	assert.Equal(t, []float64{100, 1_100}, lapStarts(rows, opts))

	opts.Boundaries = nil
	starts := lapStarts(rows, opts)
	require.Len(t, starts, 10)
	assert.Equal(t, 0.0, starts[0])
	assert.Equal(t, 9_000.0, starts[9])
}

func TestCloseLoop(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0, Time: 0},
		{X: 1, Y: 0, Time: 1},
		{X: 2, Y: 1, Time: 2},
	}
	out := closeLoop(points)

	assert.Equal(t, points[0].X, out[0].X)
	assert.Equal(t, points[0].Y, out[0].Y)
	assert.Equal(t, out[0].X, out[2].X, "endpoint snaps onto the start")
	assert.Equal(t, out[0].Y, out[2].Y)
	assert.InDelta(t, 0, out[1].X, 1e-12, "interior points shift by their share of the drift")
	assert.InDelta(t, -0.5, out[1].Y, 1e-12)

	// Input untouched.
	assert.Equal(t, 2.0, points[2].X)
}

func TestCloseLoop_Short(t *testing.T) {
	single := []Point{{X: 1, Y: 2}}
	assert.Equal(t, single, closeLoop(single))
}

func TestRotateToStraight(t *testing.T) {
	// Rectangle perimeter at unit spacing. The longest straight run is the
	// interior of a long edge; its midpoint must become the new origin.
	points := []Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
		{X: 4, Y: 0}, {X: 4, Y: 1}, {X: 4, Y: 2}, {X: 3, Y: 2},
		{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 1},
	}
	for i := range points {
		points[i].Time = float64(i)
	}
	lapMs := 11_000.0

	out := rotateToStraight(points, lapMs)

	require.Len(t, out, len(points))
	assert.Equal(t, 2.0, out[0].X)
	assert.Equal(t, 0.0, out[0].Y)

	// Pure cyclic permutation: the (x, y) multiset is unchanged.
	type xy struct{ x, y float64 }
	seen := make(map[xy]int)
	for _, p := range points {
		seen[xy{p.X, p.Y}]++
	}
	for _, p := range out {
		seen[xy{p.X, p.Y}]--
	}
	for k, c := range seen {
		assert.Zero(t, c, "point %v count mismatch", k)
	}

	// Times re-linearized over the new order.
	assert.Equal(t, 0.0, out[0].Time)
	assert.InDelta(t, lapMs, out[len(out)-1].Time, 1e-9)
}

func TestRotateToStraight_ClosedPath(t *testing.T) {
	// Closed rectangle: the first point repeated at the end. Rotation must
	// re-close the loop at the new origin rather than carrying the
	// duplicate into the middle of the sequence.
	points := []Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
		{X: 4, Y: 0}, {X: 4, Y: 1}, {X: 4, Y: 2}, {X: 3, Y: 2},
		{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 1},
		{X: 0, Y: 0},
	}
	for i := range points {
		points[i].Time = float64(i)
	}
	lapMs := 12_000.0

	out := rotateToStraight(points, lapMs)

	require.Len(t, out, len(points))
	first := out[0]
	last := out[len(out)-1]
	assert.Equal(t, first.X, last.X, "rotation must preserve closure")
	assert.Equal(t, first.Y, last.Y, "rotation must preserve closure")
	assert.Equal(t, 2.0, first.X, "midpoint of the bottom edge becomes the origin")
	assert.Equal(t, 0.0, first.Y)

	// Every segment keeps nonzero length: the old duplicate pair must not
	// survive as a zero-length step.
	for i := 1; i < len(out); i++ {
		dx := out[i].X - out[i-1].X
		dy := out[i].Y - out[i-1].Y
		assert.NotZero(t, dx*dx+dy*dy, "segment %d collapsed", i)
	}

	assert.Equal(t, 0.0, first.Time)
	assert.InDelta(t, lapMs, last.Time, 1e-9)
}

func TestTurnAngles_DegenerateSegment(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}
	angles := turnAngles(points)
	assert.Equal(t, math.Pi, angles[0], "zero-length segment counts as a U-turn")
}

func TestLongestCyclicRun_Wraps(t *testing.T) {
	// Qualifying values wrap around the end of the slice.
	values := []float64{0.01, 0.02, 1, 1, 0.03, 0.04}
	start, length := longestCyclicRun(values, 0.08)
	assert.Equal(t, 4, start)
	assert.Equal(t, 4, length)
}

func TestLongestCyclicRun_NoneQualify(t *testing.T) {
	start, length := longestCyclicRun([]float64{1, 1, 1}, 0.08)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, length)
}

func TestSampleAt(t *testing.T) {
	path := []Point{
		{X: 0, Y: 0, Time: 0},
		{X: 10, Y: 20, Time: 100},
	}

	t.Run("interpolates", func(t *testing.T) {
		p, ok := sampleAt(path, 50)
		require.True(t, ok)
		assert.InDelta(t, 5, p.X, 1e-12)
		assert.InDelta(t, 10, p.Y, 1e-12)
	})

	t.Run("clamps before start", func(t *testing.T) {
		p, ok := sampleAt(path, -10)
		require.True(t, ok)
		assert.Equal(t, path[0], p)
	})

	t.Run("clamps past end", func(t *testing.T) {
		p, ok := sampleAt(path, 500)
		require.True(t, ok)
		assert.Equal(t, path[1], p)
	})

	t.Run("empty path", func(t *testing.T) {
		_, ok := sampleAt(nil, 0)
		assert.False(t, ok)
	})
}

func TestAverageLaps_SinglePath(t *testing.T) {
	path := []Point{
		{X: 0, Y: 0, Time: 0},
		{X: 100, Y: 0, Time: 1_000},
	}
	avg := averageLaps([][]Point{path}, 1_000)

	require.Len(t, avg, CanonicalPoints)
	assert.Equal(t, 0.0, avg[0].X)
	assert.InDelta(t, 100, avg[CanonicalPoints-1].X, 1e-9)
	// Canonical times span the lap exactly.
	assert.Equal(t, 0.0, avg[0].Time)
	assert.InDelta(t, 1_000, avg[CanonicalPoints-1].Time, 1e-9)
}
