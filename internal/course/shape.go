package course

import "math"

// closeLoop removes dead-reckoning drift by subtracting a linearly growing
// share of the first-to-last offset from every point: earlier points move
// less, the last point lands exactly on the first.
func closeLoop(points []Point) []Point {
	n := len(points)
	if n < 2 {
		return points
	}
	dx := points[n-1].X - points[0].X
	dy := points[n-1].Y - points[0].Y

	out := make([]Point, n)
	for i, p := range points {
		f := float64(i) / float64(n-1)
		out[i] = Point{X: p.X - f*dx, Y: p.Y - f*dy, Time: p.Time}
	}
	// Snap the endpoint to kill float residue.
	out[n-1].X = out[0].X
	out[n-1].Y = out[0].Y
	return out
}

// rotateToStraight cyclically shifts a closed path so the midpoint of its
// longest near-straight stretch becomes index 0, then re-linearizes Time
// across the new order. The (x, y) set is unchanged; only order and times
// move.
//
// A closed path repeats its first point at the end. Rotating that
// duplicate as an ordinary point would leave the loop open and park a
// zero-length segment mid-sequence, so the shift runs over the distinct
// points only and the path is re-closed afterwards.
func rotateToStraight(points []Point, lapDurationMs float64) []Point {
	n := len(points)
	if n < 3 {
		return points
	}

	distinct := points
	closed := points[0].X == points[n-1].X && points[0].Y == points[n-1].Y
	if closed {
		distinct = points[:n-1]
	}
	m := len(distinct)

	turns := turnAngles(distinct)
	start, length := longestCyclicRun(turns, straightTurnLimit)
	mid := 0
	if length > 0 {
		mid = (start + length/2) % m
	}

	out := make([]Point, n)
	for i := 0; i < m; i++ {
		p := distinct[(mid+i)%m]
		out[i] = Point{
			X:    p.X,
			Y:    p.Y,
			Time: lapDurationMs * float64(i) / float64(n-1),
		}
	}
	if closed {
		out[n-1] = Point{X: out[0].X, Y: out[0].Y, Time: lapDurationMs}
	}
	return out
}

// turnAngles computes the angle between the incoming and outgoing segment
// at every point, with cyclic neighbours. A degenerate zero-length segment
// counts as a full U-turn.
func turnAngles(points []Point) []float64 {
	n := len(points)
	out := make([]float64, n)
	for i := range points {
		prev := points[(i-1+n)%n]
		next := points[(i+1)%n]
		inX, inY := points[i].X-prev.X, points[i].Y-prev.Y
		outX, outY := next.X-points[i].X, next.Y-points[i].Y
		inLen := math.Hypot(inX, inY)
		outLen := math.Hypot(outX, outY)
		if inLen == 0 || outLen == 0 {
			out[i] = math.Pi
			continue
		}
		dot := (inX*outX + inY*outY) / (inLen * outLen)
		if dot > 1 {
			dot = 1
		} else if dot < -1 {
			dot = -1
		}
		out[i] = math.Acos(dot)
	}
	return out
}

// longestCyclicRun finds the longest wrap-around run of values below limit.
// Returns the run's start index and length (0 when no value qualifies); the
// length is capped at len(values).
func longestCyclicRun(values []float64, limit float64) (start, length int) {
	n := len(values)
	bestStart, bestLen := 0, 0
	runStart, runLen := 0, 0
	for i := 0; i < 2*n; i++ {
		if values[i%n] < limit {
			if runLen == 0 {
				runStart = i
			}
			runLen++
			if runLen > bestLen {
				bestStart = runStart
				bestLen = runLen
			}
			if bestLen >= n {
				break
			}
		} else {
			runLen = 0
		}
	}
	if bestLen > n {
		bestLen = n
	}
	return bestStart % n, bestLen
}
