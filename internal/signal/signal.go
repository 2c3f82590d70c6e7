// Package signal provides the small numeric helpers shared by the telemetry
// analysis stages: lenient value parsing, percentiles, moving-average
// smoothing, and the nonlinear steering response curve.
package signal

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value parses a possibly messy numeric string such as "-42.5%" or " 80 ".
// Non-numeric characters are stripped before parsing. Empty or unparseable
// input yields 0; Value never fails.
func Value(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '-' || r == '+' || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// Percentile returns the value at quantile p (0..1) of values, using the
// element at index floor(len*p) of the ascending sort, clamped to the valid
// range. Returns 0 for empty input. The input slice is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MovingAverage smooths values with a centred window: each output sample is
// the mean of all available samples within window/2 on each side, so the
// window shrinks asymmetrically at the edges. Empty input returns nil.
func MovingAverage(values []float64, window int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	half := window / 2
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// SteerCurve maps a raw steering value onto [-1, 1] with a power-law
// response. The value is normalized by max (clamped to [-1, 1]), then
// shaped as sign(n)*|n|^gamma so sign is preserved and 0 maps to 0.
// Returns 0 when max is 0.
func SteerCurve(value, max, gamma float64) float64 {
	if max == 0 {
		return 0
	}
	n := value / max
	if n > 1 {
		n = 1
	} else if n < -1 {
		n = -1
	}
	if n == 0 {
		return 0
	}
	return math.Copysign(math.Pow(math.Abs(n), gamma), n)
}
