package laps

import (
	"math"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

const (
	// minPeriodSamples is the shortest period worth template matching.
	minPeriodSamples = 10

	// localSearchFraction bounds the per-boundary refinement window to
	// +/-15% of the period.
	localSearchFraction = 0.15
)

// detectTemplate finds lap boundaries by phase-optimized template matching:
// pick the phase where consecutive period-length windows agree best, average
// those windows into a template, then refine each expected boundary by
// sliding the template over a local window and maximizing normalized
// cross-correlation. Returns nil when the period is too short in samples or
// the session holds fewer than two full periods.
func detectTemplate(rows []telemetry.Row, periodMs float64) []Boundary {
	n := len(rows)
	elapsed := telemetry.DurationMs(rows)
	if elapsed <= 0 {
		return nil
	}
	sampleMs := elapsed / float64(n-1)
	periodSamples := int(math.Round(periodMs / sampleMs))
	if periodSamples < minPeriodSamples || n < 2*periodSamples {
		return nil
	}

	steer := telemetry.Series(rows, telemetry.MetricSteering)

	// Coarse phase search, then +/-1 coarse step at unit resolution.
	coarseStep := periodSamples / 100
	if coarseStep < 1 {
		coarseStep = 1
	}
	bestPhase := 0
	bestScore := math.Inf(-1)
	for phase := 0; phase < periodSamples; phase += coarseStep {
		if s := phaseScore(steer, phase, periodSamples); s > bestScore {
			bestScore = s
			bestPhase = phase
		}
	}
	for phase := bestPhase - coarseStep; phase <= bestPhase+coarseStep; phase++ {
		if phase < 0 || phase >= periodSamples {
			continue
		}
		if s := phaseScore(steer, phase, periodSamples); s > bestScore {
			bestScore = s
			bestPhase = phase
		}
	}

	template := buildTemplate(steer, bestPhase, periodSamples)
	if template == nil {
		return nil
	}

	// Refine each expected boundary on the fixed phase grid. The last
	// (possibly partial) boundary has no full window to correlate against
	// and is kept at its expected position.
	search := int(float64(periodSamples) * localSearchFraction)
	var cuts []int
	for pos := bestPhase; pos < n; pos += periodSamples {
		best := pos
		if pos+periodSamples <= n {
			bestNCC := math.Inf(-1)
			for off := -search; off <= search; off++ {
				c := pos + off
				if c < 0 || c+periodSamples > n {
					continue
				}
				if s := ncc(template, steer[c:c+periodSamples]); s > bestNCC {
					bestNCC = s
					best = c
				}
			}
		}
		cuts = append(cuts, best)
	}

	var out []Boundary
	for i := 1; i < len(cuts); i++ {
		start := rows[cuts[i-1]].TimeMs
		end := rows[cuts[i]].TimeMs
		d := end - start
		if d < templateMinFactor*periodMs || d > templateMaxFactor*periodMs {
			continue
		}
		out = append(out, Boundary{Lap: len(out) + 1, StartMs: start, EndMs: end, DurationMs: d})
	}
	return out
}

// phaseScore is the mean NCC between each pair of adjacent period-length
// windows starting at the given phase.
func phaseScore(x []float64, phase, period int) float64 {
	var sum float64
	count := 0
	for start := phase; start+2*period <= len(x); start += period {
		sum += ncc(x[start:start+period], x[start+period:start+2*period])
		count++
	}
	if count == 0 {
		return math.Inf(-1)
	}
	return sum / float64(count)
}

// buildTemplate averages all full period-length windows at the given phase
// into one waveform.
func buildTemplate(x []float64, phase, period int) []float64 {
	tmpl := make([]float64, period)
	count := 0
	for start := phase; start+period <= len(x); start += period {
		for i := 0; i < period; i++ {
			tmpl[i] += x[start+i]
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range tmpl {
		tmpl[i] /= float64(count)
	}
	return tmpl
}

// ncc is the normalized cross-correlation of two equal-length windows:
// amplitude-invariant shape similarity in [-1, 1]. Zero-energy windows
// score 0.
func ncc(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
