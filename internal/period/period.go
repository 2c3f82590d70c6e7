// Package period estimates the dominant repetition period of a steering
// trace via two-pass autocorrelation: a strided coarse scan over the
// plausible lag range followed by a single-sample refinement around the
// coarse winner. This keeps cost near-linear in row count while still
// resolving the period to one sample.
package period

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

const (
	// MinRows is the minimum session length worth analysing.
	MinRows = 100

	minLagMs = 5_000
	maxLagMs = 120_000

	// maxCoarseLags caps the number of candidate lags in the coarse pass.
	maxCoarseLags = 500

	// lowConfidenceRatio is the canonical confidence floor. An earlier
	// variant of this detector used 0.2; 0.15 is kept as the single
	// threshold.
	lowConfidenceRatio = 0.15

	// harmonicTolerance demotes an integer multiple of the true period
	// to its fundamental: the shortest subharmonic lag correlating
	// within this fraction of the winning lag is preferred.
	harmonicTolerance = 0.95

	// minPlausiblePeriodMs flags periods too short to be a real lap.
	minPlausiblePeriodMs = 5_000
)

// Estimate is the result of period detection. A zero Estimate means "no
// estimate": too little data or no steering metric.
type Estimate struct {
	PeriodMs        float64 `json:"period_ms"`
	ConfidenceRatio float64 `json:"confidence_ratio"`
	LowConfidence   bool    `json:"low_confidence"`
}

// Detect estimates the dominant lap period from the steering metric.
// Sessions shorter than MinRows rows, or without a steering metric, yield
// a zero Estimate rather than an error.
func Detect(rows []telemetry.Row) Estimate {
	if len(rows) < MinRows || !telemetry.HasMetric(rows, telemetry.MetricSteering) {
		return Estimate{}
	}
	elapsed := telemetry.DurationMs(rows)
	if elapsed <= 0 {
		return Estimate{}
	}
	sampleMs := elapsed / float64(len(rows)-1)

	steer := telemetry.Series(rows, telemetry.MetricSteering)
	mean := stat.Mean(steer, nil)
	centered := make([]float64, len(steer))
	for i, v := range steer {
		centered[i] = v - mean
	}

	minLag := int(minLagMs / sampleMs)
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(maxLagMs / sampleMs)
	if maxLag > len(centered)-1 {
		maxLag = len(centered) - 1
	}
	if minLag >= maxLag {
		return Estimate{}
	}

	step := (maxLag - minLag) / maxCoarseLags
	if step < 1 {
		step = 1
	}

	// Coarse pass: strided scan over the full lag range.
	bestLag := -1
	bestCorr := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag += step {
		if c := lagCorrelation(centered, lag); c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}
	if bestLag < 0 {
		return Estimate{}
	}

	// Fine pass: every lag within two coarse steps of the winner.
	bestLag, bestCorr = refine(centered, bestLag, 2*step, minLag, maxLag)

	// A lag k times the true period correlates just as strongly as the
	// period itself, and when the fundamental is not sample-aligned a
	// sample-aligned multiple can edge it out. Walk the subharmonics of
	// the winner from shortest to longest and demote to the first one
	// that still correlates within tolerance.
	if bestCorr > 0 {
		for k := bestLag / minLag; k >= 2; k-- {
			cand := int(math.Round(float64(bestLag) / float64(k)))
			if cand < minLag || cand >= bestLag {
				continue
			}
			lag, corr := refine(centered, cand, 2*step, minLag, maxLag)
			if corr >= harmonicTolerance*bestCorr {
				bestLag = lag
				bestCorr = corr
				break
			}
		}
	}

	periodMs := float64(bestLag) * sampleMs
	variance := stat.Variance(centered, nil)
	var ratio float64
	if variance > 0 && bestCorr > 0 {
		ratio = bestCorr / variance
	}
	return Estimate{
		PeriodMs:        periodMs,
		ConfidenceRatio: ratio,
		LowConfidence:   ratio < lowConfidenceRatio || periodMs < minPlausiblePeriodMs,
	}
}

// refine scans every lag within window of center, clamped to
// [minLag, maxLag], and returns the best lag and its correlation.
func refine(x []float64, center, window, minLag, maxLag int) (int, float64) {
	bestLag := -1
	bestCorr := math.Inf(-1)
	lo := center - window
	if lo < minLag {
		lo = minLag
	}
	hi := center + window
	if hi > maxLag {
		hi = maxLag
	}
	for lag := lo; lag <= hi; lag++ {
		if c := lagCorrelation(x, lag); c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}
	return bestLag, bestCorr
}

// lagCorrelation is the mean lagged product of the mean-centered signal
// with itself.
func lagCorrelation(x []float64, lag int) float64 {
	n := len(x) - lag
	if n <= 0 {
		return math.Inf(-1)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += x[i] * x[i+lag]
	}
	return sum / float64(n)
}
