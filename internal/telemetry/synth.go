package telemetry

import (
	"math"
	"math/rand"
)

// Waveform selects the steering pattern produced by Synthesize.
type Waveform string

const (
	WaveSine   Waveform = "sine"
	WaveSquare Waveform = "square"
	WaveNoise  Waveform = "noise"
)

// SynthOptions describes a synthetic driving session. Square waves flip
// between -SteerAmp and +SteerAmp every half period, approximating a course
// of alternating full-lock turns; sine waves give a smooth periodic
// steering trace; noise has no periodic structure at all.
type SynthOptions struct {
	Wave        Waveform
	DurationMs  float64
	SampleMs    float64
	PeriodMs    float64
	SteerAmp    float64
	ThrottlePct float64
	NoiseAmp    float64 // additive uniform noise on steering
	Seed        int64
}

// Synthesize generates a deterministic telemetry session from opts. The
// same options always produce the same rows.
func Synthesize(opts SynthOptions) []Row {
	if opts.SampleMs <= 0 || opts.DurationMs <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	n := int(opts.DurationMs/opts.SampleMs) + 1
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * opts.SampleMs
		var steer float64
		switch opts.Wave {
		case WaveSquare:
			if opts.PeriodMs > 0 {
				phase := math.Mod(t, opts.PeriodMs) / opts.PeriodMs
				if phase < 0.5 {
					steer = -opts.SteerAmp
				} else {
					steer = opts.SteerAmp
				}
			}
		case WaveNoise:
			steer = (rng.Float64()*2 - 1) * opts.SteerAmp
		default: // sine
			if opts.PeriodMs > 0 {
				steer = opts.SteerAmp * math.Sin(2*math.Pi*t/opts.PeriodMs)
			}
		}
		if opts.NoiseAmp > 0 && opts.Wave != WaveNoise {
			steer += (rng.Float64()*2 - 1) * opts.NoiseAmp
		}
		rows = append(rows, Row{
			TimeMs: t,
			Values: map[string]float64{
				MetricSteering: steer,
				MetricThrottle: opts.ThrottlePct,
			},
		})
	}
	return rows
}
