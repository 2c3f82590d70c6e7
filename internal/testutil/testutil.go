// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers and the synthetic telemetry
// sessions used across test files.
package testutil

import (
	"testing"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SineSession builds a smooth periodic steering session with constant
// half throttle.
func SineSession(periodMs, durationMs, sampleMs float64) []telemetry.Row {
	return telemetry.Synthesize(telemetry.SynthOptions{
		Wave:        telemetry.WaveSine,
		DurationMs:  durationMs,
		SampleMs:    sampleMs,
		PeriodMs:    periodMs,
		SteerAmp:    80,
		ThrottlePct: 50,
	})
}

// SquareSession builds the alternating full-lock session: half a period
// at -amp, half at +amp, constant half throttle.
func SquareSession(periodMs, durationMs, sampleMs float64) []telemetry.Row {
	return telemetry.Synthesize(telemetry.SynthOptions{
		Wave:        telemetry.WaveSquare,
		DurationMs:  durationMs,
		SampleMs:    sampleMs,
		PeriodMs:    periodMs,
		SteerAmp:    80,
		ThrottlePct: 50,
	})
}

// NoiseSession builds a session with no periodic structure at all.
func NoiseSession(durationMs, sampleMs float64, seed int64) []telemetry.Row {
	return telemetry.Synthesize(telemetry.SynthOptions{
		Wave:        telemetry.WaveNoise,
		DurationMs:  durationMs,
		SampleMs:    sampleMs,
		SteerAmp:    80,
		ThrottlePct: 50,
		Seed:        seed,
	})
}
