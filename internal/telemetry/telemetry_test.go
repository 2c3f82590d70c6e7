package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadCSV_LenientValues(t *testing.T) {
	in := strings.NewReader(
		"time_ms,steering_pct,throttle_pct\n" +
			"0, -42.5% ,80%\n" +
			"60,0,abc\n")
	rows, err := ReadCSV(in)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Values[MetricSteering] != -42.5 {
		t.Errorf("steering: got %v, want -42.5", rows[0].Values[MetricSteering])
	}
	if rows[0].Values[MetricThrottle] != 80 {
		t.Errorf("throttle: got %v, want 80", rows[0].Values[MetricThrottle])
	}
	if rows[1].Values[MetricThrottle] != 0 {
		t.Errorf("unparseable throttle should be 0, got %v", rows[1].Values[MetricThrottle])
	}
	if rows[1].TimeMs != 60 {
		t.Errorf("time: got %v, want 60", rows[1].TimeMs)
	}
}

func TestReadCSV_MissingTimeColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("steering_pct,throttle_pct\n1,2\n"))
	if err == nil {
		t.Fatal("expected error for missing time_ms column")
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	rows := Synthesize(SynthOptions{
		Wave:        WaveSine,
		DurationMs:  5_000,
		SampleMs:    50,
		PeriodMs:    1_000,
		SteerAmp:    80,
		ThrottlePct: 50,
	})
	if len(rows) == 0 {
		t.Fatal("no rows synthesized")
	}

	var buf bytes.Buffer
	metrics := []string{MetricSteering, MetricThrottle}
	if err := WriteCSV(&buf, rows, metrics); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if diff := cmp.Diff(rows, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	opts := SynthOptions{
		Wave:       WaveNoise,
		DurationMs: 2_000,
		SampleMs:   20,
		SteerAmp:   80,
		Seed:       42,
	}
	a := Synthesize(opts)
	b := Synthesize(opts)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same options produced different sessions (-a +b):\n%s", diff)
	}
}

func TestSynthesize_SquareHalves(t *testing.T) {
	rows := Synthesize(SynthOptions{
		Wave:       WaveSquare,
		DurationMs: 1_000,
		SampleMs:   100,
		PeriodMs:   1_000,
		SteerAmp:   80,
	})
	if len(rows) != 11 {
		t.Fatalf("got %d rows, want 11", len(rows))
	}
	if got := rows[0].Values[MetricSteering]; got != -80 {
		t.Errorf("first half should steer -80, got %v", got)
	}
	if got := rows[5].Values[MetricSteering]; got != 80 {
		t.Errorf("second half should steer +80, got %v", got)
	}
}

func TestSynthesize_InvalidOptions(t *testing.T) {
	if rows := Synthesize(SynthOptions{DurationMs: 1000}); rows != nil {
		t.Errorf("zero sample interval should yield nil, got %d rows", len(rows))
	}
	if rows := Synthesize(SynthOptions{SampleMs: 50}); rows != nil {
		t.Errorf("zero duration should yield nil, got %d rows", len(rows))
	}
}

func TestDurationMs(t *testing.T) {
	rows := []Row{{TimeMs: 100}, {TimeMs: 250}, {TimeMs: 400}}
	if got := DurationMs(rows); got != 300 {
		t.Errorf("got %v, want 300", got)
	}
	if got := DurationMs(rows[:1]); got != 0 {
		t.Errorf("single row: got %v, want 0", got)
	}
}

func TestRebase(t *testing.T) {
	rows := []Row{
		{TimeMs: 1000, Values: map[string]float64{MetricSteering: 5}},
		{TimeMs: 1060, Values: map[string]float64{MetricSteering: 6}},
	}
	out := Rebase(rows, 1000)
	if out[0].TimeMs != 0 || out[1].TimeMs != 60 {
		t.Errorf("rebased times: got %v, %v", out[0].TimeMs, out[1].TimeMs)
	}
	if rows[0].TimeMs != 1000 {
		t.Error("Rebase must not mutate the input")
	}
	if out[0].Values[MetricSteering] != 5 {
		t.Error("metric values should carry over")
	}
}

func TestWindow(t *testing.T) {
	rows := []Row{{TimeMs: 0}, {TimeMs: 100}, {TimeMs: 200}, {TimeMs: 300}}
	out := Window(rows, 100, 200)
	if len(out) != 2 || out[0].TimeMs != 100 || out[1].TimeMs != 200 {
		t.Errorf("Window(100, 200) = %v", out)
	}
	if out := Window(rows, 500, 600); len(out) != 0 {
		t.Errorf("out-of-range window should be empty, got %v", out)
	}
}

func TestHasMetric(t *testing.T) {
	rows := []Row{
		{TimeMs: 0, Values: map[string]float64{MetricSteering: 1}},
		{TimeMs: 60, Values: map[string]float64{MetricSteering: 2, MetricLap: 1}},
	}
	if !HasMetric(rows, MetricLap) {
		t.Error("expected lap metric to be found")
	}
	if HasMetric(rows, MetricBrake) {
		t.Error("brake metric should be absent")
	}
}

func TestSeries_AlignsWithRows(t *testing.T) {
	rows := []Row{
		{TimeMs: 0, Values: map[string]float64{MetricSteering: 1}},
		{TimeMs: 60, Values: map[string]float64{}},
		{TimeMs: 120, Values: map[string]float64{MetricSteering: 3}},
	}
	got := Series(rows, MetricSteering)
	if len(got) != 3 || got[0] != 1 || got[1] != 0 || got[2] != 3 {
		t.Errorf("Series = %v, want [1 0 3]", got)
	}
}
