// Command gen-telemetry generates synthetic driving session CSVs for
// testing the analysis pipeline.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

func main() {
	output := flag.String("o", "session.csv", "output path")
	wave := flag.String("wave", "square", "steering waveform: sine, square, or noise")
	durationMs := flag.Float64("duration", 180_000, "session duration in ms")
	periodMs := flag.Float64("period", 20_000, "lap period in ms")
	sampleMs := flag.Float64("sample", 60, "sample interval in ms")
	steerAmp := flag.Float64("steer", 80, "steering amplitude in percent")
	throttle := flag.Float64("throttle", 50, "constant throttle in percent")
	noise := flag.Float64("noise", 0, "additive steering noise amplitude")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rows := telemetry.Synthesize(telemetry.SynthOptions{
		Wave:        telemetry.Waveform(*wave),
		DurationMs:  *durationMs,
		SampleMs:    *sampleMs,
		PeriodMs:    *periodMs,
		SteerAmp:    *steerAmp,
		ThrottlePct: *throttle,
		NoiseAmp:    *noise,
		Seed:        *seed,
	})
	if len(rows) == 0 {
		log.Fatal("no rows generated; check -duration and -sample")
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	metrics := []string{telemetry.MetricSteering, telemetry.MetricThrottle}
	if err := telemetry.WriteCSV(f, rows, metrics); err != nil {
		log.Fatalf("failed to write CSV: %v", err)
	}
	log.Printf("✓ Created: %s (%d rows)", *output, len(rows))
}
