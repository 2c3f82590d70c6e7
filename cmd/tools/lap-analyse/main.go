// Command lap-analyse runs the full analysis pipeline over a telemetry CSV
// and prints the lap report and course summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/circuit.report/internal/analysis"
	"github.com/banshee-data/circuit.report/internal/config"
	"github.com/banshee-data/circuit.report/internal/telemetry"
	"github.com/banshee-data/circuit.report/internal/units"
)

func main() {
	input := flag.String("csv", "", "telemetry CSV file to analyse")
	tuningPath := flag.String("tuning", "", "optional tuning config JSON file")
	asJSON := flag.Bool("json", false, "emit the full report as JSON")
	flag.Parse()

	if *input == "" {
		log.Fatal("-csv is required")
	}

	tuning := config.DefaultTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *input, err)
	}
	defer f.Close()

	rows, err := telemetry.ReadCSV(f)
	if err != nil {
		log.Fatalf("failed to parse %s: %v", *input, err)
	}

	a := analysis.New(rows, tuning)
	report := a.Laps()
	shape := a.Course()

	if *asJSON {
		out := struct {
			Laps   analysis.LapReport `json:"laps"`
			Course struct {
				PointCount    int     `json:"point_count"`
				LapDurationMs float64 `json:"lap_duration_ms"`
			} `json:"course"`
		}{Laps: report}
		out.Course.PointCount = len(shape.Points)
		out.Course.LapDurationMs = shape.LapDurationMs
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode report: %v", err)
		}
		return
	}

	fmt.Printf("rows:            %d\n", len(rows))
	fmt.Printf("detected period: %s (confidence %s)\n",
		units.FormatLapTime(report.DetectedPeriodMs), confidenceLabel(report.LowConfidence))
	fmt.Printf("method:          %s\n", report.Method)
	fmt.Printf("laps:            %d\n", report.PredictedLapCount)
	for _, b := range report.LapTimes {
		fmt.Printf("  lap %2d  %s\n", b.Lap, units.FormatLapTime(b.DurationMs))
	}
	if report.PredictedLapCount > 0 {
		fmt.Printf("best lap:        %s\n", units.FormatLapTime(report.PredictedBestLapMs))
		fmt.Printf("average lap:     %s\n", units.FormatLapTime(report.PredictedAverageLapMs))
	}
	fmt.Printf("course points:   %d\n", len(shape.Points))
}

func confidenceLabel(low bool) string {
	if low {
		return "low"
	}
	return "ok"
}
