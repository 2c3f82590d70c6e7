// Command course-plot reconstructs a course shape from a telemetry CSV and
// renders it to a PNG.
package main

import (
	"flag"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/circuit.report/internal/analysis"
	"github.com/banshee-data/circuit.report/internal/config"
	"github.com/banshee-data/circuit.report/internal/telemetry"
	"github.com/banshee-data/circuit.report/internal/units"
)

func main() {
	input := flag.String("csv", "", "telemetry CSV file to analyse")
	output := flag.String("o", "course.png", "output PNG path")
	tuningPath := flag.String("tuning", "", "optional tuning config JSON file")
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

	shape := analysis.New(rows, tuning).Course()
	if len(shape.Points) == 0 {
		log.Fatal("no course shape could be reconstructed")
	}

	pts := make(plotter.XYs, 0, len(shape.Points))
	for _, p := range shape.Points {
		pts = append(pts, plotter.XY{X: p.X, Y: p.Y})
	}

	pl := plot.New()
	pl.Title.Text = "Reconstructed Course (lap " + units.FormatLapTime(shape.LapDurationMs) + ")"
	pl.X.Label.Text = "x"
	pl.Y.Label.Text = "y"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build line plot: %v", err)
	}
	line.Width = vg.Points(1.5)
	pl.Add(line)

	// Mark the canonical start point.
	start, err := plotter.NewScatter(plotter.XYs{{X: shape.Points[0].X, Y: shape.Points[0].Y}})
	if err != nil {
		log.Fatalf("failed to build start marker: %v", err)
	}
	pl.Add(start)

	if err := pl.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("✓ Created: %s (%d points)", *output, len(pts))
}
