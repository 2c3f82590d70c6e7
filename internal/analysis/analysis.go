// Package analysis ties the detection stages into one batch pipeline:
// rows in, lap report and course shape out. Every method is a pure
// function of the rows and tuning snapshot captured at construction, so
// two overlapping analyses never share mutable state.
package analysis

import (
	"math"

	"github.com/banshee-data/circuit.report/internal/config"
	"github.com/banshee-data/circuit.report/internal/course"
	"github.com/banshee-data/circuit.report/internal/laps"
	"github.com/banshee-data/circuit.report/internal/period"
	"github.com/banshee-data/circuit.report/internal/telemetry"
)

// Analyzer runs the full pipeline over one session snapshot.
type Analyzer struct {
	rows   []telemetry.Row
	tuning *config.Tuning
}

// New captures the session rows and tuning for analysis. The rows slice is
// copied so a caller replacing its buffer cannot corrupt an in-flight
// analysis.
func New(rows []telemetry.Row, tuning *config.Tuning) *Analyzer {
	if tuning == nil {
		tuning = config.DefaultTuning()
	}
	return &Analyzer{
		rows:   append([]telemetry.Row(nil), rows...),
		tuning: tuning,
	}
}

// LapReport summarises periodicity detection and lap boundary location for
// a session.
type LapReport struct {
	PredictedLapCount     int             `json:"predicted_lap_count"`
	PredictedBestLapMs    float64         `json:"predicted_best_lap_ms"`
	PredictedAverageLapMs float64         `json:"predicted_average_lap_ms"`
	DetectedPeriodMs      float64         `json:"detected_period_ms"`
	LapTimes              []laps.Boundary `json:"lap_times"`
	LowConfidence         bool            `json:"low_confidence,omitempty"`
	Method                laps.Method     `json:"method,omitempty"`
}

// Laps runs periodicity detection and boundary location. Without a usable
// period estimate the report is empty with MethodNone; a low-confidence
// estimate still produces boundaries but carries the flag through.
func (a *Analyzer) Laps() LapReport {
	est := period.Detect(a.rows)
	if est.PeriodMs <= 0 {
		return LapReport{Method: laps.MethodNone}
	}

	bounds, method := laps.Detect(a.rows, est.PeriodMs)

	report := LapReport{
		PredictedLapCount: len(bounds),
		DetectedPeriodMs:  est.PeriodMs,
		LapTimes:          bounds,
		LowConfidence:     est.LowConfidence || method == laps.MethodInterval,
		Method:            method,
	}
	if len(bounds) > 0 {
		best := math.Inf(1)
		var total float64
		for _, b := range bounds {
			if b.DurationMs < best {
				best = b.DurationMs
			}
			total += b.DurationMs
		}
		report.PredictedBestLapMs = best
		report.PredictedAverageLapMs = total / float64(len(bounds))
	}
	return report
}

// Course reconstructs the canonical course shape, feeding the detected
// period and boundaries into the reconstruction options.
func (a *Analyzer) Course() course.Shape {
	est := period.Detect(a.rows)
	opts := a.tuning.CourseOptions()
	opts.PeriodMs = est.PeriodMs
	if est.PeriodMs > 0 {
		if bounds, _ := laps.Detect(a.rows, est.PeriodMs); len(bounds) > 0 {
			opts.Boundaries = bounds
		}
	}
	return course.Build(a.rows, opts)
}

// Period exposes the raw periodicity estimate.
func (a *Analyzer) Period() period.Estimate {
	return period.Detect(a.rows)
}
