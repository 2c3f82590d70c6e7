package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/circuit.report/internal/units"
)

// chartCourse renders the reconstructed course shape as an HTML scatter
// chart. Square axes keep the course geometry undistorted.
func (s *Server) chartCourse(w http.ResponseWriter, r *http.Request) {
	a, sessionID, ok := s.analyzerForRequest(w, r)
	if !ok {
		return
	}
	shape := a.Course()
	if len(shape.Points) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no course shape could be reconstructed")
		return
	}

	data := make([]opts.ScatterData, 0, len(shape.Points))
	maxAbs := 0.0
	for _, p := range shape.Points {
		if abs(p.X) > maxAbs {
			maxAbs = abs(p.X)
		}
		if abs(p.Y) > maxAbs {
			maxAbs = abs(p.Y)
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Time}})
	}

	// Small padding so edge points stay visible.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Course Shape", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Reconstructed Course",
			Subtitle: fmt.Sprintf("session=%s points=%d lap=%s", sessionID, len(data), units.FormatLapTime(shape.LapDurationMs)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(shape.LapDurationMs),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("course", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartLapTimes renders detected lap durations as an HTML bar chart.
func (s *Server) chartLapTimes(w http.ResponseWriter, r *http.Request) {
	a, sessionID, ok := s.analyzerForRequest(w, r)
	if !ok {
		return
	}
	report := a.Laps()
	if len(report.LapTimes) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no lap boundaries detected")
		return
	}

	labels := make([]string, 0, len(report.LapTimes))
	values := make([]opts.BarData, 0, len(report.LapTimes))
	for _, b := range report.LapTimes {
		labels = append(labels, fmt.Sprintf("Lap %d", b.Lap))
		values = append(values, opts.BarData{Value: b.DurationMs / 1000.0})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lap Times", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Lap Times",
			Subtitle: fmt.Sprintf("session=%s method=%s best=%s", sessionID, report.Method,
				units.FormatLapTime(report.PredictedBestLapMs)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	bar.SetXAxis(labels).AddSeries("duration", values)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
