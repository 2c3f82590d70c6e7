// Package telemetry defines the sampled telemetry rows consumed by the
// analysis pipeline, the well-known metric names recorded in them, and the
// CSV session format used to move sessions in and out of the system.
package telemetry

// Well-known metric names. Steering and throttle are signed percentages in
// [-100, 100]; lap is an optional 1-based lap label supplied by recorders
// that already know lap boundaries.
const (
	MetricSteering = "steering_pct"
	MetricThrottle = "throttle_pct"
	MetricBrake    = "brake_pct"
	MetricLap      = "lap"
)

// Row is a single telemetry sample: elapsed recording time in milliseconds
// plus a mapping of named numeric metrics. Rows are immutable inputs to the
// analysis stages; callers supply them ordered by TimeMs.
type Row struct {
	TimeMs float64            `json:"time_ms"`
	Values map[string]float64 `json:"values"`
}

// Metric returns the named metric value and whether the row carries it.
func (r Row) Metric(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Series extracts the named metric across rows. Rows missing the metric
// contribute 0 so the result stays index-aligned with the row slice.
func Series(rows []Row, name string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Values[name]
	}
	return out
}

// HasMetric reports whether any row carries the named metric.
func HasMetric(rows []Row, name string) bool {
	for _, r := range rows {
		if _, ok := r.Values[name]; ok {
			return true
		}
	}
	return false
}

// DurationMs returns the elapsed time between the first and last row.
func DurationMs(rows []Row) float64 {
	if len(rows) < 2 {
		return 0
	}
	return rows[len(rows)-1].TimeMs - rows[0].TimeMs
}

// Rebase returns a copy of rows with TimeMs shifted so the first row starts
// at originMs = 0. The metric maps are shared, not copied; analysis stages
// treat them as read-only.
func Rebase(rows []Row, originMs float64) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{TimeMs: r.TimeMs - originMs, Values: r.Values}
	}
	return out
}

// Window returns the contiguous rows with TimeMs in [startMs, endMs].
func Window(rows []Row, startMs, endMs float64) []Row {
	var out []Row
	for _, r := range rows {
		if r.TimeMs < startMs {
			continue
		}
		if r.TimeMs > endMs {
			break
		}
		out = append(out, r)
	}
	return out
}
