package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/circuit.report/internal/signal"
)

// TimeColumn is the required CSV column holding elapsed milliseconds.
const TimeColumn = "time_ms"

// ReadCSV parses a telemetry session from CSV. The first record is a header
// naming the time column plus one column per metric; every other column
// value is parsed leniently via signal.Value, so units suffixes like "%"
// are tolerated. Rows are returned in file order.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty telemetry file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	timeIdx := -1
	for i, name := range header {
		if name == TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("missing required %q column", TimeColumn)
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(rows)+2, err)
		}
		row := Row{
			TimeMs: signal.Value(record[timeIdx]),
			Values: make(map[string]float64, len(header)-1),
		}
		for i, name := range header {
			if i == timeIdx || i >= len(record) {
				continue
			}
			row.Values[name] = signal.Value(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes rows as CSV with the given metric columns after the time
// column. Metrics absent from a row are written as 0 to keep the file
// rectangular.
func WriteCSV(w io.Writer, rows []Row, metrics []string) error {
	cw := csv.NewWriter(w)
	header := append([]string{TimeColumn}, metrics...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		record[0] = formatFloat(row.TimeMs)
		for i, name := range metrics {
			record[i+1] = formatFloat(row.Values[name])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
