package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Timetable is a rendered weekly grid: one row per operating hour, one
// column per day. Cells carry display text, empty string for free slots.
type Timetable struct {
	Title string
	Days  []string
	Hours []string
	Cells [][]string
}

func (t Timetable) validate() error {
	if len(t.Days) == 0 || len(t.Hours) == 0 {
		return fmt.Errorf("timetable requires days and hours")
	}
	if len(t.Cells) != len(t.Hours) {
		return fmt.Errorf("timetable has %d cell rows for %d hours", len(t.Cells), len(t.Hours))
	}
	for i, row := range t.Cells {
		if len(row) != len(t.Days) {
			return fmt.Errorf("timetable row %d has %d cells for %d days", i, len(row), len(t.Days))
		}
	}
	return nil
}

// CSVExporter renders a weekly timetable into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV with a "Time" column followed by one column per day.
func (e *CSVExporter) Render(table Timetable) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	header := append([]string{"Time"}, table.Days...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, hour := range table.Hours {
		record := append([]string{hour}, table.Cells[i]...)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
