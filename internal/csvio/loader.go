// Package csvio loads course rosters from CSV files for the command-line
// front end. Day and time columns carry semicolon-separated labels, e.g.
// "Monday;Wednesday" and "09:00;10:00".
package csvio

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/unisched/timetable-api/internal/dto"
)

type courseRecord struct {
	ID             string `csv:"id"`
	Code           string `csv:"code"`
	Name           string `csv:"name"`
	Teacher        string `csv:"teacher"`
	Duration       int    `csv:"duration"`
	PreferredDays  string `csv:"preferred_days"`
	PreferredTimes string `csv:"preferred_times"`
}

// LoadCourses reads and parses a course roster CSV file.
func LoadCourses(path string) ([]dto.CourseRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open course file: %w", err)
	}
	defer file.Close()

	var records []*courseRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("parse course file %s: %w", path, err)
	}

	courses := make([]dto.CourseRequest, 0, len(records))
	for _, record := range records {
		courses = append(courses, dto.CourseRequest{
			ID:             record.ID,
			Code:           record.Code,
			Name:           record.Name,
			Teacher:        record.Teacher,
			Duration:       record.Duration,
			PreferredDays:  splitLabels(record.PreferredDays),
			PreferredTimes: splitLabels(record.PreferredTimes),
		})
	}
	return courses, nil
}

func splitLabels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}
