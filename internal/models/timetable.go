package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus is the lifecycle state of a stored timetable version.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is one stored version of a generated weekly timetable.
// Versions are scoped per roster label.
type Timetable struct {
	ID        string          `db:"id" json:"id"`
	Label     string          `db:"label" json:"label"`
	Version   int             `db:"version" json:"version"`
	Status    TimetableStatus `db:"status" json:"status"`
	Meta      types.JSONText  `db:"meta" json:"meta"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// TimetableSlot is one occupied hour of a stored timetable.
type TimetableSlot struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetableId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseName  string    `db:"course_name" json:"courseName"`
	Teacher     string    `db:"teacher" json:"teacher"`
	DayOfWeek   int       `db:"day_of_week" json:"dayOfWeek"`
	Hour        int       `db:"hour" json:"hour"`
	Partial     bool      `db:"partial" json:"partial"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
