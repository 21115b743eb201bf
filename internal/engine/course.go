package engine

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday ordinal inside the scheduling grid.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// NumDays is the number of schedulable days per week.
const NumDays = 5

var dayNames = [NumDays]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (d Day) String() string {
	if d < Monday || d > Friday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

var dayAliases = map[string]Day{
	"mon": Monday, "monday": Monday,
	"tue": Tuesday, "tuesday": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday,
	"thu": Thursday, "thursday": Thursday,
	"fri": Friday, "friday": Friday,
}

// ParseDay resolves a day label ("Mon", "monday", ...) to its ordinal.
func ParseDay(raw string) (Day, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

// Course is a unit of teaching load needing Duration hours on the grid.
// Courses handed to Schedule are never mutated; the engine works on
// internally owned copies.
type Course struct {
	ID             string
	Code           string
	Name           string
	Teacher        string
	Duration       int
	PreferredDays  []Day
	PreferredHours []int
}

func (c Course) clone() Course {
	out := c
	if len(c.PreferredDays) > 0 {
		out.PreferredDays = append([]Day(nil), c.PreferredDays...)
	}
	if len(c.PreferredHours) > 0 {
		out.PreferredHours = append([]int(nil), c.PreferredHours...)
	}
	return out
}

func cloneCourses(courses []Course) []Course {
	out := make([]Course, len(courses))
	for i, c := range courses {
		out[i] = c.clone()
	}
	return out
}

// Slot addresses a single (day, hour) cell of the weekly grid.
type Slot struct {
	Day  Day `json:"day"`
	Hour int `json:"hour"`
}

// Placement holds the cells assigned to one course. Partial marks hours
// fragmented by the split fallback, so renderers can draw them as
// discontinuous.
type Placement struct {
	CourseID string `json:"courseId"`
	Slots    []Slot `json:"slots"`
	Partial  bool   `json:"partial"`
}

// Reason classifies why a course appears in the unplaced list.
type Reason string

const (
	ReasonValidation     Reason = "VALIDATION_ERROR"
	ReasonNoFeasibleSlot Reason = "NO_FEASIBLE_SLOT"
)

// Unplaced pairs a course with the reason it could not be fully placed.
type Unplaced struct {
	Course Course `json:"course"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Stats reports how a result was obtained. BudgetExhausted and FallbackUsed
// are informational outcomes, not errors.
type Stats struct {
	ExactSteps      int           `json:"exactSteps"`
	BudgetExhausted bool          `json:"budgetExhausted"`
	FallbackUsed    bool          `json:"fallbackUsed"`
	SplitCourses    int           `json:"splitCourses"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Result is the outcome of one scheduling run. Success is true only when
// every submitted course achieved a full, possibly split, placement.
type Result struct {
	Success    bool        `json:"success"`
	Placements []Placement `json:"placements"`
	Unplaced   []Unplaced  `json:"unplaced"`
	Week       WeekGrid    `json:"week"`
	Stats      Stats       `json:"stats"`
}

// PlacementFor returns the placement recorded for the course id, if any.
func (r *Result) PlacementFor(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.CourseID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// WeekGrid is an immutable snapshot of the final grid, day-major, holding
// course IDs with "" for free cells.
type WeekGrid struct {
	StartHour int        `json:"startHour"`
	Cells     [][]string `json:"cells"`
}

// CourseAt returns the course id occupying (day, hour), or "".
func (w WeekGrid) CourseAt(day Day, hour int) string {
	offset := hour - w.StartHour
	if day < Monday || day > Friday || offset < 0 || int(day) >= len(w.Cells) || offset >= len(w.Cells[day]) {
		return ""
	}
	return w.Cells[day][offset]
}
