package dto

// CourseRequest is a single course submitted for timetabling. Days are
// submitted as labels ("Monday" or "Mon"), hours as "HH:00" labels.
type CourseRequest struct {
	ID             string   `json:"id"`
	Code           string   `json:"code" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Teacher        string   `json:"teacher" validate:"required"`
	Duration       int      `json:"duration" validate:"required,min=1"`
	PreferredDays  []string `json:"preferredDays" validate:"omitempty,dive,required"`
	PreferredTimes []string `json:"preferredTimes" validate:"omitempty,dive,required"`
}

// GenerateScheduleRequest is the payload for the generator endpoint.
type GenerateScheduleRequest struct {
	Courses          []CourseRequest `json:"courses" validate:"required,min=1,max=256,dive"`
	TimeLimitSeconds int             `json:"timeLimitSeconds" validate:"omitempty,min=1,max=300"`
	SplitOrder       string          `json:"splitOrder" validate:"omitempty,oneof=fixed spread"`
}

// SlotResponse is one occupied hour of the weekly grid.
type SlotResponse struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// PlacementResponse lists the slots assigned to one course.
type PlacementResponse struct {
	CourseID   string         `json:"courseId"`
	CourseCode string         `json:"courseCode"`
	CourseName string         `json:"courseName"`
	Teacher    string         `json:"teacher"`
	Slots      []SlotResponse `json:"slots"`
	Partial    bool           `json:"partial"`
}

// UnplacedCourse reports a course the solver could not fully place.
type UnplacedCourse struct {
	CourseID   string `json:"courseId"`
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// ScheduleStats summarizes the solver run.
type ScheduleStats struct {
	ExactSteps      int    `json:"exactSteps"`
	BudgetExhausted bool   `json:"budgetExhausted"`
	FallbackUsed    bool   `json:"fallbackUsed"`
	SplitCourses    int    `json:"splitCourses"`
	SolveTime       string `json:"solveTime"`
}

// WeekResponse is the rendered weekly grid: one row per operating hour,
// one column per day, cell values are course codes ("" when free).
type WeekResponse struct {
	Days  []string   `json:"days"`
	Hours []string   `json:"hours"`
	Cells [][]string `json:"cells"`
}

// GenerateScheduleResponse is the generator result envelope payload.
type GenerateScheduleResponse struct {
	ProposalID     string              `json:"proposalId"`
	Success        bool                `json:"success"`
	Status         string              `json:"status"`
	ScheduledCount int                 `json:"scheduledCount"`
	TotalCount     int                 `json:"totalCount"`
	Placements     []PlacementResponse `json:"placements"`
	Unplaced       []UnplacedCourse    `json:"unplaced"`
	Week           WeekResponse        `json:"week"`
	Stats          ScheduleStats       `json:"stats"`
}

// SaveScheduleRequest persists a previously generated proposal under a
// roster label (versioned per label).
type SaveScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Label      string `json:"label" validate:"required,max=120"`
	Publish    bool   `json:"publish"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	Label string `form:"label" validate:"required"`
}
