package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	eng, err := New(cfg)
	require.NoError(t, err)
	return eng
}

func course(id, teacher string, duration int) Course {
	return Course{
		ID:       id,
		Code:     "C-" + id,
		Name:     "Course " + id,
		Teacher:  teacher,
		Duration: duration,
	}
}

// assertInvariants checks the uniqueness, no-double-booking, and contiguity
// guarantees over a result.
func assertInvariants(t *testing.T, res *Result, courses []Course) {
	t.Helper()
	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	cellOwner := make(map[Slot]string)
	teacherCells := make(map[string]map[Slot]bool)
	for _, p := range res.Placements {
		c, ok := byID[p.CourseID]
		require.True(t, ok, "placement for unknown course %s", p.CourseID)
		for _, s := range p.Slots {
			owner, taken := cellOwner[s]
			require.False(t, taken, "cell %v assigned to both %s and %s", s, owner, p.CourseID)
			cellOwner[s] = p.CourseID

			if teacherCells[c.Teacher] == nil {
				teacherCells[c.Teacher] = make(map[Slot]bool)
			}
			require.False(t, teacherCells[c.Teacher][s], "teacher %s double-booked at %v", c.Teacher, s)
			teacherCells[c.Teacher][s] = true
		}
		if !p.Partial {
			assert.Len(t, p.Slots, c.Duration, "course %s placement count", p.CourseID)
			assertContiguousShape(t, p)
		}
	}
}

// assertContiguousShape verifies a non-split placement is either a single
// contiguous block or a symmetric day-group (equal-length blocks, same start
// hour, one per day).
func assertContiguousShape(t *testing.T, p Placement) {
	t.Helper()
	perDay := make(map[Day][]int)
	for _, s := range p.Slots {
		perDay[s.Day] = append(perDay[s.Day], s.Hour)
	}
	starts := make(map[int]bool)
	length := -1
	for day, hours := range perDay {
		for i := 1; i < len(hours); i++ {
			require.Equal(t, hours[i-1]+1, hours[i], "course %s hours not contiguous on %s", p.CourseID, day)
		}
		if length == -1 {
			length = len(hours)
		}
		require.Equal(t, length, len(hours), "course %s day blocks differ in length", p.CourseID)
		starts[hours[0]] = true
	}
	if len(perDay) > 1 {
		require.Len(t, starts, 1, "course %s day-group blocks start at different hours", p.CourseID)
	}
}

func TestScheduleSingleCourseEarliestMondayBlock(t *testing.T) {
	eng := newTestEngine(t, Config{})
	courses := []Course{course("phys", "Dr. Brown", 3)}

	res, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Placements, 1)

	want := []Slot{{Monday, 8}, {Monday, 9}, {Monday, 10}}
	assert.Equal(t, want, res.Placements[0].Slots)
	assert.False(t, res.Placements[0].Partial)
	assert.Equal(t, "phys", res.Week.CourseAt(Monday, 8))
}

func TestSchedulePreferredDayOrdersCandidates(t *testing.T) {
	eng := newTestEngine(t, Config{})
	c := course("hist", "Dr. Lee", 2)
	c.PreferredDays = []Day{Wednesday}

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []Slot{{Wednesday, 8}, {Wednesday, 9}}, res.Placements[0].Slots)
}

func TestSchedulePreferredHourTriedFirst(t *testing.T) {
	eng := newTestEngine(t, Config{})
	c := course("lab", "Dr. Wu", 2)
	c.PreferredHours = []int{13}

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []Slot{{Monday, 13}, {Monday, 14}}, res.Placements[0].Slots)
}

func TestScheduleInfeasiblePreferenceStillPlaces(t *testing.T) {
	// Preferences order the search; they must never become hard filters.
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 11})
	blocker := course("blocker", "Dr. Kim", 3)
	blocker.PreferredDays = []Day{Monday}
	wants := course("wants-monday", "Dr. Kim", 3)
	wants.PreferredDays = []Day{Monday}

	res, err := eng.Schedule(context.Background(), []Course{blocker, wants})
	require.NoError(t, err)
	require.True(t, res.Success)
	p, ok := res.PlacementFor("wants-monday")
	require.True(t, ok)
	assert.NotEqual(t, Monday, p.Slots[0].Day, "second course must spill off the shared preferred day")
	assertInvariants(t, res, []Course{blocker, wants})
}

func TestScheduleSameTeacherNeverOverlaps(t *testing.T) {
	eng := newTestEngine(t, Config{})
	a := course("a", "Prof. Smith", 3)
	a.PreferredDays = []Day{Tuesday}
	a.PreferredHours = []int{9}
	b := course("b", "Prof. Smith", 3)
	b.PreferredDays = []Day{Tuesday}
	b.PreferredHours = []int{9}

	res, err := eng.Schedule(context.Background(), []Course{a, b})
	require.NoError(t, err)
	assertInvariants(t, res, []Course{a, b})
	require.True(t, res.Success, "grid has room, both courses must land somewhere")
}

func TestScheduleDayGroupPattern(t *testing.T) {
	eng := newTestEngine(t, Config{})
	c := course("cs101", "Prof. Smith", 3)
	c.PreferredDays = []Day{Monday, Wednesday, Friday}

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	want := []Slot{{Monday, 8}, {Wednesday, 8}, {Friday, 8}}
	assert.Equal(t, want, res.Placements[0].Slots)
	assertInvariants(t, res, []Course{c})
}

func TestScheduleTuesdayThursdayGroup(t *testing.T) {
	eng := newTestEngine(t, Config{})
	c := course("chem", "Dr. Wilson", 4)
	c.PreferredDays = []Day{Tuesday, Thursday}

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	want := []Slot{{Tuesday, 8}, {Tuesday, 9}, {Thursday, 8}, {Thursday, 9}}
	assert.Equal(t, want, res.Placements[0].Slots)
}

func TestScheduleOverloadReportsUnplaced(t *testing.T) {
	// 5 days x 2 hours = 10 slots; 12 requested hours cannot all fit.
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 10})
	var courses []Course
	for i := 0; i < 6; i++ {
		courses = append(courses, course(fmt.Sprintf("c%d", i), fmt.Sprintf("t%d", i), 2))
	}

	res, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err)
	assert.False(t, res.Success, "engine must not silently drop a course")
	assert.NotEmpty(t, res.Unplaced)
	assertInvariants(t, res, courses)
}

func TestScheduleValidationPerCourse(t *testing.T) {
	eng := newTestEngine(t, Config{})

	noCode := course("no-code", "Dr. A", 2)
	noCode.Code = " "
	zeroDuration := course("zero", "Dr. B", 0)
	badDay := course("bad-day", "Dr. C", 1)
	badDay.PreferredDays = []Day{Day(6)}
	badHour := course("bad-hour", "Dr. D", 1)
	badHour.PreferredHours = []int{7}
	valid := course("ok", "Dr. E", 2)

	res, err := eng.Schedule(context.Background(), []Course{noCode, zeroDuration, badDay, badHour, valid})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Unplaced, 4)
	for _, u := range res.Unplaced {
		assert.Equal(t, ReasonValidation, u.Reason)
		assert.NotEmpty(t, u.Detail)
	}

	// The invalid entries must not abort the rest of the batch.
	p, ok := res.PlacementFor("ok")
	require.True(t, ok)
	assert.Len(t, p.Slots, 2)
}

func TestScheduleDeterministic(t *testing.T) {
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 12})
	var courses []Course
	for i := 0; i < 8; i++ {
		c := course(fmt.Sprintf("c%d", i), fmt.Sprintf("t%d", i%3), 1+i%3)
		if i%2 == 0 {
			c.PreferredDays = []Day{Day(i % NumDays)}
		}
		courses = append(courses, c)
	}

	first, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err)
	second, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err)

	// Elapsed wall time is the only field allowed to differ.
	first.Stats.Elapsed = 0
	second.Stats.Elapsed = 0
	assert.Equal(t, first, second)
}

func TestScheduleMonotonicUnderLoadRelaxation(t *testing.T) {
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 12})
	var courses []Course
	for i := 0; i < 5; i++ {
		courses = append(courses, course(fmt.Sprintf("c%d", i), fmt.Sprintf("t%d", i%2), 3))
	}
	full, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err)
	require.True(t, full.Success)

	for drop := range courses {
		reduced := make([]Course, 0, len(courses)-1)
		for i, c := range courses {
			if i != drop {
				reduced = append(reduced, c)
			}
		}
		res, err := eng.Schedule(context.Background(), reduced)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Unplaced), len(full.Unplaced),
			"removing course %d must not increase the unplaced count", drop)
	}
}

func TestScheduleBudgetExhaustionFallsBack(t *testing.T) {
	eng := newTestEngine(t, Config{MaxSteps: 1})
	courses := []Course{course("a", "t1", 2), course("b", "t2", 2)}

	res, err := eng.Schedule(context.Background(), courses)
	require.NoError(t, err, "budget exhaustion is informational, never an error")
	assert.True(t, res.Stats.BudgetExhausted)
	assert.True(t, res.Stats.FallbackUsed)
	assert.True(t, res.Success, "greedy fallback has ample room here")
	assertInvariants(t, res, courses)
}

func TestScheduleSplitDegradation(t *testing.T) {
	// Two operating hours per day: a 4-hour course has no contiguous home
	// and must fragment across days.
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 10})
	c := course("marathon", "Dr. Long", 4)

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Placements, 1)
	p := res.Placements[0]
	assert.True(t, p.Partial, "split placements must be flagged for renderers")
	assert.Len(t, p.Slots, 4)
	assert.Equal(t, 1, res.Stats.SplitCourses)
	// Fixed day order: Monday fills completely before Tuesday is touched.
	want := []Slot{{Monday, 8}, {Monday, 9}, {Tuesday, 8}, {Tuesday, 9}}
	assert.Equal(t, want, p.Slots)
}

func TestScheduleSplitSpreadPolicy(t *testing.T) {
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 10, SplitOrder: SplitSpread})
	c := course("marathon", "Dr. Long", 4)

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	require.True(t, res.Success)
	want := []Slot{{Monday, 8}, {Tuesday, 8}, {Wednesday, 8}, {Thursday, 8}}
	assert.Equal(t, want, res.Placements[0].Slots)
}

func TestSchedulePartialSplitReportedUnplaced(t *testing.T) {
	// One hour per day and a six-hour course: only five hours can ever be
	// placed, so the course is partial and reported unplaced.
	eng := newTestEngine(t, Config{StartHour: 8, EndHour: 9})
	c := course("giant", "Dr. Big", 6)

	res, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, ReasonNoFeasibleSlot, res.Unplaced[0].Reason)
	require.Len(t, res.Placements, 1)
	assert.True(t, res.Placements[0].Partial)
	assert.Len(t, res.Placements[0].Slots, 5, "best-effort hours stay on the grid")
}

func TestScheduleContextCancellation(t *testing.T) {
	eng := newTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Enough same-teacher full-day courses to guarantee the search passes a
	// cancellation checkpoint before exhausting.
	var courses []Course
	for i := 0; i < 8; i++ {
		courses = append(courses, course(fmt.Sprintf("c%d", i), "solo", 9))
	}
	_, err := eng.Schedule(ctx, courses)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScheduleDeadlineDegradesToFallback(t *testing.T) {
	eng := newTestEngine(t, Config{})
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	var courses []Course
	for i := 0; i < 8; i++ {
		courses = append(courses, course(fmt.Sprintf("c%d", i), "solo", 9))
	}
	res, err := eng.Schedule(ctx, courses)
	require.NoError(t, err)
	assert.True(t, res.Stats.BudgetExhausted)
	assert.True(t, res.Stats.FallbackUsed)
}

func TestScheduleDoesNotMutateCallerCourses(t *testing.T) {
	eng := newTestEngine(t, Config{})
	c := course("imm", "Dr. Const", 2)
	c.PreferredDays = []Day{Friday}
	original := c.clone()

	_, err := eng.Schedule(context.Background(), []Course{c})
	require.NoError(t, err)
	assert.Equal(t, original, c)
}

func TestScheduleIsolatedConcurrentRuns(t *testing.T) {
	eng := newTestEngine(t, Config{})
	courses := []Course{course("x", "t", 3), course("y", "t", 2)}

	done := make(chan *Result, 4)
	for i := 0; i < 4; i++ {
		go func() {
			res, err := eng.Schedule(context.Background(), courses)
			require.NoError(t, err)
			done <- res
		}()
	}
	var results []*Result
	for i := 0; i < 4; i++ {
		results = append(results, <-done)
	}
	for _, res := range results[1:] {
		res.Stats.Elapsed = results[0].Stats.Elapsed
		assert.Equal(t, results[0], res)
	}
}

func TestNewRejectsInvalidWindow(t *testing.T) {
	_, err := New(Config{StartHour: 12, EndHour: 9})
	require.Error(t, err)
	_, err = New(Config{StartHour: 8, EndHour: 25})
	require.Error(t, err)
}
