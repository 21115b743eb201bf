package engine

import "sort"

// relaxedOutcome collects what the greedy fallback managed to do.
type relaxedOutcome struct {
	placements   map[string]Placement
	splitCourses int
	unplaced     []Unplaced
}

// runRelaxed is the greedy heuristic invoked after the exact search fails or
// runs out of budget. It receives fresh course copies and builds its own
// grid; nothing leaks in from the failed exact attempt. It trades the
// completeness guarantee for termination: each course gets the first
// contiguous block found, and anything without one goes to the split path.
func runRelaxed(cfg Config, courses []Course) (*Grid, relaxedOutcome) {
	grid := newGrid(cfg)
	outcome := relaxedOutcome{placements: make(map[string]Placement, len(courses))}

	order := relaxedOrder(courses)
	for _, ci := range order {
		c := &courses[ci]
		if slots, ok := placeGreedy(grid, ci, c); ok {
			outcome.placements[c.ID] = Placement{CourseID: c.ID, Slots: slots}
			continue
		}
		slots := splitCourse(grid, ci, c, cfg.SplitOrder)
		if len(slots) > 0 {
			outcome.splitCourses++
			outcome.placements[c.ID] = Placement{CourseID: c.ID, Slots: slots, Partial: true}
		}
		if len(slots) < c.Duration {
			outcome.unplaced = append(outcome.unplaced, Unplaced{
				Course: c.clone(),
				Reason: ReasonNoFeasibleSlot,
				Detail: "insufficient free teacher-compatible hours, even split across days",
			})
		}
	}
	return grid, outcome
}

// relaxedOrder sorts longer courses first to reduce fragmentation risk,
// breaking duration ties so that courses with fewer day choices (narrower
// preferences) are placed earlier. No preference means all five days are
// open, the least constrained case.
func relaxedOrder(courses []Course) []int {
	order := make([]int, len(courses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := courses[order[a]], courses[order[b]]
		if ca.Duration != cb.Duration {
			return ca.Duration > cb.Duration
		}
		return dayChoices(ca) < dayChoices(cb)
	})
	return order
}

func dayChoices(c Course) int {
	if len(c.PreferredDays) == 0 {
		return NumDays
	}
	return len(c.PreferredDays)
}

// placeGreedy scans preferred days then the rest, ascending start hours, and
// takes the first contiguous free-and-teacher-free block. Day-group courses
// first get one shot at their symmetric shape.
func placeGreedy(grid *Grid, ci int, c *Course) ([]Slot, bool) {
	pattern, group := classify(*c, grid.hoursPerDay)
	if pattern == patternDayGroup {
		if slots, ok := placeDayGroup(grid, ci, c, group); ok {
			return slots, true
		}
	}
	if pattern == patternDistributed {
		return nil, false
	}
	for _, day := range candidateDays(c.PreferredDays) {
		for _, start := range candidateStarts(grid, c.PreferredHours, c.Duration) {
			if !grid.blockFree(c.Teacher, day, start, c.Duration) {
				continue
			}
			slots := make([]Slot, 0, c.Duration)
			for h := start; h < start+c.Duration; h++ {
				grid.Reserve(ci, c.Teacher, day, h)
				slots = append(slots, Slot{Day: day, Hour: h})
			}
			return slots, true
		}
	}
	return nil, false
}

func placeDayGroup(grid *Grid, ci int, c *Course, group []Day) ([]Slot, bool) {
	perDay := c.Duration / len(group)
	for _, start := range candidateStarts(grid, c.PreferredHours, perDay) {
		fits := true
		for _, day := range group {
			if !grid.blockFree(c.Teacher, day, start, perDay) {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		slots := make([]Slot, 0, c.Duration)
		for _, day := range group {
			for h := start; h < start+perDay; h++ {
				grid.Reserve(ci, c.Teacher, day, h)
				slots = append(slots, Slot{Day: day, Hour: h})
			}
		}
		return slots, true
	}
	return nil, false
}
