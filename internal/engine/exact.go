package engine

import (
	"context"
	"errors"
)

// errBudgetExhausted aborts the exact search when the step budget gives out.
// It is an informational outcome surfaced via Stats, never a caller error.
var errBudgetExhausted = errors.New("exact search budget exhausted")

// ctx cancellation is polled once per this many search steps.
const budgetCheckInterval = 1024

// exactSolver is the depth-first backtracking search. It places courses in
// submission order, reserving a block per course and releasing exactly those
// cells when a subtree fails, so grid state never has to be re-derived.
type exactSolver struct {
	ctx      context.Context
	grid     *Grid
	courses  []Course
	placed   [][]Slot
	maxSteps int
	steps    int
}

func newExactSolver(ctx context.Context, grid *Grid, courses []Course, maxSteps int) *exactSolver {
	return &exactSolver{
		ctx:      ctx,
		grid:     grid,
		courses:  courses,
		placed:   make([][]Slot, len(courses)),
		maxSteps: maxSteps,
	}
}

func (s *exactSolver) step() error {
	s.steps++
	if s.maxSteps > 0 && s.steps > s.maxSteps {
		return errBudgetExhausted
	}
	if s.steps%budgetCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// solve runs depth-first from course index i. It returns true when every
// remaining course is placed and false when the subtree is exhausted;
// budget and context errors abort the whole search.
func (s *exactSolver) solve(i int) (bool, error) {
	if i == len(s.courses) {
		return true, nil
	}
	c := &s.courses[i]
	pattern, group := classify(*c, s.grid.hoursPerDay)
	if pattern == patternDayGroup {
		ok, err := s.solveDayGroup(i, c, group)
		if ok || err != nil {
			return ok, err
		}
		// Symmetric placement found no home anywhere; treat the course
		// like an unconstrained contiguous one before giving up on it.
	}
	if pattern == patternDistributed {
		// Wider than the operating window. No contiguous shape exists, so
		// this index always fails and the orchestrator degrades to the
		// relaxed/split path.
		return false, nil
	}
	return s.solveContiguous(i, c)
}

func (s *exactSolver) solveContiguous(i int, c *Course) (bool, error) {
	for _, day := range candidateDays(c.PreferredDays) {
		for _, start := range candidateStarts(s.grid, c.PreferredHours, c.Duration) {
			if err := s.step(); err != nil {
				return false, err
			}
			if !s.grid.blockFree(c.Teacher, day, start, c.Duration) {
				continue
			}
			s.reserveBlock(i, c, day, start, c.Duration)
			ok, err := s.solve(i + 1)
			if ok || err != nil {
				return ok, err
			}
			s.releaseBlock(i, c, day, start, c.Duration)
		}
	}
	return false, nil
}

func (s *exactSolver) solveDayGroup(i int, c *Course, group []Day) (bool, error) {
	perDay := c.Duration / len(group)
	for _, start := range candidateStarts(s.grid, c.PreferredHours, perDay) {
		if err := s.step(); err != nil {
			return false, err
		}
		fits := true
		for _, day := range group {
			if !s.grid.blockFree(c.Teacher, day, start, perDay) {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		for _, day := range group {
			s.reserveBlock(i, c, day, start, perDay)
		}
		ok, err := s.solve(i + 1)
		if ok || err != nil {
			return ok, err
		}
		for _, day := range group {
			s.releaseBlock(i, c, day, start, perDay)
		}
	}
	return false, nil
}

func (s *exactSolver) reserveBlock(i int, c *Course, day Day, start, length int) {
	for h := start; h < start+length; h++ {
		s.grid.Reserve(i, c.Teacher, day, h)
		s.placed[i] = append(s.placed[i], Slot{Day: day, Hour: h})
	}
}

func (s *exactSolver) releaseBlock(i int, c *Course, day Day, start, length int) {
	for h := start; h < start+length; h++ {
		s.grid.Release(i, c.Teacher, day, h)
	}
	s.placed[i] = s.placed[i][:len(s.placed[i])-length]
}

// placements exports the recorded slots, one placement per course in
// submission order.
func (s *exactSolver) placements() []Placement {
	out := make([]Placement, len(s.courses))
	for i, c := range s.courses {
		out[i] = Placement{CourseID: c.ID, Slots: append([]Slot(nil), s.placed[i]...)}
	}
	return out
}
