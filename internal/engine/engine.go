// Package engine places courses onto a fixed five-day weekly grid without
// teacher double-booking. An exact backtracking search runs first under a
// step budget; a greedy relaxed pass and a slot-splitting degradation path
// pick up whatever the exact search could not finish. The engine owns every
// grid and course copy it touches, so concurrent runs never share state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SplitOrder selects the day iteration policy used when a course's hours
// are fragmented across the week.
type SplitOrder int

const (
	// SplitFixed fills days in Monday..Friday order.
	SplitFixed SplitOrder = iota
	// SplitSpread rotates through days round-robin so fragments land on
	// different days where possible.
	SplitSpread
)

// ParseSplitOrder maps a config label to a SplitOrder, defaulting to fixed.
func ParseSplitOrder(raw string) SplitOrder {
	if strings.EqualFold(strings.TrimSpace(raw), "spread") {
		return SplitSpread
	}
	return SplitFixed
}

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 17
	DefaultMaxSteps  = 200_000
)

// Config tunes a scheduling run. The operating window is fixed per run:
// hours span [StartHour, EndHour).
type Config struct {
	StartHour  int
	EndHour    int
	MaxSteps   int
	SplitOrder SplitOrder
}

// Engine schedules course sets. It carries no mutable state of its own and
// is safe for concurrent use; every Schedule call builds isolated grids.
type Engine struct {
	cfg Config
}

// New validates the operating window and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour = DefaultStartHour
		cfg.EndHour = DefaultEndHour
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.StartHour < 0 || cfg.EndHour > 24 || cfg.EndHour <= cfg.StartHour {
		return nil, fmt.Errorf("engine: invalid operating window %02d:00-%02d:00", cfg.StartHour, cfg.EndHour)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the effective configuration, defaults applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// HoursPerDay returns the number of hourly slots in the operating window.
func (e *Engine) HoursPerDay() int {
	return e.cfg.EndHour - e.cfg.StartHour
}

// Schedule validates the submitted courses and places them on a fresh grid.
// Invalid courses are reported per course and never abort the batch. The
// error return is reserved for context cancellation; placement failure and
// budget exhaustion are carried inside the Result.
func (e *Engine) Schedule(ctx context.Context, courses []Course) (*Result, error) {
	start := time.Now()

	valid := make([]Course, 0, len(courses))
	var invalid []Unplaced
	for _, c := range courses {
		if err := e.validateCourse(c); err != nil {
			invalid = append(invalid, Unplaced{Course: c.clone(), Reason: ReasonValidation, Detail: err.Error()})
			continue
		}
		valid = append(valid, c.clone())
	}

	res := &Result{Unplaced: invalid}

	grid := newGrid(e.cfg)
	solver := newExactSolver(ctx, grid, cloneCourses(valid), e.cfg.MaxSteps)
	ok, err := solver.solve(0)
	res.Stats.ExactSteps = solver.steps
	if err != nil {
		// A deadline on the solve context is a wall-clock budget: abandon
		// the exact search and degrade, same as step exhaustion. Caller
		// cancellation still aborts the run.
		if !errors.Is(err, errBudgetExhausted) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		res.Stats.BudgetExhausted = true
	}

	if ok {
		res.Placements = solver.placements()
		res.Week = grid.snapshot(solver.courses)
	} else {
		res.Stats.FallbackUsed = true
		relaxedCourses := cloneCourses(valid)
		relaxedGrid, outcome := runRelaxed(e.cfg, relaxedCourses)
		res.Placements = orderPlacements(valid, outcome.placements)
		res.Unplaced = append(res.Unplaced, outcome.unplaced...)
		res.Stats.SplitCourses = outcome.splitCourses
		res.Week = relaxedGrid.snapshot(relaxedCourses)
	}

	res.Success = len(res.Unplaced) == 0
	res.Stats.Elapsed = time.Since(start)
	return res, nil
}

// orderPlacements re-sorts the relaxed solver's map back into submission
// order so results stay deterministic and diff-friendly.
func orderPlacements(courses []Course, placements map[string]Placement) []Placement {
	out := make([]Placement, 0, len(placements))
	for _, c := range courses {
		if p, ok := placements[c.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) validateCourse(c Course) error {
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("course code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("course name is required")
	}
	if strings.TrimSpace(c.Teacher) == "" {
		return errors.New("course teacher is required")
	}
	if c.Duration < 1 {
		return fmt.Errorf("duration must be at least 1 hour, got %d", c.Duration)
	}
	for _, d := range c.PreferredDays {
		if d < Monday || d > Friday {
			return fmt.Errorf("preferred day %d outside Monday..Friday", int(d))
		}
	}
	for _, h := range c.PreferredHours {
		if h < e.cfg.StartHour || h >= e.cfg.EndHour {
			return fmt.Errorf("preferred hour %02d:00 outside operating window %02d:00-%02d:00", h, e.cfg.StartHour, e.cfg.EndHour)
		}
	}
	return nil
}
