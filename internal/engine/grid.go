package engine

import "fmt"

// Grid is the weekly slot matrix for a single solving attempt, backed by a
// flat array indexed by (day, hour). The per-teacher occupancy index is
// derived state updated in lockstep with the cells; the two never diverge.
// Grids are created fresh per attempt and are not safe for concurrent use.
type Grid struct {
	startHour   int
	hoursPerDay int
	cells       []int
	teachers    map[string][]bool
}

func newGrid(cfg Config) *Grid {
	hours := cfg.EndHour - cfg.StartHour
	cells := make([]int, NumDays*hours)
	for i := range cells {
		cells[i] = -1
	}
	return &Grid{
		startHour:   cfg.StartHour,
		hoursPerDay: hours,
		cells:       cells,
		teachers:    make(map[string][]bool),
	}
}

func (g *Grid) index(day Day, hour int) int {
	offset := hour - g.startHour
	if day < Monday || day > Friday || offset < 0 || offset >= g.hoursPerDay {
		panic(fmt.Sprintf("engine: slot (%s, %02d:00) outside the operating grid", day, hour))
	}
	return int(day)*g.hoursPerDay + offset
}

// IsFree reports whether the cell holds no course.
func (g *Grid) IsFree(day Day, hour int) bool {
	return g.cells[g.index(day, hour)] < 0
}

// IsTeacherFree reports whether the teacher has no reservation at the cell.
func (g *Grid) IsTeacherFree(teacher string, day Day, hour int) bool {
	busy, ok := g.teachers[teacher]
	if !ok {
		return true
	}
	return !busy[g.index(day, hour)]
}

// Reserve occupies a cell for the course at index ci. Reserving an occupied
// cell or double-booking a teacher is a defect in the caller, not a
// recoverable condition, and panics.
func (g *Grid) Reserve(ci int, teacher string, day Day, hour int) {
	idx := g.index(day, hour)
	if held := g.cells[idx]; held >= 0 {
		panic(fmt.Sprintf("engine: cell (%s, %02d:00) already reserved by course %d", day, hour, held))
	}
	busy := g.teachers[teacher]
	if busy == nil {
		busy = make([]bool, len(g.cells))
		g.teachers[teacher] = busy
	}
	if busy[idx] {
		panic(fmt.Sprintf("engine: teacher %q already booked at (%s, %02d:00)", teacher, day, hour))
	}
	g.cells[idx] = ci
	busy[idx] = true
}

// Release frees a cell previously reserved for course ci.
func (g *Grid) Release(ci int, teacher string, day Day, hour int) {
	idx := g.index(day, hour)
	if g.cells[idx] != ci {
		panic(fmt.Sprintf("engine: cell (%s, %02d:00) not held by course %d", day, hour, ci))
	}
	g.cells[idx] = -1
	g.teachers[teacher][idx] = false
}

// blockFree reports whether length consecutive hours starting at start are
// both grid-free and teacher-free on the given day.
func (g *Grid) blockFree(teacher string, day Day, start, length int) bool {
	if start < g.startHour || start+length > g.startHour+g.hoursPerDay {
		return false
	}
	for h := start; h < start+length; h++ {
		if !g.IsFree(day, h) || !g.IsTeacherFree(teacher, day, h) {
			return false
		}
	}
	return true
}

func (g *Grid) lastStart(length int) int {
	return g.startHour + g.hoursPerDay - length
}

// snapshot freezes the grid into an exportable week matrix of course IDs.
func (g *Grid) snapshot(courses []Course) WeekGrid {
	cells := make([][]string, NumDays)
	for d := 0; d < NumDays; d++ {
		row := make([]string, g.hoursPerDay)
		for h := 0; h < g.hoursPerDay; h++ {
			if ci := g.cells[d*g.hoursPerDay+h]; ci >= 0 {
				row[h] = courses[ci].ID
			}
		}
		cells[d] = row
	}
	return WeekGrid{StartHour: g.startHour, Cells: cells}
}
