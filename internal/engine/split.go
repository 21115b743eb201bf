package engine

// splitCourse is the last-resort degradation: it fragments a course's hours
// one cell at a time, dropping the contiguity requirement, until either the
// full duration is placed or the week is exhausted. Day iteration is
// deterministic under both policies so identical inputs reproduce identical
// results.
func splitCourse(grid *Grid, ci int, c *Course, order SplitOrder) []Slot {
	slots := make([]Slot, 0, c.Duration)
	switch order {
	case SplitSpread:
		// Round-robin over days, at most one hour per day per pass, so
		// fragments scatter across the week instead of piling onto Monday.
		for len(slots) < c.Duration {
			progressed := false
			for day := Monday; day <= Friday && len(slots) < c.Duration; day++ {
				if hour, ok := firstFreeHour(grid, c.Teacher, day); ok {
					grid.Reserve(ci, c.Teacher, day, hour)
					slots = append(slots, Slot{Day: day, Hour: hour})
					progressed = true
				}
			}
			if !progressed {
				break
			}
		}
	default:
		for day := Monday; day <= Friday && len(slots) < c.Duration; day++ {
			end := grid.startHour + grid.hoursPerDay
			for hour := grid.startHour; hour < end && len(slots) < c.Duration; hour++ {
				if grid.IsFree(day, hour) && grid.IsTeacherFree(c.Teacher, day, hour) {
					grid.Reserve(ci, c.Teacher, day, hour)
					slots = append(slots, Slot{Day: day, Hour: hour})
				}
			}
		}
	}
	return slots
}

func firstFreeHour(grid *Grid, teacher string, day Day) (int, bool) {
	end := grid.startHour + grid.hoursPerDay
	for hour := grid.startHour; hour < end; hour++ {
		if grid.IsFree(day, hour) && grid.IsTeacherFree(teacher, day, hour) {
			return hour, true
		}
	}
	return 0, false
}
