package engine

// placementPattern is the closed set of shapes a course placement can take.
// The shape is a pure function of (duration, preferredDays); it never
// inspects grid state.
type placementPattern int

const (
	// patternContiguous places one hour-contiguous block on a single day.
	patternContiguous placementPattern = iota
	// patternDayGroup mirrors the same block start across a named day group
	// (Mon/Wed/Fri or Tue/Thu), the classic lecture cadence.
	patternDayGroup
	// patternDistributed marks a course wider than the operating window;
	// only the split path can take it.
	patternDistributed
)

var (
	mwfGroup = []Day{Monday, Wednesday, Friday}
	tthGroup = []Day{Tuesday, Thursday}
)

func classify(c Course, hoursPerDay int) (placementPattern, []Day) {
	if group := matchDayGroup(c.PreferredDays); group != nil {
		if c.Duration%len(group) == 0 && c.Duration/len(group) <= hoursPerDay {
			return patternDayGroup, group
		}
	}
	if c.Duration > hoursPerDay {
		return patternDistributed, nil
	}
	return patternContiguous, nil
}

func matchDayGroup(days []Day) []Day {
	if sameDaySet(days, mwfGroup) {
		return mwfGroup
	}
	if sameDaySet(days, tthGroup) {
		return tthGroup
	}
	return nil
}

func sameDaySet(a, b []Day) bool {
	if len(a) != len(b) {
		return false
	}
	var seen [NumDays]bool
	for _, d := range a {
		seen[d] = true
	}
	for _, d := range b {
		if !seen[d] {
			return false
		}
	}
	return true
}

// candidateDays yields preferred days first, in fixed Monday..Friday order,
// then the remaining days. Preferences order the search; they never filter
// a day out entirely.
func candidateDays(preferred []Day) []Day {
	if len(preferred) == 0 {
		return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
	}
	var pref [NumDays]bool
	for _, d := range preferred {
		pref[d] = true
	}
	days := make([]Day, 0, NumDays)
	for d := Monday; d <= Friday; d++ {
		if pref[d] {
			days = append(days, d)
		}
	}
	for d := Monday; d <= Friday; d++ {
		if !pref[d] {
			days = append(days, d)
		}
	}
	return days
}

// candidateStarts yields every start hour that keeps a length-hour block
// inside the operating window, ascending, with preferred start hours moved
// to the front (stable within each half).
func candidateStarts(g *Grid, preferred []int, length int) []int {
	last := g.lastStart(length)
	if last < g.startHour {
		return nil
	}
	var pref map[int]bool
	if len(preferred) > 0 {
		pref = make(map[int]bool, len(preferred))
		for _, h := range preferred {
			pref[h] = true
		}
	}
	starts := make([]int, 0, last-g.startHour+1)
	if pref != nil {
		for h := g.startHour; h <= last; h++ {
			if pref[h] {
				starts = append(starts, h)
			}
		}
	}
	for h := g.startHour; h <= last; h++ {
		if !pref[h] {
			starts = append(starts, h)
		}
	}
	return starts
}
