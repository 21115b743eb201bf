package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		days     []Day
		want     placementPattern
	}{
		{"plain contiguous", 3, nil, patternContiguous},
		{"single day preference", 2, []Day{Tuesday}, patternContiguous},
		{"mwf divisible", 3, []Day{Monday, Wednesday, Friday}, patternDayGroup},
		{"mwf order irrelevant", 6, []Day{Friday, Monday, Wednesday}, patternDayGroup},
		{"mwf not divisible", 4, []Day{Monday, Wednesday, Friday}, patternContiguous},
		{"tth divisible", 4, []Day{Tuesday, Thursday}, patternDayGroup},
		{"tth not divisible", 3, []Day{Tuesday, Thursday}, patternContiguous},
		{"wider than window", 12, nil, patternDistributed},
		{"wide but mwf splittable", 12, []Day{Monday, Wednesday, Friday}, patternDayGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := classify(Course{Duration: tt.duration, PreferredDays: tt.days}, 9)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidateDaysOrdering(t *testing.T) {
	assert.Equal(t,
		[]Day{Monday, Tuesday, Wednesday, Thursday, Friday},
		candidateDays(nil))

	// Preferred days lead in fixed weekday order, the rest follow.
	assert.Equal(t,
		[]Day{Tuesday, Thursday, Monday, Wednesday, Friday},
		candidateDays([]Day{Thursday, Tuesday}))
}

func TestCandidateStartsPreferredFirst(t *testing.T) {
	g := newGrid(Config{StartHour: 8, EndHour: 12})

	assert.Equal(t, []int{8, 9, 10}, candidateStarts(g, nil, 2))
	assert.Equal(t, []int{10, 8, 9}, candidateStarts(g, []int{10}, 2))
	// A preferred hour that cannot host the block is simply not a start.
	assert.Equal(t, []int{8, 9, 10}, candidateStarts(g, []int{11}, 2))
	assert.Nil(t, candidateStarts(g, nil, 5), "block wider than the window")
}
