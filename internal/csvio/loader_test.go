package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCourses(t *testing.T) {
	path := writeRoster(t, `id,code,name,teacher,duration,preferred_days,preferred_times
cs101,CS101,Intro to CS,Dr. Smith,3,Monday;Wednesday;Friday,
math101,MATH101,Calculus I,Dr. Johnson,4,,09:00;10:00
`)

	courses, err := LoadCourses(path)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	assert.Equal(t, "CS101", courses[0].Code)
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, courses[0].PreferredDays)
	assert.Nil(t, courses[0].PreferredTimes)
	assert.Equal(t, []string{"09:00", "10:00"}, courses[1].PreferredTimes)
	assert.Equal(t, 4, courses[1].Duration)
}

func TestLoadCoursesMissingFile(t *testing.T) {
	_, err := LoadCourses(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestLoadCoursesMalformed(t *testing.T) {
	path := writeRoster(t, `id,code
"unterminated
`)
	_, err := LoadCourses(path)
	require.Error(t, err)
}
