package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func repeat(status string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func TestCount(t *testing.T) {
	c := Count([]string{"present", "absent", "present", "excused"})
	assert.Equal(t, Counts{Present: 2, Absent: 1, Total: 4}, c)
	assert.Equal(t, Counts{}, Count(nil))
}

func TestDailyRate(t *testing.T) {
	assert.InDelta(t, 70.0, DailyRate(7, 10), 1e-9)
	assert.Equal(t, 0.0, DailyRate(3, 0))
	assert.False(t, math.IsNaN(DailyRate(0, 0)))
}

func TestWeeklyRate(t *testing.T) {
	assert.InDelta(t, 62.5, WeeklyRate(50, 80), 1e-9)
	assert.Equal(t, 0.0, WeeklyRate(0, 0))
}

func TestRatesUseDifferentDenominators(t *testing.T) {
	// 5 present out of 6 recorded rows, 20 enrolled students.
	assert.InDelta(t, 25.0, DailyRate(5, 20), 1e-9)
	assert.InDelta(t, 83.333, WeeklyRate(5, 6), 1e-3)
}

func TestStudentSummary(t *testing.T) {
	s := StudentSummary(append(repeat("present", 3), "absent"))
	assert.Equal(t, 3, s.Present)
	assert.Equal(t, 1, s.Absent)
	assert.Equal(t, 4, s.Total)
	assert.InDelta(t, 75.0, s.Rate, 1e-9)

	assert.Equal(t, 0.0, StudentSummary(nil).Rate)
}

func TestNewDashboard(t *testing.T) {
	today := append(repeat("present", 7), repeat("absent", 2)...)
	week := append(repeat("present", 50), repeat("absent", 30)...)

	d := NewDashboard(10, 3, today, week)
	assert.Equal(t, 10, d.Students)
	assert.Equal(t, 3, d.Classes)
	assert.Equal(t, 7, d.PresentToday)
	assert.Equal(t, 2, d.AbsentToday)
	assert.InDelta(t, 70.0, d.DailyRate, 1e-9)
	assert.Equal(t, 50, d.WeekPresent)
	assert.Equal(t, 80, d.WeekTotal)
	assert.InDelta(t, 62.5, d.WeeklyRate, 1e-9)
}

func TestNewDashboard_NoStudents(t *testing.T) {
	d := NewDashboard(0, 0, nil, nil)
	assert.Equal(t, 0.0, d.DailyRate)
	assert.Equal(t, 0.0, d.WeeklyRate)
}
