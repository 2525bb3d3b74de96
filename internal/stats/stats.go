// Package stats derives presence figures from attendance records. Everything
// here is pure; callers fetch the records.
package stats

// Status values counted by the aggregator.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Counts of records by status. Total includes every record passed in.
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Count tallies statuses.
func Count(statuses []string) Counts {
	var c Counts
	for _, s := range statuses {
		switch s {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		}
		c.Total++
	}
	return c
}

// DailyRate is the share of enrolled students marked present, in percent.
func DailyRate(present, totalStudents int) float64 {
	if totalStudents <= 0 {
		return 0
	}
	return float64(present) / float64(totalStudents) * 100
}

// WeeklyRate is the share of recorded rows in the window that are present, in
// percent. Its denominator is recorded rows, not enrolled students.
func WeeklyRate(presentInWindow, totalRowsInWindow int) float64 {
	if totalRowsInWindow <= 0 {
		return 0
	}
	return float64(presentInWindow) / float64(totalRowsInWindow) * 100
}

// Summary is the per-student profile figure.
type Summary struct {
	Counts
	Rate float64 `json:"rate"`
}

func StudentSummary(statuses []string) Summary {
	c := Count(statuses)
	return Summary{Counts: c, Rate: WeeklyRate(c.Present, c.Total)}
}

// Dashboard is the header snapshot shown to a teacher.
type Dashboard struct {
	Students     int     `json:"students"`
	Classes      int     `json:"classes"`
	PresentToday int     `json:"present_today"`
	AbsentToday  int     `json:"absent_today"`
	DailyRate    float64 `json:"daily_rate"`
	WeekPresent  int     `json:"week_present"`
	WeekTotal    int     `json:"week_total"`
	WeeklyRate   float64 `json:"weekly_rate"`
}

// NewDashboard combines roster sizes with today's and the trailing week's statuses.
func NewDashboard(students, classes int, today, week []string) Dashboard {
	t := Count(today)
	w := Count(week)
	return Dashboard{
		Students:     students,
		Classes:      classes,
		PresentToday: t.Present,
		AbsentToday:  t.Absent,
		DailyRate:    DailyRate(t.Present, students),
		WeekPresent:  w.Present,
		WeekTotal:    w.Total,
		WeeklyRate:   WeeklyRate(w.Present, w.Total),
	}
}
