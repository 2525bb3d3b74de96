package schedule

import "strconv"

// Grid bounds: Monday to Friday, hourly slots from 08:00 through 17:00.
const (
	FirstDay  = 1
	LastDay   = 5
	FirstHour = 8
	LastHour  = 17
)

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English weekday name for 1 (Monday) .. 7.
func DayName(day int) string {
	if day < 1 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

// Slot is one cell of the weekly grid.
type Slot struct {
	Hour   int     `json:"hour"`
	Label  string  `json:"label"`
	Lesson *Lesson `json:"lesson,omitempty"`
}

// Day is one column of the weekly grid.
type Day struct {
	DayOfWeek int    `json:"day_of_week"`
	Name      string `json:"name"`
	Slots     []Slot `json:"slots"`
}

// WeekGrid places lessons in the hour slot they start in.
type WeekGrid struct {
	Days []Day `json:"days"`
}

// NewWeekGrid builds the grid from lessons sorted by day then start time. When
// two lessons start in the same hour the first one wins.
func NewWeekGrid(lessons []Lesson) WeekGrid {
	g := WeekGrid{Days: make([]Day, 0, LastDay-FirstDay+1)}
	for d := FirstDay; d <= LastDay; d++ {
		day := Day{DayOfWeek: d, Name: DayName(d)}
		for h := FirstHour; h <= LastHour; h++ {
			day.Slots = append(day.Slots, Slot{Hour: h, Label: hourLabel(h)})
		}
		g.Days = append(g.Days, day)
	}
	for i := range lessons {
		l := lessons[i]
		h, ok := startHour(l.StartTime)
		if !ok || l.DayOfWeek < FirstDay || l.DayOfWeek > LastDay || h < FirstHour || h > LastHour {
			continue
		}
		slot := &g.Days[l.DayOfWeek-FirstDay].Slots[h-FirstHour]
		if slot.Lesson == nil {
			slot.Lesson = &l
		}
	}
	return g
}

// LessonAt returns the lesson starting in the given day and hour, if any.
func (g WeekGrid) LessonAt(day, hour int) (Lesson, bool) {
	if day < FirstDay || day > LastDay || hour < FirstHour || hour > LastHour {
		return Lesson{}, false
	}
	idx := day - FirstDay
	if idx >= len(g.Days) {
		return Lesson{}, false
	}
	slot := g.Days[idx].Slots[hour-FirstHour]
	if slot.Lesson == nil {
		return Lesson{}, false
	}
	return *slot.Lesson, true
}

func hourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}

func startHour(clock string) (int, bool) {
	if len(clock) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(clock[:2])
	if err != nil {
		return 0, false
	}
	return h, true
}
