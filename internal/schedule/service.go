package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardattend/internal/store"
	"cardattend/internal/validate"
)

// Store is what the service needs from persistence.
type Store interface {
	CreateClass(ctx context.Context, teacherID string, c Class) (Class, error)
	ListClasses(ctx context.Context, teacherID string) ([]Class, error)
	CountClasses(ctx context.Context, teacherID string) (int, error)
	TeachesClass(ctx context.Context, teacherID, classID string) (bool, error)
	DeleteClass(ctx context.Context, teacherID, classID string) error
	ListLessons(ctx context.Context, teacherID string) ([]Lesson, error)
	LessonsOnDay(ctx context.Context, teacherID string, day int) ([]Lesson, error)
	GetLesson(ctx context.Context, teacherID, lessonID string) (Lesson, error)
	CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
	UpdateLesson(ctx context.Context, l Lesson) error
	DeleteLesson(ctx context.Context, teacherID, lessonID string) error
}

// ClassInput is the create class form.
type ClassInput struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

// LessonInput is the add/edit lesson form. Every field is required.
type LessonInput struct {
	ClassID   string `json:"class_id" validate:"required,uuid"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=5"`
	StartTime string `json:"start_time" validate:"required,clocktime"`
	EndTime   string `json:"end_time" validate:"required,clocktime"`
	Room      string `json:"room" validate:"required,notblank,max=50"`
}

func (in LessonInput) lesson() Lesson {
	return Lesson{
		ClassID:   in.ClassID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Room:      strings.TrimSpace(in.Room),
	}
}

var (
	errNoSchool     = validate.Field("school_id", "you must be linked to a school first")
	errUnknownClass = validate.Field("class_id", "class is not one of your classes")
	errTimeOrder    = validate.Field("end_time", "end_time must be after start_time")
)

// Service manages a teacher's classes and weekly lessons.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(s Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: s, loc: loc, now: time.Now}
}

// CreateClass adds a class to the teacher's school and links it to the teacher.
func (s *Service) CreateClass(ctx context.Context, teacherID string, schoolID *string, in ClassInput) (Class, error) {
	if schoolID == nil {
		return Class{}, errNoSchool
	}
	if err := validate.Struct(in); err != nil {
		return Class{}, err
	}
	c, err := s.store.CreateClass(ctx, teacherID, Class{SchoolID: *schoolID, Name: strings.TrimSpace(in.Name)})
	if err != nil {
		return Class{}, fmt.Errorf("create class: %w", err)
	}
	return c, nil
}

func (s *Service) Classes(ctx context.Context, teacherID string) ([]Class, error) {
	list, err := s.store.ListClasses(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if list == nil {
		list = []Class{}
	}
	return list, nil
}

func (s *Service) CountClasses(ctx context.Context, teacherID string) (int, error) {
	return s.store.CountClasses(ctx, teacherID)
}

func (s *Service) DeleteClass(ctx context.Context, teacherID, classID string) error {
	return s.store.DeleteClass(ctx, teacherID, classID)
}

// Lessons returns the teacher's lessons ordered by day then start time.
func (s *Service) Lessons(ctx context.Context, teacherID string) ([]Lesson, error) {
	list, err := s.store.ListLessons(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	if list == nil {
		list = []Lesson{}
	}
	return list, nil
}

// Today returns the lessons scheduled for the current weekday.
func (s *Service) Today(ctx context.Context, teacherID string) ([]Lesson, error) {
	day := isoWeekday(s.now().In(s.loc))
	list, err := s.store.LessonsOnDay(ctx, teacherID, day)
	if err != nil {
		return nil, fmt.Errorf("today's lessons: %w", err)
	}
	if list == nil {
		list = []Lesson{}
	}
	return list, nil
}

// Week returns the teacher's lessons laid out on the Monday-Friday grid.
func (s *Service) Week(ctx context.Context, teacherID string) (WeekGrid, error) {
	list, err := s.Lessons(ctx, teacherID)
	if err != nil {
		return WeekGrid{}, err
	}
	return NewWeekGrid(list), nil
}

func (s *Service) CreateLesson(ctx context.Context, teacherID string, in LessonInput) (Lesson, error) {
	if err := s.checkLesson(ctx, teacherID, in); err != nil {
		return Lesson{}, err
	}
	l, err := s.store.CreateLesson(ctx, in.lesson())
	if err != nil {
		return Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	return l, nil
}

func (s *Service) UpdateLesson(ctx context.Context, teacherID, lessonID string, in LessonInput) (Lesson, error) {
	if _, err := s.store.GetLesson(ctx, teacherID, lessonID); err != nil {
		return Lesson{}, err
	}
	if err := s.checkLesson(ctx, teacherID, in); err != nil {
		return Lesson{}, err
	}
	l := in.lesson()
	l.ID = lessonID
	if err := s.store.UpdateLesson(ctx, l); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Lesson{}, err
		}
		return Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	return l, nil
}

func (s *Service) DeleteLesson(ctx context.Context, teacherID, lessonID string) error {
	return s.store.DeleteLesson(ctx, teacherID, lessonID)
}

func (s *Service) checkLesson(ctx context.Context, teacherID string, in LessonInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.EndTime <= in.StartTime {
		return errTimeOrder
	}
	ok, err := s.store.TeachesClass(ctx, teacherID, in.ClassID)
	if err != nil {
		return fmt.Errorf("check class: %w", err)
	}
	if !ok {
		return errUnknownClass
	}
	return nil
}

// isoWeekday maps time.Weekday to 1 (Monday) .. 7 (Sunday).
func isoWeekday(t time.Time) int {
	d := int(t.Weekday())
	if d == 0 {
		return 7
	}
	return d
}
