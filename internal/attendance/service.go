package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardattend/internal/logging"
	"cardattend/internal/metrics"
	"cardattend/internal/notify"
	"cardattend/internal/stats"
	"cardattend/internal/store"
	"cardattend/internal/students"
	"cardattend/internal/validate"
)

// Query limits and windows used by the dashboard views.
const (
	HistoryLimit  = 50
	AbsenceLimit  = 20
	AbsenceWindow = 7 * 24 * time.Hour
	WeekDays      = 7
)

// ScanNote is stored on every record created from a card scan.
const ScanNote = "Recorded via card scan"

// Record is one attendance decision for a student on a calendar day.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	LessonID  *string   `json:"lesson_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Day       string    `json:"day"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a record with the name of the class its lesson belongs to.
type Entry struct {
	Record
	ClassName *string `json:"class_name"`
}

// Absence is an absent record with the student's name, for the notification feed.
type Absence struct {
	Entry
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Outcome is the result of one recording attempt.
type Outcome int

const (
	Recorded Outcome = iota + 1
	AlreadyMarked
	UnknownCard
	WriteFailed
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case AlreadyMarked:
		return "already_marked"
	case UnknownCard:
		return "unknown_card"
	case WriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes what happened to a scan or manual mark. Student is set for
// every outcome but UnknownCard; Record only for Recorded; Err only for WriteFailed.
type Result struct {
	Outcome Outcome
	Student *students.Student
	Record  *Record
	Err     error
}

// Store is what the service needs from persistence.
type Store interface {
	ExistsInWindow(ctx context.Context, studentID string, from, to time.Time) (bool, error)
	Insert(ctx context.Context, rec Record) (Record, bool, error)
	Statuses(ctx context.Context, schoolID string, from, to time.Time) ([]string, error)
	History(ctx context.Context, studentID string, limit int) ([]Entry, error)
	Absences(ctx context.Context, schoolID string, since time.Time, limit int) ([]Absence, error)
}

// StudentLookup resolves the student a record is for.
type StudentLookup interface {
	ByCardReaderID(ctx context.Context, card string) (students.Student, error)
	Get(ctx context.Context, schoolID *string, id string) (students.Student, error)
}

// LessonResolver picks the lesson a scan is attributed to. A nil id stores the
// record without a lesson.
type LessonResolver interface {
	ResolveLesson(ctx context.Context, st students.Student, at time.Time) (*string, error)
}

// FixedLesson attributes every scan to the same lesson id; empty means none.
type FixedLesson string

func (f FixedLesson) ResolveLesson(context.Context, students.Student, time.Time) (*string, error) {
	if f == "" {
		return nil, nil
	}
	id := string(f)
	return &id, nil
}

// ManualInput is the "mark present / absent" form.
type ManualInput struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
	LessonID  string `json:"lesson_id" validate:"omitempty,uuid"`
	Notes     string `json:"notes" validate:"max=500"`
}

// Service records attendance and answers the dashboard queries.
type Service struct {
	store    Store
	students StudentLookup
	lessons  LessonResolver
	broker   notify.Broker
	log      logging.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService wires the recorder. loc defines calendar days; nil means local time.
func NewService(st Store, lookup StudentLookup, lessons LessonResolver, broker notify.Broker, log logging.Logger, loc *time.Location) *Service {
	if lessons == nil {
		lessons = FixedLesson("")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:    st,
		students: lookup,
		lessons:  lessons,
		broker:   broker,
		log:      logging.For(log, "attendance"),
		loc:      loc,
		now:      time.Now,
	}
}

// DayWindow returns [start of day, start of next day) for t in t's location.
func DayWindow(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// RecordScan turns a card token into at most one present record per student
// per day. Failures are reported in the result, never returned.
func (s *Service) RecordScan(ctx context.Context, token string) Result {
	st, err := s.students.ByCardReaderID(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.finish(ctx, "scan", Result{Outcome: UnknownCard})
		}
		return s.finish(ctx, "scan", Result{Outcome: WriteFailed, Err: fmt.Errorf("look up card: %w", err)})
	}

	lessonID, err := s.lessons.ResolveLesson(ctx, st, s.now())
	if err != nil {
		return s.finish(ctx, "scan", Result{Outcome: WriteFailed, Student: &st, Err: fmt.Errorf("resolve lesson: %w", err)})
	}
	note := ScanNote
	return s.finish(ctx, "scan", s.record(ctx, st, stats.StatusPresent, lessonID, &note))
}

// MarkManual records a teacher's present/absent decision for a student of their school.
func (s *Service) MarkManual(ctx context.Context, schoolID *string, in ManualInput) (Result, error) {
	if err := validate.Struct(in); err != nil {
		return Result{}, err
	}
	st, err := s.students.Get(ctx, schoolID, in.StudentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, validate.Field("student_id", "unknown student")
		}
		return s.finish(ctx, "manual", Result{Outcome: WriteFailed, Err: fmt.Errorf("look up student: %w", err)}), nil
	}
	var lessonID, notes *string
	if in.LessonID != "" {
		lessonID = &in.LessonID
	}
	if n := strings.TrimSpace(in.Notes); n != "" {
		notes = &n
	}
	return s.finish(ctx, "manual", s.record(ctx, st, in.Status, lessonID, notes)), nil
}

func (s *Service) record(ctx context.Context, st students.Student, status string, lessonID, notes *string) Result {
	now := s.now().In(s.loc)
	from, to := DayWindow(now)

	exists, err := s.store.ExistsInWindow(ctx, st.ID, from, to)
	if err != nil {
		return Result{Outcome: WriteFailed, Student: &st, Err: fmt.Errorf("check existing record: %w", err)}
	}
	if exists {
		return Result{Outcome: AlreadyMarked, Student: &st}
	}

	rec, inserted, err := s.store.Insert(ctx, Record{
		StudentID: st.ID,
		LessonID:  lessonID,
		Status:    status,
		Timestamp: now.UTC(),
		Day:       from.Format(dayLayout),
		Notes:     notes,
	})
	if err != nil {
		return Result{Outcome: WriteFailed, Student: &st, Err: fmt.Errorf("insert record: %w", err)}
	}
	if !inserted {
		// a concurrent scan won the (student, day) slot
		return Result{Outcome: AlreadyMarked, Student: &st}
	}

	s.publish(ctx, st, rec)
	return Result{Outcome: Recorded, Student: &st, Record: &rec}
}

func (s *Service) publish(ctx context.Context, st students.Student, rec Record) {
	if s.broker == nil {
		return
	}
	err := s.broker.Publish(ctx, notify.Event{
		Type:      notify.TypeAttendanceInserted,
		SchoolID:  st.SchoolID,
		RecordID:  rec.ID,
		StudentID: st.ID,
		Status:    rec.Status,
		At:        rec.Timestamp,
	})
	if err != nil {
		s.log.Warn(ctx, "publish attendance event", "record_id", rec.ID, "error", err)
	}
}

func (s *Service) finish(ctx context.Context, source string, res Result) Result {
	metrics.ScanOutcomes.WithLabelValues(source, res.Outcome.String()).Inc()
	args := []any{"source", source, "outcome", res.Outcome.String()}
	if res.Student != nil {
		args = append(args, "student_id", res.Student.ID)
	}
	if res.Outcome == WriteFailed {
		s.log.Error(ctx, "attendance not recorded", append(args, "error", res.Err)...)
	} else {
		s.log.Info(ctx, "attendance attempt", args...)
	}
	return res
}

// Dashboard computes the headline statistics for a school.
func (s *Service) Dashboard(ctx context.Context, schoolID *string, studentCount, classCount int) (stats.Dashboard, error) {
	if schoolID == nil {
		return stats.NewDashboard(studentCount, classCount, nil, nil), nil
	}
	from, to := DayWindow(s.now().In(s.loc))
	today, err := s.store.Statuses(ctx, *schoolID, from, to)
	if err != nil {
		return stats.Dashboard{}, fmt.Errorf("today's records: %w", err)
	}
	week, err := s.store.Statuses(ctx, *schoolID, from.AddDate(0, 0, -(WeekDays-1)), to)
	if err != nil {
		return stats.Dashboard{}, fmt.Errorf("week's records: %w", err)
	}
	return stats.NewDashboard(studentCount, classCount, today, week), nil
}

// Profile is a student's recent attendance with its summary.
type Profile struct {
	Student students.Student `json:"student"`
	Summary stats.Summary    `json:"summary"`
	Records []Entry          `json:"records"`
}

// StudentProfile returns the latest records of one of the school's students.
func (s *Service) StudentProfile(ctx context.Context, schoolID *string, studentID string) (Profile, error) {
	st, err := s.students.Get(ctx, schoolID, studentID)
	if err != nil {
		return Profile{}, err
	}
	entries, err := s.store.History(ctx, st.ID, HistoryLimit)
	if err != nil {
		return Profile{}, fmt.Errorf("student history: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	statuses := make([]string, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.Status)
	}
	return Profile{Student: st, Summary: stats.StudentSummary(statuses), Records: entries}, nil
}

// Absences returns the school's recent absences for the notification feed.
func (s *Service) Absences(ctx context.Context, schoolID *string) ([]Absence, error) {
	if schoolID == nil {
		return []Absence{}, nil
	}
	list, err := s.store.Absences(ctx, *schoolID, s.now().Add(-AbsenceWindow), AbsenceLimit)
	if err != nil {
		return nil, fmt.Errorf("absences: %w", err)
	}
	if list == nil {
		list = []Absence{}
	}
	return list, nil
}
