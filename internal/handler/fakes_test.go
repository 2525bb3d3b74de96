package handler

import (
	"context"
	"io"
	"sync"
	"time"

	"cardattend/internal/attendance"
	"cardattend/internal/auth"
	"cardattend/internal/schedule"
	"cardattend/internal/store"
	"cardattend/internal/students"
	"cardattend/internal/teachers"
	"cardattend/internal/validate"
)

type fakeAuth struct{}

func (fakeAuth) SignUp(context.Context, auth.SignUpInput) (auth.Session, error) {
	return auth.Session{}, validate.Field("email", "an account with this email already exists")
}

func (fakeAuth) SignIn(_ context.Context, in auth.SignInInput) (auth.Session, error) {
	if in.Password != "correct horse" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return auth.Session{UserID: "u1"}, nil
}

func (fakeAuth) Refresh(context.Context, string) (auth.Session, error) {
	return auth.Session{}, auth.ErrInvalidToken
}

func (fakeAuth) SignOut(context.Context, string) error { return nil }

type fakeTeachers struct {
	byUser map[string]teachers.Teacher
}

func (f fakeTeachers) ByUserID(_ context.Context, userID string) (teachers.Teacher, error) {
	t, ok := f.byUser[userID]
	if !ok {
		return teachers.Teacher{}, store.ErrNotFound
	}
	return t, nil
}

func (fakeTeachers) Schools(context.Context) ([]teachers.School, error) { return nil, nil }

func (fakeTeachers) CreateSchool(_ context.Context, in teachers.SchoolInput) (teachers.School, error) {
	return teachers.School{ID: "s9", Name: in.Name}, nil
}

func (fakeTeachers) UpdateSettings(_ context.Context, t teachers.Teacher, _ teachers.SettingsInput) (teachers.Teacher, error) {
	return t, nil
}

// fakeStudents serves both the handler and the recorder's student lookup.
type fakeStudents struct {
	list []students.Student
}

func (f *fakeStudents) Create(_ context.Context, schoolID *string, in students.Input) (students.Student, error) {
	if err := validate.Struct(in); err != nil {
		return students.Student{}, err
	}
	return students.Student{ID: "new", SchoolID: *schoolID, FirstName: in.FirstName, LastName: in.LastName}, nil
}

func (f *fakeStudents) List(context.Context, *string) ([]students.Student, error) { return f.list, nil }

func (f *fakeStudents) Get(_ context.Context, schoolID *string, id string) (students.Student, error) {
	for _, st := range f.list {
		if st.ID == id && schoolID != nil && st.SchoolID == *schoolID {
			return st, nil
		}
	}
	return students.Student{}, store.ErrNotFound
}

func (f *fakeStudents) ByCardReaderID(_ context.Context, card string) (students.Student, error) {
	for _, st := range f.list {
		if st.CardReaderID != nil && *st.CardReaderID == card {
			return st, nil
		}
	}
	return students.Student{}, store.ErrNotFound
}

func (f *fakeStudents) Update(context.Context, *string, string, students.Input) (students.Student, error) {
	return students.Student{}, store.ErrNotFound
}

func (f *fakeStudents) Delete(context.Context, *string, string) error { return store.ErrNotFound }

func (f *fakeStudents) Count(_ context.Context, schoolID *string) (int, error) {
	n := 0
	for _, st := range f.list {
		if schoolID != nil && st.SchoolID == *schoolID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStudents) Import(context.Context, *string, io.Reader) (students.ImportResult, error) {
	return students.ImportResult{}, nil
}

type fakeSchedule struct{}

func (fakeSchedule) CreateClass(_ context.Context, _ string, schoolID *string, in schedule.ClassInput) (schedule.Class, error) {
	return schedule.Class{ID: "c1", SchoolID: *schoolID, Name: in.Name}, nil
}

func (fakeSchedule) Classes(context.Context, string) ([]schedule.Class, error) {
	return []schedule.Class{}, nil
}

func (fakeSchedule) CountClasses(context.Context, string) (int, error) { return 2, nil }

func (fakeSchedule) DeleteClass(context.Context, string, string) error { return nil }

func (fakeSchedule) Lessons(context.Context, string) ([]schedule.Lesson, error) {
	return []schedule.Lesson{}, nil
}

func (fakeSchedule) Today(context.Context, string) ([]schedule.Lesson, error) {
	return []schedule.Lesson{}, nil
}

func (fakeSchedule) Week(context.Context, string) (schedule.WeekGrid, error) {
	return schedule.NewWeekGrid(nil), nil
}

func (fakeSchedule) CreateLesson(context.Context, string, schedule.LessonInput) (schedule.Lesson, error) {
	return schedule.Lesson{}, nil
}

func (fakeSchedule) UpdateLesson(context.Context, string, string, schedule.LessonInput) (schedule.Lesson, error) {
	return schedule.Lesson{}, store.ErrNotFound
}

func (fakeSchedule) DeleteLesson(context.Context, string, string) error { return nil }

// records implements attendance.Store in memory.
type records struct {
	mu     sync.Mutex
	rows   []attendance.Record
	school map[string]string // student id -> school id
}

func (r *records) ExistsInWindow(_ context.Context, studentID string, from, to time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.StudentID == studentID && !rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *records) Insert(_ context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.StudentID == rec.StudentID && existing.Day == rec.Day {
			return attendance.Record{}, false, nil
		}
	}
	rec.ID = "rec-" + rec.StudentID
	r.rows = append(r.rows, rec)
	return rec, true, nil
}

func (r *records) Statuses(_ context.Context, schoolID string, from, to time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []string
	for _, rec := range r.rows {
		if r.school[rec.StudentID] != schoolID {
			continue
		}
		if !rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			res = append(res, rec.Status)
		}
	}
	return res, nil
}

func (r *records) History(context.Context, string, int) ([]attendance.Entry, error) {
	return nil, nil
}

func (r *records) Absences(context.Context, string, time.Time, int) ([]attendance.Absence, error) {
	return nil, nil
}

func (r *records) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}
