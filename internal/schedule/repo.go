package schedule

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"cardattend/internal/store"
)

// Class is a teaching group within a school.
type Class struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`
	Name     string `json:"name"`
}

// Lesson is a weekly recurring slot for a class. DayOfWeek runs from 1
// (Monday); times are "HH:MM".
type Lesson struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room"`
}

// Repository persists classes, lessons and the teacher_classes link.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateClass inserts a class and links it to the creating teacher.
func (r *Repository) CreateClass(ctx context.Context, teacherID string, c Class) (Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := store.WithTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO classes (id, school_id, name) VALUES ($1, $2, $3)
		`, c.ID, c.SchoolID, c.Name); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO teacher_classes (teacher_id, class_id) VALUES ($1, $2)
		`, teacherID, c.ID)
		return err
	})
	if err != nil {
		return Class{}, err
	}
	return c, nil
}

// ListClasses returns the teacher's classes ordered by name.
func (r *Repository) ListClasses(ctx context.Context, teacherID string) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.school_id, c.name
		FROM classes c
		JOIN teacher_classes tc ON tc.class_id = c.id
		WHERE tc.teacher_id = $1
		ORDER BY c.name
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Name); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CountClasses returns how many classes the teacher is linked to.
func (r *Repository) CountClasses(ctx context.Context, teacherID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teacher_classes WHERE teacher_id = $1`, teacherID).Scan(&n)
	return n, err
}

// TeachesClass reports whether the teacher is linked to the class.
func (r *Repository) TeachesClass(ctx context.Context, teacherID, classID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM teacher_classes WHERE teacher_id = $1 AND class_id = $2)
	`, teacherID, classID).Scan(&ok)
	return ok, err
}

// DeleteClass removes one of the teacher's classes with its lessons.
func (r *Repository) DeleteClass(ctx context.Context, teacherID, classID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM classes
		WHERE id = $2 AND id IN (SELECT class_id FROM teacher_classes WHERE teacher_id = $1)
	`, teacherID, classID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const lessonSelect = `
	SELECT l.id, l.class_id, c.name, l.day_of_week, l.start_time, l.end_time, l.room
	FROM lessons l
	JOIN classes c ON c.id = l.class_id
	JOIN teacher_classes tc ON tc.class_id = l.class_id
	WHERE tc.teacher_id = $1`

func scanLessons(rows *sql.Rows) ([]Lesson, error) {
	defer rows.Close()
	var res []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.ClassID, &l.ClassName, &l.DayOfWeek, &l.StartTime, &l.EndTime, &l.Room); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// ListLessons returns the lessons of the teacher's classes ordered by day then start time.
func (r *Repository) ListLessons(ctx context.Context, teacherID string) ([]Lesson, error) {
	rows, err := r.db.QueryContext(ctx, lessonSelect+` ORDER BY l.day_of_week, l.start_time`, teacherID)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

// LessonsOnDay returns the teacher's lessons for one weekday ordered by start time.
func (r *Repository) LessonsOnDay(ctx context.Context, teacherID string, day int) ([]Lesson, error) {
	rows, err := r.db.QueryContext(ctx, lessonSelect+` AND l.day_of_week = $2 ORDER BY l.start_time`, teacherID, day)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

// GetLesson returns one of the teacher's lessons.
func (r *Repository) GetLesson(ctx context.Context, teacherID, lessonID string) (Lesson, error) {
	rows, err := r.db.QueryContext(ctx, lessonSelect+` AND l.id = $2`, teacherID, lessonID)
	if err != nil {
		return Lesson{}, err
	}
	list, err := scanLessons(rows)
	if err != nil {
		return Lesson{}, err
	}
	if len(list) == 0 {
		return Lesson{}, store.ErrNotFound
	}
	return list[0], nil
}

func (r *Repository) CreateLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lessons (id, class_id, day_of_week, start_time, end_time, room)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, l.ID, l.ClassID, l.DayOfWeek, l.StartTime, l.EndTime, l.Room)
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (r *Repository) UpdateLesson(ctx context.Context, l Lesson) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lessons
		SET class_id = $2, day_of_week = $3, start_time = $4, end_time = $5, room = $6
		WHERE id = $1
	`, l.ID, l.ClassID, l.DayOfWeek, l.StartTime, l.EndTime, l.Room)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteLesson removes a lesson of one of the teacher's classes.
func (r *Repository) DeleteLesson(ctx context.Context, teacherID, lessonID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM lessons
		WHERE id = $2 AND class_id IN (SELECT class_id FROM teacher_classes WHERE teacher_id = $1)
	`, teacherID, lessonID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
