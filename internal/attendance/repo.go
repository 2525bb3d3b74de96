package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ExistsInWindow reports whether the student has any record with a timestamp
// in [from, to).
func (r *Repository) ExistsInWindow(ctx context.Context, studentID string, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE student_id = $1 AND "timestamp" >= $2 AND "timestamp" < $3
		)
	`, studentID, from, to).Scan(&exists)
	return exists, err
}

// Insert writes rec unless the student already has a record for rec.Day.
// inserted is false when the unique (student_id, day) index rejected the row.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, lesson_id, status, "timestamp", day, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, day) DO NOTHING
		RETURNING created_at
	`, rec.ID, rec.StudentID, rec.LessonID, rec.Status, rec.Timestamp, rec.Day, rec.Notes)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return rec, true, nil
}

// Statuses returns the status of every record of the school's students with a
// timestamp in [from, to).
func (r *Repository) Statuses(ctx context.Context, schoolID string, from, to time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.status
		FROM attendance_records a
		JOIN students s ON s.id = a.student_id
		WHERE s.school_id = $1 AND a."timestamp" >= $2 AND a."timestamp" < $3
	`, schoolID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, err
		}
		res = append(res, status)
	}
	return res, rows.Err()
}

const entryColumns = `a.id, a.student_id, a.lesson_id, a.status, a."timestamp", a.day::text, a.notes, a.created_at, c.name`

const entryJoins = `
	FROM attendance_records a
	LEFT JOIN lessons l ON l.id = a.lesson_id
	LEFT JOIN classes c ON c.id = l.class_id`

// History returns the student's most recent records, newest first.
func (r *Repository) History(ctx context.Context, studentID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+entryJoins+`
		WHERE a.student_id = $1
		ORDER BY a."timestamp" DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.LessonID, &e.Status, &e.Timestamp, &e.Day, &e.Notes, &e.CreatedAt, &e.ClassName); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Absences returns the school's absent records since the given time, newest first.
func (r *Repository) Absences(ctx context.Context, schoolID string, since time.Time, limit int) ([]Absence, error) {
	if limit <= 0 {
		limit = AbsenceLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`, s.first_name, s.last_name`+entryJoins+`
		JOIN students s ON s.id = a.student_id
		WHERE s.school_id = $1 AND a.status = 'absent' AND a."timestamp" >= $2
		ORDER BY a."timestamp" DESC
		LIMIT $3
	`, schoolID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Absence
	for rows.Next() {
		var a Absence
		if err := rows.Scan(&a.ID, &a.StudentID, &a.LessonID, &a.Status, &a.Timestamp, &a.Day, &a.Notes, &a.CreatedAt, &a.ClassName, &a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
