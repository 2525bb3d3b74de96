package students

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"cardattend/internal/store"
)

// Student is an enrolled pupil. CardReaderID, when set, identifies the card
// the student scans and is unique across students.
type Student struct {
	ID            string    `json:"id"`
	SchoolID      string    `json:"school_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	StudentNumber string    `json:"student_number"`
	CardReaderID  *string   `json:"card_reader_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// FullName is first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

const studentColumns = `id, school_id, first_name, last_name, student_number, card_reader_id, created_at`

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.SchoolID, &s.FirstName, &s.LastName, &s.StudentNumber, &s.CardReaderID, &s.CreatedAt)
	return s, err
}

// Create inserts a student and fills ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, school_id, first_name, last_name, student_number, card_reader_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, s.ID, s.SchoolID, s.FirstName, s.LastName, s.StudentNumber, s.CardReaderID).Scan(&s.CreatedAt)
	if err != nil {
		return Student{}, err
	}
	return s, nil
}

// List returns a school's students ordered by last name.
func (r *Repository) List(ctx context.Context, schoolID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentColumns+`
		FROM students WHERE school_id = $1
		ORDER BY last_name, first_name
	`, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Get returns one student of a school.
func (r *Repository) Get(ctx context.Context, schoolID, id string) (Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students WHERE id = $1 AND school_id = $2
	`, id, schoolID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, store.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// ByCardReaderID resolves a scanned card to its student.
func (r *Repository) ByCardReaderID(ctx context.Context, card string) (Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students WHERE card_reader_id = $1
	`, card))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, store.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// Update overwrites the editable fields.
func (r *Repository) Update(ctx context.Context, s Student) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET first_name = $3, last_name = $4, student_number = $5, card_reader_id = $6
		WHERE id = $1 AND school_id = $2
	`, s.ID, s.SchoolID, s.FirstName, s.LastName, s.StudentNumber, s.CardReaderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a student and, by cascade, their attendance records.
func (r *Repository) Delete(ctx context.Context, schoolID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Count returns the number of students in a school.
func (r *Repository) Count(ctx context.Context, schoolID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE school_id = $1`, schoolID).Scan(&n)
	return n, err
}
