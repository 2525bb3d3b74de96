package teachers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"cardattend/internal/store"
)

// Teacher is the profile linked one-to-one with an authenticated user.
type Teacher struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SchoolID    *string   `json:"school_id"`
	ScheduleURL *string   `json:"schedule_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// School groups students and classes.
type School struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repository persists teachers and schools in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the teacher row for a new user. tx may be a transaction shared
// with the user insert.
func Create(ctx context.Context, tx store.DBTX, userID string) (Teacher, error) {
	t := Teacher{ID: uuid.NewString(), UserID: userID}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO teachers (id, user_id)
		VALUES ($1, $2)
		RETURNING created_at
	`, t.ID, t.UserID).Scan(&t.CreatedAt)
	if err != nil {
		return Teacher{}, err
	}
	return t, nil
}

// ByUserID returns the teacher linked to a user.
func (r *Repository) ByUserID(ctx context.Context, userID string) (Teacher, error) {
	var t Teacher
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, school_id, schedule_url, created_at
		FROM teachers WHERE user_id = $1
	`, userID).Scan(&t.ID, &t.UserID, &t.SchoolID, &t.ScheduleURL, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Teacher{}, store.ErrNotFound
		}
		return Teacher{}, err
	}
	return t, nil
}

// UpdateSettings sets school and schedule URL; nil clears a value.
func (r *Repository) UpdateSettings(ctx context.Context, teacherID string, schoolID, scheduleURL *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET school_id = $2, schedule_url = $3
		WHERE id = $1
	`, teacherID, schoolID, scheduleURL)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListSchools returns every school ordered by name.
func (r *Repository) ListSchools(ctx context.Context) ([]School, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// GetSchool returns one school.
func (r *Repository) GetSchool(ctx context.Context, id string) (School, error) {
	var s School
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM schools WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return School{}, store.ErrNotFound
		}
		return School{}, err
	}
	return s, nil
}

// CreateSchool inserts a school.
func (r *Repository) CreateSchool(ctx context.Context, name string) (School, error) {
	s := School{ID: uuid.NewString(), Name: name}
	_, err := r.db.ExecContext(ctx, `INSERT INTO schools (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	if err != nil {
		return School{}, err
	}
	return s, nil
}
