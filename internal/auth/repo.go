package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"cardattend/internal/store"
	"cardattend/internal/teachers"
)

// User is an authenticated account. Every user has exactly one teacher profile.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TeacherID    string    `json:"teacher_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists users and refresh tokens in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts the user and its teacher profile in one transaction.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	err := store.WithTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO users (id, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`, u.ID, u.Email, u.PasswordHash).Scan(&u.CreatedAt); err != nil {
			return err
		}
		t, err := teachers.Create(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		u.TeacherID = t.ID
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// UserByEmail looks a user up case-insensitively.
func (r *Repository) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, t.id, u.created_at
		FROM users u
		JOIN teachers t ON t.user_id = u.id
		WHERE u.email = $1
	`, strings.ToLower(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TeacherID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, store.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// ConsumeRefreshToken revokes a live token and returns its user. A revoked,
// expired or unknown token yields store.ErrNotFound.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token = $1 AND NOT revoked AND expires_at > NOW()
		RETURNING user_id
	`, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
