package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cardattend/internal/logging"
	"cardattend/internal/notify"
	"cardattend/internal/store"
	"cardattend/internal/validate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// Store is what the service needs from persistence.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, token string) (string, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// SignUpInput is the registration form.
type SignUpInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInInput is the login form.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned on sign-up, sign-in and refresh.
type Session struct {
	UserID string    `json:"user_id"`
	Tokens TokenPair `json:"tokens"`
}

// Options carry the token settings.
type Options struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Service handles email/password sessions.
type Service struct {
	store  Store
	opts   Options
	broker notify.Broker
	log    logging.Logger
}

func NewService(s Store, opts Options, broker notify.Broker, log logging.Logger) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: s, opts: opts, broker: broker, log: logging.For(log, "auth")}
}

// SignUp registers a user with its teacher profile and signs them in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, User{Email: in.Email, PasswordHash: string(hash)})
	if err != nil {
		if _, ok := store.UniqueViolation(err); ok {
			return Session{}, validate.Field("email", "an account with this email already exists")
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user signed up", "user_id", u.ID)
	return s.start(ctx, u.ID)
}

// SignIn checks the password and issues a new token pair.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return Session{}, err
	}
	u, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.start(ctx, u.ID)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := Parse(refreshToken, s.opts.SigningKey, s.opts.Issuer)
	if err != nil || claims.Kind != KindRefresh {
		return Session{}, ErrInvalidToken
	}
	userID, err := s.store.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, fmt.Errorf("consume refresh token: %w", err)
	}
	return s.issue(ctx, userID)
}

// SignOut revokes the refresh token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.store.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if claims, err := Parse(refreshToken, s.opts.SigningKey, s.opts.Issuer); err == nil {
		s.publish(ctx, notify.TypeSessionSignedOut, claims.Subject)
	}
	return nil
}

func (s *Service) start(ctx context.Context, userID string) (Session, error) {
	sess, err := s.issue(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	s.publish(ctx, notify.TypeSessionSignedIn, userID)
	return sess, nil
}

func (s *Service) issue(ctx context.Context, userID string) (Session, error) {
	pair, err := Issue(userID, s.opts.Issuer, s.opts.SigningKey, s.opts.AccessTTL, s.opts.RefreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.store.SaveRefreshToken(ctx, userID, pair.RefreshToken, pair.RefreshExp); err != nil {
		return Session{}, fmt.Errorf("save refresh token: %w", err)
	}
	return Session{UserID: userID, Tokens: pair}, nil
}

func (s *Service) publish(ctx context.Context, typ, userID string) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, notify.Event{Type: typ, UserID: userID, At: time.Now().UTC()}); err != nil {
		s.log.Warn(ctx, "publish session event", "type", typ, "error", err)
	}
}
