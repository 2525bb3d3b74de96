package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cardattend/internal/notify"
	"cardattend/internal/store"
	"cardattend/internal/validate"
)

type refresh struct {
	userID  string
	expires time.Time
	revoked bool
}

type memStore struct {
	mu     sync.Mutex
	users  map[string]User
	tokens map[string]*refresh
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, tokens: map[string]*refresh{}}
}

func (m *memStore) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := m.users[email]; ok {
		return User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	u.ID = "u" + string(rune('0'+len(m.users)+1))
	u.TeacherID = "t" + u.ID
	u.Email = email
	m.users[email] = u
	return u, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) SaveRefreshToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &refresh{userID: userID, expires: expiresAt}
	return nil
}

func (m *memStore) ConsumeRefreshToken(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[token]
	if !ok || rt.revoked || time.Now().After(rt.expires) {
		return "", store.ErrNotFound
	}
	rt.revoked = true
	return rt.userID, nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.tokens[token]; ok {
		rt.revoked = true
	}
	return nil
}

func newTestService(broker notify.Broker) (*Service, *memStore) {
	ms := newMemStore()
	return NewService(ms, Options{
		Issuer:     "cardattend",
		SigningKey: "secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, broker, nil), ms
}

var creds = SignUpInput{Email: "ada@example.com", Password: "correct horse"}

func TestSignUpAndSignIn(t *testing.T) {
	svc, ms := newTestService(nil)

	sess, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Tokens.AccessToken)
	assert.NotEqual(t, creds.Password, ms.users["ada@example.com"].PasswordHash)

	again, err := svc.SignIn(context.Background(), SignInInput{Email: " ADA@example.com ", Password: creds.Password})
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), creds)
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Fields[0].Field)
}

func TestSignUp_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "not-an-email", Password: "short"})

	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)

	_, err = svc.SignIn(context.Background(), SignInInput{Email: creds.Email, Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), SignInInput{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Rotates(t *testing.T) {
	svc, _ := newTestService(nil)
	sess, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, next.UserID)
	assert.NotEqual(t, sess.Tokens.RefreshToken, next.Tokens.RefreshToken)

	_, err = svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _ := newTestService(nil)
	sess, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), sess.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOut_RevokesAndPublishes(t *testing.T) {
	broker := notify.NewInMemory(nil, 4)
	defer broker.Close()
	sub, err := broker.Subscribe(context.Background(), notify.Filter{Type: notify.TypeSessionSignedOut})
	require.NoError(t, err)
	defer sub.Close()

	svc, _ := newTestService(broker)
	sess, err := svc.SignUp(context.Background(), creds)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), sess.Tokens.RefreshToken))
	_, err = svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	select {
	case e := <-sub.C:
		assert.Equal(t, sess.UserID, e.UserID)
	case <-time.After(time.Second):
		t.Fatal("no sign-out event")
	}
}
