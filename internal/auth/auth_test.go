package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sd-transit/internal/db"
)

type memStore struct {
	mu     sync.Mutex
	users  map[int64]*db.User
	nextID int64
	err    error
}

func newMemStore() *memStore { return &memStore{users: map[int64]*db.User{}} }

func (m *memStore) EmailExists(_ context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, err := m.GetUserByEmail(context.Background(), email)
	return err == nil, nil
}

func (m *memStore) CreateUser(_ context.Context, name, email, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.users[m.nextID] = &db.User{ID: m.nextID, Name: name, Email: email, PasswordHash: hash}
	return m.nextID, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

func newTestService(store UserStore) *Service {
	s := NewService(store, "test-secret", time.Hour)
	s.BcryptCost = bcrypt.MinCost
	return s
}

func TestRegister(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)
	ctx := context.Background()

	id, err := s.Register(ctx, " Ana Pérez ", "Ana@Example.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	u := store.users[id]
	assert.Equal(t, "Ana Pérez", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secreto1", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreto1")))

	_, err = s.Register(ctx, "Otra", "ana@example.com", "x")
	assert.ErrorIs(t, err, db.ErrEmailTaken)

	_, err = s.Register(ctx, "", "b@example.com", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	store.err = errors.New("db down")
	_, err = s.Register(ctx, "Luis", "luis@example.com", "x")
	assert.EqualError(t, err, "db down")
}

func TestLogin(t *testing.T) {
	s := newTestService(newMemStore())
	ctx := context.Background()
	id, err := s.Register(ctx, "Ana", "ana@example.com", "secreto1")
	require.NoError(t, err)

	u, token, err := s.Login(ctx, "ANA@example.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.NotEmpty(t, token)

	_, _, err = s.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nadie@example.com", "secreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTokens(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)
	ctx := context.Background()
	_, err := s.Register(ctx, "Ana", "ana@example.com", "secreto1")
	require.NoError(t, err)
	_, token, err := s.Login(ctx, "ana@example.com", "secreto1")
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)

	u, err := s.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	t.Run("expired", func(t *testing.T) {
		later := newTestService(store)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(store, "other-secret", time.Hour)
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.ParseToken(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		delete(store.users, 1)
		_, err := s.CurrentUser(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
