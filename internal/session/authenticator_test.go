package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-api/internal/domain/auth"
)

var testPepper = []byte("test-pepper")

type mockSessionRepo struct {
	sessions map[string]*auth.Session
	err      error
	calls    int
	lastHash string
}

func (m *mockSessionRepo) FindByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	m.calls++
	m.lastHash = hash
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[hash]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

func newRepo(token string, user auth.User) *mockSessionRepo {
	hash := HashToken(testPepper, token)
	return &mockSessionRepo{
		sessions: map[string]*auth.Session{
			hash: {
				ID:        "s1",
				TokenHash: hash,
				User:      user,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
}

func TestCurrentUser_BearerToken(t *testing.T) {
	repo := newRepo("tok-1", auth.User{ID: "u1", Email: "a@example.com"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer tok-1")

	user, err := a.CurrentUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, HashToken(testPepper, "tok-1"), repo.lastHash)
}

func TestCurrentUser_Cookie(t *testing.T) {
	repo := newRepo("tok-2", auth.User{ID: "u2"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-2"})

	user, err := a.CurrentUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
}

func TestCurrentUser_NoToken(t *testing.T) {
	repo := newRepo("tok", auth.User{ID: "u1"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Zero(t, repo.calls, "store must not be queried without a token")
}

func TestCurrentUser_NonBearerScheme(t *testing.T) {
	repo := newRepo("tok", auth.User{ID: "u1"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Zero(t, repo.calls)
}

func TestCurrentUser_UnknownToken(t *testing.T) {
	repo := newRepo("tok", auth.User{ID: "u1"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer other")

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, 1, repo.calls)
}

func TestCurrentUser_WrongPepper(t *testing.T) {
	repo := newRepo("tok", auth.User{ID: "u1"})
	a := NewAuthenticator(repo, []byte("another-pepper"))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer tok")

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCurrentUser_StoredHashMismatch(t *testing.T) {
	hash := HashToken(testPepper, "tok")
	repo := &mockSessionRepo{sessions: map[string]*auth.Session{
		hash: {ID: "s1", TokenHash: HashToken(testPepper, "stale"), User: auth.User{ID: "u1"}},
	}}
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer tok")

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCurrentUser_RepositoryError(t *testing.T) {
	repo := &mockSessionRepo{err: errors.New("db down")}
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer tok")

	_, err := a.CurrentUser(context.Background(), req)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "db down")
}

func TestCurrentUser_LooksUpHashToken(t *testing.T) {
	repo := newRepo("tok-1", auth.User{ID: "u1"})
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok-1"})

	_, err := a.CurrentUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, HashToken(testPepper, "tok-1"), repo.lastHash)
	assert.Len(t, repo.lastHash, 64)
}

func TestCurrentUser_StoredHashCaseInsensitive(t *testing.T) {
	hash := HashToken(testPepper, "tok")
	repo := &mockSessionRepo{sessions: map[string]*auth.Session{
		hash: {ID: "s1", TokenHash: strings.ToUpper(hash), User: auth.User{ID: "u1"}},
	}}
	a := NewAuthenticator(repo, testPepper)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set("Authorization", "Bearer tok")

	user, err := a.CurrentUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}
