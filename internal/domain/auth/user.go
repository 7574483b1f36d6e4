package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// ErrUnauthenticated is returned when a request carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
}

// Session is a stored login session. TokenHash is the hex HMAC-SHA256 of the
// session token.
type Session struct {
	ID        string
	TokenHash string
	User      User
	ExpiresAt time.Time
}

// Authenticator resolves the current user of a request.
type Authenticator interface {
	CurrentUser(ctx context.Context, r *http.Request) (*User, error)
}

// SessionRepository provides lookup of active sessions by token hash.
type SessionRepository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Session, error)
}
