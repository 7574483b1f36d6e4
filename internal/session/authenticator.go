// Package session resolves the calling user from session tokens.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/xenking/storefront-api/internal/domain/auth"
)

// CookieName is the name of the cookie carrying the session token.
const CookieName = "session"

var _ auth.Authenticator = (*Authenticator)(nil)

// Authenticator authenticates requests by hashing the presented session
// token with an HMAC pepper and looking the hash up in the session store.
type Authenticator struct {
	sessions auth.SessionRepository
	pepper   []byte
}

// NewAuthenticator creates an Authenticator with the given session
// repository and HMAC pepper.
func NewAuthenticator(sessions auth.SessionRepository, pepper []byte) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		pepper:   pepper,
	}
}

// HashToken returns the hex encoded HMAC-SHA256 of token under pepper.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// CurrentUser returns the user owning the request's session. Every failure is
// reported as auth.ErrUnauthenticated.
func (a *Authenticator) CurrentUser(ctx context.Context, r *http.Request) (*auth.User, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, auth.ErrUnauthenticated
	}

	hash := HashToken(a.pepper, token)
	session, err := a.sessions.FindByTokenHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrUnauthenticated, err)
	}

	// The stored row must carry the same hash we computed.
	if !hmac.Equal([]byte(hash), []byte(strings.ToLower(session.TokenHash))) {
		return nil, auth.ErrUnauthenticated
	}

	user := session.User
	return &user, nil
}

// tokenFromRequest extracts the session token from the Authorization header
// or, failing that, the session cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
