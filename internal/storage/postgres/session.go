package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/auth"
)

var _ auth.SessionRepository = (*SessionRepository)(nil)

// SessionRepository provides session lookups backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func findSessionQuery(hash string) (string, []any, error) {
	return psql.Select(
		"s.id::text", "s.token_hash", "s.expires_at", "u.id::text", "u.email",
	).
		From("sessions s").
		Join("users u ON u.id = s.user_id").
		Where(sq.Eq{"s.token_hash": hash}).
		Where("s.revoked_at IS NULL").
		Where("s.expires_at > now()").
		ToSql()
}

// FindByTokenHash looks up an active session by its HMAC-SHA256 token hash.
// Returns an error wrapping pgx.ErrNoRows when no matching session exists.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	query, args, err := findSessionQuery(hash)
	if err != nil {
		return nil, fmt.Errorf("building session query: %w", err)
	}

	var s auth.Session
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.TokenHash, &s.ExpiresAt, &s.User.ID, &s.User.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", err)
		}
		return nil, fmt.Errorf("finding session by token hash: %w", err)
	}

	return &s, nil
}
