package session

import (
	"context"
	"time"
)

// Store describes the persistence operations the session manager needs.
// Each method maps to a single statement in the backing store, so every
// revocation is atomic with respect to the caller.
type Store interface {
	Create(ctx context.Context, s *Session) error

	// FindByTokenHash returns ErrNotFound when no session matches the hash.
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// ListActive returns sessions with ExpiresAt > now, ordered by
	// UpdatedAt descending.
	ListActive(ctx context.Context, userID string, now time.Time) ([]*Session, error)

	// Touch bumps UpdatedAt and ExpiresAt for sliding-window renewal.
	Touch(ctx context.Context, id string, updatedAt, expiresAt time.Time) error

	// DeleteOne removes the session matching both id and owner, reporting
	// how many rows went away (0 or 1).
	DeleteOne(ctx context.Context, userID, sessionID string) (int64, error)

	// DeleteAllExcept removes every session for the user except keepID.
	// An empty keepID removes all of them.
	DeleteAllExcept(ctx context.Context, userID, keepID string) (int64, error)

	// DeleteExpired garbage-collects sessions whose ExpiresAt <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
