package user

import (
	"context"
	"errors"
	"time"

	"sentra.dev/internal/access"
)

var (
	// ErrNotFound means the user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrUnavailable wraps backing-store failures. Safe to retry with backoff.
	ErrUnavailable = errors.New("user store unavailable")

	// ErrInvalidInput marks malformed mutation arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// User is the externally-owned identity record. The core reads and writes
// role, email and ban state only; everything else belongs to the identity
// provider.
type User struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	Banned    bool        `json:"banned"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store is the persistence boundary for user records.
type Store interface {
	// Find returns ErrNotFound when the user does not exist.
	Find(ctx context.Context, id string) (*User, error)
	UpdateRole(ctx context.Context, id string, role access.Role) error
	UpdateEmail(ctx context.Context, id, email string) error
	SetBanned(ctx context.Context, id string, banned bool) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role access.Role) (int64, error)
}
