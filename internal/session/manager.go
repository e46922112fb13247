package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentra.dev/internal/ids"
)

const defaultMaxAge = 24 * time.Hour

// Config controls session lifetimes.
type Config struct {
	// MaxAge is the time a session stays valid after creation or renewal.
	MaxAge time.Duration
}

// Manager implements the session lifecycle on top of a Store. All expiry
// decisions are made here against the manager's clock, never stored.
type Manager struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

func NewManager(store Store, cfg Config, opts ...ManagerOption) *Manager {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	m := &Manager{store: store, maxAge: maxAge, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateResult carries the stored session plus the raw token, which is
// returned to the client once and never persisted.
type CreateResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

// Create opens a new session for the user. Called by the identity provider
// after a successful login or sign-up.
func (m *Manager) Create(ctx context.Context, userID string, ipAddress, userAgent *string) (*CreateResult, error) {
	token, hash, err := NewToken()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &Session{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: hash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.maxAge),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrUnavailable, err)
	}
	return &CreateResult{Session: s, Token: token}, nil
}

// Resolve maps an opaque token to its live session. Expired and unknown
// tokens both come back as ErrNotFound. When more than half of the session
// window has elapsed the session is renewed in place (sliding window).
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	s, err := m.store.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: resolve session: %v", ErrUnavailable, err)
	}
	now := m.now().UTC()
	if !s.Active(now) {
		return nil, ErrNotFound
	}
	if s.ExpiresAt.Sub(now) < m.maxAge/2 {
		expiresAt := now.Add(m.maxAge)
		if err := m.store.Touch(ctx, s.ID, now, expiresAt); err == nil {
			s.UpdatedAt = now
			s.ExpiresAt = expiresAt
		}
		// A failed renewal leaves a still-valid session; not worth failing
		// the request over.
	}
	return s, nil
}

// ListActive returns the user's live sessions, most recently active first.
// A user with no sessions gets an empty slice, not an error.
func (m *Manager) ListActive(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := m.store.ListActive(ctx, userID, m.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrUnavailable, err)
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	return sessions, nil
}

// RevokeOne deletes the session matching both id and owner. Absence and
// ownership mismatch are the same ErrNotFound.
func (m *Manager) RevokeOne(ctx context.Context, userID, sessionID string) error {
	deleted, err := m.store.DeleteOne(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("%w: revoke session: %v", ErrUnavailable, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllExceptCurrent deletes every session for the user except the one
// identified by currentSessionID; empty currentSessionID deletes all.
// Returns the count deleted; zero matches is not an error.
func (m *Manager) RevokeAllExceptCurrent(ctx context.Context, userID, currentSessionID string) (int64, error) {
	deleted, err := m.store.DeleteAllExcept(ctx, userID, currentSessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: revoke sessions: %v", ErrUnavailable, err)
	}
	return deleted, nil
}

// RevokeAll deletes every session for the user unconditionally. Used as the
// password-change cascade and as an administrative action.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return m.RevokeAllExceptCurrent(ctx, userID, "")
}

// PurgeExpired garbage-collects expired rows. Expired sessions are already
// invisible to every query; this only reclaims storage.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := m.store.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: purge sessions: %v", ErrUnavailable, err)
	}
	return deleted, nil
}
