package session

import "errors"

var (
	// ErrNotFound covers both an absent session and a session owned by a
	// different user. The two cases are deliberately indistinguishable so
	// session IDs cannot be enumerated across accounts.
	ErrNotFound = errors.New("session not found")

	// ErrUnavailable wraps backing-store failures. Safe to retry with backoff.
	ErrUnavailable = errors.New("session store unavailable")
)
