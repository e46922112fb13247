package access

import "errors"

var (
	// ErrForbidden means the actor is not allowed to perform the operation.
	// It is always user-actionable and never retried.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrInvalidInput marks malformed role values or missing identifiers.
	ErrInvalidInput = errors.New("invalid input")
)
