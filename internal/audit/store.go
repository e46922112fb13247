package audit

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidEntry marks an entry or filter that fails validation before
	// it ever reaches the store.
	ErrInvalidEntry = errors.New("invalid audit entry")

	// ErrUnavailable wraps backing-store failures on the reporting paths.
	ErrUnavailable = errors.New("audit store unavailable")
)

// Filter narrows and pages an audit query.
type Filter struct {
	UserID       string
	Action       Action
	ResourceType ResourceType
	From         *time.Time
	To           *time.Time
	// Search matches free text against user id and IP address.
	Search string

	SortBy  string // created_at, action, resource_type, user_id
	SortDir string // asc or desc
	Page    int
	Limit   int
}

// Store is the persistence boundary for audit entries. Append is the hot
// write path; the rest are reporting reads with no latency constraint.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	Query(ctx context.Context, f Filter) ([]*Entry, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByAction(ctx context.Context) (map[Action]int64, error)
	CountByResource(ctx context.Context) (map[ResourceType]int64, error)
	// DailyActivity returns entry counts per UTC calendar day since the
	// given instant, keyed by "2006-01-02".
	DailyActivity(ctx context.Context, since time.Time) (map[string]int64, error)
}
