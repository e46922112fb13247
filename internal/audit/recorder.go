package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentra.dev/internal/ids"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	statsWindow  = 30 * 24 * time.Hour
)

var sortColumns = map[string]struct{}{
	"created_at":    {},
	"action":        {},
	"resource_type": {},
	"user_id":       {},
}

// Recorder validates and persists audit entries and serves the reporting
// queries over them. Record failures propagate to the caller here; the
// identity event hook is the one place that swallows them.
type Recorder struct {
	store Store
	now   func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one entry, assigning id and timestamp when absent.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, e.Action)
	}
	if !e.ResourceType.Valid() {
		return fmt.Errorf("%w: unknown resource type %q", ErrInvalidEntry, e.ResourceType)
	}
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if err := r.store.Append(ctx, e); err != nil {
		return fmt.Errorf("%w: append entry: %v", ErrUnavailable, err)
	}
	return nil
}

// Page is one page of query results.
type Page struct {
	Data       []*Entry `json:"data"`
	Total      int64    `json:"total"`
	TotalPages int64    `json:"total_pages"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}

// Query returns entries matching the filter, sorted and paginated.
func (r *Recorder) Query(ctx context.Context, f Filter) (*Page, error) {
	if f.Action != "" && !f.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, f.Action)
	}
	if f.ResourceType != "" && !f.ResourceType.Valid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidEntry, f.ResourceType)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "created_at"
	}
	if dir := strings.ToLower(f.SortDir); dir == "asc" {
		f.SortDir = "asc"
	} else {
		f.SortDir = "desc"
	}

	entries, total, err := r.store.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", ErrUnavailable, err)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	totalPages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		totalPages++
	}
	return &Page{
		Data:       entries,
		Total:      total,
		TotalPages: totalPages,
		Page:       f.Page,
		Limit:      f.Limit,
	}, nil
}

// Stats aggregates the audit trail: total count, counts per action and
// resource type, and a trailing 30-day daily histogram bucketed by UTC date.
type Stats struct {
	Total         int64                  `json:"total"`
	ByAction      map[Action]int64       `json:"by_action"`
	ByResource    map[ResourceType]int64 `json:"by_resource"`
	DailyActivity map[string]int64       `json:"daily_activity"`
}

func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count entries: %v", ErrUnavailable, err)
	}
	byAction, err := r.store.CountByAction(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count by action: %v", ErrUnavailable, err)
	}
	byResource, err := r.store.CountByResource(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count by resource: %v", ErrUnavailable, err)
	}
	since := r.now().UTC().Add(-statsWindow).Truncate(24 * time.Hour)
	daily, err := r.store.DailyActivity(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: daily activity: %v", ErrUnavailable, err)
	}
	if byAction == nil {
		byAction = map[Action]int64{}
	}
	if byResource == nil {
		byResource = map[ResourceType]int64{}
	}
	if daily == nil {
		daily = map[string]int64{}
	}
	return &Stats{
		Total:         total,
		ByAction:      byAction,
		ByResource:    byResource,
		DailyActivity: daily,
	}, nil
}
