package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sentra.dev/internal/audit"
)

func (s *Store) Append(ctx context.Context, e *audit.Entry) error {
	var changes []byte
	if e.Changes != nil {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		changes = b
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log(id, user_id, action, resource_type, resource_id, changes, ip_address, user_agent, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.UserID, string(e.Action), string(e.ResourceType), e.ResourceID, changes, e.IPAddress, e.UserAgent, e.CreatedAt)
	return err
}

func (s *Store) Query(ctx context.Context, f audit.Filter) ([]*audit.Entry, int64, error) {
	where, args := auditPredicate(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, `select count(*) from audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// SortBy and SortDir come pre-validated against a column whitelist, so
	// interpolation here is safe.
	query := `
		select id, user_id, action, resource_type, resource_id, changes, ip_address, user_agent, created_at
		from audit_log` + where +
		` order by ` + f.SortBy + ` ` + f.SortDir +
		` limit $` + strconv.Itoa(len(args)+1) + ` offset $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*audit.Entry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, e)
	}
	return res, total, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from audit_log`).Scan(&n)
	return n, err
}

func (s *Store) CountByAction(ctx context.Context) (map[audit.Action]int64, error) {
	rows, err := s.db.QueryContext(ctx, `select action, count(*) from audit_log group by action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[audit.Action]int64{}
	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		res[audit.Action(action)] = n
	}
	return res, rows.Err()
}

func (s *Store) CountByResource(ctx context.Context) (map[audit.ResourceType]int64, error) {
	rows, err := s.db.QueryContext(ctx, `select resource_type, count(*) from audit_log group by resource_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[audit.ResourceType]int64{}
	for rows.Next() {
		var resource string
		var n int64
		if err := rows.Scan(&resource, &n); err != nil {
			return nil, err
		}
		res[audit.ResourceType(resource)] = n
	}
	return res, rows.Err()
}

func (s *Store) DailyActivity(ctx context.Context, since time.Time) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		select to_char(created_at at time zone 'UTC', 'YYYY-MM-DD') as day, count(*)
		from audit_log
		where created_at >= $1
		group by day
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]int64{}
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		res[day] = n
	}
	return res, rows.Err()
}

func auditPredicate(f audit.Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.UserID != "" {
		add("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.ResourceType != "" {
		add("resource_type = ?", string(f.ResourceType))
	}
	if f.From != nil {
		add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		add("created_at <= ?", *f.To)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		conds = append(conds, "(user_id ilike "+p+" or ip_address ilike "+p+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func scanAuditEntry(rows *sql.Rows) (*audit.Entry, error) {
	var e audit.Entry
	var action, resource string
	var changes []byte
	if err := rows.Scan(&e.ID, &e.UserID, &action, &resource, &e.ResourceID, &changes, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Action = audit.Action(action)
	e.ResourceType = audit.ResourceType(resource)
	if len(changes) > 0 {
		var c audit.Changes
		if err := json.Unmarshal(changes, &c); err != nil {
			return nil, fmt.Errorf("unmarshal changes: %w", err)
		}
		e.Changes = &c
	}
	return &e, nil
}
