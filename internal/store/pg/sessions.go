package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sentra.dev/internal/session"
)

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sessions(id, user_id, token_hash, ip_address, user_agent, created_at, updated_at, expires_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sess.ID, sess.UserID, sess.TokenHash, sess.IPAddress, sess.UserAgent, sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt)
	return err
}

func (s *Store) FindByTokenHash(ctx context.Context, hash string) (*session.Session, error) {
	var sess session.Session
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, token_hash, ip_address, user_agent, created_at, updated_at, expires_at
		from sessions where token_hash=$1
	`, hash).Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.IPAddress, &sess.UserAgent, &sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) ListActive(ctx context.Context, userID string, now time.Time) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, token_hash, ip_address, user_agent, created_at, updated_at, expires_at
		from sessions
		where user_id=$1 and expires_at > $2
		order by updated_at desc
	`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.IPAddress, &sess.UserAgent, &sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt); err != nil {
			return nil, err
		}
		res = append(res, &sess)
	}
	return res, rows.Err()
}

func (s *Store) Touch(ctx context.Context, id string, updatedAt, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		update sessions set updated_at=$2, expires_at=$3 where id=$1
	`, id, updatedAt, expiresAt)
	return err
}

func (s *Store) DeleteOne(ctx context.Context, userID, sessionID string) (int64, error) {
	// Ownership is part of the predicate: a session id belonging to someone
	// else deletes zero rows.
	res, err := s.db.ExecContext(ctx, `
		delete from sessions where id=$1 and user_id=$2
	`, sessionID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) DeleteAllExcept(ctx context.Context, userID, keepID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		delete from sessions where user_id=$1 and id <> $2
	`, userID, keepID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from sessions where expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
