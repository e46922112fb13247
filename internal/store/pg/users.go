package pg

import (
	"context"
	"database/sql"
	"errors"

	"sentra.dev/internal/access"
	"sentra.dev/internal/user"
)

func (s *Store) Find(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	var role string
	err := s.db.QueryRowContext(ctx, `
		select id, email, role, banned, created_at, updated_at
		from users where id=$1
	`, id).Scan(&u.ID, &u.Email, &role, &u.Banned, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = access.Role(role)
	return &u, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role access.Role) error {
	return s.updateUser(ctx, `update users set role=$2, updated_at=now() where id=$1`, id, role.String())
}

func (s *Store) UpdateEmail(ctx context.Context, id, email string) error {
	return s.updateUser(ctx, `update users set email=$2, updated_at=now() where id=$1`, id, email)
}

func (s *Store) SetBanned(ctx context.Context, id string, banned bool) error {
	return s.updateUser(ctx, `update users set banned=$2, updated_at=now() where id=$1`, id, banned)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.updateUser(ctx, `delete from users where id=$1`, id)
}

func (s *Store) CountByRole(ctx context.Context, role access.Role) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from users where role=$1`, role.String()).Scan(&n)
	return n, err
}

func (s *Store) updateUser(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
