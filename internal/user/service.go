package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"sentra.dev/internal/access"
	"sentra.dev/internal/audit"
	"sentra.dev/internal/session"
)

// Actor identifies who is performing a mutation.
type Actor struct {
	ID   string
	Role access.Role
}

// Service owns every privilege-sensitive user mutation. Each operation runs
// the authorization policy first, then the store write, then a best-effort
// audit record. The last-super-admin cardinality guard lives here, checked
// against a fresh count at mutation time, because it is a global property
// the stateless policy cannot see.
type Service struct {
	store    Store
	policy   access.Policy
	sessions *session.Manager
	recorder *audit.Recorder
	logger   *log.Logger
}

func NewService(store Store, policy access.Policy, sessions *session.Manager, recorder *audit.Recorder, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		policy:   policy,
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

// Get loads a user record.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", ErrUnavailable, err)
	}
	return u, nil
}

// ChangeRole moves the target to the requested role. The actor must strictly
// outrank both the current and the requested role, may not touch their own
// role, and may not demote the last remaining super_admin.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, targetID string, requested access.Role) (*User, error) {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanChangeRole(actor.ID, actor.Role, targetID, target.Role, requested); err != nil {
		return nil, err
	}
	if target.Role == access.RoleSuperAdmin && requested != access.RoleSuperAdmin {
		if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
			return nil, err
		}
	}
	before := target.Role
	if err := s.store.UpdateRole(ctx, targetID, requested); err != nil {
		return nil, fmt.Errorf("%w: update role: %v", ErrUnavailable, err)
	}
	target.Role = requested

	s.record(ctx, &audit.Entry{
		UserID:       actor.ID,
		Action:       audit.ActionUserRoleChanged,
		ResourceType: audit.ResourceUser,
		ResourceID:   &targetID,
		Changes: &audit.Changes{
			Before: map[string]any{"role": before.String()},
			After:  map[string]any{"role": requested.String()},
		},
	})
	return target, nil
}

// ChangeEmail updates the target's email. Email is a sensitive identity
// field: admin or higher, regardless of whose account it is.
func (s *Service) ChangeEmail(ctx context.Context, actor Actor, targetID, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if err := s.policy.CanChangeEmail(actor.Role); err != nil {
		return nil, err
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	before := target.Email
	if err := s.store.UpdateEmail(ctx, targetID, email); err != nil {
		return nil, fmt.Errorf("%w: update email: %v", ErrUnavailable, err)
	}
	target.Email = email

	s.record(ctx, &audit.Entry{
		UserID:       actor.ID,
		Action:       audit.ActionUserUpdated,
		ResourceType: audit.ResourceUser,
		ResourceID:   &targetID,
		Changes: &audit.Changes{
			Before: map[string]any{"email": before},
			After:  map[string]any{"email": email},
		},
	})
	return target, nil
}

// SetBanned flips the target's ban state. Banning also revokes every session
// of the target; a ban that leaves live sessions behind is not a ban, so a
// failed revocation fails the operation.
func (s *Service) SetBanned(ctx context.Context, actor Actor, targetID string, banned bool) (*User, error) {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanModifyUser(actor.ID, actor.Role, targetID, target.Role); err != nil {
		return nil, err
	}
	before := target.Banned
	if err := s.store.SetBanned(ctx, targetID, banned); err != nil {
		return nil, fmt.Errorf("%w: set banned: %v", ErrUnavailable, err)
	}
	target.Banned = banned
	if banned {
		if _, err := s.sessions.RevokeAll(ctx, targetID); err != nil {
			return nil, err
		}
	}

	s.record(ctx, &audit.Entry{
		UserID:       actor.ID,
		Action:       audit.ActionUserUpdated,
		ResourceType: audit.ResourceUser,
		ResourceID:   &targetID,
		Changes: &audit.Changes{
			Before: map[string]any{"banned": before},
			After:  map[string]any{"banned": banned},
		},
	})
	return target, nil
}

// Delete removes the target. Self-deletion is always permitted; otherwise
// the actor must strictly outrank the target. Deleting the last remaining
// super_admin is rejected no matter who asks.
func (s *Service) Delete(ctx context.Context, actor Actor, targetID string) error {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.policy.CanDeleteUser(actor.ID, actor.Role, targetID, target.Role); err != nil {
		return err
	}
	if target.Role == access.RoleSuperAdmin {
		if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
			return err
		}
	}
	if _, err := s.sessions.RevokeAll(ctx, targetID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("%w: delete user: %v", ErrUnavailable, err)
	}

	s.record(ctx, &audit.Entry{
		UserID:       actor.ID,
		Action:       audit.ActionUserDeleted,
		ResourceType: audit.ResourceUser,
		ResourceID:   &targetID,
	})
	return nil
}

func (s *Service) ensureNotLastSuperAdmin(ctx context.Context) error {
	count, err := s.store.CountByRole(ctx, access.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("%w: count super admins: %v", ErrUnavailable, err)
	}
	if count <= 1 {
		return fmt.Errorf("%w: cannot remove the last super_admin; promote another admin first", access.ErrForbidden)
	}
	return nil
}

// record writes an audit entry best-effort. Audit capture is telemetry, not
// correctness; a failed write is logged and never blocks the mutation that
// already happened.
func (s *Service) record(ctx context.Context, e *audit.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, e); err != nil && s.logger != nil {
		s.logger.Printf("audit write failed for %s: %v", e.Action, err)
	}
}
