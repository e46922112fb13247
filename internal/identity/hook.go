package identity

import (
	"context"
	"fmt"
	"log"

	"sentra.dev/internal/audit"
	"sentra.dev/internal/session"
)

// Hook is the lifecycle observer the authentication layer calls into after
// each account event. Every method except AfterPasswordChange is best-effort:
// audit capture must never turn a successful sign-in into an error. Password
// changes are different because the stale-session sweep is a security
// obligation, not telemetry.
type Hook struct {
	recorder *audit.Recorder
	sessions *session.Manager
	logger   *log.Logger
}

func NewHook(recorder *audit.Recorder, sessions *session.Manager, logger *log.Logger) *Hook {
	return &Hook{recorder: recorder, sessions: sessions, logger: logger}
}

// AfterSignIn records a login event.
func (h *Hook) AfterSignIn(ctx context.Context, userID string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionUserLogin, audit.ResourceUser, nil, nil, meta)
}

// AfterSignUp records the creation of a new account.
func (h *Hook) AfterSignUp(ctx context.Context, userID string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionUserCreated, audit.ResourceUser, &userID, nil, meta)
}

// AfterSignOut records a logout against the session that ended.
func (h *Hook) AfterSignOut(ctx context.Context, userID, sessionID string, meta RequestMeta) {
	var resourceID *string
	if sessionID != "" {
		resourceID = &sessionID
	}
	h.record(ctx, userID, audit.ActionUserLogout, audit.ResourceSession, resourceID, nil, meta)
}

// AfterEmailVerified records completion of email verification.
func (h *Hook) AfterEmailVerified(ctx context.Context, userID, email string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionEmailVerified, audit.ResourceEmail, nil, &audit.Changes{
		After: map[string]any{"email": email},
	}, meta)
}

// AfterVerificationSent records that a verification email went out.
func (h *Hook) AfterVerificationSent(ctx context.Context, userID, email string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionEmailVerificationSent, audit.ResourceEmail, nil, &audit.Changes{
		After: map[string]any{"email": email},
	}, meta)
}

// AfterAccountLinked records a new external provider link.
func (h *Hook) AfterAccountLinked(ctx context.Context, userID, provider string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionAccountLinked, audit.ResourceAccount, nil, &audit.Changes{
		After: map[string]any{"provider": provider},
	}, meta)
}

// AfterAccountUnlinked records removal of an external provider link.
func (h *Hook) AfterAccountUnlinked(ctx context.Context, userID, provider string, meta RequestMeta) {
	h.record(ctx, userID, audit.ActionAccountUnlinked, audit.ResourceAccount, nil, &audit.Changes{
		Before: map[string]any{"provider": provider},
	}, meta)
}

// AfterPasswordChange revokes every session of the user, then records the
// password change and the sweep. A credential rotation that leaves old
// sessions alive defeats its purpose, so a failed revocation is returned to
// the caller.
func (h *Hook) AfterPasswordChange(ctx context.Context, userID string, meta RequestMeta) error {
	revoked, err := h.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions after password change: %w", err)
	}
	h.record(ctx, userID, audit.ActionPasswordChanged, audit.ResourcePassword, nil, nil, meta)
	h.record(ctx, userID, audit.ActionSessionRevokedAll, audit.ResourceSession, nil, &audit.Changes{
		After: map[string]any{"revoked": revoked},
	}, meta)
	return nil
}

func (h *Hook) record(ctx context.Context, userID string, action audit.Action, resource audit.ResourceType, resourceID *string, changes *audit.Changes, meta RequestMeta) {
	if h.recorder == nil {
		return
	}
	err := h.recorder.Record(ctx, &audit.Entry{
		UserID:       userID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		Changes:      changes,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
	})
	if err != nil && h.logger != nil {
		h.logger.Printf("audit write failed for %s: %v", action, err)
	}
}
