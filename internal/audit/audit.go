package audit

import (
	"time"
)

// Action identifies a security-relevant event. The set is closed: Record
// rejects anything not listed here.
type Action string

const (
	ActionUserCreated           Action = "user.created"
	ActionUserUpdated           Action = "user.updated"
	ActionUserDeleted           Action = "user.deleted"
	ActionUserRoleChanged       Action = "user.role_changed"
	ActionUserLogin             Action = "user.login"
	ActionUserLogout            Action = "user.logout"
	ActionSessionRevoked        Action = "session.revoked"
	ActionSessionRevokedAll     Action = "session.revoked_all"
	ActionPasswordChanged       Action = "password.changed"
	ActionAccountLinked         Action = "account.linked"
	ActionAccountUnlinked       Action = "account.unlinked"
	ActionEmailVerified         Action = "email.verified"
	ActionEmailVerificationSent Action = "email.verification_sent"
)

var knownActions = map[Action]struct{}{
	ActionUserCreated:           {},
	ActionUserUpdated:           {},
	ActionUserDeleted:           {},
	ActionUserRoleChanged:       {},
	ActionUserLogin:             {},
	ActionUserLogout:            {},
	ActionSessionRevoked:        {},
	ActionSessionRevokedAll:     {},
	ActionPasswordChanged:       {},
	ActionAccountLinked:         {},
	ActionAccountUnlinked:       {},
	ActionEmailVerified:         {},
	ActionEmailVerificationSent: {},
}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// ResourceType names the kind of resource an entry describes.
type ResourceType string

const (
	ResourceUser     ResourceType = "user"
	ResourceSession  ResourceType = "session"
	ResourceAccount  ResourceType = "account"
	ResourcePassword ResourceType = "password"
	ResourceEmail    ResourceType = "email"
)

var knownResources = map[ResourceType]struct{}{
	ResourceUser:     {},
	ResourceSession:  {},
	ResourceAccount:  {},
	ResourcePassword: {},
	ResourceEmail:    {},
}

func (r ResourceType) Valid() bool {
	_, ok := knownResources[r]
	return ok
}

// Changes is an optional before/after snapshot pair for diffing.
type Changes struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// Entry is one append-only audit record. Once written it is never updated
// or deleted by the application.
type Entry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Action       Action       `json:"action"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   *string      `json:"resource_id,omitempty"`
	Changes      *Changes     `json:"changes,omitempty"`
	IPAddress    *string      `json:"ip_address,omitempty"`
	UserAgent    *string      `json:"user_agent,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
