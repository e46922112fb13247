package session

import "time"

// Session is one authenticated device or browser context. Expiry is derived
// from ExpiresAt at read time; there is no stored active/expired flag, so a
// session can never drift from wall-clock truth.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the session is still valid at the given instant.
func (s *Session) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
