package model

import "time"

// Session is an authenticated email/password session.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Provider  string    `json:"provider"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionProviderEmail identifies email/password sessions.
const SessionProviderEmail = "email"

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthContext holds authenticated request context.
// This is injected into the request context by the session middleware.
type AuthContext struct {
	SessionID string
	AccountID string
	TokenHash string
}
