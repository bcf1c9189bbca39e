package dto

import (
	"time"

	"github.com/pictora/pictora/internal/model"
)

// CreateAccountRequest represents the sign-up request body.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest represents the sign-in request body.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned once, when a session is created.
type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToSessionResponse converts a new session and its token.
func ToSessionResponse(session *model.Session, token string) *SessionResponse {
	return &SessionResponse{
		Token:     token,
		SessionID: session.ID,
		AccountID: session.AccountID,
		ExpiresAt: session.ExpiresAt,
	}
}

// FormResult is the sign-in form outcome: either a redirect target or a
// toast message, plus any field errors.
type FormResult struct {
	Redirect string            `json:"redirect,omitempty"`
	Toast    string            `json:"toast,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	User     *model.User       `json:"user,omitempty"`
}
