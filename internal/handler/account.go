package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/validation"
)

// AccountAPI is the account surface used by HTTP handlers.
type AccountAPI interface {
	CreateUserAccount(ctx context.Context, input service.CreateAccountInput) (*model.User, error)
	SignInAccount(ctx context.Context, input service.SignInInput) (*service.SignInResult, error)
	GetCurrentUser(ctx context.Context, accountID string) (*model.User, error)
	SignOutAccount(ctx context.Context, authCtx *model.AuthContext) (model.Status, error)
	SignOutEverywhere(ctx context.Context, authCtx *model.AuthContext) (model.Status, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	Domain string
}

// AccountHandler handles sign-up, sessions and the current account.
type AccountHandler struct {
	svc    AccountAPI
	cookie CookieConfig
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc AccountAPI, cookie CookieConfig, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		cookie: cookie,
		logger: logger,
	}
}

// SignUp handles POST /api/v1/accounts.
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.CreateUserAccount(r.Context(), service.CreateAccountInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("account_created",
		"account_id", user.AccountID,
		"user_id", user.ID,
	)

	writeJSON(w, http.StatusCreated, user)
}

// CreateSession handles POST /api/v1/sessions.
func (h *AccountHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	form := validation.Signin{Email: req.Email, Password: req.Password}
	if err := form.Validate().Err(); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	result, err := h.svc.SignInAccount(r.Context(), h.signInInput(r, form))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	writeJSON(w, http.StatusCreated, dto.ToSessionResponse(result.Session, result.Token))
}

// Current handles GET /api/v1/account.
func (h *AccountHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetCurrentUser(r.Context(), auth.AccountIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// SignOut handles DELETE /api/v1/sessions/current.
func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.SignOutAccount(r.Context(), auth.AuthFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, status)
}

// SignOutEverywhere handles DELETE /api/v1/sessions.
func (h *AccountHandler) SignOutEverywhere(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.SignOutEverywhere(r.Context(), auth.AuthFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, status)
}

func (h *AccountHandler) signInInput(r *http.Request, form validation.Signin) service.SignInInput {
	return service.SignInInput{
		Email:     form.Email,
		Password:  form.Password,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (h *AccountHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientIP returns RemoteAddr without its port; chi's RealIP has already
// applied proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
