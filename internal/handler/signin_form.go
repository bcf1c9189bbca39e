package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/validation"
)

// Sign-in form toasts.
const (
	ToastSignInFailed = "Sign in failed. Please try again."
	ToastUnexpected   = "Something went wrong. Try again!"
)

// signInRedirect is where a signed-in browser lands.
const signInRedirect = "/"

// SubmitSignInForm handles POST /sign-in.
//
// The form is validated, a session is opened and the current user is
// refreshed for it. Urlencoded browser posts are redirected on success;
// JSON callers receive the redirect target in the body. Failures carry the
// toast to show.
func (h *AccountHandler) SubmitSignInForm(w http.ResponseWriter, r *http.Request) {
	browser := isFormPost(r)

	form, err := readSignInForm(r, browser)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.FormResult{Toast: ToastUnexpected})
		return
	}

	if errs := form.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.FormResult{Fields: errs})
		return
	}

	result, err := h.svc.SignInAccount(r.Context(), h.signInInput(r, form))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, dto.FormResult{Toast: ToastSignInFailed})
			return
		}
		h.logger.Error("sign-in form failed", "stage", "session", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.FormResult{Toast: ToastUnexpected})
		return
	}

	user, err := h.svc.GetCurrentUser(r.Context(), result.Session.AccountID)
	if err != nil {
		// A session without a profile is not a logged-in state.
		h.discardSession(r.Context(), result)
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrAccountNotFound) {
			writeJSON(w, http.StatusUnauthorized, dto.FormResult{Toast: ToastSignInFailed})
			return
		}
		h.logger.Error("sign-in form failed", "stage", "current_user", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.FormResult{Toast: ToastUnexpected})
		return
	}

	h.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	h.logger.Info("signed_in", "account_id", user.AccountID, "user_id", user.ID)

	if browser {
		http.Redirect(w, r, signInRedirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, dto.FormResult{Redirect: signInRedirect, User: user})
}

// discardSession deletes a session that did not lead to a logged-in user.
func (h *AccountHandler) discardSession(ctx context.Context, result *service.SignInResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	authCtx := &model.AuthContext{
		SessionID: result.Session.ID,
		AccountID: result.Session.AccountID,
		TokenHash: auth.QuickHash(result.Token),
	}
	if _, err := h.svc.SignOutAccount(ctx, authCtx); err != nil {
		h.logger.Warn("failed to discard session", "session_id", result.Session.ID, "error", err)
	}
}

func readSignInForm(r *http.Request, browser bool) (validation.Signin, error) {
	if browser {
		if err := r.ParseForm(); err != nil {
			return validation.Signin{}, err
		}
		return validation.Signin{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}, nil
	}

	var req dto.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		return validation.Signin{}, err
	}
	return validation.Signin{Email: req.Email, Password: req.Password}, nil
}

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
