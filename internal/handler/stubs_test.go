package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
)

const testToken = "ps_01hv3k2q9c7a5f3d2e1b9c7a5f_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withAccount attaches an authenticated session to the request.
func withAccount(r *http.Request, accountID string) *http.Request {
	ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{
		SessionID: "01hv3k2q9c7a5f3d2e1b9c7a5f",
		AccountID: accountID,
		TokenHash: auth.QuickHash(testToken),
	})
	return r.WithContext(ctx)
}

// stubAccounts is a scriptable AccountAPI.
type stubAccounts struct {
	signInErr      error
	currentUserErr error
	signOutErr     error

	signInInput  service.SignInInput
	signedOut    []*model.AuthContext
	signedOutAll []string
}

func (s *stubAccounts) CreateUserAccount(_ context.Context, in service.CreateAccountInput) (*model.User, error) {
	if in.Email == "taken@example.com" {
		return nil, service.ErrEmailExists
	}
	return &model.User{ID: "user-1", AccountID: "acc-1", Name: in.Name, Username: in.Username, Email: in.Email}, nil
}

func (s *stubAccounts) SignInAccount(_ context.Context, in service.SignInInput) (*service.SignInResult, error) {
	s.signInInput = in
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return &service.SignInResult{
		Session: &model.Session{
			ID:        "01hv3k2q9c7a5f3d2e1b9c7a5f",
			AccountID: "acc-1",
			ExpiresAt: time.Now().Add(time.Hour),
		},
		Token: testToken,
	}, nil
}

func (s *stubAccounts) GetCurrentUser(_ context.Context, accountID string) (*model.User, error) {
	if s.currentUserErr != nil {
		return nil, s.currentUserErr
	}
	if accountID == "" {
		return nil, service.ErrUnauthenticated
	}
	return &model.User{ID: "user-1", AccountID: accountID, Name: "Ann", Username: "ann"}, nil
}

func (s *stubAccounts) SignOutAccount(_ context.Context, authCtx *model.AuthContext) (model.Status, error) {
	if s.signOutErr != nil {
		return model.Status{}, s.signOutErr
	}
	if authCtx == nil {
		return model.Status{}, service.ErrUnauthenticated
	}
	s.signedOut = append(s.signedOut, authCtx)
	return model.StatusOK, nil
}

func (s *stubAccounts) SignOutEverywhere(_ context.Context, authCtx *model.AuthContext) (model.Status, error) {
	if authCtx == nil {
		return model.Status{}, service.ErrUnauthenticated
	}
	s.signedOutAll = append(s.signedOutAll, authCtx.AccountID)
	return model.StatusOK, nil
}

// multipartBody builds a multipart form with an optional file part.
func multipartBody(t *testing.T, fields map[string]string, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if fileName != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}
