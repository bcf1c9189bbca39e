package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
)

const validToken = "ps_01hv3k2q9c7a5f3d2e1b9c7a5f_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

type stubResolver struct {
	token string
	err   error
}

func (s stubResolver) ResolveSession(_ context.Context, token string) (*model.AuthContext, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, service.ErrUnauthenticated
	}
	return &model.AuthContext{SessionID: "01hv3k2q9c7a5f3d2e1b9c7a5f", AccountID: "acc-1", TokenHash: "hash"}, nil
}

func TestAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resolver stubResolver
		setup    func(r *http.Request)
		want     int
	}{
		{
			name:     "bearer token",
			resolver: stubResolver{token: validToken},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken) },
			want:     http.StatusOK,
		},
		{
			name:     "session cookie",
			resolver: stubResolver{token: validToken},
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookieName(), Value: validToken})
			},
			want: http.StatusOK,
		},
		{
			name:     "missing token",
			resolver: stubResolver{token: validToken},
			setup:    func(r *http.Request) {},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "malformed token",
			resolver: stubResolver{token: validToken},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			want:     http.StatusUnauthorized,
		},
		{
			name:     "unknown session",
			resolver: stubResolver{token: "other"},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken) },
			want:     http.StatusUnauthorized,
		},
		{
			name:     "store failure",
			resolver: stubResolver{err: errors.New("redis down")},
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken) },
			want:     http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *model.AuthContext
			h := Auth(AuthConfig{Logger: testLogger(), Sessions: tt.resolver})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.AuthFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (got == nil || got.AccountID != "acc-1") {
				t.Errorf("auth context not injected: %+v", got)
			}
		})
	}
}

func TestExtractSessionToken_BearerWins(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName(), Value: "cookie-token"})

	if got := ExtractSessionToken(req); got != "header-token" {
		t.Errorf("ExtractSessionToken() = %q, want header-token", got)
	}
}
