package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pictora/pictora/internal/config"
	"github.com/pictora/pictora/internal/handler"
	"github.com/pictora/pictora/internal/service"
)

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"postgres://pictora:secret@db:5432/pictora", "postgres://pictora@db:5432/pictora"},
		{"redis://:secret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.raw); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://pictora:secret@db:5432/pictora"
	err := errors.New("dial " + dsn + " failed: password=secret")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "secret") {
		t.Errorf("secret leaked: %q", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	if parseLogLevel("DEBUG") != slog.LevelDebug {
		t.Error("expected debug level")
	}
	if parseLogLevel("nonsense") != slog.LevelInfo {
		t.Error("expected info fallback")
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{AppEnv: "development", MaxRequestBodySize: 1 << 20}

	h := routeHandlers{
		root:     handler.New(),
		health:   handler.NewHealthHandler(nil, nil, nil),
		metrics:  handler.NewMetricsHandler(nil),
		accounts: handler.NewAccountHandler(nil, handler.CookieConfig{}, logger),
		users:    handler.NewUserHandler(nil, 1<<20, logger),
		posts:    handler.NewPostHandler(nil, 1<<20, logger),
		files:    handler.NewFileHandler(nil, 1<<20, logger),
		avatars:  handler.NewAvatarHandler(service.NewAvatarService("http://pictora.test")),
	}
	r := setupRouter(h, nil, nil, cfg, logger)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"hello", http.MethodGet, "/", http.StatusOK},
		{"liveness", http.MethodGet, "/healthz", http.StatusOK},
		{"avatar is public", http.MethodGet, "/api/v1/avatars/initials?name=Ann", http.StatusOK},
		{"feed needs session", http.MethodGet, "/api/v1/posts", http.StatusUnauthorized},
		{"users need session", http.MethodGet, "/api/v1/users", http.StatusUnauthorized},
		{"upload needs session", http.MethodPost, "/api/v1/storage/files", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/links", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/healthz", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.wantStatus)
			}
		})
	}
}
