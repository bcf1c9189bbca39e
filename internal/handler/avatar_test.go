package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pictora/pictora/internal/service"
)

func TestAvatarHandler_Initials(t *testing.T) {
	t.Parallel()

	h := NewAvatarHandler(service.NewAvatarService("http://pictora.test"))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"name only", "?name=Ann+Lee", http.StatusOK, ">AL</text>"},
		{"with size", "?name=Bo&size=96", http.StatusOK, `width="96"`},
		{"empty name", "", http.StatusOK, ">?</text>"},
		{"bad size", "?name=Bo&size=big", http.StatusBadRequest, "INVALID_SIZE"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.Initials(rec, httptest.NewRequest(http.MethodGet, "/api/v1/avatars/initials"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusOK && rec.Header().Get("Content-Type") != "image/svg+xml" {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}
