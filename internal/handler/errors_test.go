package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/validation"
)

func TestHandleServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"wrapped not found", fmt.Errorf("get post: %w", service.ErrPostNotFound), http.StatusNotFound, "POST_NOT_FOUND"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"email taken", service.ErrEmailExists, http.StatusConflict, "EMAIL_TAKEN"},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"missing id", service.ErrMissingIdentifier, http.StatusBadRequest, "MISSING_ID"},
		{"cursor", service.ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handleServiceError(rec, discardLogger(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleServiceError_Validation(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create post: %w", validation.Errors{"caption": "must be at least 5 characters"})

	rec := httptest.NewRecorder()
	handleServiceError(rec, discardLogger(), err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "VALIDATION_FAILED" || resp.Fields["caption"] == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
