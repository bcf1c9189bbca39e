package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/service"
	"github.com/pictora/pictora/internal/validation"
)

// errorMapping is the HTTP rendering of a service error.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Not allowed to modify this resource"},
	{service.ErrEmailExists, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists"},
	{service.ErrAlreadySaved, http.StatusConflict, "ALREADY_SAVED", "Post already saved"},
	{service.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"},
	{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{service.ErrPostNotFound, http.StatusNotFound, "POST_NOT_FOUND", "Post not found"},
	{service.ErrSaveNotFound, http.StatusNotFound, "SAVE_NOT_FOUND", "Saved post not found"},
	{service.ErrFileNotFound, http.StatusNotFound, "FILE_NOT_FOUND", "File not found"},
	{service.ErrFileRequired, http.StatusBadRequest, "FILE_REQUIRED", "A file is required"},
	{service.ErrMissingIdentifier, http.StatusBadRequest, "MISSING_ID", "A required identifier is missing"},
	{service.ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR", "Unknown page cursor"},
	{service.ErrImageMismatch, http.StatusBadRequest, "IMAGE_MISMATCH", "Image does not belong to this resource"},
	{service.ErrEmptySearch, http.StatusBadRequest, "EMPTY_SEARCH", "Search term is required"},
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verrs,
		})
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, m.message)
			return
		}
	}

	logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}
