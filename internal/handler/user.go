package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
)

// UserAPI is the profile surface used by HTTP handlers.
type UserAPI interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUsers(ctx context.Context, limit int) ([]*model.User, error)
	UpdateUser(ctx context.Context, input service.UpdateUserInput) (*model.User, error)
}

// UserHandler handles HTTP requests for profiles.
type UserHandler struct {
	svc           UserAPI
	maxUploadSize int64
	logger        *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserAPI, maxUploadSize int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:           svc,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// List handles GET /api/v1/users.
// An absent limit lists every user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	users, err := h.svc.GetUsers(r.Context(), limit)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(users))
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/v1/users/{id}.
// Fields: name, bio, image_id, image_url and an optional "file" part.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, err := parseUploadForm(w, r, h.maxUploadSize)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer form.Close()

	user, err := h.svc.UpdateUser(r.Context(), service.UpdateUserInput{
		UserID:    chi.URLParam(r, "id"),
		AccountID: auth.AccountIDFromContext(r.Context()),
		Name:      form.Value("name"),
		Bio:       form.Value("bio"),
		ImageID:   form.Value("image_id"),
		ImageURL:  form.Value("image_url"),
		File:      form.File,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_updated",
		"user_id", user.ID,
		"image_replaced", form.File != nil,
	)

	writeJSON(w, http.StatusOK, user)
}
