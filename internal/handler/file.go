package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
)

// FileAPI is the media storage surface used by HTTP handlers.
type FileAPI interface {
	UploadFile(ctx context.Context, upload model.Upload) (*model.File, error)
	GetFilePreview(ctx context.Context, fileID string) (string, error)
	OpenFile(ctx context.Context, fileID string) (io.ReadCloser, *model.File, error)
	DeleteFile(ctx context.Context, fileID, accountID string) (model.Status, error)
}

// FileHandler handles HTTP requests for stored media.
type FileHandler struct {
	svc           FileAPI
	maxUploadSize int64
	logger        *slog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(svc FileAPI, maxUploadSize int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		svc:           svc,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Upload handles POST /api/v1/storage/files.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	form, err := parseUploadForm(w, r, h.maxUploadSize)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer form.Close()

	if form.File == nil {
		writeError(w, http.StatusBadRequest, "FILE_REQUIRED", "A file is required")
		return
	}

	upload := *form.File
	upload.OwnerAccountID = auth.AccountIDFromContext(r.Context())

	file, err := h.svc.UploadFile(r.Context(), upload)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	previewURL, err := h.svc.GetFilePreview(r.Context(), file.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("file_uploaded",
		"file_id", file.ID,
		"content_type", file.ContentType,
		"size", file.Size,
	)

	writeJSON(w, http.StatusCreated, dto.ToFileResponse(file, previewURL))
}

// Preview handles GET /api/v1/storage/files/{id}/preview.
// The width, height, gravity and quality parameters are accepted but the
// original bytes are served unchanged.
func (h *FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	body, info, err := h.svc.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	// File IDs are never reused, so previews can be cached forever.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("preview stream interrupted", "file_id", info.ID, "error", err)
	}
}

// Delete handles DELETE /api/v1/storage/files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	status, err := h.svc.DeleteFile(r.Context(), fileID, auth.AccountIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("file_deleted", "file_id", fileID)

	writeJSON(w, http.StatusOK, status)
}
