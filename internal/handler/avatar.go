package handler

import (
	"net/http"
	"strconv"

	"github.com/pictora/pictora/internal/service"
)

// AvatarHandler renders initials avatars.
type AvatarHandler struct {
	svc *service.AvatarService
}

// NewAvatarHandler creates a new AvatarHandler.
func NewAvatarHandler(svc *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

// Initials handles GET /api/v1/avatars/initials?name=&size=.
func (h *AvatarHandler) Initials(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	size := 0
	if s := query.Get("size"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SIZE", "Size must be an integer")
			return
		}
		size = parsed
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.svc.RenderInitials(query.Get("name"), size))
}
