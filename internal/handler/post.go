package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
)

// PostAPI is the post surface used by HTTP handlers.
type PostAPI interface {
	CreatePost(ctx context.Context, input service.CreatePostInput) (*model.Post, error)
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, input service.UpdatePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, postID, imageID, accountID string) (model.Status, error)
	LikePost(ctx context.Context, postID string, likes []string) (*model.Post, error)
	SavePost(ctx context.Context, userID, postID, accountID string) (*model.Save, error)
	DeleteSavedPost(ctx context.Context, saveID, accountID string) (model.Status, error)
	GetRecentPosts(ctx context.Context) ([]*model.Post, error)
	GetInfinitePosts(ctx context.Context, cursor string) (*model.PostPage, error)
	SearchPosts(ctx context.Context, term string) ([]*model.Post, error)
	GetPostActivity(ctx context.Context, postID string) (*model.PostActivity, error)
}

// PostHandler handles HTTP requests for posts, likes and saves.
type PostHandler struct {
	svc           PostAPI
	maxUploadSize int64
	logger        *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc PostAPI, maxUploadSize int64, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		svc:           svc,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Create handles POST /api/v1/posts.
// Fields: user_id, caption, location, tags and the "file" part.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseUploadForm(w, r, h.maxUploadSize)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer form.Close()

	post, err := h.svc.CreatePost(r.Context(), service.CreatePostInput{
		UserID:    form.Value("user_id"),
		AccountID: auth.AccountIDFromContext(r.Context()),
		Caption:   form.Value("caption"),
		Location:  form.Value("location"),
		Tags:      form.Value("tags"),
		File:      form.File,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_created",
		"post_id", post.ID,
		"creator_id", post.CreatorID,
		"tag_count", len(post.Tags),
	)

	writeJSON(w, http.StatusCreated, post)
}

// Get handles GET /api/v1/posts/{id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Activity handles GET /api/v1/posts/{id}/activity.
func (h *PostHandler) Activity(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetPostActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Update handles PATCH /api/v1/posts/{id}.
// Fields: caption, location, tags, image_id, image_url and an optional "file" part.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, err := parseUploadForm(w, r, h.maxUploadSize)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer form.Close()

	post, err := h.svc.UpdatePost(r.Context(), service.UpdatePostInput{
		PostID:    chi.URLParam(r, "id"),
		AccountID: auth.AccountIDFromContext(r.Context()),
		Caption:   form.Value("caption"),
		ImageID:   form.Value("image_id"),
		ImageURL:  form.Value("image_url"),
		File:      form.File,
		Location:  form.Value("location"),
		Tags:      form.Value("tags"),
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_updated",
		"post_id", post.ID,
		"image_replaced", form.File != nil,
	)

	writeJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/v1/posts/{id}?image_id=.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	status, err := h.svc.DeletePost(r.Context(), postID, r.URL.Query().Get("image_id"), auth.AccountIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_deleted", "post_id", postID)

	writeJSON(w, http.StatusOK, status)
}

// Like handles PUT /api/v1/posts/{id}/likes.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	var req dto.LikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	post, err := h.svc.LikePost(r.Context(), chi.URLParam(r, "id"), req.Likes)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Recent handles GET /api/v1/posts/recent.
func (h *PostHandler) Recent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.GetRecentPosts(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(posts))
}

// List handles GET /api/v1/posts?cursor=, the infinite feed.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetInfinitePosts(r.Context(), r.URL.Query().Get("cursor"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	list := dto.NewList(page.Posts)
	list.Pagination = &dto.Pagination{
		NextCursor: page.NextCursor,
		HasMore:    page.NextCursor != "",
	}
	writeJSON(w, http.StatusOK, list)
}

// Search handles GET /api/v1/posts/search?q=.
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(posts))
}

// Save handles POST /api/v1/saves.
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	save, err := h.svc.SavePost(r.Context(), req.UserID, req.PostID, auth.AccountIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, save)
}

// DeleteSave handles DELETE /api/v1/saves/{id}.
func (h *PostHandler) DeleteSave(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.DeleteSavedPost(r.Context(), chi.URLParam(r, "id"), auth.AccountIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
