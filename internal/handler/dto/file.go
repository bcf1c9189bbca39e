package dto

import (
	"time"

	"github.com/pictora/pictora/internal/model"
)

// FileResponse represents an uploaded file in API responses.
type FileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PreviewURL  string    `json:"preview_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToFileResponse converts a File model to FileResponse DTO.
func ToFileResponse(file *model.File, previewURL string) *FileResponse {
	return &FileResponse{
		ID:          file.ID,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		PreviewURL:  previewURL,
		CreatedAt:   file.CreatedAt,
	}
}
