package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/storage"
)

// FileService stores uploaded media and builds their preview URLs.
type FileService struct {
	store   ObjectStore
	baseURL string
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewFileService creates a new FileService.
func NewFileService(store ObjectStore, baseURL string, recorder metrics.Recorder, logger *slog.Logger) *FileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FileService{
		store:   store,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		metrics: recorder,
		logger:  logger.With("component", "service.file"),
		now:     time.Now,
	}
}

// UploadFile stores the upload under a new unique ID, recording the
// uploading account as the file's owner.
func (s *FileService) UploadFile(ctx context.Context, upload model.Upload) (*model.File, error) {
	if upload.Body == nil {
		return nil, ErrFileRequired
	}
	if upload.OwnerAccountID == "" {
		return nil, ErrUnauthenticated
	}

	id := newID()
	if err := s.store.Put(ctx, id, upload); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	s.metrics.IncFileUploaded()
	s.logger.Debug("file uploaded", "file_id", id, "size", upload.Size)

	return &model.File{
		ID:          id,
		Name:        upload.Name,
		ContentType: upload.ContentType,
		Size:        upload.Size,
		CreatedAt:   s.now().UTC(),

		OwnerAccountID: upload.OwnerAccountID,
	}, nil
}

// GetFilePreview returns the preview URL for a stored file.
// It fails when the file does not exist.
func (s *FileService) GetFilePreview(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrMissingIdentifier
	}

	if _, err := s.store.Stat(ctx, fileID); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return s.PreviewURL(fileID, model.DefaultPreview), nil
}

// PreviewURL builds the preview URL for fileID with the given rendering hints.
func (s *FileService) PreviewURL(fileID string, opts model.PreviewOptions) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(opts.Width))
	q.Set("height", strconv.Itoa(opts.Height))
	q.Set("gravity", string(opts.Gravity))
	q.Set("quality", strconv.Itoa(opts.Quality))

	return s.baseURL + "/api/v1/storage/files/" + url.PathEscape(fileID) + "/preview?" + q.Encode()
}

// OpenFile returns a reader over the stored bytes. The caller closes it.
func (s *FileService) OpenFile(ctx context.Context, fileID string) (io.ReadCloser, *model.File, error) {
	if fileID == "" {
		return nil, nil, ErrMissingIdentifier
	}

	body, info, err := s.store.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return body, info, nil
}

// DeleteFile removes a stored file. Only the uploading account may delete
// it; files stored without an owner cannot be deleted through this path.
func (s *FileService) DeleteFile(ctx context.Context, fileID, accountID string) (model.Status, error) {
	if fileID == "" {
		return model.Status{}, ErrMissingIdentifier
	}
	if accountID == "" {
		return model.Status{}, ErrUnauthenticated
	}

	info, err := s.store.Stat(ctx, fileID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return model.Status{}, ErrFileNotFound
		}
		return model.Status{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.OwnerAccountID != accountID {
		return model.Status{}, ErrForbidden
	}

	if err := s.removeFile(ctx, fileID); err != nil {
		return model.Status{}, err
	}
	return model.StatusOK, nil
}

func (s *FileService) removeFile(ctx context.Context, fileID string) error {
	if err := s.store.Delete(ctx, fileID); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// uploadWithPreview uploads a file owned by accountID and resolves its
// preview URL. If the preview cannot be resolved the upload is removed again.
func (s *FileService) uploadWithPreview(ctx context.Context, upload model.Upload, accountID string) (fileID, previewURL string, err error) {
	upload.OwnerAccountID = accountID
	file, err := s.UploadFile(ctx, upload)
	if err != nil {
		return "", "", err
	}

	previewURL, err = s.GetFilePreview(ctx, file.ID)
	if err != nil {
		s.cleanup(ctx, file.ID, "preview unavailable")
		return "", "", fmt.Errorf("failed to get file preview: %w", err)
	}

	return file.ID, previewURL, nil
}

// keptImage resolves the image fields of an update that carries no new file.
// Empty fields fall back to the current image; anything else must match it.
func keptImage(currentID, currentURL, inputID, inputURL string) (string, string, error) {
	if inputID != "" && inputID != currentID {
		return "", "", ErrImageMismatch
	}
	if inputURL != "" && inputURL != currentURL {
		return "", "", ErrImageMismatch
	}
	return currentID, currentURL, nil
}

// cleanup deletes a file on a best-effort basis, logging failures.
// It skips the owner check: callers pass images they already own.
func (s *FileService) cleanup(ctx context.Context, fileID, reason string) {
	if fileID == "" {
		return
	}

	// The request context may already be cancelled; the delete must still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.removeFile(ctx, fileID); err != nil && !errors.Is(err, ErrFileNotFound) {
		s.metrics.IncFileCleanup("failed")
		s.logger.Warn("failed to delete file",
			"file_id", fileID,
			"reason", reason,
			"error", err,
		)
		return
	}

	s.metrics.IncFileCleanup("success")
	s.logger.Debug("file deleted", "file_id", fileID, "reason", reason)
}
