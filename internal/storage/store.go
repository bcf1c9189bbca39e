package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/pictora/pictora/internal/model"
)

// ErrObjectNotFound is returned when no object exists under the requested ID.
var ErrObjectNotFound = errors.New("object not found")

// Object metadata keys, in the canonical form StatObject returns them.
const (
	nameMetaKey  = "Name"
	ownerMetaKey = "Owner-Account"
)

// MinioStore keeps media objects in a single bucket, keyed by file ID.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStoreWithClient wraps an existing client.
func NewMinioStoreWithClient(client *minio.Client, bucket string) (*MinioStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Bucket returns the media bucket name.
func (s *MinioStore) Bucket() string {
	return s.bucket
}

// Ping checks that the media bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("minio store not initialized")
	}
	return CheckBucket(ctx, s.client, s.bucket)
}

// Put stores an upload under id.
func (s *MinioStore) Put(ctx context.Context, id string, upload model.Upload) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("minio store not initialized")
	}
	size := upload.Size
	if size <= 0 {
		size = -1
	}
	opts := minio.PutObjectOptions{
		ContentType:  upload.ContentType,
		UserMetadata: objectMetadata(upload),
	}
	if _, err := s.client.PutObject(ctx, s.bucket, id, upload.Body, size, opts); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Get opens the object stored under id. The caller closes the reader.
func (s *MinioStore) Get(ctx context.Context, id string) (io.ReadCloser, *model.File, error) {
	if s == nil || s.client == nil {
		return nil, nil, fmt.Errorf("minio store not initialized")
	}
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translateError(err)
	}
	return obj, info, nil
}

// Stat returns the stored object's metadata.
func (s *MinioStore) Stat(ctx context.Context, id string) (*model.File, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("minio store not initialized")
	}
	info, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}

	name := info.UserMetadata[nameMetaKey]
	if name == "" {
		name = info.Key
	}
	return &model.File{
		ID:          id,
		Name:        name,
		ContentType: info.ContentType,
		Size:        info.Size,
		CreatedAt:   info.LastModified,

		OwnerAccountID: info.UserMetadata[ownerMetaKey],
	}, nil
}

func objectMetadata(upload model.Upload) map[string]string {
	meta := map[string]string{nameMetaKey: upload.Name}
	if upload.OwnerAccountID != "" {
		meta[ownerMetaKey] = upload.OwnerAccountID
	}
	return meta
}

// Delete removes the object stored under id.
// Removing a missing object succeeds, matching S3 semantics.
func (s *MinioStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("minio store not initialized")
	}
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return translateError(err)
	}
	return nil
}

func translateError(err error) error {
	if isNotFound(err) {
		return ErrObjectNotFound
	}
	return err
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	}
	return false
}
