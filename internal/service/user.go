package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/validation"
)

// UserService handles profile reads and edits.
type UserService struct {
	users  UserStore
	files  *FileService
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, files *FileService, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		files:  files,
		logger: logger.With("component", "service.user"),
		now:    time.Now,
	}
}

// GetUserByID fetches a profile.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}
	return lookupUser(ctx, s.users, id)
}

// GetUsers lists profiles newest first. A limit <= 0 lists all of them.
func (s *UserService) GetUsers(ctx context.Context, limit int) ([]*model.User, error) {
	users, err := s.users.ListUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserInput defines input for editing a profile.
// ImageID and ImageURL echo the current image when File is nil; they may be
// left empty but can never point the profile at another image.
type UpdateUserInput struct {
	UserID    string
	AccountID string
	Name      string
	Bio       string
	ImageID   string
	ImageURL  string
	File      *model.Upload
}

// UpdateUser edits a profile, optionally replacing its image.
// A new upload is removed if the update fails; the previous image is removed
// once the update succeeds.
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*model.User, error) {
	if input.UserID == "" {
		return nil, ErrMissingIdentifier
	}

	form := validation.Profile{Name: strings.TrimSpace(input.Name), Bio: input.Bio}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	user, err := ownedUser(ctx, s.users, input.UserID, input.AccountID)
	if err != nil {
		return nil, err
	}
	previousImageID := user.ImageID

	var imageID, imageURL string
	replacing := input.File != nil
	if replacing {
		imageID, imageURL, err = s.files.uploadWithPreview(ctx, *input.File, input.AccountID)
	} else {
		imageID, imageURL, err = keptImage(user.ImageID, user.ImageURL, input.ImageID, input.ImageURL)
	}
	if err != nil {
		return nil, err
	}

	user.Name = form.Name
	user.Bio = input.Bio
	user.ImageID = imageID
	user.ImageURL = imageURL
	user.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if replacing {
			s.files.cleanup(ctx, imageID, "profile update failed")
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if replacing && previousImageID != "" && previousImageID != imageID {
		s.files.cleanup(ctx, previousImageID, "profile image replaced")
	}

	return user, nil
}

// lookupUser maps the repository miss onto the service error.
func lookupUser(ctx context.Context, users UserStore, id string) (*model.User, error) {
	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ownedUser loads a profile and checks it belongs to accountID.
func ownedUser(ctx context.Context, users UserStore, userID, accountID string) (*model.User, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := lookupUser(ctx, users, userID)
	if err != nil {
		return nil, err
	}
	if user.AccountID != accountID {
		return nil, ErrForbidden
	}
	return user, nil
}
