package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pictora/pictora/internal/activity"
	"github.com/pictora/pictora/internal/cache"
	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/validation"
)

const (
	// RecentPostsLimit is the size of the recent posts list.
	RecentPostsLimit = 20
	// InfinitePageSize is the size of one infinite feed page.
	InfinitePageSize = 10
	// SearchLimit caps caption search results.
	SearchLimit = 25
)

// PostService handles post, like and save business logic.
type PostService struct {
	posts    PostStore
	saves    SaveStore
	users    UserStore
	cache    PostCache
	files    *FileService
	activity ActivityPublisher
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(
	posts PostStore,
	saves SaveStore,
	users UserStore,
	postCache PostCache,
	files *FileService,
	publisher ActivityPublisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *PostService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &PostService{
		posts:    posts,
		saves:    saves,
		users:    users,
		cache:    postCache,
		files:    files,
		activity: publisher,
		metrics:  recorder,
		logger:   logger.With("component", "service.post"),
		now:      time.Now,
	}
}

// CreatePostInput defines input for publishing a post.
type CreatePostInput struct {
	UserID    string
	AccountID string
	Caption   string
	Location  string
	Tags      string
	File      *model.Upload
}

// CreatePost uploads the image, resolves its preview and writes the post
// document. The upload is removed if any later step fails.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*model.Post, error) {
	if input.UserID == "" {
		return nil, ErrMissingIdentifier
	}
	if input.File == nil {
		return nil, ErrFileRequired
	}

	form := validation.Post{Caption: input.Caption, Location: input.Location, Tags: input.Tags}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	creator, err := ownedUser(ctx, s.users, input.UserID, input.AccountID)
	if err != nil {
		return nil, err
	}

	imageID, imageURL, err := s.files.uploadWithPreview(ctx, *input.File, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &model.Post{
		ID:        newID(),
		CreatorID: creator.ID,
		Creator:   summarize(creator),
		Caption:   input.Caption,
		ImageURL:  imageURL,
		ImageID:   imageID,
		Location:  input.Location,
		Tags:      model.ParseTags(input.Tags),
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.files.cleanup(ctx, imageID, "post create failed")
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.metrics.IncPostCreated()
	s.activity.PublishAsync(activity.NewEvent(activity.EventPostCreated, post.ID, creator.ID))

	return post, nil
}

// GetPostActivity returns the persisted activity counts of an existing post.
// Event types with no records are reported as zero.
func (s *PostService) GetPostActivity(ctx context.Context, postID string) (*model.PostActivity, error) {
	if _, err := s.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	counts, err := s.posts.CountPostActivity(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count post activity: %w", err)
	}
	for _, typ := range []activity.EventType{activity.EventPostCreated, activity.EventPostLiked, activity.EventPostSaved} {
		if _, ok := counts[string(typ)]; !ok {
			counts[string(typ)] = 0
		}
	}
	return &model.PostActivity{PostID: postID, Counts: counts}, nil
}

// GetPostByID fetches a post, serving from cache when possible.
func (s *PostService) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}

	start := time.Now()
	defer func() {
		s.metrics.ObservePostFetchDuration(time.Since(start))
	}()

	cached, err := s.cache.GetPost(ctx, id)
	if err == nil {
		s.metrics.IncPostCacheHit()
		return cached, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncPostCacheMiss()
		if missing, _ := s.cache.IsPostNegativelyCached(ctx, id); missing {
			return nil, ErrPostNotFound
		}
	} else {
		s.logger.Warn("post cache unavailable", "post_id", id, "error", err)
	}

	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			_ = s.cache.SetPostNegativeCache(ctx, id)
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := s.cache.SetPost(ctx, post); err != nil {
		s.logger.Warn("failed to cache post", "post_id", id, "error", err)
	}

	return post, nil
}

// UpdatePostInput defines input for editing a post.
// ImageID and ImageURL echo the current image when File is nil; they may be
// left empty but can never point the post at another image.
type UpdatePostInput struct {
	PostID    string
	AccountID string
	Caption   string
	ImageID   string
	ImageURL  string
	File      *model.Upload
	Location  string
	Tags      string
}

// UpdatePost edits a post, optionally replacing its image.
// A new upload is removed if the update fails; the previous image is removed
// once the update succeeds.
func (s *PostService) UpdatePost(ctx context.Context, input UpdatePostInput) (*model.Post, error) {
	if input.PostID == "" {
		return nil, ErrMissingIdentifier
	}

	form := validation.Post{Caption: input.Caption, Location: input.Location, Tags: input.Tags}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	post, err := s.ownedPost(ctx, input.PostID, input.AccountID)
	if err != nil {
		return nil, err
	}
	previousImageID := post.ImageID

	var imageID, imageURL string
	replacing := input.File != nil
	if replacing {
		imageID, imageURL, err = s.files.uploadWithPreview(ctx, *input.File, input.AccountID)
	} else {
		imageID, imageURL, err = keptImage(post.ImageID, post.ImageURL, input.ImageID, input.ImageURL)
	}
	if err != nil {
		return nil, err
	}

	post.Caption = input.Caption
	post.ImageID = imageID
	post.ImageURL = imageURL
	post.Location = input.Location
	post.Tags = model.ParseTags(input.Tags)
	post.UpdatedAt = s.now().UTC()

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if replacing {
			s.files.cleanup(ctx, imageID, "post update failed")
		}
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.invalidate(ctx, post.ID)
	s.metrics.IncPostUpdated()

	if replacing && previousImageID != "" && previousImageID != imageID {
		s.files.cleanup(ctx, previousImageID, "post image replaced")
	}

	return post, nil
}

// DeletePost removes a post and then its image. Both IDs are required.
func (s *PostService) DeletePost(ctx context.Context, postID, imageID, accountID string) (model.Status, error) {
	if postID == "" || imageID == "" {
		return model.Status{}, ErrMissingIdentifier
	}

	post, err := s.ownedPost(ctx, postID, accountID)
	if err != nil {
		return model.Status{}, err
	}
	if post.ImageID != imageID {
		return model.Status{}, ErrImageMismatch
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return model.Status{}, ErrPostNotFound
		}
		return model.Status{}, fmt.Errorf("failed to delete post: %w", err)
	}

	s.invalidate(ctx, postID)
	s.metrics.IncPostDeleted()
	s.files.cleanup(ctx, imageID, "post deleted")

	return model.StatusOK, nil
}

// LikePost replaces the post's likes with the given user IDs. A liked event
// is published for each user that was not already in the list.
func (s *PostService) LikePost(ctx context.Context, postID string, likes []string) (*model.Post, error) {
	if postID == "" {
		return nil, ErrMissingIdentifier
	}
	if likes == nil {
		likes = []string{}
	}

	before, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := s.posts.SetPostLikes(ctx, postID, likes); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to like post: %w", err)
	}
	s.invalidate(ctx, postID)

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}

	for _, userID := range likes {
		if before.LikedBy(userID) {
			continue
		}
		s.metrics.IncPostLiked()
		event := activity.NewEvent(activity.EventPostLiked, postID, userID)
		event.LikeCount = len(post.Likes)
		s.activity.PublishAsync(event)
	}

	return post, nil
}

// SavePost records that userID saved postID. Both IDs are required and the
// user must belong to accountID.
func (s *PostService) SavePost(ctx context.Context, userID, postID, accountID string) (*model.Save, error) {
	if userID == "" || postID == "" {
		return nil, ErrMissingIdentifier
	}

	if _, err := ownedUser(ctx, s.users, userID, accountID); err != nil {
		return nil, err
	}

	save := &model.Save{
		ID:        newID(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.saves.CreateSave(ctx, save); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadySaved):
			return nil, ErrAlreadySaved
		case errors.Is(err, repository.ErrSaveTarget):
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to save post: %w", err)
	}

	s.metrics.IncPostSaved()
	s.activity.PublishAsync(activity.NewEvent(activity.EventPostSaved, postID, userID))

	return save, nil
}

// DeleteSavedPost removes a save record owned by accountID.
func (s *PostService) DeleteSavedPost(ctx context.Context, saveID, accountID string) (model.Status, error) {
	if saveID == "" {
		return model.Status{}, ErrMissingIdentifier
	}

	save, err := s.saves.GetSaveByID(ctx, saveID)
	if err != nil {
		if errors.Is(err, repository.ErrSaveNotFound) {
			return model.Status{}, ErrSaveNotFound
		}
		return model.Status{}, fmt.Errorf("failed to get save: %w", err)
	}

	if _, err := ownedUser(ctx, s.users, save.UserID, accountID); err != nil {
		return model.Status{}, err
	}

	if err := s.saves.DeleteSave(ctx, saveID); err != nil {
		if errors.Is(err, repository.ErrSaveNotFound) {
			return model.Status{}, ErrSaveNotFound
		}
		return model.Status{}, fmt.Errorf("failed to delete save: %w", err)
	}

	return model.StatusOK, nil
}

// GetRecentPosts returns the newest posts by creation time.
func (s *PostService) GetRecentPosts(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.ListPosts(ctx, repository.OrderByCreated, "", RecentPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent posts: %w", err)
	}
	return posts, nil
}

// GetInfinitePosts returns one page of the feed ordered by last update.
// cursor is the ID of the last post of the previous page, or "" for the first page.
func (s *PostService) GetInfinitePosts(ctx context.Context, cursor string) (*model.PostPage, error) {
	posts, err := s.posts.ListPosts(ctx, repository.OrderByUpdated, cursor, InfinitePageSize)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	page := &model.PostPage{Posts: posts}
	if len(posts) == InfinitePageSize {
		page.NextCursor = posts[len(posts)-1].ID
	}
	return page, nil
}

// SearchPosts runs a full-text search over captions.
func (s *PostService) SearchPosts(ctx context.Context, term string) ([]*model.Post, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearch
	}

	posts, err := s.posts.SearchPosts(ctx, term, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// ownedPost loads a post from the store and checks its creator belongs to accountID.
func (s *PostService) ownedPost(ctx context.Context, postID, accountID string) (*model.Post, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if _, err := ownedUser(ctx, s.users, post.CreatorID, accountID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) invalidate(ctx context.Context, postID string) {
	if err := s.cache.DeletePost(ctx, postID); err != nil {
		s.logger.Warn("failed to invalidate cached post", "post_id", postID, "error", err)
	}
}

func summarize(user *model.User) *model.UserSummary {
	return &model.UserSummary{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		ImageURL: user.ImageURL,
	}
}
