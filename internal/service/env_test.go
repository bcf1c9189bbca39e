package service

import (
	"context"
	"testing"
	"time"

	"github.com/pictora/pictora/internal/metrics"
	"github.com/pictora/pictora/internal/model"
)

const testBaseURL = "http://pictora.test"

type testEnv struct {
	db        *fakeDB
	cache     *fakeCache
	objects   *fakeObjects
	publisher *recordingPublisher
	metrics   *metrics.InMemoryRecorder

	accounts *AccountService
	users    *UserService
	posts    *PostService
	files    *FileService
	avatars  *AvatarService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		db:        newFakeDB(),
		cache:     newFakeCache(),
		objects:   newFakeObjects(),
		publisher: &recordingPublisher{},
		metrics:   metrics.NewInMemory(),
	}

	logger := discardLogger()
	env.avatars = NewAvatarService(testBaseURL)
	env.files = NewFileService(env.objects, testBaseURL, env.metrics, logger)
	env.accounts = NewAccountService(env.db, env.db, env.cache, env.avatars, time.Hour, env.metrics, logger)
	env.users = NewUserService(env.db, env.files, logger)
	env.posts = NewPostService(env.db, env.db, env.db, env.cache, env.files, env.publisher, env.metrics, logger)

	return env
}

// seedUser stores an account and its profile directly, skipping password hashing.
func (e *testEnv) seedUser(t *testing.T, name string) *model.User {
	t.Helper()
	ctx := context.Background()

	account := &model.Account{
		ID:        newID(),
		Email:     name + "@example.com",
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.db.CreateAccount(ctx, account); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        newID(),
		AccountID: account.ID,
		Name:      name,
		Username:  name,
		Email:     account.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.db.CreateUser(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// seedPost publishes a post through the service.
func (e *testEnv) seedPost(t *testing.T, user *model.User, caption string) *model.Post {
	t.Helper()

	post, err := e.posts.CreatePost(context.Background(), CreatePostInput{
		UserID:    user.ID,
		AccountID: user.AccountID,
		Caption:   caption,
		Location:  "Lisbon",
		Tags:      "travel",
		File:      testUpload("image-bytes"),
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post
}
