package service

import (
	"context"
	"io"

	"github.com/pictora/pictora/internal/activity"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
)

// AccountStore persists credential records.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// UserStore persists profile documents.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByAccountID(ctx context.Context, accountID string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context, limit int) ([]*model.User, error)
}

// PostStore persists post documents.
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	SetPostLikes(ctx context.Context, id string, likes []string) error
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, order repository.PostOrder, afterID string, limit int) ([]*model.Post, error)
	SearchPosts(ctx context.Context, term string, limit int) ([]*model.Post, error)
	CountPostActivity(ctx context.Context, postID string) (map[string]int64, error)
}

// SaveStore persists save records.
type SaveStore interface {
	CreateSave(ctx context.Context, save *model.Save) error
	GetSaveByID(ctx context.Context, id string) (*model.Save, error)
	DeleteSave(ctx context.Context, id string) error
}

// SessionStore keeps sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenHash string, session *model.Session) error
	GetSession(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenHash, accountID string) error
	DeleteAccountSessions(ctx context.Context, accountID string) error
}

// PostCache is the read-through cache in front of PostStore.
type PostCache interface {
	GetPost(ctx context.Context, id string) (*model.Post, error)
	SetPost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
	IsPostNegativelyCached(ctx context.Context, id string) (bool, error)
	SetPostNegativeCache(ctx context.Context, id string) error
}

// ObjectStore holds uploaded media keyed by file ID.
type ObjectStore interface {
	Put(ctx context.Context, id string, upload model.Upload) error
	Get(ctx context.Context, id string) (io.ReadCloser, *model.File, error)
	Stat(ctx context.Context, id string) (*model.File, error)
	Delete(ctx context.Context, id string) error
}

// ActivityPublisher receives post activity events.
type ActivityPublisher interface {
	PublishAsync(event activity.Event)
}

type noopPublisher struct{}

func (noopPublisher) PublishAsync(activity.Event) {}
