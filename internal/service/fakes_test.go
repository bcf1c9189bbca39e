package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/pictora/pictora/internal/activity"
	"github.com/pictora/pictora/internal/cache"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/repository"
	"github.com/pictora/pictora/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDB implements the document stores in memory.
type fakeDB struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	users    map[string]*model.User
	posts    map[string]*model.Post
	saves    map[string]*model.Save
	activity map[string]map[string]int64

	failCreateUser bool
	failCreatePost bool
	failUpdatePost bool
	failUpdateUser bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		accounts: map[string]*model.Account{},
		users:    map[string]*model.User{},
		posts:    map[string]*model.Post{},
		saves:    map[string]*model.Save{},
	}
}

var errInjected = errors.New("injected failure")

func (db *fakeDB) CreateAccount(_ context.Context, a *model.Account) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrEmailExists
		}
	}
	cp := *a
	db.accounts[a.ID] = &cp
	return nil
}

func (db *fakeDB) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (db *fakeDB) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (db *fakeDB) DeleteAccount(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(db.accounts, id)
	return nil
}

func (db *fakeDB) CountPostActivity(_ context.Context, postID string) (map[string]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	counts := map[string]int64{}
	for typ, n := range db.activity[postID] {
		counts[typ] = n
	}
	return counts, nil
}

func (db *fakeDB) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (db *fakeDB) CreateUser(_ context.Context, u *model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failCreateUser {
		return errInjected
	}
	if _, ok := db.accounts[u.AccountID]; !ok {
		return repository.ErrAccountNotFound
	}
	cp := *u
	db.users[u.ID] = &cp
	return nil
}

func (db *fakeDB) GetUserByID(_ context.Context, id string) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (db *fakeDB) GetUserByAccountID(_ context.Context, accountID string) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.AccountID == accountID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (db *fakeDB) UpdateUser(_ context.Context, u *model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failUpdateUser {
		return errInjected
	}
	if _, ok := db.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *u
	db.users[u.ID] = &cp
	return nil
}

func (db *fakeDB) ListUsers(_ context.Context, limit int) ([]*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	users := make([]*model.User, 0, len(db.users))
	for _, u := range db.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (db *fakeDB) CreatePost(_ context.Context, p *model.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failCreatePost {
		return errInjected
	}
	if _, ok := db.users[p.CreatorID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *p
	db.posts[p.ID] = &cp
	return nil
}

func (db *fakeDB) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	cp := *p
	cp.Likes = slices.Clone(p.Likes)
	return &cp, nil
}

func (db *fakeDB) UpdatePost(_ context.Context, p *model.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failUpdatePost {
		return errInjected
	}
	if _, ok := db.posts[p.ID]; !ok {
		return repository.ErrPostNotFound
	}
	cp := *p
	db.posts[p.ID] = &cp
	return nil
}

func (db *fakeDB) SetPostLikes(_ context.Context, id string, likes []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.posts[id]
	if !ok {
		return repository.ErrPostNotFound
	}
	p.Likes = slices.Clone(likes)
	return nil
}

func (db *fakeDB) DeletePost(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(db.posts, id)
	return nil
}

func (db *fakeDB) ListPosts(_ context.Context, order repository.PostOrder, afterID string, limit int) ([]*model.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	posts := make([]*model.Post, 0, len(db.posts))
	for _, p := range db.posts {
		cp := *p
		posts = append(posts, &cp)
	}
	key := func(p *model.Post) int64 {
		if order == repository.OrderByUpdated {
			return p.UpdatedAt.UnixNano()
		}
		return p.CreatedAt.UnixNano()
	}
	sort.Slice(posts, func(i, j int) bool {
		if key(posts[i]) == key(posts[j]) {
			return posts[i].ID > posts[j].ID
		}
		return key(posts[i]) > key(posts[j])
	})

	if afterID != "" {
		idx := slices.IndexFunc(posts, func(p *model.Post) bool { return p.ID == afterID })
		if idx < 0 {
			return nil, repository.ErrInvalidCursor
		}
		posts = posts[idx+1:]
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (db *fakeDB) SearchPosts(_ context.Context, term string, limit int) ([]*model.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var found []*model.Post
	for _, p := range db.posts {
		if strings.Contains(strings.ToLower(p.Caption), strings.ToLower(term)) {
			cp := *p
			found = append(found, &cp)
		}
	}
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (db *fakeDB) CreateSave(_ context.Context, s *model.Save) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.posts[s.PostID]; !ok {
		return repository.ErrSaveTarget
	}
	for _, existing := range db.saves {
		if existing.UserID == s.UserID && existing.PostID == s.PostID {
			return repository.ErrAlreadySaved
		}
	}
	cp := *s
	db.saves[s.ID] = &cp
	return nil
}

func (db *fakeDB) GetSaveByID(_ context.Context, id string) (*model.Save, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.saves[id]
	if !ok {
		return nil, repository.ErrSaveNotFound
	}
	cp := *s
	return &cp, nil
}

func (db *fakeDB) DeleteSave(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.saves[id]; !ok {
		return repository.ErrSaveNotFound
	}
	delete(db.saves, id)
	return nil
}

// fakeCache implements SessionStore and PostCache in memory.
type fakeCache struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	posts    map[string]*model.Post
	negative map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		sessions: map[string]*model.Session{},
		posts:    map[string]*model.Post{},
		negative: map[string]bool{},
	}
}

func (c *fakeCache) CreateSession(_ context.Context, hash string, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *s
	c.sessions[hash] = &cp
	return nil
}

func (c *fakeCache) GetSession(_ context.Context, hash string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[hash]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *s
	return &cp, nil
}

func (c *fakeCache) DeleteSession(_ context.Context, hash, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, hash)
	return nil
}

func (c *fakeCache) DeleteAccountSessions(_ context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, s := range c.sessions {
		if s.AccountID == accountID {
			delete(c.sessions, hash)
		}
	}
	return nil
}

func (c *fakeCache) GetPost(_ context.Context, id string) (*model.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.posts[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

func (c *fakeCache) SetPost(_ context.Context, p *model.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.posts[p.ID] = &cp
	delete(c.negative, p.ID)
	return nil
}

func (c *fakeCache) DeletePost(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.posts, id)
	delete(c.negative, id)
	return nil
}

func (c *fakeCache) IsPostNegativelyCached(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

func (c *fakeCache) SetPostNegativeCache(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[id] = true
	return nil
}

// fakeObjects implements ObjectStore in memory.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]*model.File
	deleted []string

	failPut  bool
	failStat bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, meta: map[string]*model.File{}}
}

func (o *fakeObjects) Put(_ context.Context, id string, upload model.Upload) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failPut {
		return errInjected
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return err
	}
	o.objects[id] = data
	o.meta[id] = &model.File{
		ID:             id,
		Name:           upload.Name,
		ContentType:    upload.ContentType,
		Size:           int64(len(data)),
		OwnerAccountID: upload.OwnerAccountID,
	}
	return nil
}

func (o *fakeObjects) Get(_ context.Context, id string) (io.ReadCloser, *model.File, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[id]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	info := *o.meta[id]
	return io.NopCloser(bytes.NewReader(data)), &info, nil
}

func (o *fakeObjects) Stat(_ context.Context, id string) (*model.File, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failStat {
		return nil, errInjected
	}
	info, ok := o.meta[id]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	cp := *info
	return &cp, nil
}

func (o *fakeObjects) Delete(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, id)
	delete(o.objects, id)
	delete(o.meta, id)
	return nil
}

func (o *fakeObjects) has(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[id]
	return ok
}

func (o *fakeObjects) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// recordingPublisher captures activity events synchronously.
type recordingPublisher struct {
	mu     sync.Mutex
	events []activity.Event
}

func (p *recordingPublisher) PublishAsync(e activity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// likedUsers returns the user IDs of the recorded liked events, in order.
func (p *recordingPublisher) likedUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Type == activity.EventPostLiked {
			out = append(out, e.UserID)
		}
	}
	return out
}

func (p *recordingPublisher) types() []activity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]activity.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// testUploadOwner owns files uploaded directly through FileService in tests.
const testUploadOwner = "acc-uploader"

func testUpload(content string) *model.Upload {
	return &model.Upload{
		Name:           "photo.jpg",
		ContentType:    "image/jpeg",
		Size:           int64(len(content)),
		Body:           strings.NewReader(content),
		OwnerAccountID: testUploadOwner,
	}
}
