package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/internal/storage"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================
//
// fakeDB keeps every table in maps and implements all repository
// interfaces, so service tests run without SQLite. Returned records are
// copies; callers cannot reach into the fake's state.

type fakeDB struct {
	mu       sync.Mutex
	users    map[string]*model.User
	groups   map[int64]*model.Group
	posts    map[int64]*model.Post
	comments map[int64]*model.Comment
	follows  map[[2]string]bool
	nextID   int64
	clock    time.Time

	failWrites error // returned by every write when set
}

var (
	_ repository.UserRepository    = (*fakeDB)(nil)
	_ repository.GroupRepository   = (*fakeDB)(nil)
	_ repository.PostRepository    = (*fakeDB)(nil)
	_ repository.CommentRepository = (*fakeDB)(nil)
	_ repository.FollowRepository  = (*fakeDB)(nil)
)

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:    make(map[string]*model.User),
		groups:   make(map[int64]*model.Group),
		posts:    make(map[int64]*model.Post),
		comments: make(map[int64]*model.Comment),
		follows:  make(map[[2]string]bool),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeDB) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeDB) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.id())
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeDB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	for _, u := range f.users {
		if u.GitHubID != 0 && u.GitHubID == user.GitHubID {
			u.Email = user.Email
			*user = *u
			f.mu.Unlock()
			return nil
		}
	}
	f.mu.Unlock()
	return f.CreateUser(ctx, user)
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (f *fakeDB) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeDB) CreateGroup(_ context.Context, group *model.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Slug == group.Slug {
			return apperror.Conflict("group", group.Slug)
		}
	}
	group.ID = f.id()
	stored := *group
	f.groups[group.ID] = &stored
	return nil
}

func (f *fakeDB) GetGroupByID(_ context.Context, id int64) (*model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, apperror.NotFound("group", strconv.FormatInt(id, 10))
	}
	c := *g
	return &c, nil
}

func (f *fakeDB) GetGroupBySlug(_ context.Context, slug string) (*model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Slug == slug {
			c := *g
			return &c, nil
		}
	}
	return nil, apperror.NotFound("group", slug)
}

func (f *fakeDB) ListGroups(_ context.Context) ([]model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeDB) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	post.ID = f.id()
	if post.PubDate.IsZero() {
		f.clock = f.clock.Add(time.Minute)
		post.PubDate = f.clock
	}
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakeDB) GetPost(_ context.Context, id int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	c := *p
	return &c, nil
}

func (f *fakeDB) UpdatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	p, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", strconv.FormatInt(post.ID, 10))
	}
	p.Text, p.GroupID, p.Image = post.Text, post.GroupID, post.Image
	return nil
}

func (f *fakeDB) DeletePost(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	delete(f.posts, id)
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeDB) matching(filter repository.PostFilter) []model.Post {
	var out []model.Post
	for _, p := range f.posts {
		if filter.GroupID != 0 && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
			continue
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.FollowerID != "" && !f.follows[[2]string{filter.FollowerID, p.AuthorID}] {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].PubDate.After(out[j].PubDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeDB) ListPosts(_ context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.matching(filter)
	if opts.Limit > 0 {
		start := min(opts.Offset, len(out))
		end := min(start+opts.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (f *fakeDB) CountPosts(_ context.Context, filter repository.PostFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(filter)), nil
}

func (f *fakeDB) CreateComment(_ context.Context, comment *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.posts[comment.PostID]; !ok {
		return apperror.NotFound("post", strconv.FormatInt(comment.PostID, 10))
	}
	comment.ID = f.id()
	stored := *comment
	f.comments[comment.ID] = &stored
	return nil
}

func (f *fakeDB) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	cp := *c
	return &cp, nil
}

func (f *fakeDB) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeDB) ListComments(_ context.Context, postID int64) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDB) CreateFollow(_ context.Context, userID, authorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if userID == authorID {
		return false, fmt.Errorf("CHECK constraint failed")
	}
	key := [2]string{userID, authorID}
	if f.follows[key] {
		return false, nil
	}
	f.follows[key] = true
	return true, nil
}

func (f *fakeDB) DeleteFollow(_ context.Context, userID, authorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{userID, authorID}
	if !f.follows[key] {
		return false, nil
	}
	delete(f.follows, key)
	return true, nil
}

func (f *fakeDB) IsFollowing(_ context.Context, userID, authorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.follows[[2]string{userID, authorID}], nil
}

func (f *fakeDB) CountFollows(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key := range f.follows {
		if key[0] == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) followCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.follows)
}

func (f *fakeDB) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeDB) commentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments)
}

// =========================================================================
// FAKE BLOB STORAGE
// =========================================================================

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	n       int
}

var _ storage.Storage = (*fakeBlobs)(nil)

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Upload(_ context.Context, object *storage.UploadObject) (*storage.UploadResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	key := fmt.Sprintf("%s/blob-%d%s", object.Prefix, b.n, object.Ext)
	b.objects[key] = object.Data
	return &storage.UploadResponse{Key: key, URL: b.URL(key)}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobs) URL(key string) string {
	return "/media/" + key
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *fakeBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// =========================================================================
// HELPERS
// =========================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
