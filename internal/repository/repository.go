// Package repository declares the storage contracts used by the services
// and the feed assembler. The sqlite sub-package is the only implementation;
// tests substitute in-memory fakes.
//
// Every Get* method returns an apperror.NotFound error when the row does
// not exist, so callers can test with errors.Is(err, apperror.ErrNotFound).
package repository

import (
	"context"

	"github.com/yatube/yatube/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows a post listing. Zero values mean "no restriction";
// the fields combine with AND.
type PostFilter struct {
	GroupID    int64  // posts in this group
	AuthorID   string // posts written by this user
	FollowerID string // posts by authors this user follows
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id int64) (*model.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]model.Group, error)
}

// PostRepository lists posts newest first (pub_date descending, id
// ascending on ties).
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	// DeletePost removes the post and, through the foreign key, its comments.
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, filter PostFilter, opts ListOptions) ([]model.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int, error)
}

// CommentRepository lists comments oldest first.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, postID int64) ([]model.Comment, error)
}

type FollowRepository interface {
	// CreateFollow inserts the edge. It reports false, without error, when
	// the edge already existed.
	CreateFollow(ctx context.Context, userID, authorID string) (bool, error)
	// DeleteFollow removes the edge. It reports false when there was none.
	DeleteFollow(ctx context.Context, userID, authorID string) (bool, error)
	IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
	CountFollows(ctx context.Context, userID string) (int, error)
}
