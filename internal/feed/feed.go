// Package feed assembles the read-side view-models: the home, group,
// profile and following feeds plus the post detail page.
//
// Every feed is a filter over posts ordered newest first (ties by id) and
// paginated. Only the home feed goes through the cache gate; its view-model
// must therefore be identical for every viewer.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/pagination"
	"github.com/yatube/yatube/internal/repository"
)

// Repository is the slice of persistence the assembler reads from.
type Repository interface {
	repository.UserRepository
	repository.GroupRepository
	repository.PostRepository
	repository.CommentRepository
	repository.FollowRepository
}

type PostPage = pagination.Page[model.Post]

type HomeFeed struct {
	Page PostPage `json:"page"`
}

type GroupFeed struct {
	Group model.Group
	Page  PostPage
}

type ProfileFeed struct {
	Author    model.User
	Page      PostPage
	PostCount int
	// Following is false for anonymous viewers and for the author
	// looking at their own profile.
	Following bool
	IsSelf    bool
}

type FollowFeed struct {
	Page PostPage
}

type PostDetail struct {
	Post            model.Post
	Comments        []model.Comment
	AuthorPostCount int
}

type Assembler struct {
	repo    Repository
	gate    *cache.Gate
	perPage int
	logger  *slog.Logger
}

// New creates an Assembler. gate may be nil, which disables caching.
func New(repo Repository, gate *cache.Gate, perPage int, logger *slog.Logger) *Assembler {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	return &Assembler{
		repo:    repo,
		gate:    gate,
		perPage: perPage,
		logger:  logger,
	}
}

// HomeCacheKey is the cache key of one page of the home feed.
func HomeCacheKey(page int) string {
	return fmt.Sprintf("index_page:%d", page)
}

// Home returns all posts. Within the gate's TTL a repeated request for the
// same page number is served from the cache even if posts changed.
func (a *Assembler) Home(ctx context.Context, page int) (*HomeFeed, error) {
	return cache.Fetch(ctx, a.gate, HomeCacheKey(page), func(ctx context.Context) (*HomeFeed, error) {
		p, err := a.page(ctx, repository.PostFilter{}, page)
		if err != nil {
			return nil, err
		}
		return &HomeFeed{Page: p}, nil
	})
}

func (a *Assembler) Group(ctx context.Context, slug string, page int) (*GroupFeed, error) {
	group, err := a.repo.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	p, err := a.page(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, err
	}

	return &GroupFeed{Group: *group, Page: p}, nil
}

// Profile lists an author's posts. viewer may be anonymous.
func (a *Assembler) Profile(ctx context.Context, viewer auth.Principal, authenticated bool, username string, page int) (*ProfileFeed, error) {
	author, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p, err := a.page(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}

	out := &ProfileFeed{
		Author:    *author,
		Page:      p,
		PostCount: p.Count,
		IsSelf:    authenticated && viewer.ID == author.ID,
	}

	if authenticated && !out.IsSelf {
		out.Following, err = a.repo.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("feed: checking follow %s -> %s: %w", viewer.Username, username, err)
		}
	}

	return out, nil
}

// Following lists posts by authors the viewer follows. Anonymous viewers
// get Unauthorized.
func (a *Assembler) Following(ctx context.Context, viewer auth.Principal, authenticated bool, page int) (*FollowFeed, error) {
	if !authenticated {
		return nil, apperror.Unauthorized("log in to see the authors you follow")
	}

	p, err := a.page(ctx, repository.PostFilter{FollowerID: viewer.ID}, page)
	if err != nil {
		return nil, err
	}

	return &FollowFeed{Page: p}, nil
}

// Post returns a post with its comments, oldest first.
func (a *Assembler) Post(ctx context.Context, id int64) (*PostDetail, error) {
	post, err := a.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := a.repo.ListComments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("feed: listing comments of post %d: %w", id, err)
	}

	count, err := a.repo.CountPosts(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("feed: counting posts of %s: %w", post.Author, err)
	}

	return &PostDetail{Post: *post, Comments: comments, AuthorPostCount: count}, nil
}

// page counts the matching posts first so an out of range page number is
// clamped before the LIMIT/OFFSET query.
func (a *Assembler) page(ctx context.Context, filter repository.PostFilter, number int) (PostPage, error) {
	count, err := a.repo.CountPosts(ctx, filter)
	if err != nil {
		a.logger.Error("failed to count posts", slog.String("error", err.Error()))
		return PostPage{}, fmt.Errorf("feed: counting posts: %w", err)
	}

	pg := pagination.Paginator{Count: count, PerPage: a.perPage}
	items, err := a.repo.ListPosts(ctx, filter, repository.ListOptions{
		Limit:  pg.Limit(),
		Offset: pg.Offset(number),
	})
	if err != nil {
		a.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return PostPage{}, fmt.Errorf("feed: listing posts: %w", err)
	}

	return pagination.NewPage(items, number, pg), nil
}
