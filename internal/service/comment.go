package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
)

type CommentInput struct {
	Text string `form:"text" validate:"required,min=10"`
}

type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

func NewCommentService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		posts:    posts,
		comments: comments,
		logger:   logger,
	}
}

// Add attaches a comment by principal to the post. A missing post wins over
// an invalid text.
func (s *CommentService) Add(ctx context.Context, principal auth.Principal, postID int64, in CommentInput) (*model.Comment, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	in.Text = strings.TrimSpace(in.Text)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: principal.ID,
		Author:   principal.Username,
		Text:     in.Text,
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to create comment",
			slog.Int64("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment on post %d: %w", postID, err)
	}

	s.logger.Info("comment created",
		slog.Int64("id", comment.ID),
		slog.Int64("postID", postID),
		slog.String("author", principal.Username),
	)

	return comment, nil
}

// Delete removes a comment written by principal. The comment must belong to
// postID, otherwise it is reported as not found.
func (s *CommentService) Delete(ctx context.Context, principal auth.Principal, postID, commentID int64) error {
	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID {
		return apperror.NotFound("comment", strconv.FormatInt(commentID, 10))
	}
	if comment.AuthorID != principal.ID {
		return apperror.Forbidden("You can only delete your own comments.")
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete comment",
			slog.Int64("id", commentID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting comment %d: %w", commentID, err)
	}

	s.logger.Info("comment deleted",
		slog.Int64("id", commentID),
		slog.Int64("postID", postID),
		slog.String("author", principal.Username),
	)

	return nil
}

func (s *CommentService) List(ctx context.Context, postID int64) ([]model.Comment, error) {
	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments for post %d: %w", postID, err)
	}
	return comments, nil
}
