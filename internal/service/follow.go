package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/repository"
)

// FollowService manages follow edges. Following yourself, following twice
// and unfollowing someone you do not follow are no-ops: they report
// changed=false and no error.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, logger *slog.Logger) *FollowService {
	return &FollowService{
		users:   users,
		follows: follows,
		logger:  logger,
	}
}

func (s *FollowService) Follow(ctx context.Context, principal auth.Principal, username string) (bool, error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if author.ID == principal.ID {
		return false, nil
	}

	created, err := s.follows.CreateFollow(ctx, principal.ID, author.ID)
	if err != nil {
		s.logger.Error("failed to follow",
			slog.String("user", principal.Username),
			slog.String("author", username),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("following %s: %w", username, err)
	}

	if created {
		s.logger.Info("follow created",
			slog.String("user", principal.Username),
			slog.String("author", username),
		)
	}
	return created, nil
}

func (s *FollowService) Unfollow(ctx context.Context, principal auth.Principal, username string) (bool, error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	deleted, err := s.follows.DeleteFollow(ctx, principal.ID, author.ID)
	if err != nil {
		s.logger.Error("failed to unfollow",
			slog.String("user", principal.Username),
			slog.String("author", username),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("unfollowing %s: %w", username, err)
	}

	if deleted {
		s.logger.Info("follow deleted",
			slog.String("user", principal.Username),
			slog.String("author", username),
		)
	}
	return deleted, nil
}
