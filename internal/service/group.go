package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/model"
	"github.com/yatube/yatube/internal/repository"
)

type GroupInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=50,slug"`
	Description string `form:"description"`
}

// GroupService lists groups for the post form and creates them from the
// command line. There is no web form for groups.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, logger: logger}
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*model.Group, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	group := &model.Group{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
	}

	if err := s.groups.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create group",
			slog.String("slug", in.Slug),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating group %s: %w", in.Slug, err)
	}

	s.logger.Info("group created",
		slog.Int64("id", group.ID),
		slog.String("slug", group.Slug),
	)

	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	return groups, nil
}
