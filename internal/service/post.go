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
	"github.com/yatube/yatube/internal/storage"
)

const (
	MinTextLength = 10
	imagePrefix   = "posts"
)

// ImageUpload is a file received from a form, before decoding.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// PostInput is the create/edit form. A nil GroupID means "no group"; a nil
// Image on edit keeps the current image.
type PostInput struct {
	Text    string       `form:"text" validate:"required,min=10"`
	GroupID *int64       `form:"group"`
	Image   *ImageUpload `form:"image"`
}

// PostService creates, edits and deletes posts. Every check (text length,
// group existence, image decoding, ownership) runs before the first write.
type PostService struct {
	posts  repository.PostRepository
	groups repository.GroupRepository
	blobs  storage.Storage
	images *storage.ImageProcessor
	logger *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	blobs storage.Storage,
	images *storage.ImageProcessor,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:  posts,
		groups: groups,
		blobs:  blobs,
		images: images,
		logger: logger,
	}
}

func (s *PostService) Create(ctx context.Context, author auth.Principal, in PostInput) (*model.Post, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := s.check(ctx, in); err != nil {
		return nil, err
	}

	processed, err := s.processImage(in.Image)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:     in.Text,
		AuthorID: author.ID,
		Author:   author.Username,
		GroupID:  in.GroupID,
	}

	if processed != nil {
		key, err := s.upload(ctx, processed)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.discardBlob(ctx, post.Image)
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to create post",
			slog.String("author", author.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("author", author.Username),
	)

	return post, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// GetForEdit loads the post only when principal is its author, for
// pre-filling the edit form.
func (s *PostService) GetForEdit(ctx context.Context, principal auth.Principal, id int64) (*model.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != principal.ID {
		return nil, apperror.Forbidden("You can only edit your own posts.")
	}
	return post, nil
}

// Edit rewrites text, group and optionally the image in place. pub_date is
// never touched.
func (s *PostService) Edit(ctx context.Context, principal auth.Principal, id int64, in PostInput) (*model.Post, error) {
	post, err := s.GetForEdit(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	in.Text = strings.TrimSpace(in.Text)
	if err := s.check(ctx, in); err != nil {
		return nil, err
	}

	processed, err := s.processImage(in.Image)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = nil

	if processed != nil {
		key, err := s.upload(ctx, processed)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if post.Image != oldImage {
			s.discardBlob(ctx, post.Image)
		}
		if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update post",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}

	if post.Image != oldImage {
		s.discardBlob(ctx, oldImage)
	}

	s.logger.Info("post updated",
		slog.Int64("id", post.ID),
		slog.String("author", principal.Username),
	)

	return post, nil
}

// Delete removes the post and its comments. A non-owner gets Forbidden and
// nothing changes.
func (s *PostService) Delete(ctx context.Context, principal auth.Principal, id int64) error {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != principal.ID {
		return apperror.Forbidden("You can only delete your own posts.")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete post",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	s.discardBlob(ctx, post.Image)

	s.logger.Info("post deleted",
		slog.Int64("id", id),
		slog.String("author", principal.Username),
	)

	return nil
}

// check validates the form fields and that the chosen group exists.
func (s *PostService) check(ctx context.Context, in PostInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.GroupID == nil {
		return nil
	}

	if _, err := s.groups.GetGroupByID(ctx, *in.GroupID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("group",
				"Select a valid choice. "+strconv.FormatInt(*in.GroupID, 10)+" is not one of the available choices.")
		}
		return fmt.Errorf("checking group %d: %w", *in.GroupID, err)
	}
	return nil
}

func (s *PostService) processImage(upload *ImageUpload) (*storage.ProcessedImage, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, nil
	}
	if s.images == nil || s.blobs == nil {
		return nil, apperror.ValidationFailed("image", "Image uploads are disabled.")
	}
	return s.images.Process(upload.Data)
}

func (s *PostService) upload(ctx context.Context, img *storage.ProcessedImage) (string, error) {
	resp, err := s.blobs.Upload(ctx, &storage.UploadObject{
		Prefix: imagePrefix,
		Ext:    img.Ext,
		Mime:   img.Mime,
		Data:   img.Data,
	})
	if err != nil {
		s.logger.Error("failed to store image", slog.String("error", err.Error()))
		return "", fmt.Errorf("storing image: %w", err)
	}
	return resp.Key, nil
}

// discardBlob removes an image that is no longer referenced. Failures only
// leave an orphaned file, so they are logged and ignored.
func (s *PostService) discardBlob(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
