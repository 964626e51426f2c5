package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/lib/logger/sl"
	"stratosphere/internal/lib/random"
	"stratosphere/internal/storage"
)

const (
	postIDLength  = 27
	maxContentLen = 500
)

type Posts struct {
	log          *slog.Logger
	postSaver    PostSaver
	postProvider PostProvider
}

// CreatePost stores a new post for the owner and returns its ID.
func (p *Posts) CreatePost(ctx context.Context, ownerID, content string, public bool) (string, error) {
	const op = "Posts.CreatePost"

	log := p.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
	)

	if content == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}
	if len(content) > maxContentLen {
		return "", fmt.Errorf("%s: %w", op, ErrContentTooLong)
	}

	id, err := random.NewString(postIDLength)
	if err != nil {
		log.Error("failed to generate post id", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	post := models.Post{
		ID:        id,
		OwnerID:   ownerID,
		IsPublic:  public,
		Content:   content,
		CreatedAt: now,
		EditedAt:  now,
	}

	if err := p.postSaver.SavePost(ctx, post); err != nil {
		log.Error("failed to save post", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post created", slog.String("post_id", post.ID))

	return post.ID, nil
}

// EditPost replaces the content of an existing post owned by ownerID.
func (p *Posts) EditPost(ctx context.Context, ownerID, postID, content string) error {
	const op = "Posts.EditPost"

	log := p.log.With(
		slog.String("op", op),
		slog.String("post_id", postID),
	)

	if content == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}
	if len(content) > maxContentLen {
		return fmt.Errorf("%s: %w", op, ErrContentTooLong)
	}

	post, err := p.postProvider.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPostNotFound)
		}

		log.Error("failed to get post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if post.OwnerID != ownerID {
		return fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	post.Content = content
	post.EditedAt = time.Now()

	if err := p.postSaver.UpdatePost(ctx, post); err != nil {
		log.Error("failed to update post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post edited")

	return nil
}

// DeletePost removes a post owned by ownerID.
func (p *Posts) DeletePost(ctx context.Context, ownerID, postID string) error {
	const op = "Posts.DeletePost"

	log := p.log.With(
		slog.String("op", op),
		slog.String("post_id", postID),
	)

	post, err := p.postProvider.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPostNotFound)
		}

		log.Error("failed to get post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if post.OwnerID != ownerID {
		return fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	if err := p.postSaver.DeletePost(ctx, postID); err != nil {
		log.Error("failed to delete post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post deleted")

	return nil
}

var (
	ErrEmptyContent   = errors.New("post contains no text")
	ErrContentTooLong = errors.New("post content exceeds maximum size")
	ErrPostNotFound   = errors.New("post not found")
	ErrNotOwner       = errors.New("authenticated user is not the owner of this post")
)

type PostSaver interface {
	SavePost(ctx context.Context, post models.Post) error
	UpdatePost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id string) error
}

type PostProvider interface {
	PostByID(ctx context.Context, id string) (models.Post, error)
}

func New(log *slog.Logger, postSaver PostSaver, postProvider PostProvider) *Posts {
	return &Posts{
		log:          log,
		postSaver:    postSaver,
		postProvider: postProvider,
	}
}
