package repository

import (
	"context"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// CommentRepository defines the interface for comment persistence
type CommentRepository interface {
	// CreateOnPublished stores a comment only if its post is published,
	// returning domain.ErrPostNotFound otherwise
	CreateOnPublished(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)

	// ListByPost retrieves a post's comments oldest first
	ListByPost(ctx context.Context, postID int64, activeOnly bool) ([]*domain.Comment, error)

	// SetActive flips the moderation flag
	SetActive(ctx context.Context, id int64, active bool) error

	// Delete deletes a comment
	Delete(ctx context.Context, id int64) error
}
