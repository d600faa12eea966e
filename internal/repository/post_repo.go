package repository

import (
	"context"
	"time"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// PostRepository defines the interface for post persistence. Methods named
// *Published only ever return posts with status PB.
type PostRepository interface {
	// Create creates a post with its tags and sets post.ID
	Create(ctx context.Context, post *domain.Post) error

	// Update updates a post and replaces its tag set
	Update(ctx context.Context, post *domain.Post) error

	// Delete deletes a post and, through cascades, its comments
	Delete(ctx context.Context, id int64) error

	// GetByID retrieves a post regardless of status
	GetByID(ctx context.Context, id int64) (*domain.Post, error)

	// GetPublished retrieves a published post by ID
	GetPublished(ctx context.Context, id int64) (*domain.Post, error)

	// GetPublishedBySlug retrieves the published post with slug whose
	// publish time falls in [dayStart, dayEnd)
	GetPublishedBySlug(ctx context.Context, slug string, dayStart, dayEnd time.Time) (*domain.Post, error)

	// GetPublishedByIDs retrieves the published subset of ids, in no
	// particular order
	GetPublishedByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error)

	// List retrieves posts newest first with the total matching count
	List(ctx context.Context, filter *domain.PostListFilter) ([]*domain.Post, int, error)

	// CountPublished returns the number of published posts
	CountPublished(ctx context.Context) (int, error)

	// Similar retrieves published posts sharing tags with postID, ordered by
	// shared tag count then publish time, excluding postID itself
	Similar(ctx context.Context, postID int64, limit int) ([]*domain.Post, error)

	// SearchText performs a case-insensitive substring match on title and
	// body over published posts, newest first
	SearchText(ctx context.Context, query string, limit int) ([]*domain.Post, error)

	// SetAttachment stores a media reference on the post
	SetAttachment(ctx context.Context, id int64, kind domain.AttachmentKind, ref string) error
}

// TagRepository defines the interface for tag lookups
type TagRepository interface {
	// GetBySlug retrieves a tag by slug
	GetBySlug(ctx context.Context, slug string) (*domain.Tag, error)

	// ListTags retrieves all tags ordered by name
	ListTags(ctx context.Context) ([]*domain.Tag, error)
}
