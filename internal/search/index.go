package search

import (
	"context"
	"time"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// Document is what the index stores for a post
type Document struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Published time.Time `json:"published"`
}

// Hit is a ranked match. Index results carry raw scores; Normalize maps
// them to 0..1 against the best hit.
type Hit struct {
	PostID int64
	Score  float64
}

// Index defines the interface for ranked post search
type Index interface {
	// IndexPost adds or replaces a post. Posts that are not published are
	// removed instead, so the index only ever holds the public set.
	IndexPost(ctx context.Context, post *domain.Post) error

	// DeletePost removes a post from the index
	DeletePost(ctx context.Context, postID int64) error

	// Search returns raw-scored hits, best first
	Search(ctx context.Context, query string) ([]Hit, error)

	// PostIDs lists every post held by the index
	PostIDs(ctx context.Context) ([]int64, error)

	// Count returns the number of documents in the index
	Count() (uint64, error)

	// Close closes the search index
	Close() error
}

// PostToDocument converts a post to a search document
func PostToDocument(post *domain.Post) *Document {
	return &Document{
		Title:     post.Title,
		Body:      post.Body,
		Tags:      post.TagNames(),
		Published: post.Published,
	}
}
