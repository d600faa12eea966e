// Package render turns post bodies into sanitized HTML.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Cache stores rendered output between requests
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Renderer converts markdown post bodies to sanitized HTML
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  Cache
	logger *logger.Logger
}

// New creates a renderer. cache may be nil.
func New(cache Cache, log *logger.Logger) *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer)),
		policy: bluemonday.UGCPolicy(),
		cache:  cache,
		logger: log.WithComponent("render"),
	}
}

// Markdown renders src and strips anything unsafe from the result
func (r *Renderer) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// PostHTML returns the rendered body of post
func (r *Renderer) PostHTML(ctx context.Context, post *domain.Post) (string, error) {
	return r.cached(ctx, cacheKey(post, "html"), func() (string, error) {
		return r.Markdown(post.Body)
	})
}

// Excerpt returns the rendered body of post cut to words words
func (r *Renderer) Excerpt(ctx context.Context, post *domain.Post, words int) (string, error) {
	return r.cached(ctx, cacheKey(post, fmt.Sprintf("excerpt:%d", words)), func() (string, error) {
		body, err := r.PostHTML(ctx, post)
		if err != nil {
			return "", err
		}
		return TruncateWordsHTML(body, words), nil
	})
}

// cached serves key from the cache, falling back to build. Cache failures
// are logged and never fail the render.
func (r *Renderer) cached(ctx context.Context, key string, build func() (string, error)) (string, error) {
	if r.cache != nil {
		if v, ok, err := r.cache.Get(ctx, key); err != nil {
			r.logger.Warn("Render cache read failed", "key", key, "error", err)
		} else if ok {
			return v, nil
		}
	}

	v, err := build()
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, v); err != nil {
			r.logger.Warn("Render cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

// CachePrefix is the key prefix of every entry rendered for postID
func CachePrefix(postID int64) string {
	return fmt.Sprintf("post:%d:", postID)
}

// cacheKey includes the update time so edits never serve stale output
func cacheKey(post *domain.Post, variant string) string {
	return fmt.Sprintf("%s%d:%s", CachePrefix(post.ID), post.UpdatedAt.UnixNano(), variant)
}
