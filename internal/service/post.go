package service

import (
	"context"
	"errors"
	"time"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/media"
	"github.com/dynasty-blog/dynasty/internal/render"
	"github.com/dynasty-blog/dynasty/internal/repository"
	"github.com/dynasty-blog/dynasty/internal/validator"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/pagination"
)

// SearchIndexer defines the interface for keeping the search index current
type SearchIndexer interface {
	IndexPost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, postID int64) error
}

// CacheInvalidator drops cached render output
type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// BlogOptions holds the reader-facing tunables
type BlogOptions struct {
	PageSize       int
	PagePolicy     pagination.Policy
	SimilarLimit   int
	LatestCount    int
	Location       *time.Location
	MaxUploadBytes int64
}

func (o BlogOptions) withDefaults() BlogOptions {
	if o.PageSize < 1 {
		o.PageSize = 3
	}
	if o.PagePolicy == "" {
		o.PagePolicy = pagination.Clamp
	}
	if o.SimilarLimit < 1 {
		o.SimilarLimit = 4
	}
	if o.LatestCount < 1 {
		o.LatestCount = 5
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = domain.MaxUploadMB * 1024 * 1024
	}
	return o
}

// PostPage is one page of a post listing
type PostPage struct {
	Posts []*domain.Post  `json:"posts"`
	Page  pagination.Page `json:"page"`
	Tag   *domain.Tag     `json:"tag,omitempty"`
}

// PostService handles post reading and authoring
type PostService struct {
	postRepo    repository.PostRepository
	tagRepo     repository.TagRepository
	commentRepo repository.CommentRepository
	indexer     SearchIndexer
	invalidator CacheInvalidator
	renderer    *render.Renderer
	store       media.Store
	validator   *validator.Validator
	opts        BlogOptions
	logger      *logger.Logger
}

// NewPostService creates a new post service. indexer and invalidator may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	indexer SearchIndexer,
	invalidator CacheInvalidator,
	renderer *render.Renderer,
	store media.Store,
	validator *validator.Validator,
	opts BlogOptions,
	logger *logger.Logger,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		indexer:     indexer,
		invalidator: invalidator,
		renderer:    renderer,
		store:       store,
		validator:   validator,
		opts:        opts.withDefaults(),
		logger:      logger.WithComponent("post-service"),
	}
}

// MaxUploadBytes returns the attachment size limit
func (s *PostService) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// Location returns the site timezone
func (s *PostService) Location() *time.Location {
	return s.opts.Location
}

// List returns one page of published posts, optionally narrowed to a tag
func (s *PostService) List(ctx context.Context, requestedPage int, tagSlug string) (*PostPage, error) {
	result := &PostPage{}

	if tagSlug != "" {
		tag, err := s.tagRepo.GetBySlug(ctx, tagSlug)
		if err != nil {
			return nil, err
		}
		result.Tag = tag
	}

	filter := &domain.PostListFilter{TagSlug: tagSlug}
	posts, page, err := s.page(ctx, filter, requestedPage)
	if err != nil {
		return nil, err
	}

	result.Posts = posts
	result.Page = page
	return result, nil
}

// page fetches the requested page. The common in-range case costs one
// query; an out-of-range request is resolved against the reported total
// and fetched again.
func (s *PostService) page(ctx context.Context, filter *domain.PostListFilter, requested int) ([]*domain.Post, pagination.Page, error) {
	if requested < 1 {
		requested = 1
	}

	filter.Limit = s.opts.PageSize
	filter.Offset = (requested - 1) * s.opts.PageSize

	posts, total, err := s.postRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list posts", "error", err)
		return nil, pagination.Page{}, err
	}

	page, err := pagination.Resolve(requested, s.opts.PageSize, total, s.opts.PagePolicy)
	if errors.Is(err, pagination.ErrOutOfRange) {
		return nil, pagination.Page{}, domain.ErrPageOutOfRange
	}
	if err != nil {
		return nil, pagination.Page{}, err
	}

	if page.Number != requested {
		filter.Offset = page.Offset()
		posts, _, err = s.postRepo.List(ctx, filter)
		if err != nil {
			s.logger.Error("Failed to list posts", "error", err)
			return nil, pagination.Page{}, err
		}
	}

	s.decorate(posts...)
	return posts, page, nil
}

// Detail returns a published post addressed by its publish date and slug,
// with its active comments, similar posts and rendered body
func (s *PostService) Detail(ctx context.Context, year, month, day int, slug string) (*domain.PostDetail, error) {
	dayStart := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.opts.Location)
	// time.Date normalises out-of-range parts; 2024-02-30 is not a real path
	if dayStart.Year() != year || int(dayStart.Month()) != month || dayStart.Day() != day {
		return nil, domain.ErrPostNotFound
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	post, err := s.postRepo.GetPublishedBySlug(ctx, slug, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID, true)
	if err != nil {
		s.logger.Error("Failed to list comments", "post_id", post.ID, "error", err)
		return nil, err
	}

	similar, err := s.similar(ctx, post)
	if err != nil {
		return nil, err
	}

	bodyHTML, err := s.renderer.PostHTML(ctx, post)
	if err != nil {
		s.logger.Error("Failed to render post", "post_id", post.ID, "error", err)
		return nil, err
	}

	s.decorate(post)
	return &domain.PostDetail{
		Post:     post,
		BodyHTML: bodyHTML,
		URL:      post.CanonicalPath(s.opts.Location),
		Comments: comments,
		Similar:  similar,
	}, nil
}

// Similar returns published posts sharing tags with the published post id
func (s *PostService) Similar(ctx context.Context, id int64) ([]*domain.Post, error) {
	post, err := s.postRepo.GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.similar(ctx, post)
}

func (s *PostService) similar(ctx context.Context, post *domain.Post) ([]*domain.Post, error) {
	if len(post.Tags) == 0 {
		return []*domain.Post{}, nil
	}

	similar, err := s.postRepo.Similar(ctx, post.ID, s.opts.SimilarLimit)
	if err != nil {
		s.logger.Error("Failed to rank similar posts", "post_id", post.ID, "error", err)
		return nil, err
	}

	s.decorate(similar...)
	return similar, nil
}

// Latest returns the count newest published posts and the published total.
// count < 1 selects the configured default.
func (s *PostService) Latest(ctx context.Context, count int) ([]*domain.Post, int, error) {
	if count < 1 {
		count = s.opts.LatestCount
	}

	posts, total, err := s.postRepo.List(ctx, &domain.PostListFilter{Limit: count})
	if err != nil {
		s.logger.Error("Failed to list latest posts", "error", err)
		return nil, 0, err
	}

	s.decorate(posts...)
	return posts, total, nil
}

// TotalPublished returns the number of published posts
func (s *PostService) TotalPublished(ctx context.Context) (int, error) {
	return s.postRepo.CountPublished(ctx)
}

// Tags returns every tag
func (s *PostService) Tags(ctx context.Context) ([]*domain.Tag, error) {
	return s.tagRepo.ListTags(ctx)
}

// decorate resolves attachment references into public URLs
func (s *PostService) decorate(posts ...*domain.Post) {
	for _, p := range posts {
		decoratePost(s.store, p)
	}
}

func decoratePost(store media.Store, p *domain.Post) {
	if p == nil || store == nil {
		return
	}
	p.Media = nil
	for _, kind := range domain.AttachmentKinds {
		if ref := p.Attachment(kind); ref != "" {
			if p.Media == nil {
				p.Media = make(map[domain.AttachmentKind]string)
			}
			p.Media[kind] = store.URL(ref)
		}
	}
}

// reindex pushes post into the search index. Index failures are logged;
// search falls back to substring matching while the index is behind.
func (s *PostService) reindex(ctx context.Context, post *domain.Post) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexPost(ctx, post); err != nil {
		s.logger.Warn("Failed to index post", "post_id", post.ID, "error", err)
	}
}

func (s *PostService) unindex(ctx context.Context, postID int64) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.DeletePost(ctx, postID); err != nil {
		s.logger.Warn("Failed to remove post from index", "post_id", postID, "error", err)
	}
}

func (s *PostService) invalidate(ctx context.Context, postID int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidatePrefix(ctx, render.CachePrefix(postID)); err != nil {
		s.logger.Warn("Failed to invalidate render cache", "post_id", postID, "error", err)
	}
}

// loadEditable fetches a post the actor may modify. A post owned by
// someone else reads as forbidden.
func (s *PostService) loadEditable(ctx context.Context, id int64, actor *domain.Actor) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(post) {
		return nil, domain.ErrForbidden
	}
	return post, nil
}
