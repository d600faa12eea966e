package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/render"
	"github.com/dynasty-blog/dynasty/internal/repository"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// FeedOptions configures the syndication feed
type FeedOptions struct {
	Title        string
	Description  string
	Items        int
	ExcerptWords int
	Location     *time.Location
}

// FeedService builds the RSS feed of the newest published posts
type FeedService struct {
	postRepo repository.PostRepository
	renderer *render.Renderer
	opts     FeedOptions
	logger   *logger.Logger
}

// NewFeedService creates a new feed service
func NewFeedService(
	postRepo repository.PostRepository,
	renderer *render.Renderer,
	opts FeedOptions,
	logger *logger.Logger,
) *FeedService {
	if opts.Items < 1 {
		opts.Items = 5
	}
	if opts.ExcerptWords < 1 {
		opts.ExcerptWords = 30
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &FeedService{
		postRepo: postRepo,
		renderer: renderer,
		opts:     opts,
		logger:   logger.WithComponent("feed-service"),
	}
}

// Build assembles the feed. siteURL is the scheme and host links use.
func (s *FeedService) Build(ctx context.Context, siteURL string) (*feeds.Feed, error) {
	siteURL = strings.TrimRight(siteURL, "/")

	posts, _, err := s.postRepo.List(ctx, &domain.PostListFilter{Limit: s.opts.Items})
	if err != nil {
		s.logger.Error("Failed to list posts for feed", "error", err)
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       s.opts.Title,
		Link:        &feeds.Link{Href: siteURL + "/blog/"},
		Description: s.opts.Description,
		Items:       make([]*feeds.Item, 0, len(posts)),
	}

	for _, p := range posts {
		excerpt, err := s.renderer.Excerpt(ctx, p, s.opts.ExcerptWords)
		if err != nil {
			return nil, fmt.Errorf("failed to render excerpt of post %d: %w", p.ID, err)
		}

		link := siteURL + p.CanonicalPath(s.opts.Location)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Name: p.Author.Display()},
			Description: excerpt,
			Created:     p.Published,
			Updated:     p.UpdatedAt,
		})
	}

	if len(posts) > 0 {
		feed.Updated = posts[0].Published
	}
	return feed, nil
}

// RSS renders the feed as RSS 2.0
func (s *FeedService) RSS(ctx context.Context, siteURL string) (string, error) {
	feed, err := s.Build(ctx, siteURL)
	if err != nil {
		return "", err
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("failed to encode feed: %w", err)
	}
	return rss, nil
}
