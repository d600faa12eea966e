package service

import (
	"context"
	"sort"
	"strings"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/media"
	"github.com/dynasty-blog/dynasty/internal/repository"
	"github.com/dynasty-blog/dynasty/internal/search"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Search strategies
const (
	StrategyRanked    = "ranked"
	StrategySubstring = "substring"
)

// RankedSearcher is the ranked half of search
type RankedSearcher interface {
	Search(ctx context.Context, query string) ([]search.Hit, error)
}

// SearchResult is the outcome of a search
type SearchResult struct {
	Query    string               `json:"query"`
	Strategy string               `json:"strategy,omitempty"`
	Results  []*domain.ScoredPost `json:"results"`
}

// ReindexTarget is an index that can list the posts it holds
type ReindexTarget interface {
	SearchIndexer
	PostIDs(ctx context.Context) ([]int64, error)
}

// SearchService searches published posts, preferring the ranked index and
// falling back to substring matching when it is unavailable
type SearchService struct {
	ranked       RankedSearcher
	postRepo     repository.PostRepository
	store        media.Store
	minRelevance float64
	logger       *logger.Logger
}

// NewSearchService creates a new search service. ranked may be nil.
// minRelevance applies to scores normalised over the published hits.
func NewSearchService(
	ranked RankedSearcher,
	postRepo repository.PostRepository,
	store media.Store,
	minRelevance float64,
	logger *logger.Logger,
) *SearchService {
	return &SearchService{
		ranked:       ranked,
		postRepo:     postRepo,
		store:        store,
		minRelevance: minRelevance,
		logger:       logger.WithComponent("search-service"),
	}
}

// Search runs query. An empty query yields an empty result.
func (s *SearchService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	result := &SearchResult{Query: query, Results: []*domain.ScoredPost{}}
	if query == "" {
		return result, nil
	}

	if s.ranked != nil {
		posts, err := s.searchRanked(ctx, query)
		if err == nil {
			result.Strategy = StrategyRanked
			result.Results = posts
			return result, nil
		}
		s.logger.Warn("Ranked search unavailable, using substring match", "error", err)
	}

	posts, err := s.postRepo.SearchText(ctx, query, 0)
	if err != nil {
		s.logger.Error("Substring search failed", "error", err)
		return nil, err
	}

	result.Strategy = StrategySubstring
	for _, p := range posts {
		decoratePost(s.store, p)
		result.Results = append(result.Results, &domain.ScoredPost{Post: p})
	}
	return result, nil
}

// searchRanked resolves index hits against the store. Posts unpublished
// since they were indexed drop out before scores are normalised, so a stale
// document never sets the scale.
func (s *SearchService) searchRanked(ctx context.Context, query string) ([]*domain.ScoredPost, error) {
	hits, err := s.ranked.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.PostID)
	}

	posts, err := s.postRepo.GetPublishedByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	visible := make([]search.Hit, 0, len(posts))
	for _, h := range hits {
		if _, ok := byID[h.PostID]; ok {
			visible = append(visible, h)
		}
	}

	kept := search.Normalize(visible, s.minRelevance)
	scored := make([]*domain.ScoredPost, 0, len(kept))
	for _, h := range kept {
		p := byID[h.PostID]
		decoratePost(s.store, p)
		scored = append(scored, &domain.ScoredPost{Post: p, Score: h.Score})
	}
	sortByRelevance(scored)
	return scored, nil
}

// sortByRelevance orders by score, then newest first
func sortByRelevance(posts []*domain.ScoredPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Score != posts[j].Score {
			return posts[i].Score > posts[j].Score
		}
		return posts[i].Published.After(posts[j].Published)
	})
}

// Reindex rebuilds the ranked index from every published post and drops
// documents for posts that are no longer published
func (s *SearchService) Reindex(ctx context.Context, index ReindexTarget) (int, error) {
	posts, _, err := s.postRepo.List(ctx, &domain.PostListFilter{})
	if err != nil {
		return 0, err
	}

	published := make(map[int64]bool, len(posts))
	for _, p := range posts {
		if err := index.IndexPost(ctx, p); err != nil {
			return 0, err
		}
		published[p.ID] = true
	}

	indexed, err := index.PostIDs(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, id := range indexed {
		if published[id] {
			continue
		}
		if err := index.DeletePost(ctx, id); err != nil {
			return 0, err
		}
		removed++
	}

	s.logger.Info("Search index rebuilt", "posts", len(posts), "removed", removed)
	return len(posts), nil
}
