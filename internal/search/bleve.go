package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Options tunes ranking
type Options struct {
	// TitleBoost weights title matches over body matches
	TitleBoost float64
	// MaxResults caps the number of hits considered
	MaxResults int
}

// BleveIndex implements the Index interface using Bleve
type BleveIndex struct {
	index  bleve.Index
	opts   Options
	mu     sync.RWMutex // Protects concurrent access to the index
	logger *logger.Logger
}

// NewBleveIndex creates a new Bleve search index
func NewBleveIndex(opts Options, logger *logger.Logger) *BleveIndex {
	if opts.TitleBoost <= 0 {
		opts.TitleBoost = 2
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	return &BleveIndex{
		opts:   opts,
		logger: logger.WithComponent("bleve-index"),
	}
}

// Open opens or creates the search index
func (b *BleveIndex) Open(indexPath string) error {
	indexDir := filepath.Dir(indexPath)
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	var err error

	b.index, err = bleve.Open(indexPath)
	if err == nil {
		b.logger.Info("Opened existing search index", "path", indexPath)
		return nil
	}

	b.index, err = bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	b.logger.Info("Created new search index", "path", indexPath)
	return nil
}

// OpenInMemory creates an index that lives only in memory
func (b *BleveIndex) OpenInMemory() error {
	var err error
	b.index, err = bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create in-memory index: %w", err)
	}
	return nil
}

// buildIndexMapping builds the index mapping for posts
func buildIndexMapping() mapping.IndexMapping {
	postMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = false
	titleFieldMapping.IncludeTermVectors = false
	postMapping.AddFieldMappingsAt("title", titleFieldMapping)

	bodyFieldMapping := bleve.NewTextFieldMapping()
	bodyFieldMapping.Analyzer = en.AnalyzerName
	bodyFieldMapping.Store = false
	bodyFieldMapping.IncludeTermVectors = false
	postMapping.AddFieldMappingsAt("body", bodyFieldMapping)

	tagsFieldMapping := bleve.NewKeywordFieldMapping()
	tagsFieldMapping.Store = false
	postMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	publishedFieldMapping := bleve.NewDateTimeFieldMapping()
	publishedFieldMapping.Store = false
	postMapping.AddFieldMappingsAt("published", publishedFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("post", postMapping)
	indexMapping.DefaultMapping = postMapping
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	return indexMapping
}

// Close closes the search index
func (b *BleveIndex) Close() error {
	if b.index != nil {
		if err := b.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		b.logger.Info("Closed search index")
	}
	return nil
}

// IndexPost indexes a published post or removes an unpublished one
func (b *BleveIndex) IndexPost(ctx context.Context, post *domain.Post) error {
	if !post.IsPublished() {
		return b.DeletePost(ctx, post.ID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := docID(post.ID)
	if err := b.index.Index(id, PostToDocument(post)); err != nil {
		b.logger.Error("Failed to index post", "post_id", post.ID, "error", err)
		return fmt.Errorf("failed to index post: %w", err)
	}

	b.logger.Debug("Indexed post", "post_id", post.ID)
	return nil
}

// DeletePost removes a post from the index
func (b *BleveIndex) DeletePost(ctx context.Context, postID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.index.Delete(docID(postID)); err != nil {
		b.logger.Error("Failed to delete post from index", "post_id", postID, "error", err)
		return fmt.Errorf("failed to delete from index: %w", err)
	}

	b.logger.Debug("Deleted post from index", "post_id", postID)
	return nil
}

// Search runs a title-boosted match over title and body. Scores are raw
// bleve scores, best first; callers normalise them with Normalize once the
// hits are narrowed to what readers may see.
func (b *BleveIndex) Search(ctx context.Context, text string) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Hit{}, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	startTime := time.Now()

	searchRequest := bleve.NewSearchRequestOptions(b.buildSearchQuery(text), b.opts.MaxResults, 0, false)
	searchResults, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("Search failed", "error", err)
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{PostID: id, Score: hit.Score})
	}

	b.logger.Debug("Search completed",
		"query", text,
		"matched", searchResults.Total,
		"returned", len(hits),
		"time_ms", time.Since(startTime).Milliseconds(),
	)

	return hits, nil
}

// buildSearchQuery matches either field, weighting the title
func (b *BleveIndex) buildSearchQuery(text string) query.Query {
	titleQuery := bleve.NewMatchQuery(text)
	titleQuery.SetField("title")
	titleQuery.SetBoost(b.opts.TitleBoost)

	bodyQuery := bleve.NewMatchQuery(text)
	bodyQuery.SetField("body")

	return bleve.NewDisjunctionQuery(titleQuery, bodyQuery)
}

// PostIDs lists every post held by the index
func (b *BleveIndex) PostIDs(ctx context.Context) ([]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if count == 0 {
		return []int64{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of documents in the index
func (b *BleveIndex) Count() (uint64, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return count, nil
}

// Normalize scales scores so the best hit is 1 and drops hits below
// minRelevance. Input order is preserved.
func Normalize(hits []Hit, minRelevance float64) []Hit {
	var best float64
	for _, h := range hits {
		if h.Score > best {
			best = h.Score
		}
	}

	kept := make([]Hit, 0, len(hits))
	if best <= 0 {
		return kept
	}

	for _, h := range hits {
		h.Score /= best
		if h.Score < minRelevance {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}
