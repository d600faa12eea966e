package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

func newIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx := NewBleveIndex(Options{TitleBoost: 2, MaxResults: 50}, logger.NewNop())
	require.NoError(t, idx.OpenInMemory())
	t.Cleanup(func() { idx.Close() })
	return idx
}

func post(id int64, title, body string, status domain.PostStatus) *domain.Post {
	return &domain.Post{
		ID:        id,
		Title:     title,
		Body:      body,
		Status:    status,
		Published: time.Date(2024, 1, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func TestBleveIndex_TitleOutranksBody(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	filler := strings.Repeat("words about cooking gardens and travel ", 10)
	require.NoError(t, idx.IndexPost(ctx, post(1, "Cooking notes", filler+"golang", domain.StatusPublished)))
	require.NoError(t, idx.IndexPost(ctx, post(2, "Golang generics", filler, domain.StatusPublished)))

	hits, err := idx.Search(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(2), hits[0].PostID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestBleveIndex_PostIDs(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	got, err := idx.PostIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, idx.IndexPost(ctx, post(id, "Post", "body", domain.StatusPublished)))
	}
	require.NoError(t, idx.DeletePost(ctx, 2))

	got, err = idx.PostIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, got)
}

func TestBleveIndex_OnlyPublishedPosts(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexPost(ctx, post(1, "Django tips", "body", domain.StatusPublished)))
	require.NoError(t, idx.IndexPost(ctx, post(2, "Django drafts", "body", domain.StatusDraft)))

	hits, err := idx.Search(ctx, "django")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].PostID)

	// unpublishing removes the post
	require.NoError(t, idx.IndexPost(ctx, post(1, "Django tips", "body", domain.StatusDraft)))
	hits, err = idx.Search(ctx, "django")
	require.NoError(t, err)
	assert.Empty(t, hits)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newIndex(t)

	hits, err := idx.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNormalize(t *testing.T) {
	hits := []Hit{{PostID: 1, Score: 4}, {PostID: 2, Score: 2}, {PostID: 3, Score: 1}}

	got := Normalize(hits, 0.3)
	require.Len(t, got, 2)
	assert.Equal(t, Hit{PostID: 1, Score: 1}, got[0])
	assert.Equal(t, Hit{PostID: 2, Score: 0.5}, got[1])

	assert.Empty(t, Normalize(nil, 0.3))
	assert.Empty(t, Normalize([]Hit{{PostID: 1, Score: 0}}, 0.3))
}
