package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// setupTestIndex creates an in-memory index seeded with a small catalog.
func setupTestIndex(t *testing.T) *BookIndex {
	t.Helper()

	index, err := NewBookIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	for _, b := range testBooks() {
		require.NoError(t, index.IndexBook(BookToDocument(b)))
	}
	return index
}

func testBooks() []*domain.Book {
	now := time.Now()
	books := []*domain.Book{
		{ID: "b1", Name: "Reading Explorer", Scheme: domain.SchemeVolumeDay, LevelTag: "T9", UnitCount: 8},
		{ID: "b2", Name: "Grammar in Use", Scheme: domain.SchemeUnitDay, UnitCount: 20},
		{ID: "b3", Name: "Monthly Test", Kind: domain.BookKindEvent},
		{ID: "b4", Name: "Phonics Readers", Scheme: domain.SchemeUnitDay, UnitCount: 12},
	}
	for i, b := range books {
		b.Normalize()
		b.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		b.UpdatedAt = b.CreatedAt
	}
	return books
}

func hitIDs(r *Result) []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestBookIndex_Count(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	require.NoError(t, index.DeleteBook("b3"))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestBookIndex_SearchByName(t *testing.T) {
	index := setupTestIndex(t)

	res, err := index.Search(context.Background(), Params{Query: "grammar"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "b2", res.Hits[0].ID)
	assert.Equal(t, "Grammar in Use", res.Hits[0].Name)
	assert.Equal(t, "unit_day", res.Hits[0].Scheme)
}

func TestBookIndex_StemmingAndPrefix(t *testing.T) {
	index := setupTestIndex(t)

	res, err := index.Search(context.Background(), Params{Query: "explorers"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, hitIDs(res))

	res, err = index.Search(context.Background(), Params{Query: "phon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b4"}, hitIDs(res))
}

func TestBookIndex_SearchByLevelTag(t *testing.T) {
	index := setupTestIndex(t)

	res, err := index.Search(context.Background(), Params{Query: "T9"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "b1", res.Hits[0].ID)
	assert.Equal(t, "T9", res.Hits[0].LevelTag)
}

func TestBookIndex_KindFilterAndFacets(t *testing.T) {
	index := setupTestIndex(t)

	res, err := index.Search(context.Background(), Params{Kinds: []string{"event"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b3"}, hitIDs(res))

	all, err := index.Search(context.Background(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), all.Total)
	assert.Contains(t, all.Kinds, FacetCount{Value: "content", Count: 3})
	assert.Contains(t, all.Kinds, FacetCount{Value: "event", Count: 1})
}

func TestBookIndex_ReindexAll(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.ReindexAll([]*BookDocument{
		{ID: "x1", Name: "Writing Lab", Scheme: "unit_day", Kind: "content"},
	}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewBookIndex_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search", "books.bleve")

	index, err := NewBookIndex(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(&BookDocument{ID: "b1", Name: "Grammar", Scheme: "unit_day", Kind: "content"}))
	require.NoError(t, index.Close())

	reopened, err := NewBookIndex(Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
