package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/search"
)

func TestBookCRUD(t *testing.T) {
	ts := setupTestServer(t, Options{})

	book := ts.createBook(t, map[string]any{
		"name":       "Reading Explorer",
		"unit_count": 12,
	})
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "unit_day", book.Scheme)
	assert.Equal(t, "content", book.Kind)
	assert.Equal(t, 3, book.DaysPerUnit)

	resp := ts.api.Get("/api/v1/books/" + book.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Reading Explorer", decode[BookResponse](t, resp.Body).Data.Name)

	resp = ts.api.Put("/api/v1/books/"+book.ID, map[string]any{
		"name":          "Reading Explorer 2",
		"unit_count":    10,
		"days_per_unit": 4,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[BookResponse](t, resp.Body).Data
	assert.Equal(t, "Reading Explorer 2", updated.Name)
	assert.Equal(t, 4, updated.DaysPerUnit)

	resp = ts.api.Get("/api/v1/books")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[ListBooksResponse](t, resp.Body).Data
	require.Len(t, list.Books, 1)

	resp = ts.api.Delete("/api/v1/books/" + book.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Book deleted", decode[MessageResponse](t, resp.Body).Data.Message)

	resp = ts.api.Get("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateBook_Validation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/books", map[string]any{"unit_count": 3})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp.Body)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.NotEmpty(t, env.Details)

	resp = ts.api.Post("/api/v1/books", map[string]any{"name": "Phonics", "scheme": "chapter_page"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body).Code)
}

func TestSearchBooks(t *testing.T) {
	ts := setupTestServer(t, Options{})

	ts.createBook(t, map[string]any{"name": "Reading Explorer"})
	ts.createBook(t, map[string]any{"name": "Grammar in Use"})
	ts.createBook(t, map[string]any{"name": "Sports Day", "kind": "event"})

	resp := ts.api.Get("/api/v1/books/search?q=grammar")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decode[search.Result](t, resp.Body).Data
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Grammar in Use", result.Hits[0].Name)

	resp = ts.api.Get("/api/v1/books/search?kind=event")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result = decode[search.Result](t, resp.Body).Data
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "event", result.Hits[0].Kind)

	resp = ts.api.Get("/api/v1/books/search?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReindexBooks(t *testing.T) {
	ts := setupTestServer(t, Options{})

	ts.createBook(t, map[string]any{"name": "Reading Explorer"})
	ts.createBook(t, map[string]any{"name": "Grammar in Use"})

	resp := ts.api.Post("/api/v1/books/reindex")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 2, decode[ReindexResponse](t, resp.Body).Data.Indexed)

	resp = ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2 books indexed", decode[HealthResponse](t, resp.Body).Data.Components["search"].Message)
}
