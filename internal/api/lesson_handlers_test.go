package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// savedPhonics saves the phonicsJune plan and returns the owner base path and lessons.
func savedPhonics(t *testing.T, ts *testServer) (string, BookResponse, []domain.Lesson) {
	t.Helper()
	owner, book := phonicsJune(t, ts)
	base := "/api/v1/owners/" + owner.ID

	resp := ts.api.Post(base+"/plans", map[string]any{"year": 2025, "month": 6})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	return base, book, ts.lessons(t, base)
}

func (ts *testServer) lessons(t *testing.T, base string) []domain.Lesson {
	t.Helper()
	resp := ts.api.Get(base + "/lessons")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[ListLessonsResponse](t, resp.Body).Data.Lessons
}

func (ts *testServer) suggestions(t *testing.T, base string) SuggestReviewsResponse {
	t.Helper()
	resp := ts.api.Get(base + "/lessons/review-suggestions")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[SuggestReviewsResponse](t, resp.Body).Data
}

func TestReviewSuggestionsAndInsert(t *testing.T) {
	ts := setupTestServer(t, Options{})
	base, book, before := savedPhonics(t, ts)
	require.Len(t, before, 10)

	s := ts.suggestions(t, base)
	require.Len(t, s.Suggestions, 3)
	assert.Equal(t, 3, s.Suggestions[0].After)
	assert.Equal(t, 6, s.Suggestions[1].After)
	assert.Equal(t, 9, s.Suggestions[2].After)

	resp := ts.api.Post(base+"/lessons/reviews", map[string]any{"after": 3, "book_id": book.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	review := decode[domain.Lesson](t, resp.Body).Data
	assert.Equal(t, domain.LessonKindReview, review.Kind)
	assert.Equal(t, domain.LessonSaved, review.State)
	assert.Equal(t, 4, review.DisplayOrder)
	assert.Equal(t, "Phonics Readers Review", review.Content)

	after := ts.lessons(t, base)
	require.Len(t, after, 11)
	assert.Equal(t, before[3].ID, after[4].ID, "later lessons shift by one")

	assert.Len(t, ts.suggestions(t, base).Suggestions, 2)

	resp = ts.api.Post(base+"/lessons/reviews", map[string]any{"after": 40})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Post(base+"/lessons/reviews", map[string]any{"after": -1})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMoveLessonEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	base, _, before := savedPhonics(t, ts)
	first := before[0]

	resp := ts.api.Post(base+"/lessons/"+first.ID+"/move", map[string]any{"date": "2025-06-04", "position": 1})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	moved := decode[domain.Lesson](t, resp.Body).Data
	assert.Equal(t, "2025-06-04", moved.Date.String())
	assert.Equal(t, 1, moved.Period)
	assert.Equal(t, domain.LessonReordered, moved.State)

	after := ts.lessons(t, base)
	require.Len(t, after, 10)
	assert.Equal(t, before[1].ID, after[0].ID)
	assert.Equal(t, 1, after[0].Period)

	resp = ts.api.Post(base+"/lessons/less-missing/move", map[string]any{"date": "2025-06-04", "position": 1})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post(base+"/lessons/"+first.ID+"/move", map[string]any{"date": "June 4", "position": 1})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteLessonEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	base, _, before := savedPhonics(t, ts)
	target := before[2]

	resp := ts.api.Delete(base + "/lessons/" + target.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Lesson deleted", decode[MessageResponse](t, resp.Body).Data.Message)

	after := ts.lessons(t, base)
	require.Len(t, after, 9)
	assert.Equal(t, before[3].ID, after[2].ID)
	assert.Equal(t, 3, after[2].DisplayOrder)

	resp = ts.api.Delete(base + "/lessons/" + target.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListLessons_DateRange(t *testing.T) {
	ts := setupTestServer(t, Options{})
	base, _, _ := savedPhonics(t, ts)

	resp := ts.api.Get(base + "/lessons?from=2025-06-04&to=2025-06-06")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Len(t, decode[ListLessonsResponse](t, resp.Body).Data.Lessons, 4)

	resp = ts.api.Get(base + "/lessons?from=yesterday")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[any](t, resp.Body).Details, "from")
}
