package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// phonicsJune sets up a Mon/Wed/Fri class studying one book for ten June sessions.
func phonicsJune(t *testing.T, ts *testServer) (OwnerResponse, BookResponse) {
	t.Helper()
	owner := ts.createOwner(t)
	book := ts.createBook(t, map[string]any{"name": "Phonics Readers", "review_every": 1})
	ts.allocate(t, owner.ID, book.ID, 1, 2025, 6, 10)
	return owner, book
}

func TestPlanPreviewAndSave(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner, book := phonicsJune(t, ts)
	base := "/api/v1/owners/" + owner.ID

	resp := ts.api.Post(base+"/plans/preview", map[string]any{"year": 2025, "month": 6})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	preview := decode[service.Preview](t, resp.Body).Data

	require.Len(t, preview.Lessons, 10)
	first := preview.Lessons[0]
	assert.Equal(t, "2025-06-02", first.Date.String())
	assert.Equal(t, "Unit 1 Day 1", first.Content)
	assert.Equal(t, book.ID, first.BookID)
	assert.Equal(t, domain.LessonPlanned, first.State)

	resp = ts.api.Get(base + "/plans/preview/" + preview.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, preview.RunID, decode[service.Preview](t, resp.Body).Data.RunID)

	resp = ts.api.Post(base+"/plans", map[string]any{"preview_id": preview.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	saved := decode[service.SaveResult](t, resp.Body).Data
	assert.Equal(t, preview.RunID, saved.RunID)
	assert.Len(t, saved.Lessons, 10)

	resp = ts.api.Post(base+"/plans", map[string]any{"preview_id": preview.ID})
	require.Equal(t, http.StatusGone, resp.Code)
	assert.Equal(t, "PREVIEW_EXPIRED", decode[any](t, resp.Body).Code)

	resp = ts.api.Get(base + "/lessons")
	require.Equal(t, http.StatusOK, resp.Code)
	lessons := decode[ListLessonsResponse](t, resp.Body).Data.Lessons
	require.Len(t, lessons, 10)
	for i, l := range lessons {
		assert.Equal(t, domain.LessonSaved, l.State)
		assert.Equal(t, i+1, l.DisplayOrder)
	}
}

func TestPlanPreview_Errors(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.createOwner(t)
	base := "/api/v1/owners/" + owner.ID

	resp := ts.api.Post(base+"/plans/preview", map[string]any{"year": 2025, "month": 13})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body).Code)

	resp = ts.api.Get(base + "/plans/preview/prv-missing")
	require.Equal(t, http.StatusGone, resp.Code)

	resp = ts.api.Get(base + "/plans/preview/les-missing")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body).Code)

	resp = ts.api.Post("/api/v1/owners/own-missing/plans/preview", map[string]any{"year": 2025, "month": 6})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestExtendPlan(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner, _ := phonicsJune(t, ts)
	base := "/api/v1/owners/" + owner.ID

	resp := ts.api.Post(base+"/plans", map[string]any{"year": 2025, "month": 6})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post(base+"/plans/extend", map[string]any{"count": 4})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[service.SaveResult](t, resp.Body).Data
	require.Len(t, res.Lessons, 4)
	assert.Equal(t, 11, res.Lessons[0].DisplayOrder)
	assert.Equal(t, "Unit 4 Day 2", res.Lessons[0].Content)

	resp = ts.api.Get(base + "/lessons")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[ListLessonsResponse](t, resp.Body).Data.Lessons, 14)
}

func TestPlans_NoWeekdays(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/owners", map[string]any{"name": "Mina", "kind": "private"})
	require.Equal(t, http.StatusCreated, resp.Code)
	owner := decode[OwnerResponse](t, resp.Body).Data

	book := ts.createBook(t, map[string]any{"name": "Reading Explorer"})
	ts.allocate(t, owner.ID, book.ID, 1, 2025, 6, 4)

	base := "/api/v1/owners/" + owner.ID + "/plans"
	requests := map[string]map[string]any{
		"/preview": {"year": 2025, "month": 6},
		"":         {"year": 2025, "month": 6},
		"/extend":  {"count": 4, "from": "2025-06-01"},
	}
	for path, body := range requests {
		resp = ts.api.Post(base+path, body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code, "%s: %s", path, resp.Body.String())

		env := decode[any](t, resp.Body)
		assert.False(t, env.Success)
		assert.Equal(t, "INVALID_CONFIGURATION", env.Code)
		assert.Equal(t, "owner has no class weekdays", env.Error)
	}
}
