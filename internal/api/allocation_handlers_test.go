package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/service"
)

// allocate assigns a book and sets its sessions for one month.
func (ts *testServer) allocate(t *testing.T, ownerID, bookID string, priority, year, month, sessions int) AllocationResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/owners/"+ownerID+"/allocations", map[string]any{
		"book_id":  bookID,
		"priority": priority,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	alloc := decode[AllocationResponse](t, resp.Body).Data

	resp = ts.api.Put("/api/v1/allocations/"+alloc.ID+"/months", map[string]any{
		"year":     year,
		"month":    month,
		"sessions": sessions,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[AllocationResponse](t, resp.Body).Data
}

func TestAllocationLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.createOwner(t)
	reading := ts.createBook(t, map[string]any{"name": "Reading Explorer"})
	grammar := ts.createBook(t, map[string]any{"name": "Grammar in Use"})

	a := ts.allocate(t, owner.ID, reading.ID, 1, 2025, 6, 10)
	assert.Equal(t, owner.ID, a.OwnerID)
	assert.Equal(t, []MonthSessions{{Year: 2025, Month: 6, Sessions: 10}}, a.Months)
	ts.allocate(t, owner.ID, grammar.ID, 2, 2025, 6, 6)

	resp := ts.api.Post("/api/v1/owners/"+owner.ID+"/allocations", map[string]any{
		"book_id":  reading.ID,
		"priority": 3,
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode[any](t, resp.Body).Code)

	resp = ts.api.Patch("/api/v1/allocations/"+a.ID, map[string]any{"priority": 5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 5, decode[AllocationResponse](t, resp.Body).Data.Priority)

	resp = ts.api.Get("/api/v1/owners/" + owner.ID + "/allocations")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[ListAllocationsResponse](t, resp.Body).Data.Allocations
	require.Len(t, list, 2)
	assert.Equal(t, grammar.ID, list[0].BookID, "lower priority value comes first")

	resp = ts.api.Get("/api/v1/owners/" + owner.ID + "/months?year=2025&month=5&count=3")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	months := decode[MonthBudgetsResponse](t, resp.Body).Data.Months
	require.Len(t, months, 1)
	assert.Equal(t, 16, months[0].Requested)

	resp = ts.api.Delete("/api/v1/allocations/" + a.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Allocation removed", decode[MessageResponse](t, resp.Body).Data.Message)

	resp = ts.api.Get("/api/v1/owners/" + owner.ID + "/months?year=2025&month=7")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []service.MonthBudget{}, decode[MonthBudgetsResponse](t, resp.Body).Data.Months)
}

func TestAssignBook_UnknownBook(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.createOwner(t)

	resp := ts.api.Post("/api/v1/owners/"+owner.ID+"/allocations", map[string]any{
		"book_id":  "book-missing",
		"priority": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
