package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOwner_CanonicalWeekdays(t *testing.T) {
	ts := setupTestServer(t, Options{})

	owner := ts.createOwner(t)
	assert.NotEmpty(t, owner.ID)
	assert.Equal(t, "class", owner.Kind)
	assert.Equal(t, []string{"monday", "wednesday", "friday"}, owner.Weekdays)
	assert.Equal(t, 2, owner.SlotsPerDay)
}

func TestCreateOwner_Defaults(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/owners", map[string]any{"name": "Mina", "kind": "private"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	owner := decode[OwnerResponse](t, resp.Body).Data
	assert.Equal(t, []string{}, owner.Weekdays, "weekdays render as an empty list")
	assert.Equal(t, 1, owner.SlotsPerDay)
}

func TestCreateOwner_Invalid(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"kind": "class"}},
		{"unknown kind", map[string]any{"name": "3A", "kind": "club"}},
		{"unknown weekday", map[string]any{"name": "3A", "kind": "class", "weekdays": []string{"funday"}}},
		{"too many slots", map[string]any{"name": "3A", "kind": "class", "slots_per_day": 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/owners", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			env := decode[any](t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, "VALIDATION", env.Code)
		})
	}
}

func TestUpdateAndDeleteOwner(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.createOwner(t)

	resp := ts.api.Patch("/api/v1/owners/"+owner.ID, map[string]any{
		"weekdays":      []string{"Tuesday", "thu"},
		"slots_per_day": 1,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[OwnerResponse](t, resp.Body).Data
	assert.Equal(t, []string{"tuesday", "thursday"}, updated.Weekdays)
	assert.Equal(t, 1, updated.SlotsPerDay)
	assert.Equal(t, "Class 3A", updated.Name, "omitted fields are kept")

	resp = ts.api.Get("/api/v1/owners")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, decode[ListOwnersResponse](t, resp.Body).Data.Owners, 1)

	resp = ts.api.Delete("/api/v1/owners/" + owner.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Owner deleted", decode[MessageResponse](t, resp.Body).Data.Message)

	resp = ts.api.Get("/api/v1/owners/" + owner.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
