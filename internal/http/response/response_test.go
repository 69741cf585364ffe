package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "index rebuilding", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "UNAVAILABLE", env.Code)
	assert.Equal(t, "index rebuilding", env.Error)
	assert.Nil(t, env.Data)
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "domain error",
			err:        fmt.Errorf("wrapped: %w", domainerrors.NotFound("owner not found")),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "invalid configuration",
			err:        domainerrors.InvalidConfiguration("slots per day must be at least 1"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_CONFIGURATION",
		},
		{
			name:       "store error",
			err:        store.ErrAlreadyExists,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "validation details",
			err:        domainerrors.ValidationWithDetails("unknown event type", map[string]string{"types": "plan.deleted"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.False(t, env.Success)
		})
	}
}
