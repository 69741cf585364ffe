package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeInvalidTransition, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidConfiguration, http.StatusUnprocessableEntity},
		{CodePreviewExpired, http.StatusGone},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("owner %s not found", "own-1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)

	wrapped := fmt.Errorf("loading plan: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestError_WithCauseKeepsCause(t *testing.T) {
	err := Internal("failed to read lessons").WithCause(io.ErrUnexpectedEOF)

	assert.Equal(t, "failed to read lessons: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestError_WithDetails(t *testing.T) {
	base := InvalidConfiguration("owner has no class weekdays")
	detailed := base.WithDetails(map[string]string{"field": "weekdays"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"field": "weekdays"}, detailed.Details)
	assert.Equal(t, http.StatusUnprocessableEntity, detailed.HTTPStatus())
}
