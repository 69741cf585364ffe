package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

// APIError is the body of every failed response before the envelope
// transformer wraps it. It satisfies huma.StatusError.
type APIError struct { //nolint:revive
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(string) string { return "application/json" }

// RegisterErrorHandler replaces huma.NewError so service and store errors
// keep their codes, and request validation failures collapse into one
// VALIDATION error keyed by location. Call it before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		if e := classify(errs); e != nil {
			return e
		}
		if fields := validationFields(errs); len(fields) > 0 {
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: message,
				Details: fields,
			}
		}
		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", "status", status, "message", message, "error", errors.Join(errs...))
		}
		return &APIError{status: status, Code: statusToCode(status), Message: message}
	}
}

// classify returns the first error that already knows its status.
func classify(errs []error) *APIError {
	for _, err := range errs {
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return &APIError{status: de.HTTPStatus(), Code: string(de.Code), Message: de.Message, Details: de.Details}
		}
		var se *store.Error
		if errors.As(err, &se) {
			return &APIError{status: se.HTTPCode(), Code: statusToCode(se.HTTPCode()), Message: se.Message}
		}
	}
	return nil
}

func validationFields(errs []error) map[string]string {
	var fields map[string]string
	for _, err := range errs {
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[d.Location] = d.Message
		}
	}
	return fields
}

// statusToCode maps statuses that reach huma without a domain error.
func statusToCode(status int) string {
	var c domainerrors.Code
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		c = domainerrors.CodeValidation
	case http.StatusNotFound:
		c = domainerrors.CodeNotFound
	case http.StatusConflict:
		c = domainerrors.CodeConflict
	case http.StatusGone:
		c = domainerrors.CodePreviewExpired
	case http.StatusTooManyRequests:
		c = domainerrors.CodeRateLimited
	default:
		c = domainerrors.CodeInternal
	}
	return string(c)
}
