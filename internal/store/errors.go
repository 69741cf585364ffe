package store

import (
	"fmt"
	"net/http"
)

// Kind classifies a persistence failure.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindInvalidInput
	// KindConflict means a write would break lesson sequencing.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindInvalidInput:
		return "invalid input"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is returned by Store implementations. Match it with errors.Is
// against the sentinels below; any two errors of the same Kind match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPCode maps the kind to a response status.
func (e *Error) HTTPCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WithMessage returns a copy with msg as its message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// NotFound reports a missing record, e.g. NotFound("owner", "own-1").
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "record not found"}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists, Message: "record already exists"}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrConflict      = &Error{Kind: KindConflict, Message: "conflicting write"}
)
