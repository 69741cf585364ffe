// Package service implements the ClassDesk use cases on top of the store,
// the planner core, the preview cache and the search index.
package service

import (
	"errors"
	"fmt"
	"sync"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

// EventEmitter publishes change events. *sse.Manager satisfies it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// NoopEmitter drops every event.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(sse.Event) {}

// fromStore converts store sentinel errors into domain errors.
// what names the entity for the message, e.g. "owner".
func fromStore(err error, what string) error {
	if err == nil {
		return nil
	}

	var se *store.Error
	msg := what
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExistsf("%s", msg).WithCause(err)
	case errors.Is(err, store.ErrConflict):
		return domainerrors.Conflictf("%s was modified concurrently", what).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(msg).WithCause(err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// fromPlanner converts planner errors into domain errors.
func fromPlanner(err error) error {
	if err == nil {
		return nil
	}

	var ce *planner.ConfigError
	if errors.As(err, &ce) {
		return domainerrors.InvalidConfiguration(ce.Error()).WithDetails(map[string]string{
			"field":  ce.Field,
			"reason": ce.Reason,
		})
	}

	switch {
	case errors.Is(err, planner.ErrLessonNotFound):
		return domainerrors.NotFound(err.Error())
	case errors.Is(err, planner.ErrSequenceOutOfRange),
		errors.Is(err, planner.ErrInvalidPosition),
		errors.Is(err, planner.ErrNothingToAnchor):
		return domainerrors.Validation(err.Error())
	case errors.Is(err, planner.ErrDuplicatePeriod),
		errors.Is(err, planner.ErrPeriodGap),
		errors.Is(err, planner.ErrDisplayOrderConflict):
		return domainerrors.Conflictf("lesson sequence is inconsistent").WithCause(err)
	default:
		return err
	}
}

// ownerLocks serializes plan mutations per owner.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the owner's mutex and returns its release function.
func (l *ownerLocks) lock(ownerID string) func() {
	l.mu.Lock()
	m, ok := l.locks[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
