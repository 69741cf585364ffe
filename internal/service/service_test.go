package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

func TestFromStore(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *domainerrors.Error
	}{
		{"not found", store.ErrNotFound, domainerrors.ErrNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", store.ErrNotFound), domainerrors.ErrNotFound},
		{"already exists", store.ErrAlreadyExists.WithMessage("book is already allocated"), domainerrors.ErrAlreadyExists},
		{"conflict", store.ErrConflict.WithCause(errors.New("UNIQUE constraint failed")), domainerrors.ErrConflict},
		{"invalid input", store.ErrInvalidInput, domainerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromStore(tt.err, "allocation")
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err, "cause is kept")
		})
	}

	assert.NoError(t, fromStore(nil, "owner"))

	other := errors.New("disk full")
	err := fromStore(other, "owner")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domainerrors.ErrInternal)
}

func TestFromStore_KeepsStoreMessage(t *testing.T) {
	err := fromStore(store.ErrAlreadyExists.WithMessage("book is already allocated to this owner"), "allocation")

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "book is already allocated to this owner", de.Message)
}

func TestFromPlanner(t *testing.T) {
	cfg := fromPlanner(&planner.ConfigError{Field: "slots_per_day", Reason: "must be at least 1"})
	assert.ErrorIs(t, cfg, domainerrors.ErrInvalidConfiguration)

	var de *domainerrors.Error
	require.ErrorAs(t, cfg, &de)
	assert.Equal(t, map[string]string{"field": "slots_per_day", "reason": "must be at least 1"}, de.Details)

	assert.ErrorIs(t, fromPlanner(fmt.Errorf("%w: les-1", planner.ErrLessonNotFound)), domainerrors.ErrNotFound)
	assert.ErrorIs(t, fromPlanner(planner.ErrInvalidPosition), domainerrors.ErrValidation)
	assert.ErrorIs(t, fromPlanner(planner.ErrSequenceOutOfRange), domainerrors.ErrValidation)
	assert.ErrorIs(t, fromPlanner(planner.ErrPeriodGap), domainerrors.ErrConflict)
	assert.NoError(t, fromPlanner(nil))
}

func TestOwnerLocks(t *testing.T) {
	locks := newOwnerLocks()

	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Go(func() {
			unlock := locks.lock("own-1")
			defer unlock()

			n := active.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())

	// Different owners do not block each other.
	unlockA := locks.lock("own-a")
	done := make(chan struct{})
	go func() {
		unlock := locks.lock("own-b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another owner blocked")
	}
	unlockA()
}
