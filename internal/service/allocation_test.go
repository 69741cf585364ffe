package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
)

func TestAssignBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)
	a := env.book(t, "Reading Explorer")
	b := env.book(t, "Grammar in Use")

	first, err := env.allocations.AssignBook(ctx, owner.ID, AssignBookRequest{BookID: a.ID, Priority: 2})
	require.NoError(t, err)
	second, err := env.allocations.AssignBook(ctx, owner.ID, AssignBookRequest{BookID: b.ID, Priority: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)

	allocs, err := env.allocations.ListAllocations(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, b.ID, allocs[0].BookID, "priority 1 comes first")

	_, err = env.allocations.AssignBook(ctx, owner.ID, AssignBookRequest{BookID: a.ID, Priority: 3})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAssignBook_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)
	b := env.book(t, "Grammar in Use")

	_, err := env.allocations.AssignBook(ctx, "own-missing", AssignBookRequest{BookID: b.ID, Priority: 1})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.allocations.AssignBook(ctx, owner.ID, AssignBookRequest{BookID: "book-missing", Priority: 1})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.allocations.AssignBook(ctx, owner.ID, AssignBookRequest{BookID: b.ID})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSetMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)
	b := env.book(t, "Grammar in Use")
	alloc := env.allocate(t, owner.ID, b.ID, 1, nil)

	got, err := env.allocations.SetMonth(ctx, alloc.ID, SetMonthRequest{Year: 2025, Month: 6, Sessions: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, got.SessionsFor(month(2025, time.June)))

	got, err = env.allocations.SetMonth(ctx, alloc.ID, SetMonthRequest{Year: 2025, Month: 6, Sessions: 0})
	require.NoError(t, err)
	assert.Zero(t, got.SessionsFor(month(2025, time.June)))
	assert.Empty(t, got.Months)

	_, err = env.allocations.SetMonth(ctx, alloc.ID, SetMonthRequest{Year: 2025, Month: 13, Sessions: 1})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.allocations.SetMonth(ctx, "alc-missing", SetMonthRequest{Year: 2025, Month: 6, Sessions: 1})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSetPriorityAndUnassign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)
	b := env.book(t, "Grammar in Use")
	alloc := env.allocate(t, owner.ID, b.ID, 1, nil)

	got, err := env.allocations.SetPriority(ctx, alloc.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Priority)

	_, err = env.allocations.SetPriority(ctx, alloc.ID, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, env.allocations.Unassign(ctx, alloc.ID))
	err = env.allocations.Unassign(ctx, alloc.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestMonthBudgets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)
	a := env.book(t, "Reading Explorer")
	b := env.book(t, "Grammar in Use")

	env.allocate(t, owner.ID, a.ID, 1, map[domain.MonthKey]int{
		month(2025, time.June): 10,
		month(2025, time.July): 4,
	})
	env.allocate(t, owner.ID, b.ID, 2, map[domain.MonthKey]int{
		month(2025, time.June): 6,
	})

	budgets, err := env.allocations.MonthBudgets(ctx, owner.ID, month(2025, time.May), 4)
	require.NoError(t, err)
	require.Len(t, budgets, 2, "May and August have no sessions")

	assert.Equal(t, time.June, budgets[0].Month)
	assert.Equal(t, 16, budgets[0].Requested)
	require.Len(t, budgets[0].Allocations, 2)
	assert.Equal(t, a.ID, budgets[0].Allocations[0].BookID)

	assert.Equal(t, time.July, budgets[1].Month)
	assert.Equal(t, 4, budgets[1].Requested)

	_, err = env.allocations.MonthBudgets(ctx, owner.ID, month(2025, time.June), 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
