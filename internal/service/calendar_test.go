package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

func TestResolveMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)

	_, err := env.calendar.CreateHoliday(ctx, CreateHolidayRequest{Name: "Midterm break", Start: "2025-06-09", End: "2025-06-13"})
	require.NoError(t, err)

	overrides := []CreateOverrideRequest{
		{Date: "2025-06-14", Kind: "makeup", OwnerID: owner.ID},
		{Date: "2025-06-16", Kind: "school_event", Label: "Sports Day"},
		{Date: "2025-06-30", Kind: "no_class"},
		{Date: "2025-06-30", Kind: "makeup", OwnerID: owner.ID},
	}
	for _, req := range overrides {
		_, err := env.calendar.CreateOverride(ctx, req)
		require.NoError(t, err)
	}

	cal, err := env.calendar.ResolveMonth(ctx, owner.ID, 2025, time.June)
	require.NoError(t, err)

	var dates []string
	for _, d := range cal.Days {
		dates = append(dates, d.Date.String())
	}
	assert.Equal(t, []string{
		"2025-06-02", "2025-06-04", "2025-06-06", "2025-06-14", "2025-06-16",
		"2025-06-18", "2025-06-20", "2025-06-23", "2025-06-25", "2025-06-27", "2025-06-30",
	}, dates)

	assert.Equal(t, "Saturday", cal.Days[3].Weekday)
	assert.Equal(t, "Monday", cal.Days[4].Weekday)
	assert.Equal(t, 1, cal.Days[4].Reserved)
	assert.Equal(t, "Sports Day", cal.Days[4].EventLabel)
	assert.Equal(t, 22, cal.Slots)
	assert.Equal(t, 1, cal.Reserved)
}

func TestResolveMonth_ScopedHolidayOnlyAffectsItsOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.mwfClass(t)
	b := env.mwfClass(t)

	_, err := env.calendar.CreateHoliday(ctx, CreateHolidayRequest{
		Name:     "Field trip week",
		Start:    "2025-06-02",
		End:      "2025-06-06",
		OwnerIDs: []string{a.ID},
	})
	require.NoError(t, err)

	calA, err := env.calendar.ResolveMonth(ctx, a.ID, 2025, time.June)
	require.NoError(t, err)
	calB, err := env.calendar.ResolveMonth(ctx, b.ID, 2025, time.June)
	require.NoError(t, err)

	assert.Len(t, calA.Days, 10)
	assert.Len(t, calB.Days, 13)
}

func TestCreateHoliday_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.calendar.CreateHoliday(ctx, CreateHolidayRequest{Name: "Backwards", Start: "2025-06-10", End: "2025-06-09"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.calendar.CreateHoliday(ctx, CreateHolidayRequest{Name: "Bad date", Start: "2025-6-1", End: "2025-06-09"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.calendar.CreateHoliday(ctx, CreateHolidayRequest{
		Name: "Unknown owner", Start: "2025-06-01", End: "2025-06-02", OwnerIDs: []string{"own-missing"},
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCreateOverride_OnePerDatePerScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)

	_, err := env.calendar.CreateOverride(ctx, CreateOverrideRequest{Date: "2025-06-04", Kind: "no_class"})
	require.NoError(t, err)

	_, err = env.calendar.CreateOverride(ctx, CreateOverrideRequest{Date: "2025-06-04", Kind: "makeup"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	scoped, err := env.calendar.CreateOverride(ctx, CreateOverrideRequest{Date: "2025-06-04", Kind: "makeup", OwnerID: owner.ID})
	require.NoError(t, err)

	_, err = env.calendar.CreateOverride(ctx, CreateOverrideRequest{Date: "2025-06-05", Kind: "makeup", SessionCount: 2})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	event, err := env.calendar.CreateOverride(ctx, CreateOverrideRequest{Date: "2025-06-06", Kind: "school_event"})
	require.NoError(t, err)
	assert.Equal(t, 1, event.SessionCount)

	list, err := env.calendar.ListOverrides(ctx, store.DateRange{From: date("2025-06-04"), To: date("2025-06-04")})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, env.calendar.DeleteOverride(ctx, scoped.ID))
	_, err = env.calendar.GetOverride(ctx, scoped.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteHoliday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h, err := env.calendar.CreateHoliday(ctx, CreateHolidayRequest{Name: "Founding day", Start: "2025-06-04", End: "2025-06-04"})
	require.NoError(t, err)

	list, err := env.calendar.ListHolidays(ctx, store.DateRange{From: date("2025-06-01"), To: date("2025-06-30")})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, env.calendar.DeleteHoliday(ctx, h.ID))
	_, err = env.calendar.GetHoliday(ctx, h.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestResolveMonths_LeadingWeek(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.mwfClass(t)

	aligned := NewCalendarService(env.store, nil, true, logger.Discard().Logger)

	// March 2025 starts on a Saturday; its first week begins Sunday Feb 23.
	resolved, err := aligned.resolveMonths(ctx, owner, []domain.MonthKey{month(2025, time.March), month(2025, time.April)}, true)
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	assert.Equal(t, civil.New(2025, time.February, 24), resolved[0][0].Date)
	assert.Equal(t, civil.New(2025, time.April, 2), resolved[1][0].Date, "only the first month is extended")

	plain, err := env.calendar.resolveMonths(ctx, owner, []domain.MonthKey{month(2025, time.March)}, true)
	require.NoError(t, err)
	assert.Equal(t, civil.New(2025, time.March, 3), plain[0][0].Date)
}
