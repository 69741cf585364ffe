package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/cache"
	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/search"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store/sqlite"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) last() sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type testEnv struct {
	store    *sqlite.Store
	previews *PreviewCache
	index    *search.BookIndex
	events   *recordingEmitter

	owners      *OwnerService
	catalog     *CatalogService
	allocations *AllocationService
	calendar    *CalendarService
	plans       *PlanService
	lessons     *LessonService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard().Logger

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	kv, err := cache.Open("", log)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	index, err := search.NewBookIndex(search.Options{Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	previews := cache.NewBucket[Preview](kv, "preview:", time.Hour)
	events := &recordingEmitter{}

	calendar := NewCalendarService(st, previews, false, log)
	plans := NewPlanService(st, calendar, previews, events, PlanOptions{
		PreviewTTL:      time.Hour,
		LookaheadMonths: 6,
		Location:        time.UTC,
	}, log)

	return &testEnv{
		store:       st,
		previews:    previews,
		index:       index,
		events:      events,
		owners:      NewOwnerService(st, previews, 1, log),
		catalog:     NewCatalogService(st, index, events, log),
		allocations: NewAllocationService(st, previews, log),
		calendar:    calendar,
		plans:       plans,
		lessons:     NewLessonService(st, plans, events, log),
	}
}

// mwfClass creates a class meeting Monday, Wednesday and Friday with two periods a day.
func (e *testEnv) mwfClass(t *testing.T) *domain.Owner {
	t.Helper()
	owner, err := e.owners.CreateOwner(context.Background(), CreateOwnerRequest{
		Name:        "Class 3A",
		Kind:        "class",
		Weekdays:    []string{"Mon", "wednesday", "FRIDAY"},
		SlotsPerDay: 2,
	})
	require.NoError(t, err)
	return owner
}

func (e *testEnv) book(t *testing.T, name string) *domain.Book {
	t.Helper()
	b, err := e.catalog.CreateBook(context.Background(), BookRequest{Name: name, UnitCount: 12})
	require.NoError(t, err)
	return b
}

// allocate assigns a book and sets its sessions for the given months.
func (e *testEnv) allocate(t *testing.T, ownerID, bookID string, priority int, months map[domain.MonthKey]int) *domain.Allocation {
	t.Helper()
	ctx := context.Background()
	a, err := e.allocations.AssignBook(ctx, ownerID, AssignBookRequest{BookID: bookID, Priority: priority})
	require.NoError(t, err)
	for k, n := range months {
		a, err = e.allocations.SetMonth(ctx, a.ID, SetMonthRequest{Year: k.Year, Month: int(k.Month), Sessions: n})
		require.NoError(t, err)
	}
	return a
}

func month(y int, m time.Month) domain.MonthKey {
	return domain.MonthKey{Year: y, Month: m}
}

func date(s string) civil.Date {
	return civil.MustParse(s)
}
