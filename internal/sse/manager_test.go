package sse

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.Events:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.Events:
		t.Fatalf("unexpected %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscription_Matches(t *testing.T) {
	moved := NewLessonMovedEvent(domain.Lesson{ID: "les-1", OwnerID: "own-a"})
	book := NewBookDeletedEvent("book-1")

	tests := []struct {
		name string
		sub  Subscription
		e    Event
		want bool
	}{
		{"everything", Subscription{}, moved, true},
		{"owner match", Subscription{OwnerIDs: []string{"own-b", "own-a"}}, moved, true},
		{"owner mismatch", Subscription{OwnerIDs: []string{"own-b"}}, moved, false},
		{"catalog passes owner filter", Subscription{OwnerIDs: []string{"own-b"}}, book, true},
		{"type filter", Subscription{Types: []EventType{EventPlanSaved}}, moved, false},
		{"type filter blocks catalog", Subscription{Types: []EventType{EventPlanSaved}}, book, false},
		{"heartbeat always", Subscription{Types: []EventType{EventPlanSaved}}, NewHeartbeatEvent(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.Matches(tt.e))
		})
	}
}

func TestManager_OwnerFiltering(t *testing.T) {
	m := newTestManager(t)

	a, _, err := m.Connect(Subscription{OwnerIDs: []string{"own-a"}}, 0)
	require.NoError(t, err)
	b, _, err := m.Connect(Subscription{OwnerIDs: []string{"own-b"}}, 0)
	require.NoError(t, err)
	all, _, err := m.Connect(Subscription{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, m.ClientCount())

	m.Emit(NewLessonDeletedEvent("own-a", "les-1"))

	got := receive(t, a)
	assert.Equal(t, EventLessonDeleted, got.Type)
	assert.Equal(t, uint64(1), got.ID)
	assert.Equal(t, EventLessonDeleted, receive(t, all).Type)
	assertSilent(t, b)

	m.Emit(NewBookDeletedEvent("book-1"))
	got = receive(t, b)
	assert.Equal(t, EventBookDeleted, got.Type)
	assert.Equal(t, uint64(2), got.ID)
}

func TestManager_ReplaysAfterLastEventID(t *testing.T) {
	m := newTestManager(t)
	watcher, _, err := m.Connect(Subscription{}, 0)
	require.NoError(t, err)

	m.Emit(NewLessonDeletedEvent("own-a", "les-1"))
	m.Emit(NewLessonDeletedEvent("own-b", "les-2"))
	m.Emit(NewLessonDeletedEvent("own-a", "les-3"))
	for range 3 {
		receive(t, watcher)
	}
	assert.Equal(t, uint64(3), m.LastEventID())

	_, backlog, err := m.Connect(Subscription{OwnerIDs: []string{"own-a"}}, 1)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, uint64(3), backlog[0].ID)
	assert.Equal(t, "les-3", backlog[0].Data.(LessonDeletedEventData).LessonID)

	_, backlog, err = m.Connect(Subscription{}, 0)
	require.NoError(t, err)
	assert.Empty(t, backlog, "no replay without a last event id")
}

func TestManager_HistoryIsBounded(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	m.limit = 2
	for i := range 5 {
		m.dispatch(NewLessonDeletedEvent("own-a", "les-"+string(rune('a'+i))))
	}
	require.Len(t, m.history, 2)
	assert.Equal(t, uint64(4), m.history[0].ID)
	assert.Equal(t, uint64(5), m.history[1].ID)
}

func TestManager_DisconnectAndShutdown(t *testing.T) {
	m := newTestManager(t)

	c, _, err := m.Connect(Subscription{OwnerIDs: []string{"own-a"}}, 0)
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Events
	assert.False(t, open)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	m.Emit(NewHeartbeatEvent())
}

func readFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			return sb.String()
		}
		sb.WriteString(line)
	}
}

func TestHandler_StreamsOwnerEvents(t *testing.T) {
	m := newTestManager(t)
	srv := httptest.NewServer(NewHandler(m, slog.New(slog.DiscardHandler)))
	defer srv.Close()

	m.Emit(NewLessonDeletedEvent("own-a", "les-1"))
	require.Eventually(t, func() bool { return m.LastEventID() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?owner_id=own-a&types=review.inserted,lesson.deleted", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "0")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	hello := readFrame(t, reader)
	assert.True(t, strings.HasPrefix(hello, "event: connected\n"), "hello frame carries no id")

	m.Emit(NewLessonMovedEvent(domain.Lesson{ID: "les-2", OwnerID: "own-a"}))
	m.Emit(NewReviewInsertedEvent(domain.Lesson{ID: "les-9", OwnerID: "own-a", Content: "Grammar Review"}))

	frame := readFrame(t, reader)
	assert.Contains(t, frame, "id: 3\n")
	assert.Contains(t, frame, "event: review.inserted")
	assert.Contains(t, frame, `"Grammar Review"`)
}

func TestHandler_ResumesFromLastEventID(t *testing.T) {
	m := newTestManager(t)
	srv := httptest.NewServer(NewHandler(m, slog.New(slog.DiscardHandler)))
	defer srv.Close()

	m.Emit(NewLessonDeletedEvent("own-a", "les-1"))
	m.Emit(NewLessonDeletedEvent("own-a", "les-2"))
	require.Eventually(t, func() bool { return m.LastEventID() == 2 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?last_event_id=1", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readFrame(t, reader)
	frame := readFrame(t, reader)
	assert.Contains(t, frame, "id: 2\n")
	assert.Contains(t, frame, `"les-2"`)
}

func TestHandler_RejectsBadParameters(t *testing.T) {
	h := NewHandler(NewManager(slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler))

	for _, target := range []string{"/?types=plan.deleted", "/?last_event_id=abc"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"code":"VALIDATION"`, target)
	}
}
