package sse

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/classdeskapp/classdesk-server/internal/id"
)

const (
	defaultHistorySize = 256
	clientBuffer       = 64
	queueSize          = 512
)

// Subscription selects which events a client receives.
// Zero values mean "everything": no owner filter, no type filter.
type Subscription struct {
	OwnerIDs []string
	Types    []EventType
}

// Matches reports whether e belongs on this subscription.
// Heartbeats and catalog events (no owner) pass the owner filter.
func (s Subscription) Matches(e Event) bool {
	if e.Type == EventHeartbeat {
		return true
	}
	if len(s.Types) > 0 && !slices.Contains(s.Types, e.Type) {
		return false
	}
	if e.OwnerID == "" || len(s.OwnerIDs) == 0 {
		return true
	}
	return slices.Contains(s.OwnerIDs, e.OwnerID)
}

// Client is one connected stream.
type Client struct {
	ID          string
	Sub         Subscription
	ConnectedAt time.Time

	// Events is closed when the manager drops the client.
	Events chan Event
}

// Manager fans events out to connected clients and keeps a short numbered
// history so reconnecting clients can resume from Last-Event-ID.
type Manager struct {
	logger *slog.Logger

	queue chan Event
	done  sync.WaitGroup

	mu      sync.Mutex
	clients map[string]*Client
	history []Event
	limit   int
	seq     uint64

	closeMu sync.RWMutex
	closed  bool

	heartbeat time.Duration
}

// NewManager creates a Manager with the default history size.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		queue:     make(chan Event, queueSize),
		clients:   make(map[string]*Client),
		limit:     defaultHistorySize,
		heartbeat: 30 * time.Second,
	}
}

// Start runs the dispatch loop until ctx ends or Shutdown drains the queue.
func (m *Manager) Start(ctx context.Context) {
	m.done.Add(1)
	defer m.done.Done()

	tick := time.NewTicker(m.heartbeat)
	defer tick.Stop()

	for {
		select {
		case e, ok := <-m.queue:
			if !ok {
				m.dropAll()
				return
			}
			m.dispatch(e)
		case <-tick.C:
			m.dispatch(NewHeartbeatEvent())
		case <-ctx.Done():
			m.dropAll()
			return
		}
	}
}

// Shutdown stops intake and waits for queued events to go out.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.closeMu.Unlock()

	finished := make(chan struct{})
	go func() {
		m.done.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		m.logger.Info("event stream stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("event stream drain timed out")
		return ctx.Err()
	}
}

// Emit queues an event. It never blocks; a full queue or a stopped manager drops it.
func (m *Manager) Emit(e Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.queue <- e:
	default:
		m.logger.Error("event queue full, dropping event", slog.String("event_type", string(e.Type)))
	}
}

// dispatch numbers e, records it and hands it to matching clients.
// Heartbeats are neither numbered nor recorded.
func (m *Manager) dispatch(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Type != EventHeartbeat {
		m.seq++
		e.ID = m.seq
		m.history = append(m.history, e)
		if over := len(m.history) - m.limit; over > 0 {
			m.history = slices.Delete(m.history, 0, over)
		}
	}

	var sent, skipped int
	for _, c := range m.clients {
		if !c.Sub.Matches(e) {
			continue
		}
		select {
		case c.Events <- e:
			sent++
		default:
			skipped++
			m.logger.Warn("client too slow, event skipped",
				slog.String("client_id", c.ID),
				slog.String("event_type", string(e.Type)))
		}
	}

	if e.Type != EventHeartbeat {
		m.logger.Debug("event dispatched",
			slog.Uint64("event_id", e.ID),
			slog.String("event_type", string(e.Type)),
			slog.String("owner_id", e.OwnerID),
			slog.Int("sent", sent),
			slog.Int("skipped", skipped))
	}
}

// Connect registers a client and returns the recorded events after lastID
// that match sub. Registration and backlog are taken under one lock, so the
// client sees every event exactly once.
func (m *Manager) Connect(sub Subscription, lastID uint64) (*Client, []Event, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, nil, err
	}
	c := &Client{
		ID:          clientID,
		Sub:         sub,
		ConnectedAt: time.Now(),
		Events:      make(chan Event, clientBuffer),
	}

	m.mu.Lock()
	var backlog []Event
	if lastID > 0 {
		for _, e := range m.history {
			if e.ID > lastID && sub.Matches(e) {
				backlog = append(backlog, e)
			}
		}
	}
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("event client connected",
		slog.String("client_id", c.ID),
		slog.Any("owner_ids", sub.OwnerIDs),
		slog.Int("replayed", len(backlog)),
		slog.Int("clients", n))
	return c, backlog, nil
}

// Disconnect removes a client. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
		close(c.Events)
	}
	n := len(m.clients)
	m.mu.Unlock()

	if ok {
		m.logger.Info("event client disconnected",
			slog.String("client_id", clientID),
			slog.Duration("connected_for", time.Since(c.ConnectedAt)),
			slog.Int("clients", n))
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// LastEventID returns the id of the most recent recorded event.
func (m *Manager) LastEventID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

func (m *Manager) dropAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.clients {
		close(c.Events)
		delete(m.clients, key)
	}
}
