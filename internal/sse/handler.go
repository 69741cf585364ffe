package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/http/response"
)

const writeTimeout = time.Minute

// Handler streams events at GET /api/v1/events.
//
// Query parameters:
//
//	owner_id  one or more owners (repeat or comma separate); empty streams all
//	types     comma separated event types; empty streams all
//
// A Last-Event-ID header (or last_event_id query parameter) replays the
// recorded events after that id before going live.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler over manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// ServeHTTP handles one stream until the client goes away or the manager drops it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, lastID, err := parseRequest(r)
	if err != nil {
		response.HandleError(w, err, h.logger)
		return
	}

	client, backlog, err := h.manager.Connect(sub, lastID)
	if err != nil {
		response.HandleError(w, err, h.logger)
		return
	}
	defer h.manager.Disconnect(client.ID)

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	if err := rc.Flush(); err != nil {
		response.HandleError(w, domainerrors.Internal("streaming not supported"), h.logger)
		return
	}
	log := h.logger.With(slog.String("client_id", client.ID))

	hello := map[string]any{
		"client_id":     client.ID,
		"owner_ids":     sub.OwnerIDs,
		"last_event_id": h.manager.LastEventID(),
	}
	if err := write(rc, w, 0, "connected", hello); err != nil {
		return
	}
	for _, e := range backlog {
		if err := write(rc, w, e.ID, string(e.Type), e); err != nil {
			return
		}
	}

	for {
		select {
		case e, ok := <-client.Events:
			if !ok {
				log.Debug("stream closed by manager")
				return
			}
			if err := write(rc, w, e.ID, string(e.Type), e); err != nil {
				log.Debug("stream write failed", slog.String("error", err.Error()))
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func parseRequest(r *http.Request) (Subscription, uint64, error) {
	var sub Subscription
	q := r.URL.Query()

	for _, v := range q["owner_id"] {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				sub.OwnerIDs = append(sub.OwnerIDs, o)
			}
		}
	}
	if v := q.Get("types"); v != "" {
		for _, name := range strings.Split(v, ",") {
			t, ok := ParseEventType(strings.TrimSpace(name))
			if !ok {
				return sub, 0, domainerrors.ValidationWithDetails("unknown event type", map[string]string{"types": name})
			}
			sub.Types = append(sub.Types, t)
		}
	}

	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = q.Get("last_event_id")
	}
	var lastID uint64
	if raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return sub, 0, domainerrors.ValidationWithDetails("invalid last event id", map[string]string{"last_event_id": raw})
		}
		lastID = n
	}
	return sub, lastID, nil
}

// write sends one frame. An id of zero omits the id line so clients keep
// their previous Last-Event-ID.
func write(rc *http.ResponseController, w http.ResponseWriter, eventID uint64, name string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))

	if eventID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", eventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return err
	}
	return rc.Flush()
}
