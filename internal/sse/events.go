// Package sse implements Server-Sent Events for lesson plan and catalog changes.
package sse

import (
	"time"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

// ParseEventType accepts the wire name of a known event type.
func ParseEventType(s string) (EventType, bool) {
	t := EventType(s)
	switch t {
	case EventPlanSaved, EventPlanExtended, EventLessonMoved, EventLessonDeleted,
		EventReviewInserted, EventBookCreated, EventBookUpdated, EventBookDeleted:
		return t, true
	}
	return "", false
}

const (
	// EventPlanSaved is sent when a generated plan is persisted.
	EventPlanSaved EventType = "plan.saved"
	// EventPlanExtended is sent when sessions are appended after the latest lesson.
	EventPlanExtended EventType = "plan.extended"

	// EventLessonMoved is sent when a lesson changes date or period.
	EventLessonMoved EventType = "lesson.moved"
	// EventLessonDeleted is sent when a lesson is removed.
	EventLessonDeleted EventType = "lesson.deleted"
	// EventReviewInserted is sent when a review checkpoint is added.
	EventReviewInserted EventType = "review.inserted"

	// EventBookCreated represents a catalog addition.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a catalog change.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a catalog removal.
	EventBookDeleted EventType = "book.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is a single message on the stream.
type Event struct {
	// ID is assigned by the Manager when the event is dispatched.
	ID        uint64    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// OwnerID limits delivery to clients watching that owner.
	// Empty means broadcast to everyone.
	OwnerID string `json:"owner_id,omitempty"`
}

// PlanEventData is the payload for plan.saved and plan.extended.
type PlanEventData struct {
	OwnerID string     `json:"owner_id"`
	RunID   string     `json:"run_id"`
	From    civil.Date `json:"from"`
	To      civil.Date `json:"to"`
	Count   int        `json:"count"`
}

// LessonEventData carries the lesson after the change.
type LessonEventData struct {
	Lesson domain.Lesson `json:"lesson"`
}

// LessonDeletedEventData identifies a removed lesson.
type LessonDeletedEventData struct {
	OwnerID  string `json:"owner_id"`
	LessonID string `json:"lesson_id"`
}

// BookEventData is the payload for book events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// BookDeletedEventData identifies a removed book.
type BookDeletedEventData struct {
	BookID string `json:"book_id"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, ownerID string, data any) Event {
	return Event{Type: t, OwnerID: ownerID, Data: data, Timestamp: time.Now()}
}

// NewPlanSavedEvent creates a plan.saved event.
func NewPlanSavedEvent(data PlanEventData) Event {
	return newEvent(EventPlanSaved, data.OwnerID, data)
}

// NewPlanExtendedEvent creates a plan.extended event.
func NewPlanExtendedEvent(data PlanEventData) Event {
	return newEvent(EventPlanExtended, data.OwnerID, data)
}

// NewLessonMovedEvent creates a lesson.moved event.
func NewLessonMovedEvent(l domain.Lesson) Event {
	return newEvent(EventLessonMoved, l.OwnerID, LessonEventData{Lesson: l})
}

// NewLessonDeletedEvent creates a lesson.deleted event.
func NewLessonDeletedEvent(ownerID, lessonID string) Event {
	return newEvent(EventLessonDeleted, ownerID, LessonDeletedEventData{OwnerID: ownerID, LessonID: lessonID})
}

// NewReviewInsertedEvent creates a review.inserted event.
func NewReviewInsertedEvent(l domain.Lesson) Event {
	return newEvent(EventReviewInserted, l.OwnerID, LessonEventData{Lesson: l})
}

// NewBookCreatedEvent creates a book.created event.
func NewBookCreatedEvent(b *domain.Book) Event {
	return newEvent(EventBookCreated, "", BookEventData{Book: b})
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(b *domain.Book) Event {
	return newEvent(EventBookUpdated, "", BookEventData{Book: b})
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(bookID string) Event {
	return newEvent(EventBookDeleted, "", BookDeletedEventData{BookID: bookID})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
