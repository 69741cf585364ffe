package domain

import (
	"errors"
	"slices"

	"github.com/classdeskapp/classdesk-server/internal/civil"
)

// ErrHolidayRange is returned when a holiday ends before it starts.
var ErrHolidayRange = errors.New("holiday end date is before start date")

// Holiday is a date range during which regular classes do not meet.
// An empty OwnerIDs list makes the holiday global.
type Holiday struct {
	Timestamps
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Start    civil.Date `json:"start"`
	End      civil.Date `json:"end"`
	OwnerIDs []string   `json:"owner_ids,omitempty"`
}

// Validate checks the date range.
func (h *Holiday) Validate() error {
	if h.End.Before(h.Start) {
		return ErrHolidayRange
	}
	return nil
}

// Covers reports whether d falls inside the holiday, inclusive on both ends.
func (h *Holiday) Covers(d civil.Date) bool {
	return !d.Before(h.Start) && !d.After(h.End)
}

// Days returns the number of calendar days the holiday spans.
func (h *Holiday) Days() int {
	return h.Start.DaysUntil(h.End) + 1
}

// AppliesTo reports whether the holiday is in effect for the given owner.
func (h *Holiday) AppliesTo(ownerID string) bool {
	return len(h.OwnerIDs) == 0 || slices.Contains(h.OwnerIDs, ownerID)
}

// OverrideKind is the effect a calendar override has on its date.
type OverrideKind string

const (
	// OverrideNoClass cancels the date regardless of weekday.
	OverrideNoClass OverrideKind = "no_class"
	// OverrideMakeup adds the date as a class day regardless of weekday.
	OverrideMakeup OverrideKind = "makeup"
	// OverrideSchoolEvent keeps the date but reserves slots for a non-book activity.
	OverrideSchoolEvent OverrideKind = "school_event"
)

// Valid reports whether k is a known override kind.
func (k OverrideKind) Valid() bool {
	switch k {
	case OverrideNoClass, OverrideMakeup, OverrideSchoolEvent:
		return true
	}
	return false
}

// CalendarOverride forces the class-day status of a single date.
// OwnerID scopes it to one owner; empty means it applies to everyone.
type CalendarOverride struct {
	Timestamps
	ID           string       `json:"id"`
	Date         civil.Date   `json:"date"`
	Kind         OverrideKind `json:"kind"`
	SessionCount int          `json:"session_count,omitempty"` // school_event only
	Label        string       `json:"label,omitempty"`
	OwnerID      string       `json:"owner_id,omitempty"`
}

// IsGlobal reports whether the override has no owner scope.
func (o *CalendarOverride) IsGlobal() bool {
	return o.OwnerID == ""
}
