package planner

import (
	"fmt"
	"time"
)

// Capacity compares a month's requested sessions against its calendar slots.
type Capacity struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Days      int        `json:"days"`
	Slots     int        `json:"slots"`     // Days x slots per day
	Reserved  int        `json:"reserved"`  // Slots taken by school events
	Requested int        `json:"requested"` // Deck length
	Dealt     int        `json:"dealt"`
	Empty     int        `json:"empty"`    // Open slots nothing was dealt into
	Unplaced  int        `json:"unplaced"` // Requested sessions that did not fit
}

// CapacityStatus summarizes a Capacity.
type CapacityStatus string

const (
	CapacityBalanced  CapacityStatus = "balanced"
	CapacityShortfall CapacityStatus = "shortfall"
	CapacityOverflow  CapacityStatus = "overflow"
)

// Status reports whether the month is short of sessions, over capacity, or exact.
func (c Capacity) Status() CapacityStatus {
	switch {
	case c.Unplaced > 0:
		return CapacityOverflow
	case c.Empty > 0:
		return CapacityShortfall
	default:
		return CapacityBalanced
	}
}

// Summary is a short human-readable description of the status.
func (c Capacity) Summary() string {
	switch c.Status() {
	case CapacityOverflow:
		if c.Days == 0 {
			return fmt.Sprintf("no class days; %d sessions will not fit", c.Unplaced)
		}
		return fmt.Sprintf("%d sessions will not fit", c.Unplaced)
	case CapacityShortfall:
		return fmt.Sprintf("%d slots left empty", c.Empty)
	default:
		return "all slots filled"
	}
}

func newCapacity(m MonthPlan, days []Day, slotsPerDay, requested, dealt int, stopped bool) Capacity {
	total, reserved := CountSlots(days, slotsPerDay)
	c := Capacity{
		Year:      m.Year,
		Month:     m.Month,
		Days:      len(days),
		Slots:     total,
		Reserved:  reserved,
		Requested: requested,
		Dealt:     dealt,
	}
	// A run cut short by its limit leaves the remaining slots to the next run.
	if !stopped {
		c.Empty = max(total-reserved-dealt, 0)
		c.Unplaced = max(requested-dealt, 0)
	}
	return c
}
