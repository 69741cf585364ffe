package domain

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Valid reports whether the month is in range.
func (k MonthKey) Valid() bool {
	return k.Year > 0 && k.Month >= time.January && k.Month <= time.December
}

// Before reports whether k is strictly earlier than o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// String returns the month as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Allocation assigns a book to an owner with a priority and per-month session budgets.
//
// Priority ascends: 1 is scheduled before 2. Position records insertion order
// and breaks priority ties.
type Allocation struct {
	Timestamps
	ID       string           `json:"id"`
	OwnerID  string           `json:"owner_id"`
	BookID   string           `json:"book_id"`
	Priority int              `json:"priority"`
	Position int              `json:"position"`
	Months   map[MonthKey]int `json:"-"` // Sparse requested session counts
}

// SessionsFor returns the requested session count for a month, 0 when unset.
func (a *Allocation) SessionsFor(k MonthKey) int {
	if a.Months == nil {
		return 0
	}
	return a.Months[k]
}

// SetSessions sets the requested count for a month. A count of 0 removes the month.
func (a *Allocation) SetSessions(k MonthKey, sessions int) {
	if sessions <= 0 {
		delete(a.Months, k)
		return
	}
	if a.Months == nil {
		a.Months = make(map[MonthKey]int)
	}
	a.Months[k] = sessions
}

// MonthAllocation is an allocation's budget inside a single month plan.
type MonthAllocation struct {
	BookID   string `json:"book_id"`
	Priority int    `json:"priority"`
	Position int    `json:"position"`
	Sessions int    `json:"sessions"`
}
