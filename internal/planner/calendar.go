package planner

import (
	"time"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// CalendarQuery describes one month to resolve for one owner.
type CalendarQuery struct {
	Year      int
	Month     time.Month
	Weekdays  WeekdaySet
	Holidays  []domain.Holiday
	Overrides []domain.CalendarOverride
	ScopeID   string // Owner whose scoped holidays and overrides apply

	// LeadingWeek extends the scan back to the Sunday that starts the week of the 1st.
	// Only the first month of a generation run sets it.
	LeadingWeek bool
}

// Day is a resolved class day.
type Day struct {
	Date       civil.Date `json:"date"`
	Reserved   int        `json:"reserved,omitempty"` // Slots held by a school event
	EventLabel string     `json:"event_label,omitempty"`
}

// ResolveDays returns the class days of the queried month in ascending order.
//
// Per date, the override for the owner's scope wins over a global one. A
// no_class override removes the date, makeup and school_event overrides add
// it. Without an override the date counts when its weekday is allowed and no
// applicable holiday covers it.
func ResolveDays(q CalendarQuery) ([]Day, error) {
	if q.Year < 1 || q.Month < time.January || q.Month > time.December {
		return nil, configErrorf("month", "invalid month %d-%d", q.Year, int(q.Month))
	}

	first := civil.FirstOfMonth(q.Year, q.Month)
	last := civil.LastOfMonth(q.Year, q.Month)
	start := first
	if q.LeadingWeek {
		start = first.WeekStart()
	}

	overrides := effectiveOverrides(q.Overrides, q.ScopeID)

	var holidays []domain.Holiday
	for _, h := range q.Holidays {
		if h.AppliesTo(q.ScopeID) && !h.End.Before(start) && !h.Start.After(last) {
			holidays = append(holidays, h)
		}
	}

	days := make([]Day, 0, 31)
	for d := start; !d.After(last); d = d.AddDays(1) {
		if o, ok := overrides[d]; ok {
			switch o.Kind {
			case domain.OverrideNoClass:
				continue
			case domain.OverrideMakeup:
				days = append(days, Day{Date: d})
				continue
			case domain.OverrideSchoolEvent:
				days = append(days, Day{Date: d, Reserved: max(o.SessionCount, 1), EventLabel: eventLabel(o)})
				continue
			}
		}

		if !q.Weekdays.Has(d.Weekday()) || coveredByHoliday(holidays, d) {
			continue
		}
		days = append(days, Day{Date: d})
	}

	return days, nil
}

// ResolveDates is ResolveDays without the reservation detail.
func ResolveDates(q CalendarQuery) ([]civil.Date, error) {
	days, err := ResolveDays(q)
	if err != nil {
		return nil, err
	}
	dates := make([]civil.Date, len(days))
	for i, d := range days {
		dates[i] = d.Date
	}
	return dates, nil
}

// CountSlots returns the number of periods the days offer and how many of them are reserved.
func CountSlots(days []Day, slotsPerDay int) (total, reserved int) {
	for _, d := range days {
		total += slotsPerDay
		reserved += min(d.Reserved, slotsPerDay)
	}
	return total, reserved
}

func effectiveOverrides(overrides []domain.CalendarOverride, scopeID string) map[civil.Date]domain.CalendarOverride {
	out := make(map[civil.Date]domain.CalendarOverride, len(overrides))
	for _, o := range overrides {
		switch {
		case o.OwnerID != "" && o.OwnerID == scopeID:
			out[o.Date] = o
		case o.IsGlobal():
			if existing, ok := out[o.Date]; ok && !existing.IsGlobal() {
				continue
			}
			out[o.Date] = o
		}
	}
	return out
}

func coveredByHoliday(holidays []domain.Holiday, d civil.Date) bool {
	for i := range holidays {
		if holidays[i].Covers(d) {
			return true
		}
	}
	return false
}

func eventLabel(o domain.CalendarOverride) string {
	if o.Label != "" {
		return o.Label
	}
	return "School Event"
}
