package planner

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WeekdaySet is a set of allowed class weekdays.
type WeekdaySet uint8

// NewWeekdaySet builds a set from weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether no weekday is allowed.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Len returns the number of allowed weekdays.
func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Names returns the canonical lowercase names, Sunday first.
func (s WeekdaySet) Names() []string {
	names := make([]string, 0, s.Len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			names = append(names, weekdayNames[d])
		}
	}
	return names
}

var weekdayNames = [...]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

var weekdayLookup = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 14)
	for d, name := range weekdayNames {
		m[name] = time.Weekday(d)
		m[name[:3]] = time.Weekday(d)
	}
	return m
}()

// ParseWeekday accepts a full or three-letter weekday name in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	folded := cases.Fold().String(strings.TrimSpace(name))
	d, ok := weekdayLookup[folded]
	return d, ok
}

// ParseWeekdays converts stored weekday names into a set.
// Unknown names produce a *ConfigError.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, name := range names {
		d, ok := ParseWeekday(name)
		if !ok {
			return 0, configErrorf("weekdays", "unknown weekday %q", name)
		}
		s |= NewWeekdaySet(d)
	}
	return s, nil
}

// CanonicalWeekdays normalizes user-supplied weekday names for storage.
func CanonicalWeekdays(names []string) ([]string, error) {
	s, err := ParseWeekdays(names)
	if err != nil {
		return nil, err
	}
	return s.Names(), nil
}

// DisplayWeekday renders a weekday name in title case, e.g. for calendar headers.
func DisplayWeekday(d time.Weekday) string {
	return cases.Title(language.English).String(weekdayNames[d])
}
