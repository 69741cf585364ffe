// Package domain contains the core business entities of the ClassDesk academic operations console.
package domain

import "strings"

// ProgressionScheme describes how a book's sessions advance.
type ProgressionScheme string

const (
	// SchemeUnitDay advances Unit N Day M.
	SchemeUnitDay ProgressionScheme = "unit_day"
	// SchemeVolumeDay uses the same arithmetic but renders as {tag}-{volume} Day M.
	SchemeVolumeDay ProgressionScheme = "volume_day"
)

// Valid reports whether s is a known scheme.
func (s ProgressionScheme) Valid() bool {
	return s == SchemeUnitDay || s == SchemeVolumeDay
}

// Granularity is the size of a book's smallest numbered section.
type Granularity string

const (
	// GranularityUnit means each unit spans several class days.
	GranularityUnit Granularity = "unit"
	// GranularityDay means each numbered unit is already a single class day.
	GranularityDay Granularity = "day"
)

// BookKind distinguishes curriculum books from non-content placeholders.
type BookKind string

const (
	// BookKindContent is a regular curriculum book with progression.
	BookKindContent BookKind = "content"
	// BookKindEvent is a placeholder (test day, field trip) that occupies a slot without progression.
	BookKindEvent BookKind = "event"
)

// Book is a curriculum source that lessons are drawn from.
//
// A Book is normalized once at the boundary (API input, store read) with
// Normalize; everything downstream relies on the normalized enums.
// Zero DaysPerUnit/DaysPerVolume means "use the scheme default", which the
// planner resolves.
type Book struct {
	Timestamps
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Scheme        ProgressionScheme `json:"scheme"`
	Kind          BookKind          `json:"kind"`
	Granularity   Granularity       `json:"granularity"`
	LevelTag      string            `json:"level_tag,omitempty"` // Short code used by volume/day rendering, e.g. "T9"
	UnitCount     int               `json:"unit_count"`          // Nominal syllabus length; 0 = open-ended
	DaysPerUnit   int               `json:"days_per_unit"`
	DaysPerVolume int               `json:"days_per_volume"`
	ReviewEvery   int               `json:"review_every"` // Suggest a review after every N completed units; 0 = never
}

// Normalize applies defaulting rules to enums and clears nonsensical values.
func (b *Book) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.LevelTag = strings.TrimSpace(b.LevelTag)

	if !b.Scheme.Valid() {
		b.Scheme = SchemeUnitDay
	}
	if b.Kind != BookKindEvent {
		b.Kind = BookKindContent
	}
	if b.Granularity != GranularityDay {
		b.Granularity = GranularityUnit
	}

	b.UnitCount = max(b.UnitCount, 0)
	b.DaysPerUnit = max(b.DaysPerUnit, 0)
	b.DaysPerVolume = max(b.DaysPerVolume, 0)
	b.ReviewEvery = max(b.ReviewEvery, 0)
}

// IsEvent reports whether the book is a non-content placeholder.
func (b *Book) IsEvent() bool {
	return b.Kind == BookKindEvent
}

// TotalSessions returns the nominal number of sessions in the syllabus for the
// given days-per-unit, or 0 when the book is open-ended.
func (b *Book) TotalSessions(daysPerUnit int) int {
	if b.UnitCount == 0 {
		return 0
	}
	return b.UnitCount * daysPerUnit
}
