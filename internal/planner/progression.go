package planner

import (
	"fmt"

	"github.com/classdeskapp/classdesk-server/internal/domain"
)

const (
	// DefaultDaysPerUnit applies to unit/day books without an explicit value.
	DefaultDaysPerUnit = 3
	// DefaultDaysPerVolume applies to volume/day books without an explicit value.
	DefaultDaysPerVolume = 4
	// DefaultLevelTag is rendered for volume/day books that have no level tag.
	DefaultLevelTag = "Vol"
)

// DaysPerUnit returns how many sessions one unit (or volume) of the book spans.
// The result is always at least 1.
func DaysPerUnit(b domain.Book) int {
	if b.Scheme == domain.SchemeVolumeDay {
		if b.DaysPerVolume > 0 {
			return b.DaysPerVolume
		}
		return DefaultDaysPerVolume
	}
	if b.DaysPerUnit > 0 {
		return b.DaysPerUnit
	}
	if b.Granularity == domain.GranularityDay {
		return 1
	}
	return DefaultDaysPerUnit
}

// Advance returns the cursor for the session after c.
func Advance(c domain.Cursor, b domain.Book) domain.Cursor {
	if c.Day < DaysPerUnit(b) {
		return domain.Cursor{Unit: c.Unit, Day: c.Day + 1}
	}
	return domain.Cursor{Unit: c.Unit + 1, Day: 1}
}

// Render returns the display text of the session at cursor c.
func Render(c domain.Cursor, b domain.Book) string {
	if b.Scheme == domain.SchemeVolumeDay {
		tag := b.LevelTag
		if tag == "" {
			tag = DefaultLevelTag
		}
		return fmt.Sprintf("%s-%d Day %d", tag, c.Unit, c.Day)
	}
	return fmt.Sprintf("Unit %d Day %d", c.Unit, c.Day)
}

// BeyondSyllabus reports whether c lies past the book's nominal last unit.
func BeyondSyllabus(c domain.Cursor, b domain.Book) bool {
	return b.UnitCount > 0 && c.Unit > b.UnitCount
}

// NormalizeCursor checks a cursor supplied from outside the planner.
//
// A unit or day below 1 is a *ConfigError. A day past the book's
// days-per-unit (for instance after the book's structure was edited) rolls
// over to the first day of the next unit, and adjusted is true.
func NormalizeCursor(c domain.Cursor, b domain.Book) (cursor domain.Cursor, adjusted bool, err error) {
	if c.Unit < 1 || c.Day < 1 {
		return c, false, configErrorf("progress", "cursor for book %q must be 1-indexed, got unit %d day %d", b.ID, c.Unit, c.Day)
	}
	if c.Day > DaysPerUnit(b) {
		return domain.Cursor{Unit: c.Unit + 1, Day: 1}, true, nil
	}
	return c, false, nil
}

// ResumeProgress derives the next cursor per book from previously saved lessons.
//
// history must be in canonical order. The last progressing lesson of each book
// wins, read from its structured unit and day fields. Books not in the
// catalog are skipped.
func ResumeProgress(history []domain.Lesson, books map[string]domain.Book) map[string]domain.Cursor {
	last := make(map[string]domain.Cursor)
	for i := range history {
		l := &history[i]
		if !l.Advances() {
			continue
		}
		last[l.BookID] = l.Cursor()
	}

	progress := make(map[string]domain.Cursor, len(last))
	for bookID, c := range last {
		b, ok := books[bookID]
		if !ok {
			continue
		}
		progress[bookID] = Advance(c, b)
	}
	return progress
}
