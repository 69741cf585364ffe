package planner

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// The functions in this file take one owner's live lessons and return a new,
// fully renumbered slice. Inputs are never modified. Lesson state is left to
// the caller.

// CompareCanonical orders lessons by date, then period, then display order.
func CompareCanonical(a, b domain.Lesson) int {
	return cmp.Or(
		a.Date.Compare(b.Date),
		cmp.Compare(a.Period, b.Period),
		cmp.Compare(a.DisplayOrder, b.DisplayOrder),
	)
}

// Resequence sorts lessons canonically and renumbers display orders 1..N.
func Resequence(lessons []domain.Lesson) []domain.Lesson {
	out := slices.Clone(lessons)
	slices.SortStableFunc(out, CompareCanonical)
	for i := range out {
		out[i].DisplayOrder = i + 1
	}
	return out
}

// InsertReview places review directly after the lesson at display order after.
//
// The review takes the anchor's date and the period after it; later periods on
// that date shift up by one. An after of 0 inserts before the first lesson.
// Display orders are renumbered 1..N+1.
func InsertReview(lessons []domain.Lesson, after int, review domain.Lesson) ([]domain.Lesson, domain.Lesson, error) {
	if len(lessons) == 0 {
		return nil, domain.Lesson{}, ErrNothingToAnchor
	}
	out := Resequence(lessons)
	if after < 0 || after > len(out) {
		return nil, domain.Lesson{}, fmt.Errorf("%w: %d not in [0, %d]", ErrSequenceOutOfRange, after, len(out))
	}

	var date civil.Date
	var period int
	if after == 0 {
		date, period = out[0].Date, 1
	} else {
		anchor := out[after-1]
		date, period = anchor.Date, anchor.Period+1
	}

	for i := range out {
		if out[i].Date == date && out[i].Period >= period {
			out[i].Period++
		}
	}

	review.Kind = domain.LessonKindReview
	review.Unit, review.Day = 0, 0
	review.Date = date
	review.Period = period
	review.DisplayOrder = after

	// Sorting puts the review right after the anchor: same date, and the
	// anchor has the lower period.
	out = Resequence(append(out, review))
	return out, out[after], nil
}

// Move relocates a lesson to period position of toDate.
//
// Periods on the source and destination dates are renumbered 1..K; no other
// date is touched. A position past the end of the destination day appends.
func Move(lessons []domain.Lesson, lessonID string, toDate civil.Date, position int) ([]domain.Lesson, error) {
	if position < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	out := Resequence(lessons)
	idx := slices.IndexFunc(out, func(l domain.Lesson) bool { return l.ID == lessonID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}

	moved := out[idx]
	fromDate := moved.Date
	out = slices.Delete(out, idx, idx+1)

	// Destination day without the moved lesson, in period order.
	var dest []int
	for i := range out {
		if out[i].Date == toDate {
			dest = append(dest, i)
		}
	}
	position = min(position, len(dest)+1)

	for n, i := range dest {
		p := n + 1
		if p >= position {
			p++
		}
		out[i].Period = p
	}
	moved.Date = toDate
	moved.Period = position
	out = append(out, moved)

	if fromDate != toDate {
		renumberDate(out, fromDate)
	}
	return Resequence(out), nil
}

// Remove deletes a lesson and closes the gap it leaves in its date.
func Remove(lessons []domain.Lesson, lessonID string) ([]domain.Lesson, domain.Lesson, error) {
	out := Resequence(lessons)
	idx := slices.IndexFunc(out, func(l domain.Lesson) bool { return l.ID == lessonID })
	if idx < 0 {
		return nil, domain.Lesson{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	removed := out[idx]
	out = slices.Delete(out, idx, idx+1)
	renumberDate(out, removed.Date)
	return Resequence(out), removed, nil
}

// renumberDate rewrites periods of one date to 1..K, keeping their order.
// lessons must already be sorted canonically for that date.
func renumberDate(lessons []domain.Lesson, date civil.Date) {
	p := 0
	for i := range lessons {
		if lessons[i].Date == date {
			p++
			lessons[i].Period = p
		}
	}
}

// CheckContiguity verifies that every date's periods run 1..K and that
// display orders strictly increase in canonical order.
func CheckContiguity(lessons []domain.Lesson) error {
	sorted := slices.Clone(lessons)
	slices.SortStableFunc(sorted, CompareCanonical)

	var (
		date      civil.Date
		want      int
		lastOrder int
	)
	for i, l := range sorted {
		if i == 0 || l.Date != date {
			date, want = l.Date, 1
		}
		switch {
		case l.Period < want:
			return fmt.Errorf("%w: %s period %d", ErrDuplicatePeriod, l.Date, l.Period)
		case l.Period > want:
			return fmt.Errorf("%w: %s expected period %d, got %d", ErrPeriodGap, l.Date, want, l.Period)
		}
		if i > 0 && l.DisplayOrder <= lastOrder {
			return fmt.Errorf("%w: %s period %d has order %d after %d", ErrDisplayOrderConflict, l.Date, l.Period, l.DisplayOrder, lastOrder)
		}
		want++
		lastOrder = l.DisplayOrder
	}
	return nil
}

// ReviewSuggestion is a point where a review checkpoint would fit.
type ReviewSuggestion struct {
	After    int        `json:"after"` // Display order of the lesson that completes the unit
	Date     civil.Date `json:"date"`
	BookID   string     `json:"book_id"`
	BookName string     `json:"book_name"`
	Unit     int        `json:"unit"`
}

// SuggestReviews lists positions where a book completes every ReviewEvery-th unit
// and no review for that book follows immediately.
func SuggestReviews(lessons []domain.Lesson, books map[string]domain.Book) []ReviewSuggestion {
	sorted := Resequence(lessons)

	var out []ReviewSuggestion
	for i, l := range sorted {
		if !l.Advances() {
			continue
		}
		b, ok := books[l.BookID]
		if !ok || b.ReviewEvery <= 0 {
			continue
		}
		if l.Day != DaysPerUnit(b) || l.Unit%b.ReviewEvery != 0 {
			continue
		}
		if i+1 < len(sorted) && sorted[i+1].Kind == domain.LessonKindReview && sorted[i+1].BookID == l.BookID {
			continue
		}
		out = append(out, ReviewSuggestion{
			After:    l.DisplayOrder,
			Date:     l.Date,
			BookID:   l.BookID,
			BookName: b.Name,
			Unit:     l.Unit,
		})
	}
	return out
}
