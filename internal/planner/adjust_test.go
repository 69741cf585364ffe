package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// sampleLessons returns three dates with 2, 3 and 1 periods.
func sampleLessons() []domain.Lesson {
	mk := func(id, date string, period, order int) domain.Lesson {
		return domain.Lesson{
			ID: id, OwnerID: "own-1", Date: civil.MustParse(date), Period: period, DisplayOrder: order,
			BookID: "book-x", Kind: domain.LessonKindLesson, Unit: 1, Day: order, State: domain.LessonSaved,
		}
	}
	return []domain.Lesson{
		mk("l1", "2026-03-02", 1, 1),
		mk("l2", "2026-03-02", 2, 2),
		mk("l3", "2026-03-05", 1, 3),
		mk("l4", "2026-03-05", 2, 4),
		mk("l5", "2026-03-05", 3, 5),
		mk("l6", "2026-03-09", 1, 6),
	}
}

type slot struct {
	ID     string
	Date   string
	Period int
	Order  int
}

func slots(lessons []domain.Lesson) []slot {
	out := make([]slot, len(lessons))
	for i, l := range lessons {
		out[i] = slot{l.ID, l.Date.String(), l.Period, l.DisplayOrder}
	}
	return out
}

func TestInsertReview_AfterMiddleOfDay(t *testing.T) {
	in := sampleLessons()
	review := domain.NewReview("own-1", "book-x", "Book X")
	review.ID = "rev"

	out, inserted, err := InsertReview(in, 3, review)
	require.NoError(t, err)

	assert.Equal(t, []slot{
		{"l1", "2026-03-02", 1, 1},
		{"l2", "2026-03-02", 2, 2},
		{"l3", "2026-03-05", 1, 3},
		{"rev", "2026-03-05", 2, 4},
		{"l4", "2026-03-05", 3, 5},
		{"l5", "2026-03-05", 4, 6},
		{"l6", "2026-03-09", 1, 7},
	}, slots(out))
	assert.Equal(t, "rev", inserted.ID)
	assert.Equal(t, domain.LessonKindReview, inserted.Kind)
	assert.NoError(t, CheckContiguity(out))

	// The input is untouched.
	assert.Equal(t, 2, in[3].Period)
}

func TestInsertReview_AtBoundaries(t *testing.T) {
	review := domain.Lesson{ID: "rev", Unit: 3, Day: 1}

	out, _, err := InsertReview(sampleLessons(), 0, review)
	require.NoError(t, err)
	assert.Equal(t, slot{"rev", "2026-03-02", 1, 1}, slots(out)[0])
	assert.Equal(t, slot{"l1", "2026-03-02", 2, 2}, slots(out)[1])
	assert.Zero(t, out[0].Unit, "reviews carry no progression")

	out, _, err = InsertReview(sampleLessons(), 6, review)
	require.NoError(t, err)
	assert.Equal(t, slot{"rev", "2026-03-09", 2, 7}, slots(out)[6])
	assert.NoError(t, CheckContiguity(out))
}

func TestInsertReview_Errors(t *testing.T) {
	_, _, err := InsertReview(sampleLessons(), 7, domain.Lesson{})
	assert.ErrorIs(t, err, ErrSequenceOutOfRange)

	_, _, err = InsertReview(sampleLessons(), -1, domain.Lesson{})
	assert.ErrorIs(t, err, ErrSequenceOutOfRange)

	_, _, err = InsertReview(nil, 0, domain.Lesson{})
	assert.ErrorIs(t, err, ErrNothingToAnchor)
}

func TestMove_AcrossDatesRenumbersBothDays(t *testing.T) {
	out, err := Move(sampleLessons(), "l1", civil.MustParse("2026-03-05"), 2)
	require.NoError(t, err)

	assert.Equal(t, []slot{
		{"l2", "2026-03-02", 1, 1},
		{"l3", "2026-03-05", 1, 2},
		{"l1", "2026-03-05", 2, 3},
		{"l4", "2026-03-05", 3, 4},
		{"l5", "2026-03-05", 4, 5},
		{"l6", "2026-03-09", 1, 6},
	}, slots(out))
	assert.NoError(t, CheckContiguity(out))
}

func TestMove_LeavesOtherDaysAlone(t *testing.T) {
	in := sampleLessons()
	// An unrelated day keeps its numbering, even a broken one.
	in[5].Period = 3

	out, err := Move(in, "l5", civil.MustParse("2026-03-02"), 1)
	require.NoError(t, err)

	byID := map[string]slot{}
	for _, s := range slots(out) {
		byID[s.ID] = s
	}
	assert.Equal(t, 1, byID["l5"].Period)
	assert.Equal(t, 2, byID["l1"].Period)
	assert.Equal(t, 3, byID["l2"].Period)
	assert.Equal(t, 1, byID["l3"].Period)
	assert.Equal(t, 2, byID["l4"].Period)
	assert.Equal(t, 3, byID["l6"].Period)
}

func TestMove_WithinDay(t *testing.T) {
	out, err := Move(sampleLessons(), "l5", civil.MustParse("2026-03-05"), 1)
	require.NoError(t, err)

	assert.Equal(t, []slot{
		{"l1", "2026-03-02", 1, 1},
		{"l2", "2026-03-02", 2, 2},
		{"l5", "2026-03-05", 1, 3},
		{"l3", "2026-03-05", 2, 4},
		{"l4", "2026-03-05", 3, 5},
		{"l6", "2026-03-09", 1, 6},
	}, slots(out))
}

func TestMove_ToEmptyDateAndPastEnd(t *testing.T) {
	out, err := Move(sampleLessons(), "l6", civil.MustParse("2026-03-12"), 9)
	require.NoError(t, err)

	last := slots(out)[5]
	assert.Equal(t, slot{"l6", "2026-03-12", 1, 6}, last)
	assert.NoError(t, CheckContiguity(out))

	out, err = Move(sampleLessons(), "l1", civil.MustParse("2026-03-05"), 10)
	require.NoError(t, err)
	assert.Equal(t, slot{"l1", "2026-03-05", 4, 5}, slots(out)[4])
}

func TestMove_Errors(t *testing.T) {
	_, err := Move(sampleLessons(), "nope", civil.MustParse("2026-03-05"), 1)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = Move(sampleLessons(), "l1", civil.MustParse("2026-03-05"), 0)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestRemove_ClosesGap(t *testing.T) {
	out, removed, err := Remove(sampleLessons(), "l4")
	require.NoError(t, err)

	assert.Equal(t, "l4", removed.ID)
	assert.Equal(t, []slot{
		{"l1", "2026-03-02", 1, 1},
		{"l2", "2026-03-02", 2, 2},
		{"l3", "2026-03-05", 1, 3},
		{"l5", "2026-03-05", 2, 4},
		{"l6", "2026-03-09", 1, 5},
	}, slots(out))

	_, _, err = Remove(sampleLessons(), "missing")
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestResequence_CanonicalOrder(t *testing.T) {
	in := sampleLessons()
	in[0], in[5] = in[5], in[0]
	in[2].DisplayOrder = 40

	out := Resequence(in)

	ids := make([]string, len(out))
	for i, l := range out {
		ids[i] = l.ID
		assert.Equal(t, i+1, l.DisplayOrder)
	}
	assert.Equal(t, []string{"l1", "l2", "l3", "l4", "l5", "l6"}, ids)
}

func TestCheckContiguity(t *testing.T) {
	assert.NoError(t, CheckContiguity(sampleLessons()))

	gap := sampleLessons()
	gap[4].Period = 5
	assert.ErrorIs(t, CheckContiguity(gap), ErrPeriodGap)

	dupe := sampleLessons()
	dupe[1].Period = 1
	assert.ErrorIs(t, CheckContiguity(dupe), ErrDuplicatePeriod)

	order := sampleLessons()
	order[3].DisplayOrder = 2
	assert.ErrorIs(t, CheckContiguity(order), ErrDisplayOrderConflict)

	assert.NoError(t, CheckContiguity(nil))
}

func TestSuggestReviews(t *testing.T) {
	books := map[string]domain.Book{
		"book-a": {ID: "book-a", Name: "A", DaysPerUnit: 2, ReviewEvery: 2},
		"book-b": {ID: "book-b", Name: "B", DaysPerUnit: 1},
	}

	var lessons []domain.Lesson
	c := domain.StartCursor
	date := civil.MustParse("2026-03-02")
	for i := range 8 {
		lessons = append(lessons, domain.Lesson{
			ID: string(rune('a' + i)), Date: date.AddDays(i), Period: 1, DisplayOrder: i + 1,
			BookID: "book-a", Kind: domain.LessonKindLesson, Unit: c.Unit, Day: c.Day,
		})
		c = Advance(c, books["book-a"])
	}
	// Unit 4 already has its review.
	lessons = append(lessons, domain.Lesson{
		ID: "rev", Date: date.AddDays(7), Period: 2, DisplayOrder: 9, BookID: "book-a", Kind: domain.LessonKindReview,
	})

	got := SuggestReviews(lessons, books)

	require.Len(t, got, 1)
	assert.Equal(t, ReviewSuggestion{After: 4, Date: date.AddDays(3), BookID: "book-a", BookName: "A", Unit: 2}, got[0])
}
