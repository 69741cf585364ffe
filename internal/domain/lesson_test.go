package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonState_Transitions(t *testing.T) {
	tests := []struct {
		from, to LessonState
		ok       bool
	}{
		{LessonPlanned, LessonSaved, true},
		{LessonSaved, LessonReordered, true},
		{LessonReordered, LessonReordered, true},
		{LessonSaved, LessonDeleted, true},
		{LessonReordered, LessonDeleted, true},
		{LessonPlanned, LessonReordered, false},
		{LessonPlanned, LessonDeleted, false},
		{LessonDeleted, LessonSaved, false},
		{LessonDeleted, LessonReordered, false},
		{LessonSaved, LessonPlanned, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestLesson_Transition_RejectsResurrection(t *testing.T) {
	l := &Lesson{ID: "les-1", State: LessonSaved}

	require.NoError(t, l.Transition(LessonDeleted))
	err := l.Transition(LessonSaved)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, LessonDeleted, l.State)
}

func TestNewReview(t *testing.T) {
	r := NewReview("own-1", "book-1", "Phonics")

	assert.Equal(t, LessonKindReview, r.Kind)
	assert.Equal(t, "Phonics Review", r.Content)
	assert.Zero(t, r.Unit)
	assert.False(t, r.Advances())

	bare := NewReview("own-1", "", "")
	assert.Equal(t, "Review", bare.Content)
}
