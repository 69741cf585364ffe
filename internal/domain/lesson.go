package domain

import (
	"errors"
	"fmt"

	"github.com/classdeskapp/classdesk-server/internal/civil"
)

// Cursor is a book's (unit, day) progression pointer. Both fields are 1-indexed.
type Cursor struct {
	Unit int `json:"unit"`
	Day  int `json:"day"`
}

// StartCursor is where every book begins.
var StartCursor = Cursor{Unit: 1, Day: 1}

// IsZero reports whether the cursor is unset.
func (c Cursor) IsZero() bool {
	return c.Unit == 0 && c.Day == 0
}

// LessonKind classifies a lesson record.
type LessonKind string

const (
	// LessonKindLesson is a regular book session carrying a unit and day.
	LessonKindLesson LessonKind = "lesson"
	// LessonKindEvent occupies a slot for a non-content activity.
	LessonKindEvent LessonKind = "event"
	// LessonKindReview is a manually inserted review checkpoint.
	LessonKindReview LessonKind = "review"
)

// LessonState is the lifecycle state of a lesson record.
type LessonState string

const (
	LessonPlanned   LessonState = "planned"
	LessonSaved     LessonState = "saved"
	LessonReordered LessonState = "reordered"
	LessonDeleted   LessonState = "deleted"
)

// ErrInvalidTransition is returned for a lifecycle change that is not allowed.
var ErrInvalidTransition = errors.New("invalid lesson state transition")

var lessonTransitions = map[LessonState][]LessonState{
	LessonPlanned:   {LessonSaved},
	LessonSaved:     {LessonReordered, LessonDeleted},
	LessonReordered: {LessonReordered, LessonDeleted},
}

// CanTransition reports whether a lesson in state s may move to next.
func (s LessonState) CanTransition(next LessonState) bool {
	for _, allowed := range lessonTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Lesson is one scheduled session for an owner.
//
// Unit and Day hold the structured progression used to render Content; they
// are zero for reviews and events. Period is the 1-based slot within Date.
// DisplayOrder is the owner-wide canonical sequence.
type Lesson struct {
	Timestamps
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Date           civil.Date  `json:"date"`
	Period         int         `json:"period"`
	BookID         string      `json:"book_id,omitempty"`
	BookName       string      `json:"book_name,omitempty"`
	Content        string      `json:"content"`
	Unit           int         `json:"unit,omitempty"`
	Day            int         `json:"day,omitempty"`
	Kind           LessonKind  `json:"kind"`
	State          LessonState `json:"state"`
	DisplayOrder   int         `json:"display_order"`
	BeyondSyllabus bool        `json:"beyond_syllabus,omitempty"`
	RunID          string      `json:"run_id,omitempty"`
}

// Cursor returns the progression pointer the lesson was rendered from.
func (l *Lesson) Cursor() Cursor {
	return Cursor{Unit: l.Unit, Day: l.Day}
}

// Advances reports whether this lesson moved its book's progression forward.
func (l *Lesson) Advances() bool {
	return l.Kind == LessonKindLesson && l.BookID != "" && l.Unit > 0
}

// Transition moves the lesson to next, enforcing the lifecycle.
func (l *Lesson) Transition(next LessonState) error {
	if !l.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.State, next)
	}
	l.State = next
	l.Touch()
	return nil
}

// NewReview creates a review checkpoint for an owner.
func NewReview(ownerID, bookID, bookName string) Lesson {
	content := "Review"
	if bookName != "" {
		content = bookName + " Review"
	}
	return Lesson{
		OwnerID:  ownerID,
		BookID:   bookID,
		BookName: bookName,
		Content:  content,
		Kind:     LessonKindReview,
		State:    LessonPlanned,
	}
}
