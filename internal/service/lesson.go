package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// InsertReviewRequest places a review checkpoint after the lesson at display
// order After. After 0 inserts before the first lesson.
type InsertReviewRequest struct {
	After  int    `json:"after" validate:"gte=0"`
	BookID string `json:"book_id,omitempty"`
}

// MoveLessonRequest relocates a lesson to a period of a date.
type MoveLessonRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	Position int    `json:"position" validate:"required,gte=1"`
}

// LessonService applies manual adjustments to saved plans.
type LessonService struct {
	store     store.Store
	events    EventEmitter
	logger    *slog.Logger
	validator *validation.Validator
	locks     *ownerLocks
}

// NewLessonService creates a lesson service. When plans is set, its per-owner
// locks are shared so adjustments never interleave with a plan run.
func NewLessonService(st store.Store, plans *PlanService, events EventEmitter, logger *slog.Logger) *LessonService {
	if events == nil {
		events = NoopEmitter{}
	}
	locks := newOwnerLocks()
	if plans != nil {
		locks = plans.locks
	}
	return &LessonService{
		store:     st,
		events:    events,
		logger:    logger,
		validator: validation.New(),
		locks:     locks,
	}
}

// ListLessons returns an owner's lessons in canonical order.
func (s *LessonService) ListLessons(ctx context.Context, ownerID string, r store.DateRange) ([]domain.Lesson, error) {
	if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
		return nil, fromStore(err, "owner")
	}
	lessons, err := s.store.ListLessons(ctx, ownerID, r)
	if err != nil {
		return nil, fromStore(err, "lessons")
	}
	return lessons, nil
}

// InsertReview adds a review checkpoint to a saved plan.
func (s *LessonService) InsertReview(ctx context.Context, ownerID string, req InsertReviewRequest) (*domain.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(ownerID)
	defer unlock()

	lessons, err := s.ListLessons(ctx, ownerID, store.DateRange{})
	if err != nil {
		return nil, err
	}

	var bookName string
	if req.BookID != "" {
		book, err := s.store.GetBook(ctx, req.BookID)
		if err != nil {
			return nil, fromStore(err, "book")
		}
		bookName = book.Name
	}

	review := domain.NewReview(ownerID, req.BookID, bookName)
	if review.ID, err = id.Generate(id.PrefixLesson); err != nil {
		return nil, fmt.Errorf("generate lesson ID: %w", err)
	}
	review.InitTimestamps()
	if err := review.Transition(domain.LessonSaved); err != nil {
		return nil, domainerrors.InvalidTransitionf("review: %v", err)
	}

	updated, inserted, err := planner.InsertReview(lessons, req.After, review)
	if err != nil {
		return nil, fromPlanner(err)
	}
	if err := s.store.ReplaceOwnerLessons(ctx, ownerID, updated); err != nil {
		return nil, fromStore(err, "lessons")
	}

	s.events.Emit(sse.NewReviewInsertedEvent(inserted))
	s.logger.Info("review inserted",
		"owner_id", ownerID,
		"lesson_id", inserted.ID,
		"date", inserted.Date.String(),
		"period", inserted.Period,
		"display_order", inserted.DisplayOrder,
	)
	return &inserted, nil
}

// MoveLesson relocates a lesson and marks it reordered.
func (s *LessonService) MoveLesson(ctx context.Context, ownerID, lessonID string, req MoveLessonRequest) (*domain.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	toDate, _ := civil.Parse(req.Date)

	unlock := s.locks.lock(ownerID)
	defer unlock()

	lessons, err := s.ownerLessonsWith(ctx, ownerID, lessonID)
	if err != nil {
		return nil, err
	}

	updated, err := planner.Move(lessons, lessonID, toDate, req.Position)
	if err != nil {
		return nil, fromPlanner(err)
	}

	idx := slices.IndexFunc(updated, func(l domain.Lesson) bool { return l.ID == lessonID })
	moved := &updated[idx]
	if err := moved.Transition(domain.LessonReordered); err != nil {
		return nil, domainerrors.InvalidTransitionf("lesson %s: %v", lessonID, err)
	}

	if err := s.store.ReplaceOwnerLessons(ctx, ownerID, updated); err != nil {
		return nil, fromStore(err, "lessons")
	}

	result := *moved
	s.events.Emit(sse.NewLessonMovedEvent(result))
	s.logger.Info("lesson moved",
		"owner_id", ownerID,
		"lesson_id", lessonID,
		"date", result.Date.String(),
		"period", result.Period,
	)
	return &result, nil
}

// DeleteLesson removes a lesson and closes the gap it leaves.
func (s *LessonService) DeleteLesson(ctx context.Context, ownerID, lessonID string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	lessons, err := s.ownerLessonsWith(ctx, ownerID, lessonID)
	if err != nil {
		return err
	}

	updated, removed, err := planner.Remove(lessons, lessonID)
	if err != nil {
		return fromPlanner(err)
	}
	if err := removed.Transition(domain.LessonDeleted); err != nil {
		return domainerrors.InvalidTransitionf("lesson %s: %v", lessonID, err)
	}

	if err := s.store.ReplaceOwnerLessons(ctx, ownerID, updated); err != nil {
		return fromStore(err, "lessons")
	}

	s.events.Emit(sse.NewLessonDeletedEvent(ownerID, lessonID))
	s.logger.Info("lesson deleted", "owner_id", ownerID, "lesson_id", lessonID, "date", removed.Date.String())
	return nil
}

// SuggestReviews lists positions in the owner's plan where a review would
// follow a book's review cadence.
func (s *LessonService) SuggestReviews(ctx context.Context, ownerID string) ([]planner.ReviewSuggestion, error) {
	lessons, err := s.ListLessons(ctx, ownerID, store.DateRange{})
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, l := range lessons {
		if l.BookID != "" && !slices.Contains(ids, l.BookID) {
			ids = append(ids, l.BookID)
		}
	}
	list, err := s.store.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fromStore(err, "books")
	}
	books := make(map[string]domain.Book, len(list))
	for _, b := range list {
		books[b.ID] = *b
	}

	suggestions := planner.SuggestReviews(lessons, books)
	if suggestions == nil {
		suggestions = []planner.ReviewSuggestion{}
	}
	return suggestions, nil
}

// ownerLessonsWith loads an owner's lessons after checking that lessonID is one of them.
func (s *LessonService) ownerLessonsWith(ctx context.Context, ownerID, lessonID string) ([]domain.Lesson, error) {
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, fromStore(err, "lesson")
	}
	if lesson.OwnerID != ownerID {
		return nil, domainerrors.NotFound("lesson not found")
	}
	return s.ListLessons(ctx, ownerID, store.DateRange{})
}
