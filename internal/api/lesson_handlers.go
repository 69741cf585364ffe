package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerLessonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLessons",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/lessons",
		Summary:     "List lessons",
		Description: "Returns saved lessons in display order, optionally within a date range",
		Tags:        []string{"Lessons"},
	}, s.handleListLessons)

	huma.Register(s.api, huma.Operation{
		OperationID:   "insertReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/owners/{id}/lessons/reviews",
		Summary:       "Insert review",
		Description:   "Inserts a review checkpoint after a lesson; later lessons shift by one",
		Tags:          []string{"Lessons"},
		DefaultStatus: http.StatusCreated,
	}, s.handleInsertReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/lessons/review-suggestions",
		Summary:     "Suggest reviews",
		Description: "Lists positions where a completed unit calls for a review",
		Tags:        []string{"Lessons"},
	}, s.handleSuggestReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveLesson",
		Method:      http.MethodPost,
		Path:        "/api/v1/owners/{id}/lessons/{lessonID}/move",
		Summary:     "Move lesson",
		Description: "Moves a lesson to a period of a date and renumbers the sequence",
		Tags:        []string{"Lessons"},
	}, s.handleMoveLesson)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteLesson",
		Method:      http.MethodDelete,
		Path:        "/api/v1/owners/{id}/lessons/{lessonID}",
		Summary:     "Delete lesson",
		Description: "Removes a lesson and closes the gap it leaves",
		Tags:        []string{"Lessons"},
	}, s.handleDeleteLesson)
}

// === DTOs ===

// ListLessonsInput selects an owner's lessons.
type ListLessonsInput struct {
	ID string `path:"id" doc:"Owner ID"`
	DateRangeParams
}

// ListLessonsResponse contains a list of lessons.
type ListLessonsResponse struct {
	Lessons []domain.Lesson `json:"lessons" doc:"Lessons in display order"`
}

// ListLessonsOutput wraps the list lessons response for Huma.
type ListLessonsOutput struct {
	Body ListLessonsResponse
}

// InsertReviewRequest is the request body for inserting a review.
type InsertReviewRequest struct {
	After  int    `json:"after" minimum:"0" doc:"Display order of the lesson the review follows, 0 for the start"`
	BookID string `json:"book_id,omitempty" doc:"Book under review"`
}

// InsertReviewInput wraps the review request for Huma.
type InsertReviewInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body InsertReviewRequest
}

// MoveLessonRequest is the request body for moving a lesson.
type MoveLessonRequest struct {
	Date     string `json:"date" doc:"Target date, YYYY-MM-DD"`
	Position int    `json:"position" doc:"1-based period on the target date"`
}

// MoveLessonInput wraps the move request for Huma.
type MoveLessonInput struct {
	ID       string `path:"id" doc:"Owner ID"`
	LessonID string `path:"lessonID" doc:"Lesson ID"`
	Body     MoveLessonRequest
}

// LessonIDInput addresses one of an owner's lessons.
type LessonIDInput struct {
	ID       string `path:"id" doc:"Owner ID"`
	LessonID string `path:"lessonID" doc:"Lesson ID"`
}

// LessonOutput wraps a lesson for Huma.
type LessonOutput struct {
	Body *domain.Lesson
}

// SuggestReviewsResponse lists review suggestions.
type SuggestReviewsResponse struct {
	Suggestions []planner.ReviewSuggestion `json:"suggestions" doc:"Suggested review positions"`
}

// SuggestReviewsOutput wraps suggestions for Huma.
type SuggestReviewsOutput struct {
	Body SuggestReviewsResponse
}

// === Handlers ===

func (s *Server) handleListLessons(ctx context.Context, input *ListLessonsInput) (*ListLessonsOutput, error) {
	r, err := input.dateRange()
	if err != nil {
		return nil, err
	}
	lessons, err := s.services.Lesson.ListLessons(ctx, input.ID, r)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []domain.Lesson{}
	}
	return &ListLessonsOutput{Body: ListLessonsResponse{Lessons: lessons}}, nil
}

func (s *Server) handleInsertReview(ctx context.Context, input *InsertReviewInput) (*LessonOutput, error) {
	l, err := s.services.Lesson.InsertReview(ctx, input.ID, service.InsertReviewRequest{
		After:  input.Body.After,
		BookID: input.Body.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: l}, nil
}

func (s *Server) handleSuggestReviews(ctx context.Context, input *OwnerIDInput) (*SuggestReviewsOutput, error) {
	suggestions, err := s.services.Lesson.SuggestReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SuggestReviewsOutput{Body: SuggestReviewsResponse{Suggestions: suggestions}}, nil
}

func (s *Server) handleMoveLesson(ctx context.Context, input *MoveLessonInput) (*LessonOutput, error) {
	l, err := s.services.Lesson.MoveLesson(ctx, input.ID, input.LessonID, service.MoveLessonRequest{
		Date:     input.Body.Date,
		Position: input.Body.Position,
	})
	if err != nil {
		return nil, err
	}
	return &LessonOutput{Body: l}, nil
}

func (s *Server) handleDeleteLesson(ctx context.Context, input *LessonIDInput) (*MessageOutput, error) {
	if err := s.services.Lesson.DeleteLesson(ctx, input.ID, input.LessonID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Lesson deleted"}}, nil
}
