package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/search"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book in the catalog ordered by name",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a curriculum book or event placeholder to the catalog",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over book names and level tags",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/reindex",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the book search index from the database",
		Tags:        []string{"Books"},
	}, s.handleReindexBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Replaces a book's settings",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book and its allocations",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID            string    `json:"id" doc:"Book ID"`
	Name          string    `json:"name" doc:"Book name"`
	Scheme        string    `json:"scheme" doc:"Progression scheme: unit_day or volume_day"`
	Kind          string    `json:"kind" doc:"content or event"`
	Granularity   string    `json:"granularity" doc:"unit or day"`
	LevelTag      string    `json:"level_tag,omitempty" doc:"Short code used when rendering volumes"`
	UnitCount     int       `json:"unit_count" doc:"Units in the syllabus, 0 when open-ended"`
	DaysPerUnit   int       `json:"days_per_unit" doc:"Sessions per unit"`
	DaysPerVolume int       `json:"days_per_volume" doc:"Sessions per volume"`
	ReviewEvery   int       `json:"review_every" doc:"Suggest a review after this many units, 0 for never"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

func newBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Name:          b.Name,
		Scheme:        string(b.Scheme),
		Kind:          string(b.Kind),
		Granularity:   string(b.Granularity),
		LevelTag:      b.LevelTag,
		UnitCount:     b.UnitCount,
		DaysPerUnit:   b.DaysPerUnit,
		DaysPerVolume: b.DaysPerVolume,
		ReviewEvery:   b.ReviewEvery,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// BookRequest is the request body for creating or replacing a book.
type BookRequest struct {
	Name          string `json:"name" minLength:"1" maxLength:"200" doc:"Book name"`
	Scheme        string `json:"scheme,omitempty" enum:"unit_day,volume_day" doc:"Progression scheme, default unit_day"`
	Kind          string `json:"kind,omitempty" enum:"content,event" doc:"Book kind, default content"`
	Granularity   string `json:"granularity,omitempty" enum:"unit,day" doc:"Section size, default unit"`
	LevelTag      string `json:"level_tag,omitempty" maxLength:"20" doc:"Short code used when rendering volumes"`
	UnitCount     int    `json:"unit_count,omitempty" minimum:"0" doc:"Units in the syllabus"`
	DaysPerUnit   int    `json:"days_per_unit,omitempty" minimum:"0" doc:"Sessions per unit, 0 for the scheme default"`
	DaysPerVolume int    `json:"days_per_volume,omitempty" minimum:"0" doc:"Sessions per volume, 0 for the scheme default"`
	ReviewEvery   int    `json:"review_every,omitempty" minimum:"0" doc:"Suggest a review after this many units"`
}

func (r BookRequest) toService() service.BookRequest {
	return service.BookRequest{
		Name:          r.Name,
		Scheme:        r.Scheme,
		Kind:          r.Kind,
		Granularity:   r.Granularity,
		LevelTag:      r.LevelTag,
		UnitCount:     r.UnitCount,
		DaysPerUnit:   r.DaysPerUnit,
		DaysPerVolume: r.DaysPerVolume,
		ReviewEvery:   r.ReviewEvery,
	}
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body BookRequest
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body BookRequest
}

// BookIDInput addresses a single book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"List of books"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// SearchBooksInput contains search query parameters.
type SearchBooksInput struct {
	Query  string   `query:"q" doc:"Free text matched against name and level tag"`
	Kinds  []string `query:"kind" doc:"Filter by book kind"`
	Scheme []string `query:"scheme" doc:"Filter by progression scheme"`
	Sort   string   `query:"sort" enum:"relevance,name,recent" default:"relevance" doc:"Sort order"`
	Limit  int      `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
	Offset int      `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchBooksOutput wraps search results for Huma.
type SearchBooksOutput struct {
	Body *search.Result
}

// ReindexResponse reports how many books were indexed.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Books written to the index"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Catalog.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = newBookResponse(b)
	}
	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	b, err := s.services.Catalog.CreateBook(ctx, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: newBookResponse(b)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	b, err := s.services.Catalog.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: newBookResponse(b)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	b, err := s.services.Catalog.UpdateBook(ctx, input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: newBookResponse(b)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	result, err := s.services.Catalog.SearchBooks(ctx, search.Params{
		Query:   input.Query,
		Kinds:   input.Kinds,
		Schemes: input.Scheme,
		SortBy:  input.Sort,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: result}, nil
}

func (s *Server) handleReindexBooks(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	n, err := s.services.Catalog.Reindex(ctx)
	if err != nil {
		return nil, err
	}
	return &ReindexOutput{Body: ReindexResponse{Indexed: n}}, nil
}
