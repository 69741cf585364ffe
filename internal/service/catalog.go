package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/search"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// BookRequest is the writable part of a book. Zero values fall back to the
// scheme defaults when the book is normalized.
type BookRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Scheme        string `json:"scheme,omitempty" validate:"omitempty,oneof=unit_day volume_day"`
	Kind          string `json:"kind,omitempty" validate:"omitempty,oneof=content event"`
	Granularity   string `json:"granularity,omitempty" validate:"omitempty,oneof=unit day"`
	LevelTag      string `json:"level_tag,omitempty" validate:"max=20"`
	UnitCount     int    `json:"unit_count,omitempty" validate:"gte=0,lte=1000"`
	DaysPerUnit   int    `json:"days_per_unit,omitempty" validate:"gte=0,lte=60"`
	DaysPerVolume int    `json:"days_per_volume,omitempty" validate:"gte=0,lte=60"`
	ReviewEvery   int    `json:"review_every,omitempty" validate:"gte=0,lte=100"`
}

func (r BookRequest) apply(b *domain.Book) {
	b.Name = r.Name
	b.Scheme = domain.ProgressionScheme(r.Scheme)
	b.Kind = domain.BookKind(r.Kind)
	b.Granularity = domain.Granularity(r.Granularity)
	b.LevelTag = r.LevelTag
	b.UnitCount = r.UnitCount
	b.DaysPerUnit = r.DaysPerUnit
	b.DaysPerVolume = r.DaysPerVolume
	b.ReviewEvery = r.ReviewEvery
	b.Normalize()
}

// CatalogService manages the book catalog and keeps the search index in sync.
type CatalogService struct {
	store     store.Store
	index     *search.BookIndex
	events    EventEmitter
	logger    *slog.Logger
	validator *validation.Validator
}

// NewCatalogService creates a catalog service. index may be nil, in which
// case search is unavailable.
func NewCatalogService(st store.Store, index *search.BookIndex, events EventEmitter, logger *slog.Logger) *CatalogService {
	if events == nil {
		events = NoopEmitter{}
	}
	return &CatalogService{
		store:     st,
		index:     index,
		events:    events,
		logger:    logger,
		validator: validation.New(),
	}
}

// CreateBook adds a book to the catalog.
func (s *CatalogService) CreateBook(ctx context.Context, req BookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{ID: bookID}
	req.apply(book)
	if book.Name == "" {
		return nil, domainerrors.Validation("book name cannot be empty")
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fromStore(err, "book")
	}
	s.indexBook(book)
	s.events.Emit(sse.NewBookCreatedEvent(book))

	s.logger.Info("book created", "book_id", book.ID, "name", book.Name, "scheme", book.Scheme)
	return book, nil
}

// GetBook returns a book by ID.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, fromStore(err, "book")
	}
	return book, nil
}

// ListBooks returns the whole catalog ordered by name.
func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fromStore(err, "books")
	}
	return books, nil
}

// UpdateBook replaces a book's writable fields.
//
// Saved lessons keep their structured unit and day, so a change to the
// book's structure only affects how future runs continue from them.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID string, req BookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, fromStore(err, "book")
	}
	req.apply(book)
	if book.Name == "" {
		return nil, domainerrors.Validation("book name cannot be empty")
	}
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fromStore(err, "book")
	}
	s.indexBook(book)
	s.events.Emit(sse.NewBookUpdatedEvent(book))

	s.logger.Info("book updated", "book_id", book.ID)
	return book, nil
}

// DeleteBook removes a book and every allocation of it.
func (s *CatalogService) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fromStore(err, "book")
	}
	if s.index != nil {
		if err := s.index.DeleteBook(bookID); err != nil {
			s.logger.Warn("failed to remove book from index", "book_id", bookID, "error", err)
		}
	}
	s.events.Emit(sse.NewBookDeletedEvent(bookID))

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// SearchBooks runs a catalog query against the index.
func (s *CatalogService) SearchBooks(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search index is not available")
	}
	if params.Limit <= 0 {
		params.Limit = search.DefaultParams().Limit
	}
	params.Limit = min(params.Limit, 100)
	params.Offset = max(params.Offset, 0)

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result, nil
}

// Reindex rebuilds the search index from the store.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return 0, fromStore(err, "books")
	}

	docs := make([]*search.BookDocument, len(books))
	for i, b := range books {
		docs[i] = search.BookToDocument(b)
	}
	if err := s.index.ReindexAll(docs); err != nil {
		return 0, fmt.Errorf("reindex books: %w", err)
	}

	s.logger.Info("book index rebuilt", "count", len(docs))
	return len(docs), nil
}

// IndexedCount returns the number of books in the search index.
func (s *CatalogService) IndexedCount() (uint64, error) {
	if s.index == nil {
		return 0, domainerrors.Internal("search index is not available")
	}
	return s.index.DocumentCount()
}

// indexBook updates the index. Failures are logged; the store is authoritative.
func (s *CatalogService) indexBook(book *domain.Book) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexBook(search.BookToDocument(book)); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}
