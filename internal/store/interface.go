// Package store defines the persistence interface for the ClassDesk server.
package store

import (
	"context"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// Store defines every persistence operation the services need.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Owners
	CreateOwner(ctx context.Context, owner *domain.Owner) error
	GetOwner(ctx context.Context, id string) (*domain.Owner, error)
	ListOwners(ctx context.Context) ([]*domain.Owner, error)
	UpdateOwner(ctx context.Context, owner *domain.Owner) error
	DeleteOwner(ctx context.Context, id string) error

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id string) error

	// Allocations
	CreateAllocation(ctx context.Context, alloc *domain.Allocation) error
	GetAllocation(ctx context.Context, id string) (*domain.Allocation, error)
	ListAllocations(ctx context.Context, ownerID string) ([]*domain.Allocation, error)
	UpdateAllocationPriority(ctx context.Context, id string, priority int) error
	SetAllocationMonth(ctx context.Context, id string, month domain.MonthKey, sessions int) error
	DeleteAllocation(ctx context.Context, id string) error

	// Calendar
	CreateHoliday(ctx context.Context, h *domain.Holiday) error
	GetHoliday(ctx context.Context, id string) (*domain.Holiday, error)
	ListHolidays(ctx context.Context, r DateRange) ([]*domain.Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	CreateOverride(ctx context.Context, o *domain.CalendarOverride) error
	GetOverride(ctx context.Context, id string) (*domain.CalendarOverride, error)
	ListOverrides(ctx context.Context, r DateRange) ([]*domain.CalendarOverride, error)
	DeleteOverride(ctx context.Context, id string) error

	// Lessons
	ListLessons(ctx context.Context, ownerID string, r DateRange) ([]domain.Lesson, error)
	GetLesson(ctx context.Context, id string) (*domain.Lesson, error)
	LastLesson(ctx context.Context, ownerID string) (*domain.Lesson, error)
	ReplaceOwnerLessons(ctx context.Context, ownerID string, lessons []domain.Lesson) error
}

// DateRange is an inclusive date filter. A zero bound is open.
type DateRange struct {
	From civil.Date
	To   civil.Date
}

// Contains reports whether d lies in the range.
func (r DateRange) Contains(d civil.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}
