package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// AssignBookRequest allocates a book to an owner.
type AssignBookRequest struct {
	BookID   string `json:"book_id" validate:"required"`
	Priority int    `json:"priority" validate:"required,gte=1,lte=1000"`
}

// SetMonthRequest sets an allocation's requested sessions for one month.
// Zero sessions removes the month.
type SetMonthRequest struct {
	Year     int `json:"year" validate:"gte=2000,lte=2100"`
	Month    int `json:"month" validate:"gte=1,lte=12"`
	Sessions int `json:"sessions" validate:"gte=0,lte=500"`
}

// MonthBudget is the allocation view of one month: the books with a
// positive session count in it and their total.
type MonthBudget struct {
	Year        int                      `json:"year"`
	Month       time.Month               `json:"month"`
	Allocations []domain.MonthAllocation `json:"allocations"`
	Requested   int                      `json:"requested"`
}

// AllocationService manages which books an owner studies and how much.
type AllocationService struct {
	store     store.Store
	previews  *PreviewCache
	logger    *slog.Logger
	validator *validation.Validator
}

// NewAllocationService creates an allocation service.
func NewAllocationService(st store.Store, previews *PreviewCache, logger *slog.Logger) *AllocationService {
	return &AllocationService{
		store:     st,
		previews:  previews,
		logger:    logger,
		validator: validation.New(),
	}
}

// AssignBook allocates a book to an owner at the given priority.
func (s *AllocationService) AssignBook(ctx context.Context, ownerID string, req AssignBookRequest) (*domain.Allocation, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
		return nil, fromStore(err, "owner")
	}
	if _, err := s.store.GetBook(ctx, req.BookID); err != nil {
		return nil, fromStore(err, "book")
	}

	allocID, err := id.Generate(id.PrefixAllocation)
	if err != nil {
		return nil, fmt.Errorf("generate allocation ID: %w", err)
	}

	alloc := &domain.Allocation{
		ID:       allocID,
		OwnerID:  ownerID,
		BookID:   req.BookID,
		Priority: req.Priority,
		Months:   map[domain.MonthKey]int{},
	}
	alloc.InitTimestamps()

	if err := s.store.CreateAllocation(ctx, alloc); err != nil {
		return nil, fromStore(err, "allocation")
	}
	s.discardPreviews(ctx, ownerID)

	s.logger.Info("book allocated",
		"allocation_id", alloc.ID,
		"owner_id", ownerID,
		"book_id", req.BookID,
		"priority", req.Priority,
	)
	return alloc, nil
}

// ListAllocations returns an owner's allocations in priority order.
func (s *AllocationService) ListAllocations(ctx context.Context, ownerID string) ([]*domain.Allocation, error) {
	if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
		return nil, fromStore(err, "owner")
	}
	allocs, err := s.store.ListAllocations(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "allocations")
	}
	return allocs, nil
}

// SetPriority changes an allocation's priority.
func (s *AllocationService) SetPriority(ctx context.Context, allocationID string, priority int) (*domain.Allocation, error) {
	if priority < 1 || priority > 1000 {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"priority": "must be between 1 and 1000",
		})
	}
	if err := s.store.UpdateAllocationPriority(ctx, allocationID, priority); err != nil {
		return nil, fromStore(err, "allocation")
	}
	return s.reload(ctx, allocationID)
}

// SetMonth sets the requested session count of one month.
func (s *AllocationService) SetMonth(ctx context.Context, allocationID string, req SetMonthRequest) (*domain.Allocation, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	key := domain.MonthKey{Year: req.Year, Month: time.Month(req.Month)}
	if err := s.store.SetAllocationMonth(ctx, allocationID, key, req.Sessions); err != nil {
		return nil, fromStore(err, "allocation")
	}

	alloc, err := s.reload(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("allocation month set",
		"allocation_id", allocationID,
		"month", key.String(),
		"sessions", req.Sessions,
	)
	return alloc, nil
}

// Unassign removes an allocation with all of its month budgets.
func (s *AllocationService) Unassign(ctx context.Context, allocationID string) error {
	alloc, err := s.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return fromStore(err, "allocation")
	}
	if err := s.store.DeleteAllocation(ctx, allocationID); err != nil {
		return fromStore(err, "allocation")
	}
	s.discardPreviews(ctx, alloc.OwnerID)

	s.logger.Info("book unallocated", "allocation_id", allocationID, "owner_id", alloc.OwnerID)
	return nil
}

// MonthBudgets returns the allocation view for n months starting at from.
// Months without any positive session count are left out.
func (s *AllocationService) MonthBudgets(ctx context.Context, ownerID string, from domain.MonthKey, n int) ([]MonthBudget, error) {
	if !from.Valid() {
		return nil, domainerrors.Validationf("invalid month %s", from)
	}
	if n < 1 || n > 24 {
		return nil, domainerrors.Validation("months must be between 1 and 24")
	}

	allocs, err := s.ListAllocations(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []MonthBudget
	for k, i := from, 0; i < n; k, i = k.Next(), i+1 {
		ma := monthAllocations(allocs, k)
		if len(ma) == 0 {
			continue
		}
		total := 0
		for _, a := range ma {
			total += a.Sessions
		}
		out = append(out, MonthBudget{Year: k.Year, Month: k.Month, Allocations: ma, Requested: total})
	}
	return out, nil
}

func (s *AllocationService) reload(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	alloc, err := s.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, fromStore(err, "allocation")
	}
	s.discardPreviews(ctx, alloc.OwnerID)
	return alloc, nil
}

func (s *AllocationService) discardPreviews(ctx context.Context, ownerID string) {
	if s.previews == nil {
		return
	}
	if _, err := s.previews.DeletePrefix(ctx, previewPrefix(ownerID)); err != nil {
		s.logger.Warn("failed to discard previews", "owner_id", ownerID, "error", err)
	}
}

// monthAllocations projects allocations onto one month, keeping those with
// a positive requested count. Input order is preserved.
func monthAllocations(allocs []*domain.Allocation, k domain.MonthKey) []domain.MonthAllocation {
	var out []domain.MonthAllocation
	for _, a := range allocs {
		sessions := a.SessionsFor(k)
		if sessions <= 0 {
			continue
		}
		out = append(out, domain.MonthAllocation{
			BookID:   a.BookID,
			Priority: a.Priority,
			Position: a.Position,
			Sessions: sessions,
		})
	}
	return out
}

// fillAllocations projects every allocation for a fill month, ignoring counts.
func fillAllocations(allocs []*domain.Allocation) []domain.MonthAllocation {
	out := make([]domain.MonthAllocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, domain.MonthAllocation{
			BookID:   a.BookID,
			Priority: a.Priority,
			Position: a.Position,
			Sessions: 1,
		})
	}
	return out
}
