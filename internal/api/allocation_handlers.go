package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerAllocationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAllocations",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/allocations",
		Summary:     "List allocations",
		Description: "Returns the books allocated to an owner in priority order",
		Tags:        []string{"Allocations"},
	}, s.handleListAllocations)

	huma.Register(s.api, huma.Operation{
		OperationID:   "assignBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/owners/{id}/allocations",
		Summary:       "Assign book",
		Description:   "Allocates a book to an owner with a priority",
		Tags:          []string{"Allocations"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAssignBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMonthBudgets",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/months",
		Summary:     "Get month budgets",
		Description: "Returns requested sessions per book for consecutive months. Months without sessions are omitted.",
		Tags:        []string{"Allocations"},
	}, s.handleMonthBudgets)

	huma.Register(s.api, huma.Operation{
		OperationID: "setAllocationPriority",
		Method:      http.MethodPatch,
		Path:        "/api/v1/allocations/{id}",
		Summary:     "Set priority",
		Description: "Changes an allocation's priority",
		Tags:        []string{"Allocations"},
	}, s.handleSetPriority)

	huma.Register(s.api, huma.Operation{
		OperationID: "setAllocationMonth",
		Method:      http.MethodPut,
		Path:        "/api/v1/allocations/{id}/months",
		Summary:     "Set month sessions",
		Description: "Sets the requested sessions for one month. Zero removes the month.",
		Tags:        []string{"Allocations"},
	}, s.handleSetMonth)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/allocations/{id}",
		Summary:     "Unassign book",
		Description: "Removes an allocation with its month budgets",
		Tags:        []string{"Allocations"},
	}, s.handleUnassign)
}

// === DTOs ===

// MonthSessions is one month of an allocation's budget.
type MonthSessions struct {
	Year     int `json:"year" doc:"Calendar year"`
	Month    int `json:"month" doc:"Month 1-12"`
	Sessions int `json:"sessions" doc:"Requested sessions"`
}

// AllocationResponse contains allocation data in API responses.
type AllocationResponse struct {
	ID        string          `json:"id" doc:"Allocation ID"`
	OwnerID   string          `json:"owner_id" doc:"Owner ID"`
	BookID    string          `json:"book_id" doc:"Book ID"`
	Priority  int             `json:"priority" doc:"Lower is dealt first"`
	Position  int             `json:"position" doc:"Assignment order, breaks priority ties"`
	Months    []MonthSessions `json:"months" doc:"Requested sessions by month"`
	CreatedAt time.Time       `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time       `json:"updated_at" doc:"Last update time"`
}

func newAllocationResponse(a *domain.Allocation) AllocationResponse {
	keys := make([]domain.MonthKey, 0, len(a.Months))
	for k := range a.Months {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y domain.MonthKey) int {
		switch {
		case x.Before(y):
			return -1
		case y.Before(x):
			return 1
		}
		return 0
	})

	months := make([]MonthSessions, len(keys))
	for i, k := range keys {
		months[i] = MonthSessions{Year: k.Year, Month: int(k.Month), Sessions: a.Months[k]}
	}

	return AllocationResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		BookID:    a.BookID,
		Priority:  a.Priority,
		Position:  a.Position,
		Months:    months,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AssignBookRequest is the request body for allocating a book.
type AssignBookRequest struct {
	BookID   string `json:"book_id" minLength:"1" doc:"Book ID"`
	Priority int    `json:"priority" minimum:"1" maximum:"1000" doc:"Lower is dealt first"`
}

// AssignBookInput wraps the assign request for Huma.
type AssignBookInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body AssignBookRequest
}

// SetPriorityRequest is the request body for changing a priority.
type SetPriorityRequest struct {
	Priority int `json:"priority" doc:"Lower is dealt first"`
}

// SetPriorityInput wraps the priority request for Huma.
type SetPriorityInput struct {
	ID   string `path:"id" doc:"Allocation ID"`
	Body SetPriorityRequest
}

// SetMonthRequest is the request body for setting one month's sessions.
type SetMonthRequest struct {
	Year     int `json:"year" doc:"Calendar year"`
	Month    int `json:"month" doc:"Month 1-12"`
	Sessions int `json:"sessions" doc:"Requested sessions, 0 removes the month"`
}

// SetMonthInput wraps the month request for Huma.
type SetMonthInput struct {
	ID   string `path:"id" doc:"Allocation ID"`
	Body SetMonthRequest
}

// AllocationIDInput addresses a single allocation.
type AllocationIDInput struct {
	ID string `path:"id" doc:"Allocation ID"`
}

// AllocationOutput wraps the allocation response for Huma.
type AllocationOutput struct {
	Body AllocationResponse
}

// ListAllocationsResponse contains an owner's allocations.
type ListAllocationsResponse struct {
	Allocations []AllocationResponse `json:"allocations" doc:"Allocations in priority order"`
}

// ListAllocationsOutput wraps the list allocations response for Huma.
type ListAllocationsOutput struct {
	Body ListAllocationsResponse
}

// MonthBudgetsInput selects the months of the budget view.
type MonthBudgetsInput struct {
	ID    string `path:"id" doc:"Owner ID"`
	Year  int    `query:"year" required:"true" doc:"First year"`
	Month int    `query:"month" required:"true" doc:"First month 1-12"`
	Count int    `query:"count" default:"1" doc:"Number of months, up to 24"`
}

// MonthBudgetsResponse lists month budgets.
type MonthBudgetsResponse struct {
	Months []service.MonthBudget `json:"months" doc:"Months with requested sessions"`
}

// MonthBudgetsOutput wraps the month budgets for Huma.
type MonthBudgetsOutput struct {
	Body MonthBudgetsResponse
}

// === Handlers ===

func (s *Server) handleListAllocations(ctx context.Context, input *OwnerIDInput) (*ListAllocationsOutput, error) {
	allocs, err := s.services.Allocation.ListAllocations(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]AllocationResponse, len(allocs))
	for i, a := range allocs {
		resp[i] = newAllocationResponse(a)
	}
	return &ListAllocationsOutput{Body: ListAllocationsResponse{Allocations: resp}}, nil
}

func (s *Server) handleAssignBook(ctx context.Context, input *AssignBookInput) (*AllocationOutput, error) {
	a, err := s.services.Allocation.AssignBook(ctx, input.ID, service.AssignBookRequest{
		BookID:   input.Body.BookID,
		Priority: input.Body.Priority,
	})
	if err != nil {
		return nil, err
	}
	return &AllocationOutput{Body: newAllocationResponse(a)}, nil
}

func (s *Server) handleSetPriority(ctx context.Context, input *SetPriorityInput) (*AllocationOutput, error) {
	a, err := s.services.Allocation.SetPriority(ctx, input.ID, input.Body.Priority)
	if err != nil {
		return nil, err
	}
	return &AllocationOutput{Body: newAllocationResponse(a)}, nil
}

func (s *Server) handleSetMonth(ctx context.Context, input *SetMonthInput) (*AllocationOutput, error) {
	a, err := s.services.Allocation.SetMonth(ctx, input.ID, service.SetMonthRequest{
		Year:     input.Body.Year,
		Month:    input.Body.Month,
		Sessions: input.Body.Sessions,
	})
	if err != nil {
		return nil, err
	}
	return &AllocationOutput{Body: newAllocationResponse(a)}, nil
}

func (s *Server) handleUnassign(ctx context.Context, input *AllocationIDInput) (*MessageOutput, error) {
	if err := s.services.Allocation.Unassign(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Allocation removed"}}, nil
}

func (s *Server) handleMonthBudgets(ctx context.Context, input *MonthBudgetsInput) (*MonthBudgetsOutput, error) {
	from := domain.MonthKey{Year: input.Year, Month: time.Month(input.Month)}
	budgets, err := s.services.Allocation.MonthBudgets(ctx, input.ID, from, input.Count)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = []service.MonthBudget{}
	}
	return &MonthBudgetsOutput{Body: MonthBudgetsResponse{Months: budgets}}, nil
}
