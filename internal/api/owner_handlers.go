package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerOwnerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listOwners",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners",
		Summary:     "List owners",
		Description: "Returns every class and private learner",
		Tags:        []string{"Owners"},
	}, s.handleListOwners)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createOwner",
		Method:        http.MethodPost,
		Path:          "/api/v1/owners",
		Summary:       "Create owner",
		Description:   "Creates a class or private learner with its weekly schedule",
		Tags:          []string{"Owners"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateOwner)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOwner",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}",
		Summary:     "Get owner",
		Description: "Returns an owner by ID",
		Tags:        []string{"Owners"},
	}, s.handleGetOwner)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateOwner",
		Method:      http.MethodPatch,
		Path:        "/api/v1/owners/{id}",
		Summary:     "Update owner",
		Description: "Changes an owner's name or schedule. Cached previews for the owner are discarded.",
		Tags:        []string{"Owners"},
	}, s.handleUpdateOwner)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteOwner",
		Method:      http.MethodDelete,
		Path:        "/api/v1/owners/{id}",
		Summary:     "Delete owner",
		Description: "Deletes an owner with its allocations and lessons",
		Tags:        []string{"Owners"},
	}, s.handleDeleteOwner)
}

// === DTOs ===

// OwnerResponse contains owner data in API responses.
type OwnerResponse struct {
	ID          string    `json:"id" doc:"Owner ID"`
	Name        string    `json:"name" doc:"Display name"`
	Kind        string    `json:"kind" doc:"class or private"`
	Weekdays    []string  `json:"weekdays" doc:"Allowed class weekdays"`
	SlotsPerDay int       `json:"slots_per_day" doc:"Periods per class day"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

func newOwnerResponse(o *domain.Owner) OwnerResponse {
	weekdays := o.Weekdays
	if weekdays == nil {
		weekdays = []string{}
	}
	return OwnerResponse{
		ID:          o.ID,
		Name:        o.Name,
		Kind:        string(o.Kind),
		Weekdays:    weekdays,
		SlotsPerDay: o.SlotsPerDay,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// CreateOwnerRequest is the request body for creating an owner.
type CreateOwnerRequest struct {
	Name        string   `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
	Kind        string   `json:"kind" enum:"class,private" doc:"Owner kind"`
	Weekdays    []string `json:"weekdays,omitempty" doc:"Allowed class weekdays, e.g. monday"`
	SlotsPerDay int      `json:"slots_per_day,omitempty" minimum:"0" maximum:"12" doc:"Periods per class day, server default when 0"`
}

// CreateOwnerInput wraps the create owner request for Huma.
type CreateOwnerInput struct {
	Body CreateOwnerRequest
}

// UpdateOwnerRequest is the request body for updating an owner.
type UpdateOwnerRequest struct {
	Name        *string  `json:"name,omitempty" doc:"Display name"`
	Weekdays    []string `json:"weekdays,omitempty" doc:"Allowed class weekdays"`
	SlotsPerDay *int     `json:"slots_per_day,omitempty" doc:"Periods per class day"`
}

// UpdateOwnerInput wraps the update owner request for Huma.
type UpdateOwnerInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body UpdateOwnerRequest
}

// OwnerIDInput addresses a single owner.
type OwnerIDInput struct {
	ID string `path:"id" doc:"Owner ID"`
}

// OwnerOutput wraps the owner response for Huma.
type OwnerOutput struct {
	Body OwnerResponse
}

// ListOwnersResponse contains a list of owners.
type ListOwnersResponse struct {
	Owners []OwnerResponse `json:"owners" doc:"List of owners"`
}

// ListOwnersOutput wraps the list owners response for Huma.
type ListOwnersOutput struct {
	Body ListOwnersResponse
}

// === Handlers ===

func (s *Server) handleListOwners(ctx context.Context, _ *struct{}) (*ListOwnersOutput, error) {
	owners, err := s.services.Owner.ListOwners(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]OwnerResponse, len(owners))
	for i, o := range owners {
		resp[i] = newOwnerResponse(o)
	}
	return &ListOwnersOutput{Body: ListOwnersResponse{Owners: resp}}, nil
}

func (s *Server) handleCreateOwner(ctx context.Context, input *CreateOwnerInput) (*OwnerOutput, error) {
	o, err := s.services.Owner.CreateOwner(ctx, service.CreateOwnerRequest{
		Name:        input.Body.Name,
		Kind:        input.Body.Kind,
		Weekdays:    input.Body.Weekdays,
		SlotsPerDay: input.Body.SlotsPerDay,
	})
	if err != nil {
		return nil, err
	}
	return &OwnerOutput{Body: newOwnerResponse(o)}, nil
}

func (s *Server) handleGetOwner(ctx context.Context, input *OwnerIDInput) (*OwnerOutput, error) {
	o, err := s.services.Owner.GetOwner(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &OwnerOutput{Body: newOwnerResponse(o)}, nil
}

func (s *Server) handleUpdateOwner(ctx context.Context, input *UpdateOwnerInput) (*OwnerOutput, error) {
	o, err := s.services.Owner.UpdateOwner(ctx, input.ID, service.UpdateOwnerRequest{
		Name:        input.Body.Name,
		Weekdays:    input.Body.Weekdays,
		SlotsPerDay: input.Body.SlotsPerDay,
	})
	if err != nil {
		return nil, err
	}
	return &OwnerOutput{Body: newOwnerResponse(o)}, nil
}

func (s *Server) handleDeleteOwner(ctx context.Context, input *OwnerIDInput) (*MessageOutput, error) {
	if err := s.services.Owner.DeleteOwner(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Owner deleted"}}, nil
}
