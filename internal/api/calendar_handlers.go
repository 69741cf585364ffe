package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerCalendarRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHolidays",
		Method:      http.MethodGet,
		Path:        "/api/v1/holidays",
		Summary:     "List holidays",
		Description: "Returns holidays overlapping the optional date range",
		Tags:        []string{"Calendar"},
	}, s.handleListHolidays)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createHoliday",
		Method:        http.MethodPost,
		Path:          "/api/v1/holidays",
		Summary:       "Create holiday",
		Description:   "Adds a holiday range, global or scoped to owners",
		Tags:          []string{"Calendar"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateHoliday)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHoliday",
		Method:      http.MethodGet,
		Path:        "/api/v1/holidays/{id}",
		Summary:     "Get holiday",
		Tags:        []string{"Calendar"},
	}, s.handleGetHoliday)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteHoliday",
		Method:      http.MethodDelete,
		Path:        "/api/v1/holidays/{id}",
		Summary:     "Delete holiday",
		Tags:        []string{"Calendar"},
	}, s.handleDeleteHoliday)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOverrides",
		Method:      http.MethodGet,
		Path:        "/api/v1/overrides",
		Summary:     "List overrides",
		Description: "Returns date overrides within the optional date range",
		Tags:        []string{"Calendar"},
	}, s.handleListOverrides)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createOverride",
		Method:        http.MethodPost,
		Path:          "/api/v1/overrides",
		Summary:       "Create override",
		Description:   "Forces a single date to no_class, makeup or school_event",
		Tags:          []string{"Calendar"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateOverride)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOverride",
		Method:      http.MethodGet,
		Path:        "/api/v1/overrides/{id}",
		Summary:     "Get override",
		Tags:        []string{"Calendar"},
	}, s.handleGetOverride)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteOverride",
		Method:      http.MethodDelete,
		Path:        "/api/v1/overrides/{id}",
		Summary:     "Delete override",
		Tags:        []string{"Calendar"},
	}, s.handleDeleteOverride)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMonthCalendar",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/calendar/{year}/{month}",
		Summary:     "Get month calendar",
		Description: "Returns the resolved class days of a month for an owner",
		Tags:        []string{"Calendar"},
	}, s.handleMonthCalendar)
}

// === DTOs ===

// HolidayResponse contains holiday data in API responses.
type HolidayResponse struct {
	ID        string    `json:"id" doc:"Holiday ID"`
	Name      string    `json:"name" doc:"Holiday name"`
	Start     string    `json:"start" doc:"First day, YYYY-MM-DD"`
	End       string    `json:"end" doc:"Last day, YYYY-MM-DD"`
	OwnerIDs  []string  `json:"owner_ids" doc:"Owners the holiday applies to, empty for everyone"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

func newHolidayResponse(h *domain.Holiday) HolidayResponse {
	owners := h.OwnerIDs
	if owners == nil {
		owners = []string{}
	}
	return HolidayResponse{
		ID:        h.ID,
		Name:      h.Name,
		Start:     h.Start.String(),
		End:       h.End.String(),
		OwnerIDs:  owners,
		CreatedAt: h.CreatedAt,
	}
}

// CreateHolidayRequest is the request body for creating a holiday.
type CreateHolidayRequest struct {
	Name     string   `json:"name" minLength:"1" maxLength:"200" doc:"Holiday name"`
	Start    string   `json:"start" doc:"First day, YYYY-MM-DD"`
	End      string   `json:"end" doc:"Last day, YYYY-MM-DD"`
	OwnerIDs []string `json:"owner_ids,omitempty" doc:"Scope to these owners; omit for a global holiday"`
}

// CreateHolidayInput wraps the create holiday request for Huma.
type CreateHolidayInput struct {
	Body CreateHolidayRequest
}

// HolidayIDInput addresses a single holiday.
type HolidayIDInput struct {
	ID string `path:"id" doc:"Holiday ID"`
}

// HolidayOutput wraps the holiday response for Huma.
type HolidayOutput struct {
	Body HolidayResponse
}

// ListHolidaysInput filters holidays by date.
type ListHolidaysInput struct {
	DateRangeParams
}

// ListHolidaysResponse contains a list of holidays.
type ListHolidaysResponse struct {
	Holidays []HolidayResponse `json:"holidays" doc:"List of holidays"`
}

// ListHolidaysOutput wraps the list holidays response for Huma.
type ListHolidaysOutput struct {
	Body ListHolidaysResponse
}

// OverrideResponse contains override data in API responses.
type OverrideResponse struct {
	ID           string    `json:"id" doc:"Override ID"`
	Date         string    `json:"date" doc:"Date, YYYY-MM-DD"`
	Kind         string    `json:"kind" doc:"no_class, makeup or school_event"`
	SessionCount int       `json:"session_count,omitempty" doc:"Slots a school event takes"`
	Label        string    `json:"label,omitempty" doc:"Shown on event placeholders"`
	OwnerID      string    `json:"owner_id,omitempty" doc:"Owner scope, empty for global"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
}

func newOverrideResponse(o *domain.CalendarOverride) OverrideResponse {
	return OverrideResponse{
		ID:           o.ID,
		Date:         o.Date.String(),
		Kind:         string(o.Kind),
		SessionCount: o.SessionCount,
		Label:        o.Label,
		OwnerID:      o.OwnerID,
		CreatedAt:    o.CreatedAt,
	}
}

// CreateOverrideRequest is the request body for creating an override.
type CreateOverrideRequest struct {
	Date         string `json:"date" doc:"Date, YYYY-MM-DD"`
	Kind         string `json:"kind" enum:"no_class,makeup,school_event" doc:"Override kind"`
	SessionCount int    `json:"session_count,omitempty" doc:"Slots a school event takes, default 1"`
	Label        string `json:"label,omitempty" doc:"Shown on event placeholders"`
	OwnerID      string `json:"owner_id,omitempty" doc:"Scope to one owner; omit for a global override"`
}

// CreateOverrideInput wraps the create override request for Huma.
type CreateOverrideInput struct {
	Body CreateOverrideRequest
}

// OverrideIDInput addresses a single override.
type OverrideIDInput struct {
	ID string `path:"id" doc:"Override ID"`
}

// OverrideOutput wraps the override response for Huma.
type OverrideOutput struct {
	Body OverrideResponse
}

// ListOverridesInput filters overrides by date.
type ListOverridesInput struct {
	DateRangeParams
}

// ListOverridesResponse contains a list of overrides.
type ListOverridesResponse struct {
	Overrides []OverrideResponse `json:"overrides" doc:"List of overrides"`
}

// ListOverridesOutput wraps the list overrides response for Huma.
type ListOverridesOutput struct {
	Body ListOverridesResponse
}

// MonthCalendarInput selects an owner's month.
type MonthCalendarInput struct {
	ID    string `path:"id" doc:"Owner ID"`
	Year  int    `path:"year" doc:"Calendar year"`
	Month int    `path:"month" minimum:"1" maximum:"12" doc:"Month 1-12"`
}

// MonthCalendarOutput wraps the resolved month for Huma.
type MonthCalendarOutput struct {
	Body *service.MonthCalendar
}

// === Handlers ===

func (s *Server) handleListHolidays(ctx context.Context, input *ListHolidaysInput) (*ListHolidaysOutput, error) {
	r, err := input.dateRange()
	if err != nil {
		return nil, err
	}
	holidays, err := s.services.Calendar.ListHolidays(ctx, r)
	if err != nil {
		return nil, err
	}

	resp := make([]HolidayResponse, len(holidays))
	for i, h := range holidays {
		resp[i] = newHolidayResponse(h)
	}
	return &ListHolidaysOutput{Body: ListHolidaysResponse{Holidays: resp}}, nil
}

func (s *Server) handleCreateHoliday(ctx context.Context, input *CreateHolidayInput) (*HolidayOutput, error) {
	h, err := s.services.Calendar.CreateHoliday(ctx, service.CreateHolidayRequest{
		Name:     input.Body.Name,
		Start:    input.Body.Start,
		End:      input.Body.End,
		OwnerIDs: input.Body.OwnerIDs,
	})
	if err != nil {
		return nil, err
	}
	return &HolidayOutput{Body: newHolidayResponse(h)}, nil
}

func (s *Server) handleGetHoliday(ctx context.Context, input *HolidayIDInput) (*HolidayOutput, error) {
	h, err := s.services.Calendar.GetHoliday(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &HolidayOutput{Body: newHolidayResponse(h)}, nil
}

func (s *Server) handleDeleteHoliday(ctx context.Context, input *HolidayIDInput) (*MessageOutput, error) {
	if err := s.services.Calendar.DeleteHoliday(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Holiday deleted"}}, nil
}

func (s *Server) handleListOverrides(ctx context.Context, input *ListOverridesInput) (*ListOverridesOutput, error) {
	r, err := input.dateRange()
	if err != nil {
		return nil, err
	}
	overrides, err := s.services.Calendar.ListOverrides(ctx, r)
	if err != nil {
		return nil, err
	}

	resp := make([]OverrideResponse, len(overrides))
	for i, o := range overrides {
		resp[i] = newOverrideResponse(o)
	}
	return &ListOverridesOutput{Body: ListOverridesResponse{Overrides: resp}}, nil
}

func (s *Server) handleCreateOverride(ctx context.Context, input *CreateOverrideInput) (*OverrideOutput, error) {
	o, err := s.services.Calendar.CreateOverride(ctx, service.CreateOverrideRequest{
		Date:         input.Body.Date,
		Kind:         input.Body.Kind,
		SessionCount: input.Body.SessionCount,
		Label:        input.Body.Label,
		OwnerID:      input.Body.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	return &OverrideOutput{Body: newOverrideResponse(o)}, nil
}

func (s *Server) handleGetOverride(ctx context.Context, input *OverrideIDInput) (*OverrideOutput, error) {
	o, err := s.services.Calendar.GetOverride(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &OverrideOutput{Body: newOverrideResponse(o)}, nil
}

func (s *Server) handleDeleteOverride(ctx context.Context, input *OverrideIDInput) (*MessageOutput, error) {
	if err := s.services.Calendar.DeleteOverride(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Override deleted"}}, nil
}

func (s *Server) handleMonthCalendar(ctx context.Context, input *MonthCalendarInput) (*MonthCalendarOutput, error) {
	cal, err := s.services.Calendar.ResolveMonth(ctx, input.ID, input.Year, time.Month(input.Month))
	if err != nil {
		return nil, err
	}
	return &MonthCalendarOutput{Body: cal}, nil
}
