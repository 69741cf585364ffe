package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/service"
)

func (s *Server) registerPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "previewPlan",
		Method:      http.MethodPost,
		Path:        "/api/v1/owners/{id}/plans/preview",
		Summary:     "Preview plan",
		Description: "Generates lessons for one or more months without saving them. The preview can be saved until it expires.",
		Tags:        []string{"Plans"},
	}, s.handlePreviewPlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPreview",
		Method:      http.MethodGet,
		Path:        "/api/v1/owners/{id}/plans/preview/{previewID}",
		Summary:     "Get preview",
		Description: "Returns a cached preview",
		Tags:        []string{"Plans"},
	}, s.handleGetPreview)

	huma.Register(s.api, huma.Operation{
		OperationID: "savePlan",
		Method:      http.MethodPost,
		Path:        "/api/v1/owners/{id}/plans",
		Summary:     "Save plan",
		Description: "Saves a preview, or generates and saves the months directly. Saved lessons inside the planned range are replaced.",
		Tags:        []string{"Plans"},
	}, s.handleSavePlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "extendPlan",
		Method:      http.MethodPost,
		Path:        "/api/v1/owners/{id}/plans/extend",
		Summary:     "Extend plan",
		Description: "Generates and saves the next sessions after the latest saved lesson",
		Tags:        []string{"Plans"},
	}, s.handleExtendPlan)
}

// === DTOs ===

// PlanRequest selects the months to generate.
type PlanRequest struct {
	Year   int `json:"year" doc:"First year"`
	Month  int `json:"month" doc:"First month 1-12"`
	Months int `json:"months,omitempty" doc:"Number of months, default 1"`
}

func (r PlanRequest) toService() service.PlanRequest {
	return service.PlanRequest{Year: r.Year, Month: r.Month, Months: r.Months}
}

// PreviewPlanInput wraps the preview request for Huma.
type PreviewPlanInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body PlanRequest
}

// PreviewOutput wraps a preview for Huma.
type PreviewOutput struct {
	Body *service.Preview
}

// GetPreviewInput addresses a cached preview.
type GetPreviewInput struct {
	ID        string `path:"id" doc:"Owner ID"`
	PreviewID string `path:"previewID" doc:"Preview ID"`
}

// SavePlanRequest saves a preview or regenerates the months.
type SavePlanRequest struct {
	Year      int    `json:"year,omitempty" doc:"First year, used without preview_id"`
	Month     int    `json:"month,omitempty" doc:"First month 1-12, used without preview_id"`
	Months    int    `json:"months,omitempty" doc:"Number of months, default 1"`
	PreviewID string `json:"preview_id,omitempty" doc:"Preview to save as shown"`
}

// SavePlanInput wraps the save request for Huma.
type SavePlanInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body SavePlanRequest
}

// ExtendPlanRequest asks for more sessions.
type ExtendPlanRequest struct {
	Count int    `json:"count" doc:"Sessions to add"`
	From  string `json:"from,omitempty" doc:"Earliest date, YYYY-MM-DD"`
}

// ExtendPlanInput wraps the extend request for Huma.
type ExtendPlanInput struct {
	ID   string `path:"id" doc:"Owner ID"`
	Body ExtendPlanRequest
}

// SaveResultOutput wraps a saved run for Huma.
type SaveResultOutput struct {
	Body *service.SaveResult
}

// === Handlers ===

func (s *Server) handlePreviewPlan(ctx context.Context, input *PreviewPlanInput) (*PreviewOutput, error) {
	p, err := s.services.Plan.Preview(ctx, input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &PreviewOutput{Body: p}, nil
}

func (s *Server) handleGetPreview(ctx context.Context, input *GetPreviewInput) (*PreviewOutput, error) {
	p, err := s.services.Plan.GetPreview(ctx, input.ID, input.PreviewID)
	if err != nil {
		return nil, err
	}
	return &PreviewOutput{Body: p}, nil
}

func (s *Server) handleSavePlan(ctx context.Context, input *SavePlanInput) (*SaveResultOutput, error) {
	res, err := s.services.Plan.Save(ctx, input.ID, service.SaveRequest{
		PlanRequest: service.PlanRequest{
			Year:   input.Body.Year,
			Month:  input.Body.Month,
			Months: input.Body.Months,
		},
		PreviewID: input.Body.PreviewID,
	})
	if err != nil {
		return nil, err
	}
	return &SaveResultOutput{Body: res}, nil
}

func (s *Server) handleExtendPlan(ctx context.Context, input *ExtendPlanInput) (*SaveResultOutput, error) {
	res, err := s.services.Plan.Extend(ctx, input.ID, service.ExtendRequest{
		Count: input.Body.Count,
		From:  input.Body.From,
	})
	if err != nil {
		return nil, err
	}
	return &SaveResultOutput{Body: res}, nil
}
