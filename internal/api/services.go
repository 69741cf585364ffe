package api

import (
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Owner      *service.OwnerService
	Catalog    *service.CatalogService
	Allocation *service.AllocationService
	Calendar   *service.CalendarService
	Plan       *service.PlanService
	Lesson     *service.LessonService
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
