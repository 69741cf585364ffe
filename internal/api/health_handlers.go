package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/logger"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports the database, search index and event stream",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// probe returns a status message, or an error when the component is down.
// A nil probe means the component is not configured.
type probe func(ctx context.Context) (string, error)

func (s *Server) probes() map[string]probe {
	p := map[string]probe{"database": nil, "search": nil, "sse": nil}

	if s.store != nil {
		p["database"] = func(ctx context.Context) (string, error) {
			return "", s.store.Ping(ctx)
		}
	}
	if s.services != nil && s.services.Catalog != nil {
		p["search"] = func(context.Context) (string, error) {
			n, err := s.services.Catalog.IndexedCount()
			return fmt.Sprintf("%d books indexed", n), err
		}
	}
	if s.sseManager != nil {
		p["sse"] = func(context.Context) (string, error) {
			return clientsMessage(s.sseManager.ClientCount()), nil
		}
	}
	return p
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := HealthResponse{Status: statusHealthy, Version: Version, Components: map[string]ComponentHealth{}}

	for name, check := range s.probes() {
		c := runProbe(ctx, check)
		if c.Status == statusUnhealthy {
			logger.FromContext(ctx, s.logger).Warn("health check failed", "component", name, "message", c.Message)
		}
		out.Components[name] = c
		out.Status = worse(out.Status, c.Status)
	}
	return &HealthOutput{Body: out}, nil
}

func runProbe(ctx context.Context, check probe) ComponentHealth {
	if check == nil {
		return ComponentHealth{Status: statusDegraded, Message: "not configured"}
	}
	start := time.Now()
	msg, err := check(ctx)
	c := ComponentHealth{Status: statusHealthy, Latency: time.Since(start).String(), Message: msg}
	if err != nil {
		c.Status = statusUnhealthy
		c.Message = err.Error()
	}
	return c
}

func worse(a, b string) string {
	rank := map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func clientsMessage(n int) string {
	switch n {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	}
	return fmt.Sprintf("%d connected clients", n)
}
