package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	raise := func(status string) {
		if status == "unhealthy" {
			overall = "unhealthy"
		} else if status == "degraded" && overall == "healthy" {
			overall = "degraded"
		}
	}

	dbHealth := s.checkDatabase(ctx)
	components["database"] = dbHealth
	raise(dbHealth.Status)

	hierarchyHealth := s.checkHierarchy(ctx)
	components["hierarchy"] = hierarchyHealth
	raise(hierarchyHealth.Status)

	searchHealth := s.checkSearchIndex()
	components["search"] = searchHealth
	raise(searchHealth.Status)

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies the Badger store is accessible. A missing
// hierarchy key still proves the database answers reads.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "store not configured",
		}
	}

	start := time.Now()
	_, err := s.store.GetHierarchyMetadata(ctx)
	latency := time.Since(start)

	if err != nil && !domainerrors.Is(err, domainerrors.ErrNotFound) {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkHierarchy reports whether a grouping run has been persisted yet.
func (s *Server) checkHierarchy(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "store not configured",
		}
	}

	meta, err := s.store.GetHierarchyMetadata(ctx)
	if domainerrors.Is(err, domainerrors.ErrNotFound) {
		return ComponentHealth{
			Status:  "degraded",
			Message: "no grouping run persisted yet",
		}
	}
	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Message: "hierarchy read failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Message: meta.ProcessingDate.Format(time.RFC3339),
	}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.search == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "search index not configured",
		}
	}

	start := time.Now()
	docCount, err := s.search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	// Accessible but empty, which is normal before the first run.
	if docCount == 0 {
		return ComponentHealth{
			Status:  "degraded",
			Latency: latency.String(),
			Message: "search index empty",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}
