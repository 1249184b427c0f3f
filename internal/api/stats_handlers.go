package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get extraction stats",
		Description: "Returns extraction quality stats for the latest persisted run",
		Tags:        []string{"Stats"},
	}, s.handleGetStats)
}

// StatsResponse summarizes the latest persisted run.
type StatsResponse struct {
	Extraction        domain.ExtractionStats    `json:"extraction" doc:"Extraction quality buckets by confidence"`
	Hierarchy         *domain.HierarchyMetadata `json:"hierarchy,omitempty" doc:"Counts and timing of the latest grouping run"`
	PriceObservations int64                     `json:"price_observations,omitzero" doc:"Rows in the price history store"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	resp := StatsResponse{
		Extraction: extractor.ComputeStats(products),
	}

	meta, err := s.store.GetHierarchyMetadata(ctx)
	if err != nil && !domainerrors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	resp.Hierarchy = meta

	if s.prices != nil {
		count, err := s.prices.CountObservations(ctx)
		if err != nil {
			s.logger.Warn("price observation count failed", "error", err)
		} else {
			resp.PriceObservations = count
		}
	}

	return &StatsOutput{Body: resp}, nil
}
