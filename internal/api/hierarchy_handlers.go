package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

func (s *Server) registerHierarchyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getHierarchy",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy",
		Summary:     "Get grouped hierarchy",
		Description: "Returns the latest brand > type > model > variant tree",
		Tags:        []string{"Hierarchy"},
	}, s.handleGetHierarchy)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHierarchyMetadata",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy/metadata",
		Summary:     "Get hierarchy metadata",
		Description: "Returns counts and timing of the latest grouping run without the tree",
		Tags:        []string{"Hierarchy"},
	}, s.handleGetHierarchyMetadata)
}

// HierarchyOutput wraps the hierarchy tree for Huma. The tree's own
// JSON shape is the public contract, identical to the grouper's file
// output.
type HierarchyOutput struct {
	Body *domain.Hierarchy
}

// HierarchyMetadataOutput wraps the metadata for Huma.
type HierarchyMetadataOutput struct {
	Body *domain.HierarchyMetadata
}

func (s *Server) handleGetHierarchy(ctx context.Context, _ *struct{}) (*HierarchyOutput, error) {
	h, err := s.store.GetHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return &HierarchyOutput{Body: h}, nil
}

func (s *Server) handleGetHierarchyMetadata(ctx context.Context, _ *struct{}) (*HierarchyMetadataOutput, error) {
	meta, err := s.store.GetHierarchyMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return &HierarchyMetadataOutput{Body: meta}, nil
}
