package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search products",
		Description: "Full-text search over titles, brands, types and models",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" doc:"Max results (default 20)"`
}

// SearchHitResult is a single matching product.
type SearchHitResult struct {
	SKU           string  `json:"sku" doc:"Catalog SKU"`
	Score         float64 `json:"score" doc:"Search relevance score"`
	Title         string  `json:"title" doc:"Product title"`
	Brand         string  `json:"brand,omitempty" doc:"Extracted brand"`
	ProductType   string  `json:"product_type,omitempty" doc:"Extracted product type"`
	BaseModel     string  `json:"base_model,omitempty" doc:"Extracted base model"`
	Size          string  `json:"size,omitempty" doc:"Variant size"`
	Color         string  `json:"color,omitempty" doc:"Variant color"`
	InternetPrice float64 `json:"internet_price,omitzero" doc:"Online offer price in PEN"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  int64             `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.search == nil {
		return nil, domainerrors.Unavailable("search index not configured")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.search.Search(ctx, search.SearchParams{
		Query: input.Query,
		Limit: limit,
	})
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  input.Query,
		Total:  int64(result.Total),
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}
	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SearchHitResult{
			SKU:           hit.SKU,
			Score:         hit.Score,
			Title:         hit.Title,
			Brand:         hit.Brand,
			ProductType:   hit.ProductType,
			BaseModel:     hit.BaseModel,
			Size:          hit.Size,
			Color:         hit.Color,
			InternetPrice: hit.InternetPrice,
		})
	}

	return &SearchOutput{Body: resp}, nil
}
