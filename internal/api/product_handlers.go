package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

func (s *Server) registerProductRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProduct",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{sku}",
		Summary:     "Get product",
		Description: "Returns a single attributed product by SKU",
		Tags:        []string{"Products"},
	}, s.handleGetProduct)
}

// GetProductInput identifies a product by its catalog SKU.
type GetProductInput struct {
	SKU string `path:"sku" maxLength:"64" doc:"Catalog SKU, e.g. 2004297153583P"`
}

// ProductOutput wraps an attributed product for Huma.
type ProductOutput struct {
	Body *domain.AttributedProduct
}

func (s *Server) handleGetProduct(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	product, err := s.store.GetProduct(ctx, input.SKU)
	if err != nil {
		return nil, err
	}
	return &ProductOutput{Body: product}, nil
}
