package ripley

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// Page is one fetched page of catalog results.
type Page struct {
	Products     []domain.ProductRecord
	TotalPages   int
	TotalResults int
	PageSize     int
	Filtered     int // marketplace products dropped from this page
}

// FetchPage retrieves and maps one catalog page. When onlyRipley is
// set, marketplace listings are dropped and counted in Filtered.
// Product ids are left at zero; the scraper assigns them after
// deduplication.
func (c *Client) FetchPage(ctx context.Context, category string, page int, onlyRipley bool) (*Page, error) {
	if category == "" {
		return nil, wrapError("fetchPage", category, page, ErrNoCategory)
	}

	body, err := c.doRequest(ctx, category, page)
	if err != nil {
		return nil, wrapError("fetchPage", category, page, err)
	}

	var resp catalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("fetchPage", category, page, fmt.Errorf("parse response: %w", err))
	}

	result := &Page{
		Products:     make([]domain.ProductRecord, 0, len(resp.Products)),
		TotalPages:   resp.Pagination.TotalPages,
		TotalResults: resp.Pagination.TotalResults,
		PageSize:     resp.Pagination.PageSize,
	}

	scrapedAt := time.Now().Format(time.RFC3339)
	for i := range resp.Products {
		p := &resp.Products[i]
		if onlyRipley && p.IsMarketplaceProduct {
			result.Filtered++
			continue
		}
		result.Products = append(result.Products, mapProduct(p, scrapedAt))
	}

	return result, nil
}

// mapProduct converts a raw API product to a ProductRecord.
func mapProduct(p *rawProduct, scrapedAt string) domain.ProductRecord {
	return domain.ProductRecord{
		ScrapedAt:          scrapedAt,
		SKU:                p.PartNumber,
		Title:              p.Name,
		Brand:              p.Manufacturer,
		ProductURL:         p.URL,
		ImageURL:           p.FullImage,
		NormalPrice:        p.Prices.ListPrice,
		InternetPrice:      p.Prices.OfferPrice,
		RipleyPrice:        p.Prices.CardPrice,
		Currency:           "PEN",
		DiscountPercentage: p.Prices.DiscountPercentage,
		DiscountAmount:     p.Prices.Discount,
		RipleyPoints:       p.Prices.RipleyPuntos,
		IsMarketplace:      p.IsMarketplaceProduct,
		IsAvailable:        !p.IsUnavailable,
		InStock:            !p.IsOutOfStock,
	}
}
