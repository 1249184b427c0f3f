package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a product search
type SearchParams struct {
	// Query is the free-text search string
	Query string
	// Limit is the maximum number of results (default 20)
	Limit int
	// Offset for pagination
	Offset int
}

// DefaultSearchParams returns params with sensible defaults
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:  20,
		Offset: 0,
	}
}

// SearchResult holds the outcome of a search
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching product
type SearchHit struct {
	SKU           string            `json:"sku"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	Brand         string            `json:"brand,omitempty"`
	ProductType   string            `json:"product_type,omitempty"`
	BaseModel     string            `json:"base_model,omitempty"`
	Size          string            `json:"size,omitempty"`
	Color         string            `json:"color,omitempty"`
	InternetPrice float64           `json:"internet_price,omitzero"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// Search executes a full-text query against the product index
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")

	searchRequest.Fields = []string{
		"sku", "title", "brand", "product_type", "base_model",
		"size", "color", "internet_price",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			SKU:   hit.ID,
			Score: hit.Score,
		}

		if v, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = v
		}
		if v, ok := hit.Fields["brand"].(string); ok {
			searchHit.Brand = v
		}
		if v, ok := hit.Fields["product_type"].(string); ok {
			searchHit.ProductType = v
		}
		if v, ok := hit.Fields["base_model"].(string); ok {
			searchHit.BaseModel = v
		}
		if v, ok := hit.Fields["size"].(string); ok {
			searchHit.Size = v
		}
		if v, ok := hit.Fields["color"].(string); ok {
			searchHit.Color = v
		}
		if v, ok := hit.Fields["internet_price"].(float64); ok {
			searchHit.InternetPrice = v
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// An empty query string matches all documents.
func buildSearchQuery(params SearchParams) query.Query {
	if params.Query == "" {
		return bleve.NewMatchAllQuery()
	}

	queries := []query.Query{}

	// Title match carries the highest boost
	titleMatch := bleve.NewMatchQuery(params.Query)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	queries = append(queries, titleMatch)

	// Model match, so "vesubio" surfaces the whole family
	modelMatch := bleve.NewMatchQuery(params.Query)
	modelMatch.SetField("base_model")
	modelMatch.SetBoost(2.0)
	queries = append(queries, modelMatch)

	// Brand match
	brandMatch := bleve.NewMatchQuery(params.Query)
	brandMatch.SetField("brand")
	brandMatch.SetBoost(1.5)
	queries = append(queries, brandMatch)

	// Fuzzy fallback for typos. Term queries bypass analysis, so the
	// input is lowercased here to line up with the indexed terms.
	fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)
	queries = append(queries, fuzzyQuery)

	// Prefix query for partial terms (minimum 2 chars)
	if len(params.Query) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
		prefixQuery.SetField("title")
		prefixQuery.SetBoost(0.5)
		queries = append(queries, prefixQuery)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
