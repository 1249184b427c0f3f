package domain

import "time"

// Hierarchy is the four-level grouped catalog: brand, product type,
// base model, variant. Products below the confidence threshold land in
// SpecialCategories.Ungrouped instead of the tree.
type Hierarchy struct {
	Brands            []*BrandNode      `json:"brands"`
	SpecialCategories SpecialCategories `json:"special_categories"`
	Metadata          HierarchyMetadata `json:"metadata"`
}

// SpecialCategories holds products excluded from the main tree.
type SpecialCategories struct {
	Ungrouped []UngroupedProduct `json:"ungrouped"`
}

// UngroupedProduct wraps a product that could not be grouped, with the
// reason it was excluded.
type UngroupedProduct struct {
	Reason          string            `json:"reason"`
	ConfidenceScore float64           `json:"confidence_score"`
	Product         AttributedProduct `json:"product"`
}

// HierarchyMetadata summarizes the whole tree. The builder fills the
// counts and timestamp; the pipeline adds timing afterwards, and the
// Gemini backend adds its usage figures when it ran the extraction.
type HierarchyMetadata struct {
	TotalProducts     int       `json:"total_products"`
	GroupedProducts   int       `json:"grouped_products"`
	UngroupedProducts int       `json:"ungrouped_products"`
	TotalBrands       int       `json:"total_brands"`
	TotalProductTypes int       `json:"total_product_types"`
	TotalModels       int       `json:"total_models"`
	ProcessingDate    time.Time `json:"processing_date"`

	ProcessingTimeSeconds float64 `json:"processing_time_seconds,omitzero"`
	GeminiAPICalls        int     `json:"gemini_api_calls,omitzero"`
	GeminiTokensUsed      int     `json:"gemini_tokens_used,omitzero"`
	EstimatedCostUSD      float64 `json:"estimated_cost_usd,omitzero"`
	CacheHits             int     `json:"cache_hits,omitzero"`
}

// BrandNode groups every product of one brand. ProductTypes is sorted
// by type name.
type BrandNode struct {
	BrandName    string      `json:"brand_name"`
	BrandID      string      `json:"brand_id"`
	ProductCount int         `json:"product_count"`
	ModelCount   int         `json:"model_count"`
	PriceRange   PriceRange  `json:"price_range"`
	ProductTypes []*TypeNode `json:"product_types"`
}

// TypeNode groups one product type within a brand. Models is sorted by
// base model name.
type TypeNode struct {
	TypeName     string       `json:"type_name"`
	TypeID       string       `json:"type_id"`
	ProductCount int          `json:"product_count"`
	ModelCount   int          `json:"model_count"`
	Models       []*ModelNode `json:"models"`
}

// ModelNode groups the variants of one base model. The available size
// and color lists are deduplicated and sorted.
type ModelNode struct {
	ModelID           string     `json:"model_id"` // brand-type-model slug
	BaseModel         string     `json:"base_model"`
	VariantCount      int        `json:"variant_count"`
	PriceRange        PriceRange `json:"price_range"`
	AvailableSizes    []string   `json:"available_sizes"`
	AvailableColors   []string   `json:"available_colors"`
	CommonAccessories []string   `json:"common_accessories"`
	Variants          []*Variant `json:"variants"`
}

// Variant is a concrete purchasable product inside a model node. It
// carries the full attributed record plus its derived identifier.
type Variant struct {
	AttributedProduct

	VariantID string `json:"variant_id"` // model_id plus size and color slugs
}

// PriceRange holds min, max, and rounded average per price tier. A tier
// with no non-zero prices is omitted entirely.
type PriceRange struct {
	MinNormalPrice   *float64 `json:"min_normal_price,omitempty"`
	MaxNormalPrice   *float64 `json:"max_normal_price,omitempty"`
	AvgNormalPrice   *int64   `json:"avg_normal_price,omitempty"`
	MinInternetPrice *float64 `json:"min_internet_price,omitempty"`
	MaxInternetPrice *float64 `json:"max_internet_price,omitempty"`
	AvgInternetPrice *int64   `json:"avg_internet_price,omitempty"`
	MinRipleyPrice   *float64 `json:"min_ripley_price,omitempty"`
	MaxRipleyPrice   *float64 `json:"max_ripley_price,omitempty"`
	AvgRipleyPrice   *int64   `json:"avg_ripley_price,omitempty"`
}

// IsEmpty reports whether no tier had any prices.
func (r *PriceRange) IsEmpty() bool {
	return r.MinNormalPrice == nil && r.MinInternetPrice == nil && r.MinRipleyPrice == nil
}
