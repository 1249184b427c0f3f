// Package domain contains the core types shared across the scraper,
// extractor, hierarchy builder, and API layers.
package domain

// ProductRecord is a single product as captured from the Ripley catalog
// API. Price fields are pointers because the API omits tiers a product
// does not have: most products carry a normal and internet price, and
// roughly 70% add a Ripley card price below both.
type ProductRecord struct {
	ID         int    `json:"id"`         // position within the scrape run, 1-based
	ScrapedAt  string `json:"scraped_at"` // ISO 8601 capture timestamp
	SKU        string `json:"sku" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Brand      string `json:"brand"` // manufacturer as reported by the API, often empty
	ProductURL string `json:"product_url"`
	ImageURL   string `json:"image_url"`

	NormalPrice   *float64 `json:"normal_price"`   // list price, highest tier
	InternetPrice *float64 `json:"internet_price"` // online offer price
	RipleyPrice   *float64 `json:"ripley_price"`   // Ripley card price, lowest tier

	Currency           string   `json:"currency"` // always PEN
	DiscountPercentage *float64 `json:"discount_percentage"`
	DiscountAmount     *float64 `json:"discount_amount"`
	RipleyPoints       *float64 `json:"ripley_points"`

	IsMarketplace bool `json:"is_marketplace"`
	IsAvailable   bool `json:"is_available"`
	InStock       bool `json:"in_stock"`
}

// HasAllPrices reports whether all three price tiers are present.
func (p *ProductRecord) HasAllPrices() bool {
	return p.NormalPrice != nil && p.InternetPrice != nil && p.RipleyPrice != nil
}

// VariantAttributes are the attributes that distinguish variants of the
// same base model. Size and Color stay null when the title does not
// mention them; Accessories and Features are always arrays, never null.
type VariantAttributes struct {
	Size        *string  `json:"size"`
	Color       *string  `json:"color"`
	Accessories []string `json:"accessories"`
	Features    []string `json:"features"`
}

// AttributedProduct is a ProductRecord enriched with the structured
// attributes parsed from its title. The embedded record's Brand holds
// the canonical extracted brand; the raw title survives in both Title
// and OriginalTitle.
type AttributedProduct struct {
	ProductRecord

	OriginalTitle     string            `json:"original_title"`
	ProductType       string            `json:"product_type"`
	BaseCategory      string            `json:"base_category"`
	BaseModel         string            `json:"base_model"`
	VariantAttributes VariantAttributes `json:"variant_attributes"`
	Confidence        float64           `json:"confidence"` // 0.0 to 1.0, two decimals
}

// Confidence thresholds used when classifying extraction quality.
const (
	ConfidenceSuccessful = 0.9
	ConfidencePartial    = 0.5
)

// IsSuccessful reports whether the extraction found enough attributes
// to be trusted without review.
func (p *AttributedProduct) IsSuccessful() bool {
	return p.Confidence >= ConfidenceSuccessful
}

// IsPartial reports whether the extraction found some attributes but
// not enough for a confident grouping.
func (p *AttributedProduct) IsPartial() bool {
	return p.Confidence >= ConfidencePartial && p.Confidence < ConfidenceSuccessful
}

// ExtractedAttributes is the title-derived portion of an attributed
// product: everything an extractor adds on top of the raw record. The
// Gemini backend caches these per title hash so repeated runs skip
// titles it has already analyzed.
type ExtractedAttributes struct {
	Brand             string            `json:"brand"`
	ProductType       string            `json:"product_type"`
	BaseCategory      string            `json:"base_category"`
	BaseModel         string            `json:"base_model"`
	VariantAttributes VariantAttributes `json:"variant_attributes"`
	Confidence        float64           `json:"confidence"`
}

// Apply merges the attributes onto a raw record. Accessories and
// Features stay arrays even when the source left them null.
func (a ExtractedAttributes) Apply(rec ProductRecord) AttributedProduct {
	out := AttributedProduct{
		ProductRecord:     rec,
		OriginalTitle:     rec.Title,
		ProductType:       a.ProductType,
		BaseCategory:      a.BaseCategory,
		BaseModel:         a.BaseModel,
		VariantAttributes: a.VariantAttributes,
		Confidence:        a.Confidence,
	}
	out.Brand = a.Brand
	if out.VariantAttributes.Accessories == nil {
		out.VariantAttributes.Accessories = []string{}
	}
	if out.VariantAttributes.Features == nil {
		out.VariantAttributes.Features = []string{}
	}
	return out
}

// ExtractionStats summarizes a batch extraction run.
type ExtractionStats struct {
	TotalProcessed        int     `json:"total_processed"`
	SuccessfulExtractions int     `json:"successful_extractions"` // confidence >= 0.9
	PartialExtractions    int     `json:"partial_extractions"`    // 0.5 <= confidence < 0.9
	FailedExtractions     int     `json:"failed_extractions"`     // confidence < 0.5
	SuccessRate           float64 `json:"success_rate"`           // percentage, one decimal
}
