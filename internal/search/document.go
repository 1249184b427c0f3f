// Package search provides full-text product search using Bleve.
// Titles are indexed with the Spanish analyzer, model and brand names
// with the simple analyzer, so free-text queries match regardless of
// the all-caps casing Ripley uses in listings.
package search

import (
	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// ProductDocument is the flattened product form stored in the Bleve
// index. The SKU doubles as the document ID so reindexing a product
// replaces its previous entry.
type ProductDocument struct {
	SKU           string  `json:"sku"`
	Title         string  `json:"title"`
	Brand         string  `json:"brand"`
	ProductType   string  `json:"product_type"`
	BaseCategory  string  `json:"base_category"`
	BaseModel     string  `json:"base_model"`
	Size          string  `json:"size,omitempty"`
	Color         string  `json:"color,omitempty"`
	InternetPrice float64 `json:"internet_price,omitzero"`
	Confidence    float64 `json:"confidence"`
}

// ToMap converts the document to a map for indexing.
// Field names are lowercase to match the index mapping.
func (d *ProductDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"sku":           d.SKU,
		"title":         d.Title,
		"brand":         d.Brand,
		"product_type":  d.ProductType,
		"base_category": d.BaseCategory,
		"base_model":    d.BaseModel,
		"confidence":    d.Confidence,
	}

	if d.Size != "" {
		m["size"] = d.Size
	}
	if d.Color != "" {
		m["color"] = d.Color
	}
	if d.InternetPrice > 0 {
		m["internet_price"] = d.InternetPrice
	}

	return m
}

// FromProduct converts an attributed product to its search document.
func FromProduct(p *domain.AttributedProduct) *ProductDocument {
	doc := &ProductDocument{
		SKU:          p.SKU,
		Title:        p.Title,
		Brand:        p.Brand,
		ProductType:  p.ProductType,
		BaseCategory: p.BaseCategory,
		BaseModel:    p.BaseModel,
		Confidence:   p.Confidence,
	}

	if p.VariantAttributes.Size != nil {
		doc.Size = *p.VariantAttributes.Size
	}
	if p.VariantAttributes.Color != nil {
		doc.Color = *p.VariantAttributes.Color
	}
	if p.InternetPrice != nil {
		doc.InternetPrice = *p.InternetPrice
	}

	return doc
}
