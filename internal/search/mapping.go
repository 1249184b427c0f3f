package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the index mapping for product documents
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = es.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Titles are Spanish marketing copy, so they get the full Spanish
	// analyzer with stemming and stopword removal
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = es.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Brand, type, and model are proper names and vocabulary terms.
	// The simple analyzer lowercases without stemming so ROSEN stays
	// searchable as "rosen", not a stem of it.
	brandFieldMapping := bleve.NewTextFieldMapping()
	brandFieldMapping.Analyzer = simple.Name
	brandFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("brand", brandFieldMapping)

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = simple.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("product_type", typeFieldMapping)

	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = simple.Name
	categoryFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("base_category", categoryFieldMapping)

	modelFieldMapping := bleve.NewTextFieldMapping()
	modelFieldMapping.Analyzer = simple.Name
	modelFieldMapping.Store = true
	modelFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("base_model", modelFieldMapping)

	// Exact-match fields. Sizes like "1.5 PLZ" must stay whole.
	skuFieldMapping := bleve.NewTextFieldMapping()
	skuFieldMapping.Analyzer = keyword.Name
	skuFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("sku", skuFieldMapping)

	sizeFieldMapping := bleve.NewTextFieldMapping()
	sizeFieldMapping.Analyzer = keyword.Name
	sizeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("size", sizeFieldMapping)

	colorFieldMapping := bleve.NewTextFieldMapping()
	colorFieldMapping.Analyzer = keyword.Name
	colorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("color", colorFieldMapping)

	// Numeric fields
	priceFieldMapping := bleve.NewNumericFieldMapping()
	priceFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("internet_price", priceFieldMapping)

	confidenceFieldMapping := bleve.NewNumericFieldMapping()
	confidenceFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("confidence", confidenceFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
