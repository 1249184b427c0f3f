// Package hierarchy groups attributed products into the four-level
// catalog tree (brand, product type, base model, variant) and derives
// the per-node price statistics served by the API.
package hierarchy

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/slug"
)

// DefaultConfidenceThreshold separates grouped products from the
// ungrouped bucket when no threshold is configured.
const DefaultConfidenceThreshold = 0.7

// Builder assembles a Hierarchy from a batch of attributed products.
// Sibling nodes are ordered by name, so two runs over the same input
// produce byte-identical trees regardless of input order.
type Builder struct {
	logger    *slog.Logger
	threshold float64
}

// NewBuilder returns a Builder that groups products whose confidence
// is at least threshold. Products below it are kept, but in the
// ungrouped bucket instead of the tree.
func NewBuilder(logger *slog.Logger, threshold float64) *Builder {
	return &Builder{logger: logger, threshold: threshold}
}

// Build partitions products by confidence and assembles the tree.
// Input order is irrelevant except for variant ordering inside each
// model node, which preserves encounter order.
func (b *Builder) Build(products []domain.AttributedProduct) *domain.Hierarchy {
	grouped, ungrouped := b.partition(products)

	b.logger.Info("building hierarchy",
		"products", len(products),
		"grouped", len(grouped),
		"ungrouped", len(ungrouped))

	byBrand := groupBy(grouped, func(p domain.AttributedProduct) string { return p.Brand })

	brands := make([]*domain.BrandNode, 0, len(byBrand))
	for _, name := range slices.Sorted(maps.Keys(byBrand)) {
		brands = append(brands, buildBrandNode(name, byBrand[name]))
	}

	h := &domain.Hierarchy{
		Brands:            brands,
		SpecialCategories: domain.SpecialCategories{Ungrouped: ungrouped},
		Metadata:          buildMetadata(len(grouped), len(ungrouped), brands),
	}

	b.logger.Info("hierarchy built",
		"brands", h.Metadata.TotalBrands,
		"types", h.Metadata.TotalProductTypes,
		"models", h.Metadata.TotalModels)

	return h
}

func (b *Builder) partition(products []domain.AttributedProduct) ([]domain.AttributedProduct, []domain.UngroupedProduct) {
	grouped := make([]domain.AttributedProduct, 0, len(products))
	ungrouped := make([]domain.UngroupedProduct, 0)

	for _, p := range products {
		if p.Confidence >= b.threshold {
			grouped = append(grouped, p)
			continue
		}
		ungrouped = append(ungrouped, domain.UngroupedProduct{
			Reason:          fmt.Sprintf("Low confidence (%.2f)", p.Confidence),
			ConfidenceScore: p.Confidence,
			Product:         p,
		})
	}

	return grouped, ungrouped
}

func buildBrandNode(name string, products []domain.AttributedProduct) *domain.BrandNode {
	brandID := slug.Make(name)

	byType := groupBy(products, func(p domain.AttributedProduct) string { return p.ProductType })

	types := make([]*domain.TypeNode, 0, len(byType))
	modelCount := 0
	for _, typeName := range slices.Sorted(maps.Keys(byType)) {
		node := buildTypeNode(brandID, typeName, byType[typeName])
		types = append(types, node)
		modelCount += len(node.Models)
	}

	return &domain.BrandNode{
		BrandName:    name,
		BrandID:      brandID,
		ProductCount: len(products),
		ModelCount:   modelCount,
		PriceRange:   buildPriceRange(products),
		ProductTypes: types,
	}
}

func buildTypeNode(brandID, typeName string, products []domain.AttributedProduct) *domain.TypeNode {
	typeID := slug.Make(typeName)

	byModel := groupBy(products, func(p domain.AttributedProduct) string { return p.BaseModel })

	models := make([]*domain.ModelNode, 0, len(byModel))
	for _, modelName := range slices.Sorted(maps.Keys(byModel)) {
		models = append(models, buildModelNode(brandID, typeID, modelName, byModel[modelName]))
	}

	return &domain.TypeNode{
		TypeName:     typeName,
		TypeID:       typeID,
		ProductCount: len(products),
		ModelCount:   len(models),
		Models:       models,
	}
}

func buildModelNode(brandID, typeID, modelName string, products []domain.AttributedProduct) *domain.ModelNode {
	modelID := fmt.Sprintf("%s-%s-%s", brandID, typeID, slug.Make(modelName))

	variants := make([]*domain.Variant, 0, len(products))
	for _, p := range products {
		variants = append(variants, buildVariant(modelID, p))
	}

	return &domain.ModelNode{
		ModelID:           modelID,
		BaseModel:         modelName,
		VariantCount:      len(variants),
		PriceRange:        buildPriceRange(products),
		AvailableSizes:    uniqueAttribute(products, func(a domain.VariantAttributes) *string { return a.Size }),
		AvailableColors:   uniqueAttribute(products, func(a domain.VariantAttributes) *string { return a.Color }),
		CommonAccessories: unionAccessories(products),
		Variants:          variants,
	}
}

// buildVariant derives the variant id from the model id plus whatever
// size and color the product carries.
func buildVariant(modelID string, product domain.AttributedProduct) *domain.Variant {
	id := modelID
	if size := product.VariantAttributes.Size; size != nil && *size != "" {
		id += "-" + slug.Make(*size)
	}
	if color := product.VariantAttributes.Color; color != nil && *color != "" {
		id += "-" + slug.Make(*color)
	}

	return &domain.Variant{AttributedProduct: product, VariantID: id}
}

func buildPriceRange(products []domain.AttributedProduct) domain.PriceRange {
	var r domain.PriceRange
	r.MinNormalPrice, r.MaxNormalPrice, r.AvgNormalPrice = priceStats(products,
		func(p *domain.AttributedProduct) *float64 { return p.NormalPrice })
	r.MinInternetPrice, r.MaxInternetPrice, r.AvgInternetPrice = priceStats(products,
		func(p *domain.AttributedProduct) *float64 { return p.InternetPrice })
	r.MinRipleyPrice, r.MaxRipleyPrice, r.AvgRipleyPrice = priceStats(products,
		func(p *domain.AttributedProduct) *float64 { return p.RipleyPrice })
	return r
}

// priceStats returns min, max, and rounded average over the prices of
// one tier, skipping products where the tier is absent or zero. All
// three results are nil when no product in scope has the tier.
func priceStats(products []domain.AttributedProduct, tier func(*domain.AttributedProduct) *float64) (*float64, *float64, *int64) {
	prices := make([]float64, 0, len(products))
	for i := range products {
		if v := tier(&products[i]); v != nil && *v != 0 {
			prices = append(prices, *v)
		}
	}
	if len(prices) == 0 {
		return nil, nil, nil
	}

	lo, hi := prices[0], prices[0]
	sum := 0.0
	for _, v := range prices {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += v
	}
	avg := int64(math.Round(sum / float64(len(prices))))

	return &lo, &hi, &avg
}

func uniqueAttribute(products []domain.AttributedProduct, attr func(domain.VariantAttributes) *string) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		if v := attr(p.VariantAttributes); v != nil && *v != "" {
			seen[*v] = struct{}{}
		}
	}
	return sortedValues(seen)
}

func unionAccessories(products []domain.AttributedProduct) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		for _, a := range p.VariantAttributes.Accessories {
			seen[a] = struct{}{}
		}
	}
	return sortedValues(seen)
}

func sortedValues(seen map[string]struct{}) []string {
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

func buildMetadata(grouped, ungrouped int, brands []*domain.BrandNode) domain.HierarchyMetadata {
	totalModels, totalTypes := 0, 0
	for _, b := range brands {
		totalModels += b.ModelCount
		totalTypes += len(b.ProductTypes)
	}

	return domain.HierarchyMetadata{
		TotalProducts:     grouped + ungrouped,
		GroupedProducts:   grouped,
		UngroupedProducts: ungrouped,
		TotalBrands:       len(brands),
		TotalProductTypes: totalTypes,
		TotalModels:       totalModels,
		ProcessingDate:    time.Now(),
	}
}

func groupBy(products []domain.AttributedProduct, key func(domain.AttributedProduct) string) map[string][]domain.AttributedProduct {
	groups := make(map[string][]domain.AttributedProduct)
	for _, p := range products {
		k := key(p)
		groups[k] = append(groups[k], p)
	}
	return groups
}
