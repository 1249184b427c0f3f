package hierarchy

import (
	"encoding/json/v2"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func attributed(sku, brand, productType, model string, confidence float64) domain.AttributedProduct {
	return domain.AttributedProduct{
		ProductRecord: domain.ProductRecord{
			SKU:      sku,
			Title:    brand + " " + model,
			Brand:    brand,
			Currency: "PEN",
		},
		OriginalTitle: brand + " " + model,
		ProductType:   productType,
		BaseCategory:  productType,
		BaseModel:     model,
		VariantAttributes: domain.VariantAttributes{
			Accessories: []string{},
			Features:    []string{},
		},
		Confidence: confidence,
	}
}

func TestBuilder_PartitionByThreshold(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU2", "ROSEN", "COLCHON", "REST", 0.9),
		attributed("SKU3", "UNKNOWN", "UNKNOWN", "UNKNOWN", 0.5),
		attributed("SKU4", "PARAISO", "CAMA EUROPEA", "PRATO", 0.7),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	require.Len(t, h.SpecialCategories.Ungrouped, 1)
	entry := h.SpecialCategories.Ungrouped[0]
	assert.Equal(t, "SKU3", entry.Product.SKU)
	assert.Equal(t, "Low confidence (0.50)", entry.Reason)
	assert.Equal(t, 0.5, entry.ConfidenceScore)

	assert.Equal(t, 4, h.Metadata.TotalProducts)
	assert.Equal(t, 3, h.Metadata.GroupedProducts)
	assert.Equal(t, 1, h.Metadata.UngroupedProducts)
}

func TestBuilder_SortsSiblingsByName(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "DORMITORIO", "VESUBIO", 1.0),
		attributed("SKU2", "DRIMER", "COLCHON", "ZEN", 1.0),
		attributed("SKU3", "PARAISO", "CAMA EUROPEA", "PRATO", 1.0),
		attributed("SKU4", "ROSEN", "COLCHON", "REST", 1.0),
		attributed("SKU5", "ROSEN", "COLCHON", "CONCEPT", 1.0),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	require.Len(t, h.Brands, 3)
	assert.Equal(t, "DRIMER", h.Brands[0].BrandName)
	assert.Equal(t, "PARAISO", h.Brands[1].BrandName)
	assert.Equal(t, "ROSEN", h.Brands[2].BrandName)

	rosen := h.Brands[2]
	require.Len(t, rosen.ProductTypes, 2)
	assert.Equal(t, "COLCHON", rosen.ProductTypes[0].TypeName)
	assert.Equal(t, "DORMITORIO", rosen.ProductTypes[1].TypeName)

	colchon := rosen.ProductTypes[0]
	require.Len(t, colchon.Models, 2)
	assert.Equal(t, "CONCEPT", colchon.Models[0].BaseModel)
	assert.Equal(t, "REST", colchon.Models[1].BaseModel)
}

func TestBuilder_VariantOrderPreserved(t *testing.T) {
	first := attributed("SKU9", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	second := attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	third := attributed("SKU5", "ROSEN", "COLCHON", "VESUBIO", 1.0)

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{first, second, third})

	require.Len(t, h.Brands, 1)
	model := h.Brands[0].ProductTypes[0].Models[0]
	require.Equal(t, 3, model.VariantCount)
	assert.Equal(t, "SKU9", model.Variants[0].SKU)
	assert.Equal(t, "SKU1", model.Variants[1].SKU)
	assert.Equal(t, "SKU5", model.Variants[2].SKU)
}

func TestBuilder_NodeIDs(t *testing.T) {
	p := attributed("SKU1", "EL CISNE", "CAMA EUROPEA", "VESUBIO", 1.0)
	p.VariantAttributes.Size = strPtr("1.5PLZ")
	p.VariantAttributes.Color = strPtr("GRIS")

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{p})

	require.Len(t, h.Brands, 1)
	brand := h.Brands[0]
	assert.Equal(t, "el-cisne", brand.BrandID)

	ptype := brand.ProductTypes[0]
	assert.Equal(t, "cama-europea", ptype.TypeID)

	model := ptype.Models[0]
	assert.Equal(t, "el-cisne-cama-europea-vesubio", model.ModelID)
	assert.Equal(t, "el-cisne-cama-europea-vesubio-1-5plz-gris", model.Variants[0].VariantID)
}

func TestBuilder_VariantIDWithoutAttributes(t *testing.T) {
	p := attributed("SKU1", "ROSEN", "COLCHON", "REST", 1.0)

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{p})

	model := h.Brands[0].ProductTypes[0].Models[0]
	assert.Equal(t, "rosen-colchon-rest", model.Variants[0].VariantID)
}

func TestBuilder_PriceRange(t *testing.T) {
	a := attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	a.NormalPrice = floatPtr(4599)
	a.InternetPrice = floatPtr(2999)
	a.RipleyPrice = floatPtr(2799)

	b := attributed("SKU2", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	b.NormalPrice = floatPtr(3999)
	b.InternetPrice = floatPtr(2599)

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{a, b})

	model := h.Brands[0].ProductTypes[0].Models[0]
	r := model.PriceRange

	require.NotNil(t, r.MinNormalPrice)
	assert.Equal(t, 3999.0, *r.MinNormalPrice)
	assert.Equal(t, 4599.0, *r.MaxNormalPrice)
	assert.Equal(t, int64(4299), *r.AvgNormalPrice)

	assert.Equal(t, 2599.0, *r.MinInternetPrice)
	assert.Equal(t, 2999.0, *r.MaxInternetPrice)
	assert.Equal(t, int64(2799), *r.AvgInternetPrice)

	// Only one product carries a Ripley price.
	assert.Equal(t, 2799.0, *r.MinRipleyPrice)
	assert.Equal(t, 2799.0, *r.MaxRipleyPrice)
	assert.Equal(t, int64(2799), *r.AvgRipleyPrice)

	assert.LessOrEqual(t, *r.MinNormalPrice, float64(*r.AvgNormalPrice))
	assert.LessOrEqual(t, float64(*r.AvgNormalPrice), *r.MaxNormalPrice)

	// The brand node aggregates the same two products.
	assert.Equal(t, 3999.0, *h.Brands[0].PriceRange.MinNormalPrice)
}

func TestBuilder_PriceRangeSkipsZeroAndMissing(t *testing.T) {
	a := attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	a.NormalPrice = floatPtr(0)

	b := attributed("SKU2", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	b.NormalPrice = floatPtr(4599)

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{a, b})

	r := h.Brands[0].ProductTypes[0].Models[0].PriceRange
	assert.Equal(t, 4599.0, *r.MinNormalPrice)
	assert.Equal(t, 4599.0, *r.MaxNormalPrice)
	assert.Nil(t, r.MinInternetPrice)
	assert.Nil(t, r.MinRipleyPrice)
}

func TestBuilder_NoPricesLeavesRangeEmpty(t *testing.T) {
	p := attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0)

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{p})

	r := h.Brands[0].PriceRange
	assert.True(t, r.IsEmpty())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestBuilder_ModelAttributeAggregation(t *testing.T) {
	a := attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	a.VariantAttributes.Size = strPtr("2PLZ")
	a.VariantAttributes.Color = strPtr("GRIS")
	a.VariantAttributes.Accessories = []string{"2 ALMOHADAS"}

	b := attributed("SKU2", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	b.VariantAttributes.Size = strPtr("1.5PLZ")
	b.VariantAttributes.Accessories = []string{"SABANAS", "2 ALMOHADAS"}

	c := attributed("SKU3", "ROSEN", "COLCHON", "VESUBIO", 1.0)
	c.VariantAttributes.Size = strPtr("2PLZ")

	h := NewBuilder(testLogger(), 0.7).Build([]domain.AttributedProduct{a, b, c})

	model := h.Brands[0].ProductTypes[0].Models[0]
	assert.Equal(t, []string{"1.5PLZ", "2PLZ"}, model.AvailableSizes)
	assert.Equal(t, []string{"GRIS"}, model.AvailableColors)
	assert.Equal(t, []string{"2 ALMOHADAS", "SABANAS"}, model.CommonAccessories)
}

func TestBuilder_Metadata(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU2", "ROSEN", "COLCHON", "REST", 1.0),
		attributed("SKU3", "ROSEN", "DORMITORIO", "VESUBIO", 1.0),
		attributed("SKU4", "PARAISO", "COLCHON", "PRATO", 1.0),
		attributed("SKU5", "DRIMER", "COLCHON", "ZEN", 0.3),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	meta := h.Metadata
	assert.Equal(t, 5, meta.TotalProducts)
	assert.Equal(t, 4, meta.GroupedProducts)
	assert.Equal(t, 1, meta.UngroupedProducts)
	assert.Equal(t, 2, meta.TotalBrands)
	assert.Equal(t, 3, meta.TotalProductTypes)
	assert.Equal(t, 4, meta.TotalModels)
	assert.WithinDuration(t, time.Now(), meta.ProcessingDate, 5*time.Second)
}

func TestBuilder_EmptyInput(t *testing.T) {
	h := NewBuilder(testLogger(), 0.7).Build(nil)

	assert.Empty(t, h.Brands)
	assert.Empty(t, h.SpecialCategories.Ungrouped)
	assert.Equal(t, 0, h.Metadata.TotalProducts)
	assert.Equal(t, 0, h.Metadata.TotalBrands)
}

func TestBuilder_GroupsUnknownTogether(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "UNKNOWN", "COLCHON", "UNKNOWN", 0.75),
		attributed("SKU2", "UNKNOWN", "COLCHON", "UNKNOWN", 0.75),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	require.Len(t, h.Brands, 1)
	assert.Equal(t, "UNKNOWN", h.Brands[0].BrandName)
	assert.Equal(t, "unknown", h.Brands[0].BrandID)
	assert.Equal(t, 2, h.Brands[0].ProductTypes[0].Models[0].VariantCount)
}

func TestBuilder_EveryProductAppearsExactlyOnce(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU2", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU3", "PARAISO", "CAMA EUROPEA", "PRATO", 0.9),
		attributed("SKU4", "DRIMER", "UNKNOWN", "ZEN", 0.4),
		attributed("SKU5", "UNKNOWN", "UNKNOWN", "UNKNOWN", 0.0),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	seen := make(map[string]int)
	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			for _, model := range ptype.Models {
				for _, variant := range model.Variants {
					seen[variant.SKU]++
				}
			}
		}
	}
	for _, entry := range h.SpecialCategories.Ungrouped {
		seen[entry.Product.SKU]++
	}

	require.Len(t, seen, len(products))
	for _, p := range products {
		assert.Equal(t, 1, seen[p.SKU], "product %s", p.SKU)
	}
}

func TestBuilder_DeterministicOutput(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU2", "PARAISO", "CAMA EUROPEA", "PRATO", 0.9),
		attributed("SKU3", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU4", "DRIMER", "COLCHON", "ZEN", 0.4),
	}

	builder := NewBuilder(testLogger(), 0.7)

	first := builder.Build(products)
	second := builder.Build(products)
	first.Metadata.ProcessingDate = time.Time{}
	second.Metadata.ProcessingDate = time.Time{}

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestBuilder_CountsAtEveryLevel(t *testing.T) {
	products := []domain.AttributedProduct{
		attributed("SKU1", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU2", "ROSEN", "COLCHON", "VESUBIO", 1.0),
		attributed("SKU3", "ROSEN", "COLCHON", "REST", 1.0),
		attributed("SKU4", "ROSEN", "DORMITORIO", "BALTICO", 1.0),
	}

	h := NewBuilder(testLogger(), 0.7).Build(products)

	brand := h.Brands[0]
	assert.Equal(t, 4, brand.ProductCount)
	assert.Equal(t, 3, brand.ModelCount)

	colchon := brand.ProductTypes[0]
	assert.Equal(t, "COLCHON", colchon.TypeName)
	assert.Equal(t, 3, colchon.ProductCount)
	assert.Equal(t, 2, colchon.ModelCount)

	vesubio := colchon.Models[1]
	assert.Equal(t, "VESUBIO", vesubio.BaseModel)
	assert.Equal(t, 2, vesubio.VariantCount)
}
