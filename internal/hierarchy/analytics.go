package hierarchy

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// ModelFamily summarizes one model node for the ranking sections of
// the statistics report and the stats endpoint.
type ModelFamily struct {
	Brand        string            `json:"brand"`
	Type         string            `json:"type"`
	Model        string            `json:"model"`
	VariantCount int               `json:"variant_count"`
	PriceRange   domain.PriceRange `json:"price_range"`
	Sizes        []string          `json:"sizes"`
}

// BestDeals returns grouped variants carrying a discount, highest
// percentage first. Ties keep tree traversal order.
func BestDeals(h *domain.Hierarchy, limit int) []*domain.Variant {
	deals := make([]*domain.Variant, 0)
	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			for _, model := range ptype.Models {
				for _, variant := range model.Variants {
					if variant.DiscountPercentage != nil && *variant.DiscountPercentage != 0 {
						deals = append(deals, variant)
					}
				}
			}
		}
	}

	slices.SortStableFunc(deals, func(a, b *domain.Variant) int {
		return cmp.Compare(*b.DiscountPercentage, *a.DiscountPercentage)
	})

	return deals[:min(limit, len(deals))]
}

// LargestModelFamilies returns model summaries ordered by variant
// count, largest first. Ties keep tree traversal order.
func LargestModelFamilies(h *domain.Hierarchy, limit int) []ModelFamily {
	families := make([]ModelFamily, 0)
	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			for _, model := range ptype.Models {
				families = append(families, ModelFamily{
					Brand:        brand.BrandName,
					Type:         ptype.TypeName,
					Model:        model.BaseModel,
					VariantCount: model.VariantCount,
					PriceRange:   model.PriceRange,
					Sizes:        model.AvailableSizes,
				})
			}
		}
	}

	slices.SortStableFunc(families, func(a, b ModelFamily) int {
		return cmp.Compare(b.VariantCount, a.VariantCount)
	})

	return families[:min(limit, len(families))]
}

// StatisticsReport renders the statistics text block printed at the
// end of a grouping run. Amounts are in soles, grouped with thousands
// separators.
func StatisticsReport(h *domain.Hierarchy) string {
	p := message.NewPrinter(language.English)
	divider := strings.Repeat("=", 60)
	rule := strings.Repeat("-", 60)
	meta := h.Metadata

	lines := []string{divider, "PRODUCT GROUPING STATISTICS REPORT", divider, ""}

	lines = append(lines,
		"📊 OVERVIEW",
		rule,
		fmt.Sprintf("%-28s %d", "Total Products:", meta.TotalProducts),
		fmt.Sprintf("%-28s %d (%s%%)", "Grouped Products:",
			meta.GroupedProducts, percent(meta.GroupedProducts, meta.TotalProducts)),
		fmt.Sprintf("%-28s %d (%s%%)", "Ungrouped Products:",
			meta.UngroupedProducts, percent(meta.UngroupedProducts, meta.TotalProducts)),
		"",
		fmt.Sprintf("%-28s %d", "Brands:", meta.TotalBrands),
		fmt.Sprintf("%-28s %d", "Product Types:", meta.TotalProductTypes),
		fmt.Sprintf("%-28s %d", "Base Models:", meta.TotalModels),
	)
	if meta.TotalModels > 0 {
		avgVariants := float64(meta.GroupedProducts) / float64(meta.TotalModels)
		lines = append(lines, fmt.Sprintf("%-28s %.1f", "Avg Variants per Model:", avgVariants))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("%-28s %.2fs", "Processing Time:", meta.ProcessingTimeSeconds),
		fmt.Sprintf("%-28s %s", "Extraction Method:", extractionMethod(meta)),
		"",
	)

	lines = append(lines, divider, "📦 BRANDS BREAKDOWN", rule)
	for _, brand := range h.Brands {
		lines = append(lines, p.Sprintf("%-20s %4d products  %3d models  Avg: S/ %d",
			brand.BrandName, brand.ProductCount, brand.ModelCount,
			derefInt(brand.PriceRange.AvgInternetPrice)))
	}
	lines = append(lines, "")

	lines = append(lines, divider, "🏷️  PRODUCT TYPES", rule)
	typeOrder, typeCounts := countProductTypes(h)
	for _, name := range typeOrder[:min(10, len(typeOrder))] {
		count := typeCounts[name]
		lines = append(lines, fmt.Sprintf("%-35s %4d products (%s%%)",
			name, count, percent(count, meta.GroupedProducts)))
	}
	lines = append(lines, "")

	lines = append(lines, divider, "💰 TOP 10 BEST DEALS (Highest Discount %)", rule)
	for i, deal := range BestDeals(h, 10) {
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, truncate(deal.Title, 55)),
			p.Sprintf("   Normal: S/ %.1f → Ripley: S/ %.1f (%.1f%% off) - SKU: %s",
				deref(deal.NormalPrice), dealPrice(deal), deref(deal.DiscountPercentage), deal.SKU),
			"")
	}

	lines = append(lines, divider, "🔍 LARGEST MODEL FAMILIES (Most Variants)", rule)
	for i, family := range LargestModelFamilies(h, 10) {
		lines = append(lines,
			fmt.Sprintf("%d. %s %s - %s (%d variants)",
				i+1, family.Brand, family.Type, family.Model, family.VariantCount),
			p.Sprintf("   Price range: S/ %.1f - S/ %.1f",
				deref(family.PriceRange.MinInternetPrice), deref(family.PriceRange.MaxInternetPrice)))
		if len(family.Sizes) > 0 {
			lines = append(lines, "   Sizes: "+strings.Join(family.Sizes, ", "))
		}
		lines = append(lines, "")
	}

	if ungrouped := h.SpecialCategories.Ungrouped; len(ungrouped) > 0 {
		lines = append(lines, divider,
			fmt.Sprintf("⚠️  UNGROUPED PRODUCTS (%d)", len(ungrouped)), rule)
		for _, item := range ungrouped[:min(10, len(ungrouped))] {
			lines = append(lines,
				"- "+truncate(item.Product.Title, 60),
				"  Reason: "+item.Reason)
		}
		if len(ungrouped) > 10 {
			lines = append(lines, fmt.Sprintf("... and %d more", len(ungrouped)-10))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		divider,
		"End of report - Generated: "+meta.ProcessingDate.Format("2006-01-02T15:04:05"),
		divider)

	return strings.Join(lines, "\n")
}

// countProductTypes tallies product counts per type name across all
// brands, returning names in first-seen order sorted by count.
func countProductTypes(h *domain.Hierarchy) ([]string, map[string]int) {
	order := make([]string, 0)
	counts := make(map[string]int)

	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			if _, ok := counts[ptype.TypeName]; !ok {
				order = append(order, ptype.TypeName)
			}
			counts[ptype.TypeName] += ptype.ProductCount
		}
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return cmp.Compare(counts[b], counts[a])
	})

	return order, counts
}

func extractionMethod(meta domain.HierarchyMetadata) string {
	if meta.GeminiAPICalls > 0 || meta.GeminiTokensUsed > 0 {
		return "Gemini API"
	}
	return "Regex-based (offline)"
}

// dealPrice picks the price shown for a deal, preferring the Ripley
// card price over the internet price.
func dealPrice(v *domain.Variant) float64 {
	if v.RipleyPrice != nil && *v.RipleyPrice != 0 {
		return *v.RipleyPrice
	}
	if v.InternetPrice != nil {
		return *v.InternetPrice
	}
	return 0
}

func percent(value, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(value)/float64(total)*100)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
