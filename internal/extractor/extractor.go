// Package extractor parses structured attributes out of raw catalog
// titles. Titles like "DORMITORIO EUROPEO ROSEN BALTICO 2 PLZ + 2
// ALMOHADAS" are pure uppercase Spanish with erratic accents and word
// order, so extraction is rule based: normalize, split off bundled
// accessories, then pull out brand, product type, base category, size,
// model, and color with ordered vocabulary matching. The same title
// always produces the same attributes.
package extractor

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"strings"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// Unknown fills attribute fields the title gave no evidence for.
const Unknown = "UNKNOWN"

// Extractor turns scraped product records into attributed products.
// It is stateless and safe for concurrent use.
type Extractor struct {
	logger  *slog.Logger
	workers int
}

// New creates an extractor. Workers bounds batch concurrency and
// defaults to the CPU count.
func New(logger *slog.Logger, workers int) *Extractor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Extractor{
		logger:  logger,
		workers: workers,
	}
}

// Extract parses the attributes of a single product. The input record
// is copied into the result with its brand replaced by the canonical
// extracted brand; the raw title is preserved in OriginalTitle.
func (e *Extractor) Extract(record domain.ProductRecord) domain.AttributedProduct {
	normalized := normalizeTitle(record.Title)
	mainPart, accessories := splitAccessories(normalized)

	brand := extractBrand(mainPart, record.Brand)
	productType, baseCategory := extractCategory(mainPart)
	size, mainNoSize := extractSize(mainPart)
	baseModel := extractModel(mainNoSize, brand, productType, baseCategory)
	color := extractColor(mainNoSize, brand, baseModel)

	// Bundle titles often park the brand, size, or model inside an
	// accessory segment, e.g. "KIT ... + COLCHON ROSEN QUEEN".
	if len(accessories) > 0 && (brand == "" || baseModel == "" || size == "") {
		combined := strings.Join(accessories, " ")
		if brand == "" {
			brand = extractBrand(combined, record.Brand)
		}
		if size == "" {
			size, _ = extractSize(combined)
		}
		if baseModel == "" {
			baseModel = extractModel(combined, brand, productType, baseCategory)
		}
	}

	product := domain.AttributedProduct{
		ProductRecord: record,
		OriginalTitle: record.Title,
		ProductType:   orUnknown(productType),
		BaseCategory:  orUnknown(baseCategory),
		BaseModel:     orUnknown(baseModel),
		VariantAttributes: domain.VariantAttributes{
			Size:        optional(size),
			Color:       optional(color),
			Accessories: accessories,
			Features:    []string{},
		},
		Confidence: scoreConfidence(brand, productType, baseCategory, baseModel, size),
	}
	product.Brand = orUnknown(brand)

	return product
}

// ExtractBatch extracts every record concurrently while keeping the
// result order aligned with the input order.
func (e *Extractor) ExtractBatch(ctx context.Context, records []domain.ProductRecord) ([]domain.AttributedProduct, error) {
	if len(records) == 0 {
		return []domain.AttributedProduct{}, nil
	}

	type job struct {
		record domain.ProductRecord
		index  int
	}
	type result struct {
		product domain.AttributedProduct
		index   int
	}

	jobs := make(chan job, len(records))
	results := make(chan result, len(records))

	for range e.workers {
		go func() {
			for j := range jobs {
				select {
				case <-ctx.Done():
					results <- result{index: j.index}
					continue
				default:
				}
				results <- result{product: e.Extract(j.record), index: j.index}
			}
		}()
	}

	for i, record := range records {
		select {
		case jobs <- job{record: record, index: i}:
		case <-ctx.Done():
			close(jobs)
			return nil, ctx.Err()
		}
	}
	close(jobs)

	products := make([]domain.AttributedProduct, len(records))
	for range len(records) {
		select {
		case r := <-results:
			products[r.index] = r.product
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := ComputeStats(products)
	e.logger.Info("extraction complete",
		"products", stats.TotalProcessed,
		"successful", stats.SuccessfulExtractions,
		"partial", stats.PartialExtractions,
		"failed", stats.FailedExtractions)

	return products, nil
}

// scoreConfidence weights the extracted fields: brand 0.25, base
// category 0.25 (0.15 when only a product type could be inferred),
// model 0.3, size 0.2. The sum is clamped to 1.0 and rounded to two
// decimals.
func scoreConfidence(brand, productType, baseCategory, baseModel, size string) float64 {
	score := 0.0

	if brand != "" && brand != Unknown {
		score += 0.25
	}

	if baseCategory != "" && baseCategory != Unknown {
		score += 0.25
	} else if productType != "" && productType != Unknown {
		score += 0.15
	}

	if baseModel != "" && baseModel != Unknown {
		score += 0.3
	}

	if size != "" {
		score += 0.2
	}

	return math.Round(min(score, 1.0)*100) / 100
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
