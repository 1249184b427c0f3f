// Package pipeline orchestrates a grouping run end to end: load a scrape
// dump, extract attributes with the configured backend, build the brand
// hierarchy, then write, persist and index the result.
package pipeline

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
	"github.com/GadCoder/Ripley-Scrapper/internal/gemini"
	"github.com/GadCoder/Ripley-Scrapper/internal/hierarchy"
	"github.com/GadCoder/Ripley-Scrapper/internal/pricehistory"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
	"github.com/GadCoder/Ripley-Scrapper/internal/validation"
)

// ErrEmptyDump is returned when a dump parses but holds no usable
// product records.
var ErrEmptyDump = errors.New("pipeline: no usable products in dump")

// Extractor turns raw product records into attributed products. Both the
// rule-based extractor and the Gemini client satisfy it.
type Extractor interface {
	ExtractBatch(ctx context.Context, records []domain.ProductRecord) ([]domain.AttributedProduct, error)
}

// UsageReporter is implemented by extraction backends that meter API
// usage, letting the run metadata carry cost figures.
type UsageReporter interface {
	Stats(ctx context.Context) gemini.Stats
}

// Options configure a Pipeline. Extractor is required; Store, Prices and
// Search are optional sinks skipped when nil.
type Options struct {
	Extractor Extractor
	Store     *store.Store
	Prices    *pricehistory.Store
	Search    *search.SearchIndex
	Logger    *slog.Logger

	// Category labels price history rows. Empty means derive it from
	// the dump filename.
	Category string

	// ConfidenceThreshold splits grouped from ungrouped products.
	// Zero means hierarchy.DefaultConfidenceThreshold.
	ConfidenceThreshold float64
}

// Pipeline runs the grouping workflow. One Pipeline can process any
// number of dumps, which is what watch mode does.
type Pipeline struct {
	extractor Extractor
	builder   *hierarchy.Builder
	validator *hierarchy.Validator
	checker   *validation.Validator
	store     *store.Store
	prices    *pricehistory.Store
	search    *search.SearchIndex
	logger    *slog.Logger
	category  string
}

// New wires a pipeline from its parts.
func New(opts Options) (*Pipeline, error) {
	if opts.Extractor == nil {
		return nil, errors.New("pipeline: extractor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := opts.ConfidenceThreshold
	if threshold == 0 {
		threshold = hierarchy.DefaultConfidenceThreshold
	}

	return &Pipeline{
		extractor: opts.Extractor,
		builder:   hierarchy.NewBuilder(logger, threshold),
		validator: hierarchy.NewValidator(logger),
		checker:   validation.New(),
		store:     opts.Store,
		prices:    opts.Prices,
		search:    opts.Search,
		logger:    logger,
		category:  opts.Category,
	}, nil
}

// Result carries everything a run produced.
type Result struct {
	Hierarchy  *domain.Hierarchy
	Products   []domain.AttributedProduct
	Stats      domain.ExtractionStats
	Validation *hierarchy.ValidationResult
	OutputPath string
	Skipped    int
	Duration   time.Duration
}

// Run executes the full grouping workflow on one dump file. The grouped
// JSON is written to output before any store or index work, so a
// persistence failure still leaves the file behind. An empty output
// path derives one from the input.
func (p *Pipeline) Run(ctx context.Context, input, output string) (*Result, error) {
	start := time.Now()
	if output == "" {
		output = DefaultOutputPath(input)
	}
	p.logger.Info("grouping run started", "input", input, "output", output)

	records, skipped, err := p.loadDump(input)
	if err != nil {
		return nil, err
	}
	p.logger.Info("dump loaded", "products", len(records), "skipped", skipped)

	products, err := p.extractor.ExtractBatch(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("extract attributes: %w", err)
	}
	stats := extractor.ComputeStats(products)

	h := p.builder.Build(products)
	p.mergeUsage(ctx, h)
	h.Metadata.ProcessingTimeSeconds = math.Round(time.Since(start).Seconds()*10) / 10

	if err := writeHierarchy(h, output); err != nil {
		return nil, err
	}
	p.logger.Info("grouped output written", "path", output)

	result := &Result{
		Hierarchy:  h,
		Products:   products,
		Stats:      stats,
		Validation: p.validator.Validate(h),
		OutputPath: output,
		Skipped:    skipped,
	}

	if err := p.persist(ctx, input, h, products); err != nil {
		return result, err
	}
	p.index(products)

	result.Duration = time.Since(start)
	p.logger.Info("grouping run finished",
		"total", h.Metadata.TotalProducts,
		"grouped", h.Metadata.GroupedProducts,
		"ungrouped", h.Metadata.UngroupedProducts,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// DryRun loads a dump and prices a Gemini grouping run without touching
// the API.
func DryRun(input string, batchSize int) (gemini.CostEstimate, error) {
	records, err := readDump(input)
	if err != nil {
		return gemini.CostEstimate{}, err
	}
	return gemini.EstimateCost(len(records), batchSize), nil
}

// loadDump reads a dump and filters out records that fail validation.
// One bad record costs a warning, not the run.
func (p *Pipeline) loadDump(path string) ([]domain.ProductRecord, int, error) {
	records, err := readDump(path)
	if err != nil {
		return nil, 0, err
	}

	valid := records[:0]
	skipped := 0
	for i := range records {
		if err := p.checker.Validate(&records[i]); err != nil {
			p.logger.Warn("skipping invalid record", "index", i+1, "sku", records[i].SKU, "error", err)
			skipped++
			continue
		}
		valid = append(valid, records[i])
	}
	if len(valid) == 0 {
		return nil, skipped, ErrEmptyDump
	}
	return valid, skipped, nil
}

func readDump(path string) ([]domain.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	var records []domain.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse dump %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDump
	}
	return records, nil
}

func (p *Pipeline) mergeUsage(ctx context.Context, h *domain.Hierarchy) {
	reporter, ok := p.extractor.(UsageReporter)
	if !ok {
		return
	}
	stats := reporter.Stats(ctx)
	h.Metadata.GeminiAPICalls = stats.APICalls
	h.Metadata.GeminiTokensUsed = stats.TokensUsed
	h.Metadata.EstimatedCostUSD = stats.EstimatedCostUSD
	h.Metadata.CacheHits = stats.CacheHits
}

// persist writes the run into the product store. Price history is best
// effort: the grouped file and store are already consistent, and the
// observations table can be refilled by the next run.
func (p *Pipeline) persist(ctx context.Context, input string, h *domain.Hierarchy, products []domain.AttributedProduct) error {
	if p.store != nil {
		if err := p.store.SaveProducts(ctx, products); err != nil {
			return fmt.Errorf("save products: %w", err)
		}
		if err := p.store.SaveHierarchy(ctx, h); err != nil {
			return fmt.Errorf("save hierarchy: %w", err)
		}
		p.logger.Info("hierarchy persisted", "products", len(products))
	}

	if p.prices != nil {
		run := pricehistory.Run{
			ID:           uuid.NewString(),
			Category:     p.runCategory(input),
			RecordedAt:   time.Now().UTC(),
			ProductCount: len(products),
		}
		if err := p.prices.RecordRun(ctx, run, products); err != nil {
			p.logger.Warn("price history not recorded", "error", err)
		} else {
			p.logger.Info("price history recorded", "run_id", run.ID, "category", run.Category)
		}
	}
	return nil
}

// index rebuilds the search index from this run's products. Best effort
// for the same reason as price history.
func (p *Pipeline) index(products []domain.AttributedProduct) {
	if p.search == nil {
		return
	}
	if err := p.search.Rebuild(); err != nil {
		p.logger.Warn("search index rebuild failed", "error", err)
		return
	}
	if err := p.search.IndexProducts(products); err != nil {
		p.logger.Warn("search indexing failed", "error", err)
		return
	}
	p.logger.Info("search index rebuilt", "documents", len(products))
}

func writeHierarchy(h *domain.Hierarchy, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := json.Marshal(h, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("encode hierarchy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (p *Pipeline) runCategory(input string) string {
	if p.category != "" {
		return p.category
	}
	return DeriveCategory(input)
}

// DefaultOutputPath places the grouped output next to the input dump,
// dormitorio_productos.json becoming dormitorio_productos_grouped.json.
func DefaultOutputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), stem+"_grouped.json")
}

// DeriveCategory guesses the catalog category from a dump filename.
// ripley_dormitorio_20250812_101530.json and dormitorio_productos.json
// both give dormitorio; anything unrecognized keeps its stem.
func DeriveCategory(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	stem = strings.TrimPrefix(stem, "ripley_")
	stem = strings.TrimSuffix(stem, "_productos")
	// Trim a trailing scrape timestamp, one or two all-digit parts.
	for range 2 {
		if i := strings.LastIndexByte(stem, '_'); i > 0 && isDigits(stem[i+1:]) {
			stem = stem[:i]
		}
	}
	return strings.TrimSuffix(stem, "_resumed")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
