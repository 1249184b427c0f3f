package pipeline

import (
	"context"
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
	"github.com/GadCoder/Ripley-Scrapper/internal/gemini"
	"github.com/GadCoder/Ripley-Scrapper/internal/pricehistory"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(v float64) *float64 { return &v }

func sampleRecords() []domain.ProductRecord {
	return []domain.ProductRecord{
		{
			ID:            1,
			SKU:           "2004297153583P",
			Title:         "COLCHON ROSEN REST QUEEN + 2 ALMOHADAS VISCOELASTICAS",
			NormalPrice:   price(4599),
			InternetPrice: price(2799),
			Currency:      "PEN",
		},
		{
			ID:            2,
			SKU:           "2004297153590P",
			Title:         "COLCHON ROSEN REST KING + 2 ALMOHADAS VISCOELASTICAS",
			NormalPrice:   price(5299),
			InternetPrice: price(3199),
			Currency:      "PEN",
		},
		{
			ID:          3,
			SKU:         "2004215106632P",
			Title:       "CAMA DIVAN FORLI PRATO 1.5 PLAZAS BEIGE",
			NormalPrice: price(1899),
			Currency:    "PEN",
		},
	}
}

func writeDump(t *testing.T, records []domain.ProductRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "dormitorio_productos.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// stubExtractor attributes every record the same way, so persistence
// tests do not depend on extraction rules.
type stubExtractor struct {
	stats gemini.Stats
}

func (s *stubExtractor) ExtractBatch(_ context.Context, records []domain.ProductRecord) ([]domain.AttributedProduct, error) {
	out := make([]domain.AttributedProduct, len(records))
	for i, rec := range records {
		out[i] = domain.AttributedProduct{
			ProductRecord: rec,
			OriginalTitle: rec.Title,
			ProductType:   "COLCHON",
			BaseCategory:  "COLCHON",
			BaseModel:     "VESUBIO",
			VariantAttributes: domain.VariantAttributes{
				Accessories: []string{},
				Features:    []string{},
			},
			Confidence: 0.95,
		}
		out[i].Brand = "ROSEN"
	}
	return out, nil
}

func (s *stubExtractor) Stats(_ context.Context) gemini.Stats { return s.stats }

type failingExtractor struct {
	err error
}

func (f *failingExtractor) ExtractBatch(context.Context, []domain.ProductRecord) ([]domain.AttributedProduct, error) {
	return nil, f.err
}

func TestNew_RequiresExtractor(t *testing.T) {
	_, err := New(Options{Logger: testLogger()})
	assert.Error(t, err)
}

func TestPipeline_Run(t *testing.T) {
	input := writeDump(t, sampleRecords())
	p, err := New(Options{
		Extractor: extractor.New(testLogger(), 2),
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), input, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputPath(input), result.OutputPath)
	assert.Equal(t, 3, result.Stats.TotalProcessed)
	assert.Equal(t, 0, result.Skipped)
	require.NotNil(t, result.Validation)

	meta := result.Hierarchy.Metadata
	assert.Equal(t, 3, meta.TotalProducts)
	assert.Equal(t, meta.TotalProducts, meta.GroupedProducts+meta.UngroupedProducts)
	assert.Zero(t, meta.GeminiAPICalls, "Rule-based runs carry no API usage")

	// The grouped file must parse back into the same tree shape.
	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	var h domain.Hierarchy
	require.NoError(t, json.Unmarshal(data, &h))
	assert.Equal(t, meta.TotalProducts, h.Metadata.TotalProducts)
	assert.NotEmpty(t, h.Brands)
}

func TestPipeline_Run_PersistsEverything(t *testing.T) {
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "products.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	prices, err := pricehistory.Open(filepath.Join(dir, "prices.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { prices.Close() })

	idx, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(dir, "search"),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	p, err := New(Options{
		Extractor: &stubExtractor{},
		Store:     st,
		Prices:    prices,
		Search:    idx,
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	input := writeDump(t, sampleRecords())
	result, err := p.Run(ctx, input, "")
	require.NoError(t, err)

	count, err := st.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	saved, err := st.GetHierarchy(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Hierarchy.Metadata.TotalProducts, saved.Metadata.TotalProducts)

	observations, err := prices.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), observations)

	run, err := prices.LatestRun(ctx, "dormitorio")
	require.NoError(t, err)
	assert.Equal(t, 3, run.ProductCount, "Category should come from the dump filename")

	docs, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), docs)
}

func TestPipeline_Run_MergesUsageStats(t *testing.T) {
	input := writeDump(t, sampleRecords())
	p, err := New(Options{
		Extractor: &stubExtractor{stats: gemini.Stats{
			APICalls:         2,
			TokensUsed:       3100,
			CacheHits:        1,
			EstimatedCostUSD: 0.0003,
		}},
		Logger: testLogger(),
	})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), input, "")
	require.NoError(t, err)

	meta := result.Hierarchy.Metadata
	assert.Equal(t, 2, meta.GeminiAPICalls)
	assert.Equal(t, 3100, meta.GeminiTokensUsed)
	assert.Equal(t, 1, meta.CacheHits)
	assert.InDelta(t, 0.0003, meta.EstimatedCostUSD, 1e-9)
}

func TestPipeline_Run_SkipsInvalidRecords(t *testing.T) {
	records := sampleRecords()
	records = append(records,
		domain.ProductRecord{SKU: "2004000000000P"},              // no title
		domain.ProductRecord{Title: "COLCHON SIN CODIGO QUEEN"}, // no sku
	)
	input := writeDump(t, records)

	p, err := New(Options{Extractor: &stubExtractor{}, Logger: testLogger()})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), input, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 3, result.Hierarchy.Metadata.TotalProducts)
}

func TestPipeline_Run_EmptyDump(t *testing.T) {
	input := writeDump(t, nil)
	p, err := New(Options{Extractor: &stubExtractor{}, Logger: testLogger()})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), input, "")
	assert.ErrorIs(t, err, ErrEmptyDump)
}

func TestPipeline_Run_AllRecordsInvalid(t *testing.T) {
	input := writeDump(t, []domain.ProductRecord{{SKU: "A"}, {SKU: "B"}})
	p, err := New(Options{Extractor: &stubExtractor{}, Logger: testLogger()})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), input, "")
	assert.ErrorIs(t, err, ErrEmptyDump)
}

func TestPipeline_Run_MalformedDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"`), 0o644))

	p, err := New(Options{Extractor: &stubExtractor{}, Logger: testLogger()})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path, "")
	assert.Error(t, err)
}

func TestPipeline_Run_MissingFile(t *testing.T) {
	p, err := New(Options{Extractor: &stubExtractor{}, Logger: testLogger()})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestPipeline_Run_ExtractorFailure(t *testing.T) {
	input := writeDump(t, sampleRecords())
	boom := errors.New("backend down")
	p, err := New(Options{Extractor: &failingExtractor{err: boom}, Logger: testLogger()})
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "out.json")
	_, err = p.Run(context.Background(), input, output)
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "Failed runs should not leave an output file")
}

func TestDryRun(t *testing.T) {
	records := make([]domain.ProductRecord, 60)
	for i := range records {
		records[i] = sampleRecords()[0]
	}
	input := writeDump(t, records)

	estimate, err := DryRun(input, 25)
	require.NoError(t, err)
	assert.Equal(t, 60, estimate.Products)
	assert.Equal(t, 3, estimate.Batches)
	assert.Greater(t, estimate.CostUSD, 0.0)
}

func TestDryRun_MissingFile(t *testing.T) {
	_, err := DryRun(filepath.Join(t.TempDir(), "missing.json"), 25)
	assert.Error(t, err)
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dormitorio_productos.json", "dormitorio_productos_grouped.json"},
		{filepath.Join("dumps", "sofas.json"), filepath.Join("dumps", "sofas_grouped.json")},
		{"products.ndjson", "products_grouped.json"},
		{"products", "products_grouped.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultOutputPath(tt.input), tt.input)
	}
}

func TestDeriveCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dormitorio_productos.json", "dormitorio"},
		{"ripley_dormitorio_20250812_101530.json", "dormitorio"},
		{"ripley_dormitorio_resumed_20250812_101530.json", "dormitorio"},
		{filepath.Join("dumps", "ripley_sofas_20250812.json"), "sofas"},
		{"muebles.json", "muebles"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveCategory(tt.input), tt.input)
	}
}
