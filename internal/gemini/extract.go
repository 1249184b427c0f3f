package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
)

// pending pairs an uncached record with its slot in the result.
type pending struct {
	index  int
	record domain.ProductRecord
}

// ExtractBatch classifies every record with the model, serving repeat
// titles from the cache. Results keep the input order. Mismatched or
// malformed model output degrades per record to UNKNOWN attributes
// with zero confidence instead of failing the run; only transport
// failures that survive the retries return an error.
func (c *Client) ExtractBatch(ctx context.Context, records []domain.ProductRecord) ([]domain.AttributedProduct, error) {
	if len(records) == 0 {
		return []domain.AttributedProduct{}, nil
	}

	products := make([]domain.AttributedProduct, len(records))

	var uncached []pending
	for i, record := range records {
		if attrs := c.cachedExtraction(ctx, record.Title); attrs != nil {
			products[i] = attrs.Apply(record)
			continue
		}
		uncached = append(uncached, pending{index: i, record: record})
	}

	batch := 0
	for start := 0; start < len(uncached); start += c.batchSize {
		end := min(start+c.batchSize, len(uncached))
		batch++

		if err := c.extractBatch(ctx, batch, uncached[start:end], products); err != nil {
			return nil, err
		}
	}

	stats := extractor.ComputeStats(products)
	c.mu.Lock()
	apiCalls, cacheHits := c.apiCalls, c.cacheHits
	c.mu.Unlock()
	c.logger.Info("extraction complete",
		"products", stats.TotalProcessed,
		"successful", stats.SuccessfulExtractions,
		"partial", stats.PartialExtractions,
		"failed", stats.FailedExtractions,
		"api_calls", apiCalls,
		"cache_hits", cacheHits)

	return products, nil
}

// extractBatch classifies one chunk of records and fills their slots.
func (c *Client) extractBatch(ctx context.Context, batch int, chunk []pending, products []domain.AttributedProduct) error {
	titles := make([]string, len(chunk))
	for i, p := range chunk {
		titles[i] = p.record.Title
	}

	prompt, err := buildPrompt(titles)
	if err != nil {
		return wrapError("extractBatch", batch, err)
	}

	text, err := c.generateContent(ctx, batch, prompt)
	if err != nil {
		return wrapError("extractBatch", batch, err)
	}

	parsed := c.parseExtraction(text, chunk, batch)
	for i, p := range chunk {
		products[p.index] = parsed[i].Apply(p.record)
		c.saveExtraction(ctx, p.record.Title, &parsed[i])
	}
	return nil
}

// parseExtraction decodes the model's JSON array and normalizes it to
// exactly one attribute set per record. A short array is padded with
// fallbacks, a long one truncated, and undecodable output falls back
// for the whole chunk.
func (c *Client) parseExtraction(text string, chunk []pending, batch int) []domain.ExtractedAttributes {
	var decoded []extractionRecord
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		c.logger.Error("failed to parse model response",
			"batch", batch,
			"error", err,
			"response", truncate(text, 500))

		fallback := make([]domain.ExtractedAttributes, len(chunk))
		for i, p := range chunk {
			fallback[i] = fallbackAttributes(p.record)
		}
		return fallback
	}

	if len(decoded) != len(chunk) {
		c.logger.Warn("model returned wrong record count",
			"batch", batch,
			"got", len(decoded),
			"want", len(chunk))
	}

	attrs := make([]domain.ExtractedAttributes, len(chunk))
	for i, p := range chunk {
		if i < len(decoded) {
			attrs[i] = decoded[i].toAttributes()
		} else {
			attrs[i] = fallbackAttributes(p.record)
		}
	}
	return attrs
}

// fallbackAttributes fills a record the model failed to classify. The
// scraped manufacturer survives as the brand when present.
func fallbackAttributes(record domain.ProductRecord) domain.ExtractedAttributes {
	return domain.ExtractedAttributes{
		Brand:        orUnknown(record.Brand),
		ProductType:  extractor.Unknown,
		BaseCategory: extractor.Unknown,
		BaseModel:    extractor.Unknown,
		VariantAttributes: domain.VariantAttributes{
			Accessories: []string{},
			Features:    []string{},
		},
		Confidence: 0,
	}
}

// titleHash keys the extraction cache. Uses hash to handle long titles.
func titleHash(title string) string {
	hash := sha256.Sum256([]byte(title))
	return hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars
}

// cachedExtraction returns the cached attributes for a title, or nil.
func (c *Client) cachedExtraction(ctx context.Context, title string) *domain.ExtractedAttributes {
	if c.store == nil {
		return nil
	}

	attrs, err := c.store.GetCachedExtraction(ctx, titleHash(title))
	if err != nil {
		return nil
	}

	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
	return attrs
}

// saveExtraction caches a classified title. Fallback results carry
// zero confidence and are skipped, so a later run can retry them.
func (c *Client) saveExtraction(ctx context.Context, title string, attrs *domain.ExtractedAttributes) {
	if c.store == nil || attrs.Confidence <= 0 {
		return
	}
	if err := c.store.SaveCachedExtraction(ctx, titleHash(title), attrs); err != nil {
		c.logger.Warn("failed to cache extraction", "error", err)
	}
}

// Stats reports cumulative client usage.
type Stats struct {
	APICalls         int     `json:"total_api_calls"`
	TokensUsed       int     `json:"total_tokens_used"`
	CacheHits        int     `json:"cache_hits"`
	CacheSize        int     `json:"cache_size"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Stats returns the usage counters accumulated since the client was
// created. The cache size counts every title cached in the store,
// including entries left by earlier runs.
func (c *Client) Stats(ctx context.Context) Stats {
	c.mu.Lock()
	s := Stats{
		APICalls:   c.apiCalls,
		TokensUsed: c.tokens,
		CacheHits:  c.cacheHits,
	}
	c.mu.Unlock()

	if c.store != nil {
		if n, err := c.store.CountCachedExtractions(ctx); err == nil {
			s.CacheSize = n
		}
	}
	s.EstimatedCostUSD = round4(float64(s.TokensUsed) / 1_000_000 * blendedCostPerMillion)
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
