// Package gemini extracts product attributes with the Gemini API. It
// is the second extraction backend next to the rule-based one: titles
// go out in batches inside a fixed classification prompt, the model
// answers with a strict JSON array, and every classified title is
// cached in the store so later runs only pay for titles the model has
// not seen before.
package gemini

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/ratelimit"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"

	// Generation settings. Low temperature keeps attribute extraction
	// near deterministic.
	temperature     = 0.1
	topP            = 0.95
	maxOutputTokens = 16384

	// Batch settings. The delay keeps a long run under the 15 RPM
	// free-tier quota.
	defaultBatchSize  = 25
	defaultBatchDelay = 4500 * time.Millisecond

	// HTTP client settings. A full batch can take most of a minute to
	// generate.
	defaultTimeout = 120 * time.Second

	// Retry settings
	defaultMaxRetries   = 3
	defaultRetryBackoff = time.Second
)

// Client is a paced, retrying, caching Gemini extraction client.
type Client struct {
	http         *http.Client
	pacer        *ratelimit.Pacer
	store        *store.Store
	logger       *slog.Logger
	apiKey       string
	model        string
	baseURL      string
	batchSize    int
	maxRetries   int
	retryBackoff time.Duration

	mu        sync.Mutex
	apiCalls  int
	tokens    int
	cacheHits int
}

// Options configures the extraction client.
type Options struct {
	// APIKey authenticates against the Generative Language API (required)
	APIKey string
	// BaseURL overrides the production API host (used in tests)
	BaseURL string
	// Model selects the Gemini model (default gemini-2.5-flash)
	Model string
	// BatchSize is the number of titles per API call (default 25)
	BatchSize int
	// BatchDelay spaces consecutive API calls (default 4.5s)
	BatchDelay time.Duration
	// MaxRetries caps attempts per API call (default 3)
	MaxRetries int
	// RetryBackoff is the exponential backoff base (default 1s)
	RetryBackoff time.Duration
	// Store caches extractions per title; nil disables caching
	Store *store.Store
	// Logger for request tracing
	Logger *slog.Logger
}

// NewClient creates an extraction client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, wrapError("newClient", 0, ErrNoAPIKey)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = defaultBatchDelay
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	return &Client{
		http:         &http.Client{Timeout: defaultTimeout},
		pacer:        ratelimit.NewFixedPacer(opts.BatchDelay),
		store:        opts.Store,
		logger:       opts.Logger,
		apiKey:       opts.APIKey,
		model:        opts.Model,
		baseURL:      opts.BaseURL,
		batchSize:    opts.BatchSize,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}, nil
}

// Close releases resources. Currently a no-op but included for interface consistency.
func (c *Client) Close() {
	// No persistent resources to close
}

// generateContent executes one paced generation request with retries
// and returns the model's text answer.
func (c *Client) generateContent(ctx context.Context, batch int, prompt string) (string, error) {
	// Wait for the pacer before touching the API
	if err := c.pacer.Wait(ctx); err != nil {
		return "", fmt.Errorf("pacer wait: %w", err)
	}

	payload, err := json.Marshal(&generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			TopP:             topP,
			MaxOutputTokens:  maxOutputTokens,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	requestURL := c.baseURL + "/v1beta/models/" + c.model + ":generateContent"

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: backoff * 2^(attempt-1)
			delay := c.retryBackoff * (1 << (attempt - 1))
			c.logger.Warn("retrying generate request",
				"batch", batch,
				"attempt", attempt+1,
				"delay", delay,
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		text, retryable, err := c.attempt(ctx, requestURL, payload, batch)
		if err == nil {
			c.recordUsage(len(prompt) + len(text))
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

// attempt performs a single POST against the generateContent endpoint.
// The second return reports whether the failure is worth retrying.
func (c *Client) attempt(ctx context.Context, requestURL string, payload []byte, batch int) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("generate request", "batch", batch, "model", c.model)

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection failures are retryable unless the context died
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable, err := statusError(resp.StatusCode, body)
		return "", retryable, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}

	text := parsed.text()
	if text == "" {
		return "", true, ErrEmptyResponse
	}
	return text, false, nil
}

// statusError maps a non-200 status to a sentinel and reports whether
// the request is worth retrying.
func statusError(status int, body []byte) (bool, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return true, ErrRateLimited
	case status == http.StatusBadRequest:
		return false, ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return false, ErrUnauthorized
	case status >= 500:
		return true, ErrServer
	default:
		return false, fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
}

// recordUsage counts one API call, estimating tokens at four
// characters apiece.
func (c *Client) recordUsage(chars int) {
	c.mu.Lock()
	c.apiCalls++
	c.tokens += chars / 4
	c.mu.Unlock()
}
