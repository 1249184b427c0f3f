// Package ripley scrapes the Ripley Peru catalog API. The API serves
// the same JSON the storefront renders, including all three price
// tiers per product, so no HTML parsing is involved.
package ripley

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/ratelimit"
)

const (
	defaultBaseURL = "https://simple.ripley.com.pe"
	catalogPath    = "/api/v1/catalog-products"

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// Retry settings
	defaultMaxRetries   = 5
	defaultRetryBackoff = 2 * time.Second

	// The catalog API rejects requests without browser-like headers
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is a paced, retrying Ripley catalog API client.
type Client struct {
	http         *http.Client
	pacer        *ratelimit.Pacer
	logger       *slog.Logger
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
}

// Options configures the catalog client.
type Options struct {
	// BaseURL overrides the production catalog host (used in tests)
	BaseURL string
	// RatePreset is one of safe, balanced, fast (default balanced)
	RatePreset string
	// Delay overrides the preset with an exact base delay when > 0
	Delay time.Duration
	// DelayVariation adds random jitter on top of a custom Delay
	DelayVariation time.Duration
	// MaxRetries caps attempts per page request (default 5)
	MaxRetries int
	// RetryBackoff is the exponential backoff base (default 2s)
	RetryBackoff time.Duration
	// Logger for request tracing
	Logger *slog.Logger
}

// NewClient creates a catalog client.
func NewClient(opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RatePreset == "" {
		opts.RatePreset = ratelimit.PresetBalanced
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	var pacer *ratelimit.Pacer
	if opts.Delay > 0 {
		pacer = ratelimit.NewCustomPacer(opts.Delay, opts.DelayVariation)
	} else {
		var err error
		pacer, err = ratelimit.NewPacer(opts.RatePreset)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		http:         &http.Client{Timeout: defaultTimeout},
		pacer:        pacer,
		logger:       opts.Logger,
		baseURL:      opts.BaseURL,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}, nil
}

// Close releases resources. Currently a no-op but included for interface consistency.
func (c *Client) Close() {
	// No persistent resources to close
}

// doRequest executes one paced catalog page request with retries.
func (c *Client) doRequest(ctx context.Context, category string, page int) ([]byte, error) {
	// Wait for the pacer before touching the API
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pacer wait: %w", err)
	}

	query := url.Values{}
	query.Set("s", "mdco")
	query.Set("type", "catalog")
	query.Set("page", strconv.Itoa(page))

	requestURL := c.baseURL + catalogPath + "/" + url.PathEscape(category) + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: backoff * 2^(attempt-1)
			delay := c.retryBackoff * (1 << (attempt - 1))
			c.logger.Warn("retrying catalog request",
				"category", category,
				"page", page,
				"attempt", attempt+1,
				"delay", delay,
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		body, retryable, err := c.attempt(ctx, requestURL, category, page)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// attempt performs a single POST against the catalog API.
// The second return reports whether the failure is worth retrying.
func (c *Client) attempt(ctx context.Context, requestURL, category string, page int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", defaultBaseURL+"/")

	c.logger.Debug("catalog request", "category", category, "page", page)

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection failures are retryable unless the context died
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, false, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, retryableStatus(resp.StatusCode), ErrServer
	default:
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// retryableStatus reports whether a 5xx status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
