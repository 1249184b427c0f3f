package ripley

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/id"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

// defaultCheckpointInterval is how many pages pass between checkpoint saves.
const defaultCheckpointInterval = 10

// Scraper drives full category scrapes: pagination, marketplace
// filtering, checkpointing, and SKU deduplication.
type Scraper struct {
	client *Client
	store  *store.Store
	logger *slog.Logger
}

// NewScraper creates a scraper that persists checkpoints to the store.
func NewScraper(client *Client, st *store.Store, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		client: client,
		store:  st,
		logger: logger,
	}
}

// ScrapeOptions configures one category scrape.
type ScrapeOptions struct {
	Category           string
	IncludeMarketplace bool
	MaxPages           int // 0 scrapes every page the API reports
	CheckpointInterval int // pages between checkpoint saves (default 10)
	Resume             bool
	SkipDedupe         bool // keep duplicate SKUs across pages (ids still renumbered)
}

// ScrapeResult summarizes a finished category scrape.
type ScrapeResult struct {
	SessionID    string
	Category     string
	Products     []domain.ProductRecord
	PagesFetched int
	TotalPages   int
	Filtered     int
	Duplicates   int
	Resumed      bool
}

// Scrape fetches a category page by page until the API reports no more
// pages. On a page failure it checkpoints what it has and returns the
// partial result alongside the error, so a later run with Resume picks
// up where this one stopped.
func (s *Scraper) Scrape(ctx context.Context, opts ScrapeOptions) (*ScrapeResult, error) {
	if opts.Category == "" {
		return nil, wrapError("scrape", opts.Category, 0, ErrNoCategory)
	}
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = defaultCheckpointInterval
	}

	sessionID, err := id.Generate("scrape")
	if err != nil {
		return nil, wrapError("scrape", opts.Category, 0, err)
	}

	result := &ScrapeResult{
		SessionID: sessionID,
		Category:  opts.Category,
	}

	var products []domain.ProductRecord
	page := 1

	if opts.Resume {
		cp, err := s.store.GetCheckpoint(ctx, opts.Category)
		if err != nil {
			return nil, wrapError("scrape", opts.Category, 0, err)
		}
		if cp.Completed {
			return nil, wrapError("scrape", opts.Category, 0, errors.New("checkpoint already completed"))
		}

		products = cp.Products
		page = cp.LastPage + 1
		result.Resumed = true

		s.logger.Info("resuming scrape",
			"session_id", sessionID,
			"category", opts.Category,
			"from_page", page,
			"products", len(products),
		)
	} else {
		s.logger.Info("starting scrape",
			"session_id", sessionID,
			"category", opts.Category,
			"only_ripley", !opts.IncludeMarketplace,
		)
	}

	lastPage := page - 1
	var scrapeErr error

	for {
		fetched, err := s.client.FetchPage(ctx, opts.Category, page, !opts.IncludeMarketplace)
		if err != nil {
			scrapeErr = err
			break
		}

		if len(fetched.Products) == 0 && fetched.Filtered == 0 {
			s.logger.Info("no more products", "category", opts.Category, "page", page)
			break
		}

		products = append(products, fetched.Products...)
		lastPage = page
		result.PagesFetched++
		result.Filtered += fetched.Filtered
		result.TotalPages = fetched.TotalPages

		s.logger.Info("page fetched",
			"category", opts.Category,
			"page", page,
			"page_products", len(fetched.Products),
			"total_products", len(products),
		)

		if page%opts.CheckpointInterval == 0 {
			s.checkpoint(ctx, opts.Category, lastPage, products, false)
		}

		if fetched.TotalPages > 0 && page >= fetched.TotalPages {
			s.logger.Info("reached last page", "category", opts.Category, "page", page)
			break
		}
		if opts.MaxPages > 0 && result.PagesFetched >= opts.MaxPages {
			s.logger.Info("reached page limit", "category", opts.Category, "pages", result.PagesFetched)
			break
		}

		page++
	}

	var duplicates int
	if opts.SkipDedupe {
		for i := range products {
			products[i].ID = i + 1
		}
	} else {
		products, duplicates = dedupeBySKU(products)
	}
	result.Products = products
	result.Duplicates = duplicates

	if duplicates > 0 {
		s.logger.Info("removed duplicate products", "count", duplicates)
	}

	if len(products) > 0 {
		s.checkpoint(ctx, opts.Category, lastPage, products, scrapeErr == nil)
	}

	s.logger.Info("scrape finished",
		"session_id", sessionID,
		"category", opts.Category,
		"products", len(products),
		"pages", result.PagesFetched,
		"filtered", result.Filtered,
		"resumed", result.Resumed,
	)

	return result, scrapeErr
}

// checkpoint persists scrape progress. Failures are logged rather than
// aborting the scrape, and a cancelled scrape can still save.
func (s *Scraper) checkpoint(ctx context.Context, category string, lastPage int, products []domain.ProductRecord, completed bool) {
	cp := &domain.ScrapeCheckpoint{
		Category:      category,
		LastPage:      lastPage,
		TotalProducts: len(products),
		Products:      products,
		Timestamp:     time.Now().Format(time.RFC3339),
		Completed:     completed,
	}

	if err := s.store.SaveCheckpoint(context.WithoutCancel(ctx), cp); err != nil {
		s.logger.Warn("failed to save checkpoint",
			"category", category,
			"last_page", lastPage,
			"error", err,
		)
	}
}

// dedupeBySKU keeps the first occurrence of each SKU and renumbers ids
// sequentially from 1.
func dedupeBySKU(products []domain.ProductRecord) ([]domain.ProductRecord, int) {
	seen := make(map[string]bool, len(products))
	unique := make([]domain.ProductRecord, 0, len(products))

	for _, p := range products {
		if seen[p.SKU] {
			continue
		}
		seen[p.SKU] = true
		p.ID = len(unique) + 1
		unique = append(unique, p)
	}

	return unique, len(products) - len(unique)
}
