// Package main provides the product grouping CLI.
//
// It reads a scraped product dump, extracts attributes with the regex
// engine (or Gemini with --backend gemini), builds the brand / product
// type / model / variant hierarchy, and writes it next to the input as
// {input}_grouped.json. Results also land in the store, price history,
// and search index so the API server serves them.
//
// Usage:
//
//	grouper --input dormitorio_productos.json
//	grouper --input dump.json --backend gemini --dry-run
//	grouper --input dump.json --report
//	grouper --watch dumps/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/GadCoder/Ripley-Scrapper/internal/config"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
	"github.com/GadCoder/Ripley-Scrapper/internal/gemini"
	"github.com/GadCoder/Ripley-Scrapper/internal/hierarchy"
	"github.com/GadCoder/Ripley-Scrapper/internal/logger"
	"github.com/GadCoder/Ripley-Scrapper/internal/pipeline"
	"github.com/GadCoder/Ripley-Scrapper/internal/pricehistory"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
	"github.com/GadCoder/Ripley-Scrapper/internal/watcher"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if cfg.Grouper.InputPath == "" && cfg.Watch.Dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: grouper --input <products.json> [--backend regex|gemini] [--report]")
		fmt.Fprintln(os.Stderr, "       grouper --watch <dir>")
		fmt.Fprintln(os.Stderr, "Run 'grouper -h' for all options.")
		os.Exit(1)
	}

	// The cost estimator needs no key, only real gemini runs do
	if cfg.Grouper.Backend == "gemini" && !cfg.Grouper.DryRun && cfg.Gemini.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: the gemini backend needs an API key (--api-key or GEMINI_API_KEY)")
		fmt.Fprintln(os.Stderr, "Get a free API key at: https://makersuite.google.com/app/apikey")
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Grouping failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	// Dry run prices the extraction without opening any sinks
	if cfg.Grouper.DryRun {
		if cfg.Grouper.InputPath == "" {
			return errors.New("--dry-run requires --input")
		}
		estimate, err := pipeline.DryRun(cfg.Grouper.InputPath, cfg.Gemini.BatchSize)
		if err != nil {
			return err
		}
		printEstimate(estimate)
		return nil
	}

	st, err := store.New(filepath.Join(cfg.Data.BasePath, "db"), log.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	prices, err := pricehistory.Open(filepath.Join(cfg.Data.BasePath, "prices.db"), log.Logger)
	if err != nil {
		return fmt.Errorf("open price history: %w", err)
	}
	defer prices.Close()

	var index *search.SearchIndex
	if !cfg.Grouper.NoIndex {
		index, err = search.NewSearchIndex(search.Options{
			DataPath: cfg.Data.BasePath,
			Logger:   log.Logger,
		})
		if err != nil {
			return fmt.Errorf("open search index: %w", err)
		}
		defer index.Close()
	}

	ext, closeExtractor, err := buildExtractor(cfg, st, log)
	if err != nil {
		return err
	}
	defer closeExtractor()

	p, err := pipeline.New(pipeline.Options{
		Extractor:           ext,
		Store:               st,
		Prices:              prices,
		Search:              index,
		Logger:              log.Logger,
		Category:            cfg.Scraper.Category,
		ConfidenceThreshold: cfg.Extractor.ConfidenceThreshold,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Dir != "" {
		return watchLoop(ctx, cfg, log, p)
	}

	result, err := p.Run(ctx, cfg.Grouper.InputPath, cfg.Grouper.OutputPath)
	if err != nil {
		return err
	}

	printSummary(result)
	if cfg.Grouper.Report {
		printReports(result)
	}
	return nil
}

// buildExtractor selects the extraction backend. The returned func
// releases backend resources.
func buildExtractor(cfg *config.Config, st *store.Store, log *logger.Logger) (pipeline.Extractor, func(), error) {
	if cfg.Grouper.Backend == "gemini" {
		client, err := gemini.NewClient(gemini.Options{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			BatchSize:  cfg.Gemini.BatchSize,
			BatchDelay: cfg.Gemini.BatchDelay,
			Store:      st,
			Logger:     log.Logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}

	return extractor.New(log.Logger, cfg.Extractor.Workers), func() {}, nil
}

// watchLoop regroups every settled dump that lands in the watched
// directory until interrupted. Grouped output files are ignored by the
// watcher, so a run does not trigger itself.
func watchLoop(ctx context.Context, cfg *config.Config, log *logger.Logger, p *pipeline.Pipeline) error {
	w, err := watcher.New(log.Logger, watcher.Options{
		SettleDelay: cfg.Watch.SettleDelay,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	if err := w.Watch(cfg.Watch.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Watch.Dir, err)
	}

	go func() { _ = w.Start(ctx) }()

	log.Info("Watching for product dumps",
		"dir", cfg.Watch.Dir,
		"settle_delay", cfg.Watch.SettleDelay,
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch mode stopped")
			return nil
		case ev := <-w.Events():
			if ev.Type == watcher.EventRemoved {
				continue
			}
			log.Info("Dump settled, grouping",
				"path", ev.Path,
				"event", ev.Type.String(),
				"size", ev.Size,
			)
			result, err := p.Run(ctx, ev.Path, "")
			if err != nil {
				log.Error("Grouping run failed", "path", ev.Path, "error", err)
				continue
			}
			printSummary(result)
			if cfg.Grouper.Report {
				printReports(result)
			}
		case err := <-w.Errors():
			log.Warn("Watcher error", "error", err)
		}
	}
}

func printEstimate(estimate gemini.CostEstimate) {
	fmt.Println("=== Dry Run - Cost Estimation ===")
	fmt.Printf("Products:           %d\n", estimate.Products)
	fmt.Printf("Batches:            %d\n", estimate.Batches)
	fmt.Printf("Est. Input Tokens:  %d\n", estimate.InputTokens)
	fmt.Printf("Est. Output Tokens: %d\n", estimate.OutputTokens)
	fmt.Printf("Est. Total Tokens:  %d\n", estimate.TotalTokens)
	fmt.Printf("Est. Cost:          $%.4f USD\n", estimate.CostUSD)
	fmt.Printf("Est. Time:          %.1f minutes\n", estimate.TimeMinutes)
	fmt.Println()
	fmt.Println("Note: actual cost may vary based on response length")
	fmt.Println("Run without --dry-run to proceed with grouping")
}

func printSummary(result *pipeline.Result) {
	meta := result.Hierarchy.Metadata

	fmt.Println()
	fmt.Println("=== Grouping Summary ===")
	fmt.Printf("Total Products:  %d\n", meta.TotalProducts)
	fmt.Printf("Grouped:         %d (%.1f%%)\n", meta.GroupedProducts, percent(meta.GroupedProducts, meta.TotalProducts))
	fmt.Printf("Ungrouped:       %d (%.1f%%)\n", meta.UngroupedProducts, percent(meta.UngroupedProducts, meta.TotalProducts))
	if result.Skipped > 0 {
		fmt.Printf("Skipped records: %d\n", result.Skipped)
	}
	fmt.Printf("Brands:          %d\n", meta.TotalBrands)
	fmt.Printf("Product Types:   %d\n", meta.TotalProductTypes)
	fmt.Printf("Models:          %d\n", meta.TotalModels)
	fmt.Printf("Processing Time: %.1fs\n", meta.ProcessingTimeSeconds)
	if meta.GeminiAPICalls > 0 || meta.CacheHits > 0 {
		fmt.Printf("API Calls:       %d\n", meta.GeminiAPICalls)
		fmt.Printf("Cache Hits:      %d\n", meta.CacheHits)
		fmt.Printf("Tokens Used:     ~%d\n", meta.GeminiTokensUsed)
		fmt.Printf("Total Cost:      $%.4f\n", meta.EstimatedCostUSD)
	}
	fmt.Printf("Saved to:        %s\n", result.OutputPath)
}

func printReports(result *pipeline.Result) {
	fmt.Println()
	fmt.Println(result.Validation.Report())
	fmt.Println()
	fmt.Println(hierarchy.StatisticsReport(result.Hierarchy))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
