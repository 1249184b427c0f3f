// Package main provides the Ripley catalog scraper CLI.
//
// It fetches every page of a category from the catalog API and writes
// the products to a JSON dump the grouper consumes. Progress is
// checkpointed to the store, so an interrupted overnight run continues
// with --resume.
//
// Usage:
//
//	scraper --category dormitorio
//	scraper --category dormitorio --rate balanced --output dormitorio.json
//	scraper --category dormitorio --resume
package main

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/config"
	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/logger"
	"github.com/GadCoder/Ripley-Scrapper/internal/ripley"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
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

	if cfg.Scraper.Category == "" {
		fmt.Fprintln(os.Stderr, "Usage: scraper --category <slug> [--rate safe|balanced|fast] [--output file.json]")
		fmt.Fprintln(os.Stderr, "Run 'scraper -h' for all options.")
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Scrape failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	st, err := store.New(filepath.Join(cfg.Data.BasePath, "db"), log.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client, err := ripley.NewClient(ripley.Options{
		BaseURL:        cfg.Scraper.BaseURL,
		RatePreset:     cfg.Scraper.RatePreset,
		Delay:          cfg.Scraper.Delay,
		DelayVariation: cfg.Scraper.DelayVariation,
		MaxRetries:     cfg.Scraper.MaxRetries,
		RetryBackoff:   cfg.Scraper.RetryBackoff,
		Logger:         log.Logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	scraper := ripley.NewScraper(client, st, log.Logger)

	// SIGINT stops the scrape; progress up to the last checkpoint survives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Scrape configured",
		"category", cfg.Scraper.Category,
		"rate", cfg.Scraper.RatePreset,
		"max_pages", cfg.Scraper.MaxPages,
		"include_marketplace", cfg.Scraper.IncludeMarketplace,
		"resume", cfg.Scraper.Resume,
	)

	start := time.Now()
	result, err := scraper.Scrape(ctx, ripley.ScrapeOptions{
		Category:           cfg.Scraper.Category,
		IncludeMarketplace: cfg.Scraper.IncludeMarketplace,
		MaxPages:           cfg.Scraper.MaxPages,
		CheckpointInterval: cfg.Scraper.CheckpointInterval,
		Resume:             cfg.Scraper.Resume,
		SkipDedupe:         !cfg.Scraper.Deduplicate,
	})
	if err != nil {
		if result != nil && len(result.Products) > 0 {
			log.Warn("Scrape interrupted with progress checkpointed, rerun with --resume to continue",
				"category", result.Category,
				"products", len(result.Products),
				"pages_fetched", result.PagesFetched,
			)
		}
		return err
	}

	outPath := cfg.Scraper.OutputPath
	if outPath == "" {
		name := fmt.Sprintf("ripley_%s_%s.json", result.Category, start.Format("20060102_150405"))
		if result.Resumed {
			name = fmt.Sprintf("ripley_%s_resumed_%s.json", result.Category, start.Format("20060102_150405"))
		}
		outPath = name
	}

	if err := writeDump(outPath, result.Products); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	printSummary(result, outPath, time.Since(start))
	return nil
}

// writeDump saves the scraped products as an indented JSON array, the
// format the grouper reads back.
func writeDump(path string, products []domain.ProductRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.Marshal(products, jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printSummary(result *ripley.ScrapeResult, outPath string, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Scrape Complete ===")
	fmt.Printf("Session: %s\n", result.SessionID)
	fmt.Printf("Category: %s\n", result.Category)
	fmt.Printf("Products: %d\n", len(result.Products))
	if result.TotalPages > 0 {
		fmt.Printf("Pages: %d of %d\n", result.PagesFetched, result.TotalPages)
	} else {
		fmt.Printf("Pages: %d\n", result.PagesFetched)
	}
	if result.Filtered > 0 {
		fmt.Printf("Marketplace filtered: %d\n", result.Filtered)
	}
	if result.Duplicates > 0 {
		fmt.Printf("Duplicates removed: %d\n", result.Duplicates)
	}
	fmt.Printf("Duration: %s\n", elapsed.Round(time.Second))
	fmt.Printf("Saved to: %s\n", outPath)
}
