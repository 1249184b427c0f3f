// Package main provides a read-only inspector for the product database.
//
// Usage:
//
//	DB_PATH=~/RipleyScraper/data/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/RipleyScraper/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	inspectProducts(db)
	inspectCheckpoints(db)
	inspectHierarchy(db)
	inspectCache(db)
}

func inspectProducts(db *badger.DB) {
	total := 0
	lowConfidence := 0
	byBrand := map[string]int{}
	shown := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("product:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var p domain.AttributedProduct
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}

				total++
				byBrand[p.Brand]++
				if p.Confidence < domain.ConfidencePartial {
					lowConfidence++
				}

				// Show first few products as a spot check
				if shown < 3 {
					shown++
					fmt.Printf("Product: %s\n", p.Title)
					fmt.Printf("  SKU: %s\n", p.SKU)
					fmt.Printf("  Brand: %s / Type: %s / Model: %s\n", p.Brand, p.ProductType, p.BaseModel)
					if p.VariantAttributes.Size != nil {
						fmt.Printf("  Size: %s\n", *p.VariantAttributes.Size)
					}
					if p.InternetPrice != nil {
						fmt.Printf("  Internet Price: %.2f %s\n", *p.InternetPrice, p.Currency)
					}
					fmt.Printf("  Confidence: %.2f\n", p.Confidence)
					fmt.Println()
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading product %s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating products: %v", err)
	}

	fmt.Println("=== Products ===")
	fmt.Printf("Total products: %d\n", total)
	fmt.Printf("Distinct brands: %d\n", len(byBrand))
	fmt.Printf("Low confidence (<%.1f): %d\n", domain.ConfidencePartial, lowConfidence)
	fmt.Println()
}

func inspectCheckpoints(db *badger.DB) {
	fmt.Println("=== Checkpoints ===")
	found := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("checkpoint:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var cp domain.ScrapeCheckpoint
				if err := json.Unmarshal(val, &cp); err != nil {
					return err
				}
				found++
				status := "in progress"
				if cp.Completed {
					status = "completed"
				}
				fmt.Printf("%s: page %d, %d products, %s (%s)\n",
					cp.Category, cp.LastPage, cp.TotalProducts, status, cp.Timestamp)
				return nil
			})
			if err != nil {
				log.Printf("Error reading checkpoint %s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating checkpoints: %v", err)
	}

	if found == 0 {
		fmt.Println("No checkpoints")
	}
	fmt.Println()
}

func inspectHierarchy(db *badger.DB) {
	fmt.Println("=== Hierarchy ===")

	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("hierarchy:metadata"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var meta domain.HierarchyMetadata
			if err := json.Unmarshal(val, &meta); err != nil {
				return err
			}
			fmt.Printf("Built: %s\n", meta.ProcessingDate.Format(time.RFC3339))
			fmt.Printf("Total products: %d (grouped %d, ungrouped %d)\n",
				meta.TotalProducts, meta.GroupedProducts, meta.UngroupedProducts)
			fmt.Printf("Brands: %d / Product types: %d / Models: %d\n",
				meta.TotalBrands, meta.TotalProductTypes, meta.TotalModels)
			if meta.GeminiAPICalls > 0 {
				fmt.Printf("Gemini: %d calls, %d cache hits, $%.4f\n",
					meta.GeminiAPICalls, meta.CacheHits, meta.EstimatedCostUSD)
			}
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		fmt.Println("No hierarchy built yet")
	} else if err != nil {
		log.Printf("Error reading hierarchy metadata: %v", err)
	}
	fmt.Println()
}

func inspectCache(db *badger.DB) {
	count := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("gemini:")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating cache: %v", err)
	}

	fmt.Println("=== Gemini Cache ===")
	fmt.Printf("Cached extractions: %d\n", count)
}
