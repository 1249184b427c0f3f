package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// mappingVersion tracks the index mapping schema. Bump this when
// buildIndexMapping changes so existing indexes get rebuilt on startup.
const mappingVersion = "1"

// SearchIndex wraps a Bleve index over the attributed product catalog
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index
type Options struct {
	// DataPath is the directory where the index will be stored
	DataPath string
	// Logger for search operations
	Logger *slog.Logger
}

// NewSearchIndex creates or opens a search index under opts.DataPath.
// An existing index built with an older mapping version is discarded
// and recreated empty, so callers should reindex after opening.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error

	if _, statErr := os.Stat(indexPath); os.IsNotExist(statErr) {
		opts.Logger.Info("Creating new search index", "path", indexPath)
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			opts.Logger.Warn("Failed to write index version file", "error", err)
		}
	} else {
		// Rebuild when the version file is missing or stale
		stale := true
		if data, readErr := os.ReadFile(versionPath); readErr == nil && string(data) == mappingVersion {
			stale = false
		}

		if stale {
			opts.Logger.Info("Search index mapping outdated, rebuilding", "path", indexPath)
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("failed to remove stale search index: %w", err)
			}
			index, err = bleve.New(indexPath, buildIndexMapping())
			if err != nil {
				return nil, fmt.Errorf("failed to create search index: %w", err)
			}
			if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
				opts.Logger.Warn("Failed to write index version file", "error", err)
			}
		} else {
			opts.Logger.Info("Opening existing search index", "path", indexPath)
			index, err = bleve.Open(indexPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open search index: %w", err)
			}
		}
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: opts.Logger,
	}, nil
}

// IndexDocument adds or updates a single document in the index
func (s *SearchIndex) IndexDocument(doc *ProductDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index.Index(doc.SKU, doc.ToMap())
}

// IndexDocuments adds multiple documents in batches
func (s *SearchIndex) IndexDocuments(docs []*ProductDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.SKU, doc.ToMap()); err != nil {
				return fmt.Errorf("failed to add document to batch: %w", err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	s.logger.Debug("Indexed documents", "count", len(docs))
	return nil
}

// IndexProducts converts attributed products to search documents and
// indexes them. Products without a SKU are skipped.
func (s *SearchIndex) IndexProducts(products []domain.AttributedProduct) error {
	docs := make([]*ProductDocument, 0, len(products))
	for i := range products {
		if products[i].SKU == "" {
			continue
		}
		docs = append(docs, FromProduct(&products[i]))
	}

	return s.IndexDocuments(docs)
}

// DeleteDocument removes a document from the index by SKU
func (s *SearchIndex) DeleteDocument(sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index.Delete(sku)
}

// DocumentCount returns the number of indexed documents
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index.DocCount()
}

// Rebuild removes the existing index and creates a fresh empty one.
// Callers must reindex all products afterward.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	s.index = index
	s.logger.Info("Search index rebuilt", "path", s.path)
	return nil
}

// Close closes the underlying index
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index.Close()
}
