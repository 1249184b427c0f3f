package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

// Key prefix for cached Gemini extractions. The key suffix is a hash of
// the normalized product title, so identical titles across runs and
// categories share one cache entry.
const extractionCachePrefix = "gemini:"

// GetCachedExtraction retrieves cached attributes for a title hash.
func (s *Store) GetCachedExtraction(ctx context.Context, titleHash string) (*domain.ExtractedAttributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var attrs domain.ExtractedAttributes
	err := s.get([]byte(extractionCachePrefix+titleHash), &attrs)
	if domainerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFound("extraction not cached")
	}
	if err != nil {
		return nil, err
	}
	return &attrs, nil
}

// SaveCachedExtraction stores extracted attributes under a title hash.
func (s *Store) SaveCachedExtraction(ctx context.Context, titleHash string, attrs *domain.ExtractedAttributes) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if titleHash == "" {
		return domainerrors.Validation("cache key is empty")
	}

	return s.set([]byte(extractionCachePrefix+titleHash), attrs)
}

// CountCachedExtractions returns the number of cached extractions.
func (s *Store) CountCachedExtractions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix([]byte(extractionCachePrefix))
}
