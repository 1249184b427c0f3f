package store

import (
	"context"
	"encoding/json/v2"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

// Key prefix for scrape checkpoints.
const checkpointPrefix = "checkpoint:" // checkpoint:<category> -> ScrapeCheckpoint

// SaveCheckpoint stores the resumable state of a category scrape,
// overwriting any previous checkpoint for the same category.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *domain.ScrapeCheckpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cp.Category == "" {
		return domainerrors.Validation("checkpoint has no category")
	}

	if err := s.set([]byte(checkpointPrefix+cp.Category), cp); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("checkpoint saved",
			"category", cp.Category,
			"last_page", cp.LastPage,
			"products", cp.TotalProducts,
		)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint for a category.
func (s *Store) GetCheckpoint(ctx context.Context, category string) (*domain.ScrapeCheckpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cp domain.ScrapeCheckpoint
	err := s.get([]byte(checkpointPrefix+category), &cp)
	if domainerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFoundf("no checkpoint for category %s", category)
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// DeleteCheckpoint removes the checkpoint for a category, typically
// after the scrape finished and its products were exported.
func (s *Store) DeleteCheckpoint(ctx context.Context, category string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(checkpointPrefix + category))
}

// ListCheckpoints returns all stored checkpoints in category order.
func (s *Store) ListCheckpoints(ctx context.Context) ([]*domain.ScrapeCheckpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var checkpoints []*domain.ScrapeCheckpoint
	prefix := []byte(checkpointPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var cp domain.ScrapeCheckpoint
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cp)
			})
			if err != nil {
				continue
			}
			checkpoints = append(checkpoints, &cp)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return checkpoints, nil
}
