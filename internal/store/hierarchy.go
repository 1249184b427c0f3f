package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

// Keys for the current hierarchy snapshot. The tree and its metadata
// live under separate keys so the metadata endpoint never has to load
// the full tree.
const (
	hierarchyKey         = "hierarchy:current"
	hierarchyMetadataKey = "hierarchy:metadata"
)

// SaveHierarchy stores the hierarchy and its metadata in a single
// transaction so readers never see a tree without matching metadata.
func (s *Store) SaveHierarchy(ctx context.Context, h *domain.Hierarchy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal hierarchy: %w", err)
	}
	meta, err := json.Marshal(h.Metadata)
	if err != nil {
		return fmt.Errorf("marshal hierarchy metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(hierarchyKey), data); err != nil {
			return err
		}
		return txn.Set([]byte(hierarchyMetadataKey), meta)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("hierarchy saved",
			"brands", h.Metadata.TotalBrands,
			"models", h.Metadata.TotalModels,
			"products", h.Metadata.TotalProducts,
		)
	}
	return nil
}

// GetHierarchy retrieves the current hierarchy snapshot.
func (s *Store) GetHierarchy(ctx context.Context) (*domain.Hierarchy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var h domain.Hierarchy
	err := s.get([]byte(hierarchyKey), &h)
	if domainerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFound("no hierarchy built yet")
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHierarchyMetadata retrieves only the metadata of the current
// hierarchy without loading the full tree.
func (s *Store) GetHierarchyMetadata(ctx context.Context) (*domain.HierarchyMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m domain.HierarchyMetadata
	err := s.get([]byte(hierarchyMetadataKey), &m)
	if domainerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFound("no hierarchy built yet")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// HasHierarchy reports whether a hierarchy snapshot has been saved.
func (s *Store) HasHierarchy(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists([]byte(hierarchyKey))
}
