package store

import (
	"context"
	"encoding/json/v2"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

// Key prefix for product storage.
const productPrefix = "product:" // product:<sku> -> AttributedProduct

// SaveProduct stores a single attributed product keyed by SKU.
// An existing record with the same SKU is overwritten.
func (s *Store) SaveProduct(ctx context.Context, p *domain.AttributedProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.SKU == "" {
		return domainerrors.Validation("product has no SKU")
	}

	return s.set([]byte(productPrefix+p.SKU), p)
}

// SaveProducts stores a batch of attributed products in one write batch.
// Records without a SKU are rejected before anything is written.
func (s *Store) SaveProducts(ctx context.Context, products []domain.AttributedProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range products {
		if products[i].SKU == "" {
			return domainerrors.Validationf("product %q has no SKU", products[i].Title)
		}
	}

	bw := s.NewBatchWriter(defaultBatchSize)
	for i := range products {
		if err := bw.AddProduct(ctx, &products[i]); err != nil {
			bw.Cancel()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("products saved", "count", len(products))
	}
	return nil
}

// GetProduct retrieves a product by SKU.
func (s *Store) GetProduct(ctx context.Context, sku string) (*domain.AttributedProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.AttributedProduct
	err := s.get([]byte(productPrefix+sku), &p)
	if domainerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFoundf("product %s not found", sku)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns all stored products in SKU order.
func (s *Store) ListProducts(ctx context.Context) ([]domain.AttributedProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	products := make([]domain.AttributedProduct, 0)
	prefix := []byte(productPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.AttributedProduct
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				continue
			}
			products = append(products, p)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return products, nil
}

// CountProducts returns the number of stored products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix([]byte(productPrefix))
}

// DeleteProduct removes a product by SKU. Deleting a SKU that does not
// exist is not an error.
func (s *Store) DeleteProduct(ctx context.Context, sku string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(productPrefix + sku))
}
