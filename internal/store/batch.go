package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// defaultBatchSize is the auto-flush threshold for bulk product writes.
const defaultBatchSize = 500

// BatchWriter provides efficient bulk write operations using BadgerDB's WriteBatch
type BatchWriter struct {
	store     *Store
	batch     *badger.WriteBatch
	maxSize   int
	count     int
	autoFlush bool
}

// NewBatchWriter creates a new batch writer that will auto-flush when maxSize is reached
func (s *Store) NewBatchWriter(maxSize int) *BatchWriter {
	return &BatchWriter{
		store:     s,
		batch:     s.db.NewWriteBatch(),
		maxSize:   maxSize,
		autoFlush: true,
	}
}

// AddProduct adds an attributed product to the batch.
// If autoFlush is enabled and the batch reaches maxSize, it flushes automatically.
func (b *BatchWriter) AddProduct(ctx context.Context, p *domain.AttributedProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	key := []byte(productPrefix + p.SKU)
	if err := b.batch.Set(key, data); err != nil {
		return fmt.Errorf("batch set product: %w", err)
	}

	b.count++

	// Auto-flush if batch is full
	if b.autoFlush && b.count >= b.maxSize {
		if err := b.Flush(); err != nil {
			return fmt.Errorf("auto flush: %w", err)
		}
	}

	return nil
}

// Flush commits all pending writes in the batch
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil // Nothing to flush
	}

	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelInfo, "batch flushed",
			slog.Int("count", b.count),
		)
	}

	// Reset for next batch
	b.count = 0
	b.batch = b.store.db.NewWriteBatch()

	return nil
}

// Cancel discards all pending writes in the batch
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
	b.count = 0
}

// Count returns the number of operations in the current batch
func (b *BatchWriter) Count() int {
	return b.count
}
