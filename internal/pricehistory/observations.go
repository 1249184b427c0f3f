package pricehistory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
)

// Run identifies one recorded scrape or grouping run.
type Run struct {
	ID           string
	Category     string
	RecordedAt   time.Time
	ProductCount int
}

// Observation is one product's price tiers at one run.
type Observation struct {
	RunID         string
	SKU           string
	Title         string
	Brand         string
	NormalPrice   *float64
	InternetPrice *float64
	RipleyPrice   *float64
	RecordedAt    time.Time
}

// PriceDrop is a decrease in internet price for one SKU between the two
// most recent runs of a category.
type PriceDrop struct {
	SKU           string  `json:"sku"`
	Title         string  `json:"title"`
	Brand         string  `json:"brand"`
	PreviousPrice float64 `json:"previous_price"`
	CurrentPrice  float64 `json:"current_price"`
	DropAmount    float64 `json:"drop_amount"`
	DropPercent   float64 `json:"drop_percent"`
}

// observationColumns is the ordered list of columns selected in history
// queries. Must match the scan order in scanObservation.
const observationColumns = `o.run_id, o.sku, o.title, o.brand, o.normal_price, o.internet_price, o.ripley_price, r.recorded_at`

// scanObservation scans a joined observations/runs row.
func scanObservation(scanner interface{ Scan(dest ...any) error }) (*Observation, error) {
	var o Observation

	var (
		normal     sql.NullFloat64
		internet   sql.NullFloat64
		ripley     sql.NullFloat64
		recordedAt string
	)

	err := scanner.Scan(
		&o.RunID,
		&o.SKU,
		&o.Title,
		&o.Brand,
		&normal,
		&internet,
		&ripley,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	o.NormalPrice = floatPtr(normal)
	o.InternetPrice = floatPtr(internet)
	o.RipleyPrice = floatPtr(ripley)

	o.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// RecordRun stores the run row and one observation per product in a
// single transaction. Duplicate SKUs within the batch are last-wins,
// matching the key-value store. Returns an already exists error when
// the run ID was recorded before.
func (s *Store) RecordRun(ctx context.Context, run Run, products []domain.AttributedProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, category, recorded_at, product_count)
		VALUES (?, ?, ?, ?)`,
		run.ID,
		run.Category,
		formatTime(run.RecordedAt),
		len(products),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domainerrors.AlreadyExists(fmt.Sprintf("run %s already recorded", run.ID))
		}
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO observations
			(run_id, sku, title, brand, normal_price, internet_price, ripley_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for i := range products {
		p := &products[i]
		_, err := stmt.ExecContext(ctx,
			run.ID,
			p.SKU,
			p.Title,
			p.Brand,
			nullableFloat(p.NormalPrice),
			nullableFloat(p.InternetPrice),
			nullableFloat(p.RipleyPrice),
		)
		if err != nil {
			return fmt.Errorf("insert observation %s: %w", p.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("price run recorded",
			"run_id", run.ID,
			"category", run.Category,
			"observations", len(products),
		)
	}
	return nil
}

// History returns the observations for a SKU, newest first.
// A SKU with no history returns an empty slice, not an error.
func (s *Store) History(ctx context.Context, sku string, limit int) ([]Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM observations o
		JOIN runs r ON r.id = o.run_id
		WHERE o.sku = ?
		ORDER BY r.recorded_at DESC
		LIMIT ?`,
		sku, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := make([]Observation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *o)
	}
	return history, rows.Err()
}

// BiggestDrops compares the two most recent runs of a category and
// returns the SKUs whose internet price fell, biggest absolute drop
// first. With fewer than two recorded runs the result is empty.
func (s *Store) BiggestDrops(ctx context.Context, category string, limit int) ([]PriceDrop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	runIDs, err := s.recentRunIDs(ctx, category, 2)
	if err != nil {
		return nil, err
	}
	if len(runIDs) < 2 {
		return []PriceDrop{}, nil
	}
	currentRun, previousRun := runIDs[0], runIDs[1]

	rows, err := s.db.QueryContext(ctx, `
		SELECT cur.sku, cur.title, cur.brand, prev.internet_price, cur.internet_price
		FROM observations cur
		JOIN observations prev ON prev.sku = cur.sku AND prev.run_id = ?
		WHERE cur.run_id = ?
		  AND cur.internet_price IS NOT NULL
		  AND prev.internet_price IS NOT NULL
		  AND prev.internet_price > 0
		  AND cur.internet_price < prev.internet_price
		ORDER BY (prev.internet_price - cur.internet_price) DESC
		LIMIT ?`,
		previousRun, currentRun, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query drops: %w", err)
	}
	defer rows.Close()

	drops := make([]PriceDrop, 0)
	for rows.Next() {
		var d PriceDrop
		if err := rows.Scan(&d.SKU, &d.Title, &d.Brand, &d.PreviousPrice, &d.CurrentPrice); err != nil {
			return nil, err
		}
		d.DropAmount = d.PreviousPrice - d.CurrentPrice
		d.DropPercent = d.DropAmount / d.PreviousPrice * 100
		drops = append(drops, d)
	}
	return drops, rows.Err()
}

// LatestRun returns the most recent run for a category.
func (s *Store) LatestRun(ctx context.Context, category string) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, recorded_at, product_count
		FROM runs
		WHERE category = ?
		ORDER BY recorded_at DESC
		LIMIT 1`,
		category,
	)

	var r Run
	var recordedAt string
	err := row.Scan(&r.ID, &r.Category, &recordedAt, &r.ProductCount)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("no runs recorded for category %s", category)
	}
	if err != nil {
		return nil, err
	}

	r.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountObservations returns the total number of stored observations.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&count)
	return count, err
}

// recentRunIDs returns the newest run IDs for a category, newest first.
func (s *Store) recentRunIDs(ctx context.Context, category string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE category = ?
		ORDER BY recorded_at DESC
		LIMIT ?`,
		category, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
