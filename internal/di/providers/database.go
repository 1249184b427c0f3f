package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/config"
	"github.com/GadCoder/Ripley-Scrapper/internal/logger"
	"github.com/GadCoder/Ripley-Scrapper/internal/pricehistory"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the product database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// PriceHistoryHandle wraps the price history store with shutdown capability.
type PriceHistoryHandle struct {
	*pricehistory.Store
}

// Shutdown implements do.Shutdownable.
func (h *PriceHistoryHandle) Shutdown() error {
	return h.Close()
}

// ProvidePriceHistory provides the SQLite price history store.
func ProvidePriceHistory(i do.Injector) (*PriceHistoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "prices.db")
	db, err := pricehistory.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	count, _ := db.CountObservations(context.Background())
	log.Info("Price history initialized", "path", dbPath, "observations", count)

	return &PriceHistoryHandle{Store: db}, nil
}
