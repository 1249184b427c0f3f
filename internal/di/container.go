// Package di provides dependency injection configuration for the catalog server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/config"
	"github.com/GadCoder/Ripley-Scrapper/internal/di/providers"
	"github.com/GadCoder/Ripley-Scrapper/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvidePriceHistory)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once they are running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.PriceHistoryHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Backfill the search index from the store after a mapping bump
	providers.ReindexIfEmpty(injector)

	return nil
}
