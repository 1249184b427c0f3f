package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/GadCoder/Ripley-Scrapper/internal/config"
	"github.com/GadCoder/Ripley-Scrapper/internal/logger"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve product search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ReindexIfEmpty backfills the search index from the store when the
// index is empty but products exist, e.g. after a mapping version bump
// discarded the old index. Should be called after all services are wired.
func ReindexIfEmpty(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	products, err := storeHandle.ListProducts(ctx)
	if err != nil || len(products) == 0 {
		return
	}

	log.Info("Search index is empty but products exist, reindexing",
		"product_count", len(products),
	)

	go func() {
		if err := indexHandle.IndexProducts(products); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Search reindex completed", "documents", count)
	}()
}
