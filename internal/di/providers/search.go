package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/config"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/search"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.BookIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve book index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewBookIndex(search.Options{
		Path:   cfg.Data.IndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{BookIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when its
// document count disagrees with the catalog, e.g. after the index directory
// was removed or a crash skipped an update.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	books, err := catalog.ListBooks(context.Background())
	if err != nil {
		log.Warn("skipping search index check", "error", err)
		return
	}
	indexed, err := catalog.IndexedCount()
	if err == nil && indexed == uint64(len(books)) {
		return
	}

	log.Info("search index out of sync with catalog, reindexing",
		"books", len(books), "indexed", indexed)

	go func() {
		n, err := catalog.Reindex(context.Background())
		if err != nil {
			log.Error("search reindex failed", "error", err)
			return
		}
		log.Info("search reindex completed", "documents", n)
	}()
}
