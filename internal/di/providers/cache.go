package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/cache"
	"github.com/classdeskapp/classdesk-server/internal/config"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// CacheHandle wraps the Badger preview cache and its GC loop.
type CacheHandle struct {
	*cache.Store
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.cancel()
	return h.Close()
}

// ProvideCache opens the preview cache and starts value log GC.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	kv, err := cache.Open(cfg.Data.CachePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go kv.RunGC(ctx, cacheGCInterval)

	return &CacheHandle{Store: kv, cancel: cancel}, nil
}

// ProvidePreviewCache provides the bucket holding generated plan previews.
func ProvidePreviewCache(i do.Injector) (*service.PreviewCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	return cache.NewBucket[service.Preview](cacheHandle.Store, "preview:", cfg.Planner.PreviewTTL), nil
}
