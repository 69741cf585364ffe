// Package di provides dependency injection configuration for the ClassDesk server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/config"
	"github.com/classdeskapp/classdesk-server/internal/di/providers"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvidePreviewCache)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Business services
	do.Provide(injector, providers.ProvideOwnerService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAllocationService)
	do.Provide(injector, providers.ProvideCalendarService)
	do.Provide(injector, providers.ProvidePlanService)
	do.Provide(injector, providers.ProvideLessonService)

	return injector
}

// NewServerContainer is NewContainer plus the HTTP server.
func NewServerContainer() *do.RootScope {
	injector := NewContainer()
	do.Provide(injector, providers.ProvideHTTPServer)
	return injector
}

// Bootstrap initializes the core services.
// This triggers lazy initialization so configuration and storage errors
// surface before anything listens.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*slog.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*service.PreviewCache](injector)

	// Business services
	_ = do.MustInvoke[*service.OwnerService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.AllocationService](injector)
	_ = do.MustInvoke[*service.CalendarService](injector)
	if _, err := do.Invoke[*service.PlanService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.LessonService](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

// StartServer starts the HTTP server registered by NewServerContainer.
func StartServer(injector *do.RootScope) error {
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
