package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/config"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

// ProvideOwnerService provides the class and student service.
func ProvideOwnerService(i do.Injector) (*service.OwnerService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	previews := do.MustInvoke[*service.PreviewCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewOwnerService(storeHandle.Store, previews, cfg.Planner.DefaultSlotsPerDay, log.Logger), nil
}

// ProvideCatalogService provides the book catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, indexHandle.BookIndex, sseHandle.Manager, log.Logger), nil
}

// ProvideAllocationService provides the allocation service.
func ProvideAllocationService(i do.Injector) (*service.AllocationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	previews := do.MustInvoke[*service.PreviewCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAllocationService(storeHandle.Store, previews, log.Logger), nil
}

// ProvideCalendarService provides the holiday, override and month resolution service.
func ProvideCalendarService(i do.Injector) (*service.CalendarService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	previews := do.MustInvoke[*service.PreviewCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCalendarService(storeHandle.Store, previews, cfg.Planner.AlignFirstWeek, log.Logger), nil
}

// ProvidePlanService provides the preview, save and extend service.
func ProvidePlanService(i do.Injector) (*service.PlanService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	calendar := do.MustInvoke[*service.CalendarService](i)
	previews := do.MustInvoke[*service.PreviewCache](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	loc, err := cfg.Planner.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Planner.Timezone, err)
	}

	ordering := planner.ByPriority
	if cfg.Planner.TieBreak == "book" {
		ordering = planner.ByPriorityThenBook
	}

	return service.NewPlanService(storeHandle.Store, calendar, previews, sseHandle.Manager, service.PlanOptions{
		Ordering:        ordering,
		PreviewTTL:      cfg.Planner.PreviewTTL,
		LookaheadMonths: cfg.Planner.LookaheadMonths,
		Location:        loc,
	}, log.Logger), nil
}

// ProvideLessonService provides the manual adjustment service.
func ProvideLessonService(i do.Injector) (*service.LessonService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	plans := do.MustInvoke[*service.PlanService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLessonService(storeHandle.Store, plans, sseHandle.Manager, log.Logger), nil
}
