// Package main seeds a ClassDesk database with a demo class, a private
// student, a small book catalog and their allocations.
//
// Usage:
//
//	DATA_PATH=~/classdesk go run ./cmd/seed
//	DATA_PATH=~/classdesk go run ./cmd/seed --seed-month 2025-09 --seed-months 3 --save-plan
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/di"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/service"
)

var (
	seedMonth  = flag.String("seed-month", "", "First month to allocate, YYYY-MM (default: next month)")
	seedMonths = flag.Int("seed-months", 3, "Number of months to allocate")
	savePlan   = flag.Bool("save-plan", false, "Generate and save the plan for the seeded months")
)

type demoBook struct {
	req      service.BookRequest
	priority int
	sessions int // per month
}

var classBooks = []demoBook{
	{service.BookRequest{Name: "Reading Explorer 1", UnitCount: 12, ReviewEvery: 2}, 1, 8},
	{service.BookRequest{Name: "Grammar in Use", UnitCount: 20, DaysPerUnit: 2}, 2, 6},
	{service.BookRequest{Name: "Phonics Readers", Scheme: "volume_day", LevelTag: "P2", DaysPerVolume: 4}, 3, 4},
}

var privateBooks = []demoBook{
	{service.BookRequest{Name: "Conversation Starters", UnitCount: 10, Granularity: "day"}, 1, 6},
}

func main() {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer injector.Shutdown() //nolint:errcheck

	log := do.MustInvoke[*logger.Logger](injector)

	start, err := firstMonth(*seedMonth)
	if err != nil {
		log.WithError(err).Fatal("Invalid --seed-month")
	}

	s := &seeder{
		owners:      do.MustInvoke[*service.OwnerService](injector),
		catalog:     do.MustInvoke[*service.CatalogService](injector),
		allocations: do.MustInvoke[*service.AllocationService](injector),
		calendar:    do.MustInvoke[*service.CalendarService](injector),
		plans:       do.MustInvoke[*service.PlanService](injector),
		log:         log,
	}

	if err := s.run(context.Background(), start, *seedMonths); err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	log.Info("Seeding complete")
}

func firstMonth(v string) (time.Time, error) {
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01", v)
}

type seeder struct {
	owners      *service.OwnerService
	catalog     *service.CatalogService
	allocations *service.AllocationService
	calendar    *service.CalendarService
	plans       *service.PlanService
	log         *logger.Logger
}

func (s *seeder) run(ctx context.Context, start time.Time, months int) error {
	class, err := s.owners.CreateOwner(ctx, service.CreateOwnerRequest{
		Name:        "Class 3A",
		Kind:        "class",
		Weekdays:    []string{"monday", "wednesday", "friday"},
		SlotsPerDay: 2,
	})
	if err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	student, err := s.owners.CreateOwner(ctx, service.CreateOwnerRequest{
		Name:        "Mina Park",
		Kind:        "private",
		Weekdays:    []string{"tuesday", "thursday"},
		SlotsPerDay: 1,
	})
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err := s.allocate(ctx, class.ID, classBooks, start, months); err != nil {
		return err
	}
	if err := s.allocate(ctx, student.ID, privateBooks, start, months); err != nil {
		return err
	}

	// A three-day break in the middle of the first month for everyone, and
	// a school event for the class.
	breakStart := start.AddDate(0, 0, 14)
	if _, err := s.calendar.CreateHoliday(ctx, service.CreateHolidayRequest{
		Name:  "Mid-term Break",
		Start: breakStart.Format(time.DateOnly),
		End:   breakStart.AddDate(0, 0, 2).Format(time.DateOnly),
	}); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	if _, err := s.calendar.CreateOverride(ctx, service.CreateOverrideRequest{
		Date:    start.AddDate(0, 0, 21).Format(time.DateOnly),
		Kind:    "school_event",
		Label:   "Sports Day",
		OwnerID: class.ID,
	}); err != nil {
		s.log.ForOwner(class.ID).WithError(err).Warn("Sports Day not added")
	}

	if !*savePlan {
		return nil
	}

	for _, ownerID := range []string{class.ID, student.ID} {
		res, err := s.plans.Save(ctx, ownerID, service.SaveRequest{
			PlanRequest: service.PlanRequest{Year: start.Year(), Month: int(start.Month()), Months: months},
		})
		if err != nil {
			return fmt.Errorf("save plan for %s: %w", ownerID, err)
		}
		s.log.ForOwner(ownerID).WithFields(map[string]any{
			"lessons":  len(res.Lessons),
			"warnings": len(res.Warnings),
		}).Info("Plan saved")
	}
	return nil
}

func (s *seeder) allocate(ctx context.Context, ownerID string, books []demoBook, start time.Time, months int) error {
	for _, b := range books {
		book, err := s.catalog.CreateBook(ctx, b.req)
		if err != nil {
			return fmt.Errorf("create book %q: %w", b.req.Name, err)
		}

		alloc, err := s.allocations.AssignBook(ctx, ownerID, service.AssignBookRequest{
			BookID:   book.ID,
			Priority: b.priority,
		})
		if err != nil {
			return fmt.Errorf("allocate %q: %w", b.req.Name, err)
		}

		for m := range months {
			month := start.AddDate(0, m, 0)
			if _, err := s.allocations.SetMonth(ctx, alloc.ID, service.SetMonthRequest{
				Year:     month.Year(),
				Month:    int(month.Month()),
				Sessions: b.sessions,
			}); err != nil {
				return fmt.Errorf("set %s sessions for %q: %w", month.Format("2006-01"), b.req.Name, err)
			}
		}
		s.log.ForOwner(ownerID).Info("Book allocated", "book", book.Name, "months", months)
	}
	return nil
}
