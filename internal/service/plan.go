package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/classdeskapp/classdesk-server/internal/cache"
	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// WarningLookaheadExhausted is reported when an extend run could not place
// every requested session within the lookahead window.
const WarningLookaheadExhausted planner.WarningCode = "lookahead_exhausted"

// PreviewCache holds generated plans until they are saved or expire.
type PreviewCache = cache.Bucket[Preview]

// previewPrefix is the key prefix of every preview belonging to an owner.
func previewPrefix(ownerID string) string {
	return ownerID + ":"
}

// PlanRequest selects the months of a generation run.
type PlanRequest struct {
	Year   int `json:"year" validate:"gte=2000,lte=2100"`
	Month  int `json:"month" validate:"gte=1,lte=12"`
	Months int `json:"months,omitempty" validate:"gte=0,lte=12"`
}

func (r PlanRequest) keys() []domain.MonthKey {
	n := max(r.Months, 1)
	keys := make([]domain.MonthKey, 0, n)
	k := domain.MonthKey{Year: r.Year, Month: time.Month(r.Month)}
	for range n {
		keys = append(keys, k)
		k = k.Next()
	}
	return keys
}

// SaveRequest persists a plan. With a PreviewID the cached preview is saved
// as shown; otherwise the months in PlanRequest are generated afresh.
type SaveRequest struct {
	PlanRequest
	PreviewID string `json:"preview_id,omitempty"`
}

// ExtendRequest appends Count sessions after the latest saved lesson, or
// from From when that is later.
type ExtendRequest struct {
	Count int    `json:"count" validate:"required,gte=1,lte=500"`
	From  string `json:"from,omitempty" validate:"omitempty,isodate"`
}

// Preview is a generated but unsaved plan.
type Preview struct {
	ID        string                   `json:"id"`
	OwnerID   string                   `json:"owner_id"`
	RunID     string                   `json:"run_id"`
	From      civil.Date               `json:"from"`
	To        civil.Date               `json:"to"`
	BaseCount int                      `json:"base_count"` // Saved lessons before From when generated
	Lessons   []domain.Lesson          `json:"lessons"`
	Progress  map[string]domain.Cursor `json:"progress"`
	Capacity  []planner.Capacity       `json:"capacity"`
	Warnings  []planner.Warning        `json:"warnings,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// SaveResult describes a persisted run.
type SaveResult struct {
	RunID    string             `json:"run_id"`
	From     civil.Date         `json:"from"`
	To       civil.Date         `json:"to"`
	Lessons  []domain.Lesson    `json:"lessons"`
	Replaced int                `json:"replaced"` // Previously saved lessons removed from the range
	Capacity []planner.Capacity `json:"capacity,omitempty"`
	Warnings []planner.Warning  `json:"warnings,omitempty"`
}

// PlanOptions configures the plan service.
type PlanOptions struct {
	PreviewTTL      time.Duration
	LookaheadMonths int
	Location        *time.Location
	Ordering        planner.Ordering
}

// PlanService generates, previews and saves lesson plans.
type PlanService struct {
	store     store.Store
	calendar  *CalendarService
	previews  *PreviewCache
	events    EventEmitter
	logger    *slog.Logger
	validator *validation.Validator
	locks     *ownerLocks
	opts      PlanOptions
}

// NewPlanService creates a plan service.
func NewPlanService(st store.Store, calendar *CalendarService, previews *PreviewCache, events EventEmitter, opts PlanOptions, logger *slog.Logger) *PlanService {
	if events == nil {
		events = NoopEmitter{}
	}
	if opts.LookaheadMonths < 1 {
		opts.LookaheadMonths = 24
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Ordering == nil {
		opts.Ordering = planner.ByPriority
	}
	return &PlanService{
		store:     st,
		calendar:  calendar,
		previews:  previews,
		events:    events,
		logger:    logger,
		validator: validation.New(),
		locks:     newOwnerLocks(),
		opts:      opts,
	}
}

// Preview generates a plan for the requested months and caches it for Save.
func (s *PlanService) Preview(ctx context.Context, ownerID string, req PlanRequest) (*Preview, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	p, err := s.generate(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	previewID, err := id.Generate(id.PrefixPreview)
	if err != nil {
		return nil, fmt.Errorf("generate preview ID: %w", err)
	}
	p.ID = previewID
	p.CreatedAt = time.Now()
	p.ExpiresAt = p.CreatedAt.Add(s.opts.PreviewTTL)

	if err := s.previews.Put(ctx, previewPrefix(ownerID)+previewID, p); err != nil {
		return nil, fmt.Errorf("cache preview: %w", err)
	}

	s.logger.Info("plan previewed",
		"owner_id", ownerID,
		"preview_id", previewID,
		"run_id", p.RunID,
		"from", p.From.String(),
		"to", p.To.String(),
		"lessons", len(p.Lessons),
		"warnings", len(p.Warnings),
	)
	return p, nil
}

// GetPreview returns a cached preview without consuming it.
func (s *PlanService) GetPreview(ctx context.Context, ownerID, previewID string) (*Preview, error) {
	if !id.HasPrefix(previewID, id.PrefixPreview) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"preview_id": "not a preview id",
		})
	}
	p, err := s.previews.Get(ctx, previewPrefix(ownerID)+previewID)
	if errors.Is(err, cache.ErrMiss) {
		return nil, domainerrors.PreviewExpired("preview not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("load preview: %w", err)
	}
	return p, nil
}

// Save persists a plan.
//
// Saved lessons dated inside the run's range are replaced, the owner's whole
// history is resequenced, and new lessons become saved. Runs for one owner
// are serialized.
func (s *PlanService) Save(ctx context.Context, ownerID string, req SaveRequest) (*SaveResult, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	var (
		p   *Preview
		err error
	)
	if req.PreviewID != "" {
		p, err = s.previews.Take(ctx, previewPrefix(ownerID)+req.PreviewID)
		if errors.Is(err, cache.ErrMiss) {
			return nil, domainerrors.PreviewExpired("preview not found or expired; generate it again")
		}
		if err != nil {
			return nil, fmt.Errorf("load preview: %w", err)
		}
	} else {
		if err := s.validator.Validate(req.PlanRequest); err != nil {
			return nil, err
		}
		if p, err = s.generate(ctx, ownerID, req.PlanRequest); err != nil {
			return nil, err
		}
	}

	existing, err := s.store.ListLessons(ctx, ownerID, store.DateRange{})
	if err != nil {
		return nil, fromStore(err, "lessons")
	}

	span := store.DateRange{From: p.From, To: p.To}
	kept := slices.DeleteFunc(slices.Clone(existing), func(l domain.Lesson) bool {
		return span.Contains(l.Date)
	})
	before := 0
	for _, l := range kept {
		if l.Date.Before(p.From) {
			before++
		}
	}
	if req.PreviewID != "" && before != p.BaseCount {
		return nil, domainerrors.Conflictf("lessons before %s changed since the preview was generated", p.From)
	}

	fresh := make([]domain.Lesson, len(p.Lessons))
	for i, l := range p.Lessons {
		if err := l.Transition(domain.LessonSaved); err != nil {
			return nil, domainerrors.InvalidTransitionf("lesson %s: %v", l.ID, err)
		}
		fresh[i] = l
	}

	merged := planner.Resequence(append(kept, fresh...))
	if err := planner.CheckContiguity(merged); err != nil {
		return nil, fromPlanner(err)
	}
	if err := s.store.ReplaceOwnerLessons(ctx, ownerID, merged); err != nil {
		return nil, fromStore(err, "lessons")
	}

	saved := lessonsOfRun(merged, p.RunID)
	replaced := len(existing) - len(kept)

	s.events.Emit(sse.NewPlanSavedEvent(sse.PlanEventData{
		OwnerID: ownerID,
		RunID:   p.RunID,
		From:    p.From,
		To:      p.To,
		Count:   len(saved),
	}))

	s.logger.Info("plan saved",
		"owner_id", ownerID,
		"run_id", p.RunID,
		"from", p.From.String(),
		"to", p.To.String(),
		"lessons", len(saved),
		"replaced", replaced,
		"from_preview", req.PreviewID != "",
	)

	return &SaveResult{
		RunID:    p.RunID,
		From:     p.From,
		To:       p.To,
		Lessons:  saved,
		Replaced: replaced,
		Capacity: p.Capacity,
		Warnings: p.Warnings,
	}, nil
}

// Extend appends sessions after the owner's latest saved lesson.
//
// Every allocated book takes part regardless of its monthly counts, cycling
// in priority order. Months are searched up to the lookahead limit; a
// shortfall is reported as a warning, not an error.
func (s *PlanService) Extend(ctx context.Context, ownerID string, req ExtendRequest) (*SaveResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(ownerID)
	defer unlock()

	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "owner")
	}
	if err := requireWeekdays(owner); err != nil {
		return nil, err
	}

	allocs, err := s.store.ListAllocations(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "allocations")
	}
	if len(allocs) == 0 {
		return nil, domainerrors.InvalidConfiguration("owner has no allocated books")
	}
	books, err := s.booksFor(ctx, allocs)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListLessons(ctx, ownerID, store.DateRange{})
	if err != nil {
		return nil, fromStore(err, "lessons")
	}

	// Sessions start after the latest lesson, or on From when that is later.
	// Without either, they start today.
	var after civil.Date
	startOrder := 0
	if n := len(history); n > 0 {
		after = history[n-1].Date
		startOrder = history[n-1].DisplayOrder
	}
	switch {
	case req.From != "":
		from, err := civil.Parse(req.From)
		if err != nil {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"from": err.Error(),
			})
		}
		if from.AddDays(-1).After(after) {
			after = from.AddDays(-1)
		}
	case after.IsZero():
		after = civil.Today(s.opts.Location).AddDays(-1)
	}

	start := after.AddDays(1)
	keys := make([]domain.MonthKey, s.opts.LookaheadMonths)
	k := domain.MonthKey{Year: start.Year, Month: start.Month}
	for i := range keys {
		keys[i] = k
		k = k.Next()
	}

	resolved, err := s.calendar.resolveMonths(ctx, owner, keys, false)
	if err != nil {
		return nil, err
	}

	fill := fillAllocations(allocs)
	months := make([]planner.MonthPlan, len(keys))
	for i, k := range keys {
		months[i] = planner.MonthPlan{
			Year:        k.Year,
			Month:       k.Month,
			Allocations: fill,
			Days:        resolved[i],
			Fill:        true,
		}
	}

	result, err := planner.Generate(planner.Input{
		OwnerID:         ownerID,
		Months:          months,
		SlotsPerDay:     owner.SlotsPerDay,
		Books:           books,
		InitialProgress: planner.ResumeProgress(history, books),
		StartOrder:      startOrder,
		After:           after,
		Limit:           req.Count,
		Ordering:        s.opts.Ordering,
	})
	if err != nil {
		return nil, fromPlanner(err)
	}

	warnings := result.Warnings
	if dealt := result.Dealt(); dealt < req.Count {
		warnings = append(warnings, planner.Warning{
			Code: WarningLookaheadExhausted,
			Message: fmt.Sprintf("only %d of %d sessions fit within %d months after %s",
				dealt, req.Count, s.opts.LookaheadMonths, after),
		})
	}
	if len(result.Lessons) == 0 {
		return &SaveResult{From: start, Warnings: warnings}, nil
	}

	runID := uuid.NewString()
	if err := stampRun(result.Lessons, runID); err != nil {
		return nil, err
	}
	for i := range result.Lessons {
		if err := result.Lessons[i].Transition(domain.LessonSaved); err != nil {
			return nil, domainerrors.InvalidTransitionf("lesson %s: %v", result.Lessons[i].ID, err)
		}
	}

	merged := planner.Resequence(append(history, result.Lessons...))
	if err := s.store.ReplaceOwnerLessons(ctx, ownerID, merged); err != nil {
		return nil, fromStore(err, "lessons")
	}
	saved := lessonsOfRun(merged, runID)
	from, to := saved[0].Date, saved[len(saved)-1].Date

	s.events.Emit(sse.NewPlanExtendedEvent(sse.PlanEventData{
		OwnerID: ownerID,
		RunID:   runID,
		From:    from,
		To:      to,
		Count:   len(saved),
	}))

	s.logger.Info("plan extended",
		"owner_id", ownerID,
		"run_id", runID,
		"requested", req.Count,
		"dealt", result.Dealt(),
		"from", from.String(),
		"to", to.String(),
	)

	return &SaveResult{
		RunID:    runID,
		From:     from,
		To:       to,
		Lessons:  saved,
		Capacity: result.Capacity,
		Warnings: warnings,
	}, nil
}

// generate runs the planner for the requested months without saving.
func (s *PlanService) generate(ctx context.Context, ownerID string, req PlanRequest) (*Preview, error) {
	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "owner")
	}
	if err := requireWeekdays(owner); err != nil {
		return nil, err
	}

	keys := req.keys()
	resolved, err := s.calendar.resolveMonths(ctx, owner, keys, true)
	if err != nil {
		return nil, err
	}

	first, last := keys[0], keys[len(keys)-1]
	from := civil.FirstOfMonth(first.Year, first.Month)
	if days := resolved[0]; len(days) > 0 && days[0].Date.Before(from) {
		from = days[0].Date
	}
	to := civil.LastOfMonth(last.Year, last.Month)

	allocs, err := s.store.ListAllocations(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "allocations")
	}
	books, err := s.booksFor(ctx, allocs)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListLessons(ctx, ownerID, store.DateRange{To: from.AddDays(-1)})
	if err != nil {
		return nil, fromStore(err, "lessons")
	}
	startOrder := 0
	if n := len(history); n > 0 {
		startOrder = history[n-1].DisplayOrder
	}

	months := make([]planner.MonthPlan, len(keys))
	for i, k := range keys {
		months[i] = planner.MonthPlan{
			Year:        k.Year,
			Month:       k.Month,
			Allocations: monthAllocations(allocs, k),
			Days:        resolved[i],
		}
	}

	result, err := planner.Generate(planner.Input{
		OwnerID:         ownerID,
		Months:          months,
		SlotsPerDay:     owner.SlotsPerDay,
		Books:           books,
		InitialProgress: planner.ResumeProgress(history, books),
		StartOrder:      startOrder,
		Ordering:        s.opts.Ordering,
	})
	if err != nil {
		return nil, fromPlanner(err)
	}

	runID := uuid.NewString()
	if err := stampRun(result.Lessons, runID); err != nil {
		return nil, err
	}

	return &Preview{
		OwnerID:   ownerID,
		RunID:     runID,
		From:      from,
		To:        to,
		BaseCount: len(history),
		Lessons:   result.Lessons,
		Progress:  result.Progress,
		Capacity:  result.Capacity,
		Warnings:  result.Warnings,
	}, nil
}

// requireWeekdays rejects owners without class weekdays. It runs before any
// month is resolved.
func requireWeekdays(owner *domain.Owner) error {
	if len(owner.Weekdays) > 0 {
		return nil
	}
	reason := "a class needs at least one class weekday"
	if owner.IsPrivate() {
		reason = "a private learner needs at least one lesson weekday"
	}
	return domainerrors.InvalidConfiguration("owner has no class weekdays").WithDetails(map[string]string{
		"field":  "weekdays",
		"reason": reason,
	})
}

// booksFor loads the books referenced by allocs, keyed by ID.
func (s *PlanService) booksFor(ctx context.Context, allocs []*domain.Allocation) (map[string]domain.Book, error) {
	ids := make([]string, 0, len(allocs))
	for _, a := range allocs {
		ids = append(ids, a.BookID)
	}
	list, err := s.store.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fromStore(err, "books")
	}
	books := make(map[string]domain.Book, len(list))
	for _, b := range list {
		books[b.ID] = *b
	}
	return books, nil
}

// stampRun assigns lesson IDs and the run ID to freshly generated lessons.
func stampRun(lessons []domain.Lesson, runID string) error {
	ids, err := id.GenerateN(id.PrefixLesson, len(lessons))
	if err != nil {
		return fmt.Errorf("generate lesson IDs: %w", err)
	}
	for i := range lessons {
		lessons[i].ID = ids[i]
		lessons[i].RunID = runID
	}
	return nil
}

func lessonsOfRun(lessons []domain.Lesson, runID string) []domain.Lesson {
	var out []domain.Lesson
	for _, l := range lessons {
		if l.RunID == runID {
			out = append(out, l)
		}
	}
	return out
}
