package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// CreateHolidayRequest describes a holiday. An empty owner list makes it global.
type CreateHolidayRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Start    string   `json:"start" validate:"required,isodate"`
	End      string   `json:"end" validate:"required,isodate"`
	OwnerIDs []string `json:"owner_ids,omitempty" validate:"omitempty,dive,required"`
}

// CreateOverrideRequest forces the status of a single date.
type CreateOverrideRequest struct {
	Date         string `json:"date" validate:"required,isodate"`
	Kind         string `json:"kind" validate:"required,oneof=no_class makeup school_event"`
	SessionCount int    `json:"session_count,omitempty" validate:"gte=0,lte=12"`
	Label        string `json:"label,omitempty" validate:"max=200"`
	OwnerID      string `json:"owner_id,omitempty"`
}

// MonthCalendar is the resolved class-day view of one month for one owner.
type MonthCalendar struct {
	OwnerID     string        `json:"owner_id"`
	Year        int           `json:"year"`
	Month       time.Month    `json:"month"`
	Weekdays    []string      `json:"weekdays"`
	SlotsPerDay int           `json:"slots_per_day"`
	Days        []CalendarDay `json:"days"`
	Slots       int           `json:"slots"`
	Reserved    int           `json:"reserved"`
}

// CalendarDay is a resolved class day labelled with its weekday.
type CalendarDay struct {
	planner.Day
	Weekday string `json:"weekday"`
}

// CalendarService manages holidays and overrides and resolves class days.
type CalendarService struct {
	store          store.Store
	previews       *PreviewCache
	logger         *slog.Logger
	validator      *validation.Validator
	alignFirstWeek bool
}

// NewCalendarService creates a calendar service. alignFirstWeek makes the
// first month of every generation run start on the Sunday of its first week.
func NewCalendarService(st store.Store, previews *PreviewCache, alignFirstWeek bool, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		store:          st,
		previews:       previews,
		logger:         logger,
		validator:      validation.New(),
		alignFirstWeek: alignFirstWeek,
	}
}

// CreateHoliday adds a holiday.
func (s *CalendarService) CreateHoliday(ctx context.Context, req CreateHolidayRequest) (*domain.Holiday, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	start, _ := civil.Parse(req.Start)
	end, _ := civil.Parse(req.End)

	owners := slices.Compact(slices.Sorted(slices.Values(req.OwnerIDs)))
	for _, ownerID := range owners {
		if _, err := s.store.GetOwner(ctx, ownerID); err != nil {
			return nil, fromStore(err, "owner")
		}
	}

	holidayID, err := id.Generate(id.PrefixHoliday)
	if err != nil {
		return nil, fmt.Errorf("generate holiday ID: %w", err)
	}

	h := &domain.Holiday{
		ID:       holidayID,
		Name:     strings.TrimSpace(req.Name),
		Start:    start,
		End:      end,
		OwnerIDs: owners,
	}
	if err := h.Validate(); err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"end": "must not be before start",
		})
	}
	h.InitTimestamps()

	if err := s.store.CreateHoliday(ctx, h); err != nil {
		return nil, fromStore(err, "holiday")
	}
	s.discardPreviews(ctx, h.OwnerIDs)

	s.logger.Info("holiday created",
		"holiday_id", h.ID,
		"start", h.Start.String(),
		"end", h.End.String(),
		"days", h.Days(),
		"owners", len(h.OwnerIDs),
	)
	return h, nil
}

// GetHoliday returns a holiday by ID.
func (s *CalendarService) GetHoliday(ctx context.Context, holidayID string) (*domain.Holiday, error) {
	h, err := s.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return nil, fromStore(err, "holiday")
	}
	return h, nil
}

// ListHolidays returns holidays overlapping r.
func (s *CalendarService) ListHolidays(ctx context.Context, r store.DateRange) ([]*domain.Holiday, error) {
	hs, err := s.store.ListHolidays(ctx, r)
	if err != nil {
		return nil, fromStore(err, "holidays")
	}
	return hs, nil
}

// DeleteHoliday removes a holiday.
func (s *CalendarService) DeleteHoliday(ctx context.Context, holidayID string) error {
	h, err := s.store.GetHoliday(ctx, holidayID)
	if err != nil {
		return fromStore(err, "holiday")
	}
	if err := s.store.DeleteHoliday(ctx, holidayID); err != nil {
		return fromStore(err, "holiday")
	}
	s.discardPreviews(ctx, h.OwnerIDs)

	s.logger.Info("holiday deleted", "holiday_id", holidayID)
	return nil
}

// CreateOverride adds a calendar override. Each date holds at most one
// override per scope.
func (s *CalendarService) CreateOverride(ctx context.Context, req CreateOverrideRequest) (*domain.CalendarOverride, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	date, _ := civil.Parse(req.Date)
	kind := domain.OverrideKind(req.Kind)
	if kind != domain.OverrideSchoolEvent && req.SessionCount > 0 {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"session_count": "only applies to school_event overrides",
		})
	}

	if req.OwnerID != "" {
		if _, err := s.store.GetOwner(ctx, req.OwnerID); err != nil {
			return nil, fromStore(err, "owner")
		}
	}

	overrideID, err := id.Generate(id.PrefixOverride)
	if err != nil {
		return nil, fmt.Errorf("generate override ID: %w", err)
	}

	o := &domain.CalendarOverride{
		ID:           overrideID,
		Date:         date,
		Kind:         kind,
		SessionCount: req.SessionCount,
		Label:        strings.TrimSpace(req.Label),
		OwnerID:      req.OwnerID,
	}
	if kind == domain.OverrideSchoolEvent && o.SessionCount == 0 {
		o.SessionCount = 1
	}
	o.InitTimestamps()

	if err := s.store.CreateOverride(ctx, o); err != nil {
		return nil, fromStore(err, "override")
	}
	s.discardPreviews(ctx, ownerScope(o.OwnerID))

	s.logger.Info("calendar override created",
		"override_id", o.ID,
		"date", o.Date.String(),
		"kind", o.Kind,
		"owner_id", o.OwnerID,
	)
	return o, nil
}

// GetOverride returns an override by ID.
func (s *CalendarService) GetOverride(ctx context.Context, overrideID string) (*domain.CalendarOverride, error) {
	o, err := s.store.GetOverride(ctx, overrideID)
	if err != nil {
		return nil, fromStore(err, "override")
	}
	return o, nil
}

// ListOverrides returns overrides dated within r.
func (s *CalendarService) ListOverrides(ctx context.Context, r store.DateRange) ([]*domain.CalendarOverride, error) {
	overrides, err := s.store.ListOverrides(ctx, r)
	if err != nil {
		return nil, fromStore(err, "overrides")
	}
	return overrides, nil
}

// DeleteOverride removes an override.
func (s *CalendarService) DeleteOverride(ctx context.Context, overrideID string) error {
	o, err := s.store.GetOverride(ctx, overrideID)
	if err != nil {
		return fromStore(err, "override")
	}
	if err := s.store.DeleteOverride(ctx, overrideID); err != nil {
		return fromStore(err, "override")
	}
	s.discardPreviews(ctx, ownerScope(o.OwnerID))

	s.logger.Info("calendar override deleted", "override_id", overrideID)
	return nil
}

// ResolveMonth returns the class days of one month for an owner.
func (s *CalendarService) ResolveMonth(ctx context.Context, ownerID string, year int, month time.Month) (*MonthCalendar, error) {
	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "owner")
	}

	k := domain.MonthKey{Year: year, Month: month}
	if !k.Valid() {
		return nil, domainerrors.Validationf("invalid month %d-%d", year, int(month))
	}

	resolved, err := s.resolveMonths(ctx, owner, []domain.MonthKey{k}, false)
	if err != nil {
		return nil, err
	}

	days := resolved[0]
	total, reserved := planner.CountSlots(days, owner.SlotsPerDay)
	labelled := make([]CalendarDay, len(days))
	for i, d := range days {
		labelled[i] = CalendarDay{Day: d, Weekday: planner.DisplayWeekday(d.Date.Weekday())}
	}
	return &MonthCalendar{
		OwnerID:     owner.ID,
		Year:        year,
		Month:       month,
		Weekdays:    owner.Weekdays,
		SlotsPerDay: owner.SlotsPerDay,
		Days:        labelled,
		Slots:       total,
		Reserved:    reserved,
	}, nil
}

// resolveMonths resolves consecutive months for an owner with a single
// holiday and override lookup. When leading is set and the service aligns
// first weeks, the first month starts on the Sunday of its first week.
func (s *CalendarService) resolveMonths(ctx context.Context, owner *domain.Owner, keys []domain.MonthKey, leading bool) ([][]planner.Day, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	weekdays, err := planner.ParseWeekdays(owner.Weekdays)
	if err != nil {
		return nil, fromPlanner(err)
	}

	first, last := keys[0], keys[len(keys)-1]
	r := store.DateRange{
		From: civil.FirstOfMonth(first.Year, first.Month).WeekStart(),
		To:   civil.LastOfMonth(last.Year, last.Month),
	}

	holidays, err := s.store.ListHolidays(ctx, r)
	if err != nil {
		return nil, fromStore(err, "holidays")
	}
	overrides, err := s.store.ListOverrides(ctx, r)
	if err != nil {
		return nil, fromStore(err, "overrides")
	}

	q := planner.CalendarQuery{
		Weekdays:  weekdays,
		Holidays:  derefAll(holidays),
		Overrides: derefAll(overrides),
		ScopeID:   owner.ID,
	}

	out := make([][]planner.Day, len(keys))
	for i, k := range keys {
		q.Year, q.Month = k.Year, k.Month
		q.LeadingWeek = leading && i == 0 && s.alignFirstWeek
		days, err := planner.ResolveDays(q)
		if err != nil {
			return nil, fromPlanner(err)
		}
		out[i] = days
	}
	return out, nil
}

// discardPreviews drops cached previews of the given owners, or of every
// owner when the list is empty.
func (s *CalendarService) discardPreviews(ctx context.Context, ownerIDs []string) {
	if s.previews == nil {
		return
	}
	prefixes := []string{""}
	if len(ownerIDs) > 0 {
		prefixes = prefixes[:0]
		for _, ownerID := range ownerIDs {
			prefixes = append(prefixes, previewPrefix(ownerID))
		}
	}
	for _, p := range prefixes {
		if _, err := s.previews.DeletePrefix(ctx, p); err != nil {
			s.logger.Warn("failed to discard previews", "prefix", p, "error", err)
		}
	}
}

func ownerScope(ownerID string) []string {
	if ownerID == "" {
		return nil
	}
	return []string{ownerID}
}

func derefAll[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}
