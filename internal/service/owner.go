package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/id"
	"github.com/classdeskapp/classdesk-server/internal/planner"
	"github.com/classdeskapp/classdesk-server/internal/store"
	"github.com/classdeskapp/classdesk-server/internal/validation"
)

// CreateOwnerRequest describes a new class or private learner.
type CreateOwnerRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Kind        string   `json:"kind" validate:"required,oneof=class private"`
	Weekdays    []string `json:"weekdays" validate:"dive,weekday"`
	SlotsPerDay int      `json:"slots_per_day" validate:"gte=0,lte=12"`
}

// UpdateOwnerRequest changes an owner. Nil fields are left as they are.
type UpdateOwnerRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Weekdays    []string `json:"weekdays,omitempty" validate:"omitempty,dive,weekday"`
	SlotsPerDay *int     `json:"slots_per_day,omitempty" validate:"omitempty,gte=1,lte=12"`
}

// OwnerService manages classes and private learners.
type OwnerService struct {
	store        store.Store
	previews     *PreviewCache
	logger       *slog.Logger
	validator    *validation.Validator
	defaultSlots int
}

// NewOwnerService creates an owner service. defaultSlots is used when a
// request does not specify slots per day.
func NewOwnerService(st store.Store, previews *PreviewCache, defaultSlots int, logger *slog.Logger) *OwnerService {
	return &OwnerService{
		store:        st,
		previews:     previews,
		logger:       logger,
		validator:    validation.New(),
		defaultSlots: max(defaultSlots, 1),
	}
}

// CreateOwner validates and persists a new owner.
func (s *OwnerService) CreateOwner(ctx context.Context, req CreateOwnerRequest) (*domain.Owner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	weekdays, err := planner.CanonicalWeekdays(req.Weekdays)
	if err != nil {
		return nil, fromPlanner(err)
	}

	ownerID, err := id.Generate(id.PrefixOwner)
	if err != nil {
		return nil, fmt.Errorf("generate owner ID: %w", err)
	}

	slots := req.SlotsPerDay
	if slots == 0 {
		slots = s.defaultSlots
	}

	owner := &domain.Owner{
		ID:          ownerID,
		Name:        strings.TrimSpace(req.Name),
		Kind:        domain.OwnerKind(req.Kind),
		Weekdays:    weekdays,
		SlotsPerDay: slots,
	}
	owner.InitTimestamps()

	if err := s.store.CreateOwner(ctx, owner); err != nil {
		return nil, fromStore(err, "owner")
	}

	s.logger.Info("owner created",
		"owner_id", owner.ID,
		"kind", owner.Kind,
		"weekdays", strings.Join(owner.Weekdays, ","),
		"slots_per_day", owner.SlotsPerDay,
	)
	return owner, nil
}

// GetOwner returns an owner by ID.
func (s *OwnerService) GetOwner(ctx context.Context, ownerID string) (*domain.Owner, error) {
	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "owner")
	}
	return owner, nil
}

// ListOwners returns every owner.
func (s *OwnerService) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return nil, fromStore(err, "owners")
	}
	return owners, nil
}

// UpdateOwner applies the non-nil fields of req. Changing the schedule
// invalidates the owner's cached previews.
func (s *OwnerService) UpdateOwner(ctx context.Context, ownerID string, req UpdateOwnerRequest) (*domain.Owner, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	owner, err := s.store.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, fromStore(err, "owner")
	}

	if req.Name != nil {
		owner.Name = strings.TrimSpace(*req.Name)
	}
	if req.Weekdays != nil {
		weekdays, err := planner.CanonicalWeekdays(req.Weekdays)
		if err != nil {
			return nil, fromPlanner(err)
		}
		owner.Weekdays = weekdays
	}
	if req.SlotsPerDay != nil {
		owner.SlotsPerDay = *req.SlotsPerDay
	}
	owner.Touch()

	if err := s.store.UpdateOwner(ctx, owner); err != nil {
		return nil, fromStore(err, "owner")
	}
	s.discardPreviews(ctx, ownerID)

	s.logger.Info("owner updated", "owner_id", ownerID)
	return owner, nil
}

// DeleteOwner removes an owner along with its allocations, scoped calendar
// entries and lessons.
func (s *OwnerService) DeleteOwner(ctx context.Context, ownerID string) error {
	if err := s.store.DeleteOwner(ctx, ownerID); err != nil {
		return fromStore(err, "owner")
	}
	s.discardPreviews(ctx, ownerID)

	s.logger.Info("owner deleted", "owner_id", ownerID)
	return nil
}

func (s *OwnerService) discardPreviews(ctx context.Context, ownerID string) {
	if s.previews == nil {
		return
	}
	n, err := s.previews.DeletePrefix(ctx, previewPrefix(ownerID))
	if err != nil {
		s.logger.Warn("failed to discard previews", "owner_id", ownerID, "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("discarded previews", "owner_id", ownerID, "count", n)
	}
}
