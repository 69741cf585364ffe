package sqlite

import (
	"context"
	"strings"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

// ownerColumns must match the db tags on ownerRow.
const ownerColumns = `id, created_at, updated_at, name, kind, weekdays, slots_per_day`

type ownerRow struct {
	ID          string `db:"id"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
	Name        string `db:"name"`
	Kind        string `db:"kind"`
	Weekdays    string `db:"weekdays"` // comma separated
	SlotsPerDay int    `db:"slots_per_day"`
}

func newOwnerRow(o *domain.Owner) ownerRow {
	return ownerRow{
		ID:          o.ID,
		CreatedAt:   formatTime(o.CreatedAt),
		UpdatedAt:   formatTime(o.UpdatedAt),
		Name:        o.Name,
		Kind:        string(o.Kind),
		Weekdays:    strings.Join(o.Weekdays, ","),
		SlotsPerDay: o.SlotsPerDay,
	}
}

func (r *ownerRow) toDomain() (*domain.Owner, error) {
	o := &domain.Owner{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        domain.OwnerKind(r.Kind),
		SlotsPerDay: r.SlotsPerDay,
		Weekdays:    []string{},
	}
	if r.Weekdays != "" {
		o.Weekdays = strings.Split(r.Weekdays, ",")
	}

	var err error
	if o.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOwner inserts a new owner.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateOwner(ctx context.Context, owner *domain.Owner) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES (:id, :created_at, :updated_at, :name, :kind, :weekdays, :slots_per_day)`,
		newOwnerRow(owner))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetOwner retrieves an owner by ID.
func (s *Store) GetOwner(ctx context.Context, id string) (*domain.Owner, error) {
	var row ownerRow
	err := s.db.GetContext(ctx, &row, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "owner", id)
	}
	return row.toDomain()
}

// ListOwners returns every owner ordered by name.
func (s *Store) ListOwners(ctx context.Context) ([]*domain.Owner, error) {
	var rows []ownerRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+ownerColumns+` FROM owners ORDER BY name, id`); err != nil {
		return nil, err
	}

	owners := make([]*domain.Owner, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, nil
}

// UpdateOwner replaces an owner's mutable fields.
func (s *Store) UpdateOwner(ctx context.Context, owner *domain.Owner) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE owners
		SET updated_at = :updated_at, name = :name, kind = :kind,
		    weekdays = :weekdays, slots_per_day = :slots_per_day
		WHERE id = :id`,
		newOwnerRow(owner))
	if err != nil {
		return err
	}
	return expectOne(res, "owner", owner.ID)
}

// DeleteOwner removes an owner. Allocations, holiday scopes and lessons
// cascade; scoped overrides carry no foreign key and are removed here.
func (s *Store) DeleteOwner(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOne(res, "owner", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_overrides WHERE owner_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
