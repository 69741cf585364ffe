package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

const holidayColumns = `id, created_at, updated_at, name, start_date, end_date`

type holidayRow struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
	Name      string `db:"name"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
}

func (r *holidayRow) toDomain() (*domain.Holiday, error) {
	h := &domain.Holiday{ID: r.ID, Name: r.Name}

	var err error
	if h.Start, err = civil.Parse(r.StartDate); err != nil {
		return nil, err
	}
	if h.End, err = civil.Parse(r.EndDate); err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

// CreateHoliday inserts a holiday and its owner scope.
func (s *Store) CreateHoliday(ctx context.Context, h *domain.Holiday) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO holidays (`+holidayColumns+`)
		VALUES (:id, :created_at, :updated_at, :name, :start_date, :end_date)`,
		holidayRow{
			ID:        h.ID,
			CreatedAt: formatTime(h.CreatedAt),
			UpdatedAt: formatTime(h.UpdatedAt),
			Name:      h.Name,
			StartDate: formatDate(h.Start),
			EndDate:   formatDate(h.End),
		})
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	for _, ownerID := range h.OwnerIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO holiday_owners (holiday_id, owner_id) VALUES (?, ?)`, h.ID, ownerID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return store.NotFound("owner", ownerID)
			}
			return err
		}
	}
	return tx.Commit()
}

// GetHoliday retrieves a holiday by ID.
func (s *Store) GetHoliday(ctx context.Context, id string) (*domain.Holiday, error) {
	var row holidayRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+holidayColumns+` FROM holidays WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "holiday", id)
	}
	h, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.loadHolidayOwners(ctx, []*domain.Holiday{h}); err != nil {
		return nil, err
	}
	return h, nil
}

// ListHolidays returns holidays overlapping the range, ordered by start date.
func (s *Store) ListHolidays(ctx context.Context, r store.DateRange) ([]*domain.Holiday, error) {
	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE 1 = 1`
	var args []any
	if !r.To.IsZero() {
		query += ` AND start_date <= ?`
		args = append(args, formatDate(r.To))
	}
	if !r.From.IsZero() {
		query += ` AND end_date >= ?`
		args = append(args, formatDate(r.From))
	}
	query += ` ORDER BY start_date, id`

	var rows []holidayRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	holidays := make([]*domain.Holiday, 0, len(rows))
	for i := range rows {
		h, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	if err := s.loadHolidayOwners(ctx, holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

func (s *Store) loadHolidayOwners(ctx context.Context, holidays []*domain.Holiday) error {
	if len(holidays) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Holiday, len(holidays))
	ids := make([]string, 0, len(holidays))
	for _, h := range holidays {
		byID[h.ID] = h
		ids = append(ids, h.ID)
	}

	query, args, err := sqlx.In(`
		SELECT holiday_id, owner_id FROM holiday_owners
		WHERE holiday_id IN (?) ORDER BY owner_id`, ids)
	if err != nil {
		return err
	}

	var rows []struct {
		HolidayID string `db:"holiday_id"`
		OwnerID   string `db:"owner_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, r := range rows {
		h := byID[r.HolidayID]
		h.OwnerIDs = append(h.OwnerIDs, r.OwnerID)
	}
	return nil
}

// DeleteHoliday removes a holiday and its scope rows.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "holiday", id)
}

const overrideColumns = `id, created_at, updated_at, date, kind, session_count, label, owner_id`

type overrideRow struct {
	ID           string `db:"id"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
	Date         string `db:"date"`
	Kind         string `db:"kind"`
	SessionCount int    `db:"session_count"`
	Label        string `db:"label"`
	OwnerID      string `db:"owner_id"`
}

func (r *overrideRow) toDomain() (*domain.CalendarOverride, error) {
	o := &domain.CalendarOverride{
		ID:           r.ID,
		Kind:         domain.OverrideKind(r.Kind),
		SessionCount: r.SessionCount,
		Label:        r.Label,
		OwnerID:      r.OwnerID,
	}

	var err error
	if o.Date, err = civil.Parse(r.Date); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOverride inserts a calendar override.
// Returns store.ErrAlreadyExists when the date already has one for the same scope.
func (s *Store) CreateOverride(ctx context.Context, o *domain.CalendarOverride) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO calendar_overrides (`+overrideColumns+`)
		VALUES (:id, :created_at, :updated_at, :date, :kind, :session_count, :label, :owner_id)`,
		overrideRow{
			ID:           o.ID,
			CreatedAt:    formatTime(o.CreatedAt),
			UpdatedAt:    formatTime(o.UpdatedAt),
			Date:         formatDate(o.Date),
			Kind:         string(o.Kind),
			SessionCount: o.SessionCount,
			Label:        o.Label,
			OwnerID:      o.OwnerID,
		})
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("an override already exists for " + o.Date.String())
	}
	return err
}

// GetOverride retrieves an override by ID.
func (s *Store) GetOverride(ctx context.Context, id string) (*domain.CalendarOverride, error) {
	var row overrideRow
	err := s.db.GetContext(ctx, &row, `SELECT `+overrideColumns+` FROM calendar_overrides WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "override", id)
	}
	return row.toDomain()
}

// ListOverrides returns overrides dated inside the range, ordered by date.
func (s *Store) ListOverrides(ctx context.Context, r store.DateRange) ([]*domain.CalendarOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM calendar_overrides WHERE 1 = 1`
	var args []any
	if !r.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(r.From))
	}
	if !r.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(r.To))
	}
	query += ` ORDER BY date, owner_id`

	var rows []overrideRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	overrides := make([]*domain.CalendarOverride, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// DeleteOverride removes an override.
func (s *Store) DeleteOverride(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_overrides WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "override", id)
}
