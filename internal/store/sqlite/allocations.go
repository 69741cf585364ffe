package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

const allocationColumns = `id, created_at, updated_at, owner_id, book_id, priority, position`

type allocationRow struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
	OwnerID   string `db:"owner_id"`
	BookID    string `db:"book_id"`
	Priority  int    `db:"priority"`
	Position  int    `db:"position"`
}

type allocationMonthRow struct {
	AllocationID string `db:"allocation_id"`
	Year         int    `db:"year"`
	Month        int    `db:"month"`
	Sessions     int    `db:"sessions"`
}

func (r *allocationRow) toDomain() (*domain.Allocation, error) {
	a := &domain.Allocation{
		ID:       r.ID,
		OwnerID:  r.OwnerID,
		BookID:   r.BookID,
		Priority: r.Priority,
		Position: r.Position,
		Months:   make(map[domain.MonthKey]int),
	}

	var err error
	if a.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// loadMonths fills Months for every allocation in allocs.
func (s *Store) loadMonths(ctx context.Context, allocs []*domain.Allocation) error {
	if len(allocs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Allocation, len(allocs))
	ids := make([]string, 0, len(allocs))
	for _, a := range allocs {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	query, args, err := sqlx.In(`
		SELECT allocation_id, year, month, sessions
		FROM allocation_months WHERE allocation_id IN (?)`, ids)
	if err != nil {
		return err
	}

	var rows []allocationMonthRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, r := range rows {
		byID[r.AllocationID].SetSessions(domain.MonthKey{Year: r.Year, Month: time.Month(r.Month)}, r.Sessions)
	}
	return nil
}

// CreateAllocation inserts a new allocation with its month budgets. Position is
// assigned after the owner's current last allocation.
// Returns store.ErrAlreadyExists when the owner already has the book.
func (s *Store) CreateAllocation(ctx context.Context, alloc *domain.Allocation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var position int
	if err := tx.GetContext(ctx, &position,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM allocations WHERE owner_id = ?`, alloc.OwnerID); err != nil {
		return err
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`)
		VALUES (:id, :created_at, :updated_at, :owner_id, :book_id, :priority, :position)`,
		allocationRow{
			ID:        alloc.ID,
			CreatedAt: formatTime(alloc.CreatedAt),
			UpdatedAt: formatTime(alloc.UpdatedAt),
			OwnerID:   alloc.OwnerID,
			BookID:    alloc.BookID,
			Priority:  alloc.Priority,
			Position:  position,
		})
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("book is already allocated to this owner")
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithMessage("owner or book not found")
		}
		return err
	}

	for k, sessions := range alloc.Months {
		if sessions <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO allocation_months (allocation_id, year, month, sessions)
			VALUES (?, ?, ?, ?)`,
			alloc.ID, k.Year, int(k.Month), sessions); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	alloc.Position = position
	return nil
}

// GetAllocation retrieves an allocation with its month budgets.
func (s *Store) GetAllocation(ctx context.Context, id string) (*domain.Allocation, error) {
	var row allocationRow
	err := s.db.GetContext(ctx, &row, `SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "allocation", id)
	}

	a, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.loadMonths(ctx, []*domain.Allocation{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAllocations returns an owner's allocations in priority order.
func (s *Store) ListAllocations(ctx context.Context, ownerID string) ([]*domain.Allocation, error) {
	var rows []allocationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+allocationColumns+` FROM allocations
		WHERE owner_id = ? ORDER BY priority, position`, ownerID)
	if err != nil {
		return nil, err
	}

	allocs := make([]*domain.Allocation, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	if err := s.loadMonths(ctx, allocs); err != nil {
		return nil, err
	}
	return allocs, nil
}

// UpdateAllocationPriority changes an allocation's priority.
func (s *Store) UpdateAllocationPriority(ctx context.Context, id string, priority int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE allocations SET priority = ?, updated_at = ? WHERE id = ?`,
		priority, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return expectOne(res, "allocation", id)
}

// SetAllocationMonth sets the session budget for one month. Zero clears it.
func (s *Store) SetAllocationMonth(ctx context.Context, id string, month domain.MonthKey, sessions int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE allocations SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	if err := expectOne(res, "allocation", id); err != nil {
		return err
	}

	if sessions <= 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM allocation_months WHERE allocation_id = ? AND year = ? AND month = ?`,
			id, month.Year, int(month.Month))
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO allocation_months (allocation_id, year, month, sessions)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(allocation_id, year, month) DO UPDATE SET sessions = excluded.sessions`,
			id, month.Year, int(month.Month), sessions)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAllocation removes an allocation and its month budgets.
func (s *Store) DeleteAllocation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "allocation", id)
}
