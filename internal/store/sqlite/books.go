package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

const bookColumns = `id, created_at, updated_at, name, scheme, kind, granularity, level_tag,
	unit_count, days_per_unit, days_per_volume, review_every`

type bookRow struct {
	ID            string `db:"id"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
	Name          string `db:"name"`
	Scheme        string `db:"scheme"`
	Kind          string `db:"kind"`
	Granularity   string `db:"granularity"`
	LevelTag      string `db:"level_tag"`
	UnitCount     int    `db:"unit_count"`
	DaysPerUnit   int    `db:"days_per_unit"`
	DaysPerVolume int    `db:"days_per_volume"`
	ReviewEvery   int    `db:"review_every"`
}

func newBookRow(b *domain.Book) bookRow {
	return bookRow{
		ID:            b.ID,
		CreatedAt:     formatTime(b.CreatedAt),
		UpdatedAt:     formatTime(b.UpdatedAt),
		Name:          b.Name,
		Scheme:        string(b.Scheme),
		Kind:          string(b.Kind),
		Granularity:   string(b.Granularity),
		LevelTag:      b.LevelTag,
		UnitCount:     b.UnitCount,
		DaysPerUnit:   b.DaysPerUnit,
		DaysPerVolume: b.DaysPerVolume,
		ReviewEvery:   b.ReviewEvery,
	}
}

func (r *bookRow) toDomain() (*domain.Book, error) {
	b := &domain.Book{
		ID:            r.ID,
		Name:          r.Name,
		Scheme:        domain.ProgressionScheme(r.Scheme),
		Kind:          domain.BookKind(r.Kind),
		Granularity:   domain.Granularity(r.Granularity),
		LevelTag:      r.LevelTag,
		UnitCount:     r.UnitCount,
		DaysPerUnit:   r.DaysPerUnit,
		DaysPerVolume: r.DaysPerVolume,
		ReviewEvery:   r.ReviewEvery,
	}

	var err error
	if b.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	// Rows written by older builds may carry empty enums.
	b.Normalize()
	return b, nil
}

func booksFromRows(rows []bookRow) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// CreateBook inserts a new book.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (:id, :created_at, :updated_at, :name, :scheme, :kind, :granularity, :level_tag,
		        :unit_count, :days_per_unit, :days_per_volume, :review_every)`,
		newBookRow(book))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var row bookRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "book", id)
	}
	return row.toDomain()
}

// GetBooksByIDs returns the books that exist among ids. Unknown IDs are
// silently skipped; callers compare lengths when they care.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return []*domain.Book{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+bookColumns+` FROM books WHERE id IN (?) ORDER BY name, id`, ids)
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return booksFromRows(rows)
}

// ListBooks returns the whole catalog ordered by name.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var rows []bookRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+bookColumns+` FROM books ORDER BY name, id`); err != nil {
		return nil, err
	}
	return booksFromRows(rows)
}

// UpdateBook replaces a book's mutable fields.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE books
		SET updated_at = :updated_at, name = :name, scheme = :scheme, kind = :kind,
		    granularity = :granularity, level_tag = :level_tag, unit_count = :unit_count,
		    days_per_unit = :days_per_unit, days_per_volume = :days_per_volume,
		    review_every = :review_every
		WHERE id = :id`,
		newBookRow(book))
	if err != nil {
		return err
	}
	return expectOne(res, "book", book.ID)
}

// DeleteBook removes a book and, by cascade, every allocation of it.
// Saved lessons keep their rendered content.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "book", id)
}
