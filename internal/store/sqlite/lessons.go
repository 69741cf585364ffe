package sqlite

import (
	"context"
	"time"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

const lessonColumns = `id, created_at, updated_at, owner_id, date, period, book_id, book_name,
	content, unit, day, kind, state, display_order, beyond_syllabus, run_id`

// Offsets used to park an owner's rows while ReplaceOwnerLessons rewrites them.
// Both unique keys stay satisfied while new rows land at their final positions.
const (
	parkedPeriodOffset = 100000
	parkedOrderOffset  = 1000000
)

type lessonRow struct {
	ID             string `db:"id"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
	OwnerID        string `db:"owner_id"`
	Date           string `db:"date"`
	Period         int    `db:"period"`
	BookID         string `db:"book_id"`
	BookName       string `db:"book_name"`
	Content        string `db:"content"`
	Unit           int    `db:"unit"`
	Day            int    `db:"day"`
	Kind           string `db:"kind"`
	State          string `db:"state"`
	DisplayOrder   int    `db:"display_order"`
	BeyondSyllabus bool   `db:"beyond_syllabus"`
	RunID          string `db:"run_id"`
}

func newLessonRow(l *domain.Lesson) lessonRow {
	return lessonRow{
		ID:             l.ID,
		CreatedAt:      formatTime(l.CreatedAt),
		UpdatedAt:      formatTime(l.UpdatedAt),
		OwnerID:        l.OwnerID,
		Date:           formatDate(l.Date),
		Period:         l.Period,
		BookID:         l.BookID,
		BookName:       l.BookName,
		Content:        l.Content,
		Unit:           l.Unit,
		Day:            l.Day,
		Kind:           string(l.Kind),
		State:          string(l.State),
		DisplayOrder:   l.DisplayOrder,
		BeyondSyllabus: l.BeyondSyllabus,
		RunID:          l.RunID,
	}
}

func (r *lessonRow) toDomain() (domain.Lesson, error) {
	l := domain.Lesson{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Period:         r.Period,
		BookID:         r.BookID,
		BookName:       r.BookName,
		Content:        r.Content,
		Unit:           r.Unit,
		Day:            r.Day,
		Kind:           domain.LessonKind(r.Kind),
		State:          domain.LessonState(r.State),
		DisplayOrder:   r.DisplayOrder,
		BeyondSyllabus: r.BeyondSyllabus,
		RunID:          r.RunID,
	}

	var err error
	if l.Date, err = civil.Parse(r.Date); err != nil {
		return l, err
	}
	if l.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return l, err
	}
	if l.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return l, err
	}
	return l, nil
}

// ListLessons returns an owner's lessons in canonical order, optionally
// bounded by date.
func (s *Store) ListLessons(ctx context.Context, ownerID string, r store.DateRange) ([]domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE owner_id = ?`
	args := []any{ownerID}
	if !r.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(r.From))
	}
	if !r.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(r.To))
	}
	query += ` ORDER BY date, period, display_order`

	var rows []lessonRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	lessons := make([]domain.Lesson, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

// GetLesson retrieves a single lesson by ID.
func (s *Store) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	var row lessonRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "lesson", id)
	}
	l, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LastLesson returns the owner's latest lesson in canonical order, or
// store.ErrNotFound when the owner has none.
func (s *Store) LastLesson(ctx context.Context, ownerID string) (*domain.Lesson, error) {
	var row lessonRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+lessonColumns+` FROM lessons WHERE owner_id = ?
		ORDER BY date DESC, period DESC, display_order DESC LIMIT 1`, ownerID)
	if err != nil {
		return nil, notFound(err, "lessons for owner", ownerID)
	}
	l, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ReplaceOwnerLessons atomically makes lessons the owner's complete set.
// Rows whose ID is in lessons are updated in place (created_at preserved),
// new IDs are inserted, and every other row of the owner is removed.
// Returns store.ErrConflict if lessons collide on (date, period) or display order.
func (s *Store) ReplaceOwnerLessons(ctx context.Context, ownerID string, lessons []domain.Lesson) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE lessons
		SET period = period + ?, display_order = display_order + ?
		WHERE owner_id = ?`,
		parkedPeriodOffset, parkedOrderOffset, ownerID); err != nil {
		return err
	}

	now := time.Now()
	for i := range lessons {
		l := &lessons[i]
		if l.OwnerID != ownerID {
			return store.ErrInvalidInput.WithMessage("lesson " + l.ID + " belongs to another owner")
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = now
		}

		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO lessons (`+lessonColumns+`)
			VALUES (:id, :created_at, :updated_at, :owner_id, :date, :period, :book_id, :book_name,
			        :content, :unit, :day, :kind, :state, :display_order, :beyond_syllabus, :run_id)
			ON CONFLICT(id) DO UPDATE SET
				updated_at = excluded.updated_at,
				date = excluded.date,
				period = excluded.period,
				book_id = excluded.book_id,
				book_name = excluded.book_name,
				content = excluded.content,
				unit = excluded.unit,
				day = excluded.day,
				kind = excluded.kind,
				state = excluded.state,
				display_order = excluded.display_order,
				beyond_syllabus = excluded.beyond_syllabus,
				run_id = excluded.run_id
			WHERE lessons.owner_id = excluded.owner_id`,
			newLessonRow(l))
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrConflict.WithCause(err)
			}
			if isForeignKeyViolation(err) {
				return store.NotFound("owner", ownerID)
			}
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lessons WHERE owner_id = ? AND display_order >= ?`,
		ownerID, parkedOrderOffset); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("replaced owner lessons", "owner_id", ownerID, "count", len(lessons))
	return nil
}
