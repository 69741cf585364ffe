package planner

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/classdeskapp/classdesk-server/internal/civil"
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// MonthPlan is one month of a generation run: its active allocations and resolved days.
type MonthPlan struct {
	Year        int
	Month       time.Month
	Allocations []domain.MonthAllocation
	Days        []Day

	// Fill ignores requested counts and cycles the allocations through every
	// open slot. Used when extending a learner by a number of sessions.
	Fill bool
}

func (m MonthPlan) key() domain.MonthKey {
	return domain.MonthKey{Year: m.Year, Month: m.Month}
}

// Input is everything a generation run needs.
type Input struct {
	OwnerID     string
	Months      []MonthPlan
	SlotsPerDay int
	Books       map[string]domain.Book

	// InitialProgress seeds per-book cursors, typically from ResumeProgress.
	// Books without an entry start at unit 1 day 1.
	InitialProgress map[string]domain.Cursor

	// StartOrder is the display order of the last existing lesson; the first
	// generated lesson gets StartOrder+1.
	StartOrder int

	// After skips days on or before this date when set.
	After civil.Date

	// Limit stops the run after this many book sessions. Zero means no limit.
	Limit int

	// Ordering sorts allocations inside a month. Defaults to ByPriority.
	Ordering Ordering
}

// WarningCode classifies advisory findings.
type WarningCode string

const (
	WarningMissingBook      WarningCode = "missing_book"
	WarningBeyondSyllabus   WarningCode = "beyond_syllabus"
	WarningProgressAdjusted WarningCode = "progress_adjusted"
	WarningOverflow         WarningCode = "overflow"
)

// Warning is a non-fatal observation about a generated plan.
type Warning struct {
	Code    WarningCode `json:"code"`
	Month   string      `json:"month,omitempty"`
	BookID  string      `json:"book_id,omitempty"`
	Message string      `json:"message"`
}

// Result is the output of a generation run.
type Result struct {
	Lessons  []domain.Lesson          `json:"lessons"`
	Progress map[string]domain.Cursor `json:"progress"`
	Capacity []Capacity               `json:"capacity"`
	Warnings []Warning                `json:"warnings,omitempty"`
}

// Dealt returns the number of book sessions in the result.
func (r *Result) Dealt() int {
	n := 0
	for i := range r.Lessons {
		if r.Lessons[i].BookID != "" {
			n++
		}
	}
	return n
}

// Generate deals each month's deck into its class days and renders every session.
//
// Months are processed in chronological order. On each day, slots reserved by
// a school event are filled first, then periods are dealt from the front of
// the deck until the day is full or the deck runs out. Event days past the end
// of the deck are still emitted. Progress carries across months. Output is
// fully determined by the input.
func Generate(in Input) (*Result, error) {
	months, progress, warnings, err := prepare(in)
	if err != nil {
		return nil, err
	}

	g := &generator{
		in:       in,
		progress: progress,
		warnings: warnings,
		order:    in.StartOrder,
		flagged:  make(map[string]bool),
	}

	for _, m := range months {
		if g.limitReached() {
			break
		}
		if err := g.month(m); err != nil {
			return nil, err
		}
	}

	return &Result{
		Lessons:  g.lessons,
		Progress: g.progress,
		Capacity: g.capacity,
		Warnings: g.warnings,
	}, nil
}

// prepare validates the input before anything is generated.
func prepare(in Input) ([]MonthPlan, map[string]domain.Cursor, []Warning, error) {
	if in.SlotsPerDay < 1 {
		return nil, nil, nil, configErrorf("slots_per_day", "must be at least 1, got %d", in.SlotsPerDay)
	}
	if in.Limit < 0 {
		return nil, nil, nil, configErrorf("limit", "must not be negative")
	}

	months := slices.Clone(in.Months)
	seen := make(map[domain.MonthKey]bool, len(months))
	for _, m := range months {
		k := m.key()
		if !k.Valid() {
			return nil, nil, nil, configErrorf("months", "invalid month %d-%d", m.Year, int(m.Month))
		}
		if seen[k] {
			return nil, nil, nil, configErrorf("months", "month %s listed twice", k)
		}
		seen[k] = true

		for _, a := range m.Allocations {
			if !m.Fill && a.Sessions <= 0 {
				return nil, nil, nil, configErrorf("sessions", "book %q requests %d sessions in %s", a.BookID, a.Sessions, k)
			}
		}
	}
	slices.SortStableFunc(months, func(a, b MonthPlan) int {
		switch ka, kb := a.key(), b.key(); {
		case ka.Before(kb):
			return -1
		case kb.Before(ka):
			return 1
		}
		return 0
	})

	var prev civil.Date
	for _, m := range months {
		for _, d := range m.Days {
			if !prev.IsZero() && !d.Date.After(prev) {
				return nil, nil, nil, configErrorf("days", "%s is not after %s", d.Date, prev)
			}
			prev = d.Date
		}
	}

	var warnings []Warning
	progress := make(map[string]domain.Cursor, len(in.InitialProgress))
	for _, bookID := range slices.Sorted(maps.Keys(in.InitialProgress)) {
		c := in.InitialProgress[bookID]
		b, ok := in.Books[bookID]
		if !ok {
			progress[bookID] = c
			continue
		}
		normalized, adjusted, err := NormalizeCursor(c, b)
		if err != nil {
			return nil, nil, nil, err
		}
		if adjusted {
			warnings = append(warnings, Warning{
				Code:    WarningProgressAdjusted,
				BookID:  bookID,
				Message: fmt.Sprintf("%s: day %d exceeds %d days per unit, resuming at %s", b.Name, c.Day, DaysPerUnit(b), Render(normalized, b)),
			})
		}
		progress[bookID] = normalized
	}

	return months, progress, warnings, nil
}

type generator struct {
	in       Input
	progress map[string]domain.Cursor
	lessons  []domain.Lesson
	capacity []Capacity
	warnings []Warning
	order    int
	dealt    int
	flagged  map[string]bool
}

func (g *generator) limitReached() bool {
	return g.in.Limit > 0 && g.dealt >= g.in.Limit
}

func (g *generator) month(m MonthPlan) error {
	k := m.key()

	days := m.Days
	if !g.in.After.IsZero() {
		days = slices.DeleteFunc(slices.Clone(days), func(d Day) bool {
			return !d.Date.After(g.in.After)
		})
	}
	if len(m.Allocations) == 0 {
		return nil
	}

	allocs := make([]domain.MonthAllocation, 0, len(m.Allocations))
	for _, a := range m.Allocations {
		if _, ok := g.in.Books[a.BookID]; !ok {
			g.warnings = append(g.warnings, Warning{
				Code:    WarningMissingBook,
				Month:   k.String(),
				BookID:  a.BookID,
				Message: fmt.Sprintf("allocation references unknown book %q; its sessions were skipped", a.BookID),
			})
			continue
		}
		allocs = append(allocs, a)
	}
	if len(allocs) == 0 {
		return nil
	}

	// Requested sessions with no class day to hold them are all unplaced.
	// Fill months have no requested count, so there is nothing to report.
	if len(days) == 0 {
		if m.Fill {
			return nil
		}
		deck, err := BuildDeck(allocs, g.in.Ordering)
		if err != nil {
			return err
		}
		g.record(k, newCapacity(m, nil, g.in.SlotsPerDay, len(deck), 0, false))
		return nil
	}

	var (
		deck []string
		err  error
	)
	if m.Fill {
		total, reserved := CountSlots(days, g.in.SlotsPerDay)
		deck, err = BuildFillDeck(allocs, total-reserved, g.in.Ordering)
	} else {
		deck, err = BuildDeck(allocs, g.in.Ordering)
	}
	if err != nil {
		return err
	}

	next := 0
	for _, day := range days {
		if g.limitReached() {
			break
		}
		period := 1
		for ; period <= min(day.Reserved, g.in.SlotsPerDay); period++ {
			g.emitEvent(day, period)
		}
		for ; period <= g.in.SlotsPerDay && next < len(deck) && !g.limitReached(); period++ {
			g.emitSession(k, day.Date, period, deck[next])
			next++
			g.dealt++
		}
	}
	stopped := g.limitReached() && next < len(deck)

	c := newCapacity(m, days, g.in.SlotsPerDay, len(deck), next, stopped)
	if m.Fill {
		c.Requested = next
	}
	g.record(k, c)
	return nil
}

// record appends a month's capacity and warns when sessions did not fit.
func (g *generator) record(k domain.MonthKey, c Capacity) {
	g.capacity = append(g.capacity, c)
	if c.Unplaced > 0 {
		g.warnings = append(g.warnings, Warning{
			Code:    WarningOverflow,
			Month:   k.String(),
			Message: c.Summary(),
		})
	}
}

func (g *generator) emitEvent(day Day, period int) {
	g.order++
	g.lessons = append(g.lessons, domain.Lesson{
		OwnerID:      g.in.OwnerID,
		Date:         day.Date,
		Period:       period,
		Content:      day.EventLabel,
		Kind:         domain.LessonKindEvent,
		State:        domain.LessonPlanned,
		DisplayOrder: g.order,
	})
}

func (g *generator) emitSession(k domain.MonthKey, date civil.Date, period int, bookID string) {
	b := g.in.Books[bookID]
	g.order++

	l := domain.Lesson{
		OwnerID:      g.in.OwnerID,
		Date:         date,
		Period:       period,
		BookID:       b.ID,
		BookName:     b.Name,
		State:        domain.LessonPlanned,
		DisplayOrder: g.order,
	}

	if b.IsEvent() {
		l.Kind = domain.LessonKindEvent
		l.Content = b.Name
		g.lessons = append(g.lessons, l)
		return
	}

	c, ok := g.progress[bookID]
	if !ok {
		c = domain.StartCursor
	}
	l.Kind = domain.LessonKindLesson
	l.Content = Render(c, b)
	l.Unit = c.Unit
	l.Day = c.Day
	if BeyondSyllabus(c, b) {
		l.BeyondSyllabus = true
		if !g.flagged[bookID] {
			g.flagged[bookID] = true
			g.warnings = append(g.warnings, Warning{
				Code:    WarningBeyondSyllabus,
				Month:   k.String(),
				BookID:  bookID,
				Message: fmt.Sprintf("%s runs past unit %d (%d sessions) from %s",
					b.Name, b.UnitCount, b.TotalSessions(DaysPerUnit(b)), date),
			})
		}
	}
	g.lessons = append(g.lessons, l)
	g.progress[bookID] = Advance(c, b)
}
