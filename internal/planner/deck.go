package planner

import (
	"cmp"
	"slices"

	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// Ordering decides the sweep order of allocations within a month.
// It must be a strict weak ordering; ties keep their input order.
type Ordering func(a, b domain.MonthAllocation) int

// ByPriority sweeps lower priority numbers first and breaks ties by insertion position.
func ByPriority(a, b domain.MonthAllocation) int {
	return cmp.Or(
		cmp.Compare(a.Priority, b.Priority),
		cmp.Compare(a.Position, b.Position),
	)
}

// ByPriorityThenBook breaks priority ties by book id instead of insertion position.
func ByPriorityThenBook(a, b domain.MonthAllocation) int {
	return cmp.Or(
		cmp.Compare(a.Priority, b.Priority),
		cmp.Compare(a.BookID, b.BookID),
	)
}

// BuildDeck interleaves the month's allocations round-robin.
//
// Each sweep takes one session from every allocation that still has sessions
// left, in priority order, so concurrent books alternate instead of clumping.
// The deck length is the sum of the requested counts.
func BuildDeck(allocs []domain.MonthAllocation, order Ordering) ([]string, error) {
	sorted, err := sortAllocations(allocs, order)
	if err != nil {
		return nil, err
	}

	total := 0
	remaining := make([]int, len(sorted))
	for i, a := range sorted {
		if a.Sessions <= 0 {
			return nil, configErrorf("sessions", "book %q requests %d sessions", a.BookID, a.Sessions)
		}
		remaining[i] = a.Sessions
		total += a.Sessions
	}

	deck := make([]string, 0, total)
	for {
		added := false
		for i, a := range sorted {
			if remaining[i] == 0 {
				continue
			}
			deck = append(deck, a.BookID)
			remaining[i]--
			added = true
		}
		if !added {
			return deck, nil
		}
	}
}

// BuildFillDeck cycles through the allocations in priority order until the
// deck holds n entries. Requested counts are ignored.
func BuildFillDeck(allocs []domain.MonthAllocation, n int, order Ordering) ([]string, error) {
	if n <= 0 || len(allocs) == 0 {
		return nil, nil
	}
	sorted, err := sortAllocations(allocs, order)
	if err != nil {
		return nil, err
	}
	deck := make([]string, n)
	for i := range deck {
		deck[i] = sorted[i%len(sorted)].BookID
	}
	return deck, nil
}

func sortAllocations(allocs []domain.MonthAllocation, order Ordering) ([]domain.MonthAllocation, error) {
	if order == nil {
		order = ByPriority
	}
	seen := make(map[string]bool, len(allocs))
	for _, a := range allocs {
		if a.BookID == "" {
			return nil, configErrorf("allocations", "allocation without a book")
		}
		if seen[a.BookID] {
			return nil, configErrorf("allocations", "book %q allocated twice in one month", a.BookID)
		}
		seen[a.BookID] = true
	}
	sorted := slices.Clone(allocs)
	slices.SortStableFunc(sorted, order)
	return sorted, nil
}
