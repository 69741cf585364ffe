package api

import (
	"github.com/classdeskapp/classdesk-server/internal/civil"
	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

// DateRangeParams are the optional from/to query parameters of list endpoints.
type DateRangeParams struct {
	From string `query:"from" doc:"First date, YYYY-MM-DD"`
	To   string `query:"to" doc:"Last date, YYYY-MM-DD"`
}

// dateRange parses the query parameters. Empty bounds stay open.
func (p DateRangeParams) dateRange() (store.DateRange, error) {
	var r store.DateRange
	if p.From != "" {
		d, err := civil.Parse(p.From)
		if err != nil {
			return r, domainerrors.ValidationWithDetails("invalid date", map[string]string{"from": "must be YYYY-MM-DD"})
		}
		r.From = d
	}
	if p.To != "" {
		d, err := civil.Parse(p.To)
		if err != nil {
			return r, domainerrors.ValidationWithDetails("invalid date", map[string]string{"to": "must be YYYY-MM-DD"})
		}
		r.To = d
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, domainerrors.ValidationWithDetails("invalid date range", map[string]string{"to": "must not be before from"})
	}
	return r, nil
}
