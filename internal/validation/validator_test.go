package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/classdeskapp/classdesk-server/internal/errors"
)

type ownerRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Kind        string   `json:"kind" validate:"required,oneof=class private"`
	Weekdays    []string `json:"weekdays" validate:"max=7,unique,dive,weekday"`
	SlotsPerDay int      `json:"slots_per_day" validate:"omitempty,min=1,max=12"`
}

type holidayRequest struct {
	Name  string `json:"name" validate:"required"`
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
	d, ok := de.Details.(map[string]string)
	require.True(t, ok)
	return d
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(ownerRequest{Name: "Class 3A", Kind: "class", Weekdays: []string{"monday", "Thu"}, SlotsPerDay: 2}))
	assert.NoError(t, v.Validate(holidayRequest{Name: "Spring Break", Start: "2026-03-23", End: "2026-03-27"}))
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := New().Validate(ownerRequest{Kind: "team", SlotsPerDay: 20})

	d := details(t, err)
	assert.Equal(t, "is required", d["name"])
	assert.Equal(t, "must be one of: class private", d["kind"])
	assert.Equal(t, "must not exceed 12", d["slots_per_day"])
}

func TestValidate_Weekday(t *testing.T) {
	err := New().Validate(ownerRequest{Name: "x", Kind: "class", Weekdays: []string{"monday", "funday"}})

	d := details(t, err)
	assert.Equal(t, "must be a weekday name", d["weekdays[1]"])
}

func TestValidate_ISODate(t *testing.T) {
	err := New().Validate(holidayRequest{Name: "x", Start: "03/23/2026", End: "2026-02-30"})

	d := details(t, err)
	assert.Equal(t, "must be a date in YYYY-MM-DD format", d["start"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", d["end"])
}
