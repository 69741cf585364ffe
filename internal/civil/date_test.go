package civil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.March, Day: 5}, d)
	assert.Equal(t, "2026-03-05", d.String())

	_, err = Parse("2026-02-30")
	assert.Error(t, err)

	_, err = Parse("03/05/2026")
	assert.Error(t, err)
}

func TestLastOfMonth(t *testing.T) {
	assert.Equal(t, MustParse("2026-02-28"), LastOfMonth(2026, time.February))
	assert.Equal(t, MustParse("2028-02-29"), LastOfMonth(2028, time.February))
	assert.Equal(t, MustParse("2026-12-31"), LastOfMonth(2026, time.December))
}

func TestAddDays_CrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, MustParse("2027-01-01"), MustParse("2026-12-31").AddDays(1))
	assert.Equal(t, MustParse("2026-02-28"), MustParse("2026-03-01").AddDays(-1))
}

func TestWeekdayAndWeekStart(t *testing.T) {
	d := MustParse("2026-03-07")
	assert.Equal(t, time.Saturday, d.Weekday())
	assert.Equal(t, MustParse("2026-03-01"), d.WeekStart())

	// April 2026 starts on a Wednesday.
	assert.Equal(t, MustParse("2026-03-29"), MustParse("2026-04-01").WeekStart())
}

func TestCompare(t *testing.T) {
	a := MustParse("2026-03-05")
	b := MustParse("2026-03-06")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(MustParse("2026-03-05")))
	assert.Equal(t, 1, a.DaysUntil(b))
}

func TestValid(t *testing.T) {
	assert.True(t, MustParse("2026-01-31").Valid())
	assert.False(t, Date{Year: 2026, Month: time.February, Day: 30}.Valid())
	assert.True(t, Date{}.IsZero())
}

func TestJSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(payload{Date: MustParse("2026-03-05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-03-05"}`, string(data))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-11-02"}`), &p))
	assert.Equal(t, MustParse("2026-11-02"), p.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"not-a-date"}`), &p))
}
