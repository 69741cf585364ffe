package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdays(t *testing.T) {
	s, err := ParseWeekdays([]string{"Monday", " wed ", "FRI"})
	require.NoError(t, err)

	assert.True(t, s.Has(time.Monday))
	assert.True(t, s.Has(time.Wednesday))
	assert.True(t, s.Has(time.Friday))
	assert.False(t, s.Has(time.Tuesday))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"monday", "wednesday", "friday"}, s.Names())
}

func TestParseWeekdays_Unknown(t *testing.T) {
	_, err := ParseWeekdays([]string{"monday", "someday"})
	assert.ErrorAs(t, err, new(*ConfigError))
}

func TestCanonicalWeekdays_Dedupes(t *testing.T) {
	names, err := CanonicalWeekdays([]string{"thu", "Thursday", "sun"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunday", "thursday"}, names)
}

func TestWeekdaySet_Empty(t *testing.T) {
	s, err := ParseWeekdays(nil)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Empty(t, s.Names())
}

func TestDisplayWeekday(t *testing.T) {
	assert.Equal(t, "Saturday", DisplayWeekday(time.Saturday))
}
