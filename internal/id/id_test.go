package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_HasPrefixAndLength(t *testing.T) {
	v, err := Generate(PrefixLesson)
	require.NoError(t, err)

	assert.True(t, HasPrefix(v, PrefixLesson))
	assert.Len(t, v, len(PrefixLesson)+1+21)
}

func TestGenerate_Unique(t *testing.T) {
	ids, err := GenerateN(PrefixOwner, 1000)
	require.NoError(t, err)

	seen := make(map[string]bool, len(ids))
	for _, v := range ids {
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerateN(t *testing.T) {
	ids, err := GenerateN(PrefixLesson, 5)
	require.NoError(t, err)
	require.Len(t, ids, 5)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("book-abc", PrefixBook))
	assert.False(t, HasPrefix("book-", PrefixBook))
	assert.False(t, HasPrefix("bookabc", PrefixBook))
	assert.False(t, HasPrefix("les-abc", PrefixBook))
}
