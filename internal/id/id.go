// Package id generates prefixed entity identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixOwner      = "own"
	PrefixBook       = "book"
	PrefixAllocation = "alc"
	PrefixHoliday    = "hol"
	PrefixOverride   = "ovr"
	PrefixLesson     = "les"
	PrefixPreview    = "prv"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "les-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// GenerateN creates n IDs with the same prefix. Used when a generation run
// materializes a whole month of lessons at once.
func GenerateN(prefix string, n int) ([]string, error) {
	ids := make([]string, n)
	for i := range ids {
		v, err := Generate(prefix)
		if err != nil {
			return nil, err
		}
		ids[i] = v
	}
	return ids, nil
}

// HasPrefix reports whether v was generated with prefix.
func HasPrefix(v, prefix string) bool {
	return strings.HasPrefix(v, prefix+"-") && len(v) > len(prefix)+1
}
