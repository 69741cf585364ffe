package planner

import (
	"errors"
	"fmt"
)

// ConfigError reports inputs that prevent a well-formed plan from being produced.
// It is returned before any generation work starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Errors returned by the adjustment functions.
var (
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrSequenceOutOfRange   = errors.New("sequence position out of range")
	ErrInvalidPosition      = errors.New("invalid period position")
	ErrNothingToAnchor      = errors.New("cannot insert into an empty sequence")
	ErrDuplicatePeriod      = errors.New("duplicate period within a date")
	ErrPeriodGap            = errors.New("periods within a date are not contiguous")
	ErrDisplayOrderConflict = errors.New("display order is not strictly increasing")
)
