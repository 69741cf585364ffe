// Package planner is the lesson-plan generation engine.
//
// Everything in this package is pure: callers gather books, allocations and
// calendar data, call into the planner, and persist the result themselves.
// Nothing here performs I/O, logs, or keeps state between calls.
package planner
