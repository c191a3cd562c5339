/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Reference errors - A caller asked about a specific record that does
     not exist (unknown group in a balance query, unknown group instance
     in an attendance write).
  2. Input errors - Malformed month/day keys, unknown status codes.

WHAT IS NOT AN ERROR:
  Aggregations never fail. A day entry pointing at an unknown worker, an
  allocation naming a deleted group or a payment for a missing group
  contributes zero and the report carries on. A worker whose combined
  daily attendance is over 1.0 is flagged by the cap queries, never
  rejected.

USAGE:
  if errors.Is(err, engine.ErrUnknownGroup) { ... }

  var refErr *engine.ReferenceError
  if errors.As(err, &refErr) {
      log.Printf("missing %s %s", refErr.Kind, refErr.ID)
  }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownGroup is returned when a group id does not resolve to a
	// live (non-deleted) group.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrUnknownWorker is returned when a worker id does not resolve.
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrUnknownInstance is returned when an attendance write targets a
	// group instance that was never activated.
	ErrUnknownInstance = errors.New("unknown group instance")

	// ErrNotFound is returned by stores for a missing record.
	ErrNotFound = errors.New("not found")

	ErrInvalidMonth  = errors.New("invalid month key (want YYYY-MM)")
	ErrInvalidDay    = errors.New("invalid day key (want YYYY-MM-DD)")
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ReferenceKind names the kind of record a ReferenceError points at.
type ReferenceKind string

const (
	RefGroup    ReferenceKind = "group"
	RefWorker   ReferenceKind = "worker"
	RefInstance ReferenceKind = "instance"
)

// ReferenceError reports a structurally invalid reference.
type ReferenceError struct {
	Kind ReferenceKind
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	switch e.Kind {
	case RefGroup:
		return ErrUnknownGroup
	case RefWorker:
		return ErrUnknownWorker
	case RefInstance:
		return ErrUnknownInstance
	default:
		return ErrNotFound
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownGroup) ||
		errors.Is(err, ErrUnknownWorker) ||
		errors.Is(err, ErrUnknownInstance)
}

// IsClientError returns true if the error is due to malformed caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidDay) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidPeriod)
}
