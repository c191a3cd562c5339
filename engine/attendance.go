/*
attendance.go - Attendance marks and the cycling state machine

PURPOSE:
  A supervisor marks attendance by tapping a worker's cell for a day; each
  tap moves the mark one step around a ring. The ring is shaped so that a
  worker who already has attendance in another group that day can never
  be cycled above one full day in total.

STATES AND VALUES:
  Unmarked  0.0   (default, never stored when it can be omitted)
  Present   1.0
  Absent    0.0
  Half      0.5

TRANSITIONS (other = attendance already recorded in other groups that day):
  Unmarked -> Present   if other == 0
           -> Half      if other <= 0.5
           -> Absent    otherwise
  Present  -> Absent
  Absent   -> Half      if other <= 0.5
           -> Unmarked  otherwise
  Half     -> Unmarked

  With other == 0 the ring is Unmarked, Present, Absent, Half, Unmarked.
  With other above 0.5 it collapses to Unmarked, Absent, Unmarked.

WHAT IT DOES NOT DO:
  The ring only keeps cooperative edits under the cap. A total that is
  already over 1.0 because of a direct write (bulk import, two screens
  open at once) is left alone and surfaced by AttendanceMatrix.Exceeded.
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AttendanceStatus is one worker's mark for one day in one group.
type AttendanceStatus string

const (
	StatusUnmarked AttendanceStatus = ""
	StatusPresent  AttendanceStatus = "P"
	StatusAbsent   AttendanceStatus = "A"
	StatusHalf     AttendanceStatus = "H"
)

// ParseStatus accepts short codes (P/A/H) and long names
// (present/absent/half), case-insensitively. Empty or "unmarked" is
// StatusUnmarked.
func ParseStatus(s string) (AttendanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unmarked", "-":
		return StatusUnmarked, nil
	case "p", "present":
		return StatusPresent, nil
	case "a", "absent":
		return StatusAbsent, nil
	case "h", "half":
		return StatusHalf, nil
	default:
		return StatusUnmarked, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Value returns the attendance value of the mark in days.
func (s AttendanceStatus) Value() decimal.Decimal {
	switch s {
	case StatusPresent:
		return one
	case StatusHalf:
		return half
	default:
		return decimal.Zero
	}
}

// Worked reports whether the mark carries a non-zero value.
func (s AttendanceStatus) Worked() bool {
	return s == StatusPresent || s == StatusHalf
}

func (s AttendanceStatus) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusHalf:
		return "half"
	default:
		return "unmarked"
	}
}

// NextStatus returns the mark that follows current, given the attendance
// value already recorded for the same worker and date in every other
// group instance. It is total over its inputs; an unrecognized current
// mark resets to StatusUnmarked.
func NextStatus(current AttendanceStatus, otherGroupsTotal decimal.Decimal) AttendanceStatus {
	switch current {
	case StatusUnmarked:
		switch {
		case !otherGroupsTotal.IsPositive():
			return StatusPresent
		case otherGroupsTotal.LessThanOrEqual(half):
			return StatusHalf
		default:
			return StatusAbsent
		}
	case StatusPresent:
		return StatusAbsent
	case StatusAbsent:
		if otherGroupsTotal.LessThanOrEqual(half) {
			return StatusHalf
		}
		return StatusUnmarked
	case StatusHalf:
		return StatusUnmarked
	default:
		return StatusUnmarked
	}
}
