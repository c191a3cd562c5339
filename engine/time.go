package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE KEYS - Month and day identifiers used across the ledger
// =============================================================================

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// MonthKey identifies a calendar month as "YYYY-MM".
// Zero padding keeps lexicographic order equal to chronological order,
// so range filters compare keys as plain strings.
type MonthKey string

// DayKey identifies a calendar day as "YYYY-MM-DD".
type DayKey string

func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout))
}

func NewDayKey(year int, month time.Month, day int) DayKey {
	return DayKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dayLayout))
}

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	m := MonthKey(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return m, nil
}

// ParseDayKey validates s and returns it as a DayKey.
func ParseDayKey(s string) (DayKey, error) {
	d := DayKey(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return d, nil
}

// Month keys

func (m MonthKey) Valid() bool {
	_, ok := m.Time()
	return ok
}

// Time returns the first instant of the month in UTC.
func (m MonthKey) Time() (time.Time, bool) {
	if len(m) != len(monthLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m MonthKey) Next() MonthKey { return m.add(1) }
func (m MonthKey) Prev() MonthKey { return m.add(-1) }

func (m MonthKey) add(n int) MonthKey {
	t, ok := m.Time()
	if !ok {
		return ""
	}
	return MonthKey(t.AddDate(0, n, 0).Format(monthLayout))
}

func (m MonthKey) Before(other MonthKey) bool { return m < other }
func (m MonthKey) After(other MonthKey) bool  { return m > other }
func (m MonthKey) String() string             { return string(m) }

// Days returns every calendar day of the month in order.
func (m MonthKey) Days() []DayKey {
	t, ok := m.Time()
	if !ok {
		return nil
	}
	var days []DayKey
	for d := t; d.Month() == t.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, DayKey(d.Format(dayLayout)))
	}
	return days
}

// Day keys

func (d DayKey) Valid() bool {
	_, ok := d.Time()
	return ok
}

func (d DayKey) Time() (time.Time, bool) {
	if len(d) != len(dayLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Month returns the month the day falls in, or "" for a malformed key.
func (d DayKey) Month() MonthKey {
	if !d.Valid() {
		return ""
	}
	return MonthKey(d[:len(monthLayout)])
}

func (d DayKey) String() string { return string(d) }

// MonthsBetween returns the months in [from, to], both inclusive.
// Returns nil if either key is malformed or to is before from.
func MonthsBetween(from, to MonthKey) []MonthKey {
	if !from.Valid() || !to.Valid() || to.Before(from) {
		return nil
	}
	var months []MonthKey
	for m := from; !m.After(to); m = m.Next() {
		months = append(months, m)
	}
	return months
}
