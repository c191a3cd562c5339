package engine

// =============================================================================
// MONTH RANGE - The accounting window for roll-ups
// =============================================================================

// MonthRange is an inclusive [Start, End] range of month keys.
// An empty bound leaves that side open, so the zero MonthRange matches
// every month.
type MonthRange struct {
	Start MonthKey
	End   MonthKey
}

// SingleMonth returns the range covering exactly one month.
func SingleMonth(m MonthKey) MonthRange {
	return MonthRange{Start: m, End: m}
}

// Contains reports whether m falls inside the range.
// Malformed keys are never contained.
func (r MonthRange) Contains(m MonthKey) bool {
	if !m.Valid() {
		return false
	}
	if r.Start != "" && m.Before(r.Start) {
		return false
	}
	if r.End != "" && m.After(r.End) {
		return false
	}
	return true
}

// Validate checks that set bounds are well formed and ordered.
func (r MonthRange) Validate() error {
	if r.Start != "" {
		if _, err := ParseMonthKey(string(r.Start)); err != nil {
			return err
		}
	}
	if r.End != "" {
		if _, err := ParseMonthKey(string(r.End)); err != nil {
			return err
		}
	}
	if r.Start != "" && r.End != "" && r.End.Before(r.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (r MonthRange) String() string {
	start, end := string(r.Start), string(r.End)
	if start == "" {
		start = "*"
	}
	if end == "" {
		end = "*"
	}
	return "[" + start + ", " + end + "]"
}

// =============================================================================
// FILTER - Month range plus optional day bounds (custom periods)
// =============================================================================

// Filter selects the attendance days, expenses and payments a roll-up
// covers. From and To are optional inclusive day bounds layered on top of
// the month range.
type Filter struct {
	Months MonthRange
	From   DayKey
	To     DayKey
}

// ForMonth returns a filter covering one month.
func ForMonth(m MonthKey) Filter {
	return Filter{Months: SingleMonth(m)}
}

// ForMonths returns a filter covering [start, end].
func ForMonths(start, end MonthKey) Filter {
	return Filter{Months: MonthRange{Start: start, End: end}}
}

// IncludesMonth reports whether any day of m can pass the filter.
func (f Filter) IncludesMonth(m MonthKey) bool {
	if !f.Months.Contains(m) {
		return false
	}
	if f.From != "" && m.Before(f.From.Month()) {
		return false
	}
	if f.To != "" && m.After(f.To.Month()) {
		return false
	}
	return true
}

// IncludesDay reports whether d passes the filter.
func (f Filter) IncludesDay(d DayKey) bool {
	if !d.Valid() || !f.Months.Contains(d.Month()) {
		return false
	}
	if f.From != "" && d < f.From {
		return false
	}
	if f.To != "" && d > f.To {
		return false
	}
	return true
}

// HasDayBounds reports whether the filter narrows below month granularity.
func (f Filter) HasDayBounds() bool {
	return f.From != "" || f.To != ""
}

func (f Filter) Validate() error {
	if err := f.Months.Validate(); err != nil {
		return err
	}
	if f.From != "" {
		if _, err := ParseDayKey(string(f.From)); err != nil {
			return err
		}
	}
	if f.To != "" {
		if _, err := ParseDayKey(string(f.To)); err != nil {
			return err
		}
	}
	if f.From != "" && f.To != "" && f.To < f.From {
		return ErrInvalidPeriod
	}
	return nil
}
