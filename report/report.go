/*
Package report shapes engine output into the tables the farm office reads.

PURPOSE:
  The engine answers "what did this cost"; this package decides which
  rows are worth showing. It applies the caller-side filters (hide
  zero-cost rows, hide groups with no activity and no carried balance)
  and builds the period summary that sits on top of every report.

  Nothing here rounds. Handlers format amounts on the way out.
*/
package report

import (
	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/shopspring/decimal"
)

// Workers returns per-worker costs for the filter. With nonZero set,
// workers without any cost are dropped.
func Workers(snap *engine.Snapshot, f engine.Filter, nonZero bool) []engine.WorkerCost {
	rows := engine.NewAggregator(snap).CostPerWorkers(nil, f)
	if !nonZero {
		return rows
	}
	out := make([]engine.WorkerCost, 0, len(rows))
	for _, r := range rows {
		if r.TotalCost.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}

func Groups(snap *engine.Snapshot, f engine.Filter, nonZero bool) []engine.GroupCost {
	rows := engine.NewAggregator(snap).CostPerGroup(nil, f)
	if !nonZero {
		return rows
	}
	out := make([]engine.GroupCost, 0, len(rows))
	for _, r := range rows {
		if r.TotalCost.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}

func Activities(snap *engine.Snapshot, f engine.Filter, nonZero bool) []engine.ActivityCost {
	rows := engine.NewAggregator(snap).CostPerActivity(nil, f)
	if !nonZero {
		return rows
	}
	out := make([]engine.ActivityCost, 0, len(rows))
	for _, r := range rows {
		if r.TotalCost.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}

func Areas(snap *engine.Snapshot, f engine.Filter, nonZero bool) []engine.AreaCost {
	rows := engine.NewAggregator(snap).CostPerArea(nil, f)
	if !nonZero {
		return rows
	}
	out := make([]engine.AreaCost, 0, len(rows))
	for _, r := range rows {
		if r.TotalCost.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// BALANCES
// =============================================================================

// IsTrivial reports whether a balance row has nothing to say: no activity
// in the month and nothing carried in.
func IsTrivial(b engine.MonthBalance) bool {
	return !b.HasActivity && b.OpeningBalance.IsZero()
}

// Balances returns every live group's balance for the month. Trivial rows
// are dropped unless includeTrivial is set.
func Balances(snap *engine.Snapshot, month engine.MonthKey, includeTrivial bool) ([]engine.MonthBalance, error) {
	rows, err := engine.NewBalanceLedger(snap).GroupBalances(month)
	if err != nil {
		return nil, err
	}
	if includeTrivial {
		return rows, nil
	}
	out := make([]engine.MonthBalance, 0, len(rows))
	for _, b := range rows {
		if !IsTrivial(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// GroupHistory returns the month-by-month balance chain of one group up to
// and including through.
func GroupHistory(snap *engine.Snapshot, groupID engine.GroupID, through engine.MonthKey) ([]engine.MonthBalance, error) {
	return engine.NewBalanceLedger(snap).MonthBalances(groupID, through)
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the headline block of a period report.
type Summary struct {
	Filter engine.Filter

	WorkerDays decimal.Decimal
	LabourCost decimal.Decimal

	// GroupExpenses is the part of TotalExpenses charged to some group.
	// UnassignedExpenses is the rest: unshared expenses without a group and
	// whatever a shared split left unallocated.
	GroupExpenses      decimal.Decimal
	UnassignedExpenses decimal.Decimal
	TotalExpenses      decimal.Decimal

	LabourPayments  decimal.Decimal
	ExpensePayments decimal.Decimal
	TotalPayments   decimal.Decimal

	// Net is LabourCost + TotalExpenses - TotalPayments.
	Net decimal.Decimal
}

// Summarize totals labour, expenses and payments for the filter. Expenses
// and payments are selected by accounting month, or by date when the filter
// has day bounds and the record has a date.
func Summarize(snap *engine.Snapshot, f engine.Filter) Summary {
	s := Summary{
		Filter:             f,
		WorkerDays:         decimal.Zero,
		LabourCost:         decimal.Zero,
		GroupExpenses:      decimal.Zero,
		UnassignedExpenses: decimal.Zero,
		TotalExpenses:      decimal.Zero,
		LabourPayments:     decimal.Zero,
		ExpensePayments:    decimal.Zero,
		TotalPayments:      decimal.Zero,
	}

	for _, g := range engine.NewAggregator(snap).CostPerGroup(nil, f) {
		s.WorkerDays = s.WorkerDays.Add(g.TotalDays)
		s.LabourCost = s.LabourCost.Add(g.TotalCost)
	}

	var alloc engine.ExpenseAllocator
	live := snap.LiveGroups()
	for _, e := range snap.Expenses {
		if e.Deleted || !inPeriod(f, e.Date, e.AccountingMonth) {
			continue
		}
		charged := decimal.Zero
		for _, amount := range alloc.Allocate(e, live) {
			charged = charged.Add(amount)
		}
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		s.GroupExpenses = s.GroupExpenses.Add(charged)
	}
	s.UnassignedExpenses = s.TotalExpenses.Sub(s.GroupExpenses)

	for _, p := range snap.Payments {
		if p.Deleted || !inPeriod(f, p.Date, p.AccountingMonth) {
			continue
		}
		if p.For == engine.PaymentForExpense {
			s.ExpensePayments = s.ExpensePayments.Add(p.Amount)
		} else {
			s.LabourPayments = s.LabourPayments.Add(p.Amount)
		}
	}
	s.TotalPayments = s.LabourPayments.Add(s.ExpensePayments)
	s.Net = s.LabourCost.Add(s.TotalExpenses).Sub(s.TotalPayments)
	return s
}

func inPeriod(f engine.Filter, date engine.DayKey, month func() (engine.MonthKey, bool)) bool {
	if f.HasDayBounds() && date.Valid() {
		return f.IncludesDay(date)
	}
	m, ok := month()
	return ok && f.IncludesMonth(m)
}
