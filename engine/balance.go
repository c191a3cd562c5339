/*
balance.go - Running balance per group per accounting month

PURPOSE:
  Combines labour cost (from the attendance matrix), allocated expenses
  and payments into a MonthBalance per group per month, chained so that
  one month's closing balance is the next month's opening balance.

FORMULA:
  totalCost           = labourCost + expenseCost
  totalPayments       = labourPayments + expensePayments
  currentMonthBalance = totalCost - totalPayments
  closingBalance      = openingBalance + currentMonthBalance

CHAINING:
  The ledger folds months in ascending order starting at the group's
  first month with any activity (an activated instance, an expense
  charged to it, or a payment against it). Every month up to the target
  is visited, so a month without activity carries the balance forward
  unchanged. Results are memoized per group, so asking for twelve months
  in a row costs one fold, not twelve.

  Example for one group:
    2024-01  opening    0  labour 2000  expense 300  paid 1800  closing  500
    2024-02  opening  500  (no activity)                        closing  500
    2024-03  opening  500  labour 2000  expense 300  paid 1800  closing 1000

ERRORS:
  An unknown or deleted group id returns a *ReferenceError. A malformed
  month returns ErrInvalidMonth. Missing data is never an error; a group
  with nothing recorded gets an all-zero record.

CONCURRENCY:
  A BalanceLedger memoizes into plain maps and must not be shared between
  goroutines. Build one per request.
*/
package engine

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MonthBalance is the derived balance of one group for one month.
type MonthBalance struct {
	GroupID             GroupID
	Month               MonthKey
	OpeningBalance      decimal.Decimal
	LabourCost          decimal.Decimal
	ExpenseCost         decimal.Decimal
	TotalCost           decimal.Decimal
	LabourPayments      decimal.Decimal
	ExpensePayments     decimal.Decimal
	TotalPayments       decimal.Decimal
	CurrentMonthBalance decimal.Decimal
	ClosingBalance      decimal.Decimal

	// HasActivity is true when the group had an instance, an expense or a
	// payment in this month.
	HasActivity bool
}

type groupMonth struct {
	group GroupID
	month MonthKey
}

// BalanceLedger computes MonthBalances over one snapshot.
type BalanceLedger struct {
	snap *Snapshot
	idx  index

	labour          map[groupMonth]decimal.Decimal
	expense         map[groupMonth]decimal.Decimal
	labourPayments  map[groupMonth]decimal.Decimal
	expensePayments map[groupMonth]decimal.Decimal
	active          map[groupMonth]bool
	firstMonth      map[GroupID]MonthKey

	memo map[GroupID][]MonthBalance

	Log logrus.FieldLogger
}

// NewBalanceLedger indexes the snapshot in one pass over attendance,
// expenses and payments.
func NewBalanceLedger(snap *Snapshot) *BalanceLedger {
	return NewBalanceLedgerWithLogger(snap, nil)
}

func NewBalanceLedgerWithLogger(snap *Snapshot, log logrus.FieldLogger) *BalanceLedger {
	l := &BalanceLedger{
		snap:            snap,
		idx:             newIndex(snap),
		labour:          make(map[groupMonth]decimal.Decimal),
		expense:         make(map[groupMonth]decimal.Decimal),
		labourPayments:  make(map[groupMonth]decimal.Decimal),
		expensePayments: make(map[groupMonth]decimal.Decimal),
		active:          make(map[groupMonth]bool),
		firstMonth:      make(map[GroupID]MonthKey),
		memo:            make(map[GroupID][]MonthBalance),
		Log:             log,
	}
	l.indexLabour()
	l.indexExpenses()
	l.indexPayments()
	return l
}

// ===== INDEXING =====

func (l *BalanceLedger) touch(k groupMonth) {
	l.active[k] = true
	if first, ok := l.firstMonth[k.group]; !ok || k.month.Before(first) {
		l.firstMonth[k.group] = k.month
	}
}

func (l *BalanceLedger) indexLabour() {
	for _, mi := range l.snap.Matrix().Instances {
		if _, ok := l.idx.groups[mi.GroupID]; !ok || !mi.Month.Valid() {
			continue
		}
		l.touch(groupMonth{mi.GroupID, mi.Month})
	}

	agg := &Aggregator{snap: l.snap, idx: l.idx, Log: l.Log}
	for gid, months := range agg.labourByGroupMonth() {
		for m, cost := range months {
			l.labour[groupMonth{gid, m}] = cost
		}
	}
}

func (l *BalanceLedger) indexExpenses() {
	groups := make([]Group, 0, len(l.idx.groups))
	for _, g := range l.idx.groups {
		groups = append(groups, g)
	}

	var alloc ExpenseAllocator
	for _, e := range l.snap.Expenses {
		if e.Deleted {
			continue
		}
		month, ok := e.AccountingMonth()
		if !ok {
			l.logger().WithField("expense_id", e.ID).Debug("skipping expense without accounting month")
			continue
		}
		for gid, amount := range alloc.Allocate(e, groups) {
			k := groupMonth{gid, month}
			l.expense[k] = l.expense[k].Add(amount)
			l.touch(k)
		}
	}
}

func (l *BalanceLedger) indexPayments() {
	for _, p := range l.snap.Payments {
		if p.Deleted {
			continue
		}
		if _, ok := l.idx.groups[p.GroupID]; !ok {
			l.logger().WithFields(logrus.Fields{
				"payment_id": p.ID,
				"group_id":   p.GroupID,
			}).Debug("skipping payment for unresolved group")
			continue
		}
		month, ok := p.AccountingMonth()
		if !ok {
			continue
		}
		k := groupMonth{p.GroupID, month}
		if p.For == PaymentForExpense {
			l.expensePayments[k] = l.expensePayments[k].Add(p.Amount)
		} else {
			l.labourPayments[k] = l.labourPayments[k].Add(p.Amount)
		}
		l.touch(k)
	}
}

// ===== QUERIES =====

// ComputeMonthBalance returns the balance of one group for one month.
func (l *BalanceLedger) ComputeMonthBalance(groupID GroupID, month MonthKey) (MonthBalance, error) {
	chain, err := l.MonthBalances(groupID, month)
	if err != nil {
		return MonthBalance{}, err
	}
	if len(chain) == 0 {
		return zeroBalance(groupID, month, decimal.Zero), nil
	}
	return chain[len(chain)-1], nil
}

// MonthBalances returns the chain of balances for a group from its first
// month with activity through the given month, ascending. Empty if the
// group has no activity on or before through.
func (l *BalanceLedger) MonthBalances(groupID GroupID, through MonthKey) ([]MonthBalance, error) {
	if _, err := ParseMonthKey(string(through)); err != nil {
		return nil, err
	}
	if _, ok := l.idx.groups[groupID]; !ok {
		return nil, &ReferenceError{Kind: RefGroup, ID: string(groupID)}
	}

	first, ok := l.firstMonth[groupID]
	if !ok || first.After(through) {
		return []MonthBalance{}, nil
	}

	chain := l.memo[groupID]
	opening := decimal.Zero
	next := first
	if n := len(chain); n > 0 {
		opening = chain[n-1].ClosingBalance
		next = chain[n-1].Month.Next()
	}
	for ; !next.After(through); next = next.Next() {
		b := l.fold(groupID, next, opening)
		chain = append(chain, b)
		opening = b.ClosingBalance
	}
	l.memo[groupID] = chain

	n := len(MonthsBetween(first, through))
	return append([]MonthBalance(nil), chain[:n]...), nil
}

// GroupBalances returns the month balance of every live group, ordered
// by group Order.
func (l *BalanceLedger) GroupBalances(month MonthKey) ([]MonthBalance, error) {
	if _, err := ParseMonthKey(string(month)); err != nil {
		return nil, err
	}
	groups := l.snap.LiveGroups()
	out := make([]MonthBalance, 0, len(groups))
	for _, g := range groups {
		b, err := l.ComputeMonthBalance(g.ID, month)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (l *BalanceLedger) fold(groupID GroupID, month MonthKey, opening decimal.Decimal) MonthBalance {
	k := groupMonth{groupID, month}
	b := zeroBalance(groupID, month, opening)
	b.LabourCost = l.labour[k]
	b.ExpenseCost = l.expense[k]
	b.LabourPayments = l.labourPayments[k]
	b.ExpensePayments = l.expensePayments[k]
	b.TotalCost = b.LabourCost.Add(b.ExpenseCost)
	b.TotalPayments = b.LabourPayments.Add(b.ExpensePayments)
	b.CurrentMonthBalance = b.TotalCost.Sub(b.TotalPayments)
	b.ClosingBalance = opening.Add(b.CurrentMonthBalance)
	b.HasActivity = l.active[k]
	return b
}

func (l *BalanceLedger) logger() logrus.FieldLogger {
	return loggerOrDiscard(l.Log)
}

func zeroBalance(groupID GroupID, month MonthKey, opening decimal.Decimal) MonthBalance {
	return MonthBalance{
		GroupID:             groupID,
		Month:               month,
		OpeningBalance:      opening,
		LabourCost:          decimal.Zero,
		ExpenseCost:         decimal.Zero,
		TotalCost:           decimal.Zero,
		LabourPayments:      decimal.Zero,
		ExpensePayments:     decimal.Zero,
		TotalPayments:       decimal.Zero,
		CurrentMonthBalance: decimal.Zero,
		ClosingBalance:      opening,
	}
}
