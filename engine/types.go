/*
Package engine provides the attendance and cost ledger core.

PURPOSE:
  This package turns daily attendance marks of farm workers, organized
  into work groups, into money. It converts attendance into labour cost
  using per-worker daily rates, spreads expenses across groups and
  reconciles both against payments into a running balance per group per
  accounting month.

KEY CONCEPTS IN THIS FILE (types.go):
  - Worker, Group, Activity, Area: master data supplied by the caller
  - Expense, Allocation, Payment: money records feeding the balance
  - Typed identifiers so worker/group/expense ids cannot be mixed

DESIGN PRINCIPLES:
  1. Snapshot in, records out: every computation works on a Snapshot the
     caller supplies and returns plain records. Nothing is fetched or
     persisted from inside the engine.
  2. Derived, never stored: costs and balances are recomputed on read.
     A daily rate change therefore shows up in every later report.
  3. Precision: money uses decimal.Decimal and is never rounded inside a
     roll-up. Rounding is a display concern.
  4. Soft deletes: records flagged Deleted stay in the snapshot (sync and
     audit need them) and are skipped by every computation.

SEE ALSO:
  - attendance.go: AttendanceStatus and the cycling state machine
  - matrix.go: AttendanceMatrix, group instances and day entries
  - cost.go: Aggregator (per worker / group / activity / area roll-ups)
  - allocation.go: ExpenseAllocator
  - balance.go: BalanceLedger (opening -> closing chain per group)
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type GroupID string
type InstanceID string
type ExpenseID string
type PaymentID string
type CategoryID string

// =============================================================================
// MASTER DATA
// =============================================================================

// State is the active/inactive flag carried by workers and groups.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
)

// Worker is a farm labourer paid by the day.
type Worker struct {
	ID        WorkerID
	Name      string
	LocalName string
	DailyRate decimal.Decimal
	State     State
	Deleted   bool
}

// DisplayName returns the best name available for sorting and display.
func (w Worker) DisplayName() string {
	switch {
	case w.Name != "":
		return w.Name
	case w.LocalName != "":
		return w.LocalName
	default:
		return string(w.ID)
	}
}

// IsActive reports whether the worker is live and not marked inactive.
// An empty state counts as active.
func (w Worker) IsActive() bool {
	return !w.Deleted && w.State != StateInactive
}

// Group is a work gang. Groups are master data; each month a group is
// worked in gets its own MonthGroupInstance.
type Group struct {
	ID        GroupID
	Name      string
	LocalName string
	Order     int
	State     State
	Deleted   bool
}

func (g Group) DisplayName() string {
	switch {
	case g.Name != "":
		return g.Name
	case g.LocalName != "":
		return g.LocalName
	default:
		return string(g.ID)
	}
}

func (g Group) IsActive() bool {
	return !g.Deleted && g.State != StateInactive
}

// Activity tags what a group did on a day (e.g. weeding, harvest).
type Activity struct {
	Code    string
	Name    string
	Deleted bool
}

// Area tags where a group worked on a day (e.g. a plot or field).
type Area struct {
	Code    string
	Name    string
	Deleted bool
}

// =============================================================================
// EXPENSES
// =============================================================================

// Expense is a sundry cost charged to one group or shared by several.
type Expense struct {
	ID          ExpenseID
	Date        DayKey
	Month       MonthKey
	CategoryID  CategoryID
	Description string
	Amount      decimal.Decimal

	// Exactly one of GroupID or IsShared+Allocations is meaningful.
	// An unshared expense with no GroupID counts toward period totals but
	// toward no group's balance.
	GroupID     GroupID
	IsShared    bool
	Allocations []Allocation

	Deleted    bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// AccountingMonth returns the month the expense is booked in.
// Month wins over Date; ok is false when neither is usable.
func (e Expense) AccountingMonth() (MonthKey, bool) {
	if e.Month.Valid() {
		return e.Month, true
	}
	if m := e.Date.Month(); m != "" {
		return m, true
	}
	return "", false
}

// Allocation assigns part of a shared expense to one group.
// FixedAmount takes precedence over Percentage when both are set.
type Allocation struct {
	GroupID     GroupID
	Percentage  decimal.NullDecimal
	FixedAmount decimal.NullDecimal
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentFor string

const (
	PaymentForLabour  PaymentFor = "labour"
	PaymentForExpense PaymentFor = "expense"
)

// Payment is money paid out against one group. Payments are never shared.
type Payment struct {
	ID         PaymentID
	Date       DayKey
	Month      MonthKey
	Amount     decimal.Decimal
	For        PaymentFor
	GroupID    GroupID
	ExpenseID  ExpenseID // optional link to the expense being settled
	Deleted    bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

func (p Payment) AccountingMonth() (MonthKey, bool) {
	if p.Month.Valid() {
		return p.Month, true
	}
	if m := p.Date.Month(); m != "" {
		return m, true
	}
	return "", false
}

// =============================================================================
// HELPERS
// =============================================================================

// Rupees builds a money amount from a float. Meant for tests and fixtures;
// parse strings with decimal.NewFromString for real input.
func Rupees(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

var (
	one     = decimal.NewFromInt(1)
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)
