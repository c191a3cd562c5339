package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// EXPENSE ALLOCATOR
// =============================================================================

// ExpenseAllocator resolves an expense into per-group amounts.
//
// Unshared expenses go wholly to their GroupID. Shared expenses resolve each
// Allocation literally: FixedAmount if set, else Amount*Percentage/100.
// Percentages are not normalized, so a split summing to 90% leaves 10% of
// the expense on no group.
type ExpenseAllocator struct{}

// Allocate returns the amount charged to each group. groups is the set of
// groups the caller considers resolvable; allocations to any other group id
// are skipped. A nil groups slice disables that check.
//
// Deleted expenses, non-positive amounts and unshared expenses without a
// group all yield an empty map.
func (ExpenseAllocator) Allocate(e Expense, groups []Group) map[GroupID]decimal.Decimal {
	out := make(map[GroupID]decimal.Decimal)
	if e.Deleted || !e.Amount.IsPositive() {
		return out
	}

	var known map[GroupID]bool
	if groups != nil {
		known = make(map[GroupID]bool, len(groups))
		for _, g := range groups {
			if !g.Deleted {
				known[g.ID] = true
			}
		}
	}
	resolvable := func(id GroupID) bool {
		return id != "" && (known == nil || known[id])
	}

	if !e.IsShared {
		if resolvable(e.GroupID) {
			out[e.GroupID] = e.Amount
		}
		return out
	}

	for _, a := range e.Allocations {
		if !resolvable(a.GroupID) {
			continue
		}
		amount, ok := resolveAllocation(e.Amount, a)
		if !ok {
			continue
		}
		out[a.GroupID] = out[a.GroupID].Add(amount)
	}
	return out
}

func resolveAllocation(total decimal.Decimal, a Allocation) (decimal.Decimal, bool) {
	switch {
	case a.FixedAmount.Valid:
		return a.FixedAmount.Decimal, true
	case a.Percentage.Valid:
		return total.Mul(a.Percentage.Decimal).Div(hundred), true
	default:
		return decimal.Zero, false
	}
}

// DefaultAllocations builds the split a freshly shared expense starts with:
// one percentage allocation per active group, floor(100/n) each. The
// remainder is left unallocated.
func DefaultAllocations(groups []Group) []Allocation {
	var active []Group
	for _, g := range groups {
		if g.IsActive() {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sortGroups(active)

	pct := decimal.NewFromInt(int64(100 / len(active)))
	out := make([]Allocation, len(active))
	for i, g := range active {
		out[i] = Allocation{
			GroupID:    g.ID,
			Percentage: decimal.NullDecimal{Decimal: pct, Valid: true},
		}
	}
	return out
}

// AllocationPercentTotal sums the percentage of every allocation that has
// no fixed amount. Callers use it to warn when a split is not 100%.
func AllocationPercentTotal(e Expense) decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.Allocations {
		if !a.FixedAmount.Valid && a.Percentage.Valid {
			total = total.Add(a.Percentage.Decimal)
		}
	}
	return total
}

// ExpenseOutstanding returns the part of an expense not yet settled by
// payments linked to it. Negative when overpaid. An expense without an id
// cannot be linked to, so nothing settles it.
func ExpenseOutstanding(e Expense, payments []Payment) decimal.Decimal {
	if e.ID == "" {
		return e.Amount
	}
	paid := decimal.Zero
	for _, p := range payments {
		if p.Deleted || p.ExpenseID != e.ID {
			continue
		}
		paid = paid.Add(p.Amount)
	}
	return e.Amount.Sub(paid)
}
