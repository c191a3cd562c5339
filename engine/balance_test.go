package engine_test

import (
	"errors"
	"testing"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feb = engine.MonthKey("2024-02")
	may = engine.MonthKey("2024-05")
)

// fiveDays marks Asha Present on five days of the month in group A (2000).
func fiveDays(t *testing.T, s *engine.Snapshot, m engine.MonthKey) {
	t.Helper()
	for _, d := range []string{"01", "02", "03", "04", "05"} {
		mark(t, s, "g-a", "w-asha", day(m, d), engine.StatusPresent)
	}
}

func TestComputeMonthBalance_Formula(t *testing.T) {
	// GIVEN: February leaves group A owing 500
	//        March: labour 2000, expense 300, payments 1800
	// THEN:  March closes at 500 + (2000 + 300 - 1800) = 1000
	s := newFarm()
	s.Expenses = []engine.Expense{
		{ID: "e-feb", Month: feb, Amount: engine.Rupees(500), GroupID: "g-a"},
		{ID: "e-mar", Date: day(march, "12"), Amount: engine.Rupees(300), GroupID: "g-a"},
	}
	fiveDays(t, s, march)
	s.Payments = []engine.Payment{
		{ID: "p-1", Month: march, Amount: engine.Rupees(1500), For: engine.PaymentForLabour, GroupID: "g-a"},
		{ID: "p-2", Month: march, Amount: engine.Rupees(300), For: engine.PaymentForExpense, GroupID: "g-a", ExpenseID: "e-mar"},
	}

	b, err := engine.NewBalanceLedger(s).ComputeMonthBalance("g-a", march)
	require.NoError(t, err)

	assertMoney(t, "500", b.OpeningBalance)
	assertMoney(t, "2000", b.LabourCost)
	assertMoney(t, "300", b.ExpenseCost)
	assertMoney(t, "2300", b.TotalCost)
	assertMoney(t, "1500", b.LabourPayments)
	assertMoney(t, "300", b.ExpensePayments)
	assertMoney(t, "1800", b.TotalPayments)
	assertMoney(t, "500", b.CurrentMonthBalance)
	assertMoney(t, "1000", b.ClosingBalance)
	assert.True(t, b.HasActivity)
}

func TestMonthBalances_ChainAcrossGap(t *testing.T) {
	// GIVEN: activity in March and May but nothing in April
	// THEN: each opening equals the previous closing and April carries over
	s := newFarm()
	fiveDays(t, s, march)
	fiveDays(t, s, may)
	s.Payments = []engine.Payment{
		{ID: "p-1", Month: march, Amount: engine.Rupees(1200), GroupID: "g-a"},
		{ID: "p-2", Date: day(may, "20"), Amount: engine.Rupees(2500), GroupID: "g-a"},
	}
	ledger := engine.NewBalanceLedger(s)

	chain, err := ledger.MonthBalances("g-a", may)
	require.NoError(t, err)
	require.Len(t, chain, 3)

	assert.Equal(t, []engine.MonthKey{march, april, may}, []engine.MonthKey{chain[0].Month, chain[1].Month, chain[2].Month})
	assertMoney(t, "800", chain[0].ClosingBalance)
	assert.False(t, chain[1].HasActivity)
	assertMoney(t, "800", chain[1].OpeningBalance)
	assertMoney(t, "800", chain[1].ClosingBalance)
	assertMoney(t, "800", chain[2].OpeningBalance)
	assertMoney(t, "300", chain[2].ClosingBalance)

	for i := 1; i < len(chain); i++ {
		assert.True(t, chain[i].OpeningBalance.Equal(chain[i-1].ClosingBalance), "month %s", chain[i].Month)
	}

	// Asking for an earlier month after a later one reuses the memo.
	apr, err := ledger.ComputeMonthBalance("g-a", april)
	require.NoError(t, err)
	assert.Equal(t, chain[1], apr)

	fresh, err := engine.NewBalanceLedger(s).ComputeMonthBalance("g-a", april)
	require.NoError(t, err)
	assert.Equal(t, apr, fresh)
}

func TestComputeMonthBalance_SharedExpenseSplitsAcrossGroups(t *testing.T) {
	s := newFarm()
	s.Expenses = []engine.Expense{{
		ID: "e-1", Month: march, Amount: engine.Rupees(1000), IsShared: true,
		Allocations: []engine.Allocation{
			{GroupID: "g-a", Percentage: pct(60)},
			{GroupID: "g-b", Percentage: pct(40)},
			{GroupID: "g-del", Percentage: pct(10)},
		},
	}}
	ledger := engine.NewBalanceLedger(s)

	balances, err := ledger.GroupBalances(march)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, engine.GroupID("g-a"), balances[0].GroupID)
	assertMoney(t, "600", balances[0].ClosingBalance)
	assertMoney(t, "400", balances[1].ClosingBalance)
}

func TestComputeMonthBalance_NoActivityIsZero(t *testing.T) {
	s := newFarm()
	fiveDays(t, s, may)

	b, err := engine.NewBalanceLedger(s).ComputeMonthBalance("g-b", march)
	require.NoError(t, err)
	assert.Equal(t, engine.GroupID("g-b"), b.GroupID)
	assertMoney(t, "0", b.OpeningBalance)
	assertMoney(t, "0", b.ClosingBalance)
	assert.False(t, b.HasActivity)

	// Group A before its first activity.
	b, err = engine.NewBalanceLedger(s).ComputeMonthBalance("g-a", march)
	require.NoError(t, err)
	assertMoney(t, "0", b.ClosingBalance)
}

func TestComputeMonthBalance_ActivatedInstanceCountsAsActivity(t *testing.T) {
	s := newFarm()
	_, err := s.Matrix().Activate(march, "g-b")
	require.NoError(t, err)

	b, err := engine.NewBalanceLedger(s).ComputeMonthBalance("g-b", march)
	require.NoError(t, err)
	assert.True(t, b.HasActivity)
	assertMoney(t, "0", b.ClosingBalance)
}

func TestComputeMonthBalance_Errors(t *testing.T) {
	s := newFarm()
	ledger := engine.NewBalanceLedger(s)

	_, err := ledger.ComputeMonthBalance("g-ghost", march)
	var refErr *engine.ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, engine.RefGroup, refErr.Kind)
	assert.ErrorIs(t, err, engine.ErrUnknownGroup)

	_, err = ledger.ComputeMonthBalance("g-del", march)
	assert.ErrorIs(t, err, engine.ErrUnknownGroup, "deleted groups do not resolve")

	_, err = ledger.ComputeMonthBalance("g-a", "March")
	assert.ErrorIs(t, err, engine.ErrInvalidMonth)

	_, err = ledger.GroupBalances("2024-3")
	assert.ErrorIs(t, err, engine.ErrInvalidMonth)
}

func TestBalance_DeletedRecordsExcluded(t *testing.T) {
	s := newFarm()
	s.Expenses = []engine.Expense{
		{ID: "e-1", Month: march, Amount: engine.Rupees(100), GroupID: "g-a", Deleted: true},
		{ID: "e-2", Month: march, Amount: engine.Rupees(50), GroupID: "g-a"},
	}
	s.Payments = []engine.Payment{
		{ID: "p-1", Month: march, Amount: engine.Rupees(999), GroupID: "g-a", Deleted: true},
		{ID: "p-2", Month: march, Amount: engine.Rupees(999), GroupID: "g-ghost"},
	}

	b, err := engine.NewBalanceLedger(s).ComputeMonthBalance("g-a", march)
	require.NoError(t, err)
	assertMoney(t, "50", b.ExpenseCost)
	assertMoney(t, "0", b.TotalPayments)
	assertMoney(t, "50", b.ClosingBalance)
}
