package engine_test

import (
	"testing"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeAndTwo marks Asha Present on 3 days and Half on 2 days in group A.
func threeAndTwo(t *testing.T, s *engine.Snapshot) {
	t.Helper()
	for _, d := range []string{"01", "02", "03"} {
		mark(t, s, "g-a", "w-asha", day(march, d), engine.StatusPresent)
	}
	for _, d := range []string{"04", "05"} {
		mark(t, s, "g-a", "w-asha", day(march, d), engine.StatusHalf)
	}
}

func TestCostPerWorker_PresentAndHalfDays(t *testing.T) {
	// GIVEN: rate 400, 3 Present and 2 Half days in one group for one month
	// THEN: 3*400 + 2*400*0.5 = 1600
	s := newFarm()
	threeAndTwo(t, s)
	mark(t, s, "g-a", "w-asha", day(march, "06"), engine.StatusAbsent)

	wc := engine.NewAggregator(s).CostPerWorker("w-asha", engine.ForMonth(march))

	assert.Equal(t, "Asha", wc.Name)
	assert.Equal(t, 3, wc.DaysWorked)
	assert.Equal(t, 2, wc.HalfDays)
	assertMoney(t, "4", wc.TotalDays)
	assertMoney(t, "1600", wc.TotalCost)
}

func TestCostPerWorker_SpansGroupsAndRespectsFilter(t *testing.T) {
	s := newFarm()
	mark(t, s, "g-a", "w-bala", day(march, "10"), engine.StatusHalf)
	mark(t, s, "g-b", "w-bala", day(march, "10"), engine.StatusHalf)
	mark(t, s, "g-b", "w-bala", day(april, "02"), engine.StatusPresent)
	agg := engine.NewAggregator(s)

	assertMoney(t, "300", agg.CostPerWorker("w-bala", engine.ForMonth(march)).TotalCost)
	assertMoney(t, "600", agg.CostPerWorker("w-bala", engine.ForMonths(march, april)).TotalCost)
	assertMoney(t, "600", agg.CostPerWorker("w-bala", engine.Filter{}).TotalCost)

	custom := engine.Filter{From: day(march, "15"), To: day(april, "10")}
	wc := agg.CostPerWorker("w-bala", custom)
	assert.Equal(t, 1, wc.DaysWorked)
	assert.Equal(t, 0, wc.HalfDays)
	assertMoney(t, "300", wc.TotalCost)
}

func TestCostPerWorker_AdditiveAcrossMonths(t *testing.T) {
	// GIVEN: marks spread over March, April and May in two groups
	// THEN: the cost over the whole range equals the sum of each month alone
	s := newFarm()
	may := april.Next()
	mark(t, s, "g-a", "w-bala", day(march, "10"), engine.StatusHalf)
	mark(t, s, "g-b", "w-bala", day(march, "10"), engine.StatusHalf)
	mark(t, s, "g-b", "w-bala", day(march, "11"), engine.StatusPresent)
	mark(t, s, "g-b", "w-bala", day(april, "02"), engine.StatusPresent)
	mark(t, s, "g-a", "w-bala", day(april, "03"), engine.StatusHalf)
	mark(t, s, "g-a", "w-bala", day(may, "20"), engine.StatusPresent)
	agg := engine.NewAggregator(s)

	sum := decimal.Zero
	for _, m := range engine.MonthsBetween(march, may) {
		sum = sum.Add(agg.CostPerWorker("w-bala", engine.ForMonth(m)).TotalCost)
	}
	whole := agg.CostPerWorker("w-bala", engine.ForMonths(march, may)).TotalCost

	assertMoney(t, "1350", whole)
	assertMoney(t, whole.String(), sum)
	assertMoney(t, "450", agg.CostPerWorker("w-bala", engine.ForMonth(april)).TotalCost)
}

func TestCostPerWorker_UnresolvableContributesZero(t *testing.T) {
	s := newFarm()
	mark(t, s, "g-a", "w-del", day(march, "01"), engine.StatusPresent)
	mark(t, s, "g-a", "w-norate", day(march, "01"), engine.StatusPresent)
	mark(t, s, "g-a", "w-ghost", day(march, "01"), engine.StatusPresent)
	mark(t, s, "g-del", "w-asha", day(march, "02"), engine.StatusPresent)
	agg := engine.NewAggregator(s)

	for _, id := range []engine.WorkerID{"w-del", "w-norate", "w-ghost"} {
		wc := agg.CostPerWorker(id, engine.Filter{})
		assert.Equal(t, 0, wc.DaysWorked, id)
		assertMoney(t, "0", wc.TotalCost, id)
	}

	// Asha's only mark is in a deleted group.
	assertMoney(t, "0", agg.CostPerWorker("w-asha", engine.Filter{}).TotalCost)
}

func TestCostPerWorkers_AllLiveWorkersSortedByName(t *testing.T) {
	s := newFarm()
	threeAndTwo(t, s)

	costs := engine.NewAggregator(s).CostPerWorkers(nil, engine.ForMonth(march))
	require.Len(t, costs, 3)
	assert.Equal(t, []string{"Asha", "Bala", "Chitra"}, []string{costs[0].Name, costs[1].Name, costs[2].Name})
	assertMoney(t, "1600", costs[0].TotalCost)
	assertMoney(t, "0", costs[1].TotalCost)
}

func TestCostPerActivityAndArea(t *testing.T) {
	// GIVEN: weeding in the north plot on the 1st, harvest untagged by area on
	// the 2nd and an untagged day on the 3rd
	s := newFarm()
	mark(t, s, "g-a", "w-asha", day(march, "01"), engine.StatusPresent)
	mark(t, s, "g-a", "w-bala", day(march, "01"), engine.StatusHalf)
	tag(t, s, "g-a", day(march, "01"), "weed", "north")

	mark(t, s, "g-b", "w-bala", day(march, "02"), engine.StatusPresent)
	tag(t, s, "g-b", day(march, "02"), "harv", "")

	mark(t, s, "g-a", "w-asha", day(march, "03"), engine.StatusPresent)

	agg := engine.NewAggregator(s)

	acts := agg.CostPerActivity(nil, engine.ForMonth(march))
	require.Len(t, acts, 2)
	assert.Equal(t, "weed", acts[0].Code)
	assertMoney(t, "1.5", acts[0].TotalDays)
	assertMoney(t, "550", acts[0].TotalCost)
	assert.Equal(t, "harv", acts[1].Code)
	assertMoney(t, "300", acts[1].TotalCost)

	areas := agg.CostPerArea(nil, engine.ForMonth(march))
	require.Len(t, areas, 2)
	assertMoney(t, "550", areas[0].TotalCost)
	assert.Equal(t, "south", areas[1].Code)
	assertMoney(t, "0", areas[1].TotalCost, "zero rows are kept")

	// Untagged days belong to no bucket.
	total := decimal.Zero
	for _, a := range acts {
		total = total.Add(a.TotalCost)
	}
	all := agg.CostPerGroup(nil, engine.ForMonth(march))
	groupTotal := decimal.Zero
	for _, g := range all {
		groupTotal = groupTotal.Add(g.TotalCost)
	}
	assertMoney(t, "850", total)
	assertMoney(t, "1250", groupTotal)
}

func TestCostPerGroup_LinearOverWorkers(t *testing.T) {
	// Sum of per-group costs equals sum of per-worker costs for the same filter.
	s := newFarm()
	threeAndTwo(t, s)
	mark(t, s, "g-b", "w-bala", day(march, "01"), engine.StatusPresent)
	mark(t, s, "g-b", "w-bala", day(march, "02"), engine.StatusHalf)
	mark(t, s, "g-b", "w-asha", day(march, "08"), engine.StatusPresent)
	agg := engine.NewAggregator(s)
	f := engine.ForMonth(march)

	groups := agg.CostPerGroup(nil, f)
	require.Len(t, groups, 2)
	assert.Equal(t, engine.GroupID("g-a"), groups[0].GroupID, "ordered by group order")
	assertMoney(t, "1600", groups[0].TotalCost)
	assertMoney(t, "850", groups[1].TotalCost)

	byGroup := decimal.Zero
	for _, g := range groups {
		byGroup = byGroup.Add(g.TotalCost)
	}
	byWorker := decimal.Zero
	for _, w := range agg.CostPerWorkers(nil, f) {
		byWorker = byWorker.Add(w.TotalCost)
	}
	assert.True(t, byGroup.Equal(byWorker), "groups %s != workers %s", byGroup, byWorker)
}

func TestWorkerBreakdownPerGroup(t *testing.T) {
	s := newFarm()
	threeAndTwo(t, s)
	mark(t, s, "g-a", "w-bala", day(march, "01"), engine.StatusAbsent)
	mark(t, s, "g-b", "w-bala", day(march, "01"), engine.StatusPresent)
	agg := engine.NewAggregator(s)

	rows := agg.WorkerBreakdownPerGroup("g-a", march)
	require.Len(t, rows, 1, "absent-only workers are left out")
	assert.Equal(t, engine.WorkerID("w-asha"), rows[0].WorkerID)
	assertMoney(t, "1600", rows[0].TotalCost)

	assert.Empty(t, agg.WorkerBreakdownPerGroup("g-a", april))
	assert.Empty(t, agg.WorkerBreakdownPerGroup("g-missing", march))
}

func TestAggregator_Idempotent(t *testing.T) {
	s := newFarm()
	threeAndTwo(t, s)
	agg := engine.NewAggregator(s)

	first := agg.CostPerGroup(nil, engine.Filter{})
	second := agg.CostPerGroup(nil, engine.Filter{})
	assert.Equal(t, first, second)

	third := engine.NewAggregator(s).CostPerWorkers(nil, engine.Filter{})
	fourth := engine.NewAggregator(s).CostPerWorkers(nil, engine.Filter{})
	assert.Equal(t, third, fourth)
}

func TestCost_RateChangeAppliesOnRead(t *testing.T) {
	s := newFarm()
	threeAndTwo(t, s)
	s.Workers[0].DailyRate = engine.Rupees(500)

	assertMoney(t, "2000", engine.NewAggregator(s).CostPerWorker("w-asha", engine.Filter{}).TotalCost)
}
