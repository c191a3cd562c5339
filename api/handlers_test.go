/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Master data create/list/soft delete and request validation
- Group activation, mark cycling, direct marks and cap flags
- Expenses, allocation view and payments
- Reports and balances over a loaded scenario
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/bijoor/farm-attendance-sub000/engine/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	h      *Handler
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := NewHandler(store.NewMemory(), nil)
	return &testServer{h: h, router: NewRouter(h, nil)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedFarm stores two workers and two groups directly.
func (s *testServer) seedFarm(t *testing.T) {
	t.Helper()
	require.NoError(t, s.h.Store.ReplaceAll(context.Background(), &engine.Snapshot{
		Workers: []engine.Worker{
			{ID: "w-asha", Name: "Asha", DailyRate: decimal.NewFromInt(400)},
			{ID: "w-bala", Name: "Bala", DailyRate: decimal.NewFromInt(300)},
		},
		Groups: []engine.Group{
			{ID: "g-paddy", Name: "Paddy", Order: 1},
			{ID: "g-orchard", Name: "Orchard", Order: 2},
			{ID: "g-fallow", Name: "Fallow", Order: 3, State: engine.StateInactive},
		},
		Activities: []engine.Activity{{Code: "weed", Name: "Weeding"}},
	}))
}

// =============================================================================
// MASTER DATA
// =============================================================================

func TestWorkers_CreateListDelete(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workers", SaveWorkerRequest{Name: "Asha", DailyRate: "400.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[WorkerDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "400.50", created.DailyRate)
	assert.Equal(t, "active", created.State)

	// Updating keeps the id and answers 200.
	rec = s.do(t, http.MethodPost, "/api/workers", SaveWorkerRequest{ID: created.ID, Name: "Asha", DailyRate: "450"})
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]WorkerDTO](t, s.do(t, http.MethodGet, "/api/workers", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "450.00", list[0].DailyRate)

	rec = s.do(t, http.MethodDelete, "/api/workers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, decode[[]WorkerDTO](t, s.do(t, http.MethodGet, "/api/workers", nil)))
	assert.Len(t, decode[[]WorkerDTO](t, s.do(t, http.MethodGet, "/api/workers?all=true", nil)), 1)

	rec = s.do(t, http.MethodDelete, "/api/workers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveWorker_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/workers", map[string]string{"daily_rate": "-5", "state": "asleep"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}](t, rec)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Equal(t, "required_without", resp.Details["name"])
	assert.Equal(t, "positive", resp.Details["daily_rate"])
	assert.Equal(t, "oneof", resp.Details["state"])

	// A zero rate would save a worker whose days cost nothing.
	rec = s.do(t, http.MethodPost, "/api/workers", SaveWorkerRequest{Name: "Asha", DailyRate: "0"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"daily_rate":"positive"`)
	assert.Empty(t, decode[[]WorkerDTO](t, s.do(t, http.MethodGet, "/api/workers?all=true", nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/workers", bytes.NewBufferString("{not json"))
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestGroupsAndTags(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/groups", SaveGroupRequest{ID: "g-b", Name: "Orchard", Order: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/groups", SaveGroupRequest{ID: "g-a", Name: "Paddy", Order: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	groups := decode[[]GroupDTO](t, s.do(t, http.MethodGet, "/api/groups", nil))
	require.Len(t, groups, 2)
	assert.Equal(t, "g-a", groups[0].ID)

	rec = s.do(t, http.MethodPost, "/api/activities", SaveTagRequest{Code: "weed", Name: "Weeding"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/areas", SaveTagRequest{Code: "north"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/activities/weed", nil).Code)
	assert.Empty(t, decode[[]TagDTO](t, s.do(t, http.MethodGet, "/api/activities", nil)))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/areas/north", nil).Code)
}

func TestRouter_IndexAndUnknownPaths(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	index := decode[struct {
		Name      string   `json:"name"`
		Endpoints []string `json:"endpoints"`
	}](t, rec)
	assert.Equal(t, "farm-attendance-ledger", index.Name)
	assert.Contains(t, index.Endpoints, "/api/workers")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/index.html", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/nothing-here", nil).Code)
}

func TestRoster(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)

	// No saved roster: every active worker.
	roster := decode[RosterDTO](t, s.do(t, http.MethodGet, "/api/months/2024-03/roster", nil))
	assert.False(t, roster.Explicit)
	assert.Equal(t, []string{"w-asha", "w-bala"}, roster.WorkerIDs)

	rec := s.do(t, http.MethodPut, "/api/months/2024-03/roster", SaveRosterRequest{WorkerIDs: []string{"w-bala"}})
	require.Equal(t, http.StatusOK, rec.Code)
	roster = decode[RosterDTO](t, s.do(t, http.MethodGet, "/api/months/2024-03/roster", nil))
	assert.True(t, roster.Explicit)
	assert.Equal(t, []string{"w-bala"}, roster.WorkerIDs)

	rec = s.do(t, http.MethodPut, "/api/months/2024-03/roster", SaveRosterRequest{WorkerIDs: []string{"w-nobody"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/months/March/roster", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendance_ActivateAndCycle(t *testing.T) {
	// GIVEN: Asha is Present in Paddy on 2024-03-01
	// WHEN: her Orchard cell for the same day is tapped
	// THEN: the ring skips Present and Half and offers Absent, then Unmarked
	s := newTestServer(t)
	s.seedFarm(t)

	rec := s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sheet := decode[InstanceDTO](t, rec)
	assert.Equal(t, []string{"w-asha", "w-bala"}, sheet.WorkerIDs)

	rec = s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "second activation returns the existing sheet")
	rec = s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-orchard", ActivateRequest{WorkerIDs: []string{"w-asha"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"w-asha"}, decode[InstanceDTO](t, rec).WorkerIDs)

	cycle := CycleMarkRequest{WorkerID: "w-asha", Date: "2024-03-01"}
	mark := decode[MarkDTO](t, s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy/marks/cycle", cycle))
	assert.Equal(t, "P", mark.Status)
	assert.Equal(t, "1", mark.DailyTotal)

	mark = decode[MarkDTO](t, s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-orchard/marks/cycle", cycle))
	assert.Equal(t, "A", mark.Status)
	mark = decode[MarkDTO](t, s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-orchard/marks/cycle", cycle))
	assert.Equal(t, "", mark.Status)
	assert.False(t, mark.Exceeded)

	// The writes were persisted.
	sheets := decode[[]InstanceDTO](t, s.do(t, http.MethodGet, "/api/months/2024-03/instances", nil))
	require.Len(t, sheets, 2)
	assert.Equal(t, "g-paddy", sheets[0].GroupID)
	require.Len(t, sheets[0].Days, 1)
	assert.Equal(t, "P", sheets[0].Days[0].Marks["w-asha"])
	assert.Empty(t, sheets[1].Days[0].Marks)
}

func TestAttendance_DirectMarkIsFlaggedNotRejected(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)
	s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy", nil)
	s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-orchard", nil)

	set := SetMarkRequest{WorkerID: "w-bala", Date: "2024-03-02", Status: "present"}
	rec := s.do(t, http.MethodPut, "/api/months/2024-03/groups/g-paddy/marks", set)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, "/api/months/2024-03/groups/g-orchard/marks", set)
	require.Equal(t, http.StatusOK, rec.Code)

	mark := decode[MarkDTO](t, rec)
	assert.Equal(t, "P", mark.Status)
	assert.Equal(t, "2", mark.DailyTotal)
	assert.True(t, mark.Exceeded)

	violations := decode[[]CapViolationDTO](t, s.do(t, http.MethodGet, "/api/months/2024-03/cap-violations", nil))
	require.Len(t, violations, 1)
	assert.Equal(t, CapViolationDTO{WorkerID: "w-bala", Date: "2024-03-02", Total: "2"}, violations[0])
}

func TestAttendance_Errors(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)
	s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy", nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"inactive group", http.MethodPost, "/api/months/2024-03/groups/g-fallow", nil, http.StatusConflict},
		{"unknown group", http.MethodPost, "/api/months/2024-03/groups/g-zzz", nil, http.StatusNotFound},
		{"bad month", http.MethodPost, "/api/months/2024-13/groups/g-paddy", nil, http.StatusBadRequest},
		{"not activated", http.MethodPost, "/api/months/2024-04/groups/g-paddy/marks/cycle",
			CycleMarkRequest{WorkerID: "w-asha", Date: "2024-04-01"}, http.StatusNotFound},
		{"day outside month", http.MethodPost, "/api/months/2024-03/groups/g-paddy/marks/cycle",
			CycleMarkRequest{WorkerID: "w-asha", Date: "2024-04-01"}, http.StatusBadRequest},
		{"malformed day", http.MethodPost, "/api/months/2024-03/groups/g-paddy/marks/cycle",
			CycleMarkRequest{WorkerID: "w-asha", Date: "2024-03-32"}, http.StatusBadRequest},
		{"unknown worker", http.MethodPost, "/api/months/2024-03/groups/g-paddy/marks/cycle",
			CycleMarkRequest{WorkerID: "w-zzz", Date: "2024-03-01"}, http.StatusNotFound},
		{"bad status", http.MethodPut, "/api/months/2024-03/groups/g-paddy/marks",
			SetMarkRequest{WorkerID: "w-asha", Date: "2024-03-01", Status: "X"}, http.StatusBadRequest},
		{"unknown activity", http.MethodPut, "/api/months/2024-03/groups/g-paddy/days/2024-03-01/tags",
			SetDayTagsRequest{Activity: "plough"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAttendance_DayTags(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)
	s.do(t, http.MethodPost, "/api/months/2024-03/groups/g-paddy", nil)

	rec := s.do(t, http.MethodPut, "/api/months/2024-03/groups/g-paddy/days/2024-03-05/tags", SetDayTagsRequest{Activity: "weed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sheet := decode[InstanceDTO](t, s.do(t, http.MethodGet, "/api/months/2024-03/groups/g-paddy", nil))
	require.Len(t, sheet.Days, 1)
	assert.Equal(t, "weed", sheet.Days[0].Activity)
	assert.Equal(t, "", sheet.Days[0].Area)
}

// =============================================================================
// EXPENSES AND PAYMENTS
// =============================================================================

func TestExpenses_SharedDefaultsAndAllocation(t *testing.T) {
	// GIVEN: two active groups and one inactive
	// WHEN: a shared expense is saved without allocations
	// THEN: it is split 50/50 over the active groups
	s := newTestServer(t)
	s.seedFarm(t)

	rec := s.do(t, http.MethodPost, "/api/expenses", SaveExpenseRequest{
		Date: "2024-03-04", Description: "Diesel", Amount: "900", IsShared: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[ExpenseDTO](t, rec)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "2024-03", e.Month)
	require.Len(t, e.Allocations, 2)
	assert.Equal(t, "50", e.Allocations[0].Percentage)

	alloc := decode[ExpenseAllocationDTO](t, s.do(t, http.MethodGet, "/api/expenses/"+e.ID+"/allocation", nil))
	assert.Equal(t, "100", alloc.PercentTotal)
	assert.Equal(t, "450.00", alloc.Groups["g-paddy"])
	assert.Equal(t, "450.00", alloc.Groups["g-orchard"])
	assert.Equal(t, "0.00", alloc.Unallocated)

	rec = s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{
		Month: "2024-03", Amount: "200", For: "expense", GroupID: "g-paddy", ExpenseID: e.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	expenses := decode[[]ExpenseDTO](t, s.do(t, http.MethodGet, "/api/expenses?month=2024-03", nil))
	require.Len(t, expenses, 1)
	assert.Equal(t, "700.00", expenses[0].Outstanding)
	assert.Empty(t, decode[[]ExpenseDTO](t, s.do(t, http.MethodGet, "/api/expenses?month=2024-04", nil)))

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/expenses/"+e.ID, nil).Code)
	assert.Empty(t, decode[[]ExpenseDTO](t, s.do(t, http.MethodGet, "/api/expenses", nil)))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/expenses/"+e.ID, nil).Code)
}

func TestExpenses_Errors(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)

	rec := s.do(t, http.MethodPost, "/api/expenses", SaveExpenseRequest{Amount: "10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/expenses", SaveExpenseRequest{Month: "2024-03", Amount: "0", GroupID: "g-paddy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "zero amount")
	rec = s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Month: "2024-03", Amount: "0", GroupID: "g-paddy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "zero payment")

	rec = s.do(t, http.MethodPost, "/api/expenses", SaveExpenseRequest{Month: "2024-03", Amount: "10", GroupID: "g-zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/expenses", SaveExpenseRequest{
		Month: "2024-03", Amount: "10", IsShared: true,
		Allocations: []AllocationDTO{{GroupID: "g-paddy", Percentage: "ten"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/expenses/e-zzz/allocation", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/expenses?from=2024-05&to=2024-01", nil).Code)
}

func TestPayments_SaveListDelete(t *testing.T) {
	s := newTestServer(t)
	s.seedFarm(t)

	rec := s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Date: "2024-03-31", Amount: "1800", GroupID: "g-paddy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[PaymentDTO](t, rec)
	assert.Equal(t, "labour", p.For)
	assert.Equal(t, "2024-03", p.Month)
	assert.Equal(t, "1800.00", p.Amount)

	s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Month: "2024-03", Amount: "50", GroupID: "g-orchard"})

	assert.Len(t, decode[[]PaymentDTO](t, s.do(t, http.MethodGet, "/api/payments?month=2024-03", nil)), 2)
	assert.Len(t, decode[[]PaymentDTO](t, s.do(t, http.MethodGet, "/api/payments?group_id=g-paddy", nil)), 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/payments/"+p.ID, nil).Code)
	assert.Len(t, decode[[]PaymentDTO](t, s.do(t, http.MethodGet, "/api/payments", nil)), 1)

	rec = s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Month: "2024-03", Amount: "1", GroupID: "g-zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Month: "2024-03", Amount: "1", GroupID: "g-paddy", ExpenseID: "e-zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/payments", SavePaymentRequest{Month: "2024-03", Amount: "1", GroupID: "g-paddy", For: "bonus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// REPORTS AND BALANCES
// =============================================================================

func loadScenarioOverHTTP(t *testing.T, s *testServer, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestReports_CarryForward(t *testing.T) {
	s := newTestServer(t)
	loadScenarioOverHTTP(t, s, "carry-forward")

	workers := decode[[]WorkerCostDTO](t, s.do(t, http.MethodGet, "/api/reports/workers?month=2024-03&nonzero=true", nil))
	require.Len(t, workers, 2)
	assert.Equal(t, "Asha", workers[0].Name)
	assert.Equal(t, "2000.00", workers[0].TotalCost)
	assert.Equal(t, 5, workers[0].DaysWorked)
	assert.Equal(t, "Bala", workers[1].Name)
	assert.Equal(t, 3, workers[1].HalfDays)
	assert.Equal(t, "1.5", workers[1].TotalDays)
	assert.Equal(t, "450.00", workers[1].TotalCost)

	assert.Len(t, decode[[]WorkerCostDTO](t, s.do(t, http.MethodGet, "/api/reports/workers?month=2024-03", nil)), 3)

	acts := decode[[]TagCostDTO](t, s.do(t, http.MethodGet, "/api/reports/activities?month=2024-03", nil))
	require.Len(t, acts, 2)
	assert.Equal(t, TagCostDTO{Code: "harv", Name: "Harvest", TotalDays: "3.5", TotalCost: "1250.00"}, acts[0])
	assert.Equal(t, TagCostDTO{Code: "weed", Name: "Weeding", TotalDays: "3", TotalCost: "1200.00"}, acts[1])

	groups := decode[[]GroupCostDTO](t, s.do(t, http.MethodGet, "/api/reports/groups?from=2024-01&to=2024-03", nil))
	require.Len(t, groups, 2)
	assert.Equal(t, "4000.00", groups[0].TotalCost)

	// First two days of March only.
	days := decode[[]GroupCostDTO](t, s.do(t, http.MethodGet, "/api/reports/groups?month=2024-03&from_day=2024-03-01&to_day=2024-03-02", nil))
	assert.Equal(t, "800.00", days[0].TotalCost)
	assert.Equal(t, "300.00", days[1].TotalCost)

	sum := decode[SummaryDTO](t, s.do(t, http.MethodGet, "/api/reports/summary?month=2024-03", nil))
	assert.Equal(t, "2450.00", sum.LabourCost)
	assert.Equal(t, "500.00", sum.TotalExpenses)
	assert.Equal(t, "1800.00", sum.LabourPayments)
	assert.Equal(t, "100.00", sum.ExpensePayments)
	assert.Equal(t, "1050.00", sum.Net)

	breakdown := decode[[]WorkerCostDTO](t, s.do(t, http.MethodGet, "/api/reports/groups/g-orchard/breakdown?month=2024-03", nil))
	require.Len(t, breakdown, 1)
	assert.Equal(t, "w-bala", breakdown[0].WorkerID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/reports/workers?from=2024-05&to=2024-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/reports/groups/g-orchard/breakdown", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/reports/groups/g-zzz/breakdown?month=2024-03", nil).Code)
}

func TestBalances_CarryForward(t *testing.T) {
	// GIVEN: Paddy closes January at 500 and has nothing in February
	// THEN: February opens and closes at 500 and March closes at 1000
	s := newTestServer(t)
	loadScenarioOverHTTP(t, s, "carry-forward")

	chain := decode[[]MonthBalanceDTO](t, s.do(t, http.MethodGet, "/api/balances/g-paddy?through=2024-03", nil))
	require.Len(t, chain, 3)
	assert.Equal(t, "500.00", chain[0].ClosingBalance)
	assert.Equal(t, "500.00", chain[1].OpeningBalance)
	assert.False(t, chain[1].HasActivity)
	assert.Equal(t, "500.00", chain[1].ClosingBalance)
	assert.Equal(t, "500.00", chain[2].CurrentMonthBalance)
	assert.Equal(t, "1000.00", chain[2].ClosingBalance)
	assert.Equal(t, "Paddy", chain[2].GroupName)

	feb := decode[[]MonthBalanceDTO](t, s.do(t, http.MethodGet, "/api/balances?month=2024-02", nil))
	require.Len(t, feb, 1, "orchard has nothing to show before March")
	assert.Equal(t, "g-paddy", feb[0].GroupID)
	assert.Len(t, decode[[]MonthBalanceDTO](t, s.do(t, http.MethodGet, "/api/balances?month=2024-02&all=true", nil)), 2)

	mar := decode[[]MonthBalanceDTO](t, s.do(t, http.MethodGet, "/api/balances?month=2024-03", nil))
	require.Len(t, mar, 2)
	assert.Equal(t, "550.00", mar[1].ClosingBalance)
	assert.Equal(t, "100.00", mar[1].ExpensePayments)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/balances/g-zzz?through=2024-03", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/balances?month=bad", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/balances/g-paddy", nil).Code)

	// Deleting the group removes it from the ledger.
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/groups/g-paddy", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/balances/g-paddy?through=2024-03", nil).Code)
}
