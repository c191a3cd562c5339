package api

import (
	"net/http"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/bijoor/farm-attendance-sub000/report"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// COST REPORTS
// =============================================================================
//
// Every report takes the same period query:
//   month=YYYY-MM                 one month (shorthand for from=to=month)
//   from=YYYY-MM, to=YYYY-MM      inclusive month range, either side open
//   from_day, to_day=YYYY-MM-DD   optional day bounds inside the range
//   nonzero=true                  drop rows without cost

// WorkerReport returns per-worker labour cost sorted by name.
// GET /api/reports/workers
func (h *Handler) WorkerReport(w http.ResponseWriter, r *http.Request) {
	f, snap, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toWorkerCostDTOs(report.Workers(snap, f, nonZero(r))))
}

// GroupReport returns per-group labour cost in display order.
// GET /api/reports/groups
func (h *Handler) GroupReport(w http.ResponseWriter, r *http.Request) {
	f, snap, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupCostDTOs(report.Groups(snap, f, nonZero(r))))
}

// ActivityReport returns labour cost per activity code.
// GET /api/reports/activities
func (h *Handler) ActivityReport(w http.ResponseWriter, r *http.Request) {
	f, snap, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	rows := report.Activities(snap, f, nonZero(r))
	dtos := make([]TagCostDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toTagCostDTO(row.Code, row.Name, row.TotalDays, row.TotalCost)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AreaReport returns labour cost per area code.
// GET /api/reports/areas
func (h *Handler) AreaReport(w http.ResponseWriter, r *http.Request) {
	f, snap, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	rows := report.Areas(snap, f, nonZero(r))
	dtos := make([]TagCostDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toTagCostDTO(row.Code, row.Name, row.TotalDays, row.TotalCost)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SummaryReport returns the period headline: labour, expenses, payments
// and net.
// GET /api/reports/summary
func (h *Handler) SummaryReport(w http.ResponseWriter, r *http.Request) {
	f, snap, ok := h.reportInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(report.Summarize(snap, f)))
}

// GroupBreakdown returns the workers who worked in a group in one month.
// GET /api/reports/groups/{groupID}/breakdown?month=YYYY-MM
func (h *Handler) GroupBreakdown(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	groupID := engine.GroupID(chi.URLParam(r, "groupID"))
	if g, found := snap.Group(groupID); !found || g.Deleted {
		h.fail(w, r, "Group not found", &engine.ReferenceError{Kind: engine.RefGroup, ID: string(groupID)})
		return
	}

	agg := engine.NewAggregator(snap)
	agg.Log = h.Log
	writeJSON(w, http.StatusOK, toWorkerCostDTOs(agg.WorkerBreakdownPerGroup(groupID, month)))
}

// =============================================================================
// BALANCES
// =============================================================================

// ListBalances returns every group's balance for a month. Groups with no
// activity and nothing carried in are hidden unless all=true.
// GET /api/balances?month=YYYY-MM&all=true
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	includeTrivial := r.URL.Query().Get("all") == "true"
	rows, err := report.Balances(snap, month, includeTrivial)
	if err != nil {
		h.fail(w, r, "Failed to compute balances", err)
		return
	}
	dtos := make([]MonthBalanceDTO, len(rows))
	for i, b := range rows {
		dtos[i] = toMonthBalanceDTO(snap, b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetGroupBalances returns one group's month-by-month ledger from its
// first active month through the given month.
// GET /api/balances/{groupID}?through=YYYY-MM
func (h *Handler) GetGroupBalances(w http.ResponseWriter, r *http.Request) {
	through, err := engine.ParseMonthKey(r.URL.Query().Get("through"))
	if err != nil {
		h.fail(w, r, "Invalid month", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	chain, err := report.GroupHistory(snap, engine.GroupID(chi.URLParam(r, "groupID")), through)
	if err != nil {
		h.fail(w, r, "Failed to compute balances", err)
		return
	}
	dtos := make([]MonthBalanceDTO, len(chain))
	for i, b := range chain {
		dtos[i] = toMonthBalanceDTO(snap, b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUERY PARSING
// =============================================================================

func (h *Handler) reportInput(w http.ResponseWriter, r *http.Request) (engine.Filter, *engine.Snapshot, bool) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return f, nil, false
	}
	snap, ok := h.load(w, r)
	return f, snap, ok
}

func monthRangeFromQuery(r *http.Request) (engine.MonthRange, error) {
	q := r.URL.Query()
	months := engine.MonthRange{
		Start: engine.MonthKey(q.Get("from")),
		End:   engine.MonthKey(q.Get("to")),
	}
	if m := q.Get("month"); m != "" {
		months = engine.SingleMonth(engine.MonthKey(m))
	}
	return months, months.Validate()
}

func filterFromQuery(r *http.Request) (engine.Filter, error) {
	months, err := monthRangeFromQuery(r)
	if err != nil {
		return engine.Filter{}, err
	}
	q := r.URL.Query()
	f := engine.Filter{
		Months: months,
		From:   engine.DayKey(q.Get("from_day")),
		To:     engine.DayKey(q.Get("to_day")),
	}
	return f, f.Validate()
}

func nonZero(r *http.Request) bool {
	return r.URL.Query().Get("nonzero") == "true"
}
