package api

import (
	"net/http"
	"sort"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns expenses ordered by accounting month and date.
// GET /api/expenses?from=YYYY-MM&to=YYYY-MM&all=true
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	months, err := monthRangeFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	var expenses []engine.Expense
	for _, e := range snap.Expenses {
		m, valid := e.AccountingMonth()
		if (e.Deleted && !includeDeleted(r)) || !valid || !months.Contains(m) {
			continue
		}
		expenses = append(expenses, e)
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		mi, _ := expenses[i].AccountingMonth()
		mj, _ := expenses[j].AccountingMonth()
		if mi != mj {
			return mi < mj
		}
		return expenses[i].Date < expenses[j].Date
	})

	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e, snap.Payments)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveExpense creates or updates an expense. A shared expense sent without
// allocations is split equally over the active groups.
// POST /api/expenses
func (h *Handler) SaveExpense(w http.ResponseWriter, r *http.Request) {
	var req SaveExpenseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" && req.Month == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"date": "required_without", "month": "required_without"},
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	e := engine.Expense{
		ID:          engine.ExpenseID(req.ID),
		Date:        engine.DayKey(req.Date),
		Month:       engine.MonthKey(req.Month),
		CategoryID:  engine.CategoryID(req.CategoryID),
		Description: req.Description,
		Amount:      decimal.RequireFromString(req.Amount),
		IsShared:    req.IsShared,
	}
	if e.ID == "" {
		e.ID = engine.ExpenseID(uuid.NewString())
	}
	status := http.StatusOK
	if existing, found := snap.Expense(e.ID); found {
		e.CreatedAt = existing.CreatedAt
	} else {
		status = http.StatusCreated
	}

	if e.IsShared {
		for _, a := range req.Allocations {
			alloc := engine.Allocation{GroupID: engine.GroupID(a.GroupID)}
			if a.Percentage != "" {
				alloc.Percentage = decimal.NewNullDecimal(decimal.RequireFromString(a.Percentage))
			}
			if a.FixedAmount != "" {
				alloc.FixedAmount = decimal.NewNullDecimal(decimal.RequireFromString(a.FixedAmount))
			}
			e.Allocations = append(e.Allocations, alloc)
		}
		if len(e.Allocations) == 0 {
			e.Allocations = engine.DefaultAllocations(snap.ActiveGroups())
		}
	} else if req.GroupID != "" {
		e.GroupID = engine.GroupID(req.GroupID)
		if g, found := snap.Group(e.GroupID); !found || g.Deleted {
			h.fail(w, r, "Group not found", &engine.ReferenceError{Kind: engine.RefGroup, ID: req.GroupID})
			return
		}
	}

	if err := h.Store.SaveExpense(r.Context(), e); err != nil {
		h.fail(w, r, "Failed to save expense", err)
		return
	}
	writeJSON(w, status, toExpenseDTO(e, snap.Payments))
}

// DeleteExpense soft-deletes an expense. Payments linked to it keep
// counting against their group.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	e, found := snap.Expense(engine.ExpenseID(chi.URLParam(r, "id")))
	if !found || e.Deleted {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}
	e.Deleted = true
	if err := h.Store.SaveExpense(r.Context(), e); err != nil {
		h.fail(w, r, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetExpenseAllocation shows how an expense is charged to groups.
// GET /api/expenses/{id}/allocation
func (h *Handler) GetExpenseAllocation(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	e, found := snap.Expense(engine.ExpenseID(chi.URLParam(r, "id")))
	if !found {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}

	var allocator engine.ExpenseAllocator
	shares := allocator.Allocate(e, snap.LiveGroups())

	allocated := decimal.Zero
	groups := make(map[string]string, len(shares))
	for gid, amount := range shares {
		allocated = allocated.Add(amount)
		groups[string(gid)] = money(amount)
	}
	amount := e.Amount
	if e.Deleted {
		amount = decimal.Zero
	}

	writeJSON(w, http.StatusOK, ExpenseAllocationDTO{
		ExpenseID:    string(e.ID),
		Amount:       money(amount),
		PercentTotal: engine.AllocationPercentTotal(e).String(),
		Allocated:    money(allocated),
		Unallocated:  money(amount.Sub(allocated)),
		Outstanding:  money(engine.ExpenseOutstanding(e, snap.Payments)),
		Groups:       groups,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns payments ordered by accounting month and date.
// GET /api/payments?from=&to=&group_id=&all=true
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	months, err := monthRangeFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	groupID := engine.GroupID(r.URL.Query().Get("group_id"))

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	var payments []engine.Payment
	for _, p := range snap.Payments {
		m, valid := p.AccountingMonth()
		if (p.Deleted && !includeDeleted(r)) || !valid || !months.Contains(m) {
			continue
		}
		if groupID != "" && p.GroupID != groupID {
			continue
		}
		payments = append(payments, p)
	}
	sort.SliceStable(payments, func(i, j int) bool {
		mi, _ := payments[i].AccountingMonth()
		mj, _ := payments[j].AccountingMonth()
		if mi != mj {
			return mi < mj
		}
		return payments[i].Date < payments[j].Date
	})

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SavePayment records money paid to a group. A payment linked to an
// expense must name an existing one.
// POST /api/payments
func (h *Handler) SavePayment(w http.ResponseWriter, r *http.Request) {
	var req SavePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" && req.Month == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"date": "required_without", "month": "required_without"},
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}

	p := engine.Payment{
		ID:        engine.PaymentID(req.ID),
		Date:      engine.DayKey(req.Date),
		Month:     engine.MonthKey(req.Month),
		Amount:    decimal.RequireFromString(req.Amount),
		For:       engine.PaymentFor(req.For),
		GroupID:   engine.GroupID(req.GroupID),
		ExpenseID: engine.ExpenseID(req.ExpenseID),
	}
	if p.For == "" {
		p.For = engine.PaymentForLabour
	}
	if p.ID == "" {
		p.ID = engine.PaymentID(uuid.NewString())
	}
	if g, found := snap.Group(p.GroupID); !found || g.Deleted {
		h.fail(w, r, "Group not found", &engine.ReferenceError{Kind: engine.RefGroup, ID: req.GroupID})
		return
	}
	if p.ExpenseID != "" {
		if _, found := snap.Expense(p.ExpenseID); !found {
			writeError(w, http.StatusNotFound, "Expense not found", nil)
			return
		}
	}

	status := http.StatusCreated
	for _, existing := range snap.Payments {
		if existing.ID == p.ID {
			status = http.StatusOK
			p.CreatedAt = existing.CreatedAt
			break
		}
	}

	if err := h.Store.SavePayment(r.Context(), p); err != nil {
		h.fail(w, r, "Failed to save payment", err)
		return
	}
	writeJSON(w, status, toPaymentDTO(p))
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	id := engine.PaymentID(chi.URLParam(r, "id"))
	for _, p := range snap.Payments {
		if p.ID == id && !p.Deleted {
			p.Deleted = true
			if err := h.Store.SavePayment(r.Context(), p); err != nil {
				h.fail(w, r, "Failed to delete payment", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Payment not found", nil)
}
