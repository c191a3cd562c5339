/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as strings. Requests accept any decimal ("412.5");
  responses are rendered with two decimals ("412.50"). Attendance day
  counts are rendered without padding ("1.5").

VALIDATION:
  Request types carry `validate` tags checked by go-playground/validator
  before any store access. Custom tags registered in handlers.go:
    monthkey  YYYY-MM
    daykey    YYYY-MM-DD
    money     decimal, not negative
    positive  decimal above zero (rates and amounts)
    mark      P/A/H, long names, or empty for unmarked

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: the records these mirror
*/
package api

import (
	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/bijoor/farm-attendance-sub000/report"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MASTER DATA
// =============================================================================

type WorkerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LocalName string `json:"local_name,omitempty"`
	DailyRate string `json:"daily_rate"`
	State     string `json:"state"`
	Deleted   bool   `json:"deleted,omitempty"`
}

type SaveWorkerRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required_without=LocalName"`
	LocalName string `json:"local_name"`
	DailyRate string `json:"daily_rate" validate:"required,positive"`
	State     string `json:"state" validate:"omitempty,oneof=active inactive"`
}

type GroupDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LocalName string `json:"local_name,omitempty"`
	Order     int    `json:"order"`
	State     string `json:"state"`
	Deleted   bool   `json:"deleted,omitempty"`
}

type SaveGroupRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required_without=LocalName"`
	LocalName string `json:"local_name"`
	Order     int    `json:"order" validate:"gte=0"`
	State     string `json:"state" validate:"omitempty,oneof=active inactive"`
}

// TagDTO is an activity or an area.
type TagDTO struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted,omitempty"`
}

type SaveTagRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required"`
}

type RosterDTO struct {
	Month     string   `json:"month"`
	WorkerIDs []string `json:"worker_ids"`
	// Explicit is false when the month has no saved roster and the list is
	// every active worker.
	Explicit bool `json:"explicit"`
}

type SaveRosterRequest struct {
	WorkerIDs []string `json:"worker_ids" validate:"dive,required"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type InstanceDTO struct {
	ID        string        `json:"id"`
	Month     string        `json:"month"`
	GroupID   string        `json:"group_id"`
	GroupName string        `json:"group_name"`
	Order     int           `json:"order"`
	WorkerIDs []string      `json:"worker_ids"`
	Days      []DayEntryDTO `json:"days"`
}

type DayEntryDTO struct {
	Date     string            `json:"date"`
	Activity string            `json:"activity,omitempty"`
	Area     string            `json:"area,omitempty"`
	Marks    map[string]string `json:"marks"`
}

type ActivateRequest struct {
	// WorkerIDs narrows the sheet to a subset of the month roster.
	WorkerIDs []string `json:"worker_ids" validate:"omitempty,dive,required"`
}

type CycleMarkRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
	Date     string `json:"date" validate:"required,daykey"`
}

type SetMarkRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
	Date     string `json:"date" validate:"required,daykey"`
	Status   string `json:"status" validate:"mark"`
}

type SetDayTagsRequest struct {
	Activity string `json:"activity"`
	Area     string `json:"area"`
}

// MarkDTO is the result of a mark write.
type MarkDTO struct {
	InstanceID string `json:"instance_id"`
	WorkerID   string `json:"worker_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	// DailyTotal is the worker's attendance across every group that day.
	DailyTotal string `json:"daily_total"`
	Exceeded   bool   `json:"exceeded"`
}

type CapViolationDTO struct {
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Total    string `json:"total"`
}

// =============================================================================
// EXPENSES AND PAYMENTS
// =============================================================================

type AllocationDTO struct {
	GroupID     string `json:"group_id" validate:"required"`
	Percentage  string `json:"percentage,omitempty" validate:"omitempty,money"`
	FixedAmount string `json:"fixed_amount,omitempty" validate:"omitempty,money"`
}

type ExpenseDTO struct {
	ID          string          `json:"id"`
	Date        string          `json:"date,omitempty"`
	Month       string          `json:"month"`
	CategoryID  string          `json:"category_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      string          `json:"amount"`
	GroupID     string          `json:"group_id,omitempty"`
	IsShared    bool            `json:"is_shared"`
	Allocations []AllocationDTO `json:"allocations,omitempty"`
	Outstanding string          `json:"outstanding"`
	Deleted     bool            `json:"deleted,omitempty"`
}

type SaveExpenseRequest struct {
	ID          string          `json:"id"`
	Date        string          `json:"date" validate:"omitempty,daykey"`
	Month       string          `json:"month" validate:"omitempty,monthkey"`
	CategoryID  string          `json:"category_id"`
	Description string          `json:"description"`
	Amount      string          `json:"amount" validate:"required,positive"`
	GroupID     string          `json:"group_id"`
	IsShared    bool            `json:"is_shared"`
	Allocations []AllocationDTO `json:"allocations" validate:"omitempty,dive"`
}

// ExpenseAllocationDTO shows how an expense lands on groups.
type ExpenseAllocationDTO struct {
	ExpenseID    string            `json:"expense_id"`
	Amount       string            `json:"amount"`
	PercentTotal string            `json:"percent_total"`
	Allocated    string            `json:"allocated"`
	Unallocated  string            `json:"unallocated"`
	Outstanding  string            `json:"outstanding"`
	Groups       map[string]string `json:"groups"`
}

type PaymentDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date,omitempty"`
	Month     string `json:"month"`
	Amount    string `json:"amount"`
	For       string `json:"for"`
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id,omitempty"`
	Deleted   bool   `json:"deleted,omitempty"`
}

type SavePaymentRequest struct {
	ID        string `json:"id"`
	Date      string `json:"date" validate:"omitempty,daykey"`
	Month     string `json:"month" validate:"omitempty,monthkey"`
	Amount    string `json:"amount" validate:"required,positive"`
	For       string `json:"for" validate:"omitempty,oneof=labour expense"`
	GroupID   string `json:"group_id" validate:"required"`
	ExpenseID string `json:"expense_id"`
}

// =============================================================================
// REPORTS
// =============================================================================

type WorkerCostDTO struct {
	WorkerID   string `json:"worker_id"`
	Name       string `json:"name"`
	DailyRate  string `json:"daily_rate"`
	DaysWorked int    `json:"days_worked"`
	HalfDays   int    `json:"half_days"`
	TotalDays  string `json:"total_days"`
	TotalCost  string `json:"total_cost"`
}

type GroupCostDTO struct {
	GroupID   string `json:"group_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	TotalDays string `json:"total_days"`
	TotalCost string `json:"total_cost"`
}

// TagCostDTO is an activity or area cost row.
type TagCostDTO struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	TotalDays string `json:"total_days"`
	TotalCost string `json:"total_cost"`
}

type SummaryDTO struct {
	From               string `json:"from,omitempty"`
	To                 string `json:"to,omitempty"`
	FromDay            string `json:"from_day,omitempty"`
	ToDay              string `json:"to_day,omitempty"`
	WorkerDays         string `json:"worker_days"`
	LabourCost         string `json:"labour_cost"`
	GroupExpenses      string `json:"group_expenses"`
	UnassignedExpenses string `json:"unassigned_expenses"`
	TotalExpenses      string `json:"total_expenses"`
	LabourPayments     string `json:"labour_payments"`
	ExpensePayments    string `json:"expense_payments"`
	TotalPayments      string `json:"total_payments"`
	Net                string `json:"net"`
}

type MonthBalanceDTO struct {
	GroupID             string `json:"group_id"`
	GroupName           string `json:"group_name,omitempty"`
	Month               string `json:"month"`
	OpeningBalance      string `json:"opening_balance"`
	LabourCost          string `json:"labour_cost"`
	ExpenseCost         string `json:"expense_cost"`
	TotalCost           string `json:"total_cost"`
	LabourPayments      string `json:"labour_payments"`
	ExpensePayments     string `json:"expense_payments"`
	TotalPayments       string `json:"total_payments"`
	CurrentMonthBalance string `json:"current_month_balance"`
	ClosingBalance      string `json:"closing_balance"`
	HasActivity         bool   `json:"has_activity"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toWorkerDTO(w engine.Worker) WorkerDTO {
	return WorkerDTO{
		ID:        string(w.ID),
		Name:      w.Name,
		LocalName: w.LocalName,
		DailyRate: money(w.DailyRate),
		State:     stateOf(w.State),
		Deleted:   w.Deleted,
	}
}

func toGroupDTO(g engine.Group) GroupDTO {
	return GroupDTO{
		ID:        string(g.ID),
		Name:      g.Name,
		LocalName: g.LocalName,
		Order:     g.Order,
		State:     stateOf(g.State),
		Deleted:   g.Deleted,
	}
}

func stateOf(s engine.State) string {
	if s == "" {
		return string(engine.StateActive)
	}
	return string(s)
}

func toInstanceDTO(snap *engine.Snapshot, mi *engine.MonthGroupInstance) InstanceDTO {
	dto := InstanceDTO{
		ID:      string(mi.ID),
		Month:   string(mi.Month),
		GroupID: string(mi.GroupID),
		Days:    make([]DayEntryDTO, 0, len(mi.Days)),
	}
	if g, ok := snap.Group(mi.GroupID); ok {
		dto.GroupName = g.DisplayName()
		dto.Order = g.Order
	}
	for _, id := range snap.Roster(mi) {
		dto.WorkerIDs = append(dto.WorkerIDs, string(id))
	}
	for _, d := range mi.Days {
		dd := DayEntryDTO{
			Date:     string(d.Date),
			Activity: d.ActivityCode,
			Area:     d.AreaCode,
			Marks:    make(map[string]string, len(d.Marks)),
		}
		for wid, s := range d.Marks {
			dd.Marks[string(wid)] = string(s)
		}
		dto.Days = append(dto.Days, dd)
	}
	return dto
}

func toExpenseDTO(e engine.Expense, payments []engine.Payment) ExpenseDTO {
	month, _ := e.AccountingMonth()
	dto := ExpenseDTO{
		ID:          string(e.ID),
		Date:        string(e.Date),
		Month:       string(month),
		CategoryID:  string(e.CategoryID),
		Description: e.Description,
		Amount:      money(e.Amount),
		GroupID:     string(e.GroupID),
		IsShared:    e.IsShared,
		Outstanding: money(engine.ExpenseOutstanding(e, payments)),
		Deleted:     e.Deleted,
	}
	for _, a := range e.Allocations {
		ad := AllocationDTO{GroupID: string(a.GroupID)}
		if a.Percentage.Valid {
			ad.Percentage = a.Percentage.Decimal.String()
		}
		if a.FixedAmount.Valid {
			ad.FixedAmount = money(a.FixedAmount.Decimal)
		}
		dto.Allocations = append(dto.Allocations, ad)
	}
	return dto
}

func toPaymentDTO(p engine.Payment) PaymentDTO {
	month, _ := p.AccountingMonth()
	kind := p.For
	if kind == "" {
		kind = engine.PaymentForLabour
	}
	return PaymentDTO{
		ID:        string(p.ID),
		Date:      string(p.Date),
		Month:     string(month),
		Amount:    money(p.Amount),
		For:       string(kind),
		GroupID:   string(p.GroupID),
		ExpenseID: string(p.ExpenseID),
		Deleted:   p.Deleted,
	}
}

func toWorkerCostDTOs(rows []engine.WorkerCost) []WorkerCostDTO {
	out := make([]WorkerCostDTO, len(rows))
	for i, r := range rows {
		out[i] = WorkerCostDTO{
			WorkerID:   string(r.WorkerID),
			Name:       r.Name,
			DailyRate:  money(r.DailyRate),
			DaysWorked: r.DaysWorked,
			HalfDays:   r.HalfDays,
			TotalDays:  r.TotalDays.String(),
			TotalCost:  money(r.TotalCost),
		}
	}
	return out
}

func toGroupCostDTOs(rows []engine.GroupCost) []GroupCostDTO {
	out := make([]GroupCostDTO, len(rows))
	for i, r := range rows {
		out[i] = GroupCostDTO{
			GroupID:   string(r.GroupID),
			Name:      r.Name,
			Order:     r.Order,
			TotalDays: r.TotalDays.String(),
			TotalCost: money(r.TotalCost),
		}
	}
	return out
}

func toTagCostDTO(code, name string, days, cost decimal.Decimal) TagCostDTO {
	return TagCostDTO{Code: code, Name: name, TotalDays: days.String(), TotalCost: money(cost)}
}

func toSummaryDTO(s report.Summary) SummaryDTO {
	return SummaryDTO{
		From:               string(s.Filter.Months.Start),
		To:                 string(s.Filter.Months.End),
		FromDay:            string(s.Filter.From),
		ToDay:              string(s.Filter.To),
		WorkerDays:         s.WorkerDays.String(),
		LabourCost:         money(s.LabourCost),
		GroupExpenses:      money(s.GroupExpenses),
		UnassignedExpenses: money(s.UnassignedExpenses),
		TotalExpenses:      money(s.TotalExpenses),
		LabourPayments:     money(s.LabourPayments),
		ExpensePayments:    money(s.ExpensePayments),
		TotalPayments:      money(s.TotalPayments),
		Net:                money(s.Net),
	}
}

func toMonthBalanceDTO(snap *engine.Snapshot, b engine.MonthBalance) MonthBalanceDTO {
	dto := MonthBalanceDTO{
		GroupID:             string(b.GroupID),
		Month:               string(b.Month),
		OpeningBalance:      money(b.OpeningBalance),
		LabourCost:          money(b.LabourCost),
		ExpenseCost:         money(b.ExpenseCost),
		TotalCost:           money(b.TotalCost),
		LabourPayments:      money(b.LabourPayments),
		ExpensePayments:     money(b.ExpensePayments),
		TotalPayments:       money(b.TotalPayments),
		CurrentMonthBalance: money(b.CurrentMonthBalance),
		ClosingBalance:      money(b.ClosingBalance),
		HasActivity:         b.HasActivity,
	}
	if g, ok := snap.Group(b.GroupID); ok {
		dto.GroupName = g.DisplayName()
	}
	return dto
}
