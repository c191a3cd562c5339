/*
Package factory converts YAML snapshot documents to engine snapshots.

PURPOSE:
  Seed files and demo scenarios are written by hand. The factory turns a
  YAML document into an engine.Snapshot the stores can take whole
  (ReplaceAll), and turns a snapshot back into a document for export.

  Amounts are strings so "412.50" survives without float rounding.
  Marks accept the same codes as engine.ParseStatus.

YAML SCHEMA:
  workers:
    - {id: w-asha, name: Asha, local_name: आशा, daily_rate: "400"}
  groups:
    - {id: g-paddy, name: Paddy, order: 1}
  activities:
    - {code: weed, name: Weeding}
  areas:
    - {code: north, name: North plot}
  rosters:
    "2024-03": [w-asha]
  attendance:
    - month: "2024-03"
      group: g-paddy
      days:
        - date: "2024-03-01"
          activity: weed
          area: north
          marks: {w-asha: P}
  expenses:
    - id: e-1
      month: "2024-03"
      amount: "1000"
      shared: true
      allocations:
        - {group: g-paddy, percentage: "60"}
        - {group: g-orchard, fixed_amount: "400"}
  payments:
    - {id: p-1, month: "2024-03", amount: "300", group: g-paddy, for: labour}

USAGE:
  f := factory.NewSnapshotFactory()
  snap, err := f.Parse(data)
  err = store.ReplaceAll(ctx, snap)

SEE ALSO:
  - engine/snapshot.go: Snapshot
  - api/scenarios.go: demo scenarios built from documents
*/
package factory

import (
	"fmt"
	"os"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// Document is the YAML representation of a snapshot.
type Document struct {
	Workers    []WorkerYAML        `yaml:"workers,omitempty"`
	Groups     []GroupYAML         `yaml:"groups,omitempty"`
	Activities []TagYAML           `yaml:"activities,omitempty"`
	Areas      []TagYAML           `yaml:"areas,omitempty"`
	Rosters    map[string][]string `yaml:"rosters,omitempty"`
	Attendance []InstanceYAML      `yaml:"attendance,omitempty"`
	Expenses   []ExpenseYAML       `yaml:"expenses,omitempty"`
	Payments   []PaymentYAML       `yaml:"payments,omitempty"`
}

type WorkerYAML struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name,omitempty"`
	LocalName string `yaml:"local_name,omitempty"`
	DailyRate string `yaml:"daily_rate,omitempty"`
	State     string `yaml:"state,omitempty"`
	Deleted   bool   `yaml:"deleted,omitempty"`
}

type GroupYAML struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name,omitempty"`
	LocalName string `yaml:"local_name,omitempty"`
	Order     int    `yaml:"order,omitempty"`
	State     string `yaml:"state,omitempty"`
	Deleted   bool   `yaml:"deleted,omitempty"`
}

// TagYAML is an activity or an area.
type TagYAML struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name,omitempty"`
	Deleted bool   `yaml:"deleted,omitempty"`
}

// InstanceYAML is one group activated in one month.
type InstanceYAML struct {
	Month   string    `yaml:"month"`
	Group   string    `yaml:"group"`
	Workers []string  `yaml:"workers,omitempty"`
	Days    []DayYAML `yaml:"days,omitempty"`
}

type DayYAML struct {
	Date     string            `yaml:"date"`
	Activity string            `yaml:"activity,omitempty"`
	Area     string            `yaml:"area,omitempty"`
	Marks    map[string]string `yaml:"marks,omitempty"`
}

type ExpenseYAML struct {
	ID          string           `yaml:"id"`
	Date        string           `yaml:"date,omitempty"`
	Month       string           `yaml:"month,omitempty"`
	Category    string           `yaml:"category,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Amount      string           `yaml:"amount"`
	Group       string           `yaml:"group,omitempty"`
	Shared      bool             `yaml:"shared,omitempty"`
	Allocations []AllocationYAML `yaml:"allocations,omitempty"`
	Deleted     bool             `yaml:"deleted,omitempty"`
}

type AllocationYAML struct {
	Group       string `yaml:"group"`
	Percentage  string `yaml:"percentage,omitempty"`
	FixedAmount string `yaml:"fixed_amount,omitempty"`
}

type PaymentYAML struct {
	ID      string `yaml:"id"`
	Date    string `yaml:"date,omitempty"`
	Month   string `yaml:"month,omitempty"`
	Amount  string `yaml:"amount"`
	For     string `yaml:"for,omitempty"` // labour (default) or expense
	Group   string `yaml:"group,omitempty"`
	Expense string `yaml:"expense,omitempty"`
	Deleted bool   `yaml:"deleted,omitempty"`
}

// =============================================================================
// SNAPSHOT FACTORY
// =============================================================================

// SnapshotFactory converts YAML documents to snapshots and back.
type SnapshotFactory struct{}

func NewSnapshotFactory() *SnapshotFactory {
	return &SnapshotFactory{}
}

// Parse decodes a YAML document into a snapshot.
func (f *SnapshotFactory) Parse(data []byte) (*engine.Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot YAML: %w", err)
	}
	return f.FromDocument(doc)
}

// ParseFile reads and parses a YAML file.
func (f *SnapshotFactory) ParseFile(path string) (*engine.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	snap, err := f.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// FromDocument converts a document. Every key, amount and mark is checked;
// the first bad one is reported with its location.
func (f *SnapshotFactory) FromDocument(doc Document) (*engine.Snapshot, error) {
	snap := &engine.Snapshot{Attendance: engine.NewAttendanceMatrix()}

	for i, wy := range doc.Workers {
		if wy.ID == "" {
			return nil, fmt.Errorf("workers[%d]: id is required", i)
		}
		rate, err := parseMoney(wy.DailyRate)
		if err != nil {
			return nil, fmt.Errorf("worker %s: daily_rate: %w", wy.ID, err)
		}
		snap.Workers = append(snap.Workers, engine.Worker{
			ID:        engine.WorkerID(wy.ID),
			Name:      wy.Name,
			LocalName: wy.LocalName,
			DailyRate: rate,
			State:     parseState(wy.State),
			Deleted:   wy.Deleted,
		})
	}

	for i, gy := range doc.Groups {
		if gy.ID == "" {
			return nil, fmt.Errorf("groups[%d]: id is required", i)
		}
		snap.Groups = append(snap.Groups, engine.Group{
			ID:        engine.GroupID(gy.ID),
			Name:      gy.Name,
			LocalName: gy.LocalName,
			Order:     gy.Order,
			State:     parseState(gy.State),
			Deleted:   gy.Deleted,
		})
	}

	for i, ty := range doc.Activities {
		if ty.Code == "" {
			return nil, fmt.Errorf("activities[%d]: code is required", i)
		}
		snap.Activities = append(snap.Activities, engine.Activity{Code: ty.Code, Name: ty.Name, Deleted: ty.Deleted})
	}
	for i, ty := range doc.Areas {
		if ty.Code == "" {
			return nil, fmt.Errorf("areas[%d]: code is required", i)
		}
		snap.Areas = append(snap.Areas, engine.Area{Code: ty.Code, Name: ty.Name, Deleted: ty.Deleted})
	}

	if len(doc.Rosters) > 0 {
		snap.Rosters = make(map[engine.MonthKey][]engine.WorkerID, len(doc.Rosters))
		for m, ids := range doc.Rosters {
			month, err := engine.ParseMonthKey(m)
			if err != nil {
				return nil, fmt.Errorf("rosters: %w", err)
			}
			snap.Rosters[month] = workerIDs(ids)
		}
	}

	for i, iy := range doc.Attendance {
		if err := addInstance(snap.Attendance, iy); err != nil {
			return nil, fmt.Errorf("attendance[%d]: %w", i, err)
		}
	}

	for i, ey := range doc.Expenses {
		e, err := expenseFromYAML(ey)
		if err != nil {
			return nil, fmt.Errorf("expenses[%d]: %w", i, err)
		}
		snap.Expenses = append(snap.Expenses, e)
	}

	for i, py := range doc.Payments {
		p, err := paymentFromYAML(py)
		if err != nil {
			return nil, fmt.Errorf("payments[%d]: %w", i, err)
		}
		snap.Payments = append(snap.Payments, p)
	}

	return snap, nil
}

// ToDocument converts a snapshot. Amounts are written in full precision.
func (f *SnapshotFactory) ToDocument(snap *engine.Snapshot) Document {
	var doc Document

	for _, w := range snap.Workers {
		doc.Workers = append(doc.Workers, WorkerYAML{
			ID:        string(w.ID),
			Name:      w.Name,
			LocalName: w.LocalName,
			DailyRate: w.DailyRate.String(),
			State:     string(w.State),
			Deleted:   w.Deleted,
		})
	}
	for _, g := range snap.Groups {
		doc.Groups = append(doc.Groups, GroupYAML{
			ID:        string(g.ID),
			Name:      g.Name,
			LocalName: g.LocalName,
			Order:     g.Order,
			State:     string(g.State),
			Deleted:   g.Deleted,
		})
	}
	for _, a := range snap.Activities {
		doc.Activities = append(doc.Activities, TagYAML{Code: a.Code, Name: a.Name, Deleted: a.Deleted})
	}
	for _, a := range snap.Areas {
		doc.Areas = append(doc.Areas, TagYAML{Code: a.Code, Name: a.Name, Deleted: a.Deleted})
	}

	if len(snap.Rosters) > 0 {
		doc.Rosters = make(map[string][]string, len(snap.Rosters))
		for m, ids := range snap.Rosters {
			out := make([]string, len(ids))
			for i, id := range ids {
				out[i] = string(id)
			}
			doc.Rosters[string(m)] = out
		}
	}

	if snap.Attendance != nil {
		for _, mi := range snap.Attendance.Instances {
			doc.Attendance = append(doc.Attendance, instanceToYAML(mi))
		}
	}

	for _, e := range snap.Expenses {
		ey := ExpenseYAML{
			ID:          string(e.ID),
			Date:        string(e.Date),
			Month:       string(e.Month),
			Category:    string(e.CategoryID),
			Description: e.Description,
			Amount:      e.Amount.String(),
			Group:       string(e.GroupID),
			Shared:      e.IsShared,
			Deleted:     e.Deleted,
		}
		for _, a := range e.Allocations {
			ay := AllocationYAML{Group: string(a.GroupID)}
			if a.Percentage.Valid {
				ay.Percentage = a.Percentage.Decimal.String()
			}
			if a.FixedAmount.Valid {
				ay.FixedAmount = a.FixedAmount.Decimal.String()
			}
			ey.Allocations = append(ey.Allocations, ay)
		}
		doc.Expenses = append(doc.Expenses, ey)
	}

	for _, p := range snap.Payments {
		doc.Payments = append(doc.Payments, PaymentYAML{
			ID:      string(p.ID),
			Date:    string(p.Date),
			Month:   string(p.Month),
			Amount:  p.Amount.String(),
			For:     string(p.For),
			Group:   string(p.GroupID),
			Expense: string(p.ExpenseID),
			Deleted: p.Deleted,
		})
	}

	return doc
}

// Marshal encodes a snapshot as YAML.
func (f *SnapshotFactory) Marshal(snap *engine.Snapshot) ([]byte, error) {
	return yaml.Marshal(f.ToDocument(snap))
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func addInstance(m *engine.AttendanceMatrix, iy InstanceYAML) error {
	if iy.Group == "" {
		return fmt.Errorf("group is required")
	}
	month, err := engine.ParseMonthKey(iy.Month)
	if err != nil {
		return err
	}
	if m.InstanceFor(month, engine.GroupID(iy.Group)) != nil {
		return fmt.Errorf("group %s is listed twice for %s", iy.Group, month)
	}
	mi, err := m.Activate(month, engine.GroupID(iy.Group))
	if err != nil {
		return err
	}
	if iy.Workers != nil {
		mi.WorkerIDs = workerIDs(iy.Workers)
	}

	for _, dy := range iy.Days {
		day, err := engine.ParseDayKey(dy.Date)
		if err != nil {
			return err
		}
		if err := m.SetDayTags(mi.ID, day, dy.Activity, dy.Area); err != nil {
			return fmt.Errorf("day %s: %w", day, err)
		}
		for wid, code := range dy.Marks {
			status, err := engine.ParseStatus(code)
			if err != nil {
				return fmt.Errorf("day %s worker %s: %w", day, wid, err)
			}
			if err := m.SetStatus(mi.ID, engine.WorkerID(wid), day, status); err != nil {
				return fmt.Errorf("day %s worker %s: %w", day, wid, err)
			}
		}
	}
	return nil
}

func instanceToYAML(mi *engine.MonthGroupInstance) InstanceYAML {
	iy := InstanceYAML{Month: string(mi.Month), Group: string(mi.GroupID)}
	if mi.WorkerIDs != nil {
		iy.Workers = make([]string, len(mi.WorkerIDs))
		for i, id := range mi.WorkerIDs {
			iy.Workers[i] = string(id)
		}
	}
	for _, d := range mi.Days {
		dy := DayYAML{Date: string(d.Date), Activity: d.ActivityCode, Area: d.AreaCode}
		if len(d.Marks) > 0 {
			dy.Marks = make(map[string]string, len(d.Marks))
			for wid, s := range d.Marks {
				dy.Marks[string(wid)] = string(s)
			}
		}
		iy.Days = append(iy.Days, dy)
	}
	return iy
}

func expenseFromYAML(ey ExpenseYAML) (engine.Expense, error) {
	if ey.ID == "" {
		return engine.Expense{}, fmt.Errorf("id is required")
	}
	e := engine.Expense{
		ID:          engine.ExpenseID(ey.ID),
		CategoryID:  engine.CategoryID(ey.Category),
		Description: ey.Description,
		GroupID:     engine.GroupID(ey.Group),
		IsShared:    ey.Shared,
		Deleted:     ey.Deleted,
	}
	var err error
	if e.Date, e.Month, err = parseDateMonth(ey.Date, ey.Month); err != nil {
		return e, fmt.Errorf("expense %s: %w", ey.ID, err)
	}
	if e.Amount, err = parseMoney(ey.Amount); err != nil {
		return e, fmt.Errorf("expense %s: amount: %w", ey.ID, err)
	}
	for _, ay := range ey.Allocations {
		a := engine.Allocation{GroupID: engine.GroupID(ay.Group)}
		if a.Percentage, err = parseOptional(ay.Percentage); err != nil {
			return e, fmt.Errorf("expense %s: allocation %s: percentage: %w", ey.ID, ay.Group, err)
		}
		if a.FixedAmount, err = parseOptional(ay.FixedAmount); err != nil {
			return e, fmt.Errorf("expense %s: allocation %s: fixed_amount: %w", ey.ID, ay.Group, err)
		}
		e.Allocations = append(e.Allocations, a)
	}
	return e, nil
}

func paymentFromYAML(py PaymentYAML) (engine.Payment, error) {
	if py.ID == "" {
		return engine.Payment{}, fmt.Errorf("id is required")
	}
	p := engine.Payment{
		ID:        engine.PaymentID(py.ID),
		GroupID:   engine.GroupID(py.Group),
		ExpenseID: engine.ExpenseID(py.Expense),
		Deleted:   py.Deleted,
	}
	switch py.For {
	case "", string(engine.PaymentForLabour):
		p.For = engine.PaymentForLabour
	case string(engine.PaymentForExpense):
		p.For = engine.PaymentForExpense
	default:
		return p, fmt.Errorf("payment %s: unknown kind %q (want labour or expense)", py.ID, py.For)
	}
	var err error
	if p.Date, p.Month, err = parseDateMonth(py.Date, py.Month); err != nil {
		return p, fmt.Errorf("payment %s: %w", py.ID, err)
	}
	if p.Amount, err = parseMoney(py.Amount); err != nil {
		return p, fmt.Errorf("payment %s: amount: %w", py.ID, err)
	}
	return p, nil
}

// parseMoney treats an empty string as zero.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseOptional(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseDateMonth(date, month string) (engine.DayKey, engine.MonthKey, error) {
	var (
		d   engine.DayKey
		m   engine.MonthKey
		err error
	)
	if date != "" {
		if d, err = engine.ParseDayKey(date); err != nil {
			return d, m, err
		}
	}
	if month != "" {
		if m, err = engine.ParseMonthKey(month); err != nil {
			return d, m, err
		}
	}
	if d == "" && m == "" {
		return d, m, fmt.Errorf("date or month is required")
	}
	return d, m, nil
}

func parseState(s string) engine.State {
	if s == string(engine.StateInactive) {
		return engine.StateInactive
	}
	return engine.StateActive
}

func workerIDs(ids []string) []engine.WorkerID {
	out := make([]engine.WorkerID, len(ids))
	for i, id := range ids {
		out[i] = engine.WorkerID(id)
	}
	return out
}
