// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/bijoor/farm-attendance-sub000/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	workers    map[engine.WorkerID]engine.Worker
	groups     map[engine.GroupID]engine.Group
	activities map[string]engine.Activity
	areas      map[string]engine.Area
	rosters    map[engine.MonthKey][]engine.WorkerID
	instances  map[engine.InstanceID]*engine.MonthGroupInstance
	expenses   map[engine.ExpenseID]engine.Expense
	payments   map[engine.PaymentID]engine.Payment
}

var _ engine.Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.workers = make(map[engine.WorkerID]engine.Worker)
	m.groups = make(map[engine.GroupID]engine.Group)
	m.activities = make(map[string]engine.Activity)
	m.areas = make(map[string]engine.Area)
	m.rosters = make(map[engine.MonthKey][]engine.WorkerID)
	m.instances = make(map[engine.InstanceID]*engine.MonthGroupInstance)
	m.expenses = make(map[engine.ExpenseID]engine.Expense)
	m.payments = make(map[engine.PaymentID]engine.Payment)
}

// LoadSnapshot returns a deep copy. Records come back in id order so two
// loads of the same state are identical.
func (m *Memory) LoadSnapshot(_ context.Context) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &engine.Snapshot{
		Rosters:    make(map[engine.MonthKey][]engine.WorkerID, len(m.rosters)),
		Attendance: engine.NewAttendanceMatrix(),
	}
	for _, w := range m.workers {
		snap.Workers = append(snap.Workers, w)
	}
	sort.Slice(snap.Workers, func(i, j int) bool { return snap.Workers[i].ID < snap.Workers[j].ID })

	for _, g := range m.groups {
		snap.Groups = append(snap.Groups, g)
	}
	sort.Slice(snap.Groups, func(i, j int) bool { return snap.Groups[i].ID < snap.Groups[j].ID })

	for _, a := range m.activities {
		snap.Activities = append(snap.Activities, a)
	}
	sort.Slice(snap.Activities, func(i, j int) bool { return snap.Activities[i].Code < snap.Activities[j].Code })

	for _, a := range m.areas {
		snap.Areas = append(snap.Areas, a)
	}
	sort.Slice(snap.Areas, func(i, j int) bool { return snap.Areas[i].Code < snap.Areas[j].Code })

	for month, ids := range m.rosters {
		snap.Rosters[month] = append([]engine.WorkerID(nil), ids...)
	}

	for _, mi := range m.instances {
		snap.Attendance.Instances = append(snap.Attendance.Instances, mi.Clone())
	}
	sort.Slice(snap.Attendance.Instances, func(i, j int) bool {
		return snap.Attendance.Instances[i].ID < snap.Attendance.Instances[j].ID
	})

	for _, e := range m.expenses {
		e.Allocations = append([]engine.Allocation(nil), e.Allocations...)
		snap.Expenses = append(snap.Expenses, e)
	}
	sort.Slice(snap.Expenses, func(i, j int) bool { return snap.Expenses[i].ID < snap.Expenses[j].ID })

	for _, p := range m.payments {
		snap.Payments = append(snap.Payments, p)
	}
	sort.Slice(snap.Payments, func(i, j int) bool { return snap.Payments[i].ID < snap.Payments[j].ID })

	return snap, nil
}

func (m *Memory) SaveWorker(_ context.Context, w engine.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
	return nil
}

func (m *Memory) SaveGroup(_ context.Context, g engine.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g
	return nil
}

func (m *Memory) SaveActivity(_ context.Context, a engine.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.Code] = a
	return nil
}

func (m *Memory) SaveArea(_ context.Context, a engine.Area) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.areas[a.Code] = a
	return nil
}

func (m *Memory) SaveRoster(_ context.Context, month engine.MonthKey, workerIDs []engine.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[month] = append([]engine.WorkerID(nil), workerIDs...)
	return nil
}

func (m *Memory) SaveInstance(_ context.Context, mi *engine.MonthGroupInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[mi.ID] = mi.Clone()
	return nil
}

// SaveDayEntry replaces or inserts the entry, keeping Days ordered by date.
func (m *Memory) SaveDayEntry(_ context.Context, instanceID engine.InstanceID, e engine.DayEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mi, ok := m.instances[instanceID]
	if !ok {
		return &engine.ReferenceError{Kind: engine.RefInstance, ID: string(instanceID)}
	}

	entry := engine.DayEntry{Date: e.Date, ActivityCode: e.ActivityCode, AreaCode: e.AreaCode}
	if len(e.Marks) > 0 {
		entry.Marks = make(map[engine.WorkerID]engine.AttendanceStatus, len(e.Marks))
		for w, s := range e.Marks {
			entry.Marks[w] = s
		}
	}

	i := sort.Search(len(mi.Days), func(i int) bool {
		return mi.Days[i].Date >= e.Date
	})
	if i < len(mi.Days) && mi.Days[i].Date == e.Date {
		mi.Days[i] = entry
		return nil
	}
	mi.Days = append(mi.Days, engine.DayEntry{})
	copy(mi.Days[i+1:], mi.Days[i:])
	mi.Days[i] = entry
	return nil
}

func (m *Memory) SaveExpense(_ context.Context, e engine.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Allocations = append([]engine.Allocation(nil), e.Allocations...)
	m.expenses[e.ID] = e
	return nil
}

func (m *Memory) SavePayment(_ context.Context, p engine.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

// ReplaceAll swaps the whole state for a copy of snap.
func (m *Memory) ReplaceAll(_ context.Context, snap *engine.Snapshot) error {
	c := snap.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	for _, w := range c.Workers {
		m.workers[w.ID] = w
	}
	for _, g := range c.Groups {
		m.groups[g.ID] = g
	}
	for _, a := range c.Activities {
		m.activities[a.Code] = a
	}
	for _, a := range c.Areas {
		m.areas[a.Code] = a
	}
	for month, ids := range c.Rosters {
		m.rosters[month] = ids
	}
	for _, mi := range c.Matrix().Instances {
		m.instances[mi.ID] = mi
	}
	for _, e := range c.Expenses {
		m.expenses[e.ID] = e
	}
	for _, p := range c.Payments {
		m.payments[p.ID] = p
	}
	return nil
}
