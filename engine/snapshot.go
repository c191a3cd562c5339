package engine

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// SNAPSHOT - The data a computation runs over
// =============================================================================

// Snapshot is the full set of records one computation works on. The
// caller loads it (see Store), hands it to an Aggregator or BalanceLedger
// and throws it away. The engine never writes to a snapshot it was given
// for a read; only AttendanceMatrix writes mutate Attendance.
type Snapshot struct {
	Workers    []Worker
	Groups     []Group
	Activities []Activity
	Areas      []Area

	// Rosters lists the workers assigned to each month. A month without an
	// entry means every active worker.
	Rosters map[MonthKey][]WorkerID

	Attendance *AttendanceMatrix
	Expenses   []Expense
	Payments   []Payment
}

// Matrix returns the attendance matrix, never nil. Marks in deleted groups
// and marks of deleted workers are left out of the matrix's daily totals,
// the same records every cost roll-up skips.
func (s *Snapshot) Matrix() *AttendanceMatrix {
	if s.Attendance == nil {
		s.Attendance = NewAttendanceMatrix()
	}
	ignored := markFilter{}
	for _, g := range s.Groups {
		if g.Deleted {
			if ignored.groups == nil {
				ignored.groups = make(map[GroupID]bool)
			}
			ignored.groups[g.ID] = true
		}
	}
	for _, w := range s.Workers {
		if w.Deleted {
			if ignored.workers == nil {
				ignored.workers = make(map[WorkerID]bool)
			}
			ignored.workers[w.ID] = true
		}
	}
	s.Attendance.ignored = ignored
	return s.Attendance
}

// Worker looks up a worker by id, deleted or not.
func (s *Snapshot) Worker(id WorkerID) (Worker, bool) {
	for _, w := range s.Workers {
		if w.ID == id {
			return w, true
		}
	}
	return Worker{}, false
}

// Group looks up a group by id, deleted or not.
func (s *Snapshot) Group(id GroupID) (Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Expense looks up an expense by id, deleted or not.
func (s *Snapshot) Expense(id ExpenseID) (Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// LiveGroups returns every non-deleted group (active or not) sorted by
// Order, then id.
func (s *Snapshot) LiveGroups() []Group {
	var out []Group
	for _, g := range s.Groups {
		if !g.Deleted {
			out = append(out, g)
		}
	}
	sortGroups(out)
	return out
}

// ActiveGroups returns the live groups not marked inactive.
func (s *Snapshot) ActiveGroups() []Group {
	var out []Group
	for _, g := range s.LiveGroups() {
		if g.IsActive() {
			out = append(out, g)
		}
	}
	return out
}

// LiveWorkers returns every non-deleted worker sorted by display name.
func (s *Snapshot) LiveWorkers() []Worker {
	var out []Worker
	for _, w := range s.Workers {
		if !w.Deleted {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessByName(out[i].DisplayName(), out[j].DisplayName(), string(out[i].ID), string(out[j].ID))
	})
	return out
}

// Roster returns the workers listed on an instance's sheet: its own subset
// if set, else the month roster, else every active worker.
func (s *Snapshot) Roster(mi *MonthGroupInstance) []WorkerID {
	if mi.WorkerIDs != nil {
		return append([]WorkerID(nil), mi.WorkerIDs...)
	}
	if ids, ok := s.Rosters[mi.Month]; ok {
		return append([]WorkerID(nil), ids...)
	}
	var out []WorkerID
	for _, w := range s.LiveWorkers() {
		if w.IsActive() {
			out = append(out, w.ID)
		}
	}
	return out
}

// Clone returns a deep copy so stores can hand out snapshots without
// sharing state with their own.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Workers:    append([]Worker(nil), s.Workers...),
		Groups:     append([]Group(nil), s.Groups...),
		Activities: append([]Activity(nil), s.Activities...),
		Areas:      append([]Area(nil), s.Areas...),
		Attendance: s.Attendance.Clone(),
		Payments:   append([]Payment(nil), s.Payments...),
	}
	if s.Rosters != nil {
		out.Rosters = make(map[MonthKey][]WorkerID, len(s.Rosters))
		for m, ids := range s.Rosters {
			out.Rosters[m] = append([]WorkerID(nil), ids...)
		}
	}
	out.Expenses = make([]Expense, len(s.Expenses))
	for i, e := range s.Expenses {
		e.Allocations = append([]Allocation(nil), e.Allocations...)
		out.Expenses[i] = e
	}
	return out
}

// =============================================================================
// INDEX - Lookup tables built once per computation
// =============================================================================

type index struct {
	workers map[WorkerID]Worker
	groups  map[GroupID]Group
}

func newIndex(s *Snapshot) index {
	idx := index{
		workers: make(map[WorkerID]Worker, len(s.Workers)),
		groups:  make(map[GroupID]Group, len(s.Groups)),
	}
	for _, w := range s.Workers {
		if !w.Deleted {
			idx.workers[w.ID] = w
		}
	}
	for _, g := range s.Groups {
		if !g.Deleted {
			idx.groups[g.ID] = g
		}
	}
	return idx
}

// rate returns the worker's daily rate if the worker resolves and the rate
// is usable. Unknown, deleted or non-positive rates contribute nothing.
func (idx index) rate(id WorkerID) (Worker, bool) {
	w, ok := idx.workers[id]
	if !ok || !w.DailyRate.IsPositive() {
		return Worker{}, false
	}
	return w, true
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func sortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].ID < groups[j].ID
	})
}

func lessByName(a, b, idA, idB string) bool {
	if a != b {
		return a < b
	}
	return idA < idB
}

func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	return discardLogger
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()
