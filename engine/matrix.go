/*
matrix.go - Group-partitioned attendance matrix indexed by date

PURPOSE:
  Holds every attendance mark: per month, per group instance, per date,
  per worker. Also holds the optional activity/area tag of each
  group-day.

STRUCTURE:
  AttendanceMatrix
    └── MonthGroupInstance   one per (month, group) that was activated
          └── DayEntry       one per date that has ever been written,
                             kept ordered by date
                └── Marks    worker id -> AttendanceStatus (sparse)

LIFECYCLE:
  - Instances are created by Activate and never removed.
  - DayEntries are created on first write and updated in place after.
    They are never removed; clearing a mark deletes only that worker's
    key from Marks.
  - Writes are single replace-or-insert operations on one mark. A write
    with a malformed date, or a date outside the instance's month, leaves
    the matrix untouched.

DAILY CAP:
  A worker's attendance for one date, summed across every instance of
  that month, should stay at or below 1.0. Cycle keeps it there; SetStatus
  does not check. Exceeded and CapViolations report breaches.

CONCURRENCY:
  Not safe for concurrent use. The owning application serializes
  mutations; see api.Handler.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY ENTRY
// =============================================================================

// DayEntry is one date of one group instance.
type DayEntry struct {
	Date         DayKey
	ActivityCode string
	AreaCode     string
	Marks        map[WorkerID]AttendanceStatus
}

// Status returns the worker's mark, StatusUnmarked if absent.
func (e *DayEntry) Status(workerID WorkerID) AttendanceStatus {
	if e == nil || e.Marks == nil {
		return StatusUnmarked
	}
	return e.Marks[workerID]
}

func (e *DayEntry) set(workerID WorkerID, status AttendanceStatus) {
	if status == StatusUnmarked {
		delete(e.Marks, workerID)
		return
	}
	if e.Marks == nil {
		e.Marks = make(map[WorkerID]AttendanceStatus)
	}
	e.Marks[workerID] = status
}

func (e DayEntry) clone() DayEntry {
	out := e
	if e.Marks != nil {
		out.Marks = make(map[WorkerID]AttendanceStatus, len(e.Marks))
		for k, v := range e.Marks {
			out.Marks[k] = v
		}
	}
	return out
}

// =============================================================================
// MONTH GROUP INSTANCE
// =============================================================================

// MonthGroupInstance is a Group activated within one month.
type MonthGroupInstance struct {
	ID      InstanceID
	Month   MonthKey
	GroupID GroupID

	// WorkerIDs optionally narrows the roster for this instance. Nil means
	// everyone assigned to the month. It does not filter cost: a mark for a
	// worker outside the subset still counts.
	WorkerIDs []WorkerID

	// Days is ordered by Date.
	Days []DayEntry
}

// InstanceIDFor returns the canonical id of the (month, group) instance.
func InstanceIDFor(month MonthKey, groupID GroupID) InstanceID {
	return InstanceID(string(month) + "/" + string(groupID))
}

// Entry returns the day entry for the date, or nil.
func (mi *MonthGroupInstance) Entry(day DayKey) *DayEntry {
	for i := range mi.Days {
		if mi.Days[i].Date == day {
			return &mi.Days[i]
		}
	}
	return nil
}

// Status returns the worker's mark on the date in this instance.
func (mi *MonthGroupInstance) Status(workerID WorkerID, day DayKey) AttendanceStatus {
	return mi.Entry(day).Status(workerID)
}

// ensureEntry returns the entry for day, inserting an empty one in date
// order if needed.
func (mi *MonthGroupInstance) ensureEntry(day DayKey) *DayEntry {
	if e := mi.Entry(day); e != nil {
		return e
	}
	i := sort.Search(len(mi.Days), func(i int) bool {
		return mi.Days[i].Date > day
	})
	mi.Days = append(mi.Days, DayEntry{})
	copy(mi.Days[i+1:], mi.Days[i:])
	mi.Days[i] = DayEntry{Date: day}
	return &mi.Days[i]
}

func (mi *MonthGroupInstance) accepts(day DayKey) bool {
	return day.Valid() && day.Month() == mi.Month
}

// Clone returns a deep copy.
func (mi *MonthGroupInstance) Clone() *MonthGroupInstance {
	out := *mi
	if mi.WorkerIDs != nil {
		out.WorkerIDs = append([]WorkerID(nil), mi.WorkerIDs...)
	}
	out.Days = make([]DayEntry, len(mi.Days))
	for i, d := range mi.Days {
		out.Days[i] = d.clone()
	}
	return &out
}

// =============================================================================
// ATTENDANCE MATRIX
// =============================================================================

// AttendanceMatrix is the full set of group instances.
type AttendanceMatrix struct {
	Instances []*MonthGroupInstance

	// ignored is set by Snapshot.Matrix.
	ignored markFilter
}

// markFilter names the groups and workers whose marks stay out of daily
// totals. Nil maps ignore nothing.
type markFilter struct {
	groups  map[GroupID]bool
	workers map[WorkerID]bool
}

func (m *AttendanceMatrix) counts(mi *MonthGroupInstance, workerID WorkerID) bool {
	return !m.ignored.groups[mi.GroupID] && !m.ignored.workers[workerID]
}

func NewAttendanceMatrix(instances ...*MonthGroupInstance) *AttendanceMatrix {
	return &AttendanceMatrix{Instances: instances}
}

// Instance returns the instance with the given id, or nil.
func (m *AttendanceMatrix) Instance(id InstanceID) *MonthGroupInstance {
	if m == nil {
		return nil
	}
	for _, mi := range m.Instances {
		if mi.ID == id {
			return mi
		}
	}
	return nil
}

// InstanceFor returns the instance of a group in a month, or nil.
func (m *AttendanceMatrix) InstanceFor(month MonthKey, groupID GroupID) *MonthGroupInstance {
	if m == nil {
		return nil
	}
	for _, mi := range m.Instances {
		if mi.Month == month && mi.GroupID == groupID {
			return mi
		}
	}
	return nil
}

// Month returns every instance activated in the month.
func (m *AttendanceMatrix) Month(month MonthKey) []*MonthGroupInstance {
	if m == nil {
		return nil
	}
	var out []*MonthGroupInstance
	for _, mi := range m.Instances {
		if mi.Month == month {
			out = append(out, mi)
		}
	}
	return out
}

// Activate returns the instance for (month, group), creating it if the
// group has not been activated for that month yet.
func (m *AttendanceMatrix) Activate(month MonthKey, groupID GroupID) (*MonthGroupInstance, error) {
	if _, err := ParseMonthKey(string(month)); err != nil {
		return nil, err
	}
	if mi := m.InstanceFor(month, groupID); mi != nil {
		return mi, nil
	}
	mi := &MonthGroupInstance{
		ID:      InstanceIDFor(month, groupID),
		Month:   month,
		GroupID: groupID,
	}
	m.Instances = append(m.Instances, mi)
	return mi, nil
}

// DailyTotal sums the worker's attendance value for the date across every
// instance of that month. A matrix obtained through Snapshot.Matrix leaves
// out deleted groups and deleted workers.
func (m *AttendanceMatrix) DailyTotal(workerID WorkerID, day DayKey) decimal.Decimal {
	return m.sumExcept("", workerID, day)
}

// OtherGroupsTotal sums the worker's attendance value for the date across
// every instance of that month except the given one.
func (m *AttendanceMatrix) OtherGroupsTotal(instanceID InstanceID, workerID WorkerID, day DayKey) decimal.Decimal {
	return m.sumExcept(instanceID, workerID, day)
}

func (m *AttendanceMatrix) sumExcept(skip InstanceID, workerID WorkerID, day DayKey) decimal.Decimal {
	total := decimal.Zero
	month := day.Month()
	if month == "" {
		return total
	}
	for _, mi := range m.Month(month) {
		if (skip != "" && mi.ID == skip) || !m.counts(mi, workerID) {
			continue
		}
		total = total.Add(mi.Status(workerID, day).Value())
	}
	return total
}

// Exceeded reports whether the worker's combined attendance on the date is
// above one full day. Pure query; nothing is rejected.
func (m *AttendanceMatrix) Exceeded(workerID WorkerID, day DayKey) bool {
	return m.DailyTotal(workerID, day).GreaterThan(one)
}

// Cycle advances the worker's mark on the date within the instance by one
// step of the attendance ring and writes it. Returns the new mark.
func (m *AttendanceMatrix) Cycle(instanceID InstanceID, workerID WorkerID, day DayKey) (AttendanceStatus, error) {
	mi, err := m.writable(instanceID, day)
	if err != nil {
		return StatusUnmarked, err
	}
	other := m.OtherGroupsTotal(instanceID, workerID, day)
	next := NextStatus(mi.Status(workerID, day), other)
	mi.ensureEntry(day).set(workerID, next)
	return next, nil
}

// SetStatus writes a mark directly, bypassing the ring. The daily cap is
// not checked; use Exceeded afterwards to flag a breach.
func (m *AttendanceMatrix) SetStatus(instanceID InstanceID, workerID WorkerID, day DayKey, status AttendanceStatus) error {
	mi, err := m.writable(instanceID, day)
	if err != nil {
		return err
	}
	mi.ensureEntry(day).set(workerID, status)
	return nil
}

// SetDayTags sets the activity and area codes of a group-day. Empty codes
// clear the tag.
func (m *AttendanceMatrix) SetDayTags(instanceID InstanceID, day DayKey, activityCode, areaCode string) error {
	mi, err := m.writable(instanceID, day)
	if err != nil {
		return err
	}
	e := mi.ensureEntry(day)
	e.ActivityCode = activityCode
	e.AreaCode = areaCode
	return nil
}

func (m *AttendanceMatrix) writable(instanceID InstanceID, day DayKey) (*MonthGroupInstance, error) {
	mi := m.Instance(instanceID)
	if mi == nil {
		return nil, &ReferenceError{Kind: RefInstance, ID: string(instanceID)}
	}
	if !mi.accepts(day) {
		return nil, ErrInvalidDay
	}
	return mi, nil
}

// CapViolation is one (worker, date) whose combined attendance is above 1.0.
type CapViolation struct {
	WorkerID WorkerID
	Date     DayKey
	Total    decimal.Decimal
}

// CapViolations lists every over-cap (worker, date) in the month, ordered
// by date then worker.
func (m *AttendanceMatrix) CapViolations(month MonthKey) []CapViolation {
	type cell struct {
		worker WorkerID
		day    DayKey
	}
	totals := make(map[cell]decimal.Decimal)
	for _, mi := range m.Month(month) {
		for _, e := range mi.Days {
			if !mi.accepts(e.Date) {
				continue
			}
			for w, s := range e.Marks {
				if !s.Worked() || !m.counts(mi, w) {
					continue
				}
				c := cell{worker: w, day: e.Date}
				totals[c] = totals[c].Add(s.Value())
			}
		}
	}

	var out []CapViolation
	for c, total := range totals {
		if total.GreaterThan(one) {
			out = append(out, CapViolation{WorkerID: c.worker, Date: c.day, Total: total})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}

// Clone returns a deep copy of the matrix.
func (m *AttendanceMatrix) Clone() *AttendanceMatrix {
	if m == nil {
		return NewAttendanceMatrix()
	}
	out := &AttendanceMatrix{
		Instances: make([]*MonthGroupInstance, len(m.Instances)),
		ignored:   m.ignored,
	}
	for i, mi := range m.Instances {
		out.Instances[i] = mi.Clone()
	}
	return out
}
