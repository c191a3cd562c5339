/*
cost.go - Attendance to money roll-ups

PURPOSE:
  Reduces the attendance matrix into cost and day totals per worker, per
  group, per activity and per area, optionally narrowed by a Filter
  (month range plus optional day bounds). Every operation is a pure read
  over the snapshot.

VALUATION:
  Present  -> one day at the worker's current daily rate
  Half     -> half a day at the worker's current daily rate
  Absent / Unmarked -> nothing

  Per worker: totalCost = daysWorked*rate + halfDays*rate*0.5

WHAT IS SKIPPED (contributes zero, never an error):
  - instances of unknown or deleted groups
  - instances or day entries with malformed month/day keys
  - marks for unknown or deleted workers, or workers without a positive
    daily rate
  - for activity/area roll-ups, days carrying no code (no "unknown"
    bucket)

PRECISION:
  No rounding here. Sums stay exact in decimal until something renders them.

SEE ALSO:
  - balance.go: consumes the per-group labour figures
  - report/: caller-side filters such as "only workers with cost > 0"
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// OUTPUT RECORDS
// =============================================================================

// WorkerCost is one worker's attendance and cost over a filter.
type WorkerCost struct {
	WorkerID   WorkerID
	Name       string
	DailyRate  decimal.Decimal
	DaysWorked int // Present marks
	HalfDays   int // Half marks
	TotalDays  decimal.Decimal
	TotalCost  decimal.Decimal
}

// ActivityCost is the labour attributed to one activity code.
type ActivityCost struct {
	Code      string
	Name      string
	TotalDays decimal.Decimal
	TotalCost decimal.Decimal
}

// AreaCost is the labour attributed to one area code.
type AreaCost struct {
	Code      string
	Name      string
	TotalDays decimal.Decimal
	TotalCost decimal.Decimal
}

// GroupCost is the labour of one group's own instances.
type GroupCost struct {
	GroupID   GroupID
	Name      string
	Order     int
	TotalDays decimal.Decimal
	TotalCost decimal.Decimal
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes cost roll-ups over one snapshot.
type Aggregator struct {
	snap *Snapshot
	idx  index

	// Log receives debug lines for skipped references. Optional.
	Log logrus.FieldLogger
}

func NewAggregator(snap *Snapshot) *Aggregator {
	return &Aggregator{snap: snap, idx: newIndex(snap)}
}

// CostPerWorker sums one worker's marks across every group instance that
// passes the filter. An unknown worker yields an all-zero record.
func (a *Aggregator) CostPerWorker(workerID WorkerID, f Filter) WorkerCost {
	costs := a.CostPerWorkers([]WorkerID{workerID}, f)
	return costs[0]
}

// CostPerWorkers returns one record per requested worker, zero-valued ones
// included, sorted by display name. An empty id list means every
// non-deleted worker.
func (a *Aggregator) CostPerWorkers(workerIDs []WorkerID, f Filter) []WorkerCost {
	if len(workerIDs) == 0 {
		for _, w := range a.snap.LiveWorkers() {
			workerIDs = append(workerIDs, w.ID)
		}
	}

	byID := make(map[WorkerID]*WorkerCost, len(workerIDs))
	out := make([]*WorkerCost, 0, len(workerIDs))
	for _, id := range workerIDs {
		if _, dup := byID[id]; dup {
			continue
		}
		wc := &WorkerCost{WorkerID: id, TotalDays: decimal.Zero, TotalCost: decimal.Zero}
		if w, ok := a.idx.workers[id]; ok {
			wc.Name = w.DisplayName()
			wc.DailyRate = w.DailyRate
		}
		byID[id] = wc
		out = append(out, wc)
	}

	a.eachDay(f, func(_ *MonthGroupInstance, e *DayEntry) {
		for wid, status := range e.Marks {
			wc, wanted := byID[wid]
			if !wanted || !status.Worked() {
				continue
			}
			if _, ok := a.idx.rate(wid); !ok {
				a.logger().WithField("worker_id", wid).Debug("skipping mark for unresolved worker")
				continue
			}
			if status == StatusPresent {
				wc.DaysWorked++
			} else {
				wc.HalfDays++
			}
		}
	})

	result := make([]WorkerCost, len(out))
	for i, wc := range out {
		wc.TotalDays, wc.TotalCost = valueDays(wc.DaysWorked, wc.HalfDays, wc.DailyRate)
		if _, ok := a.idx.rate(wc.WorkerID); !ok {
			wc.TotalDays, wc.TotalCost = decimal.Zero, decimal.Zero
			wc.DaysWorked, wc.HalfDays = 0, 0
		}
		result[i] = *wc
	}
	sort.SliceStable(result, func(i, j int) bool {
		return lessByName(result[i].Name, result[j].Name, string(result[i].WorkerID), string(result[j].WorkerID))
	})
	return result
}

// CostPerActivity attributes every worked mark on a day tagged with one of
// the activities to that activity. Nil activities means every non-deleted
// activity in the snapshot. Output follows the input order and includes
// zero-valued activities.
func (a *Aggregator) CostPerActivity(activities []Activity, f Filter) []ActivityCost {
	if activities == nil {
		for _, act := range a.snap.Activities {
			if !act.Deleted {
				activities = append(activities, act)
			}
		}
	}
	codes := make([]string, len(activities))
	for i, act := range activities {
		codes[i] = act.Code
	}
	totals := a.costByTag(codes, f, func(e *DayEntry) string { return e.ActivityCode })

	out := make([]ActivityCost, len(activities))
	for i, act := range activities {
		t := totals[act.Code]
		out[i] = ActivityCost{Code: act.Code, Name: act.Name, TotalDays: t.days, TotalCost: t.cost}
	}
	return out
}

// CostPerArea is CostPerActivity keyed by area code.
func (a *Aggregator) CostPerArea(areas []Area, f Filter) []AreaCost {
	if areas == nil {
		for _, ar := range a.snap.Areas {
			if !ar.Deleted {
				areas = append(areas, ar)
			}
		}
	}
	codes := make([]string, len(areas))
	for i, ar := range areas {
		codes[i] = ar.Code
	}
	totals := a.costByTag(codes, f, func(e *DayEntry) string { return e.AreaCode })

	out := make([]AreaCost, len(areas))
	for i, ar := range areas {
		t := totals[ar.Code]
		out[i] = AreaCost{Code: ar.Code, Name: ar.Name, TotalDays: t.days, TotalCost: t.cost}
	}
	return out
}

// CostPerGroup sums each group's own instances, regardless of tags. Nil
// groups means every non-deleted group. Zero-valued groups are returned so
// report tables can list every group. Output is sorted by group Order.
func (a *Aggregator) CostPerGroup(groups []Group, f Filter) []GroupCost {
	if groups == nil {
		groups = a.snap.LiveGroups()
	} else {
		groups = append([]Group(nil), groups...)
		sortGroups(groups)
	}

	byID := make(map[GroupID]*tagTotal, len(groups))
	for _, g := range groups {
		byID[g.ID] = &tagTotal{days: decimal.Zero, cost: decimal.Zero}
	}
	a.eachDay(f, func(mi *MonthGroupInstance, e *DayEntry) {
		t, wanted := byID[mi.GroupID]
		if !wanted {
			return
		}
		a.addMarks(t, e)
	})

	out := make([]GroupCost, len(groups))
	for i, g := range groups {
		t := byID[g.ID]
		out[i] = GroupCost{GroupID: g.ID, Name: g.DisplayName(), Order: g.Order, TotalDays: t.days, TotalCost: t.cost}
	}
	return out
}

// WorkerBreakdownPerGroup returns per-worker subtotals inside one group
// for one month. Only workers with at least one Present or Half mark are
// included, sorted by display name.
func (a *Aggregator) WorkerBreakdownPerGroup(groupID GroupID, month MonthKey) []WorkerCost {
	mi := a.snap.Matrix().InstanceFor(month, groupID)
	if mi == nil {
		return []WorkerCost{}
	}
	if _, ok := a.idx.groups[groupID]; !ok {
		return []WorkerCost{}
	}

	present := make(map[WorkerID]int)
	halves := make(map[WorkerID]int)
	for i := range mi.Days {
		e := &mi.Days[i]
		if !mi.accepts(e.Date) {
			continue
		}
		for wid, status := range e.Marks {
			switch status {
			case StatusPresent:
				present[wid]++
			case StatusHalf:
				halves[wid]++
			}
		}
	}

	out := []WorkerCost{}
	seen := make(map[WorkerID]bool)
	for _, counts := range []map[WorkerID]int{present, halves} {
		for wid := range counts {
			if seen[wid] {
				continue
			}
			seen[wid] = true
			w, ok := a.idx.rate(wid)
			if !ok {
				a.logger().WithField("worker_id", wid).Debug("skipping breakdown row for unresolved worker")
				continue
			}
			days, cost := valueDays(present[wid], halves[wid], w.DailyRate)
			out = append(out, WorkerCost{
				WorkerID:   wid,
				Name:       w.DisplayName(),
				DailyRate:  w.DailyRate,
				DaysWorked: present[wid],
				HalfDays:   halves[wid],
				TotalDays:  days,
				TotalCost:  cost,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessByName(out[i].Name, out[j].Name, string(out[i].WorkerID), string(out[j].WorkerID))
	})
	return out
}

// =============================================================================
// INTERNALS
// =============================================================================

type tagTotal struct {
	days decimal.Decimal
	cost decimal.Decimal
}

func (a *Aggregator) costByTag(codes []string, f Filter, tag func(*DayEntry) string) map[string]tagTotal {
	acc := make(map[string]*tagTotal, len(codes))
	for _, c := range codes {
		if c != "" {
			acc[c] = &tagTotal{days: decimal.Zero, cost: decimal.Zero}
		}
	}
	a.eachDay(f, func(_ *MonthGroupInstance, e *DayEntry) {
		t, wanted := acc[tag(e)]
		if !wanted {
			return
		}
		a.addMarks(t, e)
	})

	out := make(map[string]tagTotal, len(acc))
	for c, t := range acc {
		out[c] = *t
	}
	for _, c := range codes {
		if _, ok := out[c]; !ok {
			out[c] = tagTotal{days: decimal.Zero, cost: decimal.Zero}
		}
	}
	return out
}

// addMarks adds every worked mark of the entry to t.
func (a *Aggregator) addMarks(t *tagTotal, e *DayEntry) {
	for wid, status := range e.Marks {
		if !status.Worked() {
			continue
		}
		w, ok := a.idx.rate(wid)
		if !ok {
			a.logger().WithField("worker_id", wid).Debug("skipping mark for unresolved worker")
			continue
		}
		v := status.Value()
		t.days = t.days.Add(v)
		t.cost = t.cost.Add(w.DailyRate.Mul(v))
	}
}

// eachDay calls fn for every day entry that passes the filter, in
// instances of live groups only.
func (a *Aggregator) eachDay(f Filter, fn func(*MonthGroupInstance, *DayEntry)) {
	for _, mi := range a.snap.Matrix().Instances {
		if !f.IncludesMonth(mi.Month) {
			continue
		}
		if _, ok := a.idx.groups[mi.GroupID]; !ok {
			a.logger().WithFields(logrus.Fields{
				"instance_id": mi.ID,
				"group_id":    mi.GroupID,
			}).Debug("skipping instance of unresolved group")
			continue
		}
		for i := range mi.Days {
			e := &mi.Days[i]
			if !mi.accepts(e.Date) || !f.IncludesDay(e.Date) {
				continue
			}
			fn(mi, e)
		}
	}
}

// labourByGroupMonth returns labour cost per group per month for every
// live group, in one pass over the matrix.
func (a *Aggregator) labourByGroupMonth() map[GroupID]map[MonthKey]decimal.Decimal {
	out := make(map[GroupID]map[MonthKey]decimal.Decimal)
	a.eachDay(Filter{}, func(mi *MonthGroupInstance, e *DayEntry) {
		t := tagTotal{days: decimal.Zero, cost: decimal.Zero}
		a.addMarks(&t, e)
		if out[mi.GroupID] == nil {
			out[mi.GroupID] = make(map[MonthKey]decimal.Decimal)
		}
		out[mi.GroupID][mi.Month] = out[mi.GroupID][mi.Month].Add(t.cost)
	})
	return out
}

func (a *Aggregator) logger() logrus.FieldLogger {
	return loggerOrDiscard(a.Log)
}

func valueDays(full, halves int, rate decimal.Decimal) (days, cost decimal.Decimal) {
	fullDays := decimal.NewFromInt(int64(full))
	halfDays := decimal.NewFromInt(int64(halves)).Mul(half)
	days = fullDays.Add(halfDays)
	cost = fullDays.Mul(rate).Add(decimal.NewFromInt(int64(halves)).Mul(rate).Mul(half))
	return days, cost
}
