package engine_test

import (
	"testing"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

const (
	march = engine.MonthKey("2024-03")
	april = engine.MonthKey("2024-04")
)

func day(m engine.MonthKey, d string) engine.DayKey {
	return engine.DayKey(string(m) + "-" + d)
}

func worker(id, name string, rate float64) engine.Worker {
	return engine.Worker{ID: engine.WorkerID(id), Name: name, DailyRate: engine.Rupees(rate), State: engine.StateActive}
}

func group(id, name string, order int) engine.Group {
	return engine.Group{ID: engine.GroupID(id), Name: name, Order: order, State: engine.StateActive}
}

// newFarm returns a snapshot with two live workers, one deleted worker,
// one worker with no rate and two live groups plus a deleted one.
func newFarm() *engine.Snapshot {
	deleted := worker("w-del", "Zed", 500)
	deleted.Deleted = true
	gone := group("g-del", "Old gang", 9)
	gone.Deleted = true

	return &engine.Snapshot{
		Workers: []engine.Worker{
			worker("w-asha", "Asha", 400),
			worker("w-bala", "Bala", 300),
			deleted,
			worker("w-norate", "Chitra", 0),
		},
		Groups: []engine.Group{
			group("g-b", "Orchard", 2),
			group("g-a", "Paddy", 1),
			gone,
		},
		Activities: []engine.Activity{
			{Code: "weed", Name: "Weeding"},
			{Code: "harv", Name: "Harvest"},
		},
		Areas: []engine.Area{
			{Code: "north", Name: "North plot"},
			{Code: "south", Name: "South plot"},
		},
		Attendance: engine.NewAttendanceMatrix(),
	}
}

// mark activates the instance if needed and writes the status directly.
func mark(t *testing.T, s *engine.Snapshot, g engine.GroupID, w engine.WorkerID, d engine.DayKey, status engine.AttendanceStatus) {
	t.Helper()
	mi, err := s.Matrix().Activate(d.Month(), g)
	require.NoError(t, err)
	require.NoError(t, s.Matrix().SetStatus(mi.ID, w, d, status))
}

func tag(t *testing.T, s *engine.Snapshot, g engine.GroupID, d engine.DayKey, activity, area string) {
	t.Helper()
	mi, err := s.Matrix().Activate(d.Month(), g)
	require.NoError(t, err)
	require.NoError(t, s.Matrix().SetDayTags(mi.ID, d, activity, area))
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, decimal.RequireFromString(want).String(), got.String(), msgAndArgs...)
}

func pct(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func fixed(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}
