package store_test

import (
	"context"
	"testing"

	"github.com/bijoor/farm-attendance-sub000/engine"
	"github.com/bijoor/farm-attendance-sub000/engine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveWorker(ctx, engine.Worker{ID: "w-1", Name: "Asha", DailyRate: engine.Rupees(400)}))
	require.NoError(t, m.SaveInstance(ctx, &engine.MonthGroupInstance{ID: "2024-03/g-a", Month: "2024-03", GroupID: "g-a"}))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Matrix().Instances, 1)

	// Mutating the snapshot must not leak into the store.
	_, err = snap.Matrix().Cycle("2024-03/g-a", "w-1", "2024-03-01")
	require.NoError(t, err)
	snap.Workers[0].Name = "changed"

	again, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.Workers[0].Name)
	assert.Empty(t, again.Matrix().Instances[0].Days)
}

func TestMemory_SaveDayEntryKeepsOrder(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	id := engine.InstanceID("2024-03/g-a")

	err := m.SaveDayEntry(ctx, id, engine.DayEntry{Date: "2024-03-01"})
	assert.ErrorIs(t, err, engine.ErrUnknownInstance)

	require.NoError(t, m.SaveInstance(ctx, &engine.MonthGroupInstance{ID: id, Month: "2024-03", GroupID: "g-a"}))
	for _, d := range []engine.DayKey{"2024-03-15", "2024-03-02", "2024-03-09"} {
		require.NoError(t, m.SaveDayEntry(ctx, id, engine.DayEntry{
			Date:  d,
			Marks: map[engine.WorkerID]engine.AttendanceStatus{"w-1": engine.StatusPresent},
		}))
	}
	require.NoError(t, m.SaveDayEntry(ctx, id, engine.DayEntry{Date: "2024-03-09", ActivityCode: "weed"}))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	days := snap.Matrix().Instance(id).Days
	require.Len(t, days, 3)
	assert.Equal(t, engine.DayKey("2024-03-02"), days[0].Date)
	assert.Equal(t, engine.DayKey("2024-03-09"), days[1].Date)
	assert.Equal(t, "weed", days[1].ActivityCode)
	assert.Empty(t, days[1].Marks, "upsert replaces the whole entry")
}

func TestMemory_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.SaveGroup(ctx, engine.Group{ID: "g-old"}))

	require.NoError(t, m.ReplaceAll(ctx, &engine.Snapshot{
		Groups:   []engine.Group{{ID: "g-b"}, {ID: "g-a"}},
		Expenses: []engine.Expense{{ID: "e-1", Amount: engine.Rupees(10), GroupID: "g-a"}},
		Rosters:  map[engine.MonthKey][]engine.WorkerID{"2024-03": {"w-1"}},
	}))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Groups, 2)
	assert.Equal(t, engine.GroupID("g-a"), snap.Groups[0].ID)
	assert.Len(t, snap.Expenses, 1)
	assert.Equal(t, []engine.WorkerID{"w-1"}, snap.Rosters["2024-03"])
}

func TestMemory_SoftDeleteIsASave(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	p := engine.Payment{ID: "p-1", Amount: engine.Rupees(100), GroupID: "g-a"}
	require.NoError(t, m.SavePayment(ctx, p))

	p.Deleted = true
	require.NoError(t, m.SavePayment(ctx, p))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Payments, 1)
	assert.True(t, snap.Payments[0].Deleted)
}
