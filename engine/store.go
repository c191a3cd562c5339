package engine

import "context"

// =============================================================================
// STORE - Persistence boundary
// =============================================================================

// Store persists the records a Snapshot is built from. The engine never
// calls it; handlers load a snapshot, run a computation or a matrix write,
// and save back only the records that changed.
//
// Save methods are upserts keyed by the record id. Soft deletes are saves
// with Deleted set; nothing is ever physically removed.
type Store interface {
	// LoadSnapshot returns a copy of everything the store holds. The caller
	// owns the result.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	SaveWorker(ctx context.Context, w Worker) error
	SaveGroup(ctx context.Context, g Group) error
	SaveActivity(ctx context.Context, a Activity) error
	SaveArea(ctx context.Context, a Area) error

	// SaveRoster replaces the worker list of a month.
	SaveRoster(ctx context.Context, month MonthKey, workerIDs []WorkerID) error

	// SaveInstance writes an instance header and replaces all its day
	// entries with the ones given.
	SaveInstance(ctx context.Context, mi *MonthGroupInstance) error

	// SaveDayEntry upserts one day of an existing instance, tags and marks
	// included. Returns ErrUnknownInstance if the instance was never saved.
	SaveDayEntry(ctx context.Context, instanceID InstanceID, e DayEntry) error

	SaveExpense(ctx context.Context, e Expense) error
	SavePayment(ctx context.Context, p Payment) error

	// ReplaceAll discards every record and stores the snapshot instead.
	ReplaceAll(ctx context.Context, snap *Snapshot) error
}
