/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists the farm's master data, the attendance matrix, expenses and
  payments. Every read hands back a full engine.Snapshot; the engine does
  the arithmetic in memory, so nothing derived (costs, balances) is ever
  written here.

KEY TABLES:
  workers, work_groups, activities, areas: master data
  rosters:             workers assigned to a month
  month_groups:        one row per activated (month, group) instance
  day_entries:         one row per written group-day, with its tags
  attendance_marks:    sparse worker -> status map of a day entry
  expenses:            sundry costs, with expense_allocations for splits
  payments:            money paid against one group

SOFT DELETES:
  Records are never removed. A delete is a save with deleted = 1, and
  every computation skips flagged rows. The only DELETE statements clear
  child rows that are rewritten in the same transaction (marks of a day
  entry, allocations of an expense) or wipe the store in ReplaceAll.

MONEY:
  Amounts are stored as decimal TEXT so they round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex plus a single pooled connection. SQLite allows one
  writer at a time anyway, and ":memory:" databases exist per connection.

USAGE:
  store, err := sqlite.New("./data/farm.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := store.LoadSnapshot(ctx)

MIGRATION:
  Schema is versioned under migrations/ and applied with golang-migrate
  on New().

SEE ALSO:
  - engine/store.go: Interface definition
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bijoor/farm-attendance-sub000/engine"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// LoadSnapshot reads every table into a fresh snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &engine.Snapshot{
		Rosters:    make(map[engine.MonthKey][]engine.WorkerID),
		Attendance: engine.NewAttendanceMatrix(),
	}

	loaders := []struct {
		name string
		fn   func(context.Context, *engine.Snapshot) error
	}{
		{"workers", s.loadWorkers},
		{"groups", s.loadGroups},
		{"activities", s.loadActivities},
		{"areas", s.loadAreas},
		{"rosters", s.loadRosters},
		{"attendance", s.loadAttendance},
		{"expenses", s.loadExpenses},
		{"payments", s.loadPayments},
	}
	for _, l := range loaders {
		if err := l.fn(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}
	return snap, nil
}

func (s *Store) loadWorkers(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, local_name, daily_rate, state, deleted FROM workers ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var w engine.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.LocalName, &w.DailyRate, &w.State, &w.Deleted); err != nil {
			return err
		}
		snap.Workers = append(snap.Workers, w)
	}
	return rows.Err()
}

func (s *Store) loadGroups(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, local_name, sort_order, state, deleted FROM work_groups ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g engine.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.LocalName, &g.Order, &g.State, &g.Deleted); err != nil {
			return err
		}
		snap.Groups = append(snap.Groups, g)
	}
	return rows.Err()
}

func (s *Store) loadActivities(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT code, name, deleted FROM activities ORDER BY code")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a engine.Activity
		if err := rows.Scan(&a.Code, &a.Name, &a.Deleted); err != nil {
			return err
		}
		snap.Activities = append(snap.Activities, a)
	}
	return rows.Err()
}

func (s *Store) loadAreas(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT code, name, deleted FROM areas ORDER BY code")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a engine.Area
		if err := rows.Scan(&a.Code, &a.Name, &a.Deleted); err != nil {
			return err
		}
		snap.Areas = append(snap.Areas, a)
	}
	return rows.Err()
}

func (s *Store) loadRosters(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT month, worker_id FROM rosters ORDER BY month, position")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var month engine.MonthKey
		var workerID engine.WorkerID
		if err := rows.Scan(&month, &workerID); err != nil {
			return err
		}
		snap.Rosters[month] = append(snap.Rosters[month], workerID)
	}
	return rows.Err()
}

func (s *Store) loadAttendance(ctx context.Context, snap *engine.Snapshot) error {
	byID := make(map[engine.InstanceID]*engine.MonthGroupInstance)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, month, group_id, worker_ids_json FROM month_groups ORDER BY id")
	if err != nil {
		return err
	}
	for rows.Next() {
		var mi engine.MonthGroupInstance
		var workerIDs sql.NullString
		if err := rows.Scan(&mi.ID, &mi.Month, &mi.GroupID, &workerIDs); err != nil {
			rows.Close()
			return err
		}
		if workerIDs.Valid && workerIDs.String != "" {
			if err := json.Unmarshal([]byte(workerIDs.String), &mi.WorkerIDs); err != nil {
				rows.Close()
				return fmt.Errorf("instance %s worker ids: %w", mi.ID, err)
			}
		}
		byID[mi.ID] = &mi
		snap.Attendance.Instances = append(snap.Attendance.Instances, &mi)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Day entries, ordered so each instance's Days come out sorted.
	type dayRef struct {
		instance engine.InstanceID
		date     engine.DayKey
	}
	entries := make(map[dayRef]int)

	rows, err = s.db.QueryContext(ctx,
		"SELECT instance_id, date, activity_code, area_code FROM day_entries ORDER BY instance_id, date")
	if err != nil {
		return err
	}
	for rows.Next() {
		var ref dayRef
		var e engine.DayEntry
		if err := rows.Scan(&ref.instance, &ref.date, &e.ActivityCode, &e.AreaCode); err != nil {
			rows.Close()
			return err
		}
		mi, ok := byID[ref.instance]
		if !ok {
			continue
		}
		e.Date = ref.date
		entries[ref] = len(mi.Days)
		mi.Days = append(mi.Days, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT instance_id, date, worker_id, status FROM attendance_marks")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ref dayRef
		var workerID engine.WorkerID
		var status engine.AttendanceStatus
		if err := rows.Scan(&ref.instance, &ref.date, &workerID, &status); err != nil {
			return err
		}
		i, ok := entries[ref]
		if !ok {
			continue
		}
		e := &byID[ref.instance].Days[i]
		if e.Marks == nil {
			e.Marks = make(map[engine.WorkerID]engine.AttendanceStatus)
		}
		e.Marks[workerID] = status
	}
	return rows.Err()
}

func (s *Store) loadExpenses(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, month, category_id, description, amount, group_id,
		       is_shared, deleted, created_at, modified_at
		FROM expenses ORDER BY id
	`)
	if err != nil {
		return err
	}
	index := make(map[engine.ExpenseID]int)
	for rows.Next() {
		var (
			e                     engine.Expense
			category, groupID     sql.NullString
			createdAt, modifiedAt string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.Month, &category, &e.Description, &e.Amount,
			&groupID, &e.IsShared, &e.Deleted, &createdAt, &modifiedAt); err != nil {
			rows.Close()
			return err
		}
		e.CategoryID = engine.CategoryID(category.String)
		e.GroupID = engine.GroupID(groupID.String)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
		index[e.ID] = len(snap.Expenses)
		snap.Expenses = append(snap.Expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT expense_id, group_id, percentage, fixed_amount
		FROM expense_allocations ORDER BY expense_id, position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var expenseID engine.ExpenseID
		var a engine.Allocation
		if err := rows.Scan(&expenseID, &a.GroupID, &a.Percentage, &a.FixedAmount); err != nil {
			return err
		}
		if i, ok := index[expenseID]; ok {
			snap.Expenses[i].Allocations = append(snap.Expenses[i].Allocations, a)
		}
	}
	return rows.Err()
}

func (s *Store) loadPayments(ctx context.Context, snap *engine.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, month, amount, payment_for, group_id, expense_id,
		       deleted, created_at, modified_at
		FROM payments ORDER BY id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                     engine.Payment
			expenseID             sql.NullString
			createdAt, modifiedAt string
		)
		if err := rows.Scan(&p.ID, &p.Date, &p.Month, &p.Amount, &p.For, &p.GroupID, &expenseID,
			&p.Deleted, &createdAt, &modifiedAt); err != nil {
			return err
		}
		p.ExpenseID = engine.ExpenseID(expenseID.String)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
		snap.Payments = append(snap.Payments, p)
	}
	return rows.Err()
}

// =============================================================================
// MASTER DATA
// =============================================================================

func (s *Store) SaveWorker(ctx context.Context, w engine.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveWorker(ctx, s.db, w)
}

func saveWorker(ctx context.Context, db execer, w engine.Worker) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO workers (id, name, local_name, daily_rate, state, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			local_name = excluded.local_name,
			daily_rate = excluded.daily_rate,
			state = excluded.state,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at
	`, w.ID, w.Name, w.LocalName, w.DailyRate.String(), stateOrActive(w.State), w.Deleted, now())
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

func (s *Store) SaveGroup(ctx context.Context, g engine.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveGroup(ctx, s.db, g)
}

func saveGroup(ctx context.Context, db execer, g engine.Group) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO work_groups (id, name, local_name, sort_order, state, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			local_name = excluded.local_name,
			sort_order = excluded.sort_order,
			state = excluded.state,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at
	`, g.ID, g.Name, g.LocalName, g.Order, stateOrActive(g.State), g.Deleted, now())
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

func (s *Store) SaveActivity(ctx context.Context, a engine.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTag(ctx, s.db, "activities", a.Code, a.Name, a.Deleted)
}

func (s *Store) SaveArea(ctx context.Context, a engine.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTag(ctx, s.db, "areas", a.Code, a.Name, a.Deleted)
}

// saveTag upserts into activities or areas, which share a shape.
func saveTag(ctx context.Context, db execer, table, code, name string, deleted bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO `+table+` (code, name, deleted) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, deleted = excluded.deleted
	`, code, name, deleted)
	if err != nil {
		return fmt.Errorf("failed to save %s row: %w", table, err)
	}
	return nil
}

// SaveRoster replaces the worker list of a month.
func (s *Store) SaveRoster(ctx context.Context, month engine.MonthKey, workerIDs []engine.WorkerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return saveRoster(ctx, tx, month, workerIDs)
	})
}

func saveRoster(ctx context.Context, db execer, month engine.MonthKey, workerIDs []engine.WorkerID) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM rosters WHERE month = ?", month); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	for i, id := range workerIDs {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO rosters (month, position, worker_id) VALUES (?, ?, ?)",
			month, i, id,
		); err != nil {
			return fmt.Errorf("failed to save roster: %w", err)
		}
	}
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// SaveInstance writes the instance header and replaces its day entries.
func (s *Store) SaveInstance(ctx context.Context, mi *engine.MonthGroupInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return saveInstance(ctx, tx, mi)
	})
}

func saveInstance(ctx context.Context, db execer, mi *engine.MonthGroupInstance) error {
	var workerIDs sql.NullString
	if mi.WorkerIDs != nil {
		raw, err := json.Marshal(mi.WorkerIDs)
		if err != nil {
			return err
		}
		workerIDs = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO month_groups (id, month, group_id, worker_ids_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET worker_ids_json = excluded.worker_ids_json
	`, mi.ID, mi.Month, mi.GroupID, workerIDs)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("group %s already active in %s: %w", mi.GroupID, mi.Month, err)
		}
		return fmt.Errorf("failed to save instance: %w", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM day_entries WHERE instance_id = ?", mi.ID); err != nil {
		return fmt.Errorf("failed to clear day entries: %w", err)
	}
	for _, e := range mi.Days {
		if err := saveDayEntry(ctx, db, mi.ID, e); err != nil {
			return err
		}
	}
	return nil
}

// SaveDayEntry upserts one day of an existing instance.
func (s *Store) SaveDayEntry(ctx context.Context, instanceID engine.InstanceID, e engine.DayEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM month_groups WHERE id = ?", instanceID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return &engine.ReferenceError{Kind: engine.RefInstance, ID: string(instanceID)}
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return saveDayEntry(ctx, tx, instanceID, e)
	})
}

func saveDayEntry(ctx context.Context, db execer, instanceID engine.InstanceID, e engine.DayEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO day_entries (instance_id, date, activity_code, area_code)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(instance_id, date) DO UPDATE SET
			activity_code = excluded.activity_code,
			area_code = excluded.area_code
	`, instanceID, e.Date, e.ActivityCode, e.AreaCode)
	if err != nil {
		return fmt.Errorf("failed to save day entry: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		"DELETE FROM attendance_marks WHERE instance_id = ? AND date = ?", instanceID, e.Date,
	); err != nil {
		return fmt.Errorf("failed to clear marks: %w", err)
	}
	for workerID, status := range e.Marks {
		if status == engine.StatusUnmarked {
			continue
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO attendance_marks (instance_id, date, worker_id, status) VALUES (?, ?, ?, ?)",
			instanceID, e.Date, workerID, status,
		); err != nil {
			return fmt.Errorf("failed to save mark: %w", err)
		}
	}
	return nil
}

// =============================================================================
// EXPENSES AND PAYMENTS
// =============================================================================

func (s *Store) SaveExpense(ctx context.Context, e engine.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return saveExpense(ctx, tx, e)
	})
}

func saveExpense(ctx context.Context, db execer, e engine.Expense) error {
	created, modified := timestamps(e.CreatedAt, e.ModifiedAt)
	_, err := db.ExecContext(ctx, `
		INSERT INTO expenses
		(id, date, month, category_id, description, amount, group_id, is_shared, deleted, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			month = excluded.month,
			category_id = excluded.category_id,
			description = excluded.description,
			amount = excluded.amount,
			group_id = excluded.group_id,
			is_shared = excluded.is_shared,
			deleted = excluded.deleted,
			modified_at = excluded.modified_at
	`,
		e.ID, e.Date, e.Month, nullString(string(e.CategoryID)), e.Description, e.Amount.String(),
		nullString(string(e.GroupID)), e.IsShared, e.Deleted, created, modified,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM expense_allocations WHERE expense_id = ?", e.ID); err != nil {
		return fmt.Errorf("failed to clear allocations: %w", err)
	}
	for i, a := range e.Allocations {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO expense_allocations (expense_id, position, group_id, percentage, fixed_amount)
			VALUES (?, ?, ?, ?, ?)
		`, e.ID, i, a.GroupID, a.Percentage, a.FixedAmount); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
	}
	return nil
}

func (s *Store) SavePayment(ctx context.Context, p engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePayment(ctx, s.db, p)
}

func savePayment(ctx context.Context, db execer, p engine.Payment) error {
	created, modified := timestamps(p.CreatedAt, p.ModifiedAt)
	paymentFor := p.For
	if paymentFor == "" {
		paymentFor = engine.PaymentForLabour
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments
		(id, date, month, amount, payment_for, group_id, expense_id, deleted, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			month = excluded.month,
			amount = excluded.amount,
			payment_for = excluded.payment_for,
			group_id = excluded.group_id,
			expense_id = excluded.expense_id,
			deleted = excluded.deleted,
			modified_at = excluded.modified_at
	`,
		p.ID, p.Date, p.Month, p.Amount.String(), paymentFor, p.GroupID,
		nullString(string(p.ExpenseID)), p.Deleted, created, modified,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// ReplaceAll clears every table and writes the snapshot in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, snap *engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := reset(ctx, tx); err != nil {
			return err
		}
		for _, w := range snap.Workers {
			if err := saveWorker(ctx, tx, w); err != nil {
				return err
			}
		}
		for _, g := range snap.Groups {
			if err := saveGroup(ctx, tx, g); err != nil {
				return err
			}
		}
		for _, a := range snap.Activities {
			if err := saveTag(ctx, tx, "activities", a.Code, a.Name, a.Deleted); err != nil {
				return err
			}
		}
		for _, a := range snap.Areas {
			if err := saveTag(ctx, tx, "areas", a.Code, a.Name, a.Deleted); err != nil {
				return err
			}
		}
		for month, ids := range snap.Rosters {
			if err := saveRoster(ctx, tx, month, ids); err != nil {
				return err
			}
		}
		for _, mi := range snap.Matrix().Instances {
			if err := saveInstance(ctx, tx, mi); err != nil {
				return err
			}
		}
		for _, e := range snap.Expenses {
			if err := saveExpense(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, p := range snap.Payments {
			if err := savePayment(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reset(ctx, s.db)
}

func reset(ctx context.Context, db execer) error {
	// Children first so foreign keys never dangle mid-way.
	tables := []string{
		"attendance_marks", "day_entries", "month_groups", "rosters",
		"expense_allocations", "expenses", "payments",
		"activities", "areas", "work_groups", "workers",
	}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func stateOrActive(s engine.State) engine.State {
	if s == "" {
		return engine.StateActive
	}
	return s
}

func timestamps(created, modified time.Time) (string, string) {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if modified.IsZero() {
		modified = created
	}
	return created.UTC().Format(time.RFC3339), modified.UTC().Format(time.RFC3339)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

