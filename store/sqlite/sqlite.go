/*
Package sqlite provides a SQLite-backed implementation of the attribution ports.

PURPOSE:
  Implements the engine read ports (attribution.Store), the write helpers
  used by the API and CLI (attribution.Writer), and the scheduled report
  log (attribution.RunStore). In production, the same patterns apply to
  PostgreSQL (see store/postgres) - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  attribute_changes is the point-in-time history of every worker:
  - No UPDATE statements on attribute_changes
  - No DELETE statements on attribute_changes
  - Corrections are new records with a later created_at

KEY TABLES:
  workers:                  Current worker state
  attribute_changes:        Append-only region / work status change log
  target_overrides:         Worker-specific weekly targets with effective dates
  daily_summaries:          Upstream per-worker, per-day hour totals
  daily_summary_categories: Category hours of a daily summary
  report_runs:              Scheduled report snapshots

STORAGE FORMATS:
  Dates are TEXT "YYYY-MM-DD" (sortable), timestamps RFC3339, hours and
  percentages are decimal strings so no precision is lost.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/productivity.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := attribution.NewEngine(store, leaveClient, cfg)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - attribution/ports.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// Store implements the attribution ports using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var (
	_ attribution.Store    = (*Store)(nil)
	_ attribution.Writer   = (*Store)(nil)
	_ attribution.RunStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// WithClock replaces the clock used for created_at and for deciding
// whether a change is already effective.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Workers (current state only)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		work_status TEXT NOT NULL DEFAULT '',
		region_id TEXT NOT NULL DEFAULT '',
		hire_date TEXT,
		end_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Attribute change log (append-only)
	CREATE TABLE IF NOT EXISTS attribute_changes (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		field TEXT NOT NULL,
		old_value TEXT NOT NULL DEFAULT '',
		new_value TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	-- History replay (hot path)
	CREATE INDEX IF NOT EXISTS idx_changes_worker_field_date
		ON attribute_changes(worker_id, field, effective_date);

	-- Worker-specific weekly targets
	CREATE TABLE IF NOT EXISTS target_overrides (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		work_status TEXT NOT NULL,
		weekly_hours TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_worker
		ON target_overrides(worker_id);

	-- Daily summaries (one row per worker per day)
	CREATE TABLE IF NOT EXISTS daily_summaries (
		worker_id TEXT NOT NULL,
		date TEXT NOT NULL,
		billable TEXT NOT NULL,
		non_billable TEXT NOT NULL,
		entry_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (worker_id, date)
	);

	CREATE TABLE IF NOT EXISTS daily_summary_categories (
		worker_id TEXT NOT NULL,
		date TEXT NOT NULL,
		category_id TEXT NOT NULL,
		category_name TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL,
		PRIMARY KEY (worker_id, date, category_id)
	);

	-- Scheduled report runs
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		window_start TEXT NOT NULL,
		window_end TEXT NOT NULL,
		mode TEXT NOT NULL,
		group_by TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		users INTEGER NOT NULL DEFAULT 0,
		rows_count INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		avg_performance TEXT NOT NULL DEFAULT '0',
		leave_degraded INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		UNIQUE(window_start, window_end, mode, group_by)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// WORKERS (attribution.WorkerSource, attribution.Writer)
// =============================================================================

// SaveWorker inserts or updates a worker's current state.
func (s *Store) SaveWorker(ctx context.Context, w attribution.Worker) error {
	w, err := attribution.NormalizeWorker(w)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveWorker(ctx, s.db, w)
}

func (s *Store) saveWorker(ctx context.Context, db execer, w attribution.Worker) error {
	now := s.now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO workers (id, name, email, work_status, region_id, hire_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			work_status = excluded.work_status,
			region_id = excluded.region_id,
			hire_date = excluded.hire_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		w.ID, w.Name, w.Email, string(w.WorkStatus), w.RegionID,
		nullDate(w.HireDate), nullDate(w.EndDate), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save worker %s: %w", w.ID, err)
	}
	return nil
}

// GetWorker retrieves a worker by ID.
func (s *Store) GetWorker(ctx context.Context, id string) (attribution.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWorker(ctx, s.db, id)
}

func (s *Store) getWorker(ctx context.Context, db execer, id string) (attribution.Worker, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, email, work_status, region_id, hire_date, end_date
		FROM workers WHERE id = ?`, id)

	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attribution.Worker{}, fmt.Errorf("worker %s: %w", id, generic.ErrEntityNotFound)
	}
	return w, err
}

// ListWorkers returns all workers ordered by ID.
func (s *Store) ListWorkers(ctx context.Context) ([]attribution.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, work_status, region_id, hire_date, end_date
		FROM workers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []attribution.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorker(row scanner) (attribution.Worker, error) {
	var (
		w                 attribution.Worker
		status            string
		hireDate, endDate sql.NullString
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Email, &status, &w.RegionID, &hireDate, &endDate); err != nil {
		return w, err
	}
	w.WorkStatus = attribution.WorkStatus(status)
	w.HireDate = parseNullDate(hireDate)
	w.EndDate = parseNullDate(endDate)
	return w, nil
}

// =============================================================================
// CHANGE LOG (attribution.HistorySource, attribution.Writer)
// =============================================================================

// AppendChange appends to the change log and moves the worker's current
// value when the change is already effective, in one transaction.
func (s *Store) AppendChange(ctx context.Context, rec attribution.ChangeRecord) (attribution.ChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	worker, err := s.getWorker(ctx, tx, rec.WorkerID)
	if err != nil {
		return rec, err
	}

	existing, err := s.changeRecords(ctx, tx, worker.ID, rec.Field)
	if err != nil {
		return rec, err
	}

	rec, worker, applied, err := attribution.PrepareChange(worker, existing, rec, s.now(), uuid.NewString)
	if err != nil {
		return rec, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attribute_changes
		(id, worker_id, field, old_value, new_value, effective_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.WorkerID, string(rec.Field), rec.OldValue, rec.NewValue,
		rec.EffectiveDate.String(), nullString(rec.Reason), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return rec, fmt.Errorf("%w: change record %s already exists", generic.ErrInvalidInput, rec.ID)
		}
		return rec, fmt.Errorf("failed to append change record: %w", err)
	}

	if applied {
		if err := s.saveWorker(ctx, tx, worker); err != nil {
			return rec, err
		}
	}

	if err := tx.Commit(); err != nil {
		return rec, fmt.Errorf("failed to commit change record: %w", err)
	}
	return rec, nil
}

// ChangeRecords returns a worker's change log for one field.
func (s *Store) ChangeRecords(ctx context.Context, workerID string, field attribution.Field) ([]attribution.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changeRecords(ctx, s.db, workerID, field)
}

func (s *Store) changeRecords(ctx context.Context, db execer, workerID string, field attribution.Field) ([]attribution.ChangeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, worker_id, field, old_value, new_value, effective_date, reason, created_at
		FROM attribute_changes
		WHERE worker_id = ? AND field = ?
		ORDER BY effective_date ASC, created_at ASC, id ASC`,
		workerID, string(field))
	if err != nil {
		return nil, fmt.Errorf("failed to query change records: %w", err)
	}
	defer rows.Close()

	var records []attribution.ChangeRecord
	for rows.Next() {
		var (
			rec                      attribution.ChangeRecord
			fieldName, effective, at string
			reason                   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &fieldName, &rec.OldValue, &rec.NewValue, &effective, &reason, &at); err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		rec.Field = attribution.Field(fieldName)
		rec.EffectiveDate, err = generic.ParseDate(effective)
		if err != nil {
			return nil, fmt.Errorf("change record %s: %w", rec.ID, err)
		}
		rec.Reason = reason.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, at)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// TARGET OVERRIDES (attribution.OverrideSource, attribution.Writer)
// =============================================================================

// SaveOverride inserts or replaces an override.
func (s *Store) SaveOverride(ctx context.Context, o attribution.TargetOverride) (attribution.TargetOverride, error) {
	o, err := attribution.NormalizeOverride(o)
	if err != nil {
		return o, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getWorker(ctx, s.db, o.WorkerID); err != nil {
		return o, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO target_overrides (id, worker_id, work_status, weekly_hours, effective_from, effective_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			work_status = excluded.work_status,
			weekly_hours = excluded.weekly_hours,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to`,
		o.ID, o.WorkerID, string(o.WorkStatus), o.WeeklyHours.String(),
		o.EffectiveFrom.String(), nullDate(o.EffectiveTo), s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return o, fmt.Errorf("failed to save override: %w", err)
	}
	return o, nil
}

// TargetOverrides returns every override recorded for a worker.
func (s *Store) TargetOverrides(ctx context.Context, workerID string) ([]attribution.TargetOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, work_status, weekly_hours, effective_from, effective_to
		FROM target_overrides WHERE worker_id = ? ORDER BY id`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []attribution.TargetOverride
	for rows.Next() {
		var (
			o                   attribution.TargetOverride
			status, hours, from string
			to                  sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.WorkerID, &status, &hours, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.WorkStatus = attribution.WorkStatus(status)
		if o.WeeklyHours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("override %s weekly hours: %w", o.ID, err)
		}
		if o.EffectiveFrom, err = generic.ParseDate(from); err != nil {
			return nil, fmt.Errorf("override %s: %w", o.ID, err)
		}
		o.EffectiveTo = parseNullDate(to)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// =============================================================================
// DAILY SUMMARIES (attribution.DailySummarySource, attribution.Writer)
// =============================================================================

// SaveDailySummary inserts or replaces the summary for (worker, date) and
// its categories.
func (s *Store) SaveDailySummary(ctx context.Context, ds attribution.DailySummary) error {
	if err := attribution.ValidateDailySummary(ds); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date := ds.Date.String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_summaries (worker_id, date, billable, non_billable, entry_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(worker_id, date) DO UPDATE SET
			billable = excluded.billable,
			non_billable = excluded.non_billable,
			entry_count = excluded.entry_count`,
		ds.WorkerID, date, ds.Billable.String(), ds.NonBillable.String(), ds.EntryCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily summary: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM daily_summary_categories WHERE worker_id = ? AND date = ?",
		ds.WorkerID, date); err != nil {
		return fmt.Errorf("failed to replace categories: %w", err)
	}
	for _, c := range mergeCategories(ds.Categories) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_summary_categories (worker_id, date, category_id, category_name, hours)
			VALUES (?, ?, ?, ?, ?)`,
			ds.WorkerID, date, c.ID, c.Name, c.Hours.String())
		if err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// DailySummaries returns the worker's summaries with from <= date <= to.
func (s *Store) DailySummaries(ctx context.Context, workerID string, from, to generic.TimePoint) ([]attribution.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.date, s.billable, s.non_billable, s.entry_count,
		       c.category_id, c.category_name, c.hours
		FROM daily_summaries s
		LEFT JOIN daily_summary_categories c
		       ON c.worker_id = s.worker_id AND c.date = s.date
		WHERE s.worker_id = ? AND s.date >= ? AND s.date <= ?
		ORDER BY s.date ASC, c.category_id ASC`,
		workerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attribution.DailySummary
	for rows.Next() {
		var (
			date, billable, nonBillable string
			entries                     int
			catID, catName, catHours    sql.NullString
		)
		if err := rows.Scan(&date, &billable, &nonBillable, &entries, &catID, &catName, &catHours); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}

		day, err := generic.ParseDate(date)
		if err != nil {
			return nil, err
		}
		if n := len(summaries); n == 0 || !summaries[n-1].Date.Equal(day) {
			summaries = append(summaries, attribution.DailySummary{
				WorkerID:    workerID,
				Date:        day,
				Billable:    parseDecimal(billable),
				NonBillable: parseDecimal(nonBillable),
				EntryCount:  entries,
			})
		}
		if catID.Valid {
			last := &summaries[len(summaries)-1]
			last.Categories = append(last.Categories, attribution.CategoryHours{
				ID:    catID.String,
				Name:  catName.String,
				Hours: parseDecimal(catHours.String),
			})
		}
	}
	return summaries, rows.Err()
}

// =============================================================================
// REPORT RUNS (attribution.RunStore)
// =============================================================================

// SaveReportRun inserts or updates a run. A window/mode/grouping has at most
// one run.
func (s *Store) SaveReportRun(ctx context.Context, r attribution.ReportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finishedAt *string
	if r.FinishedAt != nil {
		f := r.FinishedAt.UTC().Format(time.RFC3339)
		finishedAt = &f
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_runs (id, window_start, window_end, mode, group_by, status,
			started_at, finished_at, users, rows_count, failures, avg_performance, leave_degraded, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(window_start, window_end, mode, group_by) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			users = excluded.users,
			rows_count = excluded.rows_count,
			failures = excluded.failures,
			avg_performance = excluded.avg_performance,
			leave_degraded = excluded.leave_degraded,
			error = excluded.error`,
		r.ID, r.Window.Start.String(), r.Window.End.String(), string(r.Mode), string(r.GroupBy), string(r.Status),
		r.StartedAt.UTC().Format(time.RFC3339), finishedAt,
		r.Users, r.Rows, r.Failures, r.AvgPerformance.String(), r.LeaveDegraded, r.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save report run: %w", err)
	}
	return nil
}

const reportRunColumns = `id, window_start, window_end, mode, group_by, status, started_at, finished_at,
	users, rows_count, failures, avg_performance, leave_degraded, error`

// FindReportRun returns the run for a window, or nil.
func (s *Store) FindReportRun(ctx context.Context, window generic.Period, mode attribution.Mode, groupBy attribution.GroupBy) (*attribution.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+reportRunColumns+` FROM report_runs
		WHERE window_start = ? AND window_end = ? AND mode = ? AND group_by = ?`,
		window.Start.String(), window.End.String(), string(mode), string(groupBy))

	run, err := scanReportRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListReportRuns returns the most recent runs first.
func (s *Store) ListReportRuns(ctx context.Context, limit int) ([]attribution.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportRunColumns+` FROM report_runs
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	var runs []attribution.ReportRun
	for rows.Next() {
		run, err := scanReportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanReportRun(row scanner) (attribution.ReportRun, error) {
	var (
		r                              attribution.ReportRun
		start, end, mode, groupBy      string
		status, startedAt, performance string
		finishedAt                     sql.NullString
	)
	err := row.Scan(&r.ID, &start, &end, &mode, &groupBy, &status, &startedAt, &finishedAt,
		&r.Users, &r.Rows, &r.Failures, &performance, &r.LeaveDegraded, &r.Error)
	if err != nil {
		return r, err
	}

	r.Window.Start, _ = generic.ParseDate(start)
	r.Window.End, _ = generic.ParseDate(end)
	r.Mode = attribution.Mode(mode)
	r.GroupBy = attribution.GroupBy(groupBy)
	r.Status = attribution.RunStatus(status)
	r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339, finishedAt.String)
		r.FinishedAt = &t
	}
	r.AvgPerformance = parseDecimal(performance)
	return r, nil
}

// Helper functions

// mergeCategories sums repeated category IDs of one day.
func mergeCategories(categories []attribution.CategoryHours) []attribution.CategoryHours {
	merged := make([]attribution.CategoryHours, 0, len(categories))
	index := make(map[string]int, len(categories))
	for _, c := range categories {
		if i, ok := index[c.ID]; ok {
			merged[i].Hours = merged[i].Hours.Add(c.Hours)
			continue
		}
		index[c.ID] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseNullDate(ns sql.NullString) *generic.TimePoint {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	tp, err := generic.ParseDate(ns.String)
	if err != nil {
		return nil
	}
	return &tp
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
