/*
Package postgres provides a PostgreSQL implementation of the attribution ports.

PURPOSE:
  Same contract as store/sqlite, backed by a pgx connection pool for
  deployments where the worker directory and daily summaries already live
  in PostgreSQL. Dates are DATE columns and hours NUMERIC; decimals cross
  the wire as text so no precision is lost.

USAGE:
  store, err := postgres.New(ctx, os.Getenv("DATABASE_URL"))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/sqlite: Reference implementation and schema comments
  - attribution/ports.go: Interface definitions
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// Store implements the attribution ports using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var (
	_ attribution.Store    = (*Store)(nil)
	_ attribution.Writer   = (*Store)(nil)
	_ attribution.RunStore = (*Store)(nil)
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New connects to dsn, verifies the connection and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := &Store{pool: pool, now: time.Now}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
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

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS workers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	work_status TEXT NOT NULL DEFAULT '',
	region_id TEXT NOT NULL DEFAULT '',
	hire_date DATE,
	end_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attribute_changes (
	id TEXT PRIMARY KEY,
	worker_id TEXT NOT NULL REFERENCES workers(id),
	field TEXT NOT NULL,
	old_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL,
	effective_date DATE NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_worker_field_date
	ON attribute_changes (worker_id, field, effective_date);

CREATE TABLE IF NOT EXISTS target_overrides (
	id TEXT PRIMARY KEY,
	worker_id TEXT NOT NULL REFERENCES workers(id),
	work_status TEXT NOT NULL,
	weekly_hours NUMERIC NOT NULL,
	effective_from DATE NOT NULL,
	effective_to DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_overrides_worker ON target_overrides (worker_id);

CREATE TABLE IF NOT EXISTS daily_summaries (
	worker_id TEXT NOT NULL,
	date DATE NOT NULL,
	billable NUMERIC NOT NULL,
	non_billable NUMERIC NOT NULL,
	entry_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (worker_id, date)
);

CREATE TABLE IF NOT EXISTS daily_summary_categories (
	worker_id TEXT NOT NULL,
	date DATE NOT NULL,
	category_id TEXT NOT NULL,
	category_name TEXT NOT NULL DEFAULT '',
	hours NUMERIC NOT NULL,
	PRIMARY KEY (worker_id, date, category_id)
);

CREATE TABLE IF NOT EXISTS report_runs (
	id TEXT PRIMARY KEY,
	window_start DATE NOT NULL,
	window_end DATE NOT NULL,
	mode TEXT NOT NULL,
	group_by TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	users INTEGER NOT NULL DEFAULT 0,
	rows_count INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	avg_performance NUMERIC NOT NULL DEFAULT 0,
	leave_degraded BOOLEAN NOT NULL DEFAULT FALSE,
	error TEXT NOT NULL DEFAULT '',
	UNIQUE (window_start, window_end, mode, group_by)
);
CREATE INDEX IF NOT EXISTS idx_report_runs_started ON report_runs (started_at DESC);
`

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Store) SaveWorker(ctx context.Context, w attribution.Worker) error {
	w, err := attribution.NormalizeWorker(w)
	if err != nil {
		return err
	}
	return saveWorker(ctx, s.pool, w)
}

func saveWorker(ctx context.Context, q querier, w attribution.Worker) error {
	_, err := q.Exec(ctx, `
		INSERT INTO workers (id, name, email, work_status, region_id, hire_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			work_status = EXCLUDED.work_status,
			region_id = EXCLUDED.region_id,
			hire_date = EXCLUDED.hire_date,
			end_date = EXCLUDED.end_date,
			updated_at = NOW()`,
		w.ID, w.Name, w.Email, string(w.WorkStatus), w.RegionID,
		datePtr(w.HireDate), datePtr(w.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to save worker %s: %w", w.ID, err)
	}
	return nil
}

func (s *Store) GetWorker(ctx context.Context, id string) (attribution.Worker, error) {
	return getWorker(ctx, s.pool, id)
}

func getWorker(ctx context.Context, q querier, id string) (attribution.Worker, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, email, work_status, region_id, hire_date, end_date
		FROM workers WHERE id = $1`, id)
	w, err := scanWorker(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return attribution.Worker{}, fmt.Errorf("worker %s: %w", id, generic.ErrEntityNotFound)
	}
	if err != nil {
		return attribution.Worker{}, fmt.Errorf("failed to get worker %s: %w", id, err)
	}
	return w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]attribution.Worker, error) {
	rows, err := s.pool.Query(ctx, `
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
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func scanWorker(row pgx.Row) (attribution.Worker, error) {
	var (
		w                 attribution.Worker
		status            string
		hireDate, endDate *time.Time
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Email, &status, &w.RegionID, &hireDate, &endDate); err != nil {
		return w, err
	}
	w.WorkStatus = attribution.WorkStatus(status)
	w.HireDate = timePointPtr(hireDate)
	w.EndDate = timePointPtr(endDate)
	return w, nil
}

// =============================================================================
// CHANGE LOG
// =============================================================================

func (s *Store) AppendChange(ctx context.Context, rec attribution.ChangeRecord) (attribution.ChangeRecord, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		worker, err := getWorker(ctx, tx, rec.WorkerID)
		if err != nil {
			return err
		}

		existing, err := changeRecords(ctx, tx, worker.ID, rec.Field)
		if err != nil {
			return err
		}

		var applied bool
		rec, worker, applied, err = attribution.PrepareChange(worker, existing, rec, s.now(), uuid.NewString)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO attribute_changes
			(id, worker_id, field, old_value, new_value, effective_date, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.WorkerID, string(rec.Field), rec.OldValue, rec.NewValue,
			rec.EffectiveDate.Time, rec.Reason, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append change record: %w", err)
		}

		if applied {
			return saveWorker(ctx, tx, worker)
		}
		return nil
	})
	return rec, err
}

func (s *Store) ChangeRecords(ctx context.Context, workerID string, field attribution.Field) ([]attribution.ChangeRecord, error) {
	return changeRecords(ctx, s.pool, workerID, field)
}

func changeRecords(ctx context.Context, db querier, workerID string, field attribution.Field) ([]attribution.ChangeRecord, error) {
	rows, err := db.Query(ctx, `
		SELECT id, worker_id, field, old_value, new_value, effective_date, reason, created_at
		FROM attribute_changes
		WHERE worker_id = $1 AND field = $2
		ORDER BY effective_date ASC, created_at ASC, id ASC`,
		workerID, string(field))
	if err != nil {
		return nil, fmt.Errorf("failed to query change records: %w", err)
	}
	defer rows.Close()

	var records []attribution.ChangeRecord
	for rows.Next() {
		var (
			rec       attribution.ChangeRecord
			fieldName string
			effective time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &fieldName, &rec.OldValue, &rec.NewValue,
			&effective, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		rec.Field = attribution.Field(fieldName)
		rec.EffectiveDate = generic.FromTime(effective)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// TARGET OVERRIDES
// =============================================================================

func (s *Store) SaveOverride(ctx context.Context, o attribution.TargetOverride) (attribution.TargetOverride, error) {
	o, err := attribution.NormalizeOverride(o)
	if err != nil {
		return o, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, err := getWorker(ctx, s.pool, o.WorkerID); err != nil {
		return o, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO target_overrides (id, worker_id, work_status, weekly_hours, effective_from, effective_to)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			work_status = EXCLUDED.work_status,
			weekly_hours = EXCLUDED.weekly_hours,
			effective_from = EXCLUDED.effective_from,
			effective_to = EXCLUDED.effective_to`,
		o.ID, o.WorkerID, string(o.WorkStatus), o.WeeklyHours.String(),
		o.EffectiveFrom.Time, datePtr(o.EffectiveTo),
	)
	if err != nil {
		return o, fmt.Errorf("failed to save override: %w", err)
	}
	return o, nil
}

func (s *Store) TargetOverrides(ctx context.Context, workerID string) ([]attribution.TargetOverride, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, worker_id, work_status, weekly_hours::text, effective_from, effective_to
		FROM target_overrides WHERE worker_id = $1 ORDER BY id`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []attribution.TargetOverride
	for rows.Next() {
		var (
			o             attribution.TargetOverride
			status, hours string
			from          time.Time
			to            *time.Time
		)
		if err := rows.Scan(&o.ID, &o.WorkerID, &status, &hours, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.WorkStatus = attribution.WorkStatus(status)
		if o.WeeklyHours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("override %s weekly hours: %w", o.ID, err)
		}
		o.EffectiveFrom = generic.FromTime(from)
		o.EffectiveTo = timePointPtr(to)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

func (s *Store) SaveDailySummary(ctx context.Context, ds attribution.DailySummary) error {
	if err := attribution.ValidateDailySummary(ds); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_summaries (worker_id, date, billable, non_billable, entry_count)
			VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5)
			ON CONFLICT (worker_id, date) DO UPDATE SET
				billable = EXCLUDED.billable,
				non_billable = EXCLUDED.non_billable,
				entry_count = EXCLUDED.entry_count`,
			ds.WorkerID, ds.Date.Time, ds.Billable.String(), ds.NonBillable.String(), ds.EntryCount,
		)
		if err != nil {
			return fmt.Errorf("failed to save daily summary: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"DELETE FROM daily_summary_categories WHERE worker_id = $1 AND date = $2",
			ds.WorkerID, ds.Date.Time); err != nil {
			return fmt.Errorf("failed to replace categories: %w", err)
		}

		// Repeated category IDs of one day are summed.
		for _, c := range ds.Categories {
			_, err := tx.Exec(ctx, `
				INSERT INTO daily_summary_categories (worker_id, date, category_id, category_name, hours)
				VALUES ($1, $2, $3, $4, $5::text::numeric)
				ON CONFLICT (worker_id, date, category_id) DO UPDATE SET
					hours = daily_summary_categories.hours + EXCLUDED.hours`,
				ds.WorkerID, ds.Date.Time, c.ID, c.Name, c.Hours.String())
			if err != nil {
				return fmt.Errorf("failed to save category %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) DailySummaries(ctx context.Context, workerID string, from, to generic.TimePoint) ([]attribution.DailySummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.date, s.billable::text, s.non_billable::text, s.entry_count,
		       c.category_id, c.category_name, c.hours::text
		FROM daily_summaries s
		LEFT JOIN daily_summary_categories c
		       ON c.worker_id = s.worker_id AND c.date = s.date
		WHERE s.worker_id = $1 AND s.date BETWEEN $2 AND $3
		ORDER BY s.date ASC, c.category_id ASC`,
		workerID, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attribution.DailySummary
	for rows.Next() {
		var (
			date                     time.Time
			billable, nonBillable    string
			entries                  int
			catID, catName, catHours *string
		)
		if err := rows.Scan(&date, &billable, &nonBillable, &entries, &catID, &catName, &catHours); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}

		day := generic.FromTime(date)
		if n := len(summaries); n == 0 || !summaries[n-1].Date.Equal(day) {
			summaries = append(summaries, attribution.DailySummary{
				WorkerID:    workerID,
				Date:        day,
				Billable:    parseDecimal(billable),
				NonBillable: parseDecimal(nonBillable),
				EntryCount:  entries,
			})
		}
		if catID != nil {
			last := &summaries[len(summaries)-1]
			category := attribution.CategoryHours{ID: *catID}
			if catName != nil {
				category.Name = *catName
			}
			if catHours != nil {
				category.Hours = parseDecimal(*catHours)
			}
			last.Categories = append(last.Categories, category)
		}
	}
	return summaries, rows.Err()
}

// =============================================================================
// REPORT RUNS
// =============================================================================

func (s *Store) SaveReportRun(ctx context.Context, r attribution.ReportRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_runs (id, window_start, window_end, mode, group_by, status,
			started_at, finished_at, users, rows_count, failures, avg_performance, leave_degraded, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::text::numeric, $13, $14)
		ON CONFLICT (window_start, window_end, mode, group_by) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			users = EXCLUDED.users,
			rows_count = EXCLUDED.rows_count,
			failures = EXCLUDED.failures,
			avg_performance = EXCLUDED.avg_performance,
			leave_degraded = EXCLUDED.leave_degraded,
			error = EXCLUDED.error`,
		r.ID, r.Window.Start.Time, r.Window.End.Time, string(r.Mode), string(r.GroupBy), string(r.Status),
		r.StartedAt, r.FinishedAt, r.Users, r.Rows, r.Failures, r.AvgPerformance.String(),
		r.LeaveDegraded, r.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save report run: %w", err)
	}
	return nil
}

const reportRunColumns = `id, window_start, window_end, mode, group_by, status, started_at, finished_at,
	users, rows_count, failures, avg_performance::text, leave_degraded, error`

func (s *Store) FindReportRun(ctx context.Context, window generic.Period, mode attribution.Mode, groupBy attribution.GroupBy) (*attribution.ReportRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reportRunColumns+` FROM report_runs
		WHERE window_start = $1 AND window_end = $2 AND mode = $3 AND group_by = $4`,
		window.Start.Time, window.End.Time, string(mode), string(groupBy))

	run, err := scanReportRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report run: %w", err)
	}
	return &run, nil
}

func (s *Store) ListReportRuns(ctx context.Context, limit int) ([]attribution.ReportRun, error) {
	query := `SELECT ` + reportRunColumns + ` FROM report_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer rows.Close()

	var runs []attribution.ReportRun
	for rows.Next() {
		run, err := scanReportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanReportRun(row pgx.Row) (attribution.ReportRun, error) {
	var (
		r                     attribution.ReportRun
		start, end            time.Time
		mode, groupBy, status string
		performance           string
	)
	err := row.Scan(&r.ID, &start, &end, &mode, &groupBy, &status, &r.StartedAt, &r.FinishedAt,
		&r.Users, &r.Rows, &r.Failures, &performance, &r.LeaveDegraded, &r.Error)
	if err != nil {
		return r, err
	}
	r.Window = generic.Period{Start: generic.FromTime(start), End: generic.FromTime(end)}
	r.Mode = attribution.Mode(mode)
	r.GroupBy = attribution.GroupBy(groupBy)
	r.Status = attribution.RunStatus(status)
	r.AvgPerformance = parseDecimal(performance)
	return r, nil
}

// Helper functions

func datePtr(tp *generic.TimePoint) *time.Time {
	if tp == nil {
		return nil
	}
	t := tp.Time
	return &t
}

func timePointPtr(t *time.Time) *generic.TimePoint {
	if t == nil {
		return nil
	}
	tp := generic.FromTime(*t)
	return &tp
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
