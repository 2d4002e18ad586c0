/*
scheduler.go - Automated weekly report snapshots

PURPOSE:
  Periodically generates the report for the last closed ISO week and
  records its headline figures as a report run, so weekly numbers are
  captured even when nobody asks for them.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The target window is Monday..Sunday of the week before today
  - Skips windows that already have a completed run
  - A failed or interrupted run is retried on the next tick
  - Records every run (running -> completed / failed) for audit

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)
  - GroupBy: Grouping of the stored report (default: region)

USAGE:
  scheduler := NewReportScheduler(engine, store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ListReportRuns endpoint
  - attribution/runs.go: ReportRun
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// ReportScheduler stores a weekly report snapshot for every closed week.
type ReportScheduler struct {
	Engine        *attribution.Engine
	Runs          attribution.RunStore
	CheckInterval time.Duration
	Enabled       bool
	GroupBy       attribution.GroupBy
	Logger        *slog.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReportScheduler creates a new scheduler.
func NewReportScheduler(engine *attribution.Engine, runs attribution.RunStore, logger *slog.Logger) *ReportScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportScheduler{
		Engine:        engine,
		Runs:          runs,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		GroupBy:       attribution.GroupByRegion,
		Logger:        logger.With(slog.String("component", "scheduler")),
		now:           time.Now,
	}
}

// WithClock replaces the clock used to pick the last closed week.
func (rs *ReportScheduler) WithClock(now func() time.Time) *ReportScheduler {
	rs.now = now
	return rs
}

// Start begins the scheduler.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("scheduler disabled, not starting")
		return
	}

	if rs.ticker != nil {
		return
	}

	// a fresh channel per start; Stop closes the previous one
	rs.stop = make(chan struct{})
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("scheduler started", slog.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("scheduler stopped")
	}
}

func (rs *ReportScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	rs.tick(ctx)

	for {
		select {
		case <-ticker.C:
			rs.tick(ctx)
		case <-stop:
			return
		}
	}
}

func (rs *ReportScheduler) tick(ctx context.Context) {
	if _, err := rs.RunNow(ctx); err != nil {
		rs.Logger.Error("weekly snapshot failed", slog.Any("error", err))
	}
}

// LastClosedWeek returns Monday..Sunday of the week before the one
// containing now.
func LastClosedWeek(now time.Time) generic.Period {
	thisMonday := generic.StartOfISOWeek(generic.FromTime(now))
	return generic.Period{Start: thisMonday.AddDays(-7), End: thisMonday.AddDays(-1)}
}

// RunNow snapshots the last closed week unless it is already recorded. It
// returns the stored run, or nil when the week was already completed.
func (rs *ReportScheduler) RunNow(ctx context.Context) (*attribution.ReportRun, error) {
	week := LastClosedWeek(rs.now())
	log := rs.Logger.With(slog.String("window", week.String()))

	existing, err := rs.Runs.FindReportRun(ctx, week, attribution.ModeWeekly, rs.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("checking report run for %s: %w", week, err)
	}
	if existing != nil && existing.Status == attribution.RunCompleted {
		log.Debug("weekly snapshot already recorded")
		return nil, nil
	}

	run := attribution.ReportRun{
		ID:        uuid.NewString(),
		Window:    week,
		Mode:      attribution.ModeWeekly,
		GroupBy:   rs.GroupBy,
		Status:    attribution.RunRunning,
		StartedAt: rs.now().UTC(),
	}
	if existing != nil {
		run.ID = existing.ID
	}
	if err := rs.Runs.SaveReportRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run record: %w", err)
	}

	report, err := rs.Engine.Report(ctx, attribution.ReportRequest{
		Window:  week,
		Mode:    attribution.ModeWeekly,
		GroupBy: rs.GroupBy,
	})
	if err != nil {
		run.Fail(err, rs.now().UTC())
		if saveErr := rs.Runs.SaveReportRun(ctx, run); saveErr != nil {
			log.Error("failed to record failed run", slog.Any("error", saveErr))
		}
		return &run, err
	}

	run.Complete(report, rs.now().UTC())
	if err := rs.Runs.SaveReportRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update run record: %w", err)
	}

	log.Info("weekly snapshot recorded",
		slog.Int("users", run.Users),
		slog.Int("rows", run.Rows),
		slog.Int("failures", run.Failures),
		slog.String("avg_performance", run.AvgPerformance.StringFixed(1)),
		slog.Bool("leave_degraded", run.LeaveDegraded),
	)
	return &run, nil
}

// NextRunTime returns when the next scheduled check will occur.
func (rs *ReportScheduler) NextRunTime() time.Time {
	return rs.now().Add(rs.CheckInterval)
}
