package attribution

import (
	"context"

	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// READ PORTS - Everything the engine needs from the outside world
// =============================================================================
//
// Implementations: store/memory (tests), store/sqlite, store/postgres, and
// leave.Client for LeaveService. All methods must be safe for concurrent use;
// the engine calls them from its worker pool.

// WorkerSource lists the workers a report can cover.
type WorkerSource interface {
	ListWorkers(ctx context.Context) ([]Worker, error)
}

// HistorySource returns a worker's change log for one field, in any order.
type HistorySource interface {
	ChangeRecords(ctx context.Context, workerID string, field Field) ([]ChangeRecord, error)
}

// OverrideSource returns every target override ever recorded for a worker.
type OverrideSource interface {
	TargetOverrides(ctx context.Context, workerID string) ([]TargetOverride, error)
}

// DailySummarySource returns daily summaries with from <= Date <= to.
type DailySummarySource interface {
	DailySummaries(ctx context.Context, workerID string, from, to generic.TimePoint) ([]DailySummary, error)
}

// LeaveService looks up leave counts for a whole window and a set of emails
// in a single call.
type LeaveService interface {
	Lookup(ctx context.Context, window generic.Period, emails []string) (*LeaveResult, error)
}

// Store is the combined read surface provided by the store packages.
type Store interface {
	WorkerSource
	HistorySource
	OverrideSource
	DailySummarySource
}

// NoLeave is a LeaveService that reports zero leave for everyone.
type NoLeave struct{}

func (NoLeave) Lookup(context.Context, generic.Period, []string) (*LeaveResult, error) {
	return &LeaveResult{}, nil
}

// =============================================================================
// WRITE PORTS - Used by the API and the CLI, never by the engine
// =============================================================================

// Writer records HR and ingestion data. AppendChange fills in a missing ID,
// CreatedAt and OldValue, and moves the worker's current value when the
// change is already effective.
type Writer interface {
	SaveWorker(ctx context.Context, w Worker) error
	GetWorker(ctx context.Context, id string) (Worker, error)
	AppendChange(ctx context.Context, rec ChangeRecord) (ChangeRecord, error)
	SaveOverride(ctx context.Context, o TargetOverride) (TargetOverride, error)
	SaveDailySummary(ctx context.Context, s DailySummary) error
}

// RunStore persists scheduled report runs.
type RunStore interface {
	SaveReportRun(ctx context.Context, run ReportRun) error
	// FindReportRun returns nil, nil when no run exists for the window.
	FindReportRun(ctx context.Context, window generic.Period, mode Mode, groupBy GroupBy) (*ReportRun, error)
	ListReportRuns(ctx context.Context, limit int) ([]ReportRun, error)
}
