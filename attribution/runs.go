package attribution

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// RunStatus is the lifecycle state of a scheduled report run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ReportRun is the record of one scheduled report and its headline figures.
type ReportRun struct {
	ID         string
	Window     generic.Period
	Mode       Mode
	GroupBy    GroupBy
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time

	Users          int
	Rows           int
	Failures       int
	AvgPerformance decimal.Decimal
	LeaveDegraded  bool
	Error          string
}

// Complete fills the run from a finished report.
func (r *ReportRun) Complete(report *Report, at time.Time) {
	r.Status = RunCompleted
	r.FinishedAt = &at
	r.Users = report.Summary.TotalUsers
	r.Rows = len(report.Rows)
	r.Failures = len(report.Failures)
	r.AvgPerformance = report.Summary.AvgPerformance
	r.LeaveDegraded = report.LeaveDegraded
}

// Fail marks the run failed.
func (r *ReportRun) Fail(err error, at time.Time) {
	r.Status = RunFailed
	r.FinishedAt = &at
	r.Error = err.Error()
}
