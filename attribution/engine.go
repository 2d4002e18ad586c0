/*
engine.go - Report orchestration

PURPOSE:
  The single entry point every report surface calls. Weekly, monthly,
  yearly, region and overall views differ only in the request; the
  attribution algorithm runs once, here.

FLOW:
  1. Validate the request (fail fast, nothing is read on error)
  2. List workers, apply the worker-id pre-filter and the employment filter
  3. One leave lookup for the whole window and every email
  4. Build every worker concurrently on a bounded pool
  5. Apply the region post-filter, group, summarize

DEGRADATION:
  - Leave service failure or timeout: zero NAD for everyone,
    Report.LeaveDegraded is set
  - History gaps and missing rate configuration: logged, rows still built
  - A worker whose build fails contributes no rows and is listed in
    Report.Failures; totals only include built workers

SEE ALSO:
  - row.go: Per-worker computation
  - summary.go: Group reduction
*/
package attribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/warp/productivity-engine/generic"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// REQUEST
// =============================================================================

// Mode selects the report surface.
type Mode string

const (
	ModeWeekly  Mode = "weekly"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
)

func (m Mode) Valid() bool {
	return m == ModeWeekly || m == ModeMonthly || m == ModeYearly
}

// WeekAligned reports whether windows for this mode must run Monday to Sunday.
func (m Mode) WeekAligned() bool {
	return m == ModeWeekly || m == ModeMonthly
}

// BucketType is the trend bucket size for the mode.
func (m Mode) BucketType() generic.BucketType {
	switch m {
	case ModeMonthly:
		return generic.BucketMonth
	case ModeYearly:
		return generic.BucketYear
	default:
		return generic.BucketWeek
	}
}

// GroupBy selects how workers are bucketed in the summary.
type GroupBy string

const (
	GroupByRegion  GroupBy = "region"
	GroupByOverall GroupBy = "overall"
)

const (
	// OverallGroup is the single group key of an overall report.
	OverallGroup = "overall"

	// UnassignedRegion is the group key for workers with no region history.
	UnassignedRegion = "unassigned"
)

// ReportRequest describes one report.
type ReportRequest struct {
	Window  generic.Period
	Mode    Mode
	GroupBy GroupBy

	// RegionFilter keeps only workers whose predominant region matches.
	RegionFilter string

	// WorkerIDs restricts the report to these workers when non-empty.
	WorkerIDs []string
}

// Validate checks the window against the mode. maxDays <= 0 disables the
// length check.
func (r ReportRequest) Validate(maxDays int) error {
	invalid := func(reason string) error {
		return &InvalidWindowError{Window: r.Window, Mode: r.Mode, Reason: reason}
	}

	if !r.Mode.Valid() {
		return invalid(fmt.Sprintf("unknown mode %q", r.Mode))
	}
	if r.GroupBy != GroupByRegion && r.GroupBy != GroupByOverall {
		return invalid(fmt.Sprintf("unknown grouping %q", r.GroupBy))
	}
	if r.Window.Start.IsZero() || r.Window.End.IsZero() {
		return invalid("start and end dates are required")
	}
	if r.Window.End.Before(r.Window.Start) {
		return invalid("end date is before start date")
	}
	if r.Mode.WeekAligned() {
		if !r.Window.Start.IsMonday() {
			return invalid("start date must be a Monday")
		}
		if !r.Window.End.IsSunday() {
			return invalid("end date must be a Sunday")
		}
	}
	if maxDays > 0 && r.Window.Days() > maxDays {
		return invalid(fmt.Sprintf("window spans %d days, limit is %d", r.Window.Days(), maxDays))
	}
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// Config tunes the engine. Zero values are replaced by DefaultConfig values.
type Config struct {
	Rates         RateConfig
	Thresholds    Thresholds
	Workers       int           // concurrent worker builds
	LeaveTimeout  time.Duration // bound on the single leave lookup
	MaxWindowDays int
	Logger        *slog.Logger
}

// DefaultConfig returns the default rates and thresholds, 8 concurrent
// builds, a 10 second leave timeout and a 400 day window limit.
func DefaultConfig() Config {
	return Config{
		Rates:         DefaultRateConfig(),
		Thresholds:    DefaultThresholds(),
		Workers:       8,
		LeaveTimeout:  10 * time.Second,
		MaxWindowDays: 400,
		Logger:        slog.Default(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Rates == nil {
		c.Rates = d.Rates
	}
	if c.Thresholds.Exceeded.IsZero() && c.Thresholds.Meet.IsZero() {
		c.Thresholds = d.Thresholds
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.LeaveTimeout <= 0 {
		c.LeaveTimeout = d.LeaveTimeout
	}
	if c.MaxWindowDays == 0 {
		c.MaxWindowDays = d.MaxWindowDays
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// =============================================================================
// REPORT
// =============================================================================

// Group is one bucket of a report: a region, or the whole organization.
type Group struct {
	Key        string
	Rows       []ReportRow
	Summary    GroupSummary
	FullTime   GroupSummary
	PartTime   GroupSummary
	Categories []CategorySummary
}

// Report is the engine output. Pure data; rounding happens at the edges.
type Report struct {
	Window  generic.Period
	Mode    Mode
	GroupBy GroupBy

	Rows       []ReportRow
	Groups     []Group
	Summary    GroupSummary
	Categories []CategorySummary

	Failures      []WorkerFailure
	Skipped       int // workers not employed during the window
	Gaps          []*DataGapError
	LeaveDegraded bool
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine generates reports from injected sources.
type Engine struct {
	store  Store
	leave  LeaveService
	config Config
	logger *slog.Logger
}

// NewEngine creates an engine. A nil leave service means no leave data.
func NewEngine(store Store, leave LeaveService, config Config) *Engine {
	config = config.withDefaults()
	if leave == nil {
		leave = NoLeave{}
	}
	return &Engine{
		store:  store,
		leave:  leave,
		config: config,
		logger: config.Logger.With(slog.String("component", "attribution")),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Report validates req and generates the report.
func (e *Engine) Report(ctx context.Context, req ReportRequest) (*Report, error) {
	if err := req.Validate(e.config.MaxWindowDays); err != nil {
		return nil, err
	}
	return e.generate(ctx, req)
}

// Trend validates req and generates one report per mode bucket: ISO weeks
// for weekly, calendar months for monthly, calendar years for yearly.
// Buckets are clipped to the window, so a monthly trend over a
// Monday-Sunday window has partial first and last months.
func (e *Engine) Trend(ctx context.Context, req ReportRequest) ([]*Report, error) {
	if err := req.Validate(e.config.MaxWindowDays); err != nil {
		return nil, err
	}

	buckets := req.Window.Buckets(req.Mode.BucketType())
	reports := make([]*Report, 0, len(buckets))
	for _, bucket := range buckets {
		sub := req
		sub.Window = bucket
		report, err := e.generate(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("trend bucket %s: %w", bucket, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (e *Engine) generate(ctx context.Context, req ReportRequest) (*Report, error) {
	started := time.Now()
	report := &Report{Window: req.Window, Mode: req.Mode, GroupBy: req.GroupBy}

	// 1. Workers in scope
	workers, err := e.store.ListWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing workers: %w", err)
	}
	workers = filterByID(workers, req.WorkerIDs)

	active := workers[:0:0]
	for _, w := range workers {
		if !w.ActiveDuring(req.Window) {
			report.Skipped++
			continue
		}
		active = append(active, w)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	// 2. One leave lookup for everyone
	leave, err := e.lookupLeave(ctx, req.Window, active)
	if err != nil {
		report.LeaveDegraded = true
		e.logger.Warn("leave lookup failed, reporting zero NAD",
			slog.String("window", req.Window.String()),
			slog.Any("error", err))
		leave = nil
	}

	// 3. Build concurrently
	builder := &RowBuilder{
		History:    e.store,
		Overrides:  e.store,
		Metrics:    MetricsAggregator{Source: e.store},
		Rates:      e.config.Rates,
		Thresholds: e.config.Thresholds,
	}

	results := make([]*WorkerReport, len(active))
	failures := make([]error, len(active))

	var g errgroup.Group
	g.SetLimit(e.config.Workers)
	for i, w := range active {
		g.Go(func() error {
			wr, err := builder.Build(ctx, w, req.Window, leave)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = wr
			return nil
		})
	}
	_ = g.Wait()

	// 4. Collect, post-filter
	missingLogged := make(map[WorkStatus]bool)
	var built []*WorkerReport
	for i, wr := range results {
		if failures[i] != nil {
			e.logger.Error("worker report failed",
				slog.String("worker_id", active[i].ID),
				slog.Any("error", failures[i]))
			report.Failures = append(report.Failures, WorkerFailure{WorkerID: active[i].ID, Error: failures[i].Error()})
			continue
		}

		for _, gap := range wr.Gaps {
			e.logger.Warn("history gap", slog.String("worker_id", gap.WorkerID), slog.String("detail", gap.Error()))
		}
		report.Gaps = append(report.Gaps, wr.Gaps...)

		for _, m := range wr.Missing {
			if !missingLogged[m.Status] {
				missingLogged[m.Status] = true
				e.logger.Warn("target configuration missing", slog.String("status", string(m.Status)), slog.String("fallback", m.Fallback))
			}
		}

		if req.RegionFilter != "" && regionKey(wr.Region) != req.RegionFilter {
			continue
		}
		built = append(built, wr)
	}

	// 5. Group and summarize
	groups := make(map[string][]ReportRow)
	for _, wr := range built {
		key := OverallGroup
		if req.GroupBy == GroupByRegion {
			key = regionKey(wr.Region)
		}
		groups[key] = append(groups[key], wr.Rows...)
		report.Rows = append(report.Rows, wr.Rows...)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		report.Groups = append(report.Groups, e.summarizeGroup(k, groups[k]))
	}

	report.Summary = Summarize(report.Rows, e.config.Thresholds)
	report.Categories = SummarizeCategories(report.Rows)

	e.logger.Info("report generated",
		slog.String("window", req.Window.String()),
		slog.String("mode", string(req.Mode)),
		slog.String("group_by", string(req.GroupBy)),
		slog.Int("workers", len(built)),
		slog.Int("rows", len(report.Rows)),
		slog.Int("failures", len(report.Failures)),
		slog.Int("skipped", report.Skipped),
		slog.Bool("leave_degraded", report.LeaveDegraded),
		slog.Duration("duration", time.Since(started)))

	return report, nil
}

// regionKey is the group and filter key of a predominant region.
func regionKey(region string) string {
	if region == "" {
		return UnassignedRegion
	}
	return region
}

func (e *Engine) summarizeGroup(key string, rows []ReportRow) Group {
	fullTime, partTime := SplitByStatus(rows)
	return Group{
		Key:        key,
		Rows:       rows,
		Summary:    Summarize(rows, e.config.Thresholds),
		FullTime:   Summarize(fullTime, e.config.Thresholds),
		PartTime:   Summarize(partTime, e.config.Thresholds),
		Categories: SummarizeCategories(rows),
	}
}

// lookupLeave calls the leave service once, bounded by LeaveTimeout even if
// the service ignores its context.
func (e *Engine) lookupLeave(ctx context.Context, window generic.Period, workers []Worker) (*LeaveResult, error) {
	seen := make(map[string]bool)
	var emails []string
	for _, w := range workers {
		email := NormalizeEmail(w.Email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	if len(emails) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.LeaveTimeout)
	defer cancel()

	type answer struct {
		result *LeaveResult
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		result, err := e.leave.Lookup(ctx, window, emails)
		done <- answer{result, err}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			var ext *ExternalServiceError
			if errors.As(a.err, &ext) {
				return nil, a.err
			}
			return nil, &ExternalServiceError{Service: "leave", Err: a.err}
		}
		return a.result, nil
	case <-ctx.Done():
		return nil, &ExternalServiceError{Service: "leave", Err: ctx.Err()}
	}
}

func filterByID(workers []Worker, ids []string) []Worker {
	if len(ids) == 0 {
		return workers
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var out []Worker
	for _, w := range workers {
		if keep[w.ID] {
			out = append(out, w)
		}
	}
	return out
}
