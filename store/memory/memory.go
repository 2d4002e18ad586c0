// Package memory provides an in-memory implementation of the attribution
// read and write ports (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	workers   map[string]attribution.Worker
	changes   map[changeKey][]attribution.ChangeRecord
	overrides map[string][]attribution.TargetOverride
	summaries map[string][]attribution.DailySummary // ordered by date
	runs      map[string]attribution.ReportRun

	now func() time.Time
}

type changeKey struct {
	WorkerID string
	Field    attribution.Field
}

var (
	_ attribution.Store    = (*Store)(nil)
	_ attribution.Writer   = (*Store)(nil)
	_ attribution.RunStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		workers:   make(map[string]attribution.Worker),
		changes:   make(map[changeKey][]attribution.ChangeRecord),
		overrides: make(map[string][]attribution.TargetOverride),
		summaries: make(map[string][]attribution.DailySummary),
		runs:      make(map[string]attribution.ReportRun),
		now:       time.Now,
	}
}

// WithClock replaces the clock used to decide whether a change is already
// effective.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) ListWorkers(_ context.Context) ([]attribution.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]attribution.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetWorker(_ context.Context, id string) (attribution.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workers[id]
	if !ok {
		return attribution.Worker{}, fmt.Errorf("worker %s: %w", id, generic.ErrEntityNotFound)
	}
	return w, nil
}

func (s *Store) ChangeRecords(_ context.Context, workerID string, field attribution.Field) ([]attribution.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.changes[changeKey{WorkerID: workerID, Field: field}]
	result := make([]attribution.ChangeRecord, len(recs))
	copy(result, recs)
	return result, nil
}

func (s *Store) TargetOverrides(_ context.Context, workerID string) ([]attribution.TargetOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]attribution.TargetOverride, len(s.overrides[workerID]))
	copy(result, s.overrides[workerID])
	return result, nil
}

func (s *Store) DailySummaries(_ context.Context, workerID string, from, to generic.TimePoint) ([]attribution.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []attribution.DailySummary
	for _, ds := range s.summaries[workerID] {
		if from.BeforeOrEqual(ds.Date) && ds.Date.BeforeOrEqual(to) {
			result = append(result, ds)
		}
	}
	return result, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) SaveWorker(_ context.Context, w attribution.Worker) error {
	w, err := attribution.NormalizeWorker(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = w
	return nil
}

// AppendChange appends to the worker's change log. Append-only.
func (s *Store) AppendChange(_ context.Context, rec attribution.ChangeRecord) (attribution.ChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.workers[rec.WorkerID]
	if !ok {
		return rec, fmt.Errorf("worker %s: %w", rec.WorkerID, generic.ErrEntityNotFound)
	}
	k := changeKey{WorkerID: rec.WorkerID, Field: rec.Field}
	rec, worker, applied, err := attribution.PrepareChange(worker, s.changes[k], rec, s.now(), uuid.NewString)
	if err != nil {
		return rec, err
	}

	s.changes[k] = append(s.changes[k], rec)
	if applied {
		s.workers[worker.ID] = worker
	}
	return rec, nil
}

func (s *Store) SaveOverride(_ context.Context, o attribution.TargetOverride) (attribution.TargetOverride, error) {
	o, err := attribution.NormalizeOverride(o)
	if err != nil {
		return o, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.overrides[o.WorkerID]
	for i := range list {
		if list[i].ID == o.ID {
			list[i] = o
			return o, nil
		}
	}
	s.overrides[o.WorkerID] = append(list, o)
	return o, nil
}

// SaveDailySummary inserts or replaces the summary for (worker, date).
func (s *Store) SaveDailySummary(_ context.Context, ds attribution.DailySummary) error {
	if err := attribution.ValidateDailySummary(ds); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.summaries[ds.WorkerID]
	i := sort.Search(len(list), func(i int) bool {
		return !list[i].Date.Before(ds.Date)
	})
	if i < len(list) && list[i].Date.Equal(ds.Date) {
		list[i] = ds
		return nil
	}
	list = append(list, attribution.DailySummary{})
	copy(list[i+1:], list[i:])
	list[i] = ds
	s.summaries[ds.WorkerID] = list
	return nil
}

// =============================================================================
// REPORT RUNS
// =============================================================================

func (s *Store) SaveReportRun(_ context.Context, run attribution.ReportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *Store) FindReportRun(_ context.Context, window generic.Period, mode attribution.Mode, groupBy attribution.GroupBy) (*attribution.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.Window.Start.Equal(window.Start) && run.Window.End.Equal(window.End) &&
			run.Mode == mode && run.GroupBy == groupBy {
			r := run
			return &r, nil
		}
	}
	return nil, nil
}

// ListReportRuns returns the most recent runs first.
func (s *Store) ListReportRuns(_ context.Context, limit int) ([]attribution.ReportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]attribution.ReportRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
