package attribution_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
	"github.com/warp/productivity-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var d = generic.MustParseDate

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func period(start, end string) generic.Period {
	return generic.Period{Start: d(start), End: d(end)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() attribution.Config {
	cfg := attribution.DefaultConfig()
	cfg.Logger = quietLogger()
	return cfg
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.New().WithClock(func() time.Time {
		return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	})
}

func addWorker(t *testing.T, s *memory.Store, id string, status attribution.WorkStatus, region string) attribution.Worker {
	t.Helper()
	w := attribution.Worker{
		ID:         id,
		Name:       "Worker " + id,
		Email:      id + "@example.com",
		WorkStatus: status,
		RegionID:   region,
	}
	require.NoError(t, s.SaveWorker(context.Background(), w))
	return w
}

func addChange(t *testing.T, s *memory.Store, workerID string, field attribution.Field, oldValue, newValue, effective string) {
	t.Helper()
	_, err := s.AppendChange(context.Background(), attribution.ChangeRecord{
		WorkerID:      workerID,
		Field:         field,
		OldValue:      oldValue,
		NewValue:      newValue,
		EffectiveDate: d(effective),
	})
	require.NoError(t, err)
}

// logWeekdays records billable/non-billable hours on every Monday-Friday of p.
func logWeekdays(t *testing.T, s *memory.Store, workerID string, p generic.Period, billable, nonBillable string, categories ...attribution.CategoryHours) {
	t.Helper()
	for _, day := range p.Dates() {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		require.NoError(t, s.SaveDailySummary(context.Background(), attribution.DailySummary{
			WorkerID:    workerID,
			Date:        day,
			Billable:    dec(billable),
			NonBillable: dec(nonBillable),
			EntryCount:  1,
			Categories:  categories,
		}))
	}
}

// =============================================================================
// FAKES
// =============================================================================

type fakeLeave struct {
	mu     sync.Mutex
	calls  int
	emails []string
	result *attribution.LeaveResult
	err    error
	block  chan struct{} // when set, Lookup waits on it and ignores ctx
}

func (f *fakeLeave) Lookup(_ context.Context, _ generic.Period, emails []string) (*attribution.LeaveResult, error) {
	f.mu.Lock()
	f.calls++
	f.emails = append([]string(nil), emails...)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeLeave) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func leaveFor(rate string, counts map[string]string) *attribution.LeaveResult {
	result := &attribution.LeaveResult{Counts: make(map[string]decimal.Decimal), HourRate: dec(rate)}
	for email, c := range counts {
		result.Counts[email] = dec(c)
	}
	return result
}

// countingStore records reads and can fail daily summaries for one worker.
type countingStore struct {
	*memory.Store

	mu          sync.Mutex
	listCalls   int
	failWorker  string
	failWithErr error
}

func (c *countingStore) ListWorkers(ctx context.Context) ([]attribution.Worker, error) {
	c.mu.Lock()
	c.listCalls++
	c.mu.Unlock()
	return c.Store.ListWorkers(ctx)
}

func (c *countingStore) DailySummaries(ctx context.Context, workerID string, from, to generic.TimePoint) ([]attribution.DailySummary, error) {
	if workerID == c.failWorker {
		if c.failWithErr != nil {
			return nil, c.failWithErr
		}
		return nil, errors.New("summary read failed")
	}
	return c.Store.DailySummaries(ctx, workerID, from, to)
}
