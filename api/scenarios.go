/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates workers, their attribute change
	history, target overrides and daily summaries for March 2025
	(Monday 2025-03-03 to Sunday 2025-03-30, four ISO weeks).

AVAILABLE SCENARIOS:

	status-change:   Part-time to full-time on 2025-03-17 (two report rows)
	region-move:     emea to apac on 2025-03-24 (predominant region stays emea)
	target-override: Full-time worker on a 40h/week individual target
	all:             Every scenario above

HOW SCENARIOS WORK:
 1. Upsert workers with their state before the window
 2. Append change records (current state moves when effective)
 3. Save overrides
 4. Save one daily summary per weekday

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "status-change"}

	POST /api/reports
	{"start_date": "2025-03-03", "end_date": "2025-03-30", "mode": "weekly"}

NOTE:

	Scenarios upsert fixed ids and never delete. Loading twice is harmless
	for workers, overrides and summaries but appends duplicate changes.
	Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Report handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the dataset to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "status-change",
		Name:        "Status Change",
		Description: "Part-time to full-time mid-month: two rows, targets 40h and 70h",
	},
	{
		ID:          "region-move",
		Name:        "Region Move",
		Description: "Relocation in the last week: reported under the predominant region",
	},
	{
		ID:          "target-override",
		Name:        "Target Override",
		Description: "Worker-specific 40h/week target instead of the full-time default",
	},
	{
		ID:          "all",
		Name:        "All Scenarios",
		Description: "Every demo worker",
	},
}

// ScenarioWindow is the report window every scenario is built for.
var ScenarioWindow = generic.Period{
	Start: generic.MustParseDate("2025-03-03"),
	End:   generic.MustParseDate("2025-03-30"),
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a demo dataset into the store.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := LoadScenario(r.Context(), h.Store, req.ScenarioID); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "loaded",
		"scenario":   req.ScenarioID,
		"start_date": ScenarioWindow.Start.String(),
		"end_date":   ScenarioWindow.End.String(),
	})
}

// LoadScenario writes the named dataset through store.
func LoadScenario(ctx context.Context, store attribution.Writer, id string) error {
	switch id {
	case "status-change":
		return loadStatusChangeScenario(ctx, store)
	case "region-move":
		return loadRegionMoveScenario(ctx, store)
	case "target-override":
		return loadTargetOverrideScenario(ctx, store)
	case "all":
		for _, load := range []func(context.Context, attribution.Writer) error{
			loadStatusChangeScenario,
			loadRegionMoveScenario,
			loadTargetOverrideScenario,
		} {
			if err := load(ctx, store); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scenario %q", generic.ErrInvalidInput, id)
	}
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadStatusChangeScenario(ctx context.Context, store attribution.Writer) error {
	hire := generic.MustParseDate("2024-09-02")
	if err := store.SaveWorker(ctx, attribution.Worker{
		ID:         "demo-ana",
		Name:       "Ana Demo",
		Email:      "ana.demo@example.com",
		WorkStatus: attribution.StatusPartTime,
		RegionID:   "emea",
		HireDate:   &hire,
	}); err != nil {
		return err
	}

	if _, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "demo-ana",
		Field:         attribution.FieldWorkStatus,
		OldValue:      string(attribution.StatusPartTime),
		NewValue:      string(attribution.StatusFullTime),
		EffectiveDate: generic.MustParseDate("2025-03-17"),
		Reason:        "contract change",
	}); err != nil {
		return err
	}

	// 4h/day while part-time, 7h/day once full-time
	return seedWeekdays(ctx, store, "demo-ana", ScenarioWindow, func(day generic.TimePoint) dayLog {
		if day.Before(generic.MustParseDate("2025-03-17")) {
			return dayLog{billable: "4", entries: 2, category: "support"}
		}
		return dayLog{billable: "7", entries: 4, category: "support"}
	})
}

func loadRegionMoveScenario(ctx context.Context, store attribution.Writer) error {
	if err := store.SaveWorker(ctx, attribution.Worker{
		ID:         "demo-ben",
		Name:       "Ben Demo",
		Email:      "ben.demo@example.com",
		WorkStatus: attribution.StatusFullTime,
		RegionID:   "emea",
	}); err != nil {
		return err
	}

	if _, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "demo-ben",
		Field:         attribution.FieldRegion,
		OldValue:      "emea",
		NewValue:      "apac",
		EffectiveDate: generic.MustParseDate("2025-03-24"),
		Reason:        "relocation",
	}); err != nil {
		return err
	}

	return seedWeekdays(ctx, store, "demo-ben", ScenarioWindow, func(generic.TimePoint) dayLog {
		return dayLog{billable: "6.5", nonBillable: "0.5", entries: 3, category: "development"}
	})
}

func loadTargetOverrideScenario(ctx context.Context, store attribution.Writer) error {
	if err := store.SaveWorker(ctx, attribution.Worker{
		ID:         "demo-cleo",
		Name:       "Cleo Demo",
		Email:      "cleo.demo@example.com",
		WorkStatus: attribution.StatusFullTime,
		RegionID:   "amer",
	}); err != nil {
		return err
	}

	if _, err := store.SaveOverride(ctx, attribution.TargetOverride{
		ID:            "demo-cleo-40h",
		WorkerID:      "demo-cleo",
		WorkStatus:    attribution.StatusFullTime,
		WeeklyHours:   decimal.NewFromInt(40),
		EffectiveFrom: generic.MustParseDate("2025-01-06"),
	}); err != nil {
		return err
	}

	return seedWeekdays(ctx, store, "demo-cleo", ScenarioWindow, func(generic.TimePoint) dayLog {
		return dayLog{billable: "8", entries: 5, category: "consulting"}
	})
}

// =============================================================================
// HELPERS
// =============================================================================

type dayLog struct {
	billable    string
	nonBillable string
	entries     int
	category    string
}

// seedWeekdays saves one summary per Monday-Friday of window.
func seedWeekdays(ctx context.Context, store attribution.Writer, workerID string, window generic.Period, logFor func(generic.TimePoint) dayLog) error {
	for _, day := range window.Dates() {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		l := logFor(day)
		billable := decimal.RequireFromString(l.billable)
		nonBillable := decimal.Zero
		if l.nonBillable != "" {
			nonBillable = decimal.RequireFromString(l.nonBillable)
		}

		if err := store.SaveDailySummary(ctx, attribution.DailySummary{
			WorkerID:    workerID,
			Date:        day,
			Billable:    billable,
			NonBillable: nonBillable,
			EntryCount:  l.entries,
			Categories: []attribution.CategoryHours{
				{ID: l.category, Name: l.category, Hours: billable.Add(nonBillable)},
			},
		}); err != nil {
			return fmt.Errorf("seeding %s on %s: %w", workerID, day, err)
		}
	}
	return nil
}
