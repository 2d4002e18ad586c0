/*
Package factory provides JSON to Go target configuration conversion.

PURPOSE:
  Converts a JSON target configuration into attribution.RateConfig,
  attribution.Thresholds and worker-specific TargetOverrides. Weekly hour
  targets and tier thresholds change without code changes: operations edit
  the file that TARGET_CONFIG points at.

JSON SCHEMA:
  {
    "weekly_targets": {"full_time": 35, "part_time": 20},
    "thresholds": {"exceeded": 101, "meet": 99},
    "overrides": [
      {
        "id": "ovr-1",
        "worker_id": "w-42",
        "work_status": "full_time",
        "weekly_hours": 40,
        "effective_from": "2025-01-06",
        "effective_to": "2025-06-29"
      }
    ]
  }

KEY FEATURES:
  - Every section is optional; missing sections keep the defaults
  - Work status spellings are normalized ("Full-time", "FT", ...)
  - Overrides without an id get one
  - Thresholds are validated (meet <= exceeded)

USAGE:
  f := factory.NewTargetFactory()
  cfg, err := f.LoadFile("targets.json")

  engine := attribution.NewEngine(store, leave, attribution.Config{
      Rates:      cfg.Rates,
      Thresholds: cfg.Thresholds,
  })

SEE ALSO:
  - attribution/rates.go: Resolution order override -> config -> fallback
  - attribution/performance.go: Thresholds
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TargetsJSON is the JSON representation of the target configuration.
type TargetsJSON struct {
	WeeklyTargets map[string]decimal.Decimal `json:"weekly_targets,omitempty"`
	Thresholds    *ThresholdsJSON            `json:"thresholds,omitempty"`
	Overrides     []OverrideJSON             `json:"overrides,omitempty"`
}

// ThresholdsJSON represents the tier thresholds, in percent.
type ThresholdsJSON struct {
	Exceeded decimal.Decimal `json:"exceeded"`
	Meet     decimal.Decimal `json:"meet"`
}

// OverrideJSON represents a worker-specific weekly target.
type OverrideJSON struct {
	ID            string          `json:"id,omitempty"`
	WorkerID      string          `json:"worker_id"`
	WorkStatus    string          `json:"work_status"`
	WeeklyHours   decimal.Decimal `json:"weekly_hours"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   string          `json:"effective_to,omitempty"`
}

// TargetConfig is the parsed configuration.
type TargetConfig struct {
	Rates      attribution.RateConfig
	Thresholds attribution.Thresholds
	Overrides  []attribution.TargetOverride
}

// DefaultTargetConfig returns the built-in rates and thresholds with no overrides.
func DefaultTargetConfig() *TargetConfig {
	return &TargetConfig{
		Rates:      attribution.DefaultRateConfig(),
		Thresholds: attribution.DefaultThresholds(),
	}
}

// =============================================================================
// FACTORY
// =============================================================================

// TargetFactory creates target configuration from JSON.
type TargetFactory struct{}

func NewTargetFactory() *TargetFactory {
	return &TargetFactory{}
}

// LoadFile reads and parses a JSON configuration file.
func (f *TargetFactory) LoadFile(path string) (*TargetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading target config %s: %w", path, err)
	}
	return f.ParseTargets(string(data))
}

// ParseTargets parses a JSON string into a TargetConfig.
func (f *TargetFactory) ParseTargets(jsonStr string) (*TargetConfig, error) {
	var tj TargetsJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// FromJSON converts a TargetsJSON into a TargetConfig.
func (f *TargetFactory) FromJSON(tj TargetsJSON) (*TargetConfig, error) {
	cfg := DefaultTargetConfig()

	if len(tj.WeeklyTargets) > 0 {
		cfg.Rates = make(attribution.RateConfig, len(tj.WeeklyTargets))
		for raw, hours := range tj.WeeklyTargets {
			status, ok := attribution.ParseWorkStatus(raw)
			if !ok {
				return nil, fmt.Errorf("weekly_targets: unknown work status %q", raw)
			}
			if hours.IsNegative() {
				return nil, fmt.Errorf("weekly_targets: %s must not be negative", raw)
			}
			cfg.Rates[status] = hours
		}
	}

	if tj.Thresholds != nil {
		cfg.Thresholds = attribution.Thresholds{
			Exceeded: tj.Thresholds.Exceeded,
			Meet:     tj.Thresholds.Meet,
		}
		if err := cfg.Thresholds.Validate(); err != nil {
			return nil, fmt.Errorf("thresholds: %w", err)
		}
	}

	for i, oj := range tj.Overrides {
		o, err := parseOverride(oj)
		if err != nil {
			return nil, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		cfg.Overrides = append(cfg.Overrides, o)
	}

	return cfg, nil
}

// ToJSON converts a TargetConfig back to its JSON representation.
func (f *TargetFactory) ToJSON(cfg *TargetConfig) TargetsJSON {
	tj := TargetsJSON{
		WeeklyTargets: make(map[string]decimal.Decimal, len(cfg.Rates)),
		Thresholds: &ThresholdsJSON{
			Exceeded: cfg.Thresholds.Exceeded,
			Meet:     cfg.Thresholds.Meet,
		},
	}
	for status, hours := range cfg.Rates {
		tj.WeeklyTargets[string(status)] = hours
	}

	overrides := append([]attribution.TargetOverride(nil), cfg.Overrides...)
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].ID < overrides[j].ID })
	for _, o := range overrides {
		oj := OverrideJSON{
			ID:            o.ID,
			WorkerID:      o.WorkerID,
			WorkStatus:    string(o.WorkStatus),
			WeeklyHours:   o.WeeklyHours,
			EffectiveFrom: o.EffectiveFrom.String(),
		}
		if o.EffectiveTo != nil {
			oj.EffectiveTo = o.EffectiveTo.String()
		}
		tj.Overrides = append(tj.Overrides, oj)
	}
	return tj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseOverride(oj OverrideJSON) (attribution.TargetOverride, error) {
	from, err := generic.ParseDate(oj.EffectiveFrom)
	if err != nil {
		return attribution.TargetOverride{}, fmt.Errorf("effective_from: %w", err)
	}

	o := attribution.TargetOverride{
		ID:            oj.ID,
		WorkerID:      oj.WorkerID,
		WorkStatus:    attribution.WorkStatus(oj.WorkStatus),
		WeeklyHours:   oj.WeeklyHours,
		EffectiveFrom: from,
	}
	if oj.EffectiveTo != "" {
		to, err := generic.ParseDate(oj.EffectiveTo)
		if err != nil {
			return attribution.TargetOverride{}, fmt.Errorf("effective_to: %w", err)
		}
		o.EffectiveTo = &to
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	return attribution.NormalizeOverride(o)
}
