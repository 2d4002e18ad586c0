package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/productivity-engine/attribution"
)

func TestClassify_OnTarget(t *testing.T) {
	perf := attribution.DefaultThresholds().Classify(dec("35"), dec("35"))

	assertDecimal(t, "100", perf.Percentage)
	assert.Equal(t, attribution.TierMeet, perf.Tier)
}

func TestClassify_ZeroTarget_ZeroPercent(t *testing.T) {
	perf := attribution.DefaultThresholds().Classify(dec("0"), dec("0"))

	assertDecimal(t, "0", perf.Percentage)
	assert.Equal(t, attribution.TierBelow, perf.Tier)
}

func TestTierFor_Boundaries(t *testing.T) {
	thresholds := attribution.DefaultThresholds()

	tests := []struct {
		pct  string
		want attribution.Tier
	}{
		{"0", attribution.TierBelow},
		{"98.99", attribution.TierBelow},
		{"99", attribution.TierMeet},
		{"100.99", attribution.TierMeet},
		{"101", attribution.TierExceeded},
		{"250", attribution.TierExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, thresholds.TierFor(dec(tt.pct)))
		})
	}
}

func TestClassify_TierUsesUnroundedPercentage(t *testing.T) {
	// 98.96% displays as 99.0 but is still BELOW
	perf := attribution.DefaultThresholds().Classify(dec("98.96"), dec("100"))

	assert.Equal(t, attribution.TierBelow, perf.Tier)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, attribution.DefaultThresholds().Validate())
	assert.Error(t, attribution.Thresholds{Exceeded: dec("90"), Meet: dec("95")}.Validate())
	assert.Error(t, attribution.Thresholds{Exceeded: dec("90"), Meet: dec("-1")}.Validate())
}
