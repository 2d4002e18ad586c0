package generic

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func period(start, end string) Period {
	return Period{Start: MustParseDate(start), End: MustParseDate(end)}
}

func TestPeriod_Days(t *testing.T) {
	assert.Equal(t, 28, period("2025-03-03", "2025-03-30").Days())
	assert.Equal(t, 1, period("2025-03-03", "2025-03-03").Days())
	assert.Equal(t, 0, period("2025-03-04", "2025-03-03").Days())
	// leap day
	assert.Equal(t, 29, period("2024-02-01", "2024-02-29").Days())
}

func TestNewPeriod_RejectsInverted(t *testing.T) {
	_, err := NewPeriod(MustParseDate("2025-03-04"), MustParseDate("2025-03-03"))

	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.True(t, IsClientError(err))
}

func TestPeriod_WeeksClippedToBounds(t *testing.T) {
	// GIVEN: A sub-period from Wednesday to the Tuesday after next
	// WHEN: Its ISO weeks are enumerated
	// THEN: The first and last weeks are clipped

	var weeks []Period
	for w := range period("2025-03-05", "2025-03-18").Weeks() {
		weeks = append(weeks, w)
	}

	require.Len(t, weeks, 3)
	assert.Equal(t, "[2025-03-05, 2025-03-09]", weeks[0].String())
	assert.Equal(t, "[2025-03-10, 2025-03-16]", weeks[1].String())
	assert.Equal(t, "[2025-03-17, 2025-03-18]", weeks[2].String())
}

func TestPeriod_Buckets(t *testing.T) {
	window := period("2024-12-30", "2025-03-02")

	tests := []struct {
		name  string
		bt    BucketType
		first string
		last  string
		count int
	}{
		{"weeks", BucketWeek, "[2024-12-30, 2025-01-05]", "[2025-02-24, 2025-03-02]", 9},
		{"months", BucketMonth, "[2024-12-30, 2024-12-31]", "[2025-03-01, 2025-03-02]", 4},
		{"years", BucketYear, "[2024-12-30, 2024-12-31]", "[2025-01-01, 2025-03-02]", 2},
		{"unknown", BucketType("quarter"), "[2024-12-30, 2025-03-02]", "[2024-12-30, 2025-03-02]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := window.Buckets(tt.bt)

			require.Len(t, buckets, tt.count)
			assert.Equal(t, tt.first, buckets[0].String())
			assert.Equal(t, tt.last, buckets[len(buckets)-1].String())

			days := 0
			for _, b := range buckets {
				days += b.Days()
			}
			assert.Equal(t, window.Days(), days)
		})
	}
}

func TestPeriod_Intersect(t *testing.T) {
	got, ok := period("2025-03-01", "2025-03-20").Intersect(period("2025-03-10", "2025-04-01"))
	require.True(t, ok)
	assert.Equal(t, "[2025-03-10, 2025-03-20]", got.String())

	_, ok = period("2025-03-01", "2025-03-09").Intersect(period("2025-03-10", "2025-04-01"))
	assert.False(t, ok)
}

func TestStartOfISOWeek(t *testing.T) {
	assert.Equal(t, "2025-03-03", StartOfISOWeek(MustParseDate("2025-03-09")).String())
	assert.Equal(t, "2025-03-03", StartOfISOWeek(MustParseDate("2025-03-03")).String())
	assert.Equal(t, "2024-12-30", StartOfISOWeek(MustParseDate("2025-01-01")).String())
	assert.True(t, period("2025-03-03", "2025-03-30").IsWeekAligned())
	assert.False(t, period("2025-03-04", "2025-03-30").IsWeekAligned())
}

func TestDecimalHelpers(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(SafeDiv(decimal.NewFromInt(5), decimal.Zero)))
	assert.True(t, decimal.NewFromInt(50).Equal(Percent(decimal.NewFromInt(10), decimal.NewFromInt(20))))
	assert.True(t, decimal.NewFromInt(2).Equal(Weeks(14)))

	assert.Equal(t, 15.0, RoundHours(decimal.NewFromInt(35).Mul(Weeks(3))))
	assert.Equal(t, 99.9, RoundPercent(decimal.RequireFromString("99.94")))
	assert.Equal(t, 100.0, RoundPercent(decimal.RequireFromString("99.95")))
}
