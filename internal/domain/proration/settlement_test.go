package proration

import (
	"testing"
	"time"

	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSettlementBreakdown_FullMonthsSuppressed(t *testing.T) {
	price := decimal.NewFromInt(100)

	// Apr 15 - Jul 16: April and July partial, May and June fully skipped.
	breakdown, err := CalculateSettlementBreakdown(day(2026, time.April, 15), day(2026, time.July, 16), price)
	require.NoError(t, err)

	assert.Equal(t, []types.MonthKey{
		{Year: 2026, Month: time.May},
		{Year: 2026, Month: time.June},
	}, breakdown.SkippedMonths)

	require.Len(t, breakdown.PartialMonths, 2)
	assert.True(t, breakdown.PartialMonths[0].Credit.Equal(decimal.NewFromFloat(53.33)))
	assert.True(t, breakdown.PartialMonths[1].Credit.Equal(decimal.NewFromFloat(51.61)))

	// Full months contribute nothing, not their monthly price.
	assert.True(t, breakdown.TotalSettlement.Equal(decimal.NewFromFloat(104.94)),
		"got %s", breakdown.TotalSettlement)
}

func TestCalculateSettlementBreakdown_SingleFullMonth(t *testing.T) {
	breakdown, err := CalculateSettlementBreakdown(day(2026, time.May, 1), day(2026, time.May, 31), decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, []types.MonthKey{{Year: 2026, Month: time.May}}, breakdown.SkippedMonths)
	assert.Empty(t, breakdown.PartialMonths)
	assert.True(t, breakdown.TotalSettlement.IsZero())
}

func TestCalculateSettlementBreakdown_PartialOnly(t *testing.T) {
	breakdown, err := CalculateSettlementBreakdown(day(2026, time.May, 10), day(2026, time.May, 19), decimal.NewFromInt(310))
	require.NoError(t, err)

	assert.Empty(t, breakdown.SkippedMonths)
	require.Len(t, breakdown.PartialMonths, 1)
	assert.Equal(t, 10, breakdown.PartialMonths[0].Days)
	assert.True(t, breakdown.TotalSettlement.Equal(decimal.NewFromInt(100)))
}

func TestCalculateSettlementBreakdown_InvalidRange(t *testing.T) {
	_, err := CalculateSettlementBreakdown(day(2026, time.May, 10), day(2026, time.May, 9), decimal.NewFromInt(100))
	require.Error(t, err)
}
