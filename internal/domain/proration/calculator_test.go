package proration

import (
	"testing"
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculatePauseCredit_SingleDay(t *testing.T) {
	price := decimal.NewFromInt(100)

	result, err := CalculatePauseCredit(day(2026, time.April, 15), day(2026, time.April, 15), price)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalDays)
	require.Len(t, result.Months, 1)
	assert.Equal(t, types.MonthKey{Year: 2026, Month: time.April}, result.Months[0].Month)
	// 100 / 30 rounded to 2dp
	assert.True(t, result.TotalCredit.Equal(decimal.NewFromFloat(3.33)), "got %s", result.TotalCredit)
}

func TestCalculatePauseCredit_InvertedRange(t *testing.T) {
	_, err := CalculatePauseCredit(day(2026, time.April, 20), day(2026, time.April, 15), decimal.NewFromInt(100))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestCalculatePauseCredit_NegativePrice(t *testing.T) {
	_, err := CalculatePauseCredit(day(2026, time.April, 1), day(2026, time.April, 5), decimal.NewFromInt(-10))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestCalculatePauseCredit_SpansMonths(t *testing.T) {
	price := decimal.NewFromInt(100)

	result, err := CalculatePauseCredit(day(2026, time.April, 15), day(2026, time.July, 16), price)
	require.NoError(t, err)

	require.Len(t, result.Months, 4)

	april := result.Months[0]
	assert.Equal(t, 16, april.Days)
	assert.True(t, april.Credit.Equal(decimal.NewFromFloat(53.33)), "april %s", april.Credit)
	assert.False(t, april.FullMonth())

	may := result.Months[1]
	assert.Equal(t, 31, may.Days)
	assert.True(t, may.Credit.Equal(decimal.NewFromInt(100)), "may %s", may.Credit)
	assert.True(t, may.FullMonth())

	june := result.Months[2]
	assert.Equal(t, 30, june.Days)
	assert.True(t, june.FullMonth())

	july := result.Months[3]
	assert.Equal(t, 16, july.Days)
	assert.True(t, july.Credit.Equal(decimal.NewFromFloat(51.61)), "july %s", july.Credit)

	assert.Equal(t, 16+31+30+16, result.TotalDays)
}

// Equal-length pauses in months of different lengths yield different
// daily rates, so the credits deliberately diverge.
func TestCalculatePauseCredit_MonthLengthDivergence(t *testing.T) {
	price := decimal.NewFromInt(100)

	// All 28 days of February 2026.
	feb, err := CalculatePauseCredit(day(2026, time.February, 1), day(2026, time.February, 28), price)
	require.NoError(t, err)
	assert.True(t, feb.TotalCredit.Equal(decimal.NewFromInt(100)), "feb %s", feb.TotalCredit)

	// 28 days carved out of 31-day March.
	mar, err := CalculatePauseCredit(day(2026, time.March, 1), day(2026, time.March, 28), price)
	require.NoError(t, err)
	assert.True(t, mar.TotalCredit.Equal(decimal.NewFromFloat(90.32)), "mar %s", mar.TotalCredit)

	assert.False(t, feb.TotalCredit.Equal(mar.TotalCredit))
}

func TestCalculatePauseCredit_LeapFebruary(t *testing.T) {
	price := decimal.NewFromInt(290)

	result, err := CalculatePauseCredit(day(2028, time.February, 1), day(2028, time.February, 29), price)
	require.NoError(t, err)
	assert.Equal(t, 29, result.TotalDays)
	assert.True(t, result.Months[0].FullMonth())
	assert.True(t, result.TotalCredit.Equal(decimal.NewFromInt(290)))
}

func TestCalculatePauseCredit_IgnoresTimeOfDay(t *testing.T) {
	price := decimal.NewFromInt(100)

	withTime, err := CalculatePauseCredit(
		time.Date(2026, time.April, 15, 23, 59, 0, 0, time.UTC),
		time.Date(2026, time.April, 20, 0, 1, 0, 0, time.UTC),
		price,
	)
	require.NoError(t, err)

	plain, err := CalculatePauseCredit(day(2026, time.April, 15), day(2026, time.April, 20), price)
	require.NoError(t, err)

	assert.Equal(t, plain.TotalDays, withTime.TotalDays)
	assert.True(t, plain.TotalCredit.Equal(withTime.TotalCredit))
}

func TestCalculatePauseCredit_NeverExceedsMonthlyPrice(t *testing.T) {
	price := decimal.NewFromFloat(33.99)

	for _, m := range []time.Month{time.January, time.February, time.April} {
		result, err := CalculatePauseCredit(day(2026, m, 1), day(2026, m, 1).AddDate(0, 1, -1), price)
		require.NoError(t, err)
		require.Len(t, result.Months, 1)
		assert.True(t, result.TotalCredit.LessThanOrEqual(price.Add(decimal.NewFromFloat(0.01))),
			"month %s credit %s", m, result.TotalCredit)
	}
}
