package proration

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// CalculatePauseCredit computes the credit for an inclusive pause range
// at the given monthly price. The range is split by calendar month and
// each month uses its own daily rate, monthlyPrice divided by the number
// of days in that month. Per-month credits are rounded to 2 decimals
// before summing.
func CalculatePauseCredit(start, end time.Time, monthlyPrice decimal.Decimal) (*PauseCreditResult, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)

	if end.Before(start) {
		return nil, ierr.NewError("pause range end precedes start").
			WithHint("Pause end date must not be before the start date").
			WithReportableDetails(map[string]any{
				"start": start.Format(time.DateOnly),
				"end":   end.Format(time.DateOnly),
			}).
			Mark(ierr.ErrValidation)
	}

	if monthlyPrice.IsNegative() {
		return nil, ierr.NewError("negative monthly price").
			WithHint("Monthly price must be zero or positive").
			WithReportableDetails(map[string]any{
				"monthly_price": monthlyPrice,
			}).
			Mark(ierr.ErrValidation)
	}

	result := &PauseCreditResult{
		TotalCredit: decimal.Zero,
	}

	for _, month := range types.MonthKeysInRange(start, end) {
		days := overlapDays(start, end, month)
		if days == 0 {
			continue
		}

		dailyRate := monthlyPrice.Div(decimal.NewFromInt(int64(month.Days())))
		credit := dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2)

		result.Months = append(result.Months, MonthCredit{
			Month:     month,
			Days:      days,
			DailyRate: dailyRate,
			Credit:    credit,
		})
		result.TotalDays += days
		result.TotalCredit = result.TotalCredit.Add(credit)
	}

	result.TotalCredit = result.TotalCredit.Round(2)
	return result, nil
}

// overlapDays counts the days of the inclusive range [start, end] that
// fall within the given month.
func overlapDays(start, end time.Time, month types.MonthKey) int {
	from := start
	if month.Start().After(from) {
		from = month.Start()
	}
	to := end
	if month.End().Before(to) {
		to = month.End()
	}
	if to.Before(from) {
		return 0
	}
	return to.Day() - from.Day() + 1
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
