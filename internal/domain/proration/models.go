package proration

import (
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// MonthCredit is the credit attributable to paused days within one
// calendar month.
type MonthCredit struct {
	Month     types.MonthKey  `json:"month"`
	Days      int             `json:"days"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Credit    decimal.Decimal `json:"credit"`
}

// FullMonth reports whether the credit covers every day of its month.
func (m MonthCredit) FullMonth() bool {
	return m.Days == m.Month.Days()
}

// PauseCreditResult is the per-month breakdown of a pause credit
// calculation over an inclusive day range.
type PauseCreditResult struct {
	TotalDays   int             `json:"total_days"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Months      []MonthCredit   `json:"months"`
}

// SettlementBreakdown classifies the months overlapped by a pause range.
// Fully covered months are suppressed outright and carry no credit;
// only partial months contribute to the settlement total.
type SettlementBreakdown struct {
	SkippedMonths   []types.MonthKey `json:"skipped_months"`
	PartialMonths   []MonthCredit    `json:"partial_months"`
	TotalSettlement decimal.Decimal  `json:"total_settlement"`
}
