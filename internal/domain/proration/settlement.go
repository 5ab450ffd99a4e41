package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculateSettlementBreakdown classifies the months overlapped by an
// inclusive pause range. A month whose paused-day overlap equals its
// full day count is skipped, billing for it is suppressed entirely and
// it contributes nothing to settlement. Partial months are credited at
// that month's daily rate. The settlement total is the sum of partial
// credits only.
func CalculateSettlementBreakdown(start, end time.Time, monthlyPrice decimal.Decimal) (*SettlementBreakdown, error) {
	credit, err := CalculatePauseCredit(start, end, monthlyPrice)
	if err != nil {
		return nil, err
	}

	breakdown := &SettlementBreakdown{
		TotalSettlement: decimal.Zero,
	}

	for _, mc := range credit.Months {
		if mc.FullMonth() {
			breakdown.SkippedMonths = append(breakdown.SkippedMonths, mc.Month)
			continue
		}
		breakdown.PartialMonths = append(breakdown.PartialMonths, mc)
		breakdown.TotalSettlement = breakdown.TotalSettlement.Add(mc.Credit)
	}

	breakdown.TotalSettlement = breakdown.TotalSettlement.Round(2)
	return breakdown, nil
}
