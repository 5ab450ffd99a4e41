package pause

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// Window is a scheduled billing suspension. Concrete windows cover one
// calendar month each; an open-ended master covers every month from its
// start until cancelled and is materialized into concrete rows one month
// ahead of the apply pass. A concrete row always overrides a master for
// its month.
type Window struct {
	ID             string                  `db:"id" json:"id"`
	SubscriptionID string                  `db:"subscription_id" json:"subscription_id"`
	Kind           types.PauseWindowKind   `db:"kind" json:"kind"`
	PauseStatus    types.PauseWindowStatus `db:"pause_status" json:"pause_status"`
	// Year and Month key the covered calendar month. Zero on open-ended
	// masters, which have no fixed month.
	Year  int        `db:"year" json:"year"`
	Month time.Month `db:"month" json:"month"`
	// StartDate is the first suppressed day. For concrete windows this is
	// within the keyed month; for masters it anchors the coverage range.
	StartDate time.Time `db:"start_date" json:"start_date"`
	// EndDate is the last suppressed day, nil on open-ended masters.
	EndDate  *time.Time          `db:"end_date" json:"end_date,omitempty"`
	Behavior types.PauseBehavior `db:"behavior" json:"behavior"`
	// MasterID links a materialized concrete row back to its master.
	MasterID *string `db:"master_id" json:"master_id,omitempty"`
	// CreditAmount is the partial credit recorded when an active window is
	// cancelled mid-month. Zero otherwise.
	CreditAmount    decimal.Decimal `db:"credit_amount" json:"credit_amount"`
	AppliedPauseAt  *time.Time      `db:"applied_pause_at" json:"applied_pause_at,omitempty"`
	AppliedResumeAt *time.Time      `db:"applied_resume_at" json:"applied_resume_at,omitempty"`

	types.BaseModel
}

// Validate validates the pause window
func (w *Window) Validate() error {
	if w.SubscriptionID == "" {
		return ierr.NewError("invalid subscription id").
			WithHint("Subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if err := w.Kind.Validate(); err != nil {
		return err
	}
	if err := w.PauseStatus.Validate(); err != nil {
		return err
	}
	if err := w.Behavior.Validate(); err != nil {
		return err
	}
	switch w.Kind {
	case types.PauseWindowKindMonth:
		if w.Year == 0 || w.Month == 0 {
			return ierr.NewError("concrete window missing month key").
				WithHint("Concrete pause windows must name a calendar month").
				Mark(ierr.ErrValidation)
		}
		if w.EndDate == nil {
			return ierr.NewError("concrete window missing end date").
				WithHint("Concrete pause windows must have an end date").
				Mark(ierr.ErrValidation)
		}
		if w.EndDate.Before(w.StartDate) {
			return ierr.NewError("window end precedes start").
				WithHint("Pause end date must not be before the start date").
				Mark(ierr.ErrValidation)
		}
	case types.PauseWindowKindOpenEnded:
		if w.EndDate != nil {
			return ierr.NewError("open-ended window has end date").
				WithHint("Open-ended pause windows must not have an end date").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// MonthKey returns the calendar month a concrete window covers.
func (w *Window) MonthKey() types.MonthKey {
	return types.MonthKey{Year: w.Year, Month: w.Month}
}

// Covers reports whether the window suppresses billing for the given
// month. Open-ended masters cover every month from their start onward.
func (w *Window) Covers(k types.MonthKey) bool {
	if w.Kind == types.PauseWindowKindOpenEnded {
		return !k.Before(types.MonthKeyFor(w.StartDate))
	}
	return w.MonthKey().Equal(k)
}

// IsCancellable reports whether the window may still be cancelled.
// Windows that already had their credit applied are final.
func (w *Window) IsCancellable() bool {
	return w.PauseStatus == types.PauseWindowStatusScheduled ||
		w.PauseStatus == types.PauseWindowStatusActive
}

func (w *Window) TableName() string {
	return "pause_windows"
}
