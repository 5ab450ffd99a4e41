package dto

import (
	"time"

	"github.com/clubroll/clubroll/internal/domain/pause"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// SchedulePauseRequest schedules a billing pause as either a fixed set of
// calendar months or an open-ended pause starting at a given month.
type SchedulePauseRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
	// Months lists the covered months in YYYY-MM form. Ignored when
	// OpenEnded is set.
	Months    []string `json:"months,omitempty"`
	OpenEnded bool     `json:"open_ended,omitempty"`
	// StartMonth is the first covered month of an open-ended pause, in
	// YYYY-MM form.
	StartMonth string              `json:"start_month,omitempty"`
	Behavior   types.PauseBehavior `json:"behavior" binding:"required"`
}

// Validate validates the schedule pause request
func (r *SchedulePauseRequest) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	if err := r.Behavior.Validate(); err != nil {
		return err
	}
	if r.OpenEnded {
		if r.StartMonth == "" {
			return ierr.NewError("start_month is required for open-ended pauses").
				WithHint("Open-ended pauses must name their first covered month").
				Mark(ierr.ErrValidation)
		}
		return nil
	}
	if len(r.Months) == 0 {
		return ierr.NewError("months is required").
			WithHint("Name at least one covered month, or set open_ended").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MonthKeys parses and returns the covered months of a fixed-set request.
func (r *SchedulePauseRequest) MonthKeys() ([]types.MonthKey, error) {
	keys := make([]types.MonthKey, 0, len(r.Months))
	for _, m := range r.Months {
		key, err := types.ParseMonthKey(m)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// PauseWindowResponse is the API shape of one pause window.
type PauseWindowResponse struct {
	ID              string                  `json:"id"`
	SubscriptionID  string                  `json:"subscription_id"`
	Kind            types.PauseWindowKind   `json:"kind"`
	PauseStatus     types.PauseWindowStatus `json:"pause_status"`
	Month           string                  `json:"month,omitempty"`
	StartDate       time.Time               `json:"start_date"`
	EndDate         *time.Time              `json:"end_date,omitempty"`
	Behavior        types.PauseBehavior     `json:"behavior"`
	CreditAmount    decimal.Decimal         `json:"credit_amount"`
	AppliedPauseAt  *time.Time              `json:"applied_pause_at,omitempty"`
	AppliedResumeAt *time.Time              `json:"applied_resume_at,omitempty"`
}

// NewPauseWindowResponse converts a pause window to its API shape.
func NewPauseWindowResponse(w *pause.Window) *PauseWindowResponse {
	resp := &PauseWindowResponse{
		ID:              w.ID,
		SubscriptionID:  w.SubscriptionID,
		Kind:            w.Kind,
		PauseStatus:     w.PauseStatus,
		StartDate:       w.StartDate,
		EndDate:         w.EndDate,
		Behavior:        w.Behavior,
		CreditAmount:    w.CreditAmount,
		AppliedPauseAt:  w.AppliedPauseAt,
		AppliedResumeAt: w.AppliedResumeAt,
	}
	if w.Kind == types.PauseWindowKindMonth {
		resp.Month = w.MonthKey().String()
	}
	return resp
}

// SchedulePauseResponse lists the windows persisted by a schedule call.
type SchedulePauseResponse struct {
	Windows []*PauseWindowResponse `json:"windows"`
}

// CancelPauseResponse reports the result of cancelling a window.
// AlreadyDone is set when the window was cancelled before this call;
// that is a success, not an error.
type CancelPauseResponse struct {
	Window       *PauseWindowResponse `json:"window"`
	CreditAmount decimal.Decimal      `json:"credit_amount"`
	AlreadyDone  bool                 `json:"already_done,omitempty"`
}

// PauseRunResult is the per-window outcome of an apply, resume or verify
// pass. Failures are recorded here and never abort the batch.
type PauseRunResult struct {
	SubscriptionID string `json:"subscription_id"`
	WindowID       string `json:"window_id,omitempty"`
	Outcome        string `json:"outcome"`
	Detail         string `json:"detail,omitempty"`
}

// Outcomes for PauseRunResult.
const (
	PauseRunOutcomeApplied     = "APPLIED"
	PauseRunOutcomeResumed     = "RESUMED"
	PauseRunOutcomeConcluded   = "CONCLUDED"
	PauseRunOutcomeFixed       = "FIXED"
	PauseRunOutcomeAlreadyDone = "ALREADY_DONE"
	PauseRunOutcomeError       = "ERROR"
)

// PauseRunResponse aggregates one scheduled pass over pause windows.
type PauseRunResponse struct {
	Month     string           `json:"month"`
	Results   []PauseRunResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// Add appends a result and updates the counters.
func (r *PauseRunResponse) Add(result PauseRunResult) {
	r.Results = append(r.Results, result)
	if result.Outcome == PauseRunOutcomeError {
		r.Failed++
		return
	}
	r.Succeeded++
}
