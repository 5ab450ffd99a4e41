package dto

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// ReconcileRequest triggers a reconciliation pass over every
// subscription of one processor account.
type ReconcileRequest struct {
	AccountKey string `json:"account_key" binding:"required"`
}

// Validate validates the reconcile request
func (r *ReconcileRequest) Validate() error {
	if r.AccountKey == "" {
		return ierr.NewError("account_key is required").
			WithHint("Name the processor account to reconcile").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ReconcileResult is the per-subscription outcome of a reconciliation
// pass.
type ReconcileResult struct {
	SubscriptionID string                 `json:"subscription_id"`
	Outcome        types.ReconcileOutcome `json:"outcome"`
	// FromStatus and ToStatus are set when the subscription was corrected.
	FromStatus types.SubscriptionStatus `json:"from_status,omitempty"`
	ToStatus   types.SubscriptionStatus `json:"to_status,omitempty"`
	// PaymentsFlipped counts CONFIRMED payments demoted to FAILED because
	// the subscription turned out to be incomplete upstream.
	PaymentsFlipped int    `json:"payments_flipped,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// ReconcileRunResponse aggregates one reconciliation pass.
type ReconcileRunResponse struct {
	AccountKey string            `json:"account_key"`
	Results    []ReconcileResult `json:"results"`
	Fixed      int               `json:"fixed"`
	Correct    int               `json:"correct"`
	Errors     int               `json:"errors"`
	Skipped    int               `json:"skipped"`
}

// Add appends a result and updates the counters.
func (r *ReconcileRunResponse) Add(result ReconcileResult) {
	r.Results = append(r.Results, result)
	switch result.Outcome {
	case types.ReconcileOutcomeFixed:
		r.Fixed++
	case types.ReconcileOutcomeCorrect:
		r.Correct++
	case types.ReconcileOutcomeError:
		r.Errors++
	case types.ReconcileOutcomeSkipped:
		r.Skipped++
	}
}
