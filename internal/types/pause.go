package types

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/samber/lo"
)

// PauseWindowStatus is the state of a scheduled billing suspension.
// Transitions: SCHEDULED -> ACTIVE -> {CREDIT_APPLIED | CANCELLED},
// SCHEDULED -> CANCELLED.
type PauseWindowStatus string

const (
	PauseWindowStatusScheduled     PauseWindowStatus = "SCHEDULED"
	PauseWindowStatusActive        PauseWindowStatus = "ACTIVE"
	PauseWindowStatusCreditApplied PauseWindowStatus = "CREDIT_APPLIED"
	PauseWindowStatusCancelled     PauseWindowStatus = "CANCELLED"
)

// Validate validates the pause window status
func (s PauseWindowStatus) Validate() error {
	allowed := []PauseWindowStatus{
		PauseWindowStatusScheduled,
		PauseWindowStatusActive,
		PauseWindowStatusCreditApplied,
		PauseWindowStatusCancelled,
	}

	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid pause window status").
			WithHint("Invalid pause window status").
			WithReportableDetails(map[string]any{
				"status":           s,
				"allowed_statuses": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s PauseWindowStatus) String() string {
	return string(s)
}

// PauseWindowKind distinguishes concrete per-month rows from the
// open-ended master they may be materialized from.
type PauseWindowKind string

const (
	// PauseWindowKindMonth is a concrete row covering one calendar month.
	PauseWindowKindMonth PauseWindowKind = "MONTH"

	// PauseWindowKindOpenEnded is a master row with no fixed end. Concrete
	// month rows are materialized from it one month ahead of the apply pass.
	PauseWindowKindOpenEnded PauseWindowKind = "OPEN_ENDED"
)

// Validate validates the pause window kind
func (k PauseWindowKind) Validate() error {
	allowed := []PauseWindowKind{
		PauseWindowKindMonth,
		PauseWindowKindOpenEnded,
	}

	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid pause window kind").
			WithHint("Invalid pause window kind").
			WithReportableDetails(map[string]any{
				"kind":          k,
				"allowed_kinds": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (k PauseWindowKind) String() string {
	return string(k)
}

// PauseBehavior controls what the external processor does with invoices
// generated while collection is suspended.
type PauseBehavior string

const (
	PauseBehaviorVoidInvoice       PauseBehavior = "void"
	PauseBehaviorKeepAsDraft       PauseBehavior = "keep_as_draft"
	PauseBehaviorMarkUncollectible PauseBehavior = "mark_uncollectible"
)

// Validate validates the pause behavior
func (b PauseBehavior) Validate() error {
	allowed := []PauseBehavior{
		PauseBehaviorVoidInvoice,
		PauseBehaviorKeepAsDraft,
		PauseBehaviorMarkUncollectible,
	}

	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid pause behavior").
			WithHint("Invalid pause behavior").
			WithReportableDetails(map[string]any{
				"behavior":          b,
				"allowed_behaviors": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (b PauseBehavior) String() string {
	return string(b)
}
