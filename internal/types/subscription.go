package types

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the local subscription lifecycle status. The
// external processor is the source of truth; local status is a projection
// of it, kept in sync by webhooks and the reconciliation pass.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "ACTIVE"
	SubscriptionStatusTrialing          SubscriptionStatus = "TRIALING"
	SubscriptionStatusPaused            SubscriptionStatus = "PAUSED"
	SubscriptionStatusPastDue           SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusIncomplete        SubscriptionStatus = "INCOMPLETE"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "INCOMPLETE_EXPIRED"
	SubscriptionStatusCancelled         SubscriptionStatus = "CANCELLED"
)

// Validate validates the subscription status
func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPaused,
		SubscriptionStatusPastDue,
		SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired,
		SubscriptionStatusCancelled,
	}

	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":           s,
				"allowed_statuses": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status permits no further transitions.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled
}

// SubscriptionStatusFromProvider maps the external processor's status
// vocabulary onto the local enum. A present pause-collection flag wins over
// the base status: the processor keeps the subscription "active" while
// collection is suspended, but locally that is a pause.
func SubscriptionStatusFromProvider(providerStatus string, pauseCollectionActive bool) SubscriptionStatus {
	if pauseCollectionActive {
		return SubscriptionStatusPaused
	}

	switch providerStatus {
	case "trialing":
		return SubscriptionStatusActive
	case "past_due":
		return SubscriptionStatusPastDue
	case "incomplete":
		return SubscriptionStatusIncomplete
	case "incomplete_expired":
		return SubscriptionStatusIncompleteExpired
	case "canceled", "cancelled":
		return SubscriptionStatusCancelled
	default:
		return SubscriptionStatusActive
	}
}
