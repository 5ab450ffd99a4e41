package types

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/samber/lo"
)

// MembershipStatus is the access-control projection of a subscription.
// Membership is never independently authoritative: it must always be
// derivable from the subscription status via MembershipStatusForSubscription.
type MembershipStatus string

const (
	MembershipStatusActive         MembershipStatus = "ACTIVE"
	MembershipStatusSuspended      MembershipStatus = "SUSPENDED"
	MembershipStatusPendingPayment MembershipStatus = "PENDING_PAYMENT"
	MembershipStatusCancelled      MembershipStatus = "CANCELLED"
)

// Validate validates the membership status
func (s MembershipStatus) Validate() error {
	allowed := []MembershipStatus{
		MembershipStatusActive,
		MembershipStatusSuspended,
		MembershipStatusPendingPayment,
		MembershipStatusCancelled,
	}

	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid membership status").
			WithHint("Invalid membership status").
			WithReportableDetails(map[string]any{
				"status":           s,
				"allowed_statuses": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s MembershipStatus) String() string {
	return string(s)
}

// MembershipStatusForSubscription is the single pure mapping from
// subscription status to membership status. Webhook handlers, the pause
// scheduler and the reconciler all derive membership through this function
// so that concurrent passes converge to the same result.
func MembershipStatusForSubscription(s SubscriptionStatus) MembershipStatus {
	switch s {
	case SubscriptionStatusPaused, SubscriptionStatusPastDue:
		return MembershipStatusSuspended
	case SubscriptionStatusIncomplete, SubscriptionStatusIncompleteExpired:
		return MembershipStatusPendingPayment
	case SubscriptionStatusCancelled:
		return MembershipStatusCancelled
	default:
		return MembershipStatusActive
	}
}
