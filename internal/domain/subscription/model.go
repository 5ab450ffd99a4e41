package subscription

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription mirrors one external processor subscription. The external
// processor is the source of truth for status; local rows converge to it
// via webhooks and the reconciler.
type Subscription struct {
	ID string `db:"id" json:"id"`
	// UserID is the member this subscription bills, owned by the admin layer.
	UserID string `db:"user_id" json:"user_id"`
	// AccountKey identifies the configured processor account the
	// subscription lives in.
	AccountKey string `db:"account_key" json:"account_key"`
	// ProviderSubscriptionID is the external processor's subscription id.
	ProviderSubscriptionID string `db:"provider_subscription_id" json:"provider_subscription_id"`
	// ProviderCustomerID is the external processor's customer id.
	ProviderCustomerID string `db:"provider_customer_id" json:"provider_customer_id"`
	PlanName           string `db:"plan_name" json:"plan_name"`
	// MonthlyPrice drives all proration math.
	MonthlyPrice       decimal.Decimal          `db:"monthly_price" json:"monthly_price"`
	Currency           string                   `db:"currency" json:"currency"`
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	CurrentPeriodStart *time.Time               `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time               `db:"current_period_end" json:"current_period_end,omitempty"`
	// NextBillingDate is when the processor will attempt the next charge,
	// nil once no further billing is scheduled.
	NextBillingDate   *time.Time `db:"next_billing_date" json:"next_billing_date,omitempty"`
	CancelAtPeriodEnd bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CancelledAt       *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	types.BaseModel
}

// Validate validates the subscription
func (s *Subscription) Validate() error {
	if s.UserID == "" {
		return ierr.NewError("invalid user id").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}
	if s.AccountKey == "" {
		return ierr.NewError("invalid account key").
			WithHint("Account key is required").
			Mark(ierr.ErrValidation)
	}
	if s.ProviderSubscriptionID == "" {
		return ierr.NewError("invalid provider subscription id").
			WithHint("Provider subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if s.MonthlyPrice.IsNegative() {
		return ierr.NewError("invalid monthly price").
			WithHint("Monthly price must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if s.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	return s.SubscriptionStatus.Validate()
}

func (s *Subscription) TableName() string {
	return "subscriptions"
}
