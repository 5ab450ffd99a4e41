package payment

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is one row of the idempotent payment ledger. Rows are keyed by
// the external invoice id where one exists; a uniqueness constraint on
// that column is what makes concurrent webhook deliveries safe.
type Payment struct {
	ID             string `db:"id" json:"id"`
	UserID         string `db:"user_id" json:"user_id"`
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`
	// ProviderInvoiceID is the external invoice this payment settles. Nil
	// for payments with no invoice counterpart.
	ProviderInvoiceID *string `db:"provider_invoice_id" json:"provider_invoice_id,omitempty"`
	// OperationID is a human-readable correlation tag. Purely cosmetic;
	// the invoice relation above is the real link.
	OperationID   string              `db:"operation_id" json:"operation_id"`
	Amount        decimal.Decimal     `db:"amount" json:"amount"`
	Currency      string              `db:"currency" json:"currency"`
	Description   string              `db:"description" json:"description"`
	RoutedEntity  string              `db:"routed_entity" json:"routed_entity"`
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`
	FailureReason *string             `db:"failure_reason" json:"failure_reason,omitempty"`
	ConfirmedAt   *time.Time          `db:"confirmed_at" json:"confirmed_at,omitempty"`
	FailedAt      *time.Time          `db:"failed_at" json:"failed_at,omitempty"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.UserID == "" {
		return ierr.NewError("invalid user id").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	return p.PaymentStatus.Validate()
}

func (p *Payment) TableName() string {
	return "payments"
}
