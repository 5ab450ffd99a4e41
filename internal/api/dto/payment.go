package dto

import (
	"time"

	"github.com/clubroll/clubroll/internal/domain/payment"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest carries one payment fact into the ledger. The
// provider invoice id is the idempotency key: recording the same invoice
// twice updates the existing row instead of creating a duplicate.
type RecordPaymentRequest struct {
	ProviderInvoiceID string          `json:"provider_invoice_id"`
	SubscriptionID    string          `json:"subscription_id"`
	UserID            string          `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
	RoutedEntity      string          `json:"routed_entity"`
	// Reason is set on the failure path only.
	Reason string `json:"reason,omitempty"`
}

// Validate validates the record payment request
func (r *RecordPaymentRequest) Validate() error {
	if r.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("User ID is required").
			Mark(ierr.ErrValidation)
	}
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}
	if r.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHint("Amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentResponse is the API shape of one ledger row.
type PaymentResponse struct {
	ID                string              `json:"id"`
	UserID            string              `json:"user_id"`
	SubscriptionID    string              `json:"subscription_id"`
	ProviderInvoiceID *string             `json:"provider_invoice_id,omitempty"`
	OperationID       string              `json:"operation_id"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency"`
	Description       string              `json:"description"`
	PaymentStatus     types.PaymentStatus `json:"payment_status"`
	FailureReason     *string             `json:"failure_reason,omitempty"`
	ConfirmedAt       *time.Time          `json:"confirmed_at,omitempty"`
	FailedAt          *time.Time          `json:"failed_at,omitempty"`
}

// NewPaymentResponse converts a ledger row to its API shape.
func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		SubscriptionID:    p.SubscriptionID,
		ProviderInvoiceID: p.ProviderInvoiceID,
		OperationID:       p.OperationID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Description:       p.Description,
		PaymentStatus:     p.PaymentStatus,
		FailureReason:     p.FailureReason,
		ConfirmedAt:       p.ConfirmedAt,
		FailedAt:          p.FailedAt,
	}
}
