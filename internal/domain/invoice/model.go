package invoice

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is a local mirror of an external processor invoice, upserted
// from webhook payloads. The processor's copy is authoritative.
type Invoice struct {
	ID                string          `db:"id" json:"id"`
	SubscriptionID    string          `db:"subscription_id" json:"subscription_id"`
	ProviderInvoiceID string          `db:"provider_invoice_id" json:"provider_invoice_id"`
	Total             decimal.Decimal `db:"total" json:"total"`
	Currency          string          `db:"currency" json:"currency"`
	// ProviderStatus is the processor's own status vocabulary, stored verbatim.
	ProviderStatus string     `db:"provider_status" json:"provider_status"`
	PeriodStart    *time.Time `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd      *time.Time `db:"period_end" json:"period_end,omitempty"`
	PaidAt         *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	types.BaseModel
}

// Validate validates the invoice
func (i *Invoice) Validate() error {
	if i.ProviderInvoiceID == "" {
		return ierr.NewError("invalid provider invoice id").
			WithHint("Provider invoice id is required").
			Mark(ierr.ErrValidation)
	}
	if i.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (i *Invoice) TableName() string {
	return "invoices"
}
