package provider

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionState is the processor's current view of a subscription.
type SubscriptionState struct {
	ProviderSubscriptionID string
	ProviderCustomerID     string
	// Status is the processor's own status vocabulary, e.g. "active",
	// "past_due", "trialing".
	Status string
	// PauseCollectionActive reports whether a collection pause is in
	// force, independent of the base status.
	PauseCollectionActive bool
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	CancelAtPeriodEnd     bool
	CancelledAt           *time.Time
}

// Invoice is the processor's view of one invoice.
type Invoice struct {
	ProviderInvoiceID      string
	ProviderSubscriptionID string
	Status                 string
	Total                  decimal.Decimal
	Currency               string
	PeriodStart            *time.Time
	PeriodEnd              *time.Time
}

// Adapter is the external payment processor collaborator. Every call is
// blocking I/O against the processor; callers must not hold locks across
// them. The accountKey selects one of the configured processor accounts.
type Adapter interface {
	GetSubscription(ctx context.Context, accountKey, providerSubscriptionID string) (*SubscriptionState, error)

	// PauseCollection suspends invoice collection on the subscription.
	// The behavior controls what the processor does with invoices
	// generated while suspended.
	PauseCollection(ctx context.Context, accountKey, providerSubscriptionID string, behavior types.PauseBehavior) error

	// ResumeCollection clears a collection suspension. Resuming a
	// subscription that is not paused is a no-op on the processor side.
	ResumeCollection(ctx context.Context, accountKey, providerSubscriptionID string) error

	ListOpenInvoices(ctx context.Context, accountKey, providerSubscriptionID string) ([]*Invoice, error)
	VoidInvoice(ctx context.Context, accountKey, providerInvoiceID string) error
	PayInvoice(ctx context.Context, accountKey, providerInvoiceID string) error
}
