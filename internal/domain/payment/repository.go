package payment

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/types"
)

// Repository defines the interface for payment ledger persistence.
// Create returns ErrAlreadyExists on a provider invoice id collision so
// callers can recover by re-querying and updating the winner's row.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error

	// ListBySubscriptionSince returns payments of the subscription in the
	// given status created at or after since.
	ListBySubscriptionSince(ctx context.Context, subscriptionID string, status types.PaymentStatus, since time.Time) ([]*Payment, error)
}
