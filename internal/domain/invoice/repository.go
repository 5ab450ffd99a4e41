package invoice

import "context"

// Repository defines the interface for invoice mirror persistence
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Invoice, error)
}
