package subscription

import (
	"context"

	"github.com/clubroll/clubroll/internal/types"
)

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	ListByAccountKey(ctx context.Context, accountKey string) ([]*Subscription, error)
	ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*Subscription, error)
}
