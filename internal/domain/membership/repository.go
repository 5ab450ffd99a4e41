package membership

import "context"

// Repository defines the interface for membership persistence
type Repository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, id string) (*Membership, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Membership, error)
	Update(ctx context.Context, m *Membership) error
}
