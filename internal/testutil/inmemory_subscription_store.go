package testutil

import (
	"context"

	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription repository
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemorySubscriptionStore) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.ProviderSubscriptionID == providerSubscriptionID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]any{
				"provider_subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			WithHint("Subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) ListByAccountKey(ctx context.Context, accountKey string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.AccountKey == accountKey
	}, sortSubscriptions)
}

func (s *InMemorySubscriptionStore) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.SubscriptionStatus == status
	}, sortSubscriptions)
}

func sortSubscriptions(i, j *subscription.Subscription) bool {
	return i.ID < j.ID
}
