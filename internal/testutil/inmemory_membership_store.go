package testutil

import (
	"context"

	"github.com/clubroll/clubroll/internal/domain/membership"
	ierr "github.com/clubroll/clubroll/internal/errors"
)

// InMemoryMembershipStore implements membership.Repository
type InMemoryMembershipStore struct {
	*InMemoryStore[*membership.Membership]
}

// NewInMemoryMembershipStore creates a new in-memory membership repository
func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{
		InMemoryStore: NewInMemoryStore[*membership.Membership](),
	}
}

func (s *InMemoryMembershipStore) Create(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").
			WithHint("Membership cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, m.ID, m)
}

func (s *InMemoryMembershipStore) Get(ctx context.Context, id string) (*membership.Membership, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryMembershipStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*membership.Membership, error) {
	memberships, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, m *membership.Membership, _ interface{}) bool {
		return m.SubscriptionID == subscriptionID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ierr.NewError("membership not found").
			WithHint("Membership not found").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return memberships[0], nil
}

func (s *InMemoryMembershipStore) Update(ctx context.Context, m *membership.Membership) error {
	if m == nil {
		return ierr.NewError("membership cannot be nil").
			WithHint("Membership cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, m.ID, m)
}
