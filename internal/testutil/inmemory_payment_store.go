package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/clubroll/clubroll/internal/domain/payment"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// InMemoryPaymentStore implements payment.Repository. It enforces the
// provider invoice id uniqueness the real table carries, so the ledger's
// conflict recovery path can be exercised in tests.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	mu        sync.Mutex
	byInvoice map[string]string
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
		byInvoice:     make(map[string]string),
	}
}

// Clear resets all stored data
func (s *InMemoryPaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InMemoryStore.Clear()
	s.byInvoice = make(map[string]string)
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ProviderInvoiceID != nil {
		if _, exists := s.byInvoice[*p.ProviderInvoiceID]; exists {
			return ierr.NewError("payment already recorded for invoice").
				WithHint("A payment for this invoice already exists").
				WithReportableDetails(map[string]any{
					"provider_invoice_id": *p.ProviderInvoiceID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	if err := s.InMemoryStore.Create(ctx, p.ID, p); err != nil {
		return err
	}
	if p.ProviderInvoiceID != nil {
		s.byInvoice[*p.ProviderInvoiceID] = p.ID
	}
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPaymentStore) GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*payment.Payment, error) {
	s.mu.Lock()
	id, exists := s.byInvoice[providerInvoiceID]
	s.mu.Unlock()

	if !exists {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			WithReportableDetails(map[string]any{
				"provider_invoice_id": providerInvoiceID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, p.ID, p)
}

func (s *InMemoryPaymentStore) ListBySubscriptionSince(ctx context.Context, subscriptionID string, status types.PaymentStatus, since time.Time) ([]*payment.Payment, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.SubscriptionID == subscriptionID &&
			p.PaymentStatus == status &&
			!p.CreatedAt.Before(since)
	}, func(i, j *payment.Payment) bool {
		return i.ID < j.ID
	})
}
