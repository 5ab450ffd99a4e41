package testutil

import (
	"context"
	"sync"

	"github.com/clubroll/clubroll/internal/domain/invoice"
	ierr "github.com/clubroll/clubroll/internal/errors"
)

// InMemoryInvoiceStore implements invoice.Repository with the same
// provider invoice id uniqueness the real table enforces.
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
	mu        sync.Mutex
	byInvoice map[string]string
}

// NewInMemoryInvoiceStore creates a new in-memory invoice repository
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		byInvoice:     make(map[string]string),
	}
}

// Clear resets all stored data
func (s *InMemoryInvoiceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InMemoryStore.Clear()
	s.byInvoice = make(map[string]string)
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byInvoice[inv.ProviderInvoiceID]; exists {
		return ierr.NewError("invoice already mirrored").
			WithHint("An invoice with this provider id already exists").
			WithReportableDetails(map[string]any{
				"provider_invoice_id": inv.ProviderInvoiceID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.InMemoryStore.Create(ctx, inv.ID, inv); err != nil {
		return err
	}
	s.byInvoice[inv.ProviderInvoiceID] = inv.ID
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*invoice.Invoice, error) {
	s.mu.Lock()
	id, exists := s.byInvoice[providerInvoiceID]
	s.mu.Unlock()

	if !exists {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			WithReportableDetails(map[string]any{
				"provider_invoice_id": providerInvoiceID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, inv *invoice.Invoice, _ interface{}) bool {
		return inv.SubscriptionID == subscriptionID
	}, func(i, j *invoice.Invoice) bool {
		return i.ID < j.ID
	})
}
