package testutil

import (
	"context"
	"sync"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/types"
)

// ProviderCall records one call made against the fake processor.
type ProviderCall struct {
	Method     string
	AccountKey string
	ID         string
	Behavior   types.PauseBehavior
}

// FakeProviderAdapter implements provider.Adapter against in-memory state.
// Pause and resume calls mutate the stored subscription the way the real
// processor would, so verify passes observe their own fixes. Errors can be
// injected per method to exercise the external-first failure paths.
type FakeProviderAdapter struct {
	mu            sync.Mutex
	subscriptions map[string]*provider.SubscriptionState
	openInvoices  map[string][]*provider.Invoice
	failures      map[string]error
	calls         []ProviderCall
}

var _ provider.Adapter = (*FakeProviderAdapter)(nil)

// NewFakeProviderAdapter creates a new fake processor adapter
func NewFakeProviderAdapter() *FakeProviderAdapter {
	return &FakeProviderAdapter{
		subscriptions: make(map[string]*provider.SubscriptionState),
		openInvoices:  make(map[string][]*provider.Invoice),
		failures:      make(map[string]error),
	}
}

// SetSubscription seeds or replaces the processor-side subscription state.
func (f *FakeProviderAdapter) SetSubscription(state *provider.SubscriptionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[state.ProviderSubscriptionID] = state
}

// AddOpenInvoice seeds an open invoice on the processor side.
func (f *FakeProviderAdapter) AddOpenInvoice(inv *provider.Invoice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openInvoices[inv.ProviderSubscriptionID] = append(f.openInvoices[inv.ProviderSubscriptionID], inv)
}

// FailWith makes every subsequent call to the named method return err.
// Passing a nil error clears the injection.
func (f *FakeProviderAdapter) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// Calls returns every recorded call in order.
func (f *FakeProviderAdapter) Calls() []ProviderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProviderCall(nil), f.calls...)
}

// CallsTo returns the recorded calls to the named method.
func (f *FakeProviderAdapter) CallsTo(method string) []ProviderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []ProviderCall
	for _, c := range f.calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

// Clear resets state, recorded calls and injected failures.
func (f *FakeProviderAdapter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = make(map[string]*provider.SubscriptionState)
	f.openInvoices = make(map[string][]*provider.Invoice)
	f.failures = make(map[string]error)
	f.calls = nil
}

func (f *FakeProviderAdapter) record(method, accountKey, id string, behavior types.PauseBehavior) error {
	f.calls = append(f.calls, ProviderCall{
		Method:     method,
		AccountKey: accountKey,
		ID:         id,
		Behavior:   behavior,
	})
	return f.failures[method]
}

func (f *FakeProviderAdapter) GetSubscription(ctx context.Context, accountKey, providerSubscriptionID string) (*provider.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetSubscription", accountKey, providerSubscriptionID, ""); err != nil {
		return nil, err
	}

	state, exists := f.subscriptions[providerSubscriptionID]
	if !exists {
		return nil, ierr.NewError("no such subscription upstream").
			WithHint("Subscription does not exist on the processor").
			WithReportableDetails(map[string]any{
				"provider_subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrIntegration)
	}
	copied := *state
	return &copied, nil
}

func (f *FakeProviderAdapter) PauseCollection(ctx context.Context, accountKey, providerSubscriptionID string, behavior types.PauseBehavior) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("PauseCollection", accountKey, providerSubscriptionID, behavior); err != nil {
		return err
	}
	if state, exists := f.subscriptions[providerSubscriptionID]; exists {
		state.PauseCollectionActive = true
	}
	return nil
}

func (f *FakeProviderAdapter) ResumeCollection(ctx context.Context, accountKey, providerSubscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ResumeCollection", accountKey, providerSubscriptionID, ""); err != nil {
		return err
	}
	if state, exists := f.subscriptions[providerSubscriptionID]; exists {
		state.PauseCollectionActive = false
	}
	return nil
}

func (f *FakeProviderAdapter) ListOpenInvoices(ctx context.Context, accountKey, providerSubscriptionID string) ([]*provider.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ListOpenInvoices", accountKey, providerSubscriptionID, ""); err != nil {
		return nil, err
	}
	return append([]*provider.Invoice(nil), f.openInvoices[providerSubscriptionID]...), nil
}

func (f *FakeProviderAdapter) VoidInvoice(ctx context.Context, accountKey, providerInvoiceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("VoidInvoice", accountKey, providerInvoiceID, ""); err != nil {
		return err
	}
	f.removeOpenInvoice(providerInvoiceID)
	return nil
}

func (f *FakeProviderAdapter) PayInvoice(ctx context.Context, accountKey, providerInvoiceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("PayInvoice", accountKey, providerInvoiceID, ""); err != nil {
		return err
	}
	f.removeOpenInvoice(providerInvoiceID)
	return nil
}

func (f *FakeProviderAdapter) removeOpenInvoice(providerInvoiceID string) {
	for subID, invoices := range f.openInvoices {
		for i, inv := range invoices {
			if inv.ProviderInvoiceID == providerInvoiceID {
				f.openInvoices[subID] = append(invoices[:i], invoices[i+1:]...)
				return
			}
		}
	}
}
