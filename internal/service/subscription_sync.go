package service

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/domain/invoice"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/types"
)

// SubscriptionSyncService applies processor-originated state onto local
// rows. Webhook deliveries and the reconciler both converge through the
// same pure status mapping, so the two running concurrently for the same
// subscription is harmless.
type SubscriptionSyncService interface {
	SyncSubscriptionState(ctx context.Context, state *provider.SubscriptionState) error
	MarkSubscriptionCancelled(ctx context.Context, providerSubscriptionID string) error
	ActivateOnPayment(ctx context.Context, subscriptionID string) error
	UpsertInvoice(ctx context.Context, inv *provider.Invoice) (*invoice.Invoice, error)
	ResolveByProviderID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
}

type subscriptionSyncService struct {
	ServiceParams
}

// NewSubscriptionSyncService creates a new subscription sync service
func NewSubscriptionSyncService(params ServiceParams) SubscriptionSyncService {
	return &subscriptionSyncService{ServiceParams: params}
}

// SyncSubscriptionState applies a created/updated event. Subscriptions
// are provisioned by the admin layer; an event for an unknown
// subscription is logged and dropped, not an error.
func (s *subscriptionSyncService) SyncSubscriptionState(ctx context.Context, state *provider.SubscriptionState) error {
	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, state.ProviderSubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Infow("ignoring event for unknown subscription",
				"provider_subscription_id", state.ProviderSubscriptionID,
			)
			return nil
		}
		return err
	}

	computed := types.SubscriptionStatusFromProvider(state.Status, state.PauseCollectionActive)

	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		sub.SubscriptionStatus = computed
		sub.CurrentPeriodStart = state.CurrentPeriodStart
		sub.CurrentPeriodEnd = state.CurrentPeriodEnd
		sub.NextBillingDate = nextBillingDate(state)
		sub.CancelAtPeriodEnd = state.CancelAtPeriodEnd
		sub.CancelledAt = state.CancelledAt
		sub.UpdatedAt = s.now()
		if err := s.SubRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return syncMembership(txCtx, s.MembershipRepo, sub, s.now())
	})
}

// nextBillingDate derives the next charge date from the processor's
// period bounds. Nothing further is billed once the subscription is
// cancelled or set to cancel at period end.
func nextBillingDate(state *provider.SubscriptionState) *time.Time {
	if state.CancelAtPeriodEnd || state.CancelledAt != nil {
		return nil
	}
	return state.CurrentPeriodEnd
}

// MarkSubscriptionCancelled applies a deletion event: the terminal state.
func (s *subscriptionSyncService) MarkSubscriptionCancelled(ctx context.Context, providerSubscriptionID string) error {
	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, providerSubscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if sub.SubscriptionStatus.IsTerminal() {
		return nil
	}

	now := s.now()
	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		sub.SubscriptionStatus = types.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.NextBillingDate = nil
		sub.UpdatedAt = now
		if err := s.SubRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return syncMembership(txCtx, s.MembershipRepo, sub, now)
	})
}

// ActivateOnPayment restores a subscription held back by a failed or
// incomplete payment once money arrives. A pause stays a pause; payment
// success never unwinds a suspension.
func (s *subscriptionSyncService) ActivateOnPayment(ctx context.Context, subscriptionID string) error {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}

	switch sub.SubscriptionStatus {
	case types.SubscriptionStatusPastDue, types.SubscriptionStatusIncomplete:
	default:
		return nil
	}

	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.UpdatedAt = s.now()
		if err := s.SubRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return syncMembership(txCtx, s.MembershipRepo, sub, s.now())
	})
}

// ResolveByProviderID looks up the local subscription mirroring the
// given external subscription id.
func (s *subscriptionSyncService) ResolveByProviderID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	return s.SubRepo.GetByProviderSubscriptionID(ctx, providerSubscriptionID)
}

// UpsertInvoice mirrors a processor invoice locally, keyed by its
// external id. Deliveries are at least once, so an existing row is
// refreshed in place.
func (s *subscriptionSyncService) UpsertInvoice(ctx context.Context, providerInvoice *provider.Invoice) (*invoice.Invoice, error) {
	subscriptionID := ""
	if providerInvoice.ProviderSubscriptionID != "" {
		sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, providerInvoice.ProviderSubscriptionID)
		if err == nil {
			subscriptionID = sub.ID
		} else if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	now := s.now()
	existing, err := s.InvoiceRepo.GetByProviderInvoiceID(ctx, providerInvoice.ProviderInvoiceID)
	if err == nil {
		existing.ProviderStatus = providerInvoice.Status
		existing.Total = providerInvoice.Total
		existing.PeriodStart = providerInvoice.PeriodStart
		existing.PeriodEnd = providerInvoice.PeriodEnd
		existing.UpdatedAt = now
		if existing.PaidAt == nil && providerInvoice.Status == "paid" {
			existing.PaidAt = &now
		}
		if err := s.InvoiceRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	inv := &invoice.Invoice{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		SubscriptionID:    subscriptionID,
		ProviderInvoiceID: providerInvoice.ProviderInvoiceID,
		Total:             providerInvoice.Total,
		Currency:          providerInvoice.Currency,
		ProviderStatus:    providerInvoice.Status,
		PeriodStart:       providerInvoice.PeriodStart,
		PeriodEnd:         providerInvoice.PeriodEnd,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if providerInvoice.Status == "paid" {
		inv.PaidAt = &now
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		if ierr.IsAlreadyExists(err) {
			// A concurrent delivery won the create; refresh that row.
			return s.UpsertInvoice(ctx, providerInvoice)
		}
		return nil, err
	}
	return inv, nil
}
