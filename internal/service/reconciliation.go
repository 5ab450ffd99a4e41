package service

import (
	"context"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/types"
)

// ReconciliationService converges local subscription and membership state
// onto the external processor's view. Drift is its expected input, not an
// error condition.
type ReconciliationService interface {
	ReconcileSubscriptions(ctx context.Context, accountKey string) (*dto.ReconcileRunResponse, error)
	ReconcileOne(ctx context.Context, sub *subscription.Subscription) dto.ReconcileResult
}

type reconciliationService struct {
	ServiceParams
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{ServiceParams: params}
}

func (s *reconciliationService) ReconcileSubscriptions(ctx context.Context, accountKey string) (*dto.ReconcileRunResponse, error) {
	if _, ok := s.Config.Stripe.AccountByKey(accountKey); !ok {
		return nil, ierr.NewError("unknown processor account").
			WithHint("No processor account configured with this key").
			WithReportableDetails(map[string]any{
				"account_key": accountKey,
			}).
			Mark(ierr.ErrNotFound)
	}

	subs, err := s.SubRepo.ListByAccountKey(ctx, accountKey)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReconcileRunResponse{AccountKey: accountKey}
	for _, sub := range subs {
		resp.Add(s.ReconcileOne(ctx, sub))
	}

	s.Logger.Infow("reconciliation pass complete",
		"account_key", accountKey,
		"total", len(subs),
		"fixed", resp.Fixed,
		"correct", resp.Correct,
		"errors", resp.Errors,
		"skipped", resp.Skipped,
	)
	return resp, nil
}

// ReconcileOne converges one subscription. A failure here is recorded in
// the result and never halts the batch.
func (s *reconciliationService) ReconcileOne(ctx context.Context, sub *subscription.Subscription) dto.ReconcileResult {
	if sub.ProviderSubscriptionID == "" {
		return dto.ReconcileResult{
			SubscriptionID: sub.ID,
			Outcome:        types.ReconcileOutcomeSkipped,
			Detail:         "no provider subscription id",
		}
	}

	state, err := s.Provider.GetSubscription(ctx, sub.AccountKey, sub.ProviderSubscriptionID)
	if err != nil {
		s.Logger.Errorw("failed to fetch subscription for reconciliation",
			"error", err,
			"subscription_id", sub.ID,
		)
		return dto.ReconcileResult{
			SubscriptionID: sub.ID,
			Outcome:        types.ReconcileOutcomeError,
			Detail:         err.Error(),
		}
	}

	computed := types.SubscriptionStatusFromProvider(state.Status, state.PauseCollectionActive)
	fromStatus := sub.SubscriptionStatus
	statusDrifted := fromStatus != computed

	membershipFixed := false
	paymentsFlipped := 0

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if statusDrifted {
			sub.SubscriptionStatus = computed
			s.syncProviderFields(sub, state)
			sub.UpdatedAt = s.now()
			if err := s.SubRepo.Update(txCtx, sub); err != nil {
				return err
			}

			if computed == types.SubscriptionStatusIncomplete {
				paymentsFlipped, err = s.flipPhantomPayments(txCtx, sub)
				if err != nil {
					return err
				}
			}
		}

		// Membership is re-derived even when the subscription already
		// matched; it is never treated as authoritative.
		fixed, err := s.reconcileMembership(txCtx, sub)
		if err != nil {
			return err
		}
		membershipFixed = fixed
		return nil
	})
	if err != nil {
		return dto.ReconcileResult{
			SubscriptionID: sub.ID,
			Outcome:        types.ReconcileOutcomeError,
			Detail:         err.Error(),
		}
	}

	if !statusDrifted && !membershipFixed {
		return dto.ReconcileResult{
			SubscriptionID: sub.ID,
			Outcome:        types.ReconcileOutcomeCorrect,
		}
	}

	s.recordAudit(ctx, types.AuditActionReconcileFix, "subscription", sub.ID, types.ReconcilePayload{
		SubscriptionID:   sub.ID,
		FromStatus:       fromStatus,
		ToStatus:         sub.SubscriptionStatus,
		MembershipStatus: types.MembershipStatusForSubscription(sub.SubscriptionStatus),
		PaymentsFlipped:  paymentsFlipped,
	})

	return dto.ReconcileResult{
		SubscriptionID:  sub.ID,
		Outcome:         types.ReconcileOutcomeFixed,
		FromStatus:      fromStatus,
		ToStatus:        sub.SubscriptionStatus,
		PaymentsFlipped: paymentsFlipped,
	}
}

// syncProviderFields copies the processor's period bounds, next billing
// date and cancel flags onto the local row.
func (s *reconciliationService) syncProviderFields(sub *subscription.Subscription, state *provider.SubscriptionState) {
	sub.CurrentPeriodStart = state.CurrentPeriodStart
	sub.CurrentPeriodEnd = state.CurrentPeriodEnd
	sub.NextBillingDate = nextBillingDate(state)
	sub.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	sub.CancelledAt = state.CancelledAt
}

// flipPhantomPayments demotes CONFIRMED payments recorded since the
// subscription was created when it turns out to be incomplete upstream.
// Money was never actually collected for an incomplete subscription.
func (s *reconciliationService) flipPhantomPayments(ctx context.Context, sub *subscription.Subscription) (int, error) {
	confirmed, err := s.PaymentRepo.ListBySubscriptionSince(ctx, sub.ID, types.PaymentStatusConfirmed, sub.CreatedAt)
	if err != nil {
		return 0, err
	}

	now := s.now()
	reason := "incomplete upstream"
	for _, p := range confirmed {
		p.PaymentStatus = types.PaymentStatusFailed
		p.FailureReason = &reason
		p.FailedAt = &now
		p.UpdatedAt = now
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(confirmed), nil
}

// reconcileMembership re-derives the membership status and reports
// whether it had drifted.
func (s *reconciliationService) reconcileMembership(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	m, err := s.MembershipRepo.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	derived := types.MembershipStatusForSubscription(sub.SubscriptionStatus)
	if m.MembershipStatus == derived {
		return false, nil
	}

	now := s.now()
	m.MembershipStatus = derived
	m.UpdatedAt = now
	if derived == types.MembershipStatusCancelled && m.EndedAt == nil {
		m.EndedAt = &now
	}
	if err := s.MembershipRepo.Update(ctx, m); err != nil {
		return false, err
	}
	return true, nil
}
