package service

import (
	"context"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/payment"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// LedgerService is the idempotent payment ledger. Rows are keyed by the
// external invoice id; re-delivery of the same invoice updates the
// existing row, and a concurrent create racing on the uniqueness
// constraint recovers by re-querying, never by surfacing the conflict.
type LedgerService interface {
	PersistSuccessfulPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	PersistFailedPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	ActivateFromAsyncPayment(ctx context.Context, providerSubscriptionID string) error
}

type ledgerService struct {
	ServiceParams
}

// NewLedgerService creates a new ledger service
func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{ServiceParams: params}
}

func (s *ledgerService) PersistSuccessfulPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	p, err := s.upsertByInvoice(ctx, req, func(p *payment.Payment) {
		p.PaymentStatus = types.PaymentStatusConfirmed
		p.Description = req.Description
		p.FailureReason = nil
		p.FailedAt = nil
		p.ConfirmedAt = &now
		p.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, types.AuditActionPaymentConfirmed, "payment", p.ID, types.PaymentPayload{
		PaymentID:         p.ID,
		ProviderInvoiceID: req.ProviderInvoiceID,
		Amount:            p.Amount,
		Currency:          p.Currency,
	})

	return dto.NewPaymentResponse(p), nil
}

func (s *ledgerService) PersistFailedPayment(ctx context.Context, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	reason := req.Reason
	if reason == "" {
		reason = "payment failed"
	}

	var p *payment.Payment
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		p, err = s.upsertByInvoice(txCtx, req, func(p *payment.Payment) {
			// A confirmed payment is a settled fact; a later failure
			// delivery for the same invoice must not unsettle it.
			if p.PaymentStatus == types.PaymentStatusConfirmed {
				return
			}
			p.PaymentStatus = types.PaymentStatusFailed
			p.FailureReason = &reason
			p.FailedAt = &now
			p.UpdatedAt = now
		})
		if err != nil {
			return err
		}
		return s.cascadePastDue(txCtx, req.SubscriptionID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, types.AuditActionPaymentFailed, "payment", p.ID, types.PaymentPayload{
		PaymentID:         p.ID,
		ProviderInvoiceID: req.ProviderInvoiceID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Reason:            reason,
	})

	return dto.NewPaymentResponse(p), nil
}

// upsertByInvoice finds or creates the ledger row for the request's
// provider invoice id and applies mutate to it. A create losing the race
// on the uniqueness constraint recovers by re-querying for the winner's
// row and updating that instead.
func (s *ledgerService) upsertByInvoice(ctx context.Context, req dto.RecordPaymentRequest, mutate func(*payment.Payment)) (*payment.Payment, error) {
	if req.ProviderInvoiceID != "" {
		existing, err := s.PaymentRepo.GetByProviderInvoiceID(ctx, req.ProviderInvoiceID)
		if err == nil {
			mutate(existing)
			if err := s.PaymentRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	p := s.newPaymentFromRequest(ctx, req)
	mutate(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.PaymentRepo.Create(ctx, p)
	if err == nil {
		return p, nil
	}
	if !ierr.IsAlreadyExists(err) || req.ProviderInvoiceID == "" {
		return nil, err
	}

	// A concurrent delivery created the row first; update it instead.
	winner, err := s.PaymentRepo.GetByProviderInvoiceID(ctx, req.ProviderInvoiceID)
	if err != nil {
		return nil, err
	}
	mutate(winner)
	if err := s.PaymentRepo.Update(ctx, winner); err != nil {
		return nil, err
	}
	return winner, nil
}

func (s *ledgerService) newPaymentFromRequest(ctx context.Context, req dto.RecordPaymentRequest) *payment.Payment {
	p := &payment.Payment{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		OperationID:    types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_OPERATION),
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		RoutedEntity:   req.RoutedEntity,
		PaymentStatus:  types.PaymentStatusPending,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if req.ProviderInvoiceID != "" {
		p.ProviderInvoiceID = &req.ProviderInvoiceID
	}
	return p
}

// cascadePastDue marks the subscription past due and suspends the
// membership after a payment failure.
func (s *ledgerService) cascadePastDue(ctx context.Context, subscriptionID string) error {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if sub.SubscriptionStatus.IsTerminal() {
		return nil
	}

	sub.SubscriptionStatus = types.SubscriptionStatusPastDue
	sub.UpdatedAt = s.now()
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}
	return syncMembership(ctx, s.MembershipRepo, sub, s.now())
}

// ActivateFromAsyncPayment activates a subscription whose payment settled
// out of band, e.g. a delayed-settlement payment method confirming after
// checkout completed. Only subscriptions held back by a failed or
// incomplete payment activate; a pause stays a pause, delayed settlement
// never unwinds a suspension.
func (s *ledgerService) ActivateFromAsyncPayment(ctx context.Context, providerSubscriptionID string) error {
	sub, err := s.SubRepo.GetByProviderSubscriptionID(ctx, providerSubscriptionID)
	if err != nil {
		return err
	}
	if sub.SubscriptionStatus.IsTerminal() {
		return ierr.NewError("subscription is cancelled").
			WithHint("A cancelled subscription cannot be activated").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
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
