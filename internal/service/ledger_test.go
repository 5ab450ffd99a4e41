package service

import (
	"testing"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/testutil"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  LedgerService
	testData struct {
		sub        *subscription.Subscription
		membership *membership.Membership
	}
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *LedgerServiceSuite) setupService() {
	s.service = NewLedgerService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		SubRepo:        s.GetStores().SubRepo,
		MembershipRepo: s.GetStores().MembershipRepo,
		PauseRepo:      s.GetStores().PauseRepo,
		PaymentRepo:    s.GetStores().PaymentRepo,
		InvoiceRepo:    s.GetStores().InvoiceRepo,
		AuditRepo:      s.GetStores().AuditRepo,
		Provider:       s.GetProvider(),
		Now:            s.ClockFunc(),
	})
}

func (s *LedgerServiceSuite) setupTestData() {
	s.testData.sub = &subscription.Subscription{
		ID:                     "sub_test_ledger",
		UserID:                 "user_1",
		AccountKey:             testutil.TestAccountKey,
		ProviderSubscriptionID: "stripe_sub_1",
		PlanName:               "Monthly Gold",
		MonthlyPrice:           decimal.NewFromInt(100),
		Currency:               "gbp",
		SubscriptionStatus:     types.SubscriptionStatusActive,
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), s.testData.sub))

	s.testData.membership = &membership.Membership{
		ID:               "mem_test_ledger",
		SubscriptionID:   s.testData.sub.ID,
		UserID:           s.testData.sub.UserID,
		MembershipStatus: types.MembershipStatusActive,
		StartedAt:        s.GetNow().AddDate(-1, 0, 0),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), s.testData.membership))
}

func (s *LedgerServiceSuite) paymentRequest(invoiceID string) dto.RecordPaymentRequest {
	return dto.RecordPaymentRequest{
		ProviderInvoiceID: invoiceID,
		SubscriptionID:    s.testData.sub.ID,
		UserID:            s.testData.sub.UserID,
		Amount:            decimal.NewFromInt(100),
		Currency:          "gbp",
		Description:       "Monthly Gold April 2026",
		RoutedEntity:      testutil.TestAccountKey,
	}
}

func (s *LedgerServiceSuite) getSub() *subscription.Subscription {
	sub, err := s.GetStores().SubRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	return sub
}

func (s *LedgerServiceSuite) getMembership() *membership.Membership {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), s.testData.membership.ID)
	s.NoError(err)
	return m
}

func (s *LedgerServiceSuite) TestPersistSuccessfulPayment() {
	resp, err := s.service.PersistSuccessfulPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)
	s.Equal(types.PaymentStatusConfirmed, resp.PaymentStatus)
	s.NotNil(resp.ConfirmedAt)

	p, err := s.GetStores().PaymentRepo.GetByProviderInvoiceID(s.GetContext(), "stripe_in_1")
	s.NoError(err)
	s.Equal(resp.ID, p.ID)
	s.Equal("100", p.Amount.String())
	s.NotEmpty(p.OperationID)

	entries, err := s.GetStores().AuditRepo.ListByEntity(s.GetContext(), "payment", p.ID)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.AuditActionPaymentConfirmed, entries[0].Action)
}

func (s *LedgerServiceSuite) TestPersistSuccessfulPaymentIsIdempotent() {
	first, err := s.service.PersistSuccessfulPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)

	// Same invoice delivered again: same row, not a second one.
	second, err := s.service.PersistSuccessfulPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)
	s.Equal(first.ID, second.ID)

	payments, err := s.GetStores().PaymentRepo.ListBySubscriptionSince(
		s.GetContext(), s.testData.sub.ID, types.PaymentStatusConfirmed, s.testData.sub.CreatedAt)
	s.NoError(err)
	s.Len(payments, 1)
}

func (s *LedgerServiceSuite) TestPersistSuccessfulPaymentRecoversConfirmedOverFailed() {
	_, err := s.service.PersistFailedPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)

	// Retry succeeded on the processor side; the same invoice confirms.
	resp, err := s.service.PersistSuccessfulPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)
	s.Equal(types.PaymentStatusConfirmed, resp.PaymentStatus)

	p, err := s.GetStores().PaymentRepo.GetByProviderInvoiceID(s.GetContext(), "stripe_in_1")
	s.NoError(err)
	s.Equal(types.PaymentStatusConfirmed, p.PaymentStatus)
	s.Nil(p.FailureReason)
	s.Nil(p.FailedAt)
	s.NotNil(p.ConfirmedAt)
}

func (s *LedgerServiceSuite) TestPersistFailedPaymentCascades() {
	req := s.paymentRequest("stripe_in_1")
	req.Reason = "card declined"

	resp, err := s.service.PersistFailedPayment(s.GetContext(), req)
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, resp.PaymentStatus)
	s.Require().NotNil(resp.FailureReason)
	s.Equal("card declined", *resp.FailureReason)

	s.Equal(types.SubscriptionStatusPastDue, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *LedgerServiceSuite) TestPersistFailedPaymentNeverDemotesConfirmed() {
	_, err := s.service.PersistSuccessfulPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)

	// A stale failure delivery for an already-settled invoice.
	_, err = s.service.PersistFailedPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)

	p, err := s.GetStores().PaymentRepo.GetByProviderInvoiceID(s.GetContext(), "stripe_in_1")
	s.NoError(err)
	s.Equal(types.PaymentStatusConfirmed, p.PaymentStatus)
	s.Nil(p.FailureReason)
}

func (s *LedgerServiceSuite) TestPersistFailedPaymentSkipsCancelledSubscription() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	_, err := s.service.PersistFailedPayment(s.GetContext(), s.paymentRequest("stripe_in_1"))
	s.NoError(err)

	// Terminal state holds; no past-due cascade.
	s.Equal(types.SubscriptionStatusCancelled, s.getSub().SubscriptionStatus)
}

func (s *LedgerServiceSuite) TestActivateFromAsyncPayment() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusIncomplete
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))
	m := s.getMembership()
	m.MembershipStatus = types.MembershipStatusPendingPayment
	s.NoError(s.GetStores().MembershipRepo.Update(s.GetContext(), m))

	err := s.service.ActivateFromAsyncPayment(s.GetContext(), s.testData.sub.ProviderSubscriptionID)
	s.NoError(err)

	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *LedgerServiceSuite) TestActivateFromAsyncPaymentAlreadyActive() {
	err := s.service.ActivateFromAsyncPayment(s.GetContext(), s.testData.sub.ProviderSubscriptionID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
}

func (s *LedgerServiceSuite) TestActivateFromAsyncPaymentLeavesPausedAlone() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusPaused
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))
	m := s.getMembership()
	m.MembershipStatus = types.MembershipStatusSuspended
	s.NoError(s.GetStores().MembershipRepo.Update(s.GetContext(), m))

	// Delayed settlement never unwinds a suspension; collection is
	// still paused on the processor side.
	err := s.service.ActivateFromAsyncPayment(s.GetContext(), s.testData.sub.ProviderSubscriptionID)
	s.NoError(err)

	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *LedgerServiceSuite) TestActivateFromAsyncPaymentRejectsCancelled() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	err := s.service.ActivateFromAsyncPayment(s.GetContext(), s.testData.sub.ProviderSubscriptionID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
