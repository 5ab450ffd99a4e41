package service

import (
	"testing"
	"time"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/testutil"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ReconciliationService
	ledger   LedgerService
	testData struct {
		sub        *subscription.Subscription
		membership *membership.Membership
	}
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *ReconciliationServiceSuite) setupService() {
	params := ServiceParams{
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
	}
	s.service = NewReconciliationService(params)
	s.ledger = NewLedgerService(params)
}

func (s *ReconciliationServiceSuite) setupTestData() {
	s.testData.sub = &subscription.Subscription{
		ID:                     "sub_test_reconcile",
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
		ID:               "mem_test_reconcile",
		SubscriptionID:   s.testData.sub.ID,
		UserID:           s.testData.sub.UserID,
		MembershipStatus: types.MembershipStatusActive,
		StartedAt:        s.GetNow().AddDate(-1, 0, 0),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), s.testData.membership))

	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "active",
	})
}

func (s *ReconciliationServiceSuite) getSub() *subscription.Subscription {
	sub, err := s.GetStores().SubRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	return sub
}

func (s *ReconciliationServiceSuite) getMembership() *membership.Membership {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), s.testData.membership.ID)
	s.NoError(err)
	return m
}

func (s *ReconciliationServiceSuite) TestReconcileCorrectSubscription() {
	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Correct)
	s.Equal(0, resp.Fixed)
	s.Equal(types.ReconcileOutcomeCorrect, resp.Results[0].Outcome)
}

func (s *ReconciliationServiceSuite) TestReconcileUnknownAccount() {
	_, err := s.service.ReconcileSubscriptions(s.GetContext(), "no-such-club")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ReconciliationServiceSuite) TestReconcileFixesDriftedStatus() {
	periodStart := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)
	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "past_due",
		CurrentPeriodStart:     &periodStart,
		CurrentPeriodEnd:       &periodEnd,
	})

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Fixed)
	s.Equal(types.SubscriptionStatusActive, resp.Results[0].FromStatus)
	s.Equal(types.SubscriptionStatusPastDue, resp.Results[0].ToStatus)

	sub := s.getSub()
	s.Equal(types.SubscriptionStatusPastDue, sub.SubscriptionStatus)
	s.Require().NotNil(sub.CurrentPeriodStart)
	s.True(sub.CurrentPeriodStart.Equal(periodStart))
	s.Require().NotNil(sub.NextBillingDate)
	s.True(sub.NextBillingDate.Equal(periodEnd))
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)

	entries, err := s.GetStores().AuditRepo.ListByEntity(s.GetContext(), "subscription", s.testData.sub.ID)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.AuditActionReconcileFix, entries[0].Action)
}

func (s *ReconciliationServiceSuite) TestReconcilePauseCollectionWinsOverBaseStatus() {
	// The processor reports "active" while a collection pause is in force;
	// locally that is a pause, not an active subscription.
	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "active",
		PauseCollectionActive:  true,
	})

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Fixed)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *ReconciliationServiceSuite) TestReconcileFlipsPhantomPayments() {
	_, err := s.ledger.PersistSuccessfulPayment(s.GetContext(), dto.RecordPaymentRequest{
		ProviderInvoiceID: "stripe_in_1",
		SubscriptionID:    s.testData.sub.ID,
		UserID:            s.testData.sub.UserID,
		Amount:            decimal.NewFromInt(100),
		Currency:          "gbp",
		Description:       "Monthly Gold April 2026",
		RoutedEntity:      testutil.TestAccountKey,
	})
	s.NoError(err)

	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "incomplete",
	})

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Fixed)
	s.Equal(1, resp.Results[0].PaymentsFlipped)

	p, err := s.GetStores().PaymentRepo.GetByProviderInvoiceID(s.GetContext(), "stripe_in_1")
	s.NoError(err)
	s.Equal(types.PaymentStatusFailed, p.PaymentStatus)
	s.Require().NotNil(p.FailureReason)
	s.Equal("incomplete upstream", *p.FailureReason)

	s.Equal(types.SubscriptionStatusIncomplete, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusPendingPayment, s.getMembership().MembershipStatus)
}

func (s *ReconciliationServiceSuite) TestReconcileFixesMembershipOnly() {
	// Subscription matches upstream; only the membership drifted.
	m := s.getMembership()
	m.MembershipStatus = types.MembershipStatusSuspended
	s.NoError(s.GetStores().MembershipRepo.Update(s.GetContext(), m))

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Fixed)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *ReconciliationServiceSuite) TestReconcileSkipsSubscriptionWithoutProviderID() {
	unlinked := &subscription.Subscription{
		ID:                 "sub_unlinked",
		UserID:             "user_2",
		AccountKey:         testutil.TestAccountKey,
		PlanName:           "Monthly Silver",
		MonthlyPrice:       decimal.NewFromInt(60),
		Currency:           "gbp",
		SubscriptionStatus: types.SubscriptionStatusActive,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), unlinked))

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Skipped)
	s.Equal(1, resp.Correct)
}

func (s *ReconciliationServiceSuite) TestReconcileRecordsProviderErrors() {
	s.GetProvider().FailWith("GetSubscription", ierr.NewError("processor down").Mark(ierr.ErrIntegration))

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Errors)
	s.Equal(types.ReconcileOutcomeError, resp.Results[0].Outcome)

	// Local state is left untouched on a fetch failure.
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
}

func (s *ReconciliationServiceSuite) TestReconcileCancelledUpstream() {
	cancelledAt := time.Date(2026, time.March, 31, 8, 0, 0, 0, time.UTC)
	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "canceled",
		CancelledAt:            &cancelledAt,
	})

	resp, err := s.service.ReconcileSubscriptions(s.GetContext(), testutil.TestAccountKey)
	s.NoError(err)
	s.Equal(1, resp.Fixed)

	sub := s.getSub()
	s.Equal(types.SubscriptionStatusCancelled, sub.SubscriptionStatus)
	s.Require().NotNil(sub.CancelledAt)
	s.True(sub.CancelledAt.Equal(cancelledAt))

	m := s.getMembership()
	s.Equal(types.MembershipStatusCancelled, m.MembershipStatus)
	s.NotNil(m.EndedAt)
}
