package service

import (
	"testing"
	"time"

	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/testutil"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionSyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionSyncService
	testData struct {
		sub        *subscription.Subscription
		membership *membership.Membership
	}
}

func TestSubscriptionSyncService(t *testing.T) {
	suite.Run(t, new(SubscriptionSyncServiceSuite))
}

func (s *SubscriptionSyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *SubscriptionSyncServiceSuite) setupService() {
	s.service = NewSubscriptionSyncService(ServiceParams{
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

func (s *SubscriptionSyncServiceSuite) setupTestData() {
	s.testData.sub = &subscription.Subscription{
		ID:                     "sub_test_sync",
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
		ID:               "mem_test_sync",
		SubscriptionID:   s.testData.sub.ID,
		UserID:           s.testData.sub.UserID,
		MembershipStatus: types.MembershipStatusActive,
		StartedAt:        s.GetNow().AddDate(-1, 0, 0),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), s.testData.membership))
}

func (s *SubscriptionSyncServiceSuite) getSub() *subscription.Subscription {
	sub, err := s.GetStores().SubRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	return sub
}

func (s *SubscriptionSyncServiceSuite) getMembership() *membership.Membership {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), s.testData.membership.ID)
	s.NoError(err)
	return m
}

func (s *SubscriptionSyncServiceSuite) TestSyncSubscriptionState() {
	periodStart := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	err := s.service.SyncSubscriptionState(s.GetContext(), &provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "past_due",
		CurrentPeriodStart:     &periodStart,
		CurrentPeriodEnd:       &periodEnd,
		CancelAtPeriodEnd:      true,
	})
	s.NoError(err)

	sub := s.getSub()
	s.Equal(types.SubscriptionStatusPastDue, sub.SubscriptionStatus)
	s.True(sub.CancelAtPeriodEnd)
	s.Require().NotNil(sub.CurrentPeriodEnd)
	s.True(sub.CurrentPeriodEnd.Equal(periodEnd))
	// Cancelling at period end leaves nothing more to bill.
	s.Nil(sub.NextBillingDate)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *SubscriptionSyncServiceSuite) TestSyncSubscriptionStateSetsNextBillingDate() {
	periodStart := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	err := s.service.SyncSubscriptionState(s.GetContext(), &provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "active",
		CurrentPeriodStart:     &periodStart,
		CurrentPeriodEnd:       &periodEnd,
	})
	s.NoError(err)

	sub := s.getSub()
	s.Require().NotNil(sub.NextBillingDate)
	s.True(sub.NextBillingDate.Equal(periodEnd))

	// A deletion event clears the pending charge date.
	s.NoError(s.service.MarkSubscriptionCancelled(s.GetContext(), s.testData.sub.ProviderSubscriptionID))
	s.Nil(s.getSub().NextBillingDate)
}

func (s *SubscriptionSyncServiceSuite) TestSyncSubscriptionStateUnknownSubscription() {
	err := s.service.SyncSubscriptionState(s.GetContext(), &provider.SubscriptionState{
		ProviderSubscriptionID: "stripe_sub_never_seen",
		Status:                 "active",
	})
	// Unknown subscriptions are provisioned elsewhere; the event drops.
	s.NoError(err)
}

func (s *SubscriptionSyncServiceSuite) TestSyncSubscriptionStatePauseCollectionWins() {
	err := s.service.SyncSubscriptionState(s.GetContext(), &provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "active",
		PauseCollectionActive:  true,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *SubscriptionSyncServiceSuite) TestMarkSubscriptionCancelled() {
	err := s.service.MarkSubscriptionCancelled(s.GetContext(), s.testData.sub.ProviderSubscriptionID)
	s.NoError(err)

	sub := s.getSub()
	s.Equal(types.SubscriptionStatusCancelled, sub.SubscriptionStatus)
	s.NotNil(sub.CancelledAt)

	m := s.getMembership()
	s.Equal(types.MembershipStatusCancelled, m.MembershipStatus)
	s.NotNil(m.EndedAt)

	// A second deletion delivery is a no-op.
	s.NoError(s.service.MarkSubscriptionCancelled(s.GetContext(), s.testData.sub.ProviderSubscriptionID))
}

func (s *SubscriptionSyncServiceSuite) TestActivateOnPaymentFromPastDue() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusPastDue
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	s.NoError(s.service.ActivateOnPayment(s.GetContext(), s.testData.sub.ID))
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *SubscriptionSyncServiceSuite) TestActivateOnPaymentNeverUnwindsPause() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusPaused
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	s.NoError(s.service.ActivateOnPayment(s.GetContext(), s.testData.sub.ID))
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
}

func (s *SubscriptionSyncServiceSuite) TestUpsertInvoice() {
	periodStart := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	inv, err := s.service.UpsertInvoice(s.GetContext(), &provider.Invoice{
		ProviderInvoiceID:      "stripe_in_1",
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "open",
		Total:                  decimal.NewFromInt(100),
		Currency:               "gbp",
		PeriodStart:            &periodStart,
		PeriodEnd:              &periodEnd,
	})
	s.NoError(err)
	s.Equal(s.testData.sub.ID, inv.SubscriptionID)
	s.Equal("open", inv.ProviderStatus)
	s.Nil(inv.PaidAt)

	// The paid delivery refreshes the same row.
	again, err := s.service.UpsertInvoice(s.GetContext(), &provider.Invoice{
		ProviderInvoiceID:      "stripe_in_1",
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "paid",
		Total:                  decimal.NewFromInt(100),
		Currency:               "gbp",
		PeriodStart:            &periodStart,
		PeriodEnd:              &periodEnd,
	})
	s.NoError(err)
	s.Equal(inv.ID, again.ID)
	s.Equal("paid", again.ProviderStatus)
	s.NotNil(again.PaidAt)

	invoices, err := s.GetStores().InvoiceRepo.ListBySubscription(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	s.Len(invoices, 1)
}

func (s *SubscriptionSyncServiceSuite) TestUpsertInvoiceUnknownSubscription() {
	inv, err := s.service.UpsertInvoice(s.GetContext(), &provider.Invoice{
		ProviderInvoiceID:      "stripe_in_orphan",
		ProviderSubscriptionID: "stripe_sub_never_seen",
		Status:                 "open",
		Total:                  decimal.NewFromInt(50),
		Currency:               "gbp",
	})
	s.NoError(err)
	s.Empty(inv.SubscriptionID)
}
