package service

import (
	"testing"
	"time"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/pause"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/testutil"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PauseServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  PauseService
	testData struct {
		sub        *subscription.Subscription
		membership *membership.Membership
	}
}

func TestPauseService(t *testing.T) {
	suite.Run(t, new(PauseServiceSuite))
}

func (s *PauseServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *PauseServiceSuite) setupService() {
	s.service = NewPauseService(ServiceParams{
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

func (s *PauseServiceSuite) setupTestData() {
	s.testData.sub = &subscription.Subscription{
		ID:                     "sub_test_pause",
		UserID:                 "user_1",
		AccountKey:             testutil.TestAccountKey,
		ProviderSubscriptionID: "stripe_sub_1",
		ProviderCustomerID:     "stripe_cus_1",
		PlanName:               "Monthly Gold",
		MonthlyPrice:           decimal.NewFromInt(100),
		Currency:               "gbp",
		SubscriptionStatus:     types.SubscriptionStatusActive,
		BaseModel:              types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubRepo.Create(s.GetContext(), s.testData.sub))

	s.testData.membership = &membership.Membership{
		ID:               "mem_test_pause",
		SubscriptionID:   s.testData.sub.ID,
		UserID:           s.testData.sub.UserID,
		MembershipStatus: types.MembershipStatusActive,
		StartedAt:        s.GetNow().AddDate(-1, 0, 0),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().MembershipRepo.Create(s.GetContext(), s.testData.membership))

	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		ProviderCustomerID:     s.testData.sub.ProviderCustomerID,
		Status:                 "active",
	})
}

func (s *PauseServiceSuite) scheduleMonths(months ...string) *dto.SchedulePauseResponse {
	resp, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		Months:         months,
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *PauseServiceSuite) getWindow(id string) *pause.Window {
	w, err := s.GetStores().PauseRepo.Get(s.GetContext(), id)
	s.NoError(err)
	return w
}

func (s *PauseServiceSuite) getSub() *subscription.Subscription {
	sub, err := s.GetStores().SubRepo.Get(s.GetContext(), s.testData.sub.ID)
	s.NoError(err)
	return sub
}

func (s *PauseServiceSuite) getMembership() *membership.Membership {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), s.testData.membership.ID)
	s.NoError(err)
	return m
}

func (s *PauseServiceSuite) TestSchedulePauseMonths() {
	resp := s.scheduleMonths("2026-05", "2026-06")
	s.Len(resp.Windows, 2)

	for _, w := range resp.Windows {
		stored := s.getWindow(w.ID)
		s.Equal(types.PauseWindowKindMonth, stored.Kind)
		s.Equal(types.PauseWindowStatusScheduled, stored.PauseStatus)
	}
	s.Equal("2026-05", resp.Windows[0].Month)
	s.Equal("2026-06", resp.Windows[1].Month)

	// Scheduling is bookkeeping only; nothing goes out to the processor.
	s.Empty(s.GetProvider().Calls())

	entries, err := s.GetStores().AuditRepo.ListByEntity(s.GetContext(), "subscription", s.testData.sub.ID)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.AuditActionPauseScheduleCreate, entries[0].Action)
}

func (s *PauseServiceSuite) TestSchedulePauseRejectsOverlap() {
	s.scheduleMonths("2026-05")

	_, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		Months:         []string{"2026-05", "2026-07"},
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PauseServiceSuite) TestSchedulePauseRejectsCancelledSubscription() {
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	_, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		Months:         []string{"2026-05"},
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PauseServiceSuite) TestSchedulePauseOpenEnded() {
	resp, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-06",
		Behavior:       types.PauseBehaviorKeepAsDraft,
	})
	s.NoError(err)
	s.Len(resp.Windows, 1)
	s.Equal(types.PauseWindowKindOpenEnded, resp.Windows[0].Kind)
	s.Nil(resp.Windows[0].EndDate)

	// A second open-ended pause always overlaps the first.
	_, err = s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2027-01",
		Behavior:       types.PauseBehaviorKeepAsDraft,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PauseServiceSuite) TestSchedulePauseOpenEndedRejectsLaterConcrete() {
	s.scheduleMonths("2026-08")

	_, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-06",
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *PauseServiceSuite) TestCancelScheduledPause() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	cancelResp, err := s.service.CancelPause(s.GetContext(), windowID)
	s.NoError(err)
	s.False(cancelResp.AlreadyDone)
	s.True(cancelResp.CreditAmount.IsZero())
	s.Equal(types.PauseWindowStatusCancelled, s.getWindow(windowID).PauseStatus)

	// A never-applied window has no external footprint to undo.
	s.Empty(s.GetProvider().Calls())
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
}

func (s *PauseServiceSuite) TestCancelPauseTwice() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	_, err := s.service.CancelPause(s.GetContext(), windowID)
	s.NoError(err)

	again, err := s.service.CancelPause(s.GetContext(), windowID)
	s.NoError(err)
	s.True(again.AlreadyDone)
}

func (s *PauseServiceSuite) TestCancelActivePauseCreditsElapsedDays() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	s.SetNow(time.Date(2026, time.May, 1, 3, 0, 0, 0, time.UTC))
	run, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)

	// Cancel mid-month: May 1 through May 11 elapsed, 11 days at 100/31.
	s.SetNow(time.Date(2026, time.May, 11, 15, 0, 0, 0, time.UTC))
	cancelResp, err := s.service.CancelPause(s.GetContext(), windowID)
	s.NoError(err)
	s.Equal("35.48", cancelResp.CreditAmount.StringFixed(2))

	w := s.getWindow(windowID)
	s.Equal(types.PauseWindowStatusCancelled, w.PauseStatus)
	s.Equal("35.48", w.CreditAmount.StringFixed(2))
	s.NotNil(w.AppliedResumeAt)

	s.Len(s.GetProvider().CallsTo("ResumeCollection"), 1)
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *PauseServiceSuite) TestCancelActivePauseAfterMonthElapsedCreditsNothing() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	s.SetNow(time.Date(2026, time.May, 1, 3, 0, 0, 0, time.UTC))
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)

	// The resume pass never ran and the member cancels in June. May was
	// fully suppressed and never billed, so nothing is owed back.
	s.SetNow(time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC))
	cancelResp, err := s.service.CancelPause(s.GetContext(), windowID)
	s.NoError(err)
	s.True(cancelResp.CreditAmount.IsZero())

	w := s.getWindow(windowID)
	s.Equal(types.PauseWindowStatusCancelled, w.PauseStatus)
	s.True(w.CreditAmount.IsZero())
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
}

func (s *PauseServiceSuite) TestCancelActiveOpenEndedPauseCreditsPartialMonthOnly() {
	resp, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-05",
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.NoError(err)
	masterID := resp.Windows[0].ID

	// The verify pass finds no concrete row for May and applies the
	// master directly.
	s.SetNow(time.Date(2026, time.May, 1, 6, 0, 0, 0, time.UTC))
	run, err := s.service.VerifyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(types.PauseWindowStatusActive, s.getWindow(masterID).PauseStatus)

	// May through July were fully suppressed and never billed; only
	// August 1 through 15 settles, at August's daily rate.
	s.SetNow(time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC))
	cancelResp, err := s.service.CancelPause(s.GetContext(), masterID)
	s.NoError(err)
	s.Equal("48.39", cancelResp.CreditAmount.StringFixed(2))
	s.Equal(types.PauseWindowStatusCancelled, s.getWindow(masterID).PauseStatus)
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
}

func (s *PauseServiceSuite) TestCancelConcludedPauseRejected() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	w := s.getWindow(windowID)
	w.PauseStatus = types.PauseWindowStatusCreditApplied
	s.NoError(s.GetStores().PauseRepo.Update(s.GetContext(), w))

	_, err := s.service.CancelPause(s.GetContext(), windowID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PauseServiceSuite) TestCancelMasterCancelsMaterializedChildren() {
	resp, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-05",
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.NoError(err)
	masterID := resp.Windows[0].ID

	// The April pass materializes the May child from the master.
	_, err = s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.April})
	s.NoError(err)

	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May}, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	child := windows[0]
	s.Require().NotNil(child.MasterID)
	s.Equal(masterID, *child.MasterID)

	_, err = s.service.CancelPause(s.GetContext(), masterID)
	s.NoError(err)

	s.Equal(types.PauseWindowStatusCancelled, s.getWindow(masterID).PauseStatus)
	s.Equal(types.PauseWindowStatusCancelled, s.getWindow(child.ID).PauseStatus)
}

func (s *PauseServiceSuite) TestApplyPauses() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	run, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(0, run.Failed)
	s.Equal(dto.PauseRunOutcomeApplied, run.Results[0].Outcome)

	calls := s.GetProvider().CallsTo("PauseCollection")
	s.Require().Len(calls, 1)
	s.Equal(s.testData.sub.ProviderSubscriptionID, calls[0].ID)
	s.Equal(types.PauseBehaviorVoidInvoice, calls[0].Behavior)

	w := s.getWindow(windowID)
	s.Equal(types.PauseWindowStatusActive, w.PauseStatus)
	s.NotNil(w.AppliedPauseAt)

	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *PauseServiceSuite) TestApplyPausesExternalFailureLeavesWindowScheduled() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	s.GetProvider().FailWith("PauseCollection", ierr.NewError("processor down").Mark(ierr.ErrIntegration))

	run, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Failed)
	s.Equal(dto.PauseRunOutcomeError, run.Results[0].Outcome)

	// No local write happened, so the next pass retries cleanly.
	s.Equal(types.PauseWindowStatusScheduled, s.getWindow(windowID).PauseStatus)
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *PauseServiceSuite) TestApplyPausesMaterializesOneMonthAhead() {
	_, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-06",
		Behavior:       types.PauseBehaviorKeepAsDraft,
	})
	s.NoError(err)

	// April: June is two months out, nothing materializes yet.
	run, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.April})
	s.NoError(err)
	s.Empty(run.Results)

	june := types.MonthKey{Year: 2026, Month: time.June}
	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), june, nil)
	s.NoError(err)
	s.Empty(windows)

	// May: the June child appears, still scheduled.
	_, err = s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	windows, err = s.GetStores().PauseRepo.ListByMonth(s.GetContext(), june, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	s.Equal(types.PauseWindowStatusScheduled, windows[0].PauseStatus)
	s.Equal(types.PauseBehaviorKeepAsDraft, windows[0].Behavior)
	s.Empty(s.GetProvider().CallsTo("PauseCollection"))

	// June: the child applies.
	run, err = s.service.ApplyPauses(s.GetContext(), june)
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Len(s.GetProvider().CallsTo("PauseCollection"), 1)
}

func (s *PauseServiceSuite) TestApplyPausesMaterializesSameMonthMaster() {
	_, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-05",
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.NoError(err)

	// The master starts in the month of the pass itself: the May run
	// materializes the May child and applies it in the same sweep.
	may := types.MonthKey{Year: 2026, Month: time.May}
	run, err := s.service.ApplyPauses(s.GetContext(), may)
	s.NoError(err)
	s.Equal(1, run.Succeeded)

	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), may, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	s.Equal(types.PauseWindowStatusActive, windows[0].PauseStatus)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Len(s.GetProvider().CallsTo("PauseCollection"), 1)
}

func (s *PauseServiceSuite) TestApplyPausesConcreteRowBlocksMaterialization() {
	resp, err := s.service.SchedulePause(s.GetContext(), dto.SchedulePauseRequest{
		SubscriptionID: s.testData.sub.ID,
		OpenEnded:      true,
		StartMonth:     "2026-05",
		Behavior:       types.PauseBehaviorVoidInvoice,
	})
	s.NoError(err)
	masterID := resp.Windows[0].ID

	// Materialize the May child, then cancel it: the member wants May billed.
	_, err = s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.April})
	s.NoError(err)
	may := types.MonthKey{Year: 2026, Month: time.May}
	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), may, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	_, err = s.service.CancelPause(s.GetContext(), windows[0].ID)
	s.NoError(err)
	s.Equal(types.PauseWindowStatusScheduled, s.getWindow(masterID).PauseStatus)

	// Re-running the materializing pass must not resurrect the cancelled month.
	_, err = s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.April})
	s.NoError(err)
	windows, err = s.GetStores().PauseRepo.ListByMonth(s.GetContext(), may, nil)
	s.NoError(err)
	s.Len(windows, 1)
	s.Equal(types.PauseWindowStatusCancelled, windows[0].PauseStatus)
}

func (s *PauseServiceSuite) TestResumePauses() {
	s.scheduleMonths("2026-05")
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)

	s.GetProvider().AddOpenInvoice(&provider.Invoice{
		ProviderInvoiceID:      "stripe_in_open",
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "open",
		Total:                  decimal.NewFromInt(100),
		Currency:               "gbp",
	})

	run, err := s.service.ResumePauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.June})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeResumed, run.Results[0].Outcome)

	s.Len(s.GetProvider().CallsTo("ResumeCollection"), 1)
	s.Len(s.GetProvider().CallsTo("PayInvoice"), 1)

	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May}, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	s.Equal(types.PauseWindowStatusCreditApplied, windows[0].PauseStatus)
	s.NotNil(windows[0].AppliedResumeAt)

	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}

func (s *PauseServiceSuite) TestResumePausesKeepsContinuingCoverage() {
	s.scheduleMonths("2026-05", "2026-06")
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)

	run, err := s.service.ResumePauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.June})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeConcluded, run.Results[0].Outcome)

	// The pause carries straight into June; collection stays suspended.
	s.Empty(s.GetProvider().CallsTo("ResumeCollection"))
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)

	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May}, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	s.Equal(types.PauseWindowStatusCreditApplied, windows[0].PauseStatus)
}

func (s *PauseServiceSuite) TestResumePausesExternalFailureLeavesWindowActive() {
	s.scheduleMonths("2026-05")
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)

	s.GetProvider().FailWith("ResumeCollection", ierr.NewError("processor down").Mark(ierr.ErrIntegration))

	run, err := s.service.ResumePauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.June})
	s.NoError(err)
	s.Equal(1, run.Failed)

	windows, err := s.GetStores().PauseRepo.ListByMonth(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May}, nil)
	s.NoError(err)
	s.Require().Len(windows, 1)
	s.Equal(types.PauseWindowStatusActive, windows[0].PauseStatus)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
}

func (s *PauseServiceSuite) TestVerifyPausesReappliesMissedPause() {
	resp := s.scheduleMonths("2026-05")
	windowID := resp.Windows[0].ID

	// The apply pass never ran; the processor is still collecting and has
	// generated an invoice for the suppressed month.
	s.GetProvider().AddOpenInvoice(&provider.Invoice{
		ProviderInvoiceID:      "stripe_in_stray",
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "open",
		Total:                  decimal.NewFromInt(100),
		Currency:               "gbp",
	})

	run, err := s.service.VerifyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeFixed, run.Results[0].Outcome)

	s.Len(s.GetProvider().CallsTo("PauseCollection"), 1)
	s.Len(s.GetProvider().CallsTo("VoidInvoice"), 1)
	s.Equal(types.PauseWindowStatusActive, s.getWindow(windowID).PauseStatus)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
}

func (s *PauseServiceSuite) TestVerifyPausesRealignsLocalDrift() {
	s.scheduleMonths("2026-05")
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)

	// Something clobbered the local status; the external pause is intact.
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))

	run, err := s.service.VerifyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeFixed, run.Results[0].Outcome)

	// Fixed locally, without touching the already-correct external state.
	s.Len(s.GetProvider().CallsTo("PauseCollection"), 1)
	s.Equal(types.SubscriptionStatusPaused, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusSuspended, s.getMembership().MembershipStatus)
}

func (s *PauseServiceSuite) TestVerifyPausesConsistentStateIsNoop() {
	s.scheduleMonths("2026-05")
	_, err := s.service.ApplyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)

	run, err := s.service.VerifyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeAlreadyDone, run.Results[0].Outcome)
}

func (s *PauseServiceSuite) TestVerifyPausesResumesUncoveredSubscription() {
	// Paused locally and externally, but no window covers May.
	sub := s.getSub()
	sub.SubscriptionStatus = types.SubscriptionStatusPaused
	s.NoError(s.GetStores().SubRepo.Update(s.GetContext(), sub))
	s.GetProvider().SetSubscription(&provider.SubscriptionState{
		ProviderSubscriptionID: s.testData.sub.ProviderSubscriptionID,
		Status:                 "active",
		PauseCollectionActive:  true,
	})

	run, err := s.service.VerifyPauses(s.GetContext(), types.MonthKey{Year: 2026, Month: time.May})
	s.NoError(err)
	s.Equal(1, run.Succeeded)
	s.Equal(dto.PauseRunOutcomeFixed, run.Results[0].Outcome)

	s.Len(s.GetProvider().CallsTo("ResumeCollection"), 1)
	s.Equal(types.SubscriptionStatusActive, s.getSub().SubscriptionStatus)
	s.Equal(types.MembershipStatusActive, s.getMembership().MembershipStatus)
}
