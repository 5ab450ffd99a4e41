package service

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/api/dto"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/pause"
	"github.com/clubroll/clubroll/internal/domain/proration"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PauseService owns the pause window state machine. Schedule and cancel
// are request-driven; apply, resume and verify run as scheduled passes
// and aggregate per-window results instead of failing the batch.
type PauseService interface {
	SchedulePause(ctx context.Context, req dto.SchedulePauseRequest) (*dto.SchedulePauseResponse, error)
	CancelPause(ctx context.Context, windowID string) (*dto.CancelPauseResponse, error)
	ApplyPauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error)
	ResumePauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error)
	VerifyPauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error)
}

type pauseService struct {
	ServiceParams
}

// NewPauseService creates a new pause service
func NewPauseService(params ServiceParams) PauseService {
	return &pauseService{ServiceParams: params}
}

func (s *pauseService) SchedulePause(ctx context.Context, req dto.SchedulePauseRequest) (*dto.SchedulePauseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus.IsTerminal() {
		return nil, ierr.NewError("subscription is cancelled").
			WithHint("Cancelled subscriptions cannot be paused").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	existing, err := s.PauseRepo.ListNonCancelledForSubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	var windows []*pause.Window
	if req.OpenEnded {
		startMonth, err := types.ParseMonthKey(req.StartMonth)
		if err != nil {
			return nil, err
		}
		if err := s.checkOpenEndedOverlap(existing, startMonth); err != nil {
			return nil, err
		}
		windows = append(windows, &pause.Window{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE_WINDOW),
			SubscriptionID: sub.ID,
			Kind:           types.PauseWindowKindOpenEnded,
			PauseStatus:    types.PauseWindowStatusScheduled,
			StartDate:      startMonth.Start(),
			Behavior:       req.Behavior,
			CreditAmount:   decimal.Zero,
			BaseModel:      types.GetDefaultBaseModel(ctx),
		})
	} else {
		months, err := req.MonthKeys()
		if err != nil {
			return nil, err
		}
		for _, month := range months {
			if covered, by := coveredBy(existing, month); covered {
				return nil, ierr.NewError("month already covered by a pause window").
					WithHint("The requested month overlaps an existing pause").
					WithReportableDetails(map[string]any{
						"subscription_id": sub.ID,
						"month":           month.String(),
						"window_id":       by.ID,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			end := month.End()
			windows = append(windows, &pause.Window{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE_WINDOW),
				SubscriptionID: sub.ID,
				Kind:           types.PauseWindowKindMonth,
				PauseStatus:    types.PauseWindowStatusScheduled,
				Year:           month.Year,
				Month:          month.Month,
				StartDate:      month.Start(),
				EndDate:        &end,
				Behavior:       req.Behavior,
				CreditAmount:   decimal.Zero,
				BaseModel:      types.GetDefaultBaseModel(ctx),
			})
		}
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		for _, w := range windows {
			if err := w.Validate(); err != nil {
				return err
			}
			if err := s.PauseRepo.Create(txCtx, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, types.AuditActionPauseScheduleCreate, "subscription", sub.ID, types.PauseSchedulePayload{
		SubscriptionID: sub.ID,
		WindowIDs: lo.Map(windows, func(w *pause.Window, _ int) string {
			return w.ID
		}),
		Behavior:  req.Behavior,
		Months:    req.Months,
		OpenEnded: req.OpenEnded,
	})

	resp := &dto.SchedulePauseResponse{}
	for _, w := range windows {
		resp.Windows = append(resp.Windows, dto.NewPauseWindowResponse(w))
	}
	return resp, nil
}

// checkOpenEndedOverlap rejects a new master when any existing window
// covers a month at or after its start. Two open-ended pauses always
// overlap; a concrete window conflicts when its month is not earlier.
func (s *pauseService) checkOpenEndedOverlap(existing []*pause.Window, startMonth types.MonthKey) error {
	for _, w := range existing {
		conflict := w.Kind == types.PauseWindowKindOpenEnded ||
			!w.MonthKey().Before(startMonth)
		if conflict {
			return ierr.NewError("open-ended pause overlaps an existing window").
				WithHint("An existing pause already covers part of the requested range").
				WithReportableDetails(map[string]any{
					"window_id": w.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return nil
}

// coveredBy reports whether any existing non-cancelled window covers the
// month, and which one.
func coveredBy(existing []*pause.Window, month types.MonthKey) (bool, *pause.Window) {
	for _, w := range existing {
		if w.Covers(month) {
			return true, w
		}
	}
	return false, nil
}

func (s *pauseService) CancelPause(ctx context.Context, windowID string) (*dto.CancelPauseResponse, error) {
	w, err := s.PauseRepo.Get(ctx, windowID)
	if err != nil {
		return nil, err
	}

	switch w.PauseStatus {
	case types.PauseWindowStatusCancelled:
		// Re-cancelling is a success, not an error.
		return &dto.CancelPauseResponse{
			Window:       dto.NewPauseWindowResponse(w),
			CreditAmount: w.CreditAmount,
			AlreadyDone:  true,
		}, nil
	case types.PauseWindowStatusCreditApplied:
		return nil, ierr.NewError("pause window already concluded").
			WithHint("A window whose credit was applied cannot be cancelled").
			WithReportableDetails(map[string]any{
				"window_id": w.ID,
				"status":    w.PauseStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := s.SubRepo.Get(ctx, w.SubscriptionID)
	if err != nil {
		return nil, err
	}

	credit := decimal.Zero
	if w.PauseStatus == types.PauseWindowStatusActive {
		credit, err = s.cancelActiveWindow(ctx, sub, w)
		if err != nil {
			return nil, err
		}
	} else {
		// SCHEDULED: zero-cost cancellation, no external side effects.
		w.PauseStatus = types.PauseWindowStatusCancelled
		w.UpdatedAt = s.now()
		if err := s.PauseRepo.Update(ctx, w); err != nil {
			return nil, err
		}
	}

	// Cancelling a master also cancels the scheduled rows materialized
	// from it; months the member explicitly paused stay untouched.
	if w.Kind == types.PauseWindowKindOpenEnded {
		if err := s.cancelMaterializedChildren(ctx, w); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, types.AuditActionPauseScheduleCancel, "pause_window", w.ID, types.PauseSchedulePayload{
		SubscriptionID: w.SubscriptionID,
		WindowIDs:      []string{w.ID},
		CreditAmount:   credit,
	})

	return &dto.CancelPauseResponse{
		Window:       dto.NewPauseWindowResponse(w),
		CreditAmount: credit,
	}, nil
}

// cancelActiveWindow resumes collection externally, then records the
// cancellation with the settlement for the elapsed paused range. Months
// the pause covered in full were never billed and carry no credit; only
// partially elapsed months settle at their daily rate. The external
// resume comes first; if it fails nothing is written locally.
func (s *pauseService) cancelActiveWindow(ctx context.Context, sub *subscription.Subscription, w *pause.Window) (decimal.Decimal, error) {
	elapsedEnd := s.now()
	if w.EndDate != nil && w.EndDate.Before(elapsedEnd) {
		elapsedEnd = *w.EndDate
	}

	credit := decimal.Zero
	if !elapsedEnd.Before(w.StartDate) {
		breakdown, err := proration.CalculateSettlementBreakdown(w.StartDate, elapsedEnd, sub.MonthlyPrice)
		if err != nil {
			return decimal.Zero, err
		}
		credit = breakdown.TotalSettlement
	}

	if err := s.Provider.ResumeCollection(ctx, sub.AccountKey, sub.ProviderSubscriptionID); err != nil {
		return decimal.Zero, err
	}

	now := s.now()
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		w.PauseStatus = types.PauseWindowStatusCancelled
		w.CreditAmount = credit
		w.AppliedResumeAt = &now
		w.UpdatedAt = now
		if err := s.PauseRepo.Update(txCtx, w); err != nil {
			return err
		}
		return s.setSubscriptionStatus(txCtx, sub, types.SubscriptionStatusActive)
	})
	if err != nil {
		// The external resume already happened and has no clean inverse;
		// the verify pass converges the local state later.
		s.Logger.Errorw("collection resumed externally but local cancel failed",
			"error", err,
			"window_id", w.ID,
			"subscription_id", sub.ID,
		)
		return decimal.Zero, err
	}

	return credit, nil
}

func (s *pauseService) cancelMaterializedChildren(ctx context.Context, master *pause.Window) error {
	all, err := s.PauseRepo.ListBySubscription(ctx, master.SubscriptionID)
	if err != nil {
		return err
	}
	for _, child := range all {
		if child.MasterID == nil || *child.MasterID != master.ID {
			continue
		}
		if child.PauseStatus != types.PauseWindowStatusScheduled {
			continue
		}
		child.PauseStatus = types.PauseWindowStatusCancelled
		child.UpdatedAt = s.now()
		if err := s.PauseRepo.Update(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (s *pauseService) ApplyPauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error) {
	resp := &dto.PauseRunResponse{Month: asOf.String()}

	// Masters materialize one month ahead, never retroactively. The
	// current month is also materialized so a master starting in the
	// month the pass runs applies immediately instead of waiting for
	// the verify backstop.
	if err := s.materializeMasters(ctx, asOf, resp); err != nil {
		return nil, err
	}
	if err := s.materializeMasters(ctx, asOf.Next(), resp); err != nil {
		return nil, err
	}

	windows, err := s.PauseRepo.ListByMonth(ctx, asOf, []types.PauseWindowStatus{types.PauseWindowStatusScheduled})
	if err != nil {
		return nil, err
	}

	for _, w := range windows {
		s.applyOne(ctx, w, types.AuditActionPauseAutoApply, resp)
	}

	return resp, nil
}

// applyOne suspends collection for one window. The external side effect
// comes first; local state is written only after confirmed success, so a
// failed window retries cleanly on the next pass.
func (s *pauseService) applyOne(ctx context.Context, w *pause.Window, action types.AuditAction, resp *dto.PauseRunResponse) {
	sub, err := s.SubRepo.Get(ctx, w.SubscriptionID)
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: w.SubscriptionID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	if err := s.Provider.PauseCollection(ctx, sub.AccountKey, sub.ProviderSubscriptionID, w.Behavior); err != nil {
		s.Logger.Errorw("failed to suspend collection, leaving window for retry",
			"error", err,
			"window_id", w.ID,
			"subscription_id", sub.ID,
		)
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	now := s.now()
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		w.PauseStatus = types.PauseWindowStatusActive
		w.AppliedPauseAt = &now
		w.UpdatedAt = now
		if err := s.PauseRepo.Update(txCtx, w); err != nil {
			return err
		}
		return s.setSubscriptionStatus(txCtx, sub, types.SubscriptionStatusPaused)
	})
	if err != nil {
		// Collection is suspended externally but the local write failed;
		// the verify pass converges this later.
		s.Logger.Errorw("collection suspended externally but local write failed",
			"error", err,
			"window_id", w.ID,
			"subscription_id", sub.ID,
		)
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	s.recordAudit(ctx, action, "pause_window", w.ID, types.PauseApplyPayload{
		SubscriptionID: sub.ID,
		WindowID:       w.ID,
		Month:          w.MonthKey().String(),
		AppliedAt:      &now,
	})

	outcome := dto.PauseRunOutcomeApplied
	if action == types.AuditActionPauseVerifyFix {
		outcome = dto.PauseRunOutcomeFixed
	}
	resp.Add(dto.PauseRunResult{
		SubscriptionID: sub.ID,
		WindowID:       w.ID,
		Outcome:        outcome,
	})
}

// materializeMasters creates a concrete row for every open-ended master
// covering the target month, unless a concrete row for that month already
// exists. An explicit concrete row always overrides a master, cancelled
// ones included.
func (s *pauseService) materializeMasters(ctx context.Context, month types.MonthKey, resp *dto.PauseRunResponse) error {
	masters, err := s.PauseRepo.ListOpenEnded(ctx)
	if err != nil {
		return err
	}
	if len(masters) == 0 {
		return nil
	}

	concrete, err := s.PauseRepo.ListByMonth(ctx, month, nil)
	if err != nil {
		return err
	}
	hasConcrete := make(map[string]bool, len(concrete))
	for _, w := range concrete {
		hasConcrete[w.SubscriptionID] = true
	}

	for _, master := range masters {
		if !master.Covers(month) || hasConcrete[master.SubscriptionID] {
			continue
		}
		end := month.End()
		child := &pause.Window{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE_WINDOW),
			SubscriptionID: master.SubscriptionID,
			Kind:           types.PauseWindowKindMonth,
			PauseStatus:    types.PauseWindowStatusScheduled,
			Year:           month.Year,
			Month:          month.Month,
			StartDate:      month.Start(),
			EndDate:        &end,
			Behavior:       master.Behavior,
			MasterID:       &master.ID,
			CreditAmount:   decimal.Zero,
			BaseModel:      types.GetDefaultBaseModel(ctx),
		}
		if err := s.PauseRepo.Create(ctx, child); err != nil {
			if ierr.IsAlreadyExists(err) {
				continue
			}
			resp.Add(dto.PauseRunResult{
				SubscriptionID: master.SubscriptionID,
				WindowID:       master.ID,
				Outcome:        dto.PauseRunOutcomeError,
				Detail:         err.Error(),
			})
		}
	}

	return nil
}

func (s *pauseService) ResumePauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error) {
	resp := &dto.PauseRunResponse{Month: asOf.String()}

	windows, err := s.PauseRepo.ListByMonth(ctx, asOf.Prev(), []types.PauseWindowStatus{types.PauseWindowStatusActive})
	if err != nil {
		return nil, err
	}

	for _, w := range windows {
		continuing, err := s.hasCoverage(ctx, w.SubscriptionID, asOf)
		if err != nil {
			resp.Add(dto.PauseRunResult{
				SubscriptionID: w.SubscriptionID,
				WindowID:       w.ID,
				Outcome:        dto.PauseRunOutcomeError,
				Detail:         err.Error(),
			})
			continue
		}
		if continuing {
			// The pause carries on through the next month's window; this
			// one just concludes locally.
			w.PauseStatus = types.PauseWindowStatusCreditApplied
			w.UpdatedAt = s.now()
			if err := s.PauseRepo.Update(ctx, w); err != nil {
				resp.Add(dto.PauseRunResult{
					SubscriptionID: w.SubscriptionID,
					WindowID:       w.ID,
					Outcome:        dto.PauseRunOutcomeError,
					Detail:         err.Error(),
				})
				continue
			}
			resp.Add(dto.PauseRunResult{
				SubscriptionID: w.SubscriptionID,
				WindowID:       w.ID,
				Outcome:        dto.PauseRunOutcomeConcluded,
			})
			continue
		}
		s.resumeOne(ctx, w, types.AuditActionResumeAutoApply, resp)
	}

	return resp, nil
}

// resumeOne clears the external suspension, settles any open invoice and
// flips the local state back to active.
func (s *pauseService) resumeOne(ctx context.Context, w *pause.Window, action types.AuditAction, resp *dto.PauseRunResponse) {
	sub, err := s.SubRepo.Get(ctx, w.SubscriptionID)
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: w.SubscriptionID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	if err := s.Provider.ResumeCollection(ctx, sub.AccountKey, sub.ProviderSubscriptionID); err != nil {
		s.Logger.Errorw("failed to resume collection, leaving window for retry",
			"error", err,
			"window_id", w.ID,
			"subscription_id", sub.ID,
		)
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	s.payOpenInvoices(ctx, sub)

	now := s.now()
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		w.PauseStatus = types.PauseWindowStatusCreditApplied
		w.AppliedResumeAt = &now
		w.UpdatedAt = now
		if err := s.PauseRepo.Update(txCtx, w); err != nil {
			return err
		}
		return s.setSubscriptionStatus(txCtx, sub, types.SubscriptionStatusActive)
	})
	if err != nil {
		s.Logger.Errorw("collection resumed externally but local write failed",
			"error", err,
			"window_id", w.ID,
			"subscription_id", sub.ID,
		)
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	s.recordAudit(ctx, action, "pause_window", w.ID, types.PauseApplyPayload{
		SubscriptionID: sub.ID,
		WindowID:       w.ID,
		Month:          w.MonthKey().String(),
		AppliedAt:      &now,
	})

	outcome := dto.PauseRunOutcomeResumed
	if action == types.AuditActionPauseVerifyFix {
		outcome = dto.PauseRunOutcomeFixed
	}
	resp.Add(dto.PauseRunResult{
		SubscriptionID: sub.ID,
		WindowID:       w.ID,
		Outcome:        outcome,
	})
}

// payOpenInvoices attempts to collect any invoice left open across the
// pause. Best effort: a failed payment attempt is the processor's dunning
// problem, not ours.
func (s *pauseService) payOpenInvoices(ctx context.Context, sub *subscription.Subscription) {
	invoices, err := s.Provider.ListOpenInvoices(ctx, sub.AccountKey, sub.ProviderSubscriptionID)
	if err != nil {
		s.Logger.Warnw("failed to list open invoices after resume",
			"error", err,
			"subscription_id", sub.ID,
		)
		return
	}
	for _, inv := range invoices {
		if err := s.Provider.PayInvoice(ctx, sub.AccountKey, inv.ProviderInvoiceID); err != nil {
			s.Logger.Warnw("failed to pay open invoice after resume",
				"error", err,
				"subscription_id", sub.ID,
				"invoice_id", inv.ProviderInvoiceID,
			)
		}
	}
}

func (s *pauseService) VerifyPauses(ctx context.Context, asOf types.MonthKey) (*dto.PauseRunResponse, error) {
	resp := &dto.PauseRunResponse{Month: asOf.String()}

	covered, err := s.coveredWindows(ctx, asOf)
	if err != nil {
		return nil, err
	}

	for subID, w := range covered {
		s.verifyCovered(ctx, subID, w, resp)
	}

	// Re-resume subscriptions still paused locally with no current
	// coverage, in case the resume pass missed them.
	paused, err := s.SubRepo.ListByStatus(ctx, types.SubscriptionStatusPaused)
	if err != nil {
		return nil, err
	}
	for _, sub := range paused {
		if _, ok := covered[sub.ID]; ok {
			continue
		}
		s.verifyUncovered(ctx, sub, resp)
	}

	return resp, nil
}

// coveredWindows returns, per subscription, the window that should hold
// for the month. A concrete row overrides an open-ended master.
func (s *pauseService) coveredWindows(ctx context.Context, asOf types.MonthKey) (map[string]*pause.Window, error) {
	covered := make(map[string]*pause.Window)

	masters, err := s.PauseRepo.ListOpenEnded(ctx)
	if err != nil {
		return nil, err
	}
	for _, master := range masters {
		if master.Covers(asOf) {
			covered[master.SubscriptionID] = master
		}
	}

	concrete, err := s.PauseRepo.ListByMonth(ctx, asOf, nil)
	if err != nil {
		return nil, err
	}
	for _, w := range concrete {
		switch w.PauseStatus {
		case types.PauseWindowStatusScheduled, types.PauseWindowStatusActive:
			covered[w.SubscriptionID] = w
		default:
			// An explicitly cancelled or concluded month overrides any
			// master for this month.
			delete(covered, w.SubscriptionID)
		}
	}

	return covered, nil
}

// verifyCovered checks one subscription that should currently be paused
// and re-applies the pause when the external state disagrees.
func (s *pauseService) verifyCovered(ctx context.Context, subID string, w *pause.Window, resp *dto.PauseRunResponse) {
	sub, err := s.SubRepo.Get(ctx, subID)
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: subID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	state, err := s.Provider.GetSubscription(ctx, sub.AccountKey, sub.ProviderSubscriptionID)
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	if !state.PauseCollectionActive {
		// Missed or lost pause: apply it now.
		s.applyOne(ctx, w, types.AuditActionPauseVerifyFix, resp)
		s.voidStrayInvoices(ctx, sub, w)
		return
	}

	s.voidStrayInvoices(ctx, sub, w)

	if sub.SubscriptionStatus != types.SubscriptionStatusPaused {
		// External state is right, local projection drifted.
		err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
			return s.setSubscriptionStatus(txCtx, sub, types.SubscriptionStatusPaused)
		})
		if err != nil {
			resp.Add(dto.PauseRunResult{
				SubscriptionID: sub.ID,
				WindowID:       w.ID,
				Outcome:        dto.PauseRunOutcomeError,
				Detail:         err.Error(),
			})
			return
		}
		s.recordAudit(ctx, types.AuditActionPauseVerifyFix, "pause_window", w.ID, types.PauseApplyPayload{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Month:          w.MonthKey().String(),
			Detail:         "local status realigned to external pause",
		})
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			WindowID:       w.ID,
			Outcome:        dto.PauseRunOutcomeFixed,
		})
		return
	}

	resp.Add(dto.PauseRunResult{
		SubscriptionID: sub.ID,
		WindowID:       w.ID,
		Outcome:        dto.PauseRunOutcomeAlreadyDone,
	})
}

// verifyUncovered re-resumes a subscription that is paused locally with
// no window covering the month.
func (s *pauseService) verifyUncovered(ctx context.Context, sub *subscription.Subscription, resp *dto.PauseRunResponse) {
	state, err := s.Provider.GetSubscription(ctx, sub.AccountKey, sub.ProviderSubscriptionID)
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	if state.PauseCollectionActive {
		if err := s.Provider.ResumeCollection(ctx, sub.AccountKey, sub.ProviderSubscriptionID); err != nil {
			resp.Add(dto.PauseRunResult{
				SubscriptionID: sub.ID,
				Outcome:        dto.PauseRunOutcomeError,
				Detail:         err.Error(),
			})
			return
		}
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		return s.setSubscriptionStatus(txCtx, sub, types.SubscriptionStatusActive)
	})
	if err != nil {
		resp.Add(dto.PauseRunResult{
			SubscriptionID: sub.ID,
			Outcome:        dto.PauseRunOutcomeError,
			Detail:         err.Error(),
		})
		return
	}

	s.recordAudit(ctx, types.AuditActionPauseVerifyFix, "subscription", sub.ID, types.PauseApplyPayload{
		SubscriptionID: sub.ID,
		Detail:         "resumed subscription with no remaining coverage",
	})
	resp.Add(dto.PauseRunResult{
		SubscriptionID: sub.ID,
		Outcome:        dto.PauseRunOutcomeFixed,
	})
}

// voidStrayInvoices voids open invoices generated during a suppressed
// month when the window behavior asks for voiding.
func (s *pauseService) voidStrayInvoices(ctx context.Context, sub *subscription.Subscription, w *pause.Window) {
	if w.Behavior != types.PauseBehaviorVoidInvoice {
		return
	}
	invoices, err := s.Provider.ListOpenInvoices(ctx, sub.AccountKey, sub.ProviderSubscriptionID)
	if err != nil {
		s.Logger.Warnw("failed to list open invoices during verify",
			"error", err,
			"subscription_id", sub.ID,
		)
		return
	}
	for _, inv := range invoices {
		if err := s.Provider.VoidInvoice(ctx, sub.AccountKey, inv.ProviderInvoiceID); err != nil {
			s.Logger.Warnw("failed to void stray invoice",
				"error", err,
				"subscription_id", sub.ID,
				"invoice_id", inv.ProviderInvoiceID,
			)
		}
	}
}

// hasCoverage reports whether any non-cancelled window of the
// subscription covers the month.
func (s *pauseService) hasCoverage(ctx context.Context, subscriptionID string, month types.MonthKey) (bool, error) {
	windows, err := s.PauseRepo.ListNonCancelledForSubscription(ctx, subscriptionID)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.Kind == types.PauseWindowKindMonth && w.PauseStatus == types.PauseWindowStatusCreditApplied {
			continue
		}
		if w.Covers(month) {
			return true, nil
		}
	}
	return false, nil
}

// setSubscriptionStatus writes the subscription status and re-derives the
// membership from it. Membership is never written independently.
func (s *pauseService) setSubscriptionStatus(ctx context.Context, sub *subscription.Subscription, status types.SubscriptionStatus) error {
	sub.SubscriptionStatus = status
	sub.UpdatedAt = s.now()
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}
	return syncMembership(ctx, s.MembershipRepo, sub, s.now())
}

// syncMembership re-derives the membership status from the subscription.
func syncMembership(ctx context.Context, repo membership.Repository, sub *subscription.Subscription, now time.Time) error {
	m, err := repo.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	derived := types.MembershipStatusForSubscription(sub.SubscriptionStatus)
	if m.MembershipStatus == derived {
		return nil
	}
	m.MembershipStatus = derived
	m.UpdatedAt = now
	if derived == types.MembershipStatusCancelled && m.EndedAt == nil {
		m.EndedAt = &now
	}
	return repo.Update(ctx, m)
}
