package types

import (
	"encoding/json"
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AuditAction tags an audit log entry with the operation kind. Each tag has
// a fixed payload shape; the payload is stored as JSON and decoded back by
// tag, so ad hoc metadata blobs never reach the log.
type AuditAction string

const (
	AuditActionPauseScheduleCreate AuditAction = "PAUSE_SCHEDULE_CREATE"
	AuditActionPauseScheduleCancel AuditAction = "PAUSE_SCHEDULE_CANCEL"
	AuditActionPauseAutoApply      AuditAction = "PAUSE_AUTO_APPLY"
	AuditActionResumeAutoApply     AuditAction = "RESUME_AUTO_APPLY"
	AuditActionPauseVerifyFix      AuditAction = "PAUSE_VERIFY_FIX"
	AuditActionReconcileFix        AuditAction = "RECONCILE_FIX"
	AuditActionPaymentConfirmed    AuditAction = "PAYMENT_CONFIRMED"
	AuditActionPaymentFailed       AuditAction = "PAYMENT_FAILED"
)

// Validate validates the audit action
func (a AuditAction) Validate() error {
	allowed := []AuditAction{
		AuditActionPauseScheduleCreate,
		AuditActionPauseScheduleCancel,
		AuditActionPauseAutoApply,
		AuditActionResumeAutoApply,
		AuditActionPauseVerifyFix,
		AuditActionReconcileFix,
		AuditActionPaymentConfirmed,
		AuditActionPaymentFailed,
	}

	if !lo.Contains(allowed, a) {
		return ierr.NewError("invalid audit action").
			WithHint("Invalid audit action").
			WithReportableDetails(map[string]any{
				"action":          a,
				"allowed_actions": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (a AuditAction) String() string {
	return string(a)
}

// PauseSchedulePayload is the payload shape for PAUSE_SCHEDULE_CREATE and
// PAUSE_SCHEDULE_CANCEL entries.
type PauseSchedulePayload struct {
	SubscriptionID string          `json:"subscription_id"`
	WindowIDs      []string        `json:"window_ids"`
	Behavior       PauseBehavior   `json:"behavior,omitempty"`
	Months         []string        `json:"months,omitempty"`
	OpenEnded      bool            `json:"open_ended,omitempty"`
	CreditAmount   decimal.Decimal `json:"credit_amount,omitempty"`
}

// PauseApplyPayload is the payload shape for PAUSE_AUTO_APPLY,
// RESUME_AUTO_APPLY and PAUSE_VERIFY_FIX entries.
type PauseApplyPayload struct {
	SubscriptionID string     `json:"subscription_id"`
	WindowID       string     `json:"window_id"`
	Month          string     `json:"month"`
	AppliedAt      *time.Time `json:"applied_at,omitempty"`
	Detail         string     `json:"detail,omitempty"`
}

// ReconcilePayload is the payload shape for RECONCILE_FIX entries.
type ReconcilePayload struct {
	SubscriptionID   string             `json:"subscription_id"`
	FromStatus       SubscriptionStatus `json:"from_status"`
	ToStatus         SubscriptionStatus `json:"to_status"`
	MembershipStatus MembershipStatus   `json:"membership_status"`
	PaymentsFlipped  int                `json:"payments_flipped,omitempty"`
}

// PaymentPayload is the payload shape for PAYMENT_CONFIRMED and
// PAYMENT_FAILED entries.
type PaymentPayload struct {
	PaymentID         string          `json:"payment_id"`
	ProviderInvoiceID string          `json:"provider_invoice_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Reason            string          `json:"reason,omitempty"`
}

// MarshalAuditPayload encodes a typed payload for storage.
func MarshalAuditPayload(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode audit payload").
			Mark(ierr.ErrSystem)
	}
	return raw, nil
}
