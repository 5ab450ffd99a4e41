package types

import (
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus is the state of a ledger payment fact. CONFIRMED rows are
// immutable except for reconciliation-driven status correction.
type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusPending   PaymentStatus = "PENDING"
)

// Validate validates the payment status
func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusConfirmed,
		PaymentStatusFailed,
		PaymentStatusPending,
	}

	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Invalid payment status").
			WithReportableDetails(map[string]any{
				"status":           s,
				"allowed_statuses": allowed,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (s PaymentStatus) String() string {
	return string(s)
}
