package postgres

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/domain/payment"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id,
			user_id,
			subscription_id,
			provider_invoice_id,
			operation_id,
			amount,
			currency,
			description,
			routed_entity,
			payment_status,
			failure_reason,
			confirmed_at,
			failed_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:user_id,
			:subscription_id,
			:provider_invoice_id,
			:operation_id,
			:amount,
			:currency,
			:description,
			:routed_entity,
			:payment_status,
			:failure_reason,
			:confirmed_at,
			:failed_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			// A concurrent delivery already inserted this invoice's row.
			// Callers re-query and converge on the winner.
			return ierr.WithError(err).
				WithHint("A payment is already recorded for this invoice").
				WithReportableDetails(map[string]any{
					"provider_invoice_id": p.ProviderInvoiceID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE id = :id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
}

func (r *paymentRepository) GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE provider_invoice_id = :provider_invoice_id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"provider_invoice_id": providerInvoiceID,
		"tenant_id":           types.GetTenantID(ctx),
	})
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE payments SET
			amount = :amount,
			currency = :currency,
			description = :description,
			payment_status = :payment_status,
			failure_reason = :failure_reason,
			confirmed_at = :confirmed_at,
			failed_at = :failed_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update payment").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("payment not found").
			WithHint("Payment not found").
			WithReportableDetails(map[string]any{"id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) ListBySubscriptionSince(ctx context.Context, subscriptionID string, status types.PaymentStatus, since time.Time) ([]*payment.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE subscription_id = :subscription_id
		  AND payment_status = :payment_status
		  AND created_at >= :since
		  AND tenant_id = :tenant_id
		ORDER BY created_at, id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
		"payment_status":  status,
		"since":           since,
		"tenant_id":       types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		var p payment.Payment
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan payment").
				Mark(ierr.ErrDatabase)
		}
		payments = append(payments, &p)
	}
	return payments, nil
}

func (r *paymentRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*payment.Payment, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}

	var p payment.Payment
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}
