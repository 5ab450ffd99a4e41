package postgres

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/domain/invoice"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id,
			subscription_id,
			provider_invoice_id,
			total,
			currency,
			provider_status,
			period_start,
			period_end,
			paid_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:subscription_id,
			:provider_invoice_id,
			:total,
			:currency,
			:provider_status,
			:period_start,
			:period_end,
			:paid_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This invoice is already mirrored").
				WithReportableDetails(map[string]any{
					"provider_invoice_id": inv.ProviderInvoiceID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE id = :id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
}

func (r *invoiceRepository) GetByProviderInvoiceID(ctx context.Context, providerInvoiceID string) (*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE provider_invoice_id = :provider_invoice_id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"provider_invoice_id": providerInvoiceID,
		"tenant_id":           types.GetTenantID(ctx),
	})
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE invoices SET
			subscription_id = :subscription_id,
			total = :total,
			currency = :currency,
			provider_status = :provider_status,
			period_start = :period_start,
			period_end = :period_end,
			paid_at = :paid_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			WithReportableDetails(map[string]any{"id": inv.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE subscription_id = :subscription_id AND tenant_id = :tenant_id
		ORDER BY created_at, id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
		"tenant_id":       types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	invoices := make([]*invoice.Invoice, 0)
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice").
				Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}
	return invoices, nil
}

func (r *invoiceRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*invoice.Invoice, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHint("Invoice not found").
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}
