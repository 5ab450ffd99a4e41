package postgres

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/domain/pause"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/lib/pq"
)

type pauseRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPauseRepository(db *postgres.DB, logger *logger.Logger) pause.Repository {
	return &pauseRepository{db: db, logger: logger}
}

func (r *pauseRepository) Create(ctx context.Context, w *pause.Window) error {
	query := `
		INSERT INTO pause_windows (
			id,
			subscription_id,
			kind,
			pause_status,
			year,
			month,
			start_date,
			end_date,
			behavior,
			master_id,
			credit_amount,
			applied_pause_at,
			applied_resume_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:subscription_id,
			:kind,
			:pause_status,
			:year,
			:month,
			:start_date,
			:end_date,
			:behavior,
			:master_id,
			:credit_amount,
			:applied_pause_at,
			:applied_resume_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, w)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A pause window already covers this month").
				WithReportableDetails(map[string]any{
					"subscription_id": w.SubscriptionID,
					"year":            w.Year,
					"month":           int(w.Month),
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create pause window").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *pauseRepository) Get(ctx context.Context, id string) (*pause.Window, error) {
	query := `
		SELECT * FROM pause_windows
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get pause window").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("pause window not found").
			WithHint("Pause window not found").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	var w pause.Window
	if err := rows.StructScan(&w); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan pause window").
			Mark(ierr.ErrDatabase)
	}
	return &w, nil
}

func (r *pauseRepository) Update(ctx context.Context, w *pause.Window) error {
	w.UpdatedAt = time.Now().UTC()
	w.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE pause_windows SET
			pause_status = :pause_status,
			start_date = :start_date,
			end_date = :end_date,
			behavior = :behavior,
			credit_amount = :credit_amount,
			applied_pause_at = :applied_pause_at,
			applied_resume_at = :applied_resume_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	result, err := r.db.NamedExecContext(ctx, query, w)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update pause window").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("pause window not found").
			WithHint("Pause window not found").
			WithReportableDetails(map[string]any{"id": w.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *pauseRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*pause.Window, error) {
	query := `
		SELECT * FROM pause_windows
		WHERE subscription_id = :subscription_id AND tenant_id = :tenant_id
		ORDER BY year, month, id
	`
	return r.list(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
		"tenant_id":       types.GetTenantID(ctx),
	})
}

func (r *pauseRepository) ListByMonth(ctx context.Context, month types.MonthKey, statuses []types.PauseWindowStatus) ([]*pause.Window, error) {
	query := `
		SELECT * FROM pause_windows
		WHERE kind = :kind
		  AND year = :year
		  AND month = :month
		  AND tenant_id = :tenant_id
	`
	params := map[string]interface{}{
		"kind":      types.PauseWindowKindMonth,
		"year":      month.Year,
		"month":     int(month.Month),
		"tenant_id": types.GetTenantID(ctx),
	}
	if len(statuses) > 0 {
		query += " AND pause_status = ANY(:statuses)"
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		params["statuses"] = pq.Array(names)
	}
	query += " ORDER BY year, month, id"

	return r.list(ctx, query, params)
}

func (r *pauseRepository) ListOpenEnded(ctx context.Context) ([]*pause.Window, error) {
	query := `
		SELECT * FROM pause_windows
		WHERE kind = :kind
		  AND pause_status != :cancelled
		  AND tenant_id = :tenant_id
		ORDER BY id
	`
	return r.list(ctx, query, map[string]interface{}{
		"kind":      types.PauseWindowKindOpenEnded,
		"cancelled": types.PauseWindowStatusCancelled,
		"tenant_id": types.GetTenantID(ctx),
	})
}

func (r *pauseRepository) ListNonCancelledForSubscription(ctx context.Context, subscriptionID string) ([]*pause.Window, error) {
	query := `
		SELECT * FROM pause_windows
		WHERE subscription_id = :subscription_id
		  AND pause_status != :cancelled
		  AND tenant_id = :tenant_id
		ORDER BY year, month, id
	`
	return r.list(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
		"cancelled":       types.PauseWindowStatusCancelled,
		"tenant_id":       types.GetTenantID(ctx),
	})
}

func (r *pauseRepository) list(ctx context.Context, query string, params map[string]interface{}) ([]*pause.Window, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list pause windows").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	windows := make([]*pause.Window, 0)
	for rows.Next() {
		var w pause.Window
		if err := rows.StructScan(&w); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan pause window").
				Mark(ierr.ErrDatabase)
		}
		windows = append(windows, &w)
	}
	return windows, nil
}
