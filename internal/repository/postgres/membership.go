package postgres

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/domain/membership"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
)

type membershipRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return &membershipRepository{db: db, logger: logger}
}

func (r *membershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	query := `
		INSERT INTO memberships (
			id,
			subscription_id,
			user_id,
			membership_status,
			started_at,
			ended_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:subscription_id,
			:user_id,
			:membership_status,
			:started_at,
			:ended_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A membership already exists for this subscription").
				WithReportableDetails(map[string]any{
					"subscription_id": m.SubscriptionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create membership").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *membershipRepository) Get(ctx context.Context, id string) (*membership.Membership, error) {
	query := `
		SELECT * FROM memberships
		WHERE id = :id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
}

func (r *membershipRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*membership.Membership, error) {
	query := `
		SELECT * FROM memberships
		WHERE subscription_id = :subscription_id AND tenant_id = :tenant_id
	`
	return r.getOne(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
		"tenant_id":       types.GetTenantID(ctx),
	})
}

func (r *membershipRepository) Update(ctx context.Context, m *membership.Membership) error {
	m.UpdatedAt = time.Now().UTC()
	m.UpdatedBy = types.GetUserID(ctx)

	query := `
		UPDATE memberships SET
			membership_status = :membership_status,
			started_at = :started_at,
			ended_at = :ended_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	result, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update membership").
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("membership not found").
			WithHint("Membership not found").
			WithReportableDetails(map[string]any{"id": m.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *membershipRepository) getOne(ctx context.Context, query string, params map[string]interface{}) (*membership.Membership, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get membership").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("membership not found").
			WithHint("Membership not found").
			WithReportableDetails(params).
			Mark(ierr.ErrNotFound)
	}

	var m membership.Membership
	if err := rows.StructScan(&m); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan membership").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}
