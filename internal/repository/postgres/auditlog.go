package postgres

import (
	"context"

	"github.com/clubroll/clubroll/internal/domain/auditlog"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
)

type auditLogRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAuditLogRepository(db *postgres.DB, logger *logger.Logger) auditlog.Repository {
	return &auditLogRepository{db: db, logger: logger}
}

func (r *auditLogRepository) Create(ctx context.Context, e *auditlog.Entry) error {
	query := `
		INSERT INTO audit_logs (
			id,
			action,
			entity_type,
			entity_id,
			payload,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:action,
			:entity_type,
			:entity_id,
			:payload,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to write audit entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*auditlog.Entry, error) {
	query := `
		SELECT * FROM audit_logs
		WHERE entity_type = :entity_type
		  AND entity_id = :entity_id
		  AND tenant_id = :tenant_id
		ORDER BY created_at, id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   entityID,
		"tenant_id":   types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list audit entries").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	entries := make([]*auditlog.Entry, 0)
	for rows.Next() {
		var e auditlog.Entry
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan audit entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
