package service

import (
	"context"

	"github.com/clubroll/clubroll/internal/domain/auditlog"
	"github.com/clubroll/clubroll/internal/types"
)

// recordAudit appends an audit entry. A failed audit write is logged and
// never fails the operation it describes.
func (p ServiceParams) recordAudit(ctx context.Context, action types.AuditAction, entityType, entityID string, payload any) {
	raw, err := types.MarshalAuditPayload(payload)
	if err != nil {
		p.Logger.Errorw("failed to encode audit payload",
			"error", err,
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
		)
		return
	}

	entry := &auditlog.Entry{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_LOG),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}

	if err := p.AuditRepo.Create(ctx, entry); err != nil {
		p.Logger.Errorw("failed to write audit entry",
			"error", err,
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
		)
	}
}
