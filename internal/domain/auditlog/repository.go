package auditlog

import "context"

// Repository defines the interface for audit log persistence.
// The log is append-only; there is no update or delete.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*Entry, error)
}
