package auditlog

import (
	"encoding/json"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// Entry is one append-only audit log row. Entries are written alongside
// state transitions; a failed audit write is logged by the caller and
// never fails the operation it describes.
type Entry struct {
	ID         string            `db:"id" json:"id"`
	Action     types.AuditAction `db:"action" json:"action"`
	EntityType string            `db:"entity_type" json:"entity_type"`
	EntityID   string            `db:"entity_id" json:"entity_id"`
	Payload    json.RawMessage   `db:"payload" json:"payload"`

	types.BaseModel
}

// Validate validates the audit entry
func (e *Entry) Validate() error {
	if err := e.Action.Validate(); err != nil {
		return err
	}
	if e.EntityType == "" || e.EntityID == "" {
		return ierr.NewError("invalid audit entity").
			WithHint("Audit entries must name the entity they describe").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (e *Entry) TableName() string {
	return "audit_logs"
}
