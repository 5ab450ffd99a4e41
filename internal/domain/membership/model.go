package membership

import (
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
)

// Membership is the club-facing view of a billing subscription. It is
// never authoritative: its status is always re-derived from the owning
// subscription's status, even when the subscription itself was already
// correct.
type Membership struct {
	ID               string                 `db:"id" json:"id"`
	SubscriptionID   string                 `db:"subscription_id" json:"subscription_id"`
	UserID           string                 `db:"user_id" json:"user_id"`
	MembershipStatus types.MembershipStatus `db:"membership_status" json:"membership_status"`
	StartedAt        time.Time              `db:"started_at" json:"started_at"`
	EndedAt          *time.Time             `db:"ended_at" json:"ended_at,omitempty"`

	types.BaseModel
}

// Validate validates the membership
func (m *Membership) Validate() error {
	if m.SubscriptionID == "" {
		return ierr.NewError("invalid subscription id").
			WithHint("Subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if m.UserID == "" {
		return ierr.NewError("invalid user id").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}
	return m.MembershipStatus.Validate()
}

func (m *Membership) TableName() string {
	return "memberships"
}
