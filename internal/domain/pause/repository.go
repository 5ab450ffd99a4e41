package pause

import (
	"context"

	"github.com/clubroll/clubroll/internal/types"
)

// Repository defines the interface for pause window persistence
type Repository interface {
	Create(ctx context.Context, w *Window) error
	Get(ctx context.Context, id string) (*Window, error)
	Update(ctx context.Context, w *Window) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Window, error)

	// ListByMonth returns concrete windows keyed to the given month in any
	// of the given statuses, across all subscriptions. An empty status
	// slice matches every status.
	ListByMonth(ctx context.Context, month types.MonthKey, statuses []types.PauseWindowStatus) ([]*Window, error)

	// ListOpenEnded returns every non-cancelled open-ended master.
	ListOpenEnded(ctx context.Context) ([]*Window, error)

	// ListNonCancelledForSubscription returns every window of the
	// subscription that is not CANCELLED, masters included. Used for
	// overlap checks and coverage lookups.
	ListNonCancelledForSubscription(ctx context.Context, subscriptionID string) ([]*Window, error)
}
