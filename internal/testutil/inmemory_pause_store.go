package testutil

import (
	"context"

	"github.com/clubroll/clubroll/internal/domain/pause"
	ierr "github.com/clubroll/clubroll/internal/errors"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/samber/lo"
)

// InMemoryPauseStore implements pause.Repository
type InMemoryPauseStore struct {
	*InMemoryStore[*pause.Window]
}

// NewInMemoryPauseStore creates a new in-memory pause window repository
func NewInMemoryPauseStore() *InMemoryPauseStore {
	return &InMemoryPauseStore{
		InMemoryStore: NewInMemoryStore[*pause.Window](),
	}
}

func (s *InMemoryPauseStore) Create(ctx context.Context, w *pause.Window) error {
	if w == nil {
		return ierr.NewError("pause window cannot be nil").
			WithHint("Pause window cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, w.ID, w)
}

func (s *InMemoryPauseStore) Get(ctx context.Context, id string) (*pause.Window, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPauseStore) Update(ctx context.Context, w *pause.Window) error {
	if w == nil {
		return ierr.NewError("pause window cannot be nil").
			WithHint("Pause window cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, w.ID, w)
}

func (s *InMemoryPauseStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*pause.Window, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, w *pause.Window, _ interface{}) bool {
		return w.SubscriptionID == subscriptionID
	}, sortWindows)
}

func (s *InMemoryPauseStore) ListByMonth(ctx context.Context, month types.MonthKey, statuses []types.PauseWindowStatus) ([]*pause.Window, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, w *pause.Window, _ interface{}) bool {
		if w.Kind != types.PauseWindowKindMonth || !w.MonthKey().Equal(month) {
			return false
		}
		return len(statuses) == 0 || lo.Contains(statuses, w.PauseStatus)
	}, sortWindows)
}

func (s *InMemoryPauseStore) ListOpenEnded(ctx context.Context) ([]*pause.Window, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, w *pause.Window, _ interface{}) bool {
		return w.Kind == types.PauseWindowKindOpenEnded &&
			w.PauseStatus != types.PauseWindowStatusCancelled
	}, sortWindows)
}

func (s *InMemoryPauseStore) ListNonCancelledForSubscription(ctx context.Context, subscriptionID string) ([]*pause.Window, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, w *pause.Window, _ interface{}) bool {
		return w.SubscriptionID == subscriptionID &&
			w.PauseStatus != types.PauseWindowStatusCancelled
	}, sortWindows)
}

func sortWindows(i, j *pause.Window) bool {
	if i.Year != j.Year {
		return i.Year < j.Year
	}
	if i.Month != j.Month {
		return i.Month < j.Month
	}
	return i.ID < j.ID
}
