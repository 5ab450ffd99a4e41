package testutil

import (
	"context"
	"sync"

	"github.com/clubroll/clubroll/internal/domain/auditlog"
	ierr "github.com/clubroll/clubroll/internal/errors"
)

// InMemoryAuditLogStore implements auditlog.Repository. Entries are kept
// in insertion order; the log is append-only like the real table.
type InMemoryAuditLogStore struct {
	mu      sync.RWMutex
	entries []*auditlog.Entry
}

// NewInMemoryAuditLogStore creates a new in-memory audit log repository
func NewInMemoryAuditLogStore() *InMemoryAuditLogStore {
	return &InMemoryAuditLogStore{
		entries: make([]*auditlog.Entry, 0),
	}
}

// Clear resets all stored data
func (s *InMemoryAuditLogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*auditlog.Entry, 0)
}

func (s *InMemoryAuditLogStore) Create(ctx context.Context, e *auditlog.Entry) error {
	if e == nil {
		return ierr.NewError("audit entry cannot be nil").
			WithHint("Audit entry cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *InMemoryAuditLogStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]*auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*auditlog.Entry, 0)
	for _, e := range s.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

// All returns every stored entry in insertion order.
func (s *InMemoryAuditLogStore) All() []*auditlog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*auditlog.Entry(nil), s.entries...)
}
