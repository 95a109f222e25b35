package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahrav/go-greenlight/internal/domain"
)

// InMemoryItemStore is a mutex-guarded in-memory ItemStore for tests and
// local development. The mutex stands in for the serialization a durable
// store provides through its conditional-write primitive.
type InMemoryItemStore struct {
	mu    sync.Mutex
	items map[string]domain.Item

	auditMu sync.Mutex
	audit   []AuditEntry

	// Now supplies the write clock. Overridable in tests to drive token
	// expiry without sleeping.
	Now func() time.Time
}

// NewInMemoryItemStore creates an empty in-memory store.
func NewInMemoryItemStore() *InMemoryItemStore {
	return &InMemoryItemStore{
		items: make(map[string]domain.Item),
		Now:   time.Now,
	}
}

// Get implements ItemStore.Get.
func (s *InMemoryItemStore) Get(_ context.Context, id string) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, ErrNotFound
	}
	return item, nil
}

// GetByToken implements ItemStore.GetByToken.
func (s *InMemoryItemStore) GetByToken(_ context.Context, token domain.CallbackToken) (domain.Item, error) {
	if token.IsZero() {
		return domain.Item{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.CallbackToken.Equal(token) {
			return item, nil
		}
	}
	return domain.Item{}, ErrNotFound
}

// Create implements ItemStore.Create.
func (s *InMemoryItemStore) Create(_ context.Context, item domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return ErrAlreadyExists
	}
	now := s.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	if item.Status == "" {
		item.Status = domain.StatusDraft
	}
	s.items[item.ID] = item
	return nil
}

// ConditionalUpdate implements ItemStore.ConditionalUpdate. The check and
// the patch apply under one mutex hold, mirroring the atomicity of a
// compare-and-swap write.
func (s *InMemoryItemStore) ConditionalUpdate(
	_ context.Context,
	id string,
	expect Expect,
	patch Patch,
) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[id]
	if !ok {
		return domain.Item{}, ErrNotFound
	}

	now := s.Now().UTC()
	if err := expect.Check(current, now); err != nil {
		return current, err
	}

	updated := patch.Apply(current, now)
	s.items[id] = updated
	return updated, nil
}

// ListStalePending implements ItemStore.ListStalePending.
func (s *InMemoryItemStore) ListStalePending(
	_ context.Context,
	now time.Time,
	limit int,
) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []domain.Item
	for _, item := range s.items {
		if item.Status != domain.StatusPending || item.CallbackToken.IsZero() {
			continue
		}
		if item.CallbackTokenExpiresAt.After(now) {
			continue
		}
		stale = append(stale, item)
	}

	// Oldest expiry first for deterministic sweeps.
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CallbackTokenExpiresAt.Before(stale[j].CallbackTokenExpiresAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}
