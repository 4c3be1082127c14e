package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.PendingParams
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.PendingParams),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, dialogID string, snap *domain.PendingParams) error {
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[dialogID] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, dialogID string) (*domain.PendingParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[dialogID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	// Copy on read so callers can't mutate the stored snapshot.
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, dialogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, dialogID)
	return nil
}

// List returns the ids of all stored dialogs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func clone(snap *domain.PendingParams) *domain.PendingParams {
	out := *snap
	out.Params = make([]domain.PendingParam, len(snap.Params))
	for i, p := range snap.Params {
		p.Bookmarks = append([]domain.Bookmark(nil), p.Bookmarks...)
		out.Params[i] = p
	}
	return &out
}
