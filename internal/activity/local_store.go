package activity

import (
	"context"
	"sync"

	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

// LocalStore persists per-job aggregate counters for one profile.
// The whole map is rewritten on every change.
type LocalStore struct {
	storage Storage
	logger  *zap.Logger
	mu      sync.Mutex
}

func NewLocalStore(storage Storage, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		storage: storage,
		logger:  logger,
	}
}

// Read returns the persisted map, or an empty map if it is absent or corrupt.
func (s *LocalStore) Read(ctx context.Context) map[string]models.LocalActivityEntry {
	entries := make(map[string]models.LocalActivityEntry)
	if !loadJSON(ctx, s.storage, KeyJobActivity, &entries, s.logger) || entries == nil {
		return make(map[string]models.LocalActivityEntry)
	}
	return entries
}

// Write replaces the persisted map. Storage failures are logged, not returned.
func (s *LocalStore) Write(ctx context.Context, entries map[string]models.LocalActivityEntry) {
	storeJSON(ctx, s.storage, KeyJobActivity, entries, s.logger)
}

// Update runs a read-modify-write cycle under the store lock. On an
// AtomicStorage the cycle is also atomic across processes and fn may be
// called again with a fresh map.
func (s *LocalStore) Update(ctx context.Context, fn func(entries map[string]models.LocalActivityEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries map[string]models.LocalActivityEntry
	updateJSON(ctx, s.storage, KeyJobActivity, s.logger, &entries,
		func() { entries = make(map[string]models.LocalActivityEntry) },
		func() bool {
			if entries == nil {
				entries = make(map[string]models.LocalActivityEntry)
			}
			fn(entries)
			return true
		},
	)
}
