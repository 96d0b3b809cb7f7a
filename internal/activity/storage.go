package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Storage keys. A Storage instance is scoped to one profile, so the keys are fixed.
const (
	KeyJobActivity   = "job_activity"
	KeyActivityQueue = "activity_queue"
	KeyUserActivity  = "user_activity_data"
)

var ErrNotFound = errors.New("activity: key not found")

// Storage is a string key-value store scoped to a single profile.
// GetItem returns ErrNotFound when the key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// UpdateFunc computes the next value of a key from its current one. found is
// false when the key is absent. Returning write=false leaves the key as is.
// It may run more than once and must not have side effects beyond its result.
type UpdateFunc func(current string, found bool) (next string, write bool, err error)

// AtomicStorage is a Storage whose read-modify-write cycles are atomic across
// every process sharing it. Stores, queue and history use it when available.
type AtomicStorage interface {
	Storage
	UpdateItem(ctx context.Context, key string, fn UpdateFunc) error
}

// updateItem runs fn atomically on an AtomicStorage, or as a plain get and
// set otherwise. The in-process callers serialise the plain path themselves.
func updateItem(ctx context.Context, storage Storage, key string, fn UpdateFunc) error {
	if atomic, ok := storage.(AtomicStorage); ok {
		return atomic.UpdateItem(ctx, key, fn)
	}

	current, err := storage.GetItem(ctx, key)
	found := true
	if errors.Is(err, ErrNotFound) {
		current, found = "", false
	} else if err != nil {
		return err
	}

	next, write, err := fn(current, found)
	if err != nil || !write {
		return err
	}
	return storage.SetItem(ctx, key, next)
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// loadJSON decodes key into dest. Absent, unreadable or corrupt values leave
// dest untouched and report false; only the last two are logged.
func loadJSON(ctx context.Context, storage Storage, key string, dest interface{}, logger *zap.Logger) bool {
	raw, err := storage.GetItem(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Warn("failed to read activity storage",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("corrupt activity storage value, using empty state",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	return true
}

// updateJSON runs a read-modify-write cycle over the JSON value at key. Each
// attempt calls reset, decodes the stored value into dest when it is present
// and valid, then calls mutate, which reports whether dest must be written.
// Failures are logged and reported as false; the stored value is then unchanged.
func updateJSON(ctx context.Context, storage Storage, key string, logger *zap.Logger, dest interface{}, reset func(), mutate func() bool) bool {
	err := updateItem(ctx, storage, key, func(current string, found bool) (string, bool, error) {
		reset()
		if found {
			if err := json.Unmarshal([]byte(current), dest); err != nil {
				logger.Warn("corrupt activity storage value, using empty state",
					zap.String("key", key),
					zap.Error(err),
				)
				reset()
			}
		}

		if !mutate() {
			return "", false, nil
		}

		data, err := json.Marshal(dest)
		if err != nil {
			return "", false, fmt.Errorf("encode %s: %w", key, err)
		}
		return string(data), true, nil
	})
	if err != nil {
		logger.Warn("failed to write activity storage",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	return true
}

// storeJSON encodes value under key. Failures are logged and reported as false.
func storeJSON(ctx context.Context, storage Storage, key string, value interface{}, logger *zap.Logger) bool {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode activity storage value",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	if err := storage.SetItem(ctx, key, string(data)); err != nil {
		logger.Warn("failed to write activity storage",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	return true
}
