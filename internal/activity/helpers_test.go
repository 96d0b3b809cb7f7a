package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"jobboard-activity/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errQuota = errors.New("quota exceeded")

// flakyStorage wraps MemoryStorage and can be told to fail writes.
type flakyStorage struct {
	*MemoryStorage
	mu        sync.Mutex
	failWrite bool
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStorage: NewMemoryStorage()}
}

func (s *flakyStorage) setFailWrite(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = fail
}

func (s *flakyStorage) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failWrite
	s.mu.Unlock()

	if fail {
		return errQuota
	}
	return s.MemoryStorage.SetItem(ctx, key, value)
}

type fakeGateway struct {
	mu       sync.Mutex
	fail     bool
	failJobs map[string]bool
	sent     []models.ActivityEvent
	remote   []models.RemoteActivity
	fetchErr error
	onSend   func(event models.ActivityEvent)
}

func (g *fakeGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func (g *fakeGateway) Send(_ context.Context, event models.ActivityEvent) error {
	g.mu.Lock()
	fail := g.fail || g.failJobs[event.JobID]
	onSend := g.onSend
	g.mu.Unlock()

	if onSend != nil {
		onSend(event)
	}
	if fail {
		return errors.New("connection refused")
	}

	g.mu.Lock()
	g.sent = append(g.sent, event)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) FetchActivity(_ context.Context, _ string, _ int) ([]models.RemoteActivity, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return g.remote, nil
}

func (g *fakeGateway) sentEvents() []models.ActivityEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.ActivityEvent(nil), g.sent...)
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

// sharedStorage is an AtomicStorage with optimistic versioning, standing in
// for a store shared by several processes. A one-shot hook runs between the
// read and the commit of the next writing update of a key.
type sharedStorage struct {
	*MemoryStorage
	mu       sync.Mutex
	versions map[string]int
	hooks    map[string]func()
	retries  int
}

func newSharedStorage() *sharedStorage {
	return &sharedStorage{
		MemoryStorage: NewMemoryStorage(),
		versions:      make(map[string]int),
		hooks:         make(map[string]func()),
	}
}

func (s *sharedStorage) interleave(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[key] = fn
}

func (s *sharedStorage) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.versions[key]++
	s.mu.Unlock()
	return s.MemoryStorage.SetItem(ctx, key, value)
}

func (s *sharedStorage) UpdateItem(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < 10; attempt++ {
		s.mu.Lock()
		version := s.versions[key]
		s.mu.Unlock()

		current, err := s.MemoryStorage.GetItem(ctx, key)
		next, write, err := fn(current, err == nil)
		if err != nil || !write {
			return err
		}

		s.mu.Lock()
		hook := s.hooks[key]
		delete(s.hooks, key)
		s.mu.Unlock()
		if hook != nil {
			hook()
		}

		s.mu.Lock()
		if s.versions[key] != version {
			s.retries++
			s.mu.Unlock()
			continue
		}
		s.versions[key]++
		s.mu.Unlock()

		return s.MemoryStorage.SetItem(ctx, key, next)
	}
	return errors.New("update kept conflicting")
}

func (s *sharedStorage) retryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries
}
