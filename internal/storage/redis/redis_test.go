package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := New(mr.Addr(), "", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestProfileStorageNamespacesKeys(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	first := cache.Profile("tg-1")
	second := cache.Profile("tg-2")

	if err := first.SetItem(ctx, activity.KeyActivityQueue, "[1]"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	got, err := first.GetItem(ctx, activity.KeyActivityQueue)
	if err != nil || got != "[1]" {
		t.Fatalf("GetItem = %q, %v", got, err)
	}
	if _, err := second.GetItem(ctx, activity.KeyActivityQueue); !errors.Is(err, activity.ErrNotFound) {
		t.Fatalf("second profile err = %v, want ErrNotFound", err)
	}
	if !mr.Exists("profile:tg-1:activity_queue") {
		t.Fatal("expected namespaced key in redis")
	}
	if ttl := mr.TTL("profile:tg-1:activity_queue"); ttl != 0 {
		t.Fatalf("profile key ttl = %v, want none", ttl)
	}
}

func TestProfileStorageBacksTracker(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	tracker := activity.NewTracker(cache.Profile("tg-7"), nil, nil, zap.NewNop(), activity.Options{})
	tracker.RecordView(ctx, models.Job{ID: "job-1", Category: "Engineering"})

	pending := tracker.Pending(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	reopened := activity.NewTracker(cache.Profile("tg-7"), nil, nil, zap.NewNop(), activity.Options{})
	if got := len(reopened.Pending(ctx)); got != 1 {
		t.Fatalf("pending after reopen = %d, want 1", got)
	}
	if entries := reopened.LocalEntries(ctx); entries["job-1"].Views != 1 {
		t.Fatalf("views after reopen = %d, want 1", entries["job-1"].Views)
	}
}

func TestProfilesRegistry(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"tg-2", "tg-1", "tg-2"} {
		if err := cache.RegisterProfile(ctx, id); err != nil {
			t.Fatalf("RegisterProfile: %v", err)
		}
	}

	profiles, err := cache.Profiles(ctx)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0] != "tg-1" || profiles[1] != "tg-2" {
		t.Fatalf("profiles = %v", profiles)
	}
}

func TestJobCache(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.GetJob(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetJob missing err = %v, want ErrCacheMiss", err)
	}

	job := models.Job{ID: "42", Title: "Go Developer", Location: "Berlin"}
	if err := cache.CacheJob(ctx, job); err != nil {
		t.Fatalf("CacheJob: %v", err)
	}

	got, err := cache.GetJob(ctx, "42")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Title != "Go Developer" || got.Location != "Berlin" {
		t.Fatalf("job = %+v", got)
	}

	mr.FastForward(JobCacheTTL + time.Second)
	if _, err := cache.GetJob(ctx, "42"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired job err = %v, want ErrCacheMiss", err)
	}
}

func TestLinkedAccount(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	account, err := cache.GetLinkedAccount(ctx, "tg-5")
	if err != nil || account != "" {
		t.Fatalf("unlinked = %q, %v", account, err)
	}

	if err := cache.SetLinkedAccount(ctx, "tg-5", "user-5"); err != nil {
		t.Fatalf("SetLinkedAccount: %v", err)
	}
	if account, _ = cache.GetLinkedAccount(ctx, "tg-5"); account != "user-5" {
		t.Fatalf("linked = %q, want user-5", account)
	}

	if err := cache.DeleteLinkedAccount(ctx, "tg-5"); err != nil {
		t.Fatalf("DeleteLinkedAccount: %v", err)
	}
	if account, _ = cache.GetLinkedAccount(ctx, "tg-5"); account != "" {
		t.Fatalf("after unlink = %q", account)
	}
}

func TestUserRateLimitWindow(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := cache.IncrementUserRateLimit(ctx, 9)
		if err != nil {
			t.Fatalf("IncrementUserRateLimit: %v", err)
		}
		if count != i {
			t.Fatalf("count = %d, want %d", count, i)
		}
	}

	mr.FastForward(RateLimitWindowTTL + time.Second)

	count, err := cache.IncrementUserRateLimit(ctx, 9)
	if err != nil {
		t.Fatalf("IncrementUserRateLimit: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after window = %d, want 1", count)
	}
}

var _ activity.AtomicStorage = (*ProfileStorage)(nil)

type stubGateway struct {
	fail bool
}

func (g stubGateway) Send(context.Context, models.ActivityEvent) error {
	if g.fail {
		return errors.New("connection refused")
	}
	return nil
}

func (g stubGateway) FetchActivity(context.Context, string, int) ([]models.RemoteActivity, error) {
	return nil, nil
}

// interleavedStorage runs hook once, after the next writing update of key has
// read its value and before it commits.
type interleavedStorage struct {
	*ProfileStorage
	key  string
	hook func()
}

func (s *interleavedStorage) UpdateItem(ctx context.Context, key string, fn activity.UpdateFunc) error {
	return s.ProfileStorage.UpdateItem(ctx, key, func(current string, found bool) (string, bool, error) {
		next, write, err := fn(current, found)
		if write && key == s.key && s.hook != nil {
			hook := s.hook
			s.hook = nil
			hook()
		}
		return next, write, err
	})
}

func TestCacheUpdateRetriesOnConcurrentWrite(t *testing.T) {
	cache, mr := newTestCache(t)
	other, err := New(mr.Addr(), "", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer other.Close()
	ctx := context.Background()

	calls := 0
	err = cache.Update(ctx, "counter", func(current string, found bool) (string, bool, error) {
		calls++
		if calls == 1 {
			if err := other.SetString(ctx, "counter", "from-other", 0); err != nil {
				t.Fatalf("SetString: %v", err)
			}
		}
		return current + "+mine", true, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if got, _ := mr.Get("counter"); got != "from-other+mine" {
		t.Fatalf("counter = %q", got)
	}
}

func TestCacheUpdateSkipsWrite(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	err := cache.Update(ctx, "absent", func(current string, found bool) (string, bool, error) {
		if found || current != "" {
			t.Errorf("found = %v, current = %q", found, current)
		}
		return "ignored", false, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mr.Exists("absent") {
		t.Fatal("expected no write")
	}
}

func TestDrainKeepsEventQueuedByAnotherClient(t *testing.T) {
	cliCache, mr := newTestCache(t)
	botCache, err := New(mr.Addr(), "", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer botCache.Close()
	ctx := context.Background()

	bot := activity.NewTracker(botCache.Profile("tg-1"), stubGateway{fail: true}, nil, zap.NewNop(), activity.Options{})
	bot.RecordView(ctx, models.Job{ID: "old"})

	storage := &interleavedStorage{ProfileStorage: cliCache.Profile("tg-1"), key: activity.KeyActivityQueue}
	cli := activity.NewTracker(storage, stubGateway{}, nil, zap.NewNop(), activity.Options{})
	storage.hook = func() {
		bot.RecordSave(ctx, models.Job{ID: "new"})
	}

	remaining := cli.Drain(ctx)
	if len(remaining) != 1 || remaining[0].JobID != "new" {
		t.Fatalf("remaining = %+v, want only new", remaining)
	}
	if pending := bot.Pending(ctx); len(pending) != 1 || pending[0].JobID != "new" {
		t.Fatalf("pending = %+v, want only new", pending)
	}
}
