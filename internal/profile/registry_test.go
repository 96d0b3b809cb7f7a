package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/models"
	"jobboard-activity/internal/scheduler"
	"jobboard-activity/internal/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

var _ scheduler.Registry = (*Registry)(nil)

type fakeGateway struct {
	mu   sync.Mutex
	fail bool
	sent []models.ActivityEvent
}

func (g *fakeGateway) Send(_ context.Context, event models.ActivityEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errors.New("offline")
	}
	g.sent = append(g.sent, event)
	return nil
}

func (g *fakeGateway) FetchActivity(context.Context, string, int) ([]models.RemoteActivity, error) {
	return nil, nil
}

func (g *fakeGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func newTestRegistry(t *testing.T, gateway activity.Gateway) *Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := redis.New(mr.Addr(), "", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("redis.New: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return NewRegistry(cache, gateway, activity.Options{}, zap.NewNop())
}

func TestTelegramID(t *testing.T) {
	if got := TelegramID(42); got != "tg-42" {
		t.Fatalf("TelegramID = %q", got)
	}
}

func TestTrackerIsCachedAndRegistered(t *testing.T) {
	r := newTestRegistry(t, &fakeGateway{})
	ctx := context.Background()

	first := r.Tracker(ctx, "tg-1")
	if r.Tracker(ctx, "tg-1") != first {
		t.Fatal("tracker not reused")
	}
	r.Tracker(ctx, "tg-2")

	profiles, err := r.Profiles(ctx)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0] != "tg-1" || profiles[1] != "tg-2" {
		t.Fatalf("profiles = %v", profiles)
	}
}

func TestLinkAttributesQueuedEvents(t *testing.T) {
	gateway := &fakeGateway{fail: true}
	r := newTestRegistry(t, gateway)
	ctx := context.Background()

	tracker := r.Tracker(ctx, "tg-1")
	tracker.RecordSave(ctx, models.Job{ID: "job-1", Category: "Engineering"})

	if err := r.Link(ctx, "tg-1", "account-9"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if got := tracker.UserID(ctx); got != "account-9" {
		t.Fatalf("UserID = %q", got)
	}

	gateway.setFail(false)
	if remaining := r.Queue(ctx, "tg-1").Drain(ctx); len(remaining) != 0 {
		t.Fatalf("remaining = %d", len(remaining))
	}
	if len(gateway.sent) != 1 || gateway.sent[0].UserID != "account-9" {
		t.Fatalf("sent = %+v", gateway.sent)
	}
}

func TestUnlinkReturnsToAnonymous(t *testing.T) {
	r := newTestRegistry(t, &fakeGateway{})
	ctx := context.Background()

	if err := r.Link(ctx, "tg-1", "account-9"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := r.Unlink(ctx, "tg-1"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if got := r.Tracker(ctx, "tg-1").UserID(ctx); got != "" {
		t.Fatalf("UserID after unlink = %q", got)
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	open := func() *Registry {
		cache, err := redis.New(mr.Addr(), "", 0, zap.NewNop())
		if err != nil {
			t.Fatalf("redis.New: %v", err)
		}
		t.Cleanup(func() { _ = cache.Close() })
		return NewRegistry(cache, &fakeGateway{}, activity.Options{}, zap.NewNop())
	}

	if err := open().Link(ctx, "tg-3", "account-3"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if got := open().Tracker(ctx, "tg-3").UserID(ctx); got != "account-3" {
		t.Fatalf("UserID after restart = %q", got)
	}
}
