// Package profile keeps one activity tracker per profile, backed by Redis.
package profile

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/scheduler"
	"jobboard-activity/internal/storage/redis"

	"go.uber.org/zap"
)

// TelegramID is the profile id of a Telegram user.
func TelegramID(userID int64) string {
	return "tg-" + strconv.FormatInt(userID, 10)
}

// Registry hands out trackers lazily and remembers every profile it has
// opened, so the drain scheduler can sweep them.
type Registry struct {
	cache   *redis.Cache
	gateway activity.Gateway
	opts    activity.Options
	logger  *zap.Logger

	mu       sync.Mutex
	trackers map[string]*activity.Tracker
}

func NewRegistry(cache *redis.Cache, gateway activity.Gateway, opts activity.Options, logger *zap.Logger) *Registry {
	return &Registry{
		cache:    cache,
		gateway:  gateway,
		opts:     opts,
		logger:   logger,
		trackers: make(map[string]*activity.Tracker),
	}
}

// Tracker returns the profile's tracker, creating and registering it on first use.
func (r *Registry) Tracker(ctx context.Context, profileID string) *activity.Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[profileID]; ok {
		return t
	}

	t := activity.NewTracker(
		r.cache.Profile(profileID),
		r.gateway,
		r.session(profileID),
		r.logger.With(zap.String("profile", profileID)),
		r.opts,
	)
	r.trackers[profileID] = t

	if err := r.cache.RegisterProfile(ctx, profileID); err != nil {
		r.logger.Warn("failed to register profile",
			zap.String("profile", profileID),
			zap.Error(err),
		)
	}

	return t
}

// session reads the account linked to the profile. Lookup errors surface to
// the tracker, which then records anonymously.
func (r *Registry) session(profileID string) activity.SessionProvider {
	return activity.SessionFunc(func(ctx context.Context) (string, error) {
		return r.cache.GetLinkedAccount(ctx, profileID)
	})
}

func (r *Registry) Profiles(ctx context.Context) ([]string, error) {
	return r.cache.Profiles(ctx)
}

func (r *Registry) Queue(ctx context.Context, profileID string) scheduler.QueueDrainer {
	return r.Tracker(ctx, profileID)
}

// Link attaches an account to the profile and attributes its queued events.
func (r *Registry) Link(ctx context.Context, profileID, accountID string) error {
	if err := r.cache.SetLinkedAccount(ctx, profileID, accountID); err != nil {
		return fmt.Errorf("link account: %w", err)
	}

	r.Tracker(ctx, profileID).SetUserID(ctx, accountID)
	return nil
}

func (r *Registry) Unlink(ctx context.Context, profileID string) error {
	if err := r.cache.DeleteLinkedAccount(ctx, profileID); err != nil {
		return fmt.Errorf("unlink account: %w", err)
	}

	r.Tracker(ctx, profileID).SetUserID(ctx, "")
	return nil
}
