package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/models"
)

const (
	JobCacheTTL        = 24 * time.Hour
	RateLimitWindowTTL = 1 * time.Minute
)

func ProfileKey(profileID, key string) string {
	return fmt.Sprintf("profile:%s:%s", profileID, key)
}

func ProfilesKey() string {
	return "profiles"
}

func JobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

func LinkedAccountKey(profileID string) string {
	return fmt.Sprintf("session:profile:%s", profileID)
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}

// ProfileStorage is the activity storage of one profile. Keys never expire.
type ProfileStorage struct {
	cache     *Cache
	profileID string
}

func (c *Cache) Profile(profileID string) *ProfileStorage {
	return &ProfileStorage{cache: c, profileID: profileID}
}

func (p *ProfileStorage) ID() string {
	return p.profileID
}

func (p *ProfileStorage) GetItem(ctx context.Context, key string) (string, error) {
	value, err := p.cache.GetString(ctx, ProfileKey(p.profileID, key))
	if errors.Is(err, ErrCacheMiss) {
		return "", activity.ErrNotFound
	}
	return value, err
}

func (p *ProfileStorage) SetItem(ctx context.Context, key, value string) error {
	return p.cache.SetString(ctx, ProfileKey(p.profileID, key), value, 0)
}

// UpdateItem runs fn as an optimistic transaction: the key is watched while
// fn computes the next value, and the cycle restarts when another client
// writes the key first.
func (p *ProfileStorage) UpdateItem(ctx context.Context, key string, fn activity.UpdateFunc) error {
	return p.cache.Update(ctx, ProfileKey(p.profileID, key), fn)
}

// RegisterProfile adds the profile to the set swept by the drain scheduler.
func (c *Cache) RegisterProfile(ctx context.Context, profileID string) error {
	return c.AddToSet(ctx, ProfilesKey(), profileID)
}

func (c *Cache) Profiles(ctx context.Context) ([]string, error) {
	profiles, err := c.SetMembers(ctx, ProfilesKey())
	if err != nil {
		return nil, err
	}
	sort.Strings(profiles)
	return profiles, nil
}

func (c *Cache) CacheJob(ctx context.Context, job models.Job) error {
	return c.Set(ctx, JobKey(job.ID), job, JobCacheTTL)
}

func (c *Cache) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.Get(ctx, JobKey(jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Cache) SetLinkedAccount(ctx context.Context, profileID, accountID string) error {
	return c.SetString(ctx, LinkedAccountKey(profileID), accountID, 0)
}

// GetLinkedAccount returns "" when the profile has no linked account.
func (c *Cache) GetLinkedAccount(ctx context.Context, profileID string) (string, error) {
	account, err := c.GetString(ctx, LinkedAccountKey(profileID))
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	return account, err
}

func (c *Cache) DeleteLinkedAccount(ctx context.Context, profileID string) error {
	return c.Delete(ctx, LinkedAccountKey(profileID))
}

func (c *Cache) IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error) {
	return c.IncrementWithExpiry(ctx, RateLimitKey(userID), RateLimitWindowTTL)
}
