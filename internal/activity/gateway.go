package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobboard-activity/internal/models"

	"github.com/cespare/xxhash/v2"
)

var ErrNoGateway = errors.New("activity: remote gateway not configured")

// Gateway is the remote activity log: a write endpoint and a per-user read endpoint.
type Gateway interface {
	Sender
	FetchActivity(ctx context.Context, userID string, limit int) ([]models.RemoteActivity, error)
}

// SessionProvider reports the authenticated user, or "" when there is none.
type SessionProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

type SessionFunc func(ctx context.Context) (string, error)

func (f SessionFunc) CurrentUserID(ctx context.Context) (string, error) {
	return f(ctx)
}

// Anonymous never reports a user.
var Anonymous SessionProvider = SessionFunc(func(context.Context) (string, error) {
	return "", nil
})

const idempotencyBucket = time.Minute

// IdempotencyKey derives a key from the subject (job id, or query for searches),
// the activity type and the minute the action happened in. Repeated sends of
// the same action inside one minute share a key.
func IdempotencyKey(subject string, activityType models.ActivityType, at time.Time) string {
	bucket := at.UTC().Truncate(idempotencyBucket).Unix()
	sum := xxhash.Sum64String(fmt.Sprintf("%s|%s|%d", subject, activityType, bucket))
	return strconv.FormatUint(sum, 16)
}
