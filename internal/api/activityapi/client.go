package activityapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobboard-activity/internal/api/apiclient"
	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

const activityPath = "/api/activity"

// Client talks to the remote activity log. It satisfies activity.Gateway.
type Client struct {
	api    *apiclient.Client
	logger *zap.Logger
}

func New(baseURL string, timeout time.Duration, retries int, logger *zap.Logger, opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{apiclient.WithAttempts(retries)}, opts...)
	return &Client{
		api:    apiclient.New(baseURL, timeout, logger, opts...),
		logger: logger,
	}
}

// Send posts one event. Any non-2xx outcome is an error.
func (c *Client) Send(ctx context.Context, event models.ActivityEvent) error {
	data, err := c.api.Post(ctx, activityPath, event.Request())
	if err != nil {
		return fmt.Errorf("send activity: %w", err)
	}

	var resp models.ActivityResponse
	if err := apiclient.Decode(data, &resp); err == nil {
		c.logger.Debug("activity sent",
			zap.String("job_id", event.JobID),
			zap.String("activity_type", string(event.ActivityType)),
			zap.Int64("remote_id", resp.ID),
			zap.Bool("duplicate", resp.Duplicate),
		)
	}

	return nil
}

// FetchActivity returns the user's recorded activity, newest first.
func (c *Client) FetchActivity(ctx context.Context, userID string, limit int) ([]models.RemoteActivity, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var activities []models.RemoteActivity
	if err := c.api.Get(ctx, activityPath, params, &activities); err != nil {
		return nil, fmt.Errorf("fetch activity: %w", err)
	}

	return activities, nil
}

// Ping checks the health endpoint without retries.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.NoRetry().Do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("ping activity api: %w", err)
	}
	return nil
}
