package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAttempts      = 3
	DefaultBackoff       = time.Second
	DefaultRateLimitWait = 5 * time.Second
)

var ErrNotFound = errors.New("not found")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Body)
}

// Client is a JSON HTTP client with bounded retries.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
	userAgent     string
	attempts      int
	backoff       time.Duration
	rateLimitWait time.Duration
}

type Option func(c *Client)

func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the linear backoff step and the wait after a 429.
func WithBackoff(step, rateLimitWait time.Duration) Option {
	return func(c *Client) {
		c.backoff = step
		c.rateLimitWait = rateLimitWait
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:        logger,
		userAgent:     "jobboard-activity/1.0",
		attempts:      DefaultAttempts,
		backoff:       DefaultBackoff,
		rateLimitWait: DefaultRateLimitWait,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NoRetry returns a copy of the client that makes a single attempt.
func (c *Client) NoRetry() *Client {
	clone := *c
	clone.attempts = 1
	return &clone
}

// Do sends the request and returns the body of a 2xx response. Network
// errors, 429 and 5xx are retried; other 4xx statuses fail immediately.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = data
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Debug("retrying request",
				zap.String("url", fullURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		body, status, err := c.send(ctx, method, fullURL, reqBody)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if status >= 200 && status < 300 {
			c.logger.Debug("successful request",
				zap.String("url", fullURL),
				zap.Int("status", status),
			)
			return body, nil
		}

		c.logger.Warn("API error",
			zap.String("url", fullURL),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)

		statusErr := &StatusError{Code: status, Body: string(body)}
		switch {
		case status == http.StatusTooManyRequests:
			c.logger.Warn("rate limit hit, backing off")
			if err := sleep(ctx, c.rateLimitWait); err != nil {
				return nil, err
			}
			lastErr = statusErr
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		case status >= 400 && status < 500:
			return nil, statusErr
		default:
			lastErr = statusErr
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) send(ctx context.Context, method, fullURL string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	data, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return Decode(data, dest)
}

func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, nil, payload)
}

func Decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
