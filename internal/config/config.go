package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	// Telegram
	TelegramToken string

	// Database
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Remote activity API
	ActivityAPIURL     string
	ActivityAPITimeout time.Duration
	ActivityAPIRetries int

	// Job board API
	JobBoardAPIURL     string
	JobBoardAPITimeout time.Duration

	// Activity API server
	HTTPAddr              string
	MigrationsDir         string
	ActivityRetentionDays int

	// Outbound queue
	DrainInitialDelay    time.Duration
	DrainStabilizeDelay  time.Duration
	DrainSchedule        string
	ConnectivityInterval time.Duration
	QueueLimit           int
	HistoryLimit         int

	// Bot settings
	MaxJobsPerPage     int
	RateLimitPerMinute int

	// Logging
	LogLevel string
}

// Load reads the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Defaults
		RedisAddr:             "localhost:6379",
		ActivityAPIURL:        "http://localhost:8080",
		ActivityAPITimeout:    10 * time.Second,
		ActivityAPIRetries:    3,
		JobBoardAPIURL:        "http://localhost:8081",
		JobBoardAPITimeout:    30 * time.Second,
		HTTPAddr:              ":8080",
		MigrationsDir:         "migrations",
		ActivityRetentionDays: 365,
		DrainInitialDelay:     2 * time.Second,
		DrainStabilizeDelay:   time.Second,
		DrainSchedule:         "@every 2m",
		ConnectivityInterval:  30 * time.Second,
		QueueLimit:            500,
		HistoryLimit:          100,
		MaxJobsPerPage:        5,
		RateLimitPerMinute:    30,
		LogLevel:              "info",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	stringVars := map[string]*string{
		"REDIS_ADDR":       &cfg.RedisAddr,
		"ACTIVITY_API_URL": &cfg.ActivityAPIURL,
		"JOBBOARD_API_URL": &cfg.JobBoardAPIURL,
		"HTTP_ADDR":        &cfg.HTTPAddr,
		"MIGRATIONS_DIR":   &cfg.MigrationsDir,
		"DRAIN_SCHEDULE":   &cfg.DrainSchedule,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for name, dest := range stringVars {
		if value := os.Getenv(name); value != "" {
			*dest = value
		}
	}

	intVars := map[string]*int{
		"REDIS_DB":                &cfg.RedisDB,
		"ACTIVITY_API_RETRIES":    &cfg.ActivityAPIRetries,
		"ACTIVITY_RETENTION_DAYS": &cfg.ActivityRetentionDays,
		"QUEUE_LIMIT":             &cfg.QueueLimit,
		"HISTORY_LIMIT":           &cfg.HistoryLimit,
		"MAX_JOBS_PER_PAGE":       &cfg.MaxJobsPerPage,
		"RATE_LIMIT_PER_MINUTE":   &cfg.RateLimitPerMinute,
	}
	for name, dest := range intVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dest = n
	}

	durationVars := map[string]*time.Duration{
		"ACTIVITY_API_TIMEOUT":  &cfg.ActivityAPITimeout,
		"JOBBOARD_API_TIMEOUT":  &cfg.JobBoardAPITimeout,
		"DRAIN_INITIAL_DELAY":   &cfg.DrainInitialDelay,
		"DRAIN_STABILIZE_DELAY": &cfg.DrainStabilizeDelay,
		"CONNECTIVITY_INTERVAL": &cfg.ConnectivityInterval,
	}
	for name, dest := range durationVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dest = d
	}

	return cfg, nil
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("redis address is empty")
	}

	return nil
}

// ValidateClient checks the settings of binaries that record activity.
func (c *Config) ValidateClient() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.ActivityAPITimeout <= 0 {
		return fmt.Errorf("activity API timeout must be positive: %v", c.ActivityAPITimeout)
	}

	if c.ActivityAPIRetries < 1 || c.ActivityAPIRetries > 10 {
		return fmt.Errorf("activity API retries must be between 1 and 10")
	}

	if c.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be positive: %d", c.QueueLimit)
	}

	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be positive: %d", c.HistoryLimit)
	}

	if _, err := cron.ParseStandard(c.DrainSchedule); err != nil {
		return fmt.Errorf("invalid drain schedule %q: %w", c.DrainSchedule, err)
	}

	if c.ConnectivityInterval < time.Second {
		return fmt.Errorf("connectivity interval too small: %v", c.ConnectivityInterval)
	}

	return nil
}

func (c *Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("telegram token is empty")
	}

	if err := c.ValidateClient(); err != nil {
		return err
	}

	if c.JobBoardAPIURL == "" {
		return fmt.Errorf("job board API URL is empty")
	}

	if c.MaxJobsPerPage < 1 || c.MaxJobsPerPage > 20 {
		return fmt.Errorf("max jobs per page must be between 1 and 20")
	}

	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit per minute must be positive: %d", c.RateLimitPerMinute)
	}

	return nil
}

func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP address is empty")
	}

	if c.ActivityRetentionDays < 1 {
		return fmt.Errorf("activity retention must be at least one day: %d", c.ActivityRetentionDays)
	}

	return nil
}
