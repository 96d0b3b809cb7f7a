package main

import (
	"context"
	"fmt"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/api/activityapi"
	"jobboard-activity/internal/api/apiclient"
	"jobboard-activity/internal/api/jobboard"
	"jobboard-activity/internal/config"
	"jobboard-activity/internal/logger"
	"jobboard-activity/internal/profile"
	"jobboard-activity/internal/storage/redis"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	cache     *redis.Cache
	gateway   *activityapi.Client
	jobs      *jobboard.Client
	profiles  *profile.Registry
	profileID string
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	userAgent := apiclient.WithUserAgent("jobrec/" + Version)
	gateway := activityapi.New(cfg.ActivityAPIURL, cfg.ActivityAPITimeout, cfg.ActivityAPIRetries, log, userAgent)
	profileID, _ := cmd.Flags().GetString("profile")

	return &app{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		gateway: gateway,
		jobs:    jobboard.New(cfg.JobBoardAPIURL, cfg.JobBoardAPITimeout, log, userAgent),
		profiles: profile.NewRegistry(cache, gateway, activity.Options{
			QueueLimit:   cfg.QueueLimit,
			HistoryLimit: cfg.HistoryLimit,
		}, log),
		profileID: profileID,
	}, nil
}

func (a *app) tracker(ctx context.Context) *activity.Tracker {
	return a.profiles.Tracker(ctx, a.profileID)
}

func (a *app) Close() error {
	_ = a.log.Sync()
	return a.cache.Close()
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, a.Close())
		}()

		return fn(cmd.Context(), cmd, a, args)
	}
}
