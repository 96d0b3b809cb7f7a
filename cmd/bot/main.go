package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/api/activityapi"
	"jobboard-activity/internal/api/apiclient"
	"jobboard-activity/internal/api/jobboard"
	"jobboard-activity/internal/bot"
	"jobboard-activity/internal/config"
	"jobboard-activity/internal/logger"
	"jobboard-activity/internal/profile"
	"jobboard-activity/internal/scheduler"
	"jobboard-activity/internal/storage/redis"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateBot(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting job board bot",
		zap.String("log_level", cfg.LogLevel),
		zap.String("drain_schedule", cfg.DrainSchedule),
	)

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close()

	userAgent := apiclient.WithUserAgent("jobboard-activity-bot/1.0")
	gateway := activityapi.New(cfg.ActivityAPIURL, cfg.ActivityAPITimeout, cfg.ActivityAPIRetries, log, userAgent)
	jobs := jobboard.New(cfg.JobBoardAPIURL, cfg.JobBoardAPITimeout, log, userAgent)
	log.Info("API clients created",
		zap.String("activity_api", cfg.ActivityAPIURL),
		zap.String("jobboard_api", cfg.JobBoardAPIURL),
	)

	profiles := profile.NewRegistry(cache, gateway, activity.Options{
		QueueLimit:   cfg.QueueLimit,
		HistoryLimit: cfg.HistoryLimit,
	}, log)

	log.Info("initializing Telegram bot...")
	tgBot, err := bot.New(cfg, profiles, cache, jobs, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("starting outbound queue drainer...")
	monitor := activity.NewConnectivityMonitor(gateway.Ping, cfg.ConnectivityInterval, log)
	drainer := scheduler.NewDrainer(profiles, cfg.DrainStabilizeDelay, log)

	sched := scheduler.New(log)
	if err := sched.Add(cfg.DrainSchedule, "drain-queues", func(ctx context.Context) {
		drainer.DrainAll(ctx)
	}); err != nil {
		log.Fatal("failed to schedule queue drain", zap.Error(err))
	}

	sched.Start(ctx)
	sched.Go(monitor.Run)
	sched.Go(func(ctx context.Context) {
		drainer.Run(ctx, cfg.DrainInitialDelay, monitor.Online())
	})

	log.Info("bot is running...")
	log.Info("press Ctrl+C to stop")

	if err := tgBot.Start(ctx); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
	}

	log.Info("shutting down gracefully...")

	sched.Stop()

	log.Info("bot stopped")
}
