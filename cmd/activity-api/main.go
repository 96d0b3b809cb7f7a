package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard-activity/internal/config"
	"jobboard-activity/internal/logger"
	"jobboard-activity/internal/scheduler"
	"jobboard-activity/internal/server"
	"jobboard-activity/internal/storage/postgres"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const cleanupSchedule = "0 3 * * *"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("activity API stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.Migrate(ctx, cfg.MigrationsDir); err != nil {
		return err
	}

	sched := scheduler.New(log)
	if err := sched.Add(cleanupSchedule, "clean-old-activity", func(ctx context.Context) {
		if _, err := store.CleanOldActivity(ctx, cfg.ActivityRetentionDays); err != nil {
			log.Error("activity cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(cfg.HTTPAddr, store, func(err error) bool {
		return errors.Is(err, postgres.ErrDuplicate)
	}, log)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return multierr.Combine(srv.Stop(shutdownCtx), <-serveErr)
}
