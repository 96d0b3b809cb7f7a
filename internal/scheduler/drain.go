package scheduler

import (
	"context"
	"time"

	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

// QueueDrainer is one profile's outbound queue. Drain returns the events
// still pending afterwards.
type QueueDrainer interface {
	Drain(ctx context.Context) []models.ActivityEvent
}

// Registry lists the known profiles and opens their queues.
type Registry interface {
	Profiles(ctx context.Context) ([]string, error)
	Queue(ctx context.Context, profileID string) QueueDrainer
}

// Drainer flushes the outbound queues of every registered profile.
type Drainer struct {
	registry       Registry
	logger         *zap.Logger
	stabilizeDelay time.Duration
}

func NewDrainer(registry Registry, stabilizeDelay time.Duration, logger *zap.Logger) *Drainer {
	return &Drainer{
		registry:       registry,
		logger:         logger,
		stabilizeDelay: stabilizeDelay,
	}
}

// DrainAll drains each profile in turn and returns the number of events
// still pending across all of them.
func (d *Drainer) DrainAll(ctx context.Context) int {
	profiles, err := d.registry.Profiles(ctx)
	if err != nil {
		d.logger.Error("failed to list profiles", zap.Error(err))
		return 0
	}

	remaining := 0
	for _, profileID := range profiles {
		if ctx.Err() != nil {
			break
		}

		pending := d.registry.Queue(ctx, profileID).Drain(ctx)
		if len(pending) > 0 {
			d.logger.Debug("profile queue still pending",
				zap.String("profile", profileID),
				zap.Int("remaining", len(pending)),
			)
		}
		remaining += len(pending)
	}

	d.logger.Debug("outbound queues swept",
		zap.Int("profiles", len(profiles)),
		zap.Int("remaining", remaining),
	)

	return remaining
}

// Run drains once after initialDelay, then again every time online fires,
// waiting stabilizeDelay first. It returns when ctx is done.
func (d *Drainer) Run(ctx context.Context, initialDelay time.Duration, online <-chan struct{}) {
	if !sleep(ctx, initialDelay) {
		return
	}
	d.DrainAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-online:
			if !ok {
				online = nil
				continue
			}

			d.logger.Info("connectivity restored, draining outbound queues",
				zap.Duration("stabilize_delay", d.stabilizeDelay),
			)
			if !sleep(ctx, d.stabilizeDelay) {
				return
			}
			d.DrainAll(ctx)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
