package activity

import (
	"context"
	"sync"
	"time"

	"jobboard-activity/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultQueueLimit = 500

// Sender transmits a single event to the remote activity log.
type Sender interface {
	Send(ctx context.Context, event models.ActivityEvent) error
}

// Queue is the persisted list of events that still have to reach the remote log.
type Queue struct {
	storage Storage
	sender  Sender
	logger  *zap.Logger
	limit   int
	now     func() time.Time

	// mu guards every read-modify-write of the stored list.
	mu sync.Mutex
	// drainMu allows one drain at a time.
	drainMu sync.Mutex
}

func NewQueue(storage Storage, sender Sender, logger *zap.Logger, limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}

	return &Queue{
		storage: storage,
		sender:  sender,
		logger:  logger,
		limit:   limit,
		now:     time.Now,
	}
}

func (q *Queue) read(ctx context.Context) []models.ActivityEvent {
	var events []models.ActivityEvent
	if !loadJSON(ctx, q.storage, KeyActivityQueue, &events, q.logger) {
		return nil
	}
	return events
}

// update runs a read-modify-write cycle over the stored list. mutate works on
// *events and reports whether to write it back; it may run more than once.
// Callers hold q.mu.
func (q *Queue) update(ctx context.Context, events *[]models.ActivityEvent, mutate func() bool) bool {
	return updateJSON(ctx, q.storage, KeyActivityQueue, q.logger, events,
		func() { *events = nil },
		func() bool {
			if !mutate() {
				return false
			}
			if *events == nil {
				*events = []models.ActivityEvent{}
			}
			return true
		},
	)
}

// Enqueue appends event, assigning an ID and CreatedAt when missing.
// When the queue is over its limit the oldest events are dropped.
func (q *Queue) Enqueue(ctx context.Context, event models.ActivityEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = q.now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var events []models.ActivityEvent
	dropped := 0
	ok := q.update(ctx, &events, func() bool {
		events = append(events, event)
		dropped = 0
		if overflow := len(events) - q.limit; overflow > 0 {
			dropped = overflow
			events = events[overflow:]
		}
		return true
	})
	if !ok {
		return
	}

	if dropped > 0 {
		q.logger.Warn("activity queue over limit, dropping oldest events",
			zap.Int("dropped", dropped),
			zap.Int("limit", q.limit),
		)
	}
	q.logger.Debug("activity event queued",
		zap.String("event_id", event.ID),
		zap.String("job_id", event.JobID),
		zap.String("activity_type", string(event.ActivityType)),
		zap.Int("pending", len(events)),
	)
}

// Pending returns the queued events in FIFO order.
func (q *Queue) Pending(ctx context.Context) []models.ActivityEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	var events []models.ActivityEvent
	// events written by older clients may lack an ID; give them a stable one
	if !q.update(ctx, &events, func() bool {
		missing := false
		for i := range events {
			if events[i].ID == "" {
				events[i].ID = uuid.NewString()
				missing = true
			}
		}
		return missing
	}) {
		return q.read(ctx)
	}

	return events
}

// Drain sends queued events one by one in FIFO order. Sent events are removed,
// failed ones stay for the next attempt. Events enqueued while the drain runs
// are kept. Returns the events still pending.
func (q *Queue) Drain(ctx context.Context) []models.ActivityEvent {
	if !q.drainMu.TryLock() {
		q.logger.Debug("activity queue drain already running")
		return q.Pending(ctx)
	}
	defer q.drainMu.Unlock()

	pending := q.Pending(ctx)
	if len(pending) == 0 {
		return nil
	}

	sent := make(map[string]struct{}, len(pending))
	for _, event := range pending {
		if ctx.Err() != nil {
			break
		}

		if err := q.sender.Send(ctx, event); err != nil {
			q.logger.Warn("failed to send queued activity event",
				zap.String("event_id", event.ID),
				zap.String("job_id", event.JobID),
				zap.Error(err),
			)
			continue
		}

		sent[event.ID] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(sent) == 0 {
		return q.read(ctx)
	}

	// re-read inside the update so events queued meanwhile, by this or
	// another process, survive
	var remaining []models.ActivityEvent
	if !q.update(ctx, &remaining, func() bool {
		kept := remaining[:0]
		for _, event := range remaining {
			if _, ok := sent[event.ID]; !ok {
				kept = append(kept, event)
			}
		}
		remaining = kept
		return true
	}) {
		return q.read(ctx)
	}

	q.logger.Info("activity queue drained",
		zap.Int("sent", len(sent)),
		zap.Int("remaining", len(remaining)),
	)

	return remaining
}

// AssignUser stamps userID on queued events that were recorded anonymously.
func (q *Queue) AssignUser(ctx context.Context, userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var events []models.ActivityEvent
	assigned := 0
	if !q.update(ctx, &events, func() bool {
		assigned = 0
		for i := range events {
			if events[i].UserID == "" {
				events[i].UserID = userID
				assigned++
			}
		}
		return assigned > 0
	}) {
		return 0
	}

	return assigned
}
