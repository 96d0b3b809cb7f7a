package activity

import (
	"context"
	"sync"
	"time"

	"jobboard-activity/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTopCategories = 5
	remoteHistoryLimit   = 100
)

type Options struct {
	QueueLimit   int
	HistoryLimit int
	Now          func() time.Time
}

// Tracker records job interactions for one profile and serves the
// recommendation queries built on top of them.
//
// Record* never return errors: the remote log is tried first and, when it
// fails, the event is queued and the local counters are updated instead.
type Tracker struct {
	local   *LocalStore
	queue   *Queue
	history *History
	gateway Gateway
	session SessionProvider
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	userID string
}

// NewTracker builds a tracker over storage. gateway may be nil, in which case
// every event goes straight to the outbound queue.
func NewTracker(storage Storage, gateway Gateway, session SessionProvider, logger *zap.Logger, opts Options) *Tracker {
	if session == nil {
		session = Anonymous
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	t := &Tracker{
		local:   NewLocalStore(storage, logger),
		history: NewHistory(storage, logger, opts.HistoryLimit),
		gateway: gateway,
		session: session,
		logger:  logger,
		now:     now,
	}
	t.queue = NewQueue(storage, senderFunc(t.send), logger, opts.QueueLimit)
	t.queue.now = now
	t.history.now = now

	return t
}

type senderFunc func(ctx context.Context, event models.ActivityEvent) error

func (f senderFunc) Send(ctx context.Context, event models.ActivityEvent) error {
	return f(ctx, event)
}

func (t *Tracker) send(ctx context.Context, event models.ActivityEvent) error {
	if t.gateway == nil {
		return ErrNoGateway
	}
	return t.gateway.Send(ctx, event)
}

// UserID resolves the current user: the session first, then the id set with SetUserID.
func (t *Tracker) UserID(ctx context.Context) string {
	userID, err := t.session.CurrentUserID(ctx)
	if err != nil {
		t.logger.Debug("session lookup failed, tracking anonymously", zap.Error(err))
	}
	if err == nil && userID != "" {
		return userID
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userID
}

// SetUserID associates the profile with a user. Events queued anonymously
// are stamped with the id so they reach the server attributed.
func (t *Tracker) SetUserID(ctx context.Context, userID string) {
	t.mu.Lock()
	t.userID = userID
	t.mu.Unlock()

	if userID == "" {
		return
	}

	assigned := t.queue.AssignUser(ctx, userID)
	t.logger.Info("activity profile linked to user",
		zap.String("user_id", userID),
		zap.Int("queued_events_assigned", assigned),
	)
}

func (t *Tracker) RecordView(ctx context.Context, job models.Job) {
	t.record(ctx, job.ID, models.ActivityView, job.Metadata())
}

func (t *Tracker) RecordSave(ctx context.Context, job models.Job) {
	t.record(ctx, job.ID, models.ActivitySave, job.Metadata())
}

func (t *Tracker) RecordApply(ctx context.Context, job models.Job) {
	t.record(ctx, job.ID, models.ActivityApply, job.Metadata())
}

func (t *Tracker) RecordHide(ctx context.Context, job models.Job) {
	t.record(ctx, job.ID, models.ActivityHide, job.Metadata())
}

// RecordSearch records a free-text search. It has no job id.
func (t *Tracker) RecordSearch(ctx context.Context, query, location string) {
	t.record(ctx, "", models.ActivitySearch, models.ActivityMetadata{
		Query:    query,
		Location: location,
	})
}

func (t *Tracker) record(ctx context.Context, jobID string, activityType models.ActivityType, metadata models.ActivityMetadata) {
	now := t.now()

	subject := jobID
	if activityType == models.ActivitySearch {
		subject = metadata.Query + "|" + metadata.Location
	}

	event := models.ActivityEvent{
		ID:             uuid.NewString(),
		JobID:          jobID,
		ActivityType:   activityType,
		Metadata:       metadata,
		IdempotencyKey: IdempotencyKey(subject, activityType, now),
		UserID:         t.UserID(ctx),
		CreatedAt:      now,
	}

	jobData := metadata
	t.history.Track(ctx, jobID, activityType, &jobData)

	err := t.send(ctx, event)
	if err == nil {
		t.logger.Debug("activity recorded",
			zap.String("job_id", jobID),
			zap.String("activity_type", string(activityType)),
		)
		return
	}

	t.logger.Warn("failed to send activity, falling back to local store",
		zap.String("job_id", jobID),
		zap.String("activity_type", string(activityType)),
		zap.Error(err),
	)

	t.queue.Enqueue(ctx, event)
	t.applyLocal(ctx, event)
}

// applyLocal bumps the per-job counters for views and saves.
func (t *Tracker) applyLocal(ctx context.Context, event models.ActivityEvent) {
	if event.JobID == "" {
		return
	}
	if event.ActivityType != models.ActivityView && event.ActivityType != models.ActivitySave {
		return
	}

	t.local.Update(ctx, func(entries map[string]models.LocalActivityEntry) {
		entry := entries[event.JobID]
		if entry.Categories == nil {
			entry.Categories = make(map[string]int)
		}

		at := event.CreatedAt
		weight := 1
		if event.ActivityType == models.ActivitySave {
			entry.Saves++
			entry.LastSaved = &at
			weight = 2
		} else {
			entry.Views++
			entry.LastViewed = &at
		}

		if category := event.Metadata.Category; category != "" {
			entry.Categories[category] += weight
		}

		entries[event.JobID] = entry
	})
}

// TrackActivity adds an entry to the capped activity list only.
func (t *Tracker) TrackActivity(ctx context.Context, jobID string, action models.ActivityType, jobData *models.ActivityMetadata) {
	t.history.Track(ctx, jobID, action, jobData)
}

func (t *Tracker) Activities(ctx context.Context) []models.UserActivity {
	return t.history.Activities(ctx)
}

func (t *Tracker) Stats(ctx context.Context) models.ActivityStats {
	return t.history.Stats(ctx)
}

func (t *Tracker) LocalEntries(ctx context.Context) map[string]models.LocalActivityEntry {
	return t.local.Read(ctx)
}

func (t *Tracker) Pending(ctx context.Context) []models.ActivityEvent {
	return t.queue.Pending(ctx)
}

// Drain retries queued events and returns the ones still pending.
func (t *Tracker) Drain(ctx context.Context) []models.ActivityEvent {
	return t.queue.Drain(ctx)
}

// HiddenJobIDs returns the jobs the profile hid, as kept in its activity list.
func (t *Tracker) HiddenJobIDs(ctx context.Context) map[string]struct{} {
	return AnalyzePreferences(RecordsFromHistory(t.history.Activities(ctx))).HiddenJobIDs
}

// RecommendedJobs ranks candidates against the profile's capped activity list.
func (t *Tracker) RecommendedJobs(ctx context.Context, jobs []models.Job) []ScoredJob {
	records := RecordsFromHistory(t.history.Activities(ctx))
	return RecommendJobs(jobs, records, t.now())
}

// ScoreJob scores one job from the local store and the given top categories.
func (t *Tracker) ScoreJob(ctx context.Context, job models.Job, topCategories []string) float64 {
	entries := t.local.Read(ctx)
	var entry *models.LocalActivityEntry
	if e, ok := entries[job.ID]; ok {
		entry = &e
	}
	return ScoreJob(&job, entry, topCategories, t.now())
}

// PersonalizedJobs scores every candidate with ScoreJob against the user's top
// categories, drops non-positive scores and sorts the rest. limit <= 0 keeps all.
func (t *Tracker) PersonalizedJobs(ctx context.Context, jobs []models.Job, limit int) []ScoredJob {
	topCategories := t.TopCategories(ctx, DefaultTopCategories)
	entries := t.local.Read(ctx)
	now := t.now()

	scored := make([]ScoredJob, 0, len(jobs))
	for i := range jobs {
		var entry *models.LocalActivityEntry
		if e, ok := entries[jobs[i].ID]; ok {
			entry = &e
		}

		score := ScoreJob(&jobs[i], entry, topCategories, now)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredJob{Job: jobs[i], Score: score})
	}

	sortByScore(scored)

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

// TopCategories ranks the user's categories by occurrence in the server-side
// activity log. Without a user, when the fetch fails or when the log carries
// no categories, the local per-job category weights are used instead.
// Ties are ordered alphabetically.
func (t *Tracker) TopCategories(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = DefaultTopCategories
	}

	if userID := t.UserID(ctx); userID != "" && t.gateway != nil {
		remote, err := t.gateway.FetchActivity(ctx, userID, remoteHistoryLimit)
		if err != nil {
			t.logger.Warn("failed to fetch user activity, using local categories",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			counts := make(map[string]int)
			for _, a := range remote {
				if a.Metadata.Category != "" {
					counts[a.Metadata.Category]++
				}
			}
			if len(counts) > 0 {
				return rankLabels(counts, limit)
			}
		}
	}

	weights := make(map[string]int)
	for _, entry := range t.local.Read(ctx) {
		for category, weight := range entry.Categories {
			weights[category] += weight
		}
	}

	return rankLabels(weights, limit)
}
