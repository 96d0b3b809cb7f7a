package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 100
	statsTopLimit       = 5
)

// History is the capped list of raw activities kept per profile.
// Newest entries are at the front.
type History struct {
	storage Storage
	logger  *zap.Logger
	limit   int
	now     func() time.Time
	mu      sync.Mutex
}

func NewHistory(storage Storage, logger *zap.Logger, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &History{
		storage: storage,
		logger:  logger,
		limit:   limit,
		now:     time.Now,
	}
}

func (h *History) Load(ctx context.Context) models.UserActivityData {
	var data models.UserActivityData
	if !loadJSON(ctx, h.storage, KeyUserActivity, &data, h.logger) {
		return models.UserActivityData{}
	}
	return data
}

func (h *History) Activities(ctx context.Context) []models.UserActivity {
	return h.Load(ctx).Activities
}

func sameActivity(a, b models.UserActivity) bool {
	if a.Action != b.Action || a.JobID != b.JobID {
		return false
	}
	// searches carry no job id; tell them apart by query and location
	if a.Action == models.ActivitySearch {
		return searchOf(a) == searchOf(b)
	}
	return true
}

func searchOf(a models.UserActivity) [2]string {
	if a.JobData == nil {
		return [2]string{}
	}
	return [2]string{a.JobData.Query, a.JobData.Location}
}

// Track records an activity at the front of the list. An older entry for the
// same (job, action) pair is removed first and the list is cut to the limit.
func (h *History) Track(ctx context.Context, jobID string, action models.ActivityType, jobData *models.ActivityMetadata) {
	now := h.now()
	entry := models.UserActivity{
		JobID:     jobID,
		Action:    action,
		Timestamp: now,
		JobData:   jobData,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var data models.UserActivityData
	updateJSON(ctx, h.storage, KeyUserActivity, h.logger, &data,
		func() { data = models.UserActivityData{} },
		func() bool {
			activities := make([]models.UserActivity, 0, len(data.Activities)+1)
			activities = append(activities, entry)
			for _, existing := range data.Activities {
				if !sameActivity(existing, entry) {
					activities = append(activities, existing)
				}
			}

			if len(activities) > h.limit {
				activities = activities[:h.limit]
			}

			data.Activities = activities
			data.LastUpdated = now
			return true
		},
	)
}

// Stats counts activities by type and ranks the most frequent locations and categories.
func (h *History) Stats(ctx context.Context) models.ActivityStats {
	var stats models.ActivityStats
	locations := make(map[string]int)
	categories := make(map[string]int)

	for _, a := range h.Activities(ctx) {
		switch a.Action {
		case models.ActivityView:
			stats.TotalViews++
		case models.ActivitySave:
			stats.TotalSaves++
		case models.ActivityApply:
			stats.TotalApplies++
		case models.ActivityHide:
			stats.TotalHides++
		case models.ActivitySearch:
			stats.TotalSearches++
		}

		if a.JobData == nil {
			continue
		}
		if a.JobData.Location != "" {
			locations[a.JobData.Location]++
		}
		if a.JobData.Category != "" {
			categories[a.JobData.Category]++
		}
	}

	stats.TopLocations = rankLabels(locations, statsTopLimit)
	stats.TopCategories = rankLabels(categories, statsTopLimit)

	return stats
}

// rankLabels orders labels by weight descending, alphabetically on ties,
// and keeps at most limit of them.
func rankLabels(weights map[string]int, limit int) []string {
	labels := make([]string, 0, len(weights))
	for label, weight := range weights {
		if weight > 0 {
			labels = append(labels, label)
		}
	}

	sort.Slice(labels, func(i, j int) bool {
		wi, wj := weights[labels[i]], weights[labels[j]]
		if wi != wj {
			return wi > wj
		}
		return labels[i] < labels[j]
	})

	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}

	return labels
}
