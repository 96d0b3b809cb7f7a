package activity

import (
	"sort"
	"time"

	"jobboard-activity/internal/models"
)

const RecommendationLimit = 10

// preference-weighted scoring
const (
	locationMatchWeight   = 3
	categoryMatchWeight   = 4
	companyMatchWeight    = 2
	employmentMatchWeight = 2
	savedJobBonus         = 10
	viewedJobBonus        = 1
)

// single-job scoring over the local store
const (
	localViewWeight     = 1
	localSaveWeight     = 5
	categoryRankWeight  = 2
	localCategoryWeight = 0.5
)

const day = 24 * time.Hour

type ScoredJob struct {
	Job   models.Job `json:"job"`
	Score float64    `json:"score"`
}

// RecencyBonus gives 5 for jobs posted within a day, 3 within a week,
// 1 within 30 days and 0 otherwise or when no date parses. created_at
// stands in for a missing date_posted.
func RecencyBonus(job *models.Job, now time.Time) float64 {
	posted, ok := job.PostedAt()
	return recencyTier(posted, ok, now)
}

// DatePostedBonus is RecencyBonus over date_posted alone.
func DatePostedBonus(job *models.Job, now time.Time) float64 {
	posted, ok := models.ParseDate(job.DatePosted)
	return recencyTier(posted, ok, now)
}

func recencyTier(posted time.Time, ok bool, now time.Time) float64 {
	if !ok {
		return 0
	}

	age := now.Sub(posted)
	switch {
	case age < day:
		return 5
	case age < 7*day:
		return 3
	case age < 30*day:
		return 1
	}
	return 0
}

// PreferenceScore scores one job against a profile. Hidden jobs score 0, and
// recency only adds to jobs that already match the profile.
func PreferenceScore(job *models.Job, profile *PreferenceProfile, now time.Time) float64 {
	if _, hidden := profile.HiddenJobIDs[job.ID]; hidden {
		return 0
	}

	var score float64

	if job.Location != "" {
		score += float64(locationMatchWeight * profile.Locations[job.Location])
	}
	if category := job.CategoryOf(); category != "" {
		score += float64(categoryMatchWeight * profile.Categories[category])
	}
	if company := job.CompanyOf(); company != "" {
		score += float64(companyMatchWeight * profile.Companies[company])
	}
	if job.EmploymentType != "" {
		score += float64(employmentMatchWeight * profile.EmploymentTypes[job.EmploymentType])
	}

	if _, saved := profile.SavedJobIDs[job.ID]; saved {
		score += savedJobBonus
	}
	if _, viewed := profile.ViewedJobIDs[job.ID]; viewed {
		score += viewedJobBonus
	}

	if score > 0 {
		score += DatePostedBonus(job, now)
	}

	return score
}

// RecommendJobs ranks candidates by preference score and returns at most
// RecommendationLimit of them. Hidden jobs and jobs scoring 0 are left out.
// With no activity there is nothing to personalise and the result is empty.
func RecommendJobs(jobs []models.Job, records []ActivityRecord, now time.Time) []ScoredJob {
	if len(records) == 0 {
		return []ScoredJob{}
	}

	profile := AnalyzePreferences(records)

	scored := make([]ScoredJob, 0, len(jobs))
	for i := range jobs {
		score := PreferenceScore(&jobs[i], &profile, now)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredJob{Job: jobs[i], Score: score})
	}

	sortByScore(scored)

	if len(scored) > RecommendationLimit {
		scored = scored[:RecommendationLimit]
	}

	return scored
}

// ScoreJob scores one job from its local activity entry and the user's ranked
// top categories. entry may be nil.
func ScoreJob(job *models.Job, entry *models.LocalActivityEntry, topCategories []string, now time.Time) float64 {
	var score float64
	category := job.CategoryOf()

	if entry != nil {
		score += float64(entry.Views*localViewWeight + entry.Saves*localSaveWeight)
	}

	if category != "" {
		for i, top := range topCategories {
			if top == category {
				score += float64((len(topCategories) - i) * categoryRankWeight)
				break
			}
		}

		if entry != nil {
			score += float64(entry.Categories[category]) * localCategoryWeight
		}
	}

	score += RecencyBonus(job, now)

	return score
}

func sortByScore(scored []ScoredJob) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}
