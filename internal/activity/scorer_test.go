package activity

import (
	"fmt"
	"testing"
	"time"

	"jobboard-activity/internal/models"
)

var scoringNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func postedAgo(d time.Duration) string {
	return scoringNow.Add(-d).Format(time.RFC3339)
}

func TestRecommendJobsEmptyActivity(t *testing.T) {
	jobs := []models.Job{{ID: "job1"}, {ID: "job2"}}

	got := RecommendJobs(jobs, nil, scoringNow)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", got)
	}
}

func TestRecommendJobsSingleView(t *testing.T) {
	records := []ActivityRecord{{
		JobID:    "viewed-job",
		Action:   models.ActivityView,
		Metadata: &models.ActivityMetadata{Category: "Engineering", Location: "Remote"},
	}}
	jobs := []models.Job{
		{ID: "jobA", Category: "Engineering", Location: "Remote", DatePosted: postedAgo(time.Hour)},
		{ID: "jobB", Category: "Sales", Location: "NYC", DatePosted: postedAgo(time.Hour)},
	}

	got := RecommendJobs(jobs, records, scoringNow)
	if len(got) != 1 || got[0].Job.ID != "jobA" {
		t.Fatalf("Expected only jobA, got %+v", got)
	}
	// 3 location + 4 category + 5 recency; jobA itself was not viewed
	if got[0].Score != 12 {
		t.Errorf("Expected score 12, got %v", got[0].Score)
	}
}

func TestRecommendJobsViewedCandidate(t *testing.T) {
	records := []ActivityRecord{{
		JobID:    "jobA",
		Action:   models.ActivityView,
		Metadata: &models.ActivityMetadata{Category: "Engineering", Location: "Remote"},
	}}
	jobs := []models.Job{
		{ID: "jobA", Category: "Engineering", Location: "Remote", DatePosted: postedAgo(time.Hour)},
		{ID: "jobB", Category: "Sales", Location: "NYC", DatePosted: postedAgo(time.Hour)},
	}

	got := RecommendJobs(jobs, records, scoringNow)
	if len(got) != 1 || got[0].Job.ID != "jobA" {
		t.Fatalf("Expected only jobA, got %+v", got)
	}
	if got[0].Score != 13 {
		t.Errorf("Expected score 13, got %v", got[0].Score)
	}
}

func TestRecommendJobsHiddenVeto(t *testing.T) {
	meta := &models.ActivityMetadata{Category: "Engineering", Location: "Remote", Company: "Acme"}
	records := []ActivityRecord{
		{JobID: "jobA", Action: models.ActivitySave, Metadata: meta},
		{JobID: "jobA", Action: models.ActivityView, Metadata: meta},
		{JobID: "jobA", Action: models.ActivityHide, Metadata: meta},
	}
	jobs := []models.Job{
		{ID: "jobA", Category: "Engineering", Location: "Remote", Company: "Acme", DatePosted: postedAgo(time.Hour)},
		{ID: "jobC", Category: "Engineering"},
	}

	got := RecommendJobs(jobs, records, scoringNow)
	for _, s := range got {
		if s.Job.ID == "jobA" {
			t.Fatalf("Expected hidden jobA to be excluded, got %+v", got)
		}
	}
	if len(got) != 1 || got[0].Job.ID != "jobC" {
		t.Errorf("Expected jobC only, got %+v", got)
	}
}

func TestRecommendJobsWeights(t *testing.T) {
	records := []ActivityRecord{
		{JobID: "s1", Action: models.ActivitySave, Metadata: &models.ActivityMetadata{
			Company: "Acme", EmploymentType: "contract", Category: "Data",
		}},
	}
	jobs := []models.Job{
		{ID: "company", CompanyName: "Acme"},
		{ID: "type", EmploymentType: "contract"},
		{ID: "jobcat", JobCategory: "Data"},
		{ID: "s1"},
	}

	scores := map[string]float64{}
	for _, s := range RecommendJobs(jobs, records, scoringNow) {
		scores[s.Job.ID] = s.Score
	}

	want := map[string]float64{"company": 2, "type": 2, "jobcat": 4, "s1": 10}
	for id, score := range want {
		if scores[id] != score {
			t.Errorf("score[%s] = %v, want %v", id, scores[id], score)
		}
	}
}

func TestRecommendJobsLimitAndOrder(t *testing.T) {
	records := []ActivityRecord{{JobID: "x", Action: models.ActivityView, Metadata: &models.ActivityMetadata{Category: "Eng"}}}

	var jobs []models.Job
	for i := 0; i < 15; i++ {
		jobs = append(jobs, models.Job{ID: fmt.Sprintf("job-%02d", i), Category: "Eng"})
	}
	jobs[7].DatePosted = postedAgo(time.Hour)

	got := RecommendJobs(jobs, records, scoringNow)
	if len(got) != RecommendationLimit {
		t.Fatalf("Expected %d results, got %d", RecommendationLimit, len(got))
	}
	if got[0].Job.ID != "job-07" {
		t.Errorf("Expected the fresh job first, got %s", got[0].Job.ID)
	}
	if got[1].Job.ID != "job-00" || got[2].Job.ID != "job-01" {
		t.Errorf("Expected ties to keep input order, got %s, %s", got[1].Job.ID, got[2].Job.ID)
	}
}

func TestRecommendJobsMonotonicInSaves(t *testing.T) {
	meta := &models.ActivityMetadata{Category: "Engineering"}
	candidate := []models.Job{{ID: "cand", Category: "Engineering"}}

	records := []ActivityRecord{{JobID: "a", Action: models.ActivityView, Metadata: meta}}
	before := RecommendJobs(candidate, records, scoringNow)

	records = append(records, ActivityRecord{JobID: "b", Action: models.ActivitySave, Metadata: meta})
	after := RecommendJobs(candidate, records, scoringNow)

	if len(before) != 1 || len(after) != 1 || after[0].Score <= before[0].Score {
		t.Errorf("Expected score to grow after a save, got %v -> %v", before, after)
	}
}

func TestRecommendJobsRecencyNeedsAMatch(t *testing.T) {
	records := []ActivityRecord{{
		JobID:    "seen",
		Action:   models.ActivityView,
		Metadata: &models.ActivityMetadata{Category: "Engineering"},
	}}
	jobs := []models.Job{
		{ID: "fresh-unrelated", Category: "Sales", DatePosted: postedAgo(time.Minute)},
		{ID: "created-only", Category: "Engineering", CreatedAt: postedAgo(time.Hour)},
	}

	got := RecommendJobs(jobs, records, scoringNow)
	if len(got) != 1 || got[0].Job.ID != "created-only" {
		t.Fatalf("Expected only created-only, got %+v", got)
	}
	// category only: created_at does not count as date_posted here
	if got[0].Score != 4 {
		t.Errorf("Expected score 4, got %v", got[0].Score)
	}
}

func TestDatePostedBonus(t *testing.T) {
	if got := DatePostedBonus(&models.Job{DatePosted: postedAgo(time.Hour)}, scoringNow); got != 5 {
		t.Errorf("DatePostedBonus = %v, want 5", got)
	}
	if got := DatePostedBonus(&models.Job{CreatedAt: postedAgo(time.Hour)}, scoringNow); got != 0 {
		t.Errorf("DatePostedBonus without date_posted = %v, want 0", got)
	}
}

func TestRecencyBonus(t *testing.T) {
	cases := []struct {
		name string
		job  models.Job
		want float64
	}{
		{"hour", models.Job{DatePosted: postedAgo(time.Hour)}, 5},
		{"three days", models.Job{DatePosted: postedAgo(3 * day)}, 3},
		{"two weeks", models.Job{DatePosted: postedAgo(14 * day)}, 1},
		{"two months", models.Job{DatePosted: postedAgo(60 * day)}, 0},
		{"created_at fallback", models.Job{CreatedAt: postedAgo(2 * time.Hour)}, 5},
		{"date only", models.Job{DatePosted: scoringNow.Add(-3 * day).Format("2006-01-02")}, 3},
		{"garbage", models.Job{DatePosted: "yesterday-ish"}, 0},
		{"missing", models.Job{}, 0},
	}

	for _, c := range cases {
		if got := RecencyBonus(&c.job, scoringNow); got != c.want {
			t.Errorf("%s: RecencyBonus = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestScoreJobLocalEntry(t *testing.T) {
	job := models.Job{ID: "X", Category: "Engineering"}
	entry := &models.LocalActivityEntry{
		Views:      2,
		Saves:      1,
		Categories: map[string]int{"Engineering": 3},
	}

	got := ScoreJob(&job, entry, []string{"Engineering", "Sales"}, scoringNow)
	if got != 12.5 {
		t.Errorf("Expected 12.5, got %v", got)
	}

	job.DatePosted = postedAgo(2 * day)
	if got := ScoreJob(&job, entry, []string{"Engineering", "Sales"}, scoringNow); got != 15.5 {
		t.Errorf("Expected 15.5 with recency, got %v", got)
	}
}

func TestScoreJobCategoryRank(t *testing.T) {
	top := []string{"Engineering", "Sales", "Ops"}

	cases := map[string]float64{"Engineering": 6, "Sales": 4, "Ops": 2, "Legal": 0}
	for category, want := range cases {
		job := models.Job{ID: "j", Category: category}
		if got := ScoreJob(&job, nil, top, scoringNow); got != want {
			t.Errorf("ScoreJob(%s) = %v, want %v", category, got, want)
		}
	}
}

func TestScoreJobIgnoresOtherCategories(t *testing.T) {
	job := models.Job{ID: "j", Category: "Sales"}
	entry := &models.LocalActivityEntry{Categories: map[string]int{"Engineering": 10}}

	if got := ScoreJob(&job, entry, nil, scoringNow); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
}
