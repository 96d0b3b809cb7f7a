package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/api/jobboard"
	"jobboard-activity/internal/bot/utils"
	"jobboard-activity/internal/models"
	"jobboard-activity/internal/profile"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// candidatePoolSize is how many listings are scored for recommendations.
const candidatePoolSize = 50

// parseJobsQuery splits "golang @ Berlin" into query and location.
func parseJobsQuery(payload string) (query, location string) {
	query, location, _ = strings.Cut(payload, "@")
	return strings.TrimSpace(query), strings.TrimSpace(location)
}

// /jobs [query] [@ location]
func HandleJobs(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID
		query, location := parseJobsQuery(c.Message().Payload)

		reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tracker := ctx.Profiles.Tracker(reqCtx, profile.TelegramID(userID))
		if query != "" || location != "" {
			tracker.RecordSearch(reqCtx, query, location)
		}

		jobs, err := ctx.Jobs.SearchJobs(reqCtx, jobboard.SearchParams{
			Query:    query,
			Location: location,
			Limit:    ctx.Config.MaxJobsPerPage,
		})
		if err != nil {
			ctx.Logger.Error("failed to search jobs",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return c.Reply("😔 Could not load jobs right now. Please try again later.")
		}

		if len(jobs) == 0 {
			return c.Send(utils.FormatNoJobsMessage(), tele.ModeMarkdownV2)
		}

		summary := fmt.Sprintf("📋 *Jobs found:* %d", len(jobs))
		if err := c.Send(summary, tele.ModeMarkdownV2); err != nil {
			return err
		}

		deliverJobCards(reqCtx, ctx, c, tracker, jobs, nil)
		return nil
	}
}

// /recommend ranks listings against the profile's recent activity.
func HandleRecommend(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		return recommend(ctx, c, "⭐ *Recommended for you*", func(reqCtx context.Context, tracker *activity.Tracker, jobs []models.Job) []activity.ScoredJob {
			scored := tracker.RecommendedJobs(reqCtx, jobs)
			if len(scored) > ctx.Config.MaxJobsPerPage {
				scored = scored[:ctx.Config.MaxJobsPerPage]
			}
			return scored
		})
	}
}

// /foryou ranks listings by the profile's top categories and local counters.
func HandleForYou(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		return recommend(ctx, c, "🎯 *Picked for you*", func(reqCtx context.Context, tracker *activity.Tracker, jobs []models.Job) []activity.ScoredJob {
			return tracker.PersonalizedJobs(reqCtx, jobs, ctx.Config.MaxJobsPerPage)
		})
	}
}

type rankFunc func(ctx context.Context, tracker *activity.Tracker, jobs []models.Job) []activity.ScoredJob

func recommend(ctx *Context, c tele.Context, title string, rank rankFunc) error {
	userID := c.Sender().ID

	reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracker := ctx.Profiles.Tracker(reqCtx, profile.TelegramID(userID))

	jobs, err := ctx.Jobs.SearchJobs(reqCtx, jobboard.SearchParams{Limit: candidatePoolSize})
	if err != nil {
		ctx.Logger.Error("failed to load candidate jobs",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Reply("😔 Could not load jobs right now. Please try again later.")
	}

	// hidden jobs stay out of every ranking and of the fallback
	jobs = withoutHidden(jobs, tracker.HiddenJobIDs(reqCtx))
	if len(jobs) == 0 {
		return c.Send(utils.FormatNoJobsMessage(), tele.ModeMarkdownV2)
	}

	scored := rank(reqCtx, tracker, jobs)
	if len(scored) == 0 {
		// nothing personal yet, show the newest listings instead
		jobboard.SortNewestFirst(jobs)
		if len(jobs) > ctx.Config.MaxJobsPerPage {
			jobs = jobs[:ctx.Config.MaxJobsPerPage]
		}

		if err := c.Send(utils.FormatNoRecommendationsMessage(), tele.ModeMarkdownV2); err != nil {
			return err
		}
		deliverJobCards(reqCtx, ctx, c, tracker, jobs, nil)
		return nil
	}

	ctx.Logger.Debug("recommendations ranked",
		zap.Int64("user_id", userID),
		zap.Int("candidates", len(jobs)),
		zap.Int("returned", len(scored)),
	)

	if err := c.Send(title, tele.ModeMarkdownV2); err != nil {
		return err
	}

	picked := make([]models.Job, len(scored))
	scores := make([]float64, len(scored))
	for i, s := range scored {
		picked[i] = s.Job
		scores[i] = s.Score
	}

	deliverJobCards(reqCtx, ctx, c, tracker, picked, scores)
	return nil
}

func withoutHidden(jobs []models.Job, hidden map[string]struct{}) []models.Job {
	if len(hidden) == 0 {
		return jobs
	}

	visible := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := hidden[job.ID]; !ok {
			visible = append(visible, job)
		}
	}
	return visible
}

// deliverJobCards sends one card per job and records a view for each card
// that reached the user. scores may be nil.
func deliverJobCards(reqCtx context.Context, ctx *Context, c tele.Context, tracker *activity.Tracker, jobs []models.Job, scores []float64) {
	delivered := 0

	for i := range jobs {
		job := jobs[i]

		score := -1.0
		if scores != nil {
			score = scores[i]
		}

		_, err := c.Bot().Send(
			c.Chat(),
			utils.FormatJob(&job, score),
			&tele.SendOptions{ParseMode: tele.ModeMarkdownV2, ReplyMarkup: utils.InlineJobKeyboard(&job)},
		)
		if err != nil {
			ctx.Logger.Error("failed to send job",
				zap.Int("index", i),
				zap.Int64("user_id", c.Sender().ID),
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			continue
		}

		if err := ctx.Cache.CacheJob(reqCtx, job); err != nil {
			ctx.Logger.Warn("failed to cache job", zap.String("job_id", job.ID), zap.Error(err))
		}

		tracker.RecordView(reqCtx, job)
		delivered++

		if i < len(jobs)-1 {
			time.Sleep(300 * time.Millisecond)
		}
	}

	ctx.Logger.Info("jobs delivered",
		zap.Int64("user_id", c.Sender().ID),
		zap.Int("count", delivered),
		zap.Strings("job_ids", jobboard.ExtractJobIDs(jobs)),
	)
}
