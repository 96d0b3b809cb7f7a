package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobboard-activity/internal/bot/utils"
	"jobboard-activity/internal/models"
	"jobboard-activity/internal/profile"
	"jobboard-activity/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// parseCallback splits "save:<jobId>". telebot may prefix data with \f.
func parseCallback(data string) (models.ActivityType, string, bool) {
	data = strings.TrimPrefix(data, "\f")

	action, jobID, ok := strings.Cut(data, ":")
	if !ok || jobID == "" {
		return "", "", false
	}

	switch t := models.ActivityType(action); t {
	case models.ActivitySave, models.ActivityApply, models.ActivityHide:
		return t, jobID, true
	}

	return "", "", false
}

// HandleCallback processes the inline job buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		action, jobID, ok := parseCallback(cb.Data)
		if !ok {
			ctx.Logger.Warn("unknown callback action", zap.String("data", cb.Data))
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}

		userID := c.Sender().ID

		reqCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		job, err := lookupJob(reqCtx, ctx, jobID)
		if err != nil {
			ctx.Logger.Error("failed to load job for callback",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
			return c.Respond(&tele.CallbackResponse{Text: "😔 This job is no longer available"})
		}

		tracker := ctx.Profiles.Tracker(reqCtx, profile.TelegramID(userID))

		switch action {
		case models.ActivitySave:
			tracker.RecordSave(reqCtx, *job)
			return c.Respond(&tele.CallbackResponse{Text: "⭐ Saved"})

		case models.ActivityHide:
			tracker.RecordHide(reqCtx, *job)
			if err := c.Delete(); err != nil {
				ctx.Logger.Warn("failed to delete hidden job message", zap.Error(err))
			}
			return c.Respond(&tele.CallbackResponse{Text: "🙈 Hidden, you will not see it in recommendations"})

		default:
			tracker.RecordApply(reqCtx, *job)
			if err := c.Respond(&tele.CallbackResponse{Text: "✅ Good luck!"}); err != nil {
				ctx.Logger.Warn("failed to answer callback", zap.Error(err))
			}
			return c.Send(utils.FormatApplyMessage(job), utils.InlineOpenKeyboard(job.URL), tele.ModeMarkdownV2)
		}
	}
}

// lookupJob reads the job from the cache, falling back to the job board.
func lookupJob(reqCtx context.Context, ctx *Context, jobID string) (*models.Job, error) {
	job, err := ctx.Cache.GetJob(reqCtx, jobID)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		ctx.Logger.Warn("job cache lookup failed", zap.String("job_id", jobID), zap.Error(err))
	}

	job, err = ctx.Jobs.GetJob(reqCtx, jobID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Cache.CacheJob(reqCtx, *job); err != nil {
		ctx.Logger.Warn("failed to cache job", zap.String("job_id", jobID), zap.Error(err))
	}

	return job, nil
}
