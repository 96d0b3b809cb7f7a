package handlers

import (
	"context"
	"strings"
	"time"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/bot/utils"
	"jobboard-activity/internal/profile"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /stats
func HandleStats(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		reqCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		tracker := ctx.Profiles.Tracker(reqCtx, profile.TelegramID(c.Sender().ID))

		summary := utils.StatsSummary{
			Stats:         tracker.Stats(reqCtx),
			TopCategories: tracker.TopCategories(reqCtx, activity.DefaultTopCategories),
			Pending:       len(tracker.Pending(reqCtx)),
			LinkedAccount: tracker.UserID(reqCtx),
		}

		return c.Send(utils.FormatStats(summary), tele.ModeMarkdownV2)
	}
}

// /link <account>
func HandleLink(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		account := strings.TrimSpace(c.Message().Payload)
		if account == "" || strings.ContainsAny(account, " \t\n") {
			return c.Reply("Usage: /link <account id>")
		}

		userID := c.Sender().ID
		profileID := profile.TelegramID(userID)

		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := ctx.Profiles.Link(reqCtx, profileID, account); err != nil {
			ctx.Logger.Error("failed to link account",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return c.Reply("😔 Could not link the account. Please try again later.")
		}

		go flushQueue(ctx, profileID)

		return c.Send(utils.FormatLinkedMessage(account), tele.ModeMarkdownV2)
	}
}

// /unlink
func HandleUnlink(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID

		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := ctx.Profiles.Unlink(reqCtx, profile.TelegramID(userID)); err != nil {
			ctx.Logger.Error("failed to unlink account",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return c.Reply("😔 Could not unlink the account. Please try again later.")
		}

		return c.Send("🔓 Account unlinked. Activity is recorded anonymously now.")
	}
}

// flushQueue sends events that were waiting for an account.
func flushQueue(ctx *Context, profileID string) {
	drainCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	remaining := ctx.Profiles.Tracker(drainCtx, profileID).Drain(drainCtx)
	ctx.Logger.Debug("queue flushed after link",
		zap.String("profile", profileID),
		zap.Int("remaining", len(remaining)),
	)
}
