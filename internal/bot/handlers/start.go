package handlers

import (
	"context"
	"time"

	"jobboard-activity/internal/bot/utils"
	"jobboard-activity/internal/profile"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /start command
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID

		ctx.Logger.Info("user started bot",
			zap.Int64("user_id", userID),
			zap.String("username", c.Sender().Username),
		)

		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// opens and registers the profile
		tracker := ctx.Profiles.Tracker(reqCtx, profile.TelegramID(userID))

		name := c.Sender().FirstName
		if name == "" {
			name = "there"
		}

		return c.Send(
			utils.FormatWelcomeMessage(name, tracker.UserID(reqCtx)),
			utils.MainMenuKeyboard(),
			tele.ModeMarkdownV2,
		)
	}
}

// HandleText routes the main menu buttons.
func HandleText(ctx *Context) tele.HandlerFunc {
	routes := map[string]tele.HandlerFunc{
		utils.BtnJobs:      HandleJobs(ctx),
		utils.BtnRecommend: HandleRecommend(ctx),
		utils.BtnForYou:    HandleForYou(ctx),
		utils.BtnStats:     HandleStats(ctx),
		utils.BtnHelp:      HandleHelp(ctx),
	}

	return func(c tele.Context) error {
		if handler, ok := routes[c.Text()]; ok {
			return handler(c)
		}

		return c.Send("🤔 Unknown command. Use /help to see what I can do.")
	}
}
