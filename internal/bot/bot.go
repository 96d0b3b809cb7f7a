package bot

import (
	"context"
	"fmt"
	"time"

	"jobboard-activity/internal/bot/handlers"
	"jobboard-activity/internal/bot/middleware"
	"jobboard-activity/internal/config"
	"jobboard-activity/internal/profile"
	"jobboard-activity/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

var commands = []tele.Command{
	{Text: "jobs", Description: "Search jobs: /jobs golang @ Berlin"},
	{Text: "recommend", Description: "Jobs like the ones you viewed"},
	{Text: "foryou", Description: "Jobs in your top categories"},
	{Text: "stats", Description: "Your activity"},
	{Text: "link", Description: "Link your job board account"},
	{Text: "unlink", Description: "Unlink your account"},
	{Text: "help", Description: "How this bot works"},
}

// Bot represents Telegram bot
type Bot struct {
	bot      *tele.Bot
	profiles *profile.Registry
	cache    *redis.Cache
	jobs     handlers.JobSource
	config   *config.Config
	logger   *zap.Logger
}

func New(
	cfg *config.Config,
	profiles *profile.Registry,
	cache *redis.Cache,
	jobs handlers.JobSource,
	logger *zap.Logger,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.TelegramToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telegram error", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		profiles: profiles,
		cache:    cache,
		jobs:     jobs,
		config:   cfg,
		logger:   logger,
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	if err := b.SetCommands(commands); err != nil {
		logger.Warn("failed to publish command menu", zap.Error(err))
	}

	logger.Info("bot initialized successfully")

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	b.bot.Use(middleware.RateLimit(b.cache, b.config.RateLimitPerMinute, b.logger))
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Profiles: b.profiles,
		Cache:    b.cache,
		Jobs:     b.jobs,
		Config:   b.config,
		Logger:   b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/jobs", handlers.HandleJobs(ctx))
	b.bot.Handle("/recommend", handlers.HandleRecommend(ctx))
	b.bot.Handle("/foryou", handlers.HandleForYou(ctx))
	b.bot.Handle("/stats", handlers.HandleStats(ctx))
	b.bot.Handle("/link", handlers.HandleLink(ctx))
	b.bot.Handle("/unlink", handlers.HandleUnlink(ctx))

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered")
}

// Start polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()

	return nil
}
