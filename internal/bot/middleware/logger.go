package middleware

import (
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Logger middleware for logging all incoming updates
func Logger(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()

			fields := []zap.Field{}
			if user := c.Sender(); user != nil {
				fields = append(fields,
					zap.Int64("user_id", user.ID),
					zap.String("username", user.Username),
				)
			}

			switch {
			case c.Callback() != nil:
				fields = append(fields,
					zap.String("type", "callback"),
					zap.String("data", c.Callback().Data),
				)
			case c.Message() != nil:
				fields = append(fields,
					zap.String("type", "message"),
					zap.String("text", c.Message().Text),
				)
			}

			err := next(c)

			fields = append(fields, zap.Duration("duration", time.Since(start)))

			if err != nil {
				logger.Error("handler error", append(fields, zap.Error(err))...)
			} else {
				logger.Info("update handled", fields...)
			}

			return err
		}
	}
}
