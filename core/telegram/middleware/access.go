package middleware

import (
	"log/slog"

	"github.com/m3rciful/lessonbot/core/logger"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Authorizer reports whether a Telegram user holds admin rights.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Authorizer Authorizer
	OnReject   tele.HandlerFunc
}

func (o AdminOptions) allowed(c tele.Context) bool {
	sender := c.Sender()
	return o.Authorizer != nil && sender != nil && o.Authorizer.IsAdmin(sender.ID)
}

// AdminOnlyMiddleware lets only allow-listed users reach downstream handlers.
// Without an Authorizer nobody is allowed.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.allowed(c) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, "tg", "admin.denied",
				slog.String("status", "rejected"),
				slog.String("text", logger.SanitizeLimit(c.Text(), 64)),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
