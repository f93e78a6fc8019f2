package middleware

import (
	"log/slog"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const receiptKey = "receipt_logged"

// LoggerMiddleware prepares the update context and logs one sampled receipt line per update.
// Routes wrap it again on top of the global chain, so the receipt is written at most once.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if done, _ := c.Get(receiptKey).(bool); !done {
			c.Set(receiptKey, true)
			if logger.ShouldSampleDebug() {
				logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
			}
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", tghelpers.RID(c)),
		slog.Int("update_id", upd.ID),
		slog.String("kind", updateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.Int64("chat_id", chat.ID), slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch updateKind(upd) {
	case "callback":
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case "document":
		doc := upd.Message.Document
		attrs = append(attrs,
			slog.String("file_name", logger.SanitizeLimit(doc.FileName, 128)),
			slog.Int64("bytes", int64(doc.FileSize)),
		)
	case "message":
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Document != nil:
		return "document"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
