package router

import (
	tg "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes builds handlers for plain text and documents.
// Text naming a public command or one of its aliases runs that command;
// anything else goes to fb.UnknownText. Documents always go to fb.Document.
func TextRoutes(reg *tg.Registry, fb ui.FallbackProvider) []tg.Route {
	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return summarize(c, normalizeHandlerName(key), cmd.Handler)
			}
		}
		if fb == nil {
			skipped(c, "unknown_text")
			return nil
		}
		return summarize(c, "unknown_text", fb.UnknownText())
	}

	document := func(c tele.Context) error {
		if fb == nil {
			skipped(c, "document")
			return nil
		}
		return summarize(c, "document", fb.Document())
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: entry(text)},
		{Endpoint: tele.OnDocument, Handler: entry(document)},
	}
}
