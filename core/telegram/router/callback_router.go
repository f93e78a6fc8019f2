package router

import (
	"log/slog"

	tg "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound replaces the registry fallback. It must answer the callback itself.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches button presses by unique key. Registered handlers get the
// callback answered up front; unknown keys go to the fallback, which answers on its own.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		keyAttr := slog.String("cb_key", key)

		if h, ok := reg.GetCallback(key); ok && h != nil {
			_ = c.Respond()
			return summarize(c, "callback."+normalizeHandlerName(key), h, keyAttr)
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		notFound := slog.String("reason", "not_found")
		if fallback == nil {
			_ = c.Respond()
			skipped(c, "callback.not_found", keyAttr, notFound)
			return nil
		}
		return summarize(c, "callback.not_found", fallback, keyAttr, notFound)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: entry(handler)}
}
