package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// userWindow remembers when each user was last let through.
type userWindow struct {
	interval time.Duration

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	swept    time.Time
}

// admit records an update from id at now and reports whether it may pass.
// Entries idle for longer than the interval are dropped at most once per interval.
func (w *userWindow) admit(id int64, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now.Sub(w.swept) >= w.interval {
		for uid, t := range w.lastSeen {
			if now.Sub(t) >= w.interval {
				delete(w.lastSeen, uid)
			}
		}
		w.swept = now
	}
	if last, ok := w.lastSeen[id]; ok && now.Sub(last) < w.interval {
		return false
	}
	w.lastSeen[id] = now
	return true
}

// RateLimitMiddleware enforces a minimum interval between updates from the same user.
// Documents are counted as messages; kinds listed in Exclude bypass the limit.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	w := &userWindow{interval: opts.Interval, lastSeen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if kind == "document" {
				kind = "message"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if w.admit(user.ID, time.Now()) {
				return next(c)
			}

			rateLimitedTotal.Inc()
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
