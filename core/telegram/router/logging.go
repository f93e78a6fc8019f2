package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"
	"github.com/m3rciful/lessonbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Context keys a handler may set to describe an expected, already answered failure.
const (
	OutcomeKey = "outcome"
	ErrCodeKey = "err_code"
)

// MarkRejected records that the handler answered the user but the action did not go through.
func MarkRejected(c tele.Context, code string) {
	c.Set(OutcomeKey, "rejected")
	if code != "" {
		c.Set(ErrCodeKey, code)
	}
}

// entry wraps a route handler with the common recover and receipt logging stages.
func entry(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// summarize runs h under the given handler name and logs one "handler.handled" line for it.
func summarize(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := h(c)
	status, outcome := verdict(c, err)
	logSummary(c, name, start, status, outcome, err, extras...)
	return err
}

// skipped logs a summary for an update nobody handled.
func skipped(c tele.Context, name string, extras ...slog.Attr) {
	logSummary(c, name, time.Now(), "skip", "ok", nil, extras...)
}

// verdict derives the status and outcome fields from the handler result and its marks.
func verdict(c tele.Context, err error) (status, outcome string) {
	if err != nil {
		return "fail", "fail"
	}
	marked, _ := c.Get(OutcomeKey).(string)
	switch marked {
	case "":
		return "ok", "ok"
	case "rejected":
		return "rejected", marked
	default:
		return "ok", marked
	}
}

func logSummary(c tele.Context, name string, start time.Time, status, outcome string, err error, extras ...slog.Attr) {
	took := time.Since(start)
	middleware.ObserveHandler(name, status, took)

	msgs, kb := middleware.GetCounters(c)
	attrs := make([]slog.Attr, 0, 9+len(extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("handler", name),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(took).Milliseconds()),
	)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", name),
		)
	} else if code, _ := c.Get(ErrCodeKey).(string); code != "" {
		attrs = append(attrs, slog.String("err_code", code))
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(tghelpers.WithHandler(c, name), logger.Component("tg"), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// deriveErrorCode prefers an error's Code() and falls back to its type name.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c interface{ Code() string }
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
