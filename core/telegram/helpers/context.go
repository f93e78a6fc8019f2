// Package helpers carries per-update context and reply helpers shared by handlers.
package helpers

import (
	"context"

	"github.com/m3rciful/lessonbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys under which values are kept on tele.Context.
const (
	ridKey = "rid"
	ctxKey = "logger_ctx"
)

// StoreContext keeps ctx on c for later handlers and helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// RID returns the request id of the update, deriving and remembering it on first use.
func RID(c tele.Context) string {
	if rid, ok := c.Get(ridKey).(string); ok && rid != "" {
		return rid
	}
	updateID, chatID, userID := updateMeta(c)
	rid := logger.BuildRID(updateID, chatID, userID)
	c.Set(ridKey, rid)
	return rid
}

// BuildContext returns the update's logging context: rid, update, chat and user ids and the
// "tg" component logger. It is built once per update and cached on c.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	updateID, chatID, userID := updateMeta(c)
	ctx := logger.WithRID(context.Background(), RID(c))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update's context with the handler serving it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

func updateMeta(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return updateID, chatID, userID
}
