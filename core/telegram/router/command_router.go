package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/lessonbot/core/logger"
	tg "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admins        middleware.Authorizer
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes turns every registered command into a route. Admin-only commands are
// guarded by the admin middleware before the summary wrapper.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		Authorizer: opts.Admins,
		OnReject:   opts.OnAdminReject,
	})

	commands := reg.Commands()
	routes := make([]tg.Route, 0, len(commands))
	for endpoint, cmd := range commands {
		name, inner := normalizeHandlerName(endpoint), cmd.Handler
		h := func(c tele.Context) error { return summarize(c, name, inner) }
		if cmd.AdminOnly {
			h = guard(h)
		}
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: entry(h)})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "complete",
		slog.Int("commands", len(commands)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
