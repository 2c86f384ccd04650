package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/furnibot/core/logger"
	tg "github.com/m3rciful/furnibot/core/telegram"
	"github.com/m3rciful/furnibot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

type CommandRouteOptions struct {
	// Gate guards AdminOnly commands; nil rejects every admin command.
	Gate          middleware.Gate
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes turns every registered command into a telebot route.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.RequireAccess(opts.Gate, opts.OnAdminReject)

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := def.Handler
		if def.AdminOnly {
			h = guard(h)
		}
		handlerName := normalizeHandlerName(name)
		wrapped := h
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, func() error { return wrapped(c) })
			},
		})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "complete",
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
