package router

import (
	"log/slog"

	tg "github.com/m3rciful/furnibot/core/telegram"
	"github.com/m3rciful/furnibot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute dispatches every callback query through the registry by action name.
// The query is acknowledged after the handler returns, even on error. Handlers
// that need a popup call c.Respond themselves and the later empty answer is
// ignored by Telegram.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		action := callbacks.FromContext(c)
		name := "callback." + normalizeHandlerName(action.Name)
		extras := []slog.Attr{slog.String("cb_key", action.Name)}

		h, ok := reg.GetCallback(action.Name)
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, func() error {
				if h == nil {
					return nil
				}
				return h(c)
			}, extras...)
		}
		return handleWithSummary(c, name, func() error {
			err := h(c)
			_ = c.Respond()
			return err
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
