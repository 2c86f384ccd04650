package router

import (
	tg "github.com/m3rciful/furnibot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Conversation routes free text to the handler bound to the chat's current state.
type Conversation interface {
	InProgress(c tele.Context) bool
	ManagerHandler(c tele.Context) error
}

type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// TextRoutes resolves text in order: active conversation state, command
// alias, registry text fallback, UnknownText.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if conv != nil && conv.InProgress(c) {
			return handleWithSummary(c, "state", func() error { return conv.ManagerHandler(c) })
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		return handleWithSummary(c, "unknown_text", func() error { return nil })
	}

	media := func(c tele.Context) error {
		if opts.UnknownMedia == nil {
			return nil
		}
		return handleWithSummary(c, "unexpected_media", func() error { return opts.UnknownMedia(c) })
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnPhoto, Handler: media},
		{Endpoint: tele.OnDocument, Handler: media},
	}
}
