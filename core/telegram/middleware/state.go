package middleware

import (
	"log/slog"

	"github.com/m3rciful/furnibot/core/logger"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Conversation reports whether the chat is in the middle of a form.
type Conversation interface {
	InProgress(c tele.Context) bool
}

// RequireConversation runs next only while a conversation is active.
// Stale form buttons pressed after completion go to onIdle instead.
func RequireConversation(conv Conversation, onIdle tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if conv != nil && conv.InProgress(c) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.State, slog.LevelDebug, "state.idle",
				slog.String("status", logger.StatusSkip),
			)
			if onIdle != nil {
				return onIdle(c)
			}
			return nil
		}
	}
}
