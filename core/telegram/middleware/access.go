package middleware

import (
	"log/slog"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/metrics"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Gate decides whether a Telegram user may reach a protected handler.
type Gate interface {
	Allowed(userID int64) bool
}

// RequireAccess short-circuits updates from users the gate rejects.
// onReject answers the user; the protected handler never runs.
func RequireAccess(gate Gate, onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := tghelpers.SenderID(c)
			if gate != nil && gate.Allowed(userID) {
				return next(c)
			}
			metrics.Get().AdminDenied()
			logger.LogEvent(tghelpers.BuildContext(c), logger.Admin, slog.LevelWarn, "access.denied",
				slog.String("status", logger.StatusDenied),
				slog.Int64("user_id", userID),
			)
			if onReject != nil {
				return onReject(c)
			}
			return nil
		}
	}
}
