package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// recent holds update ids already logged so nested chains log each update once.
var (
	recentMu sync.Mutex
	recent   = make(map[int]time.Time)
	keepFor  = 10 * time.Second
)

func alreadyLogged(updateID int) bool {
	now := time.Now()
	recentMu.Lock()
	defer recentMu.Unlock()
	for id, ts := range recent {
		if now.Sub(ts) > keepFor {
			delete(recent, id)
		}
	}
	if _, ok := recent[updateID]; ok {
		return true
	}
	recent[updateID] = now
	return false
}

// LoggerMiddleware sets the RID for the update and writes one sampled
// update.received debug line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		var chatID, userID int64
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.TG)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID) {
			attrs := []slog.Attr{
				slog.String("status", logger.StatusOK),
				slog.String("kind", UpdateKind(upd)),
			}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			switch {
			case upd.Callback != nil:
				action := callbacks.Parse(upd.Callback.Data)
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(action.Name, 64)))
				if len(action.Args) > 0 {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(action.String(), 128)))
				}
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}
