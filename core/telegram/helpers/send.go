package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// A nil dispatcher makes every helper call synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.LogEvent(ctx, logger.Sender, slog.LevelWarn, "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			logger.Err(err),
		)
		return run()
	}
	return err
}

// SendText sends text to the current chat. The bot's default parse mode
// applies unless opts override it.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// Send sends text with an optional inline keyboard.
func Send(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return SendText(c, text)
	}
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// Show replaces the message a button was pressed on, or sends a new message
// for text updates. A failed edit (message too old, unchanged text) falls
// back to a fresh message.
func Show(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return Send(c, text, markup)
	}
	opts := &tele.SendOptions{ReplyMarkup: markup}
	if err := c.Edit(text, opts); err != nil {
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		logger.LogEvent(BuildContext(c), logger.Sender, slog.LevelDebug, "edit.fallback", logger.Err(err))
		return Send(c, text, markup)
	}
	return nil
}

// Alert answers a callback query with a popup, or sends text for other updates.
func Alert(c tele.Context, text string) error {
	if c.Callback() == nil {
		return Send(c, text, nil)
	}
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}
