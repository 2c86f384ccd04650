package middleware

import tele "gopkg.in/telebot.v4"

// UpdateKind labels an update for rate limit exclusions and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.EditedMessage != nil:
		return "edited_message"
	}
	return "other"
}
