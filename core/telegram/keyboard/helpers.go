package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is a transport-neutral inline button: callback Data or an external URL.
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// Layout is a keyboard as rows of buttons.
type Layout [][]InlineBtn

// Btn builds a callback button.
func Btn(text, data string) InlineBtn {
	return InlineBtn{Text: text, Data: data}
}

// Link builds a URL button.
func Link(text, url string) InlineBtn {
	return InlineBtn{Text: text, URL: url}
}

// Rows splits buttons into rows of up to n. n <= 1 puts each button on its own row.
func Rows(buttons []InlineBtn, n int) Layout {
	if n < 1 {
		n = 1
	}
	rows := make(Layout, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}

// Row appends a single row.
func (l Layout) Row(buttons ...InlineBtn) Layout {
	if len(buttons) == 0 {
		return l
	}
	return append(l, buttons)
}

// Buttons flattens the layout in reading order.
func (l Layout) Buttons() []InlineBtn {
	var out []InlineBtn
	for _, row := range l {
		out = append(out, row...)
	}
	return out
}

// Markup converts the layout to a telebot inline keyboard. Callback data is
// sent verbatim, without telebot's unique-prefix framing. Nil for an empty layout.
func Markup(l Layout) *tele.ReplyMarkup {
	if len(l) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(l))
	for _, row := range l {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// RemoveKeyboard hides a reply keyboard left by earlier messages.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
