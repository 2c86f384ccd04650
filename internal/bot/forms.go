package bot

import (
	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"
	"github.com/m3rciful/furnibot/core/telegram/keyboard"
	"github.com/m3rciful/furnibot/internal/forms"
	"github.com/m3rciful/furnibot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

const (
	textFormInactive    = "Форма уже закрыта"
	textCannotSkip      = "Этот шаг нельзя пропустить"
	textNothingToCancel = "Нечего отменять. Нажмите /start, чтобы открыть каталог."
)

func layoutFor(m forms.Markup) keyboard.Layout {
	switch m {
	case forms.MarkupCancel:
		return menu.FormCancel()
	case forms.MarkupSkip:
		return menu.FormSkip()
	case forms.MarkupBackToMenu:
		return menu.BackToMenu()
	}
	return nil
}

// reply answers a form step. Prompts after a button press replace the
// product card; answers to typed text are new messages.
func reply(c tele.Context, r forms.Reply) error {
	if r.Text == "" {
		return nil
	}
	return show(c, r.Text, layoutFor(r.Markup))
}

func (h *Handlers) startForm(kind forms.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		id, err := callbacks.FromContext(c).Int64(0)
		if err != nil {
			return show(c, menu.ProductNotFound, menu.BackToMenu())
		}
		r, err := h.engine.Start(tghelpers.BuildContext(c), sessionID(c), kind, id)
		if err != nil {
			return fail(c, err)
		}
		return reply(c, r)
	}
}

// formText feeds a typed answer to the engine. A failed save still shows the
// retry message before the error goes to the router.
func (h *Handlers) formText(c tele.Context) error {
	r, handled, err := h.engine.Handle(tghelpers.BuildContext(c), sessionID(c), c.Text())
	if !handled {
		return err
	}
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

// formControl handles form:cancel and form:skip.
func (h *Handlers) formControl(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	switch callbacks.FromContext(c).Arg(0) {
	case "cancel":
		if err := h.engine.Cancel(ctx, sessionID(c)); err != nil {
			return fail(c, err)
		}
		return show(c, menu.FormCancelled, menu.BackToMenu())
	case "skip":
		r, handled, err := h.engine.Skip(ctx, sessionID(c))
		if !handled && err == nil {
			return tghelpers.Alert(c, textCannotSkip)
		}
		if sendErr := reply(c, r); err == nil {
			err = sendErr
		}
		return err
	}
	return tghelpers.Alert(c, textFormInactive)
}

func (h *Handlers) formIdle(c tele.Context) error {
	return tghelpers.Alert(c, textFormInactive)
}

func (h *Handlers) cancelCommand(c tele.Context) error {
	if !h.machine.InProgress(c) {
		return send(c, textNothingToCancel, nil)
	}
	if err := h.engine.Cancel(tghelpers.BuildContext(c), sessionID(c)); err != nil {
		return fail(c, err)
	}
	return send(c, menu.FormCancelled, menu.BackToMenu())
}
