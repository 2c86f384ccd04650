package forms

import (
	"strings"

	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/validate"
)

const (
	nameMin     = 2
	nameMax     = 100
	questionMin = 5
	questionMax = 500
)

type form struct {
	header string
	first  state.State
}

// step is one node of a linear form. next is StateIdle on the final step.
type step struct {
	field    string
	prompt   string
	invalid  string
	markup   Markup
	optional bool
	accept   func(text string) (string, bool)
	next     state.State
}

func acceptName(text string) (string, bool) {
	name := validate.Clean(text)
	return name, validate.Name(name) && validate.Text(name, nameMin, nameMax)
}

func acceptPhone(text string) (string, bool) {
	if !validate.Phone(text) {
		return "", false
	}
	return validate.FormatPhone(text), true
}

func acceptComment(text string) (string, bool) {
	return validate.Clean(text), true
}

func acceptQuestion(text string) (string, bool) {
	q := validate.Clean(text)
	return q, validate.Text(q, questionMin, questionMax)
}

func buildTable() (map[Kind]form, map[state.State]step) {
	name := func(next state.State) step {
		return step{field: keyName, prompt: promptName, invalid: invalidName, markup: MarkupCancel, accept: acceptName, next: next}
	}
	phone := func(next state.State) step {
		return step{field: keyPhone, prompt: promptPhone, invalid: invalidPhone, markup: MarkupCancel, accept: acceptPhone, next: next}
	}
	question := func(prompt string) step {
		return step{field: keyComment, prompt: prompt, invalid: invalidQuestion, markup: MarkupCancel, accept: acceptQuestion}
	}

	forms := map[Kind]form{
		KindOrder:        {header: headerOrder, first: OrderName},
		KindConsultation: {header: headerConsultation, first: ConsultationName},
		KindQuestion:     {header: headerQuestion, first: QuestionText},
	}
	steps := map[state.State]step{
		OrderName:  name(OrderPhone),
		OrderPhone: phone(OrderComment),
		OrderComment: {
			field:    keyComment,
			prompt:   promptComment,
			markup:   MarkupSkip,
			optional: true,
			accept:   acceptComment,
		},

		ConsultationName:     name(ConsultationPhone),
		ConsultationPhone:    phone(ConsultationQuestion),
		ConsultationQuestion: question(promptConsultation),

		QuestionText: question(promptQuestion),
	}
	return forms, steps
}

// summary renders the completion message with the lead number.
func (e *Engine) summary(kind Kind, sess *state.Session, leadID int64) string {
	esc := e.style.Escape
	var b strings.Builder
	switch kind {
	case KindOrder:
		b.WriteString("✅ Заказ успешно оформлен!\n\n")
	case KindConsultation:
		b.WriteString("✅ Заявка на консультацию отправлена!\n\n")
	default:
		b.WriteString("✅ Вопрос отправлен!\n\n")
	}
	b.WriteString("📦 Товар: " + esc(sess.Get(keyProductTitle)) + "\n")
	if kind != KindQuestion {
		b.WriteString("👤 Имя: " + esc(sess.Get(keyName)) + "\n")
		b.WriteString("📞 Телефон: " + esc(sess.Get(keyPhone)) + "\n")
	}
	comment := sess.Get(keyComment)
	switch kind {
	case KindOrder:
		if comment == "" {
			comment = "Не указан"
		}
		b.WriteString("💬 Комментарий: " + esc(comment) + "\n\n")
		b.WriteString("📋 Номер заказа: #" + itoa(leadID) + "\n\n")
		b.WriteString("Наш менеджер свяжется с вами в ближайшее время для подтверждения заказа.")
	case KindConsultation:
		b.WriteString("💬 Вопрос: " + esc(comment) + "\n\n")
		b.WriteString("📋 Номер заявки: #" + itoa(leadID) + "\n\n")
		b.WriteString("Наш менеджер свяжется с вами для консультации.")
	default:
		b.WriteString("💬 Вопрос: " + esc(comment) + "\n\n")
		b.WriteString("📋 Номер вопроса: #" + itoa(leadID) + "\n\n")
		b.WriteString("Мы ответим на ваш вопрос в ближайшее время.")
	}
	return b.String()
}
