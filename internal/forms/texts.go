package forms

import "strconv"

const (
	headerOrder        = "🛒 Оформление заказа"
	headerConsultation = "📞 Заказ консультации"
	headerQuestion     = "💬 Задать вопрос"

	promptName         = "📝 Введите ваше имя:"
	promptPhone        = "📞 Введите ваш номер телефона:"
	promptComment      = "💬 Добавьте комментарий к заказу (необязательно):"
	promptConsultation = "💬 Опишите ваш вопрос или что вас интересует:"
	promptQuestion     = "💬 Напишите ваш вопрос:"

	invalidName     = "❌ Некорректное имя. Введите имя (только буквы, от 2 до 100 символов):"
	invalidPhone    = "❌ Некорректный номер телефона. Введите номер в формате:\n+7XXXXXXXXXX, 8XXXXXXXXXX или XXXXXXXXXX"
	invalidQuestion = "❌ Вопрос слишком короткий или длинный (5-500 символов). Попробуйте еще раз:"

	textProductNotFound = "❌ Товар не найден"
	textSaveFailed      = "❌ Не удалось сохранить заявку. Попробуйте отправить ещё раз."

	anonymousName = "Анонимный пользователь"
	unknownPhone  = "Не указан"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
