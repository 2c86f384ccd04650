package menu

import (
	"fmt"
	"strings"

	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/internal/catalog"
)

const Welcome = `🌟 Добро пожаловать в наш мебельный бот! 🌟

🛋️ Здесь вы найдете стильную и качественную мебель для любого интерьера.

📂 Наш каталог включает:
• Спальни и матрасы
• Кухонные гарнитуры
• Мягкую мебель
• Столы и стулья
• Тумбы и комоды
• Шкафы-купе и гардеробные

🛒 Как сделать заказ:
1. Выберите категорию мебели
2. Просмотрите модели
3. Свяжитесь с нами для заказа

💬 Для оформления заказа потребуется ваше имя и номер телефона
🔄 В любой момент можно вернуться в главное меню

👇 Выберите категорию из меню ниже:`

const (
	NoProducts = "📭 К сожалению, по данной категории пока нет добавленной мебели.\n\n" +
		"Но не переживайте! Наш ассортимент постоянно пополняется новыми моделями.\n" +
		"Рекомендуем периодически возвращаться и смотреть обновления."

	ChooseType          = "Выберите тип:"
	CategoryNotFound    = "❌ Категория не найдена"
	SubcategoryNotFound = "❌ Подкатегория не найдена"
	ProductNotFound     = "❌ Товар не найден"
	FormCancelled       = "❌ Заполнение формы отменено."
	UnknownText         = "🤔 Не понимаю сообщение. Нажмите /start, чтобы открыть каталог."
	UnknownMedia        = "📎 Файлы и фото не принимаются. Нажмите /start, чтобы открыть каталог."

	priceOnRequest = "по запросу"
)

// Company holds the contact lines of the about and cooperation screens.
type Company struct {
	WhatsApp  string
	Telegram  string
	Developer string
}

func (c Company) contacts() string {
	var b strings.Builder
	if c.WhatsApp != "" {
		b.WriteString("WhatsApp: " + c.WhatsApp + "\n")
	}
	if c.Telegram != "" {
		b.WriteString("Telegram: " + c.Telegram + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// About renders the company screen.
func About(c Company) string {
	text := `🪑 О компании

Наша мастерская мебели это команда профессионалов, создающих мебель с душой и вниманием к каждой детали.
Мы изготавливаем широкий ассортимент изделий: корпусную, мягкую, кухонную, офисную и декоративную мебель под заказ.

✨ Мы работаем с натуральными и экологичными материалами, применяем современные технологии и гарантируем долговечность каждой модели.

📦 Что мы предлагаем:
• Индивидуальные проекты под размеры заказчика
• Большой выбор материалов и фурнитуры
• Гарантию 2 года на всю продукцию
• Быструю доставку по России и СНГ

💬 Хотите оформить заказ или обсудить проект? Мы всегда на связи!`
	if contacts := c.contacts(); contacts != "" {
		text += "\n\n📲 Связаться с нами:\n" + contacts
	}
	if c.Developer != "" {
		text += "\n\n🤖 Хотите заказать Telegram-бота или другое IT-решение?\nОбращайтесь: " + c.Developer
	}
	return text
}

// Cooperation renders the partnership screen.
func Cooperation(c Company) string {
	text := `🤝 Сотрудничество

Мы открыты для сотрудничества с:
• Дизайнерами интерьеров
• Строительными компаниями
• Магазинами мебели
• Частными мастерами

💼 Условия сотрудничества:
• Специальные цены для партнеров
• Быстрые сроки изготовления
• Техническая поддержка
• Обучение персонала`
	if contacts := c.contacts(); contacts != "" {
		text += "\n\n📞 Для обсуждения условий сотрудничества:\n" + contacts
	}
	return text
}

// CategoryEmpty is shown for a category without products.
func CategoryEmpty(st format.Styler, cat catalog.Category) string {
	return "🛋️ " + st.Escape(cat.Name) + "\n\n" + NoProducts
}

// ProductPageText is the header of a product page.
func ProductPageText(st format.Styler, cat catalog.Category, page, shown, total int) string {
	var b strings.Builder
	b.WriteString("🛋️ " + st.Escape(cat.Name) + "\n\n")
	if total > 1 {
		fmt.Fprintf(&b, "Страница %d из %d\n", ClampPage(page, total)+1, Pages(total))
	}
	fmt.Fprintf(&b, "Показано: %d из %d товаров", shown, total)
	return b.String()
}

func stockText(inStock bool) string {
	if inStock {
		return "✅ В наличии"
	}
	return "⏳ Под заказ"
}

// ProductCard is the short product view shown with ProductActions.
func ProductCard(st format.Styler, p catalog.Product) string {
	var b strings.Builder
	b.WriteString(st.Bold(p.Title) + "\n")
	if p.Description != "" {
		b.WriteString(st.Escape(p.Description) + "\n")
	}
	b.WriteString("\n💰 Цена: " + st.Bold(catalog.PriceText(p.Price, priceOnRequest)) + "\n")
	b.WriteString("📦 Статус: " + stockText(p.InStock))
	return b.String()
}

// ProductDetails extends the card with dimensions, origin, type and photo count.
func ProductDetails(st format.Styler, p catalog.Product, photos int) string {
	var b strings.Builder
	b.WriteString(ProductCard(st, p) + "\n")
	if p.Dimensions != nil && *p.Dimensions != "" {
		b.WriteString("\n📏 Размеры: " + st.Escape(*p.Dimensions))
	}
	if p.Country != "" {
		b.WriteString("\n🌍 Страна: " + st.Escape(p.Country))
	}
	if p.ProductTypeName != nil {
		b.WriteString("\n🏷️ Тип: " + st.Escape(*p.ProductTypeName))
	}
	b.WriteString("\n🗂️ Категория: " + st.Escape(p.CategoryName))
	if photos > 0 {
		fmt.Fprintf(&b, "\n🖼️ Фото: %d", photos)
	}
	return b.String()
}
