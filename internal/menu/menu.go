// Package menu builds the inline keyboards of the catalog. Every function is
// pure: callers load the data and pass it in.
package menu

import (
	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/core/telegram/keyboard"
	"github.com/m3rciful/furnibot/internal/catalog"
)

// Callback action names.
const (
	ActMainMenu     = "main_menu"
	ActAbout        = "about_company"
	ActCooperation  = "cooperation"
	ActCategory     = "category"
	ActSubcategory  = "subcategory"
	ActProducts     = "products"
	ActProduct      = "product"
	ActDetails      = "details"
	ActOrder        = "order"
	ActConsultation = "consultation"
	ActQuestion     = "question"
	ActForm         = "form"
)

const (
	PageSize = 5
	titleMax = 30
)

const (
	btnAbout        = "ℹ️ О компании/контакты"
	btnCooperation  = "🤝 Сотрудничество"
	btnAllProducts  = "📦 Все товары"
	btnShowProducts = "📦 Показать товары"
	btnBack         = "⬅️ Назад"
	btnMainMenu     = "🏠 Главное меню"
	btnPrev         = "⬅️ Предыдущая"
	btnNext         = "➡️ Следующая"
	btnQuestion     = "💬 Задать вопрос"
	btnConsultation = "📞 Заказать консультацию"
	btnOrder        = "🛒 Оформить заказ"
	btnDetails      = "📋 Подробнее"
	btnCancel       = "❌ Отменить"
	btnSkip         = "⏭️ Пропустить"
)

// Main lists root categories two per row followed by the info screens.
func Main(roots []catalog.Category) keyboard.Layout {
	btns := make([]keyboard.InlineBtn, 0, len(roots))
	for _, c := range roots {
		btns = append(btns, keyboard.Btn(c.Name, callbacks.Build(ActCategory, c.Slug)))
	}
	return keyboard.Rows(btns, 2).
		Row(keyboard.Btn(btnAbout, ActAbout)).
		Row(keyboard.Btn(btnCooperation, ActCooperation))
}

// Subcategories renders the screen of cat. parent is nil for a root category.
func Subcategories(cat catalog.Category, parent *catalog.Category, children []catalog.Category, productCount int) keyboard.Layout {
	var l keyboard.Layout
	if len(children) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(children))
		for _, c := range children {
			btns = append(btns, keyboard.Btn(c.Name, callbacks.Build(ActSubcategory, c.Slug)))
		}
		l = keyboard.Rows(btns, 2)
		if productCount > 0 {
			l = l.Row(keyboard.Btn(btnAllProducts, callbacks.Build(ActProducts, cat.Slug)))
		}
	} else {
		l = l.Row(keyboard.Btn(btnShowProducts, callbacks.Build(ActProducts, cat.Slug)))
	}
	return l.Row(backTo(parent))
}

// ProductPage renders one page of products; page is zero based and total is
// the number of products in the category.
func ProductPage(cat catalog.Category, parent *catalog.Category, products []catalog.Product, page, total int) keyboard.Layout {
	var l keyboard.Layout
	for _, p := range products {
		l = l.Row(keyboard.Btn("📦 "+format.Truncate(p.Title, titleMax, "..."), callbacks.Build(ActProduct, p.ID)))
	}
	page = ClampPage(page, total)
	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.Btn(btnPrev, callbacks.Build(ActProducts, cat.Slug, page-1)))
	}
	if page+1 < Pages(total) {
		nav = append(nav, keyboard.Btn(btnNext, callbacks.Build(ActProducts, cat.Slug, page+1)))
	}
	l = l.Row(nav...)
	return l.Row(backTo(parent))
}

func backTo(parent *catalog.Category) keyboard.InlineBtn {
	if parent != nil {
		return keyboard.Btn(btnBack, callbacks.Build(ActCategory, parent.Slug))
	}
	return keyboard.Btn(btnBack, ActMainMenu)
}

// ProductActions lists what a customer can do with a product.
func ProductActions(p catalog.Product) keyboard.Layout {
	return keyboard.Layout{}.
		Row(
			keyboard.Btn(btnQuestion, callbacks.Build(ActQuestion, p.ID)),
			keyboard.Btn(btnConsultation, callbacks.Build(ActConsultation, p.ID)),
		).
		Row(keyboard.Btn(btnOrder, callbacks.Build(ActOrder, p.ID))).
		Row(keyboard.Btn(btnDetails, callbacks.Build(ActDetails, p.ID))).
		Row(keyboard.Btn(btnBack, callbacks.Build(ActProducts, p.CategorySlug)))
}

func BackToMenu() keyboard.Layout {
	return keyboard.Layout{}.Row(keyboard.Btn(btnMainMenu, ActMainMenu))
}

func Back(data string) keyboard.Layout {
	return keyboard.Layout{}.Row(keyboard.Btn(btnBack, data))
}

// FormCancel is attached to every form prompt.
func FormCancel() keyboard.Layout {
	return keyboard.Layout{}.Row(keyboard.Btn(btnCancel, callbacks.Build(ActForm, "cancel")))
}

// FormSkip is attached to optional form steps.
func FormSkip() keyboard.Layout {
	return keyboard.Layout{}.Row(
		keyboard.Btn(btnSkip, callbacks.Build(ActForm, "skip")),
		keyboard.Btn(btnCancel, callbacks.Build(ActForm, "cancel")),
	)
}

// Pages returns the number of product pages, at least one.
func Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

// ClampPage keeps page within [0, Pages(total)-1].
func ClampPage(page, total int) int {
	if page < 0 {
		return 0
	}
	if last := Pages(total) - 1; page > last {
		return last
	}
	return page
}
