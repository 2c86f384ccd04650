package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/core/telegram/keyboard"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/leads"
)

// Callback namespace and operations, sent as admin:<op>[:args].
const (
	Action = "admin"

	OpPanel         = "panel"
	OpBack          = "back"
	OpListProducts  = "list_products"
	OpCategories    = "categories"
	OpLeads         = "leads"
	OpLeadsNew      = "leads_new"
	OpLeadsProgress = "leads_progress"
	OpLeadsClosed   = "leads_closed"
	OpStats         = "stats"
	OpAddProduct    = "add_product"
	OpAddCategory   = "add_category"
	OpLead          = "lead"
)

// SummaryLimit caps the items listed in a report.
const SummaryLimit = 10

const (
	TextPanel         = "🛠️ Админ панель\n\nВыберите действие:"
	TextDenied        = "❌ У вас нет доступа к админ панели"
	TextPasswordAsk   = "🔐 Введите пароль для входа в админ панель:"
	TextWrongPassword = "❌ Неверный пароль"
	TextNotEnough     = "❌ Недостаточно данных. Нужно минимум 5 строк."
	TextAddCategory   = "➕ Добавление категории\n\nОтправьте команду:\n/addcategory Название | slug | родительский slug\n\nslug и родитель необязательны."

	dateLayout = "02.01.2006 15:04"
)

// OpFor maps a lead status to the filtered view showing it.
var OpFor = map[leads.Status]string{
	leads.StatusNew:        OpLeadsNew,
	leads.StatusInProgress: OpLeadsProgress,
	leads.StatusClosed:     OpLeadsClosed,
}

// StatusForOp is the inverse of OpFor.
func StatusForOp(op string) (leads.Status, bool) {
	for st, o := range OpFor {
		if o == op {
			return st, true
		}
	}
	return "", false
}

var (
	statusEmoji = map[leads.Status]string{
		leads.StatusNew:        "🆕",
		leads.StatusInProgress: "🔄",
		leads.StatusClosed:     "✅",
	}
	statusTitle = map[leads.Status]string{
		leads.StatusNew:        "Новые",
		leads.StatusInProgress: "В работе",
		leads.StatusClosed:     "Закрытые",
	}
	typeEmoji = map[leads.InterestType]string{
		leads.InterestOrder:        "🛒",
		leads.InterestConsultation: "📞",
		leads.InterestQuestion:     "💬",
	}
)

func emoji[K comparable](m map[K]string, k K) string {
	if e, ok := m[k]; ok {
		return e
	}
	return "❓"
}

func op(name string, args ...any) string {
	return callbacks.Build(Action, append([]any{name}, args...)...)
}

// Reports renders admin screens.
type Reports struct {
	Style format.Styler
	// Loc is the zone of lead timestamps; UTC when nil.
	Loc *time.Location
}

func (r Reports) style() format.Styler {
	if r.Style == nil {
		return format.HTML{}
	}
	return r.Style
}

func (r Reports) loc() *time.Location {
	if r.Loc == nil {
		return time.UTC
	}
	return r.Loc
}

// PanelKeyboard is the admin main menu.
func PanelKeyboard() keyboard.Layout {
	return keyboard.Layout{}.
		Row(keyboard.Btn("➕ Добавить товар", op(OpAddProduct))).
		Row(keyboard.Btn("📋 Список товаров", op(OpListProducts))).
		Row(keyboard.Btn("🗂️ Управление категориями", op(OpCategories))).
		Row(keyboard.Btn("📝 Заявки (лиды)", op(OpLeads))).
		Row(keyboard.Btn("📊 Статистика", op(OpStats))).
		Row(keyboard.Btn("🔙 Главное меню", "main_menu"))
}

func backBtn() keyboard.InlineBtn { return keyboard.Btn("🔙 Назад", op(OpBack)) }

// BackKeyboard returns to the panel.
func BackKeyboard() keyboard.Layout {
	return keyboard.Layout{}.Row(backBtn())
}

func ProductsKeyboard() keyboard.Layout {
	return keyboard.Layout{}.Row(backBtn(), keyboard.Btn("➕ Добавить товар", op(OpAddProduct)))
}

func CategoriesKeyboard() keyboard.Layout {
	return keyboard.Layout{}.Row(backBtn(), keyboard.Btn("➕ Добавить категорию", op(OpAddCategory)))
}

// LeadsKeyboard has the status filters and, for a filtered view, one button
// per shown lead moving it to the next status.
func LeadsKeyboard(shown []leads.Lead, filtered bool) keyboard.Layout {
	l := keyboard.Layout{}.
		Row(
			keyboard.Btn("🆕 Новые", op(OpLeadsNew)),
			keyboard.Btn("🔄 В работе", op(OpLeadsProgress)),
		).
		Row(keyboard.Btn("✅ Закрытые", op(OpLeadsClosed)))
	if filtered {
		var btns []keyboard.InlineBtn
		for i, ld := range shown {
			if i == SummaryLimit {
				break
			}
			next := NextStatus(ld.Status)
			btns = append(btns, keyboard.Btn(
				fmt.Sprintf("%s #%d", statusEmoji[next], ld.ID),
				op(OpLead, ld.ID, next),
			))
		}
		l = append(l, keyboard.Rows(btns, 3)...)
	}
	return l.Row(backBtn())
}

// NextStatus cycles new, in_progress, closed and back to new.
func NextStatus(s leads.Status) leads.Status {
	switch s {
	case leads.StatusNew:
		return leads.StatusInProgress
	case leads.StatusInProgress:
		return leads.StatusClosed
	}
	return leads.StatusNew
}

func more(b *strings.Builder, total int, noun string) {
	if total > SummaryLimit {
		fmt.Fprintf(b, "\n... и еще %d %s", total-SummaryLimit, noun)
	}
}

// ProductList shows the first products of total.
func (r Reports) ProductList(products []catalog.Product, total int) string {
	if total == 0 || len(products) == 0 {
		return "📋 Товары не найдены"
	}
	st := r.style()
	var b strings.Builder
	b.WriteString("📋 Список товаров:\n\n")
	for i, p := range products {
		if i == SummaryLimit {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s (#%d)\n", i+1, st.Escape(p.Title), catalog.PriceText(p.Price, "без цены"), p.ID)
	}
	more(&b, total, "товаров")
	return strings.TrimRight(b.String(), "\n")
}

// CategoryList shows categories with their slugs; children are indented.
func (r Reports) CategoryList(cats []catalog.Category) string {
	if len(cats) == 0 {
		return "🗂️ Категории не найдены"
	}
	st := r.style()
	var b strings.Builder
	b.WriteString("🗂️ Категории:\n\n")
	for i, c := range cats {
		if i == SummaryLimit {
			break
		}
		indent := ""
		if !c.IsRoot() {
			indent = "   ↳ "
		}
		fmt.Fprintf(&b, "%s%d. %s (%s)\n", indent, i+1, st.Escape(c.Name), st.Escape(c.Slug))
	}
	more(&b, len(cats), "категорий")
	return strings.TrimRight(b.String(), "\n")
}

// LeadList renders leads; status is empty for the unfiltered view.
func (r Reports) LeadList(list []leads.Lead, total int, status leads.Status) string {
	st := r.style()
	title := "Последние заявки"
	if status != "" {
		title = statusTitle[status] + " заявки"
	}
	if len(list) == 0 {
		if status != "" {
			return "📝 " + statusTitle[status] + " заявок пока нет"
		}
		return "📝 Заявок пока нет"
	}

	var b strings.Builder
	b.WriteString("📝 " + title + ":\n\n")
	for i, ld := range list {
		if i == SummaryLimit {
			break
		}
		fmt.Fprintf(&b, "%d. ", i+1)
		if status == "" {
			b.WriteString(emoji(statusEmoji, ld.Status) + " ")
		}
		fmt.Fprintf(&b, "%s #%d\n", emoji(typeEmoji, ld.InterestType), ld.ID)
		fmt.Fprintf(&b, "   👤 %s | 📞 %s\n", st.Escape(ld.Name), st.Escape(ld.Phone))
		product := "Не указан"
		switch {
		case ld.ProductTitle != nil:
			product = st.Escape(*ld.ProductTitle)
		case ld.ProductID != nil:
			product = fmt.Sprintf("удален (#%d)", *ld.ProductID)
		}
		b.WriteString("   📦 " + product + "\n")
		if status != "" && ld.Comment != nil {
			b.WriteString("   💬 " + st.Escape(format.Truncate(*ld.Comment, 50, "...")) + "\n")
		}
		b.WriteString("   📅 " + ld.Created.In(r.loc()).Format(dateLayout) + "\n\n")
	}
	more(&b, total, "заявок")
	return strings.TrimRight(b.String(), "\n")
}

// LeadUpdated confirms a status change.
func (r Reports) LeadUpdated(ld *leads.Lead) string {
	return fmt.Sprintf("%s Заявка #%d: %s", statusEmoji[ld.Status], ld.ID, strings.ToLower(statusTitle[ld.Status]))
}

// Stats renders the dashboard.
func (r Reports) Stats(cs catalog.Stats, counts map[leads.Status]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	avg := "0.00 ₽"
	if cs.AvgPrice.Valid {
		avg = catalog.FormatPrice(cs.AvgPrice.Decimal)
	}
	return fmt.Sprintf(`📊 Статистика:

📦 Товаров: %d
🗂️ Категорий: %d
💰 Средняя цена: %s

📝 Заявки:
🆕 Новые: %d
🔄 В работе: %d
✅ Закрытые: %d
📋 Всего: %d`,
		cs.Products, cs.Categories, avg,
		counts[leads.StatusNew], counts[leads.StatusInProgress], counts[leads.StatusClosed], total)
}

// AddProductHelp explains the product block format.
func (r Reports) AddProductHelp() string {
	return `➕ Добавление товара

Отправьте данные товара в следующем формате:
<pre>Название товара
Категория (slug, например kitchen)
Страна (RU/BY)
Цена (только цифры)
Описание
Фото (URL, опционально)</pre>

Пример:
<pre>Кухонный гарнитур Nova
kitchen
RU
74990
Модульный кухонный гарнитур, фасады МДФ
https://example.com/photo.jpg</pre>`
}

// ProductAdded confirms a created product.
func (r Reports) ProductAdded(p *catalog.Product) string {
	st := r.style()
	return fmt.Sprintf("✅ Товар успешно добавлен!\n\n📦 %s\n💰 Цена: %s\n🏷️ Категория: %s\n🌍 Страна: %s",
		st.Escape(p.Title), catalog.PriceText(p.Price, "без цены"), st.Escape(p.CategoryName), st.Escape(p.Country))
}

// DataError wraps a parse failure for the admin.
func DataError(msg string) string {
	return "❌ Ошибка в данных: " + msg
}
