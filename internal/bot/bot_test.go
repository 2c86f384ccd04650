package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/furnibot/core/telegram"
	"github.com/m3rciful/furnibot/core/telegram/router"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/admin"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/forms"
	"github.com/m3rciful/furnibot/internal/leads"
	"github.com/m3rciful/furnibot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

const (
	customer int64 = 500
	manager  int64 = 10
)

type harness struct {
	t        *testing.T
	h        *Handlers
	reg      *tg.Registry
	catalog  *fakeCatalog
	leads    *fakeLeads
	states   state.Manager
	commands map[string]tele.HandlerFunc
	callback tele.HandlerFunc
	text     tele.HandlerFunc

	kitchen    catalog.Category
	bedroom    catalog.Category
	bedroomRU  catalog.Category
	kitchenTop catalog.Product
}

func newHarness(t *testing.T, gate admin.GateConfig) *harness {
	t.Helper()
	hs := &harness{
		t:       t,
		catalog: newFakeCatalog(),
		leads:   &fakeLeads{},
		states:  state.NewMemoryManager(),
	}
	hs.bedroom = hs.catalog.addCategory("Спальни", "bedroom", nil)
	hs.kitchen = hs.catalog.addCategory("Кухни", "kitchen", nil)
	hs.bedroomRU = hs.catalog.addCategory("Российские спальни", "bedroom-ru", &hs.bedroom)
	for i := 1; i <= 7; i++ {
		p := hs.catalog.addProduct(hs.kitchen, fmt.Sprintf("Кухня %d", i), int64(50000+i))
		if i == 1 {
			hs.kitchenTop = p
		}
	}
	hs.catalog.addProduct(hs.bedroomRU, "Спальня Сон", 89990)

	hs.h = NewHandlers(Deps{
		Catalog: hs.catalog,
		Leads:   hs.leads,
		States:  hs.states,
		Gate:    admin.NewGate(gate),
	})
	hs.reg = tg.NewRegistry()
	require.NoError(t, hs.h.Register(hs.reg))

	hs.commands = map[string]tele.HandlerFunc{}
	for _, r := range router.CommandRoutes(hs.reg, router.CommandRouteOptions{
		Gate:          hs.h.Gate(),
		OnAdminReject: hs.h.denied,
	}) {
		hs.commands[r.Endpoint.(string)] = r.Handler
	}
	hs.callback = router.CallbackRoute(hs.reg).Handler
	hs.text = router.TextRoutes(hs.h.Machine(), hs.reg, router.TextOptions{})[0].Handler
	return hs
}

func (hs *harness) press(user int64, data string) *fakeContext {
	hs.t.Helper()
	c := newCallbackContext(user, data)
	require.NoError(hs.t, hs.callback(c))
	return c
}

func (hs *harness) say(user int64, text string) *fakeContext {
	hs.t.Helper()
	c := newTextContext(user, text)
	if name, _, ok := cutCommand(text); ok {
		h, found := hs.commands[name]
		require.Truef(hs.t, found, "command %s not routed", name)
		require.NoError(hs.t, h(c))
		return c
	}
	require.NoError(hs.t, hs.text(c))
	return c
}

func (hs *harness) state(user int64) state.State {
	hs.t.Helper()
	s, err := hs.states.Load(context.Background(), user)
	if err != nil {
		return state.StateIdle
	}
	return s.State
}

func TestRegisterBuildsDispatchTables(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	assert.Equal(t, []string{
		"about_company", "admin", "category", "consultation", "cooperation", "details",
		"form", "main_menu", "order", "product", "products", "question", "subcategory",
	}, hs.reg.ListCallbacks())

	var visible []string
	for _, c := range hs.reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	assert.Equal(t, []string{"cancel", "start"}, visible)
	assert.Len(t, hs.commands, 7)
}

func TestStartShowsWelcomeAndRootCategories(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.say(customer, "/start").last()

	assert.Equal(t, menu.Welcome, m.text)
	assert.False(t, m.edited)
	assert.Equal(t, []string{"category:kitchen", "category:bedroom", "about_company", "cooperation"}, m.data())
}

func TestMainMenuButtonEditsMessage(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.press(customer, "main_menu").last()
	assert.True(t, m.edited)
	assert.Equal(t, menu.Welcome, m.text)
}

func TestCategoryWithChildrenListsSubcategories(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.press(customer, "category:bedroom").last()

	assert.True(t, m.edited)
	assert.Equal(t, menu.ChooseType, m.text)
	assert.Equal(t, []string{"subcategory:bedroom-ru", "main_menu"}, m.data())
}

func TestSubcategoryWithoutChildrenShowsProducts(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.press(customer, "subcategory:bedroom-ru").last()

	assert.Contains(t, m.text, "Российские спальни")
	assert.Contains(t, m.text, "Показано: 1 из 1 товаров")
	data := m.data()
	require.Len(t, data, 2)
	assert.True(t, strings.HasPrefix(data[0], "product:"))
	assert.Equal(t, "category:bedroom", data[1], "back goes to the parent category")
}

func TestProductPagination(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})

	first := hs.press(customer, "category:kitchen").last()
	assert.Contains(t, first.text, "Страница 1 из 2")
	data := first.data()
	require.Len(t, data, 7)
	assert.Equal(t, fmt.Sprintf("product:%d", hs.kitchenTop.ID), data[0])
	assert.Equal(t, "products:kitchen:1", data[5])
	assert.Equal(t, "main_menu", data[6])

	second := hs.press(customer, "products:kitchen:1").last()
	assert.Contains(t, second.text, "Страница 2 из 2")
	assert.Contains(t, second.text, "Показано: 2 из 7 товаров")
	data = second.data()
	require.Len(t, data, 4)
	assert.Equal(t, "products:kitchen:0", data[2])

	clamped := hs.press(customer, "products:kitchen:9").last()
	assert.Contains(t, clamped.text, "Страница 2 из 2")
}

func TestUnknownCategoryAndProduct(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})

	m := hs.press(customer, "category:ghost").last()
	assert.Equal(t, menu.CategoryNotFound, m.text)
	assert.Equal(t, []string{"main_menu"}, m.data())

	m = hs.press(customer, "subcategory:ghost").last()
	assert.Equal(t, menu.SubcategoryNotFound, m.text)

	m = hs.press(customer, "product:999").last()
	assert.Equal(t, menu.ProductNotFound, m.text)

	c := hs.press(customer, "details:999")
	assert.Empty(t, c.out)
	assert.Equal(t, []string{menu.ProductNotFound}, c.alerts())
}

func TestProductCardAndDetails(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	id := hs.kitchenTop.ID

	card := hs.press(customer, fmt.Sprintf("product:%d", id)).last()
	assert.Contains(t, card.text, "<b>Кухня 1</b>")
	assert.Equal(t, []string{
		fmt.Sprintf("question:%d", id),
		fmt.Sprintf("consultation:%d", id),
		fmt.Sprintf("order:%d", id),
		fmt.Sprintf("details:%d", id),
		"products:kitchen",
	}, card.data())

	details := hs.press(customer, fmt.Sprintf("details:%d", id)).last()
	assert.Contains(t, details.text, "🌍 Страна: RU")
	assert.Contains(t, details.text, "🗂️ Категория: Кухни")
}

func TestOrderFormEndToEnd(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	id := hs.kitchenTop.ID

	m := hs.press(customer, fmt.Sprintf("order:%d", id)).last()
	assert.Contains(t, m.text, "Кухня 1")
	assert.Equal(t, []string{"form:cancel"}, m.data())

	m = hs.say(customer, "Иван").last()
	assert.False(t, m.edited)
	assert.Equal(t, []string{"form:cancel"}, m.data())

	hs.say(customer, "12345")
	assert.Equal(t, "order.waiting_for_phone", string(hs.state(customer)), "invalid phone keeps the step")

	m = hs.say(customer, "89161234567").last()
	assert.Equal(t, []string{"form:skip", "form:cancel"}, m.data())

	m = hs.press(customer, "form:skip").last()
	assert.Contains(t, m.text, "#1")
	assert.Contains(t, m.text, "+79161234567")
	assert.Equal(t, []string{"main_menu"}, m.data())
	assert.Equal(t, state.StateIdle, hs.state(customer))

	require.Len(t, hs.leads.list, 1)
	ld := hs.leads.list[0]
	assert.Equal(t, "Иван", ld.Name)
	assert.Equal(t, "+79161234567", ld.Phone)
	assert.Equal(t, leads.InterestOrder, ld.InterestType)
	require.NotNil(t, ld.ProductID)
	assert.Equal(t, id, *ld.ProductID)
	assert.Nil(t, ld.Comment)
}

func TestQuestionFormRejectsShortQuestion(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	hs.press(customer, fmt.Sprintf("question:%d", hs.kitchenTop.ID))

	hs.say(customer, "Да?")
	assert.Equal(t, "question.waiting_for_question", string(hs.state(customer)))
	assert.Empty(t, hs.leads.list)

	m := hs.say(customer, "Есть ли другие цвета фасадов?").last()
	assert.Contains(t, m.text, "#1")
	require.Len(t, hs.leads.list, 1)
	assert.Equal(t, leads.InterestQuestion, hs.leads.list[0].InterestType)
}

func TestFormForMissingProduct(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.press(customer, "consultation:999").last()
	assert.Equal(t, menu.ProductNotFound, m.text)
	assert.Equal(t, state.StateIdle, hs.state(customer))
}

func TestFormButtonsWithoutConversation(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	c := hs.press(customer, "form:cancel")
	assert.Empty(t, c.out)
	assert.Equal(t, []string{textFormInactive}, c.alerts())
}

func TestSkipOnRequiredStepIsRefused(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	hs.press(customer, fmt.Sprintf("order:%d", hs.kitchenTop.ID))

	c := hs.press(customer, "form:skip")
	assert.Equal(t, []string{textCannotSkip}, c.alerts())
	assert.Equal(t, "order.waiting_for_name", string(hs.state(customer)))
}

func TestCancelAbandonsForm(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})

	hs.press(customer, fmt.Sprintf("order:%d", hs.kitchenTop.ID))
	m := hs.press(customer, "form:cancel").last()
	assert.Equal(t, menu.FormCancelled, m.text)
	assert.Equal(t, state.StateIdle, hs.state(customer))

	hs.press(customer, fmt.Sprintf("order:%d", hs.kitchenTop.ID))
	m = hs.say(customer, "/cancel").last()
	assert.Equal(t, menu.FormCancelled, m.text)
	assert.Equal(t, state.StateIdle, hs.state(customer))

	m = hs.say(customer, "/cancel").last()
	assert.Equal(t, textNothingToCancel, m.text)
}

func TestStartAbandonsFormAndTextFallsBack(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	hs.press(customer, fmt.Sprintf("order:%d", hs.kitchenTop.ID))
	hs.say(customer, "/start")
	assert.Equal(t, state.StateIdle, hs.state(customer))

	m := hs.say(customer, "Иван").last()
	assert.Equal(t, menu.UnknownText, m.text)
	assert.Empty(t, hs.leads.list)
}

func TestAdminCallbacksRequireAccess(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})

	c := hs.press(customer, "admin:stats")
	assert.Empty(t, c.out)
	assert.Equal(t, []string{admin.TextDenied}, c.alerts())

	m := hs.say(customer, "/admin").last()
	assert.Equal(t, admin.TextDenied, m.text)

	m = hs.say(customer, fmt.Sprintf("/delproduct %d", hs.kitchenTop.ID)).last()
	assert.Equal(t, admin.TextDenied, m.text)
	_, err := hs.catalog.GetProduct(context.Background(), hs.kitchenTop.ID)
	assert.NoError(t, err, "denied command never reaches the handler")
}

func TestAdminDisabledWithoutConfig(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{})
	m := hs.say(manager, "/admin").last()
	assert.Equal(t, textAdminDisabled, m.text)
}

func TestAdminPasswordUnlock(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}, Password: "s3cret"})

	m := hs.say(manager, "/admin").last()
	assert.Equal(t, admin.TextPasswordAsk, m.text)
	assert.Equal(t, stateAdminPassword, hs.state(manager))

	m = hs.say(manager, "nope").last()
	assert.Equal(t, admin.TextWrongPassword, m.text)
	assert.False(t, hs.h.Gate().Allowed(manager))
	assert.Equal(t, state.StateIdle, hs.state(manager))

	c := hs.press(manager, "admin:stats")
	assert.Equal(t, []string{admin.TextDenied}, c.alerts())

	m = hs.say(manager, "s3cret").last()
	assert.Contains(t, m.text, admin.TextPanel)
	assert.True(t, hs.h.Gate().Allowed(manager))

	m = hs.say(manager, "/admin").last()
	assert.Equal(t, admin.TextPanel, m.text)

	m = hs.say(customer, "s3cret").last()
	assert.Equal(t, menu.UnknownText, m.text, "unlisted users cannot unlock")
}

func TestAdminAddProduct(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})
	before := len(hs.catalog.products)

	m := hs.press(manager, "admin:add_product").last()
	assert.Contains(t, m.text, "Добавление товара")
	assert.Equal(t, stateAddProduct, hs.state(manager))

	m = hs.say(manager, "Кухня Nova\nkitchen\nRU\nдорого\nМодульная кухня").last()
	assert.True(t, strings.HasPrefix(m.text, "❌ Ошибка в данных"), m.text)
	assert.Contains(t, m.text, "дорого")
	assert.Len(t, hs.catalog.products, before)
	assert.Equal(t, stateAddProduct, hs.state(manager))

	m = hs.say(manager, "Кухня Nova\nkitchen\nRU").last()
	assert.Equal(t, admin.TextNotEnough, m.text)

	m = hs.say(manager, "Кухня Nova\nghost\nRU\n74990\nМодульная кухня").last()
	assert.True(t, strings.HasPrefix(m.text, menu.CategoryNotFound), m.text)
	assert.Len(t, hs.catalog.products, before)

	m = hs.say(manager, "Кухня Nova\nkitchen\nru\n74 990\nМодульная кухня\nhttps://example.com/nova.jpg").last()
	assert.Contains(t, m.text, "✅ Товар успешно добавлен")
	assert.Contains(t, m.text, "74 990.00 ₽")
	require.Len(t, hs.catalog.products, before+1)
	p := hs.catalog.products[before]
	assert.Equal(t, "RU", p.Country)
	assert.Equal(t, hs.kitchen.ID, p.CategoryID)
	assert.Len(t, hs.catalog.photos[p.ID], 1)
	assert.Equal(t, state.StateIdle, hs.state(manager))
}

func TestAdminBackLeavesProductState(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})
	hs.press(manager, "admin:add_product")
	m := hs.press(manager, "admin:back").last()
	assert.Equal(t, admin.TextPanel, m.text)
	assert.Equal(t, state.StateIdle, hs.state(manager))
}

func TestAdminReports(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})

	m := hs.press(manager, "admin:stats").last()
	assert.Contains(t, m.text, "📦 Товаров: 8")
	assert.Contains(t, m.text, "🗂️ Категорий: 3")

	m = hs.press(manager, "admin:list_products").last()
	assert.Contains(t, m.text, "1. Кухня 1")

	m = hs.press(manager, "admin:categories").last()
	assert.Contains(t, m.text, "↳")

	m = hs.press(manager, "admin:leads").last()
	assert.Equal(t, "📝 Заявок пока нет", m.text)
}

func TestAdminLeadsLoadsOnlyShownPage(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})
	ctx := context.Background()
	for i := 0; i < admin.SummaryLimit+3; i++ {
		_, err := hs.leads.Create(ctx, leads.NewLead{Name: "Иван", Phone: "+79161234567", InterestType: leads.InterestOrder})
		require.NoError(t, err)
	}

	m := hs.press(manager, "admin:leads").last()
	assert.Contains(t, m.text, fmt.Sprintf("#%d", admin.SummaryLimit+3), "newest first")
	assert.NotContains(t, m.text, "#3\n")
	assert.Contains(t, m.text, "... и еще 3 заявок")
	require.NotEmpty(t, hs.leads.listed)
	assert.Equal(t, admin.SummaryLimit, hs.leads.listed[len(hs.leads.listed)-1].Limit)

	m = hs.press(manager, "admin:leads_new").last()
	assert.Contains(t, m.text, "... и еще 3 заявок")
	assert.Equal(t, leads.StatusNew, hs.leads.listed[len(hs.leads.listed)-1].Status)
}

func TestAdminLeadStatusCycle(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})
	ctx := context.Background()
	for _, name := range []string{"Иван", "Мария"} {
		_, err := hs.leads.Create(ctx, leads.NewLead{Name: name, Phone: "+79161234567", InterestType: leads.InterestOrder})
		require.NoError(t, err)
	}

	m := hs.press(manager, "admin:leads_new").last()
	assert.Contains(t, m.text, "Новые заявки")
	assert.Contains(t, m.data(), "admin:lead:1:in_progress")
	assert.Contains(t, m.data(), "admin:lead:2:in_progress")

	c := hs.press(manager, "admin:lead:1:in_progress")
	assert.Contains(t, c.alerts(), "🔄 Заявка #1: в работе")
	assert.Equal(t, leads.StatusInProgress, hs.leads.list[0].Status)
	assert.NotContains(t, c.last().data(), "admin:lead:1:in_progress", "the new-leads view is refreshed")
	assert.Contains(t, c.last().data(), "admin:lead:2:in_progress")

	c = hs.press(manager, "admin:lead:99:closed")
	assert.Equal(t, []string{textLeadNotFound}, c.alerts())

	m = hs.say(manager, "/lead 1 bogus").last()
	assert.Equal(t, textInvalidStatus, m.text)

	m = hs.say(manager, "/lead 1 closed").last()
	assert.Equal(t, "✅ Заявка #1: закрытые", m.text)
	assert.Equal(t, []string{"admin:leads_closed"}, m.data())

	m = hs.say(manager, "/lead").last()
	assert.Equal(t, textUsageLead, m.text)
}

func TestAddCategoryCommand(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})

	m := hs.say(manager, "/addcategory Диваны | sofas").last()
	assert.Equal(t, "✅ Категория добавлена: Диваны (sofas)", m.text)

	m = hs.say(manager, "/addcategory Другие диваны | sofas").last()
	assert.Contains(t, m.text, "slug")
	assert.Contains(t, m.text, "sofas")

	m = hs.say(manager, "/addcategory Угловые | corner | ghost").last()
	assert.Equal(t, fmt.Sprintf(textParentNotFound, "ghost"), m.text)

	m = hs.say(manager, "/addcategory Угловые | corner | sofas").last()
	assert.Contains(t, m.text, "Угловые")
	corner, err := hs.catalog.GetCategoryBySlug(context.Background(), "corner")
	require.NoError(t, err)
	require.NotNil(t, corner.ParentID)

	m = hs.say(manager, "/addcategory").last()
	assert.Equal(t, textUsageAddCategory, m.text)

	m = hs.say(manager, "/addcategory Кресла | кресла").last()
	assert.Equal(t, admin.DataError("slug «кресла»: допустимы a-z, 0-9, _ и -")+"\n"+textUsageAddCategory, m.text)
	_, err = hs.catalog.GetCategoryBySlug(context.Background(), "кресла")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteCommands(t *testing.T) {
	hs := newHarness(t, admin.GateConfig{UserIDs: []int64{manager}})

	m := hs.say(manager, "/delproduct abc").last()
	assert.Equal(t, textUsageDelProduct, m.text)

	m = hs.say(manager, fmt.Sprintf("/delproduct %d", hs.kitchenTop.ID)).last()
	assert.Equal(t, fmt.Sprintf(textProductDeleted, hs.kitchenTop.ID), m.text)
	m = hs.say(manager, fmt.Sprintf("/delproduct %d", hs.kitchenTop.ID)).last()
	assert.Equal(t, menu.ProductNotFound, m.text)

	m = hs.say(manager, "/delcategory bedroom-ru").last()
	assert.Contains(t, m.text, "Российские спальни")
	n, err := hs.catalog.CountProducts(context.Background(), catalog.ProductFilter{CategoryID: hs.bedroomRU.ID})
	require.NoError(t, err)
	assert.Zero(t, n)

	m = hs.say(manager, "/delcategory bedroom-ru").last()
	assert.Equal(t, menu.CategoryNotFound, m.text)
}

func TestLayoutForMarkup(t *testing.T) {
	assert.Nil(t, layoutFor(forms.MarkupNone))
	assert.Equal(t, menu.BackToMenu(), layoutFor(forms.MarkupBackToMenu))
	assert.Equal(t, admin.NextStatus(previousStatus(leads.StatusClosed)), leads.StatusClosed)
	assert.Equal(t, leads.StatusNew, previousStatus(leads.StatusInProgress))
}
