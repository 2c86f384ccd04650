package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"
	"github.com/m3rciful/furnibot/core/telegram/keyboard"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/admin"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/leads"
	"github.com/m3rciful/furnibot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

const (
	stateAdminPassword state.State = "admin.waiting_for_password"
	stateAddProduct    state.State = "admin.waiting_for_product"

	adminForm = "admin"
)

const (
	textUnlocked         = "✅ Доступ открыт"
	textLeadNotFound     = "❌ Заявка не найдена"
	textInvalidStatus    = "❌ Неизвестный статус. Допустимо: new, in_progress, closed"
	textCategoryDeleted  = "🗑️ Категория %s удалена вместе с товарами"
	textProductDeleted   = "🗑️ Товар #%d удалён"
	textCategoryAdded    = "✅ Категория добавлена: %s (%s)"
	textCategoryConflict = "❌ Категория с таким значением поля %s уже существует: %s"
	textParentNotFound   = "❌ Родительская категория %s не найдена"
	textUsageAddCategory = "Использование: /addcategory Название | slug | родительский slug"
	textUsageDelProduct  = "Использование: /delproduct <id>"
	textUsageDelCategory = "Использование: /delcategory <slug>"
	textUsageLead        = "Использование: /lead <id> <new|in_progress|closed>"
	textAdminDisabled    = "❌ Админ панель отключена"
	textBadCategorySlug  = "❌ Некорректный slug: допустимы латинские буквы, цифры и дефис"
)

func (h *Handlers) denied(c tele.Context) error {
	return tghelpers.Alert(c, admin.TextDenied)
}

// payload returns the command arguments of a message.
func payload(c tele.Context) string {
	if m := c.Message(); m != nil {
		return strings.TrimSpace(m.Payload)
	}
	return ""
}

func (h *Handlers) logAdmin(c tele.Context, level slog.Level, event, status string, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
	logger.LogEvent(tghelpers.BuildContext(c), logger.Admin, level, event, attrs...)
}

// adminCommand opens the panel, asking for the password first when the
// gate has one and the user has not unlocked yet.
func (h *Handlers) adminCommand(c tele.Context) error {
	id := tghelpers.SenderID(c)
	switch {
	case !h.gate.Enabled():
		return send(c, textAdminDisabled, nil)
	case !h.gate.Listed(id):
		h.logAdmin(c, slog.LevelWarn, "admin.open", logger.StatusDenied)
		return send(c, admin.TextDenied, nil)
	case h.gate.Allowed(id):
		return send(c, admin.TextPanel, admin.PanelKeyboard())
	}
	sess := state.NewSession(adminForm, stateAdminPassword)
	if err := h.machine.Store().Save(tghelpers.BuildContext(c), sessionID(c), sess); err != nil {
		return fail(c, err)
	}
	return send(c, admin.TextPasswordAsk, nil)
}

func (h *Handlers) adminPassword(c tele.Context) error {
	h.resetConversation(c)
	if !h.gate.TryUnlock(tghelpers.SenderID(c), c.Text()) {
		h.logAdmin(c, slog.LevelWarn, "admin.unlock", logger.StatusDenied)
		return send(c, admin.TextWrongPassword, nil)
	}
	h.logAdmin(c, slog.LevelInfo, "admin.unlock", logger.StatusOK)
	return send(c, textUnlocked+"\n\n"+admin.TextPanel, admin.PanelKeyboard())
}

// textFallback accepts the password typed without /admin; any other text
// gets the generic hint.
func (h *Handlers) textFallback(c tele.Context) error {
	id := tghelpers.SenderID(c)
	if h.gate.NeedsPassword() && !h.gate.Allowed(id) && h.gate.TryUnlock(id, c.Text()) {
		h.logAdmin(c, slog.LevelInfo, "admin.unlock", logger.StatusOK)
		return send(c, textUnlocked+"\n\n"+admin.TextPanel, admin.PanelKeyboard())
	}
	return send(c, menu.UnknownText, nil)
}

// adminCallback dispatches admin:<op>[:args]. Access is checked by middleware.
func (h *Handlers) adminCallback(c tele.Context) error {
	action := callbacks.FromContext(c)
	op := action.Arg(0)
	if st, ok := admin.StatusForOp(op); ok {
		return h.showLeads(c, st)
	}
	switch op {
	case admin.OpPanel, admin.OpBack, "":
		if s := h.machine.Current(tghelpers.BuildContext(c), sessionID(c)); s != nil && s.Form == adminForm {
			h.resetConversation(c)
		}
		return show(c, admin.TextPanel, admin.PanelKeyboard())
	case admin.OpListProducts:
		return h.listProducts(c)
	case admin.OpCategories:
		return h.listCategories(c)
	case admin.OpLeads:
		return h.showLeads(c, "")
	case admin.OpStats:
		return h.stats(c)
	case admin.OpAddProduct:
		sess := state.NewSession(adminForm, stateAddProduct)
		if err := h.machine.Store().Save(tghelpers.BuildContext(c), sessionID(c), sess); err != nil {
			return fail(c, err)
		}
		return show(c, h.reports.AddProductHelp(), menu.FormCancel())
	case admin.OpAddCategory:
		return show(c, admin.TextAddCategory, admin.BackKeyboard())
	case admin.OpLead:
		return h.advanceLead(c, action)
	}
	return tghelpers.Alert(c, "Действие недоступно")
}

func (h *Handlers) listProducts(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.catalog.CountProducts(ctx, catalog.ProductFilter{})
	if err != nil {
		return fail(c, err)
	}
	list, err := h.catalog.ListProducts(ctx, catalog.ProductFilter{Limit: admin.SummaryLimit})
	if err != nil {
		return fail(c, err)
	}
	return show(c, h.reports.ProductList(list, total), admin.ProductsKeyboard())
}

func (h *Handlers) listCategories(c tele.Context) error {
	cats, err := h.catalog.ListAllCategories(tghelpers.BuildContext(c))
	if err != nil {
		return fail(c, err)
	}
	return show(c, h.reports.CategoryList(cats), admin.CategoriesKeyboard())
}

// showLeads renders the newest leads, or one status with per-lead transition
// buttons. Only the shown page is loaded; the remainder comes from the counts.
func (h *Handlers) showLeads(c tele.Context, status leads.Status) error {
	ctx := tghelpers.BuildContext(c)
	list, err := h.leads.List(ctx, leads.ListFilter{Status: status, Limit: admin.SummaryLimit})
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.leads.CountByStatus(ctx)
	if err != nil {
		return fail(c, err)
	}
	total := counts[status]
	if status == "" {
		total = 0
		for _, n := range counts {
			total += n
		}
	}
	return show(c, h.reports.LeadList(list, total, status), admin.LeadsKeyboard(list, status != ""))
}

func (h *Handlers) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cs, err := h.catalog.Stats(ctx)
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.leads.CountByStatus(ctx)
	if err != nil {
		return fail(c, err)
	}
	return show(c, h.reports.Stats(cs, counts), admin.BackKeyboard())
}

// advanceLead handles admin:lead:<id>:<status> and refreshes the list the
// button was pressed on.
func (h *Handlers) advanceLead(c tele.Context, action callbacks.Action) error {
	id, err := action.Int64(1)
	if err != nil {
		return tghelpers.Alert(c, textLeadNotFound)
	}
	ld, err := h.updateLead(c, id, leads.Status(action.Arg(2)))
	if err != nil || ld == nil {
		return err
	}
	_ = c.Respond(&tele.CallbackResponse{Text: h.reports.LeadUpdated(ld)})
	return h.showLeads(c, previousStatus(ld.Status))
}

// updateLead changes the status and answers not-found and invalid input
// itself; a nil lead with nil error means the user was already told.
func (h *Handlers) updateLead(c tele.Context, id int64, status leads.Status) (*leads.Lead, error) {
	ld, err := h.leads.UpdateStatus(tghelpers.BuildContext(c), id, status)
	switch {
	case errors.Is(err, leads.ErrNotFound):
		return nil, tghelpers.Alert(c, textLeadNotFound)
	case errors.Is(err, leads.ErrInvalidStatus):
		return nil, tghelpers.Alert(c, textInvalidStatus)
	case err != nil:
		return nil, fail(c, err)
	}
	h.logAdmin(c, slog.LevelInfo, "lead.status", logger.StatusOK,
		slog.Int64("lead_id", ld.ID),
		slog.String("lead_status", string(ld.Status)),
	)
	return ld, nil
}

// previousStatus inverts admin.NextStatus.
func previousStatus(s leads.Status) leads.Status {
	for _, st := range leads.Statuses {
		if admin.NextStatus(st) == s {
			return st
		}
	}
	return s
}

// adminProductBlock parses the product block sent after admin:add_product.
// Any error keeps the state so the admin can resend a corrected block.
func (h *Handlers) adminProductBlock(c tele.Context) error {
	if !h.gate.Allowed(tghelpers.SenderID(c)) {
		h.resetConversation(c)
		return h.denied(c)
	}
	ctx := tghelpers.BuildContext(c)
	block, err := admin.ParseProductBlock(c.Text())
	if err != nil {
		var fe *admin.FieldError
		msg := admin.TextNotEnough
		if errors.As(err, &fe) {
			msg = admin.DataError(h.style.Escape(fe.Message()))
		}
		h.logAdmin(c, slog.LevelInfo, "product.parse", logger.StatusInvalid, logger.Err(err))
		return send(c, msg, menu.FormCancel())
	}

	cat, err := h.catalog.GetCategoryBySlug(ctx, block.CategorySlug)
	if errors.Is(err, catalog.ErrNotFound) {
		return send(c, menu.CategoryNotFound+": "+h.style.Escape(block.CategorySlug), menu.FormCancel())
	}
	if err != nil {
		return fail(c, err)
	}

	in := catalog.NewProduct{
		CategoryID:  cat.ID,
		Country:     block.Country,
		Title:       block.Title,
		Description: block.Description,
		Price:       decimal.NewNullDecimal(block.Price),
	}
	if block.PhotoURL != "" {
		in.PhotoURLs = []string{block.PhotoURL}
	}
	p, err := h.catalog.CreateProduct(ctx, in)
	if err != nil {
		return fail(c, err)
	}
	h.resetConversation(c)
	h.logAdmin(c, slog.LevelInfo, "product.created", logger.StatusOK, slog.Int64("product_id", p.ID))
	return send(c, h.reports.ProductAdded(p), admin.PanelKeyboard())
}

func (h *Handlers) addCategory(c tele.Context) error {
	raw := payload(c)
	args, err := admin.ParseCategoryArgs(raw)
	var fe *admin.FieldError
	switch {
	case err != nil && raw != "" && errors.As(err, &fe):
		h.logAdmin(c, slog.LevelInfo, "category.parse", logger.StatusInvalid, logger.Err(err))
		return send(c, admin.DataError(h.style.Escape(fe.Message()))+"\n"+textUsageAddCategory, nil)
	case err != nil:
		return send(c, textUsageAddCategory, nil)
	}
	ctx := tghelpers.BuildContext(c)
	in := catalog.NewCategory{Name: args.Name, Slug: args.Slug}
	if args.ParentSlug != "" {
		parent, err := h.catalog.GetCategoryBySlug(ctx, args.ParentSlug)
		if errors.Is(err, catalog.ErrNotFound) {
			return send(c, fmt.Sprintf(textParentNotFound, h.style.Escape(args.ParentSlug)), nil)
		}
		if err != nil {
			return fail(c, err)
		}
		in.ParentID = &parent.ID
	}

	cat, err := h.catalog.CreateCategory(ctx, in)
	var conflict *catalog.ConflictError
	switch {
	case errors.As(err, &conflict):
		return send(c, fmt.Sprintf(textCategoryConflict, conflict.Field, h.style.Escape(conflict.Value)), nil)
	case errors.Is(err, catalog.ErrInvalidSlug):
		return send(c, textBadCategorySlug, nil)
	case err != nil:
		return fail(c, err)
	}
	h.logAdmin(c, slog.LevelInfo, "category.created", logger.StatusOK, slog.Int64("category_id", cat.ID))
	return send(c, fmt.Sprintf(textCategoryAdded, h.style.Escape(cat.Name), h.style.Escape(cat.Slug)), nil)
}

func (h *Handlers) deleteProduct(c tele.Context) error {
	id, err := strconv.ParseInt(payload(c), 10, 64)
	if err != nil || id <= 0 {
		return send(c, textUsageDelProduct, nil)
	}
	err = h.catalog.DeleteProduct(tghelpers.BuildContext(c), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return send(c, menu.ProductNotFound, nil)
	}
	if err != nil {
		return fail(c, err)
	}
	h.logAdmin(c, slog.LevelInfo, "product.deleted", logger.StatusOK, slog.Int64("product_id", id))
	return send(c, fmt.Sprintf(textProductDeleted, id), nil)
}

func (h *Handlers) deleteCategory(c tele.Context) error {
	slug := strings.ToLower(payload(c))
	if slug == "" || strings.ContainsAny(slug, " \t") {
		return send(c, textUsageDelCategory, nil)
	}
	ctx := tghelpers.BuildContext(c)
	cat, err := h.catalog.GetCategoryBySlug(ctx, slug)
	if err == nil {
		err = h.catalog.DeleteCategory(ctx, cat.ID)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return send(c, menu.CategoryNotFound, nil)
	}
	if err != nil {
		return fail(c, err)
	}
	h.logAdmin(c, slog.LevelInfo, "category.deleted", logger.StatusOK, slog.String("slug", slug))
	return send(c, fmt.Sprintf(textCategoryDeleted, h.style.Escape(cat.Name)), nil)
}

func (h *Handlers) setLeadStatus(c tele.Context) error {
	fields := strings.Fields(payload(c))
	if len(fields) != 2 {
		return send(c, textUsageLead, nil)
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return send(c, textUsageLead, nil)
	}
	ld, err := h.updateLead(c, id, leads.Status(fields[1]))
	if err != nil || ld == nil {
		return err
	}
	return send(c, h.reports.LeadUpdated(ld), keyboard.Layout{}.Row(keyboard.Btn("📝 Заявки", callbacks.Build(admin.Action, admin.OpFor[ld.Status]))))
}
