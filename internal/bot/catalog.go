package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"
	"github.com/m3rciful/furnibot/core/telegram/keyboard"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

const textFailure = "⚠️ Что-то пошло не так. Попробуйте ещё раз позже."

func show(c tele.Context, text string, l keyboard.Layout) error {
	return tghelpers.Show(c, text, keyboard.Markup(l))
}

func send(c tele.Context, text string, l keyboard.Layout) error {
	return tghelpers.Send(c, text, keyboard.Markup(l))
}

// fail tells the user something broke and hands err to the router for logging.
func fail(c tele.Context, err error) error {
	_ = show(c, textFailure, menu.BackToMenu())
	return err
}

// resetConversation drops any half-filled form; navigation to the main menu
// abandons it.
func (h *Handlers) resetConversation(c tele.Context) {
	if err := h.machine.Reset(c); err != nil {
		logger.LogEvent(tghelpers.BuildContext(c), logger.State, slog.LevelWarn, "state.reset",
			slog.String("status", logger.StatusFail),
			logger.Err(err),
		)
	}
}

func (h *Handlers) start(c tele.Context) error {
	h.resetConversation(c)
	roots, err := h.catalog.ListCategories(tghelpers.BuildContext(c), nil)
	if err != nil {
		return fail(c, err)
	}
	return send(c, menu.Welcome, menu.Main(roots))
}

func (h *Handlers) mainMenu(c tele.Context) error {
	h.resetConversation(c)
	roots, err := h.catalog.ListCategories(tghelpers.BuildContext(c), nil)
	if err != nil {
		return fail(c, err)
	}
	return show(c, menu.Welcome, menu.Main(roots))
}

func (h *Handlers) about(c tele.Context) error {
	return show(c, menu.About(h.company), menu.BackToMenu())
}

func (h *Handlers) cooperation(c tele.Context) error {
	return show(c, menu.Cooperation(h.company), menu.BackToMenu())
}

func (h *Handlers) category(c tele.Context) error {
	return h.openCategory(c, menu.CategoryNotFound)
}

func (h *Handlers) subcategory(c tele.Context) error {
	return h.openCategory(c, menu.SubcategoryNotFound)
}

// openCategory shows the children of a category, or its products when it
// has none.
func (h *Handlers) openCategory(c tele.Context, notFound string) error {
	ctx := tghelpers.BuildContext(c)
	cat, parent, err := h.lookupCategory(ctx, callbacks.FromContext(c).Arg(0))
	if errors.Is(err, catalog.ErrNotFound) {
		return show(c, notFound, menu.BackToMenu())
	}
	if err != nil {
		return fail(c, err)
	}

	children, err := h.catalog.ListCategories(ctx, &cat.ID)
	if err != nil {
		return fail(c, err)
	}
	total, err := h.catalog.CountProducts(ctx, catalog.ProductFilter{CategoryID: cat.ID})
	if err != nil {
		return fail(c, err)
	}
	if len(children) > 0 {
		return show(c, menu.ChooseType, menu.Subcategories(*cat, parent, children, total))
	}
	return h.renderProducts(ctx, c, *cat, parent, 0, total)
}

func (h *Handlers) products(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	action := callbacks.FromContext(c)
	cat, parent, err := h.lookupCategory(ctx, action.Arg(0))
	if errors.Is(err, catalog.ErrNotFound) {
		return show(c, menu.CategoryNotFound, menu.BackToMenu())
	}
	if err != nil {
		return fail(c, err)
	}
	total, err := h.catalog.CountProducts(ctx, catalog.ProductFilter{CategoryID: cat.ID})
	if err != nil {
		return fail(c, err)
	}
	return h.renderProducts(ctx, c, *cat, parent, action.IntOr(1, 0), total)
}

func (h *Handlers) renderProducts(ctx context.Context, c tele.Context, cat catalog.Category, parent *catalog.Category, page, total int) error {
	if total == 0 {
		return show(c, menu.CategoryEmpty(h.style, cat), menu.BackToMenu())
	}
	page = menu.ClampPage(page, total)
	list, err := h.catalog.ListProducts(ctx, catalog.ProductFilter{
		CategoryID: cat.ID,
		Limit:      menu.PageSize,
		Offset:     page * menu.PageSize,
	})
	if err != nil {
		return fail(c, err)
	}
	return show(c,
		menu.ProductPageText(h.style, cat, page, len(list), total),
		menu.ProductPage(cat, parent, list, page, total),
	)
}

// lookupCategory resolves slug and, for nested categories, the parent.
func (h *Handlers) lookupCategory(ctx context.Context, slug string) (*catalog.Category, *catalog.Category, error) {
	if slug == "" {
		return nil, nil, catalog.ErrNotFound
	}
	cat, err := h.catalog.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if cat.ParentID == nil {
		return cat, nil, nil
	}
	parent, err := h.catalog.GetCategory(ctx, *cat.ParentID)
	if errors.Is(err, catalog.ErrNotFound) {
		return cat, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return cat, parent, nil
}

func (h *Handlers) loadProduct(c tele.Context) (*catalog.Product, error) {
	id, err := callbacks.FromContext(c).Int64(0)
	if err != nil {
		return nil, catalog.ErrNotFound
	}
	return h.catalog.GetProduct(tghelpers.BuildContext(c), id)
}

func (h *Handlers) product(c tele.Context) error {
	p, err := h.loadProduct(c)
	if errors.Is(err, catalog.ErrNotFound) {
		return show(c, menu.ProductNotFound, menu.BackToMenu())
	}
	if err != nil {
		return fail(c, err)
	}
	return show(c, menu.ProductCard(h.style, *p), menu.ProductActions(*p))
}

func (h *Handlers) details(c tele.Context) error {
	p, err := h.loadProduct(c)
	if errors.Is(err, catalog.ErrNotFound) {
		return tghelpers.Alert(c, menu.ProductNotFound)
	}
	if err != nil {
		return fail(c, err)
	}
	photos, err := h.catalog.ListProductPhotos(tghelpers.BuildContext(c), p.ID)
	if err != nil {
		return fail(c, err)
	}
	return show(c, menu.ProductDetails(h.style, *p, len(photos)), menu.ProductActions(*p))
}

// sessionID keys both the form engine and the machine by chat.
func sessionID(c tele.Context) int64 {
	return state.SessionID(c)
}
