// Package bot binds the catalog, forms and admin surface to Telegram:
// commands, callback actions and conversation states.
package bot

import (
	"context"

	tg "github.com/m3rciful/furnibot/core/telegram"
	"github.com/m3rciful/furnibot/core/telegram/commands"
	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/core/telegram/middleware"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/admin"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/forms"
	"github.com/m3rciful/furnibot/internal/leads"
	"github.com/m3rciful/furnibot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

// Catalog is the part of catalog.Store the handlers use.
type Catalog interface {
	ListCategories(ctx context.Context, parentID *int64) ([]catalog.Category, error)
	ListAllCategories(ctx context.Context) ([]catalog.Category, error)
	GetCategory(ctx context.Context, id int64) (*catalog.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error)
	CreateCategory(ctx context.Context, in catalog.NewCategory) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error)
	CountProducts(ctx context.Context, f catalog.ProductFilter) (int, error)
	CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProductPhotos(ctx context.Context, productID int64) ([]catalog.ProductPhoto, error)
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Leads is the part of leads.Store the handlers use.
type Leads interface {
	Create(ctx context.Context, in leads.NewLead) (*leads.Lead, error)
	List(ctx context.Context, f leads.ListFilter) ([]leads.Lead, error)
	UpdateStatus(ctx context.Context, id int64, status leads.Status) (*leads.Lead, error)
	CountByStatus(ctx context.Context) (map[leads.Status]int, error)
}

// Deps are the collaborators of Handlers.
type Deps struct {
	Catalog Catalog
	Leads   Leads
	States  state.Manager
	Gate    *admin.Gate
	Style   format.Styler
	Company menu.Company
	Reports admin.Reports
}

// Handlers owns the dispatch tables: callbacks and commands in the registry,
// conversation states in the machine.
type Handlers struct {
	catalog Catalog
	leads   Leads
	gate    *admin.Gate
	style   format.Styler
	company menu.Company
	reports admin.Reports

	engine  *forms.Engine
	machine *state.Machine
}

func NewHandlers(d Deps) *Handlers {
	if d.Style == nil {
		d.Style = format.HTML{}
	}
	if d.Reports.Style == nil {
		d.Reports.Style = d.Style
	}
	if d.Gate == nil {
		d.Gate = admin.NewGate(admin.GateConfig{})
	}
	h := &Handlers{
		catalog: d.Catalog,
		leads:   d.Leads,
		gate:    d.Gate,
		style:   d.Style,
		company: d.Company,
		reports: d.Reports,
		engine:  forms.New(d.Catalog, d.Leads, d.States, forms.Options{Styler: d.Style}),
		machine: state.NewMachine(d.States),
	}
	for _, st := range h.engine.States() {
		h.machine.Handle(st, h.formText)
	}
	h.machine.Handle(stateAdminPassword, h.adminPassword)
	h.machine.Handle(stateAddProduct, h.adminProductBlock)
	return h
}

// Machine exposes the conversation dispatcher for the text router.
func (h *Handlers) Machine() *state.Machine { return h.machine }

// Gate exposes the admin gate for command routing.
func (h *Handlers) Gate() *admin.Gate { return h.gate }

// Register fills reg with every command and callback action.
func (h *Handlers) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Открыть каталог",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.cancelCommand,
		Description: "Отменить заполнение формы",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.adminCommand,
		Description: "Админ панель",
		Hidden:      true,
	})
	reg.RegisterCommand("/addcategory", commands.Command{
		Handler:     h.addCategory,
		Description: "Добавить категорию",
		Usage:       "Название | slug | родительский slug",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/delproduct", commands.Command{
		Handler:     h.deleteProduct,
		Description: "Удалить товар",
		Usage:       "<id>",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/delcategory", commands.Command{
		Handler:     h.deleteCategory,
		Description: "Удалить категорию вместе с товарами",
		Usage:       "<slug>",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/lead", commands.Command{
		Handler:     h.setLeadStatus,
		Description: "Сменить статус заявки",
		Usage:       "<id> <new|in_progress|closed>",
		AdminOnly:   true,
	})

	adminOnly := middleware.RequireAccess(h.gate, h.denied)
	inForm := middleware.RequireConversation(h.machine, h.formIdle)

	callbacks := map[string]tele.HandlerFunc{
		menu.ActMainMenu:     h.mainMenu,
		menu.ActAbout:        h.about,
		menu.ActCooperation:  h.cooperation,
		menu.ActCategory:     h.category,
		menu.ActSubcategory:  h.subcategory,
		menu.ActProducts:     h.products,
		menu.ActProduct:      h.product,
		menu.ActDetails:      h.details,
		menu.ActOrder:        h.startForm(forms.KindOrder),
		menu.ActConsultation: h.startForm(forms.KindConsultation),
		menu.ActQuestion:     h.startForm(forms.KindQuestion),
		menu.ActForm:         inForm(h.formControl),
		admin.Action:         adminOnly(h.adminCallback),
	}
	for action, fn := range callbacks {
		if err := reg.RegisterCallback(action, fn); err != nil {
			return err
		}
	}
	reg.SetTextFallback(h.textFallback)
	return nil
}
