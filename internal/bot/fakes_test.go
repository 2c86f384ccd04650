package bot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/leads"

	tele "gopkg.in/telebot.v4"
)

type message struct {
	text   string
	markup *tele.ReplyMarkup
	edited bool
}

// data lists the callback data of every inline button in reading order.
func (m message) data() []string {
	if m.markup == nil {
		return nil
	}
	var out []string
	for _, row := range m.markup.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

type fakeContext struct {
	tele.Context
	update tele.Update
	user   *tele.User
	store  map[string]any

	out     []message
	answers []*tele.CallbackResponse
}

func newTextContext(userID int64, text string) *fakeContext {
	msg := &tele.Message{Text: text}
	if cmd, rest, ok := cutCommand(text); ok {
		msg.Text = cmd
		if rest != "" {
			msg.Text += " " + rest
		}
		msg.Payload = rest
	}
	return &fakeContext{
		update: tele.Update{ID: 1, Message: msg},
		user:   &tele.User{ID: userID},
		store:  map[string]any{},
	}
}

func newCallbackContext(userID int64, data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{Data: data, Message: &tele.Message{ID: 7}}},
		user:   &tele.User{ID: userID},
		store:  map[string]any{},
	}
}

func cutCommand(text string) (string, string, bool) {
	if len(text) == 0 || text[0] != '/' {
		return "", "", false
	}
	for i, r := range text {
		if r == ' ' {
			return text[:i], text[i+1:], true
		}
	}
	return text, "", true
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Message() *tele.Message {
	if f.update.Callback != nil {
		return f.update.Callback.Message
	}
	return f.update.Message
}
func (f *fakeContext) Sender() *tele.User  { return f.user }
func (f *fakeContext) Chat() *tele.Chat    { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.record(what, opts, false)
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	f.record(what, opts, true)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 {
		f.answers = append(f.answers, resp[0])
	}
	return nil
}

func (f *fakeContext) record(what any, opts []any, edited bool) {
	m := message{edited: edited}
	m.text, _ = what.(string)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			m.markup = so.ReplyMarkup
		}
	}
	f.out = append(f.out, m)
}

func (f *fakeContext) last() message {
	if len(f.out) == 0 {
		return message{}
	}
	return f.out[len(f.out)-1]
}

func (f *fakeContext) alerts() []string {
	var out []string
	for _, a := range f.answers {
		if a != nil && a.Text != "" {
			out = append(out, a.Text)
		}
	}
	return out
}

type fakeCatalog struct {
	mu       sync.Mutex
	nextID   int64
	cats     []catalog.Category
	products []catalog.Product
	photos   map[int64][]catalog.ProductPhoto
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{photos: map[int64][]catalog.ProductPhoto{}}
}

func (f *fakeCatalog) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) addCategory(name, slug string, parent *catalog.Category) catalog.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := catalog.Category{ID: f.id(), Name: name, Slug: slug}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	f.cats = append(f.cats, c)
	return c
}

func (f *fakeCatalog) addProduct(cat catalog.Category, title string, price int64) catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := catalog.Product{
		ID:               f.id(),
		CategoryID:       cat.ID,
		Title:            title,
		Country:          "RU",
		Price:            decimal.NewNullDecimal(decimal.NewFromInt(price)),
		InStock:          true,
		CreatedAt:        time.Now(),
		CategorySlug:     cat.Slug,
		CategoryName:     cat.Name,
		CategoryParentID: cat.ParentID,
	}
	f.products = append(f.products, p)
	return p
}

func (f *fakeCatalog) ListCategories(_ context.Context, parentID *int64) ([]catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Category
	for _, c := range f.cats {
		switch {
		case parentID == nil && c.ParentID == nil,
			parentID != nil && c.ParentID != nil && *c.ParentID == *parentID:
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalog) ListAllCategories(context.Context) ([]catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Category(nil), f.cats...), nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id int64) (*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cats {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) GetCategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cats {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) CreateCategory(_ context.Context, in catalog.NewCategory) (*catalog.Category, error) {
	if in.Slug == "" {
		in.Slug = catalog.MakeSlug(in.Name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cats {
		if c.Slug == in.Slug {
			return nil, &catalog.ConflictError{Entity: "category", Field: "slug", Value: in.Slug}
		}
		if c.Name == in.Name {
			return nil, &catalog.ConflictError{Entity: "category", Field: "name", Value: in.Name}
		}
	}
	c := catalog.Category{ID: f.id(), Name: in.Name, Slug: in.Slug, ParentID: in.ParentID}
	f.cats = append(f.cats, c)
	return &c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.cats {
		if c.ID == id {
			f.cats = append(f.cats[:i], f.cats[i+1:]...)
			kept := f.products[:0]
			for _, p := range f.products {
				if p.CategoryID != id {
					kept = append(kept, p)
				}
			}
			f.products = kept
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) filter(flt catalog.ProductFilter) []catalog.Product {
	var out []catalog.Product
	for _, p := range f.products {
		if flt.CategoryID != 0 && p.CategoryID != flt.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeCatalog) ListProducts(_ context.Context, flt catalog.ProductFilter) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.filter(flt)
	if flt.Offset >= len(out) {
		return nil, nil
	}
	out = out[flt.Offset:]
	if flt.Limit > 0 && flt.Limit < len(out) {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeCatalog) CountProducts(_ context.Context, flt catalog.ProductFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filter(flt)), nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in catalog.NewProduct) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cat *catalog.Category
	for i := range f.cats {
		if f.cats[i].ID == in.CategoryID {
			cat = &f.cats[i]
		}
	}
	if cat == nil {
		return nil, catalog.ErrNotFound
	}
	p := catalog.Product{
		ID:           f.id(),
		CategoryID:   cat.ID,
		Country:      in.Country,
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		InStock:      true,
		CategorySlug: cat.Slug,
		CategoryName: cat.Name,
	}
	f.products = append(f.products, p)
	for i, u := range in.PhotoURLs {
		f.photos[p.ID] = append(f.photos[p.ID], catalog.ProductPhoto{ProductID: p.ID, PhotoURL: u, IsMain: i == 0})
	}
	return &p, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			delete(f.photos, id)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (f *fakeCatalog) ListProductPhotos(_ context.Context, id int64) ([]catalog.ProductPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.photos[id], nil
}

func (f *fakeCatalog) Stats(context.Context) (catalog.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := catalog.Stats{Products: len(f.products), Categories: len(f.cats)}
	if len(f.products) > 0 {
		sum := decimal.Zero
		for _, p := range f.products {
			sum = sum.Add(p.Price.Decimal)
		}
		s.AvgPrice = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(f.products)))).Round(2))
	}
	return s, nil
}

type fakeLeads struct {
	mu     sync.Mutex
	list   []leads.Lead
	listed []leads.ListFilter
}

func (f *fakeLeads) Create(_ context.Context, in leads.NewLead) (*leads.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := leads.Lead{
		ID:           int64(len(f.list) + 1),
		Name:         in.Name,
		Phone:        in.Phone,
		ProductID:    in.ProductID,
		InterestType: in.InterestType,
		Status:       leads.StatusNew,
		Created:      time.Now(),
		Updated:      time.Now(),
	}
	if in.Comment != "" {
		c := in.Comment
		l.Comment = &c
	}
	f.list = append(f.list, l)
	return &l, nil
}

func (f *fakeLeads) List(_ context.Context, flt leads.ListFilter) ([]leads.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leads.Lead
	for i := len(f.list) - 1; i >= 0; i-- {
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
		if flt.Status == "" || f.list[i].Status == flt.Status {
			out = append(out, f.list[i])
		}
	}
	f.listed = append(f.listed, flt)
	return out, nil
}

func (f *fakeLeads) UpdateStatus(_ context.Context, id int64, status leads.Status) (*leads.Lead, error) {
	if !status.Valid() {
		return nil, leads.ErrInvalidStatus
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].Status = status
			l := f.list[i]
			return &l, nil
		}
	}
	return nil, leads.ErrNotFound
}

func (f *fakeLeads) CountByStatus(context.Context) (map[leads.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[leads.Status]int{}
	for _, s := range leads.Statuses {
		out[s] = 0
	}
	for _, l := range f.list {
		out[l.Status]++
	}
	return out, nil
}
