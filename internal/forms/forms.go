// Package forms runs the multi-step conversations that turn a product page
// into a lead: order, consultation request and question.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/metrics"
	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/leads"
)

// Kind names a form; it doubles as the lead interest type.
type Kind string

const (
	KindOrder        Kind = "order"
	KindConsultation Kind = "consultation"
	KindQuestion     Kind = "question"
)

const (
	OrderName    state.State = "order.waiting_for_name"
	OrderPhone   state.State = "order.waiting_for_phone"
	OrderComment state.State = "order.waiting_for_comment"

	ConsultationName     state.State = "consultation.waiting_for_name"
	ConsultationPhone    state.State = "consultation.waiting_for_phone"
	ConsultationQuestion state.State = "consultation.waiting_for_question"

	QuestionText state.State = "question.waiting_for_question"
)

const (
	keyProductID    = "product_id"
	keyProductTitle = "product_title"
	keyName         = "name"
	keyPhone        = "phone"
	keyComment      = "comment"
)

// Markup tells the transport which keyboard to attach to a reply.
type Markup int

const (
	MarkupNone Markup = iota
	MarkupCancel
	MarkupSkip
	MarkupBackToMenu
)

// Reply is what the user should see after an engine call.
type Reply struct {
	Text   string
	Markup Markup
	// LeadID is set when the conversation produced a lead.
	LeadID int64
	// Done reports that the conversation is over.
	Done bool
}

type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type LeadCreator interface {
	Create(ctx context.Context, in leads.NewLead) (*leads.Lead, error)
}

type Options struct {
	// Styler escapes user supplied values; defaults to HTML.
	Styler format.Styler
}

// Engine advances conversations through an explicit state to step table.
type Engine struct {
	products ProductGetter
	leads    LeadCreator
	states   state.Manager
	style    format.Styler

	forms map[Kind]form
	steps map[state.State]step
}

func New(products ProductGetter, leadStore LeadCreator, states state.Manager, opts Options) *Engine {
	if opts.Styler == nil {
		opts.Styler = format.HTML{}
	}
	e := &Engine{
		products: products,
		leads:    leadStore,
		states:   states,
		style:    opts.Styler,
	}
	e.forms, e.steps = buildTable()
	return e
}

// States lists every state the engine handles.
func (e *Engine) States() []state.State {
	out := make([]state.State, 0, len(e.steps))
	for _, f := range []Kind{KindOrder, KindConsultation, KindQuestion} {
		for st := e.forms[f].first; st != state.StateIdle; st = e.steps[st].next {
			out = append(out, st)
		}
	}
	return out
}

// Handles reports whether st belongs to one of the forms.
func (e *Engine) Handles(st state.State) bool {
	_, ok := e.steps[st]
	return ok
}

// Start opens kind for productID, replacing any active conversation. A
// missing product leaves the stored state untouched.
func (e *Engine) Start(ctx context.Context, sessionID int64, kind Kind, productID int64) (Reply, error) {
	f, ok := e.forms[kind]
	if !ok {
		return Reply{}, fmt.Errorf("forms: unknown form %q", kind)
	}
	p, err := e.products.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.LogEvent(ctx, logger.Forms, slog.LevelInfo, "form.start",
			slog.String("status", logger.StatusSkip),
			slog.String("form", string(kind)),
			slog.Int64("product_id", productID),
			slog.String("reason", "product_not_found"),
		)
		return Reply{Text: textProductNotFound, Markup: MarkupBackToMenu, Done: true}, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("forms: load product: %w", err)
	}

	sess := state.NewSession(string(kind), f.first)
	sess.Set(keyProductID, strconv.FormatInt(p.ID, 10))
	sess.Set(keyProductTitle, p.Title)
	if err := e.states.Save(ctx, sessionID, sess); err != nil {
		return Reply{}, fmt.Errorf("forms: save state: %w", err)
	}

	metrics.Get().FormStarted(string(kind))
	logger.LogEvent(ctx, logger.Forms, slog.LevelInfo, "form.start",
		slog.String("status", logger.StatusOK),
		slog.String("form", string(kind)),
		slog.Int64("product_id", p.ID),
	)
	first := e.steps[f.first]
	text := f.header + "\n\nТовар: " + e.style.Bold(p.Title) + "\n\n" + first.prompt
	return Reply{Text: text, Markup: first.markup}, nil
}

// Handle feeds text to the active conversation. handled is false when the
// session has no form state.
func (e *Engine) Handle(ctx context.Context, sessionID int64, text string) (reply Reply, handled bool, err error) {
	sess, err := e.states.Load(ctx, sessionID)
	if errors.Is(err, state.ErrNoSession) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{}, false, fmt.Errorf("forms: load state: %w", err)
	}
	st, ok := e.steps[sess.State]
	if !ok {
		return Reply{}, false, nil
	}

	value, valid := st.accept(text)
	if !valid {
		metrics.Get().ValidationFailed(sess.Form, string(sess.State))
		logger.LogEvent(ctx, logger.Forms, slog.LevelInfo, "form.validate",
			slog.String("status", logger.StatusInvalid),
			slog.String("form", sess.Form),
			slog.String("state", string(sess.State)),
		)
		return Reply{Text: st.invalid, Markup: st.markup}, true, nil
	}
	sess.Set(st.field, value)

	if st.next == state.StateIdle {
		reply, err := e.complete(ctx, sessionID, sess)
		return reply, true, err
	}

	sess.State = st.next
	if err := e.states.Save(ctx, sessionID, sess); err != nil {
		return Reply{}, true, fmt.Errorf("forms: save state: %w", err)
	}
	logger.LogEvent(ctx, logger.Forms, slog.LevelDebug, "form.advance",
		slog.String("status", logger.StatusOK),
		slog.String("form", sess.Form),
		slog.String("state", string(sess.State)),
	)
	next := e.steps[st.next]
	return Reply{Text: next.prompt, Markup: next.markup}, true, nil
}

// Skip answers an optional step with an empty value. handled is false when
// the current step cannot be skipped.
func (e *Engine) Skip(ctx context.Context, sessionID int64) (Reply, bool, error) {
	sess, err := e.states.Load(ctx, sessionID)
	if errors.Is(err, state.ErrNoSession) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{}, false, fmt.Errorf("forms: load state: %w", err)
	}
	if st, ok := e.steps[sess.State]; !ok || !st.optional {
		return Reply{}, false, nil
	}
	return e.Handle(ctx, sessionID, "")
}

// Cancel abandons the active conversation, if any.
func (e *Engine) Cancel(ctx context.Context, sessionID int64) error {
	if err := e.states.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("forms: clear state: %w", err)
	}
	logger.LogEvent(ctx, logger.Forms, slog.LevelDebug, "form.cancel",
		slog.String("status", logger.StatusOK),
	)
	return nil
}

// complete persists the lead. On failure the state stays at the final step
// so the user can send the answer again.
func (e *Engine) complete(ctx context.Context, sessionID int64, sess *state.Session) (Reply, error) {
	kind := Kind(sess.Form)
	in := leads.NewLead{
		Name:         sess.Get(keyName),
		Phone:        sess.Get(keyPhone),
		InterestType: leads.InterestType(kind),
		Comment:      sess.Get(keyComment),
	}
	if kind == KindQuestion {
		in.Name, in.Phone = anonymousName, unknownPhone
	}
	if id, err := strconv.ParseInt(sess.Get(keyProductID), 10, 64); err == nil {
		in.ProductID = &id
	}

	lead, err := e.leads.Create(ctx, in)
	if err != nil {
		metrics.Get().LeadFailed(string(kind))
		logger.LogEvent(ctx, logger.Forms, slog.LevelError, "form.complete",
			slog.String("status", logger.StatusFail),
			slog.String("form", sess.Form),
			logger.Err(err),
		)
		return Reply{Text: textSaveFailed, Markup: e.steps[sess.State].markup}, fmt.Errorf("forms: create lead: %w", err)
	}

	if err := e.states.Clear(ctx, sessionID); err != nil {
		logger.LogEvent(ctx, logger.Forms, slog.LevelWarn, "form.clear",
			slog.String("status", logger.StatusFail),
			slog.Int64("lead_id", lead.ID),
			logger.Err(err),
		)
	}
	metrics.Get().LeadCreated(string(kind))
	logger.LogEvent(ctx, logger.Forms, slog.LevelInfo, "form.complete",
		slog.String("status", logger.StatusOK),
		slog.String("form", sess.Form),
		slog.Int64("lead_id", lead.ID),
	)
	return Reply{
		Text:   e.summary(kind, sess, lead.ID),
		Markup: MarkupBackToMenu,
		LeadID: lead.ID,
		Done:   true,
	}, nil
}
