package forms

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/leads"
)

type fakeProducts map[int64]*catalog.Product

func (f fakeProducts) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

type fakeLeads struct {
	mu    sync.Mutex
	saved []leads.NewLead
	err   error
}

func (f *fakeLeads) Create(_ context.Context, in leads.NewLead) (*leads.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, in)
	return &leads.Lead{
		ID:           int64(len(f.saved)),
		Name:         in.Name,
		Phone:        in.Phone,
		ProductID:    in.ProductID,
		InterestType: in.InterestType,
		Status:       leads.StatusNew,
	}, nil
}

const chat int64 = 1001

func newEngine() (*Engine, *fakeLeads, state.Manager) {
	products := fakeProducts{42: {ID: 42, Title: "Диван <Comfort>"}}
	lds := &fakeLeads{}
	states := state.NewMemoryManager()
	return New(products, lds, states, Options{}), lds, states
}

func currentState(t *testing.T, m state.Manager) state.State {
	t.Helper()
	s, err := m.Load(context.Background(), chat)
	if errors.Is(err, state.ErrNoSession) {
		return state.StateIdle
	}
	require.NoError(t, err)
	return s.State
}

func TestOrderFormCreatesLead(t *testing.T) {
	ctx := context.Background()
	e, lds, states := newEngine()

	r, err := e.Start(ctx, chat, KindOrder, 42)
	require.NoError(t, err)
	assert.Contains(t, r.Text, promptName)
	assert.Contains(t, r.Text, "<b>Диван &lt;Comfort&gt;</b>")
	assert.Equal(t, MarkupCancel, r.Markup)
	assert.Equal(t, OrderName, currentState(t, states))

	r, handled, err := e.Handle(ctx, chat, "Иван")
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, promptPhone, r.Text)
	assert.Equal(t, OrderPhone, currentState(t, states))

	r, _, err = e.Handle(ctx, chat, "89161234567")
	require.NoError(t, err)
	assert.Equal(t, promptComment, r.Text)
	assert.Equal(t, MarkupSkip, r.Markup)

	sess, err := states.Load(ctx, chat)
	require.NoError(t, err)
	assert.Equal(t, "+79161234567", sess.Get(keyPhone))

	r, handled, err = e.Handle(ctx, chat, "")
	require.NoError(t, err)
	require.True(t, handled)
	assert.True(t, r.Done)
	assert.Equal(t, int64(1), r.LeadID)
	assert.Contains(t, r.Text, "#1")
	assert.Contains(t, r.Text, "+79161234567")
	assert.Contains(t, r.Text, "Комментарий: Не указан")
	assert.Equal(t, MarkupBackToMenu, r.Markup)
	assert.Equal(t, state.StateIdle, currentState(t, states))

	require.Len(t, lds.saved, 1)
	got := lds.saved[0]
	assert.Equal(t, leads.InterestOrder, got.InterestType)
	assert.Equal(t, "Иван", got.Name)
	assert.Equal(t, "+79161234567", got.Phone)
	assert.Empty(t, got.Comment)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, int64(42), *got.ProductID)
}

func TestStartWithMissingProductKeepsState(t *testing.T) {
	ctx := context.Background()
	e, _, states := newEngine()

	r, err := e.Start(ctx, chat, KindOrder, 999)
	require.NoError(t, err)
	assert.Equal(t, textProductNotFound, r.Text)
	assert.Equal(t, MarkupBackToMenu, r.Markup)
	assert.Equal(t, state.StateIdle, currentState(t, states))

	_, err = e.Start(ctx, chat, KindConsultation, 42)
	require.NoError(t, err)
	_, err = e.Start(ctx, chat, KindQuestion, 999)
	require.NoError(t, err)
	assert.Equal(t, ConsultationName, currentState(t, states))
}

func TestInvalidPhoneRepromptsWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	e, _, states := newEngine()

	_, err := e.Start(ctx, chat, KindConsultation, 42)
	require.NoError(t, err)
	_, _, err = e.Handle(ctx, chat, "Анна-Мария")
	require.NoError(t, err)
	require.Equal(t, ConsultationPhone, currentState(t, states))

	for range 3 {
		r, handled, err := e.Handle(ctx, chat, "abc")
		require.NoError(t, err)
		require.True(t, handled)
		assert.Equal(t, invalidPhone, r.Text)
		assert.Equal(t, ConsultationPhone, currentState(t, states))
	}
}

func TestInvalidNameAndQuestionLength(t *testing.T) {
	ctx := context.Background()
	e, lds, states := newEngine()

	_, err := e.Start(ctx, chat, KindOrder, 42)
	require.NoError(t, err)
	for _, bad := range []string{"И", "Ivan2", "Иван!"} {
		r, _, err := e.Handle(ctx, chat, bad)
		require.NoError(t, err)
		assert.Equal(t, invalidName, r.Text)
	}
	assert.Equal(t, OrderName, currentState(t, states))

	_, err = e.Start(ctx, chat, KindQuestion, 42)
	require.NoError(t, err)
	r, _, err := e.Handle(ctx, chat, "где?")
	require.NoError(t, err)
	assert.Equal(t, invalidQuestion, r.Text)

	r, _, err = e.Handle(ctx, chat, "Есть ли доставка в Казань?")
	require.NoError(t, err)
	assert.True(t, r.Done)
	require.Len(t, lds.saved, 1)
	assert.Equal(t, anonymousName, lds.saved[0].Name)
	assert.Equal(t, unknownPhone, lds.saved[0].Phone)
	assert.Equal(t, "Есть ли доставка в Казань?", lds.saved[0].Comment)
	assert.Contains(t, r.Text, "Номер вопроса: #1")
}

func TestOverlongNameIsRejected(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []Kind{KindOrder, KindConsultation} {
		e, _, states := newEngine()
		_, err := e.Start(ctx, chat, kind, 42)
		require.NoError(t, err)
		first := currentState(t, states)

		r, handled, err := e.Handle(ctx, chat, strings.Repeat("Я", 300))
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, invalidName, r.Text)
		assert.Equal(t, first, currentState(t, states), "%s stays on the name step", kind)

		r, _, err = e.Handle(ctx, chat, strings.Repeat("Я", nameMax))
		require.NoError(t, err)
		assert.Equal(t, promptPhone, r.Text)
	}
}

func TestLongOrderCommentIsAccepted(t *testing.T) {
	ctx := context.Background()
	e, lds, _ := newEngine()

	_, err := e.Start(ctx, chat, KindOrder, 42)
	require.NoError(t, err)
	_, _, err = e.Handle(ctx, chat, "Иван")
	require.NoError(t, err)
	_, _, err = e.Handle(ctx, chat, "89161234567")
	require.NoError(t, err)

	comment := strings.Repeat("доставка на пятый этаж ", 200)
	r, _, err := e.Handle(ctx, chat, comment)
	require.NoError(t, err)
	assert.True(t, r.Done)
	require.Len(t, lds.saved, 1)
	assert.Equal(t, strings.TrimSpace(comment), lds.saved[0].Comment)
}

func TestPersistenceFailureKeepsFinalState(t *testing.T) {
	ctx := context.Background()
	e, lds, states := newEngine()
	lds.err = errors.New("db down")

	_, err := e.Start(ctx, chat, KindQuestion, 42)
	require.NoError(t, err)
	r, handled, err := e.Handle(ctx, chat, "Какая гарантия?")
	require.Error(t, err)
	assert.True(t, handled)
	assert.Equal(t, textSaveFailed, r.Text)
	assert.False(t, r.Done)
	assert.Equal(t, QuestionText, currentState(t, states))

	lds.err = nil
	r, _, err = e.Handle(ctx, chat, "Какая гарантия?")
	require.NoError(t, err)
	assert.True(t, r.Done)
	assert.Len(t, lds.saved, 1)
}

func TestSkipAndCancel(t *testing.T) {
	ctx := context.Background()
	e, lds, states := newEngine()

	_, handled, err := e.Skip(ctx, chat)
	require.NoError(t, err)
	assert.False(t, handled)

	_, err = e.Start(ctx, chat, KindOrder, 42)
	require.NoError(t, err)
	_, handled, err = e.Skip(ctx, chat)
	require.NoError(t, err)
	assert.False(t, handled, "name step is not optional")

	_, _, err = e.Handle(ctx, chat, "Олег")
	require.NoError(t, err)
	_, _, err = e.Handle(ctx, chat, "+7 (916) 123-45-67")
	require.NoError(t, err)
	r, handled, err := e.Skip(ctx, chat)
	require.NoError(t, err)
	require.True(t, handled)
	assert.True(t, r.Done)
	require.Len(t, lds.saved, 1)
	assert.Equal(t, "+79161234567", lds.saved[0].Phone)

	_, err = e.Start(ctx, chat, KindOrder, 42)
	require.NoError(t, err)
	require.NoError(t, e.Cancel(ctx, chat))
	assert.Equal(t, state.StateIdle, currentState(t, states))

	_, handled, err = e.Handle(ctx, chat, "Олег")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestForeignStateIsNotHandled(t *testing.T) {
	ctx := context.Background()
	e, _, states := newEngine()
	require.NoError(t, states.Save(ctx, chat, state.NewSession("admin", "admin.waiting_for_product")))

	_, handled, err := e.Handle(ctx, chat, "anything")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.False(t, e.Handles("admin.waiting_for_product"))
}

func TestStatesListsEveryStep(t *testing.T) {
	e, _, _ := newEngine()
	assert.Equal(t, []state.State{
		OrderName, OrderPhone, OrderComment,
		ConsultationName, ConsultationPhone, ConsultationQuestion,
		QuestionText,
	}, e.States())

	_, err := e.Start(context.Background(), chat, Kind("survey"), 42)
	assert.Error(t, err)
}
