package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	user   *tele.User
	store  map[string]any
	sent   []any
}

func newFake(userID int64, upd tele.Update) *fakeContext {
	return &fakeContext{update: upd, user: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User  { return f.user }
func (f *fakeContext) Chat() *tele.Chat    { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Text() string        { return "hello" }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

type gateFunc func(int64) bool

func (g gateFunc) Allowed(id int64) bool { return g(id) }

func message() tele.Update  { return tele.Update{ID: 1, Message: &tele.Message{Text: "hi"}} }
func callback() tele.Update { return tele.Update{ID: 2, Callback: &tele.Callback{Data: "main_menu"}} }

func TestRequireAccess(t *testing.T) {
	var reached, rejected int
	mw := RequireAccess(gateFunc(func(id int64) bool { return id == 1 }), func(tele.Context) error {
		rejected++
		return nil
	})
	h := mw(func(tele.Context) error {
		reached++
		return nil
	})

	require.NoError(t, h(newFake(1, message())))
	require.NoError(t, h(newFake(2, message())))
	assert.Equal(t, 1, reached)
	assert.Equal(t, 1, rejected)

	closed := RequireAccess(nil, nil)(func(tele.Context) error {
		t.Fatal("handler must not run without a gate")
		return nil
	})
	assert.NoError(t, closed(newFake(1, message())))
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := time.Unix(0, 0)
	var limited, handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return clock },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(newFake(7, message())))
	clock = clock.Add(500 * time.Millisecond)
	require.NoError(t, h(newFake(7, message())))
	require.NoError(t, h(newFake(7, callback())))
	require.NoError(t, h(newFake(8, message())))
	clock = clock.Add(time.Second)
	require.NoError(t, h(newFake(7, message())))

	assert.Equal(t, 4, handled)
	assert.Equal(t, 1, limited)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() { assert.NoError(t, h(newFake(1, message()))) })

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(newFake(1, message())), want)
}

func TestMessageMetricsCounts(t *testing.T) {
	c := newFake(1, message())
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("one"))
		return c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.sent, 2)
}

type convFunc func() bool

func (f convFunc) InProgress(tele.Context) bool { return f() }

func TestRequireConversation(t *testing.T) {
	active := false
	var ran, idle int
	h := RequireConversation(convFunc(func() bool { return active }), func(tele.Context) error {
		idle++
		return nil
	})(func(tele.Context) error {
		ran++
		return nil
	})

	require.NoError(t, h(newFake(1, callback())))
	active = true
	require.NoError(t, h(newFake(1, callback())))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, idle)
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "callback", UpdateKind(callback()))
	assert.Equal(t, "message", UpdateKind(message()))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := newFake(5, message())
	h := LoggerMiddleware(func(tele.Context) error { return nil })
	require.NoError(t, h(c))
	assert.Equal(t, "1:5:5", c.store["rid"])
}
