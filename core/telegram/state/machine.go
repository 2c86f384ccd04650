package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/m3rciful/furnibot/core/logger"
	tghelpers "github.com/m3rciful/furnibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Machine routes an update to the handler registered for the chat's current
// state. The table is filled once at startup and read-only afterwards.
type Machine struct {
	store    Manager
	handlers map[State]tele.HandlerFunc
}

// NewMachine wraps store with an empty dispatch table.
func NewMachine(store Manager) *Machine {
	return &Machine{store: store, handlers: make(map[State]tele.HandlerFunc)}
}

// Store exposes the underlying session manager.
func (m *Machine) Store() Manager {
	return m.store
}

// Handle binds st to h. Registering a state twice is a wiring bug.
func (m *Machine) Handle(st State, h tele.HandlerFunc) {
	if st == StateIdle || h == nil {
		panic("state: invalid handler registration")
	}
	if _, dup := m.handlers[st]; dup {
		panic(fmt.Sprintf("state: handler for %q already registered", st))
	}
	m.handlers[st] = h
}

// States lists registered states in sorted order.
func (m *Machine) States() []State {
	out := make([]State, 0, len(m.handlers))
	for st := range m.handlers {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SessionID keys conversations by chat, falling back to the sender for chatless updates.
func SessionID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// Current loads the chat's session, or nil when idle or unreadable.
func (m *Machine) Current(ctx context.Context, id int64) *Session {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.LogEvent(ctx, logger.State, slog.LevelError, "state.load",
				slog.String("status", logger.StatusFail), logger.Err(err))
		}
		return nil
	}
	return s
}

// InProgress reports whether the chat sits in a state that has a handler.
// Sessions left in unknown states are treated as idle.
func (m *Machine) InProgress(c tele.Context) bool {
	s := m.Current(tghelpers.BuildContext(c), SessionID(c))
	if s == nil {
		return false
	}
	_, ok := m.handlers[s.State]
	return ok
}

// ManagerHandler runs the handler bound to the chat's current state.
func (m *Machine) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	s := m.Current(ctx, SessionID(c))
	if s == nil {
		return nil
	}
	h, ok := m.handlers[s.State]
	logger.LogEvent(ctx, logger.State, slog.LevelDebug, "state.dispatch",
		slog.String("form", s.Form),
		slog.String("state", string(s.State)),
		slog.Bool("matched", ok),
	)
	if !ok {
		return nil
	}
	return h(c)
}

// Reset clears the chat's session.
func (m *Machine) Reset(c tele.Context) error {
	return m.store.Clear(tghelpers.BuildContext(c), SessionID(c))
}
