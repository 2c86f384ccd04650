package state

import (
	"context"
	"errors"
	"maps"
)

// State identifies one step of a conversation, e.g. "order.waiting_for_phone".
type State string

// StateIdle means no conversation is active.
const StateIdle State = ""

// Session is the state record of one chat.
type Session struct {
	Form  string            `json:"form"`
	State State             `json:"state"`
	Data  map[string]string `json:"data,omitempty"`
}

// NewSession starts a session of form at st.
func NewSession(form string, st State) *Session {
	return &Session{Form: form, State: st, Data: make(map[string]string)}
}

// Get returns a collected value or "".
func (s *Session) Get(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Set stores a collected value.
func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

// Clone returns a deep copy so stored sessions never alias caller maps.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Data = maps.Clone(s.Data)
	return &c
}

// ErrNoSession is returned by Manager.Load when the chat has no active state.
var ErrNoSession = errors.New("state: no active session")

// Manager persists sessions keyed by chat id.
type Manager interface {
	// Load returns ErrNoSession when nothing is stored for id.
	Load(ctx context.Context, id int64) (*Session, error)
	// Save creates or replaces the session of id.
	Save(ctx context.Context, id int64, s *Session) error
	// Clear drops the session of id; clearing an absent session is not an error.
	Clear(ctx context.Context, id int64) error
}
