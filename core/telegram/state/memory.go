package state

import (
	"context"
	"sync"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryManager keeps sessions in process memory; they are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{sessions: make(map[int64]*Session)}
}

func (m *memoryManager) Load(_ context.Context, id int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return s.Clone(), nil
}

func (m *memoryManager) Save(_ context.Context, id int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil || s.State == StateIdle {
		delete(m.sessions, id)
		return nil
	}
	m.sessions[id] = s.Clone()
	return nil
}

func (m *memoryManager) Clear(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
