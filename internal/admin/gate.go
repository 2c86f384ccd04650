// Package admin holds the pieces of the admin surface that do not talk to
// Telegram: the access gate, the product block parser and report texts.
package admin

import (
	"crypto/subtle"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type GateConfig struct {
	UserIDs []int64
	// Password is compared in constant time.
	Password string
	// PasswordHash is a bcrypt hash and wins over Password when both are set.
	PasswordHash string
}

// Gate decides who reaches admin handlers. With a secret configured a user
// must also unlock the session by sending it; unlocks live until restart.
type Gate struct {
	users    map[int64]struct{}
	password []byte
	hash     []byte

	mu       sync.RWMutex
	unlocked map[int64]struct{}
}

func NewGate(cfg GateConfig) *Gate {
	g := &Gate{
		users:    make(map[int64]struct{}, len(cfg.UserIDs)),
		unlocked: make(map[int64]struct{}),
	}
	for _, id := range cfg.UserIDs {
		g.users[id] = struct{}{}
	}
	if h := strings.TrimSpace(cfg.PasswordHash); h != "" {
		g.hash = []byte(h)
	} else if cfg.Password != "" {
		g.password = []byte(cfg.Password)
	}
	return g
}

// Enabled is false when neither an allow-list nor a secret is configured.
func (g *Gate) Enabled() bool {
	return len(g.users) > 0 || g.hasSecret()
}

func (g *Gate) hasSecret() bool {
	return len(g.hash) > 0 || len(g.password) > 0
}

// NeedsPassword reports whether listed users must unlock first.
func (g *Gate) NeedsPassword() bool { return g.hasSecret() }

// Listed reports whether id passes the allow-list. An empty list admits
// everyone when a secret is configured.
func (g *Gate) Listed(id int64) bool {
	if !g.Enabled() {
		return false
	}
	if len(g.users) == 0 {
		return true
	}
	_, ok := g.users[id]
	return ok
}

// Allowed reports whether id may use admin handlers right now.
func (g *Gate) Allowed(id int64) bool {
	if !g.Listed(id) {
		return false
	}
	if !g.hasSecret() {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.unlocked[id]
	return ok
}

// CheckPassword compares text with the configured secret.
func (g *Gate) CheckPassword(text string) bool {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return false
	case len(g.hash) > 0:
		return bcrypt.CompareHashAndPassword(g.hash, []byte(text)) == nil
	case len(g.password) > 0:
		return subtle.ConstantTimeCompare(g.password, []byte(text)) == 1
	}
	return false
}

// TryUnlock unlocks id when it is listed and text is the secret.
func (g *Gate) TryUnlock(id int64, text string) bool {
	if !g.Listed(id) || !g.CheckPassword(text) {
		return false
	}
	g.mu.Lock()
	g.unlocked[id] = struct{}{}
	g.mu.Unlock()
	return true
}

func (g *Gate) Lock(id int64) {
	g.mu.Lock()
	delete(g.unlocked, id)
	g.mu.Unlock()
}
