// ABOUTME: Reacts to backend session events by building and tearing down scopes
// ABOUTME: Sign-in triggers a bulk refetch, sign-out drops all local snapshots
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
)

// Backend is what the manager needs from the remote store: the data API
// plus session-change events.
type Backend interface {
	backend.API
	Subscribe(fn func(backend.SessionEvent)) func()
}

// Manager holds the current scope, replacing it on sign-in and discarding
// it on sign-out. Consumers ask for the scope per action rather than
// holding one, so a sign-out invalidates them immediately.
type Manager struct {
	backend     Backend
	log         zerolog.Logger
	unsubscribe func()

	mu    sync.Mutex
	scope *Scope
}

func NewManager(b Backend, log zerolog.Logger) *Manager {
	m := &Manager{backend: b, log: log}
	m.unsubscribe = b.Subscribe(m.handle)
	return m
}

func (m *Manager) handle(ev backend.SessionEvent) {
	if !ev.SignedIn {
		m.mu.Lock()
		scope := m.scope
		m.scope = nil
		m.mu.Unlock()

		if scope != nil {
			scope.Store.Clear()
			m.log.Info().Msg("session ended, local state cleared")
		}
		return
	}

	userID, err := IdentityFromToken(ev.Token)
	if err != nil {
		m.log.Error().Err(err).Msg("sign-in event with unreadable token")
		return
	}

	scope := NewScope(m.backend, userID, m.log)
	if err := scope.Store.RefreshAll(context.Background()); err != nil {
		m.log.Error().Err(err).Msg("initial data load failed")
	}

	m.mu.Lock()
	m.scope = scope
	m.mu.Unlock()
	m.log.Info().Str("user", userID).Msg("session started")
}

// Current returns the active scope, or false when signed out.
func (m *Manager) Current() (*Scope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scope, m.scope != nil
}

// Close stops listening for session events. The current scope, if any,
// stays usable until a sign-out.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
