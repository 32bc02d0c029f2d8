package compose

import (
	"time"

	"penpal/utils"
)

// Manager keeps one compose session per browser session, dropping
// sessions left idle for longer than the TTL
type Manager struct {
	sessions  *utils.Cache[*Session]
	resolver  *Resolver
	deliverer *Deliverer
	notifier  Notifier
	defaults  DraftOptions
}

// NewManager creates a manager whose sessions start from defaults
func NewManager(ttl time.Duration, resolver *Resolver, deliverer *Deliverer, notifier Notifier, defaults DraftOptions) *Manager {
	cleanup := ttl / 4
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Manager{
		sessions:  utils.NewCache[*Session](ttl, cleanup),
		resolver:  resolver,
		deliverer: deliverer,
		notifier:  notifier,
		defaults:  defaults,
	}
}

// Get returns the session stored under key, creating it for identity when
// there is none. A stored session of another user is replaced.
func (m *Manager) Get(key string, identity Identity) (*Session, error) {
	var err error
	s := m.sessions.GetOrCreate(key, func() *Session {
		var created *Session
		created, err = m.newSession(identity)
		return created
	})
	if err != nil {
		m.sessions.Delete(key)
		return nil, err
	}
	if s.identity == identity {
		return s, nil
	}

	s, err = m.newSession(identity)
	if err != nil {
		return nil, err
	}
	m.sessions.Set(key, s)
	return s, nil
}

func (m *Manager) newSession(identity Identity) (*Session, error) {
	return NewSession(identity, m.resolver, m.deliverer, m.notifier, m.defaults)
}

// Drop forgets the session stored under key
func (m *Manager) Drop(key string) {
	m.sessions.Delete(key)
}

func (m *Manager) Len() int {
	return m.sessions.Size()
}

// Close stops the background cleanup
func (m *Manager) Close() {
	m.sessions.Close()
}
