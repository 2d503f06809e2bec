package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Manager is the in-memory registry of live sessions. Sessions exist only
// for the duration of one practice run; once finished or exited they are
// dropped and only the persisted results remain.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	ctrl   *Controller
	userID string
}

var ErrSessionNotFound = errors.New("session not found")

func NewManager() *Manager {
	return &Manager{sessions: map[string]*entry{}}
}

// Add registers a started controller and returns its session id.
func (m *Manager) Add(userID string, c *Controller) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &entry{ctrl: c, userID: userID}
	m.mu.Unlock()
	return id
}

// Get returns the controller for id, scoped to its owning user.
func (m *Manager) Get(id, userID string) (*Controller, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || e.userID != userID {
		return nil, ErrSessionNotFound
	}
	return e.ctrl, nil
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
