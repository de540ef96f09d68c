package quiz

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks active sessions for the HTTP layer.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Put registers a session under its ID. A session already occupying the slot
// is abandoned so only one countdown runs per slot.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	prev, had := r.sessions[s.ID]
	r.sessions[s.ID] = s
	r.mu.Unlock()
	if had && prev != s {
		prev.Abandon()
	}
}

// Get looks up an active session.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session from the registry, abandoning it if still running so
// its countdown cannot keep ticking.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok && s.State() != StateEnded {
		s.Abandon()
	}
}
