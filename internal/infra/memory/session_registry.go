package memory

import (
	"sync"

	"whobible-live/internal/app"
)

// SessionRegistry is the in-memory implementation of app.SessionRegistry.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*app.Session)}
}

func (r *SessionRegistry) Put(code string, session *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[code] = session
}

func (r *SessionRegistry) Get(code string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[code]
	return session, ok
}

func (r *SessionRegistry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}
