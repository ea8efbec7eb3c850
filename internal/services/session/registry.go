package session

import (
	"sync"
	"time"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/model"
)

// Session tracks one currently connected entity's gate state.
// A session is created exactly once per connect and removed exactly once
// per disconnect or eviction; an Authenticated session holds no snapshot.
type Session struct {
	Identity model.Identity
	State    model.SessionState
	JoinTime time.Time
	Snapshot *model.Snapshot
}

// Registry owns the identity-to-session map. It is the only mutator of
// session state; everything else reads copies.
type Registry struct {
	clock clock.Clock

	mu       sync.RWMutex
	sessions map[model.Identity]*Session
}

// NewRegistry creates an empty Registry
func NewRegistry(clock clock.Clock) *Registry {
	return &Registry{
		clock:    clock,
		sessions: make(map[model.Identity]*Session),
	}
}

// Create inserts a new Gated session for the identity.
// Fails with ErrDuplicateSession if one already exists.
func (r *Registry) Create(id model.Identity) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, model.ErrDuplicateSession
	}

	session := &Session{
		Identity: id,
		State:    model.StateGated,
		JoinTime: r.clock.Now(),
	}
	r.sessions[id] = session

	return copySession(session), nil
}

// Get returns a copy of the current session, or ErrNoSession if absent
func (r *Registry) Get(id model.Identity) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrNoSession
	}
	return copySession(session), nil
}

// Remove deletes the session; no-op if absent.
// Callers must have cancelled the session's timers first.
func (r *Registry) Remove(id model.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Authenticate flips the session to Authenticated and clears the snapshot
// reference. The caller must have already cancelled timers and restored the
// snapshot. Fails with ErrNoSession if absent, ErrAlreadyAuthenticated if
// the transition already happened.
func (r *Registry) Authenticate(id model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.ErrNoSession
	}
	if session.State == model.StateAuthenticated {
		return model.ErrAlreadyAuthenticated
	}

	session.State = model.StateAuthenticated
	session.Snapshot = nil
	return nil
}

// SetSnapshot records the captured snapshot on a session
func (r *Registry) SetSnapshot(id model.Identity, snapshot *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.ErrNoSession
	}
	session.Snapshot = snapshot
	return nil
}

// TakeSnapshot removes and returns the session's snapshot.
// Returns nil (without error) if the session holds none, so a second
// restore attempt is a natural no-op.
func (r *Registry) TakeSnapshot(id model.Identity) (*model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrNoSession
	}
	snapshot := session.Snapshot
	session.Snapshot = nil
	return snapshot, nil
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func copySession(s *Session) *Session {
	cp := *s
	if s.Snapshot != nil {
		snap := *s.Snapshot
		cp.Snapshot = &snap
	}
	return &cp
}
