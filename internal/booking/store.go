package booking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionKey binds a visitor id to one profile. A visitor browsing several
// profiles has one session per profile under the same id.
type sessionKey struct {
	id        string
	profileID string
}

// Store keeps one session per visitor and profile.
type Store struct {
	sessions  map[sessionKey]*Session
	mu        sync.RWMutex
	timeout   time.Duration
	submitter Submitter
	opts      Options
}

// NewStore creates a store whose sessions use submitter.
func NewStore(submitter Submitter, timeout time.Duration, opts Options) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions:  make(map[sessionKey]*Session),
		timeout:   timeout,
		submitter: submitter,
		opts:      opts,
	}
}

// Get returns the live session of visitor id for profileID, or nil.
func (st *Store) Get(id, profileID string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.sessions[sessionKey{id, profileID}]
	if s == nil || st.expired(s) {
		return nil
	}
	return s
}

// Has reports whether visitor id has a live session for any profile.
func (st *Store) Has(id string) bool {
	if id == "" {
		return false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	for key, s := range st.sessions {
		if key.id == id && !st.expired(s) {
			return true
		}
	}
	return false
}

// GetOrCreate returns the live session of visitor id for profileID or creates
// one. Sessions of the same visitor for other profiles are left untouched.
func (st *Store) GetOrCreate(id, profileID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	key := sessionKey{id, profileID}
	if s, ok := st.sessions[key]; ok {
		if !st.expired(s) {
			return s
		}
		s.Reset()
	}
	s := NewSession(id, profileID, st.submitter, st.opts)
	st.sessions[key] = s
	return s
}

// Create always starts a fresh session with a new id.
func (st *Store) Create(profileID string) *Session {
	return st.GetOrCreate(uuid.NewString(), profileID)
}

// Delete resets and removes the session of visitor id for profileID.
func (st *Store) Delete(id, profileID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	key := sessionKey{id, profileID}
	if s, ok := st.sessions[key]; ok {
		s.Reset()
		delete(st.sessions, key)
	}
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Cleanup removes expired sessions that are not submitting.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for key, s := range st.sessions {
		if st.expired(s) {
			s.Reset()
			delete(st.sessions, key)
			removed++
		}
	}
	return removed
}

func (st *Store) expired(s *Session) bool {
	if s.Phase() == PhaseSubmitting {
		return false
	}
	return st.opts.Now().Sub(s.UpdatedAt()) > st.timeout
}
