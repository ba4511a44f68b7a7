package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/hookyard/internal/models"
)

const (
	// DefaultSessionTTL is how long an untouched form session is kept.
	DefaultSessionTTL = time.Hour
	// DefaultMaxSessions caps live sessions; the least recently used one is
	// evicted when a new session would exceed it.
	DefaultMaxSessions = 1000
)

// SessionStore keeps in-progress form sessions keyed by form build id.
// Abandoned sessions expire after the TTL and are pruned on access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessionStore creates a store. A non-positive ttl uses DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      DefaultMaxSessions,
		now:      time.Now,
	}
}

// Open starts a fresh session seeded from persisted.
func (st *SessionStore) Open(persisted models.RepositoryList) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.prune(now)
	for st.max > 0 && len(st.sessions) >= st.max {
		st.evictOldest()
	}
	s := NewSession(uuid.NewString(), persisted)
	s.touch(now)
	st.sessions[s.ID] = s
	return s
}

// Resume returns the live session with buildID. It reports false when the
// id is empty, unknown, expired or evicted.
func (st *SessionStore) Resume(buildID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.prune(now)
	s, ok := st.sessions[buildID]
	if !ok || buildID == "" {
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Discard drops a session, e.g. after a successful submit.
func (st *SessionStore) Discard(buildID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, buildID)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.prune(st.now())
	return len(st.sessions)
}

// prune removes expired sessions. Caller holds st.mu.
func (st *SessionStore) prune(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.lastTouched()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// evictOldest removes the least recently touched session. Caller holds st.mu.
func (st *SessionStore) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if t := s.lastTouched(); oldestID == "" || t.Before(oldest) {
			oldestID, oldest = id, t
		}
	}
	delete(st.sessions, oldestID)
}
