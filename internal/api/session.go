package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/mtlprog/realty/internal/selection"
)

const (
	sessionHeader  = "X-Session-ID"
	defaultSession = "default"

	sessionIdleTTL = 24 * time.Hour
	maxSessions    = 10000
)

// session guards one selection state. Requests of the same session may run
// concurrently, so every access goes through mu.
type session struct {
	mu       sync.Mutex
	state    *selection.State
	lastSeen time.Time // guarded by sessions.mu
}

// sessions maps session ids to their selection state. Sessions idle for
// longer than ttl are dropped, and at most max are kept; when full, the least
// recently used session is evicted.
type sessions struct {
	mu   sync.Mutex
	byID map[string]*session
	ttl  time.Duration
	max  int
	now  func() time.Time
}

func newSessions(ttl time.Duration, limit int) *sessions {
	return &sessions{byID: make(map[string]*session), ttl: ttl, max: limit, now: time.Now}
}

// get returns the session named by the request header, creating it on first use.
func (s *sessions) get(r *http.Request) *session {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		id = defaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess, ok := s.byID[id]
	if ok && now.Sub(sess.lastSeen) <= s.ttl {
		sess.lastSeen = now
		return sess
	}

	s.evict(now)
	sess = &session{state: selection.NewState(), lastSeen: now}
	s.byID[id] = sess
	return sess
}

// evict drops expired sessions, then the oldest ones until there is room for one more.
func (s *sessions) evict(now time.Time) {
	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.byID, id)
		}
	}
	for len(s.byID) >= s.max {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, sess := range s.byID {
			if oldestID == "" || sess.lastSeen.Before(oldest) {
				oldestID, oldest = id, sess.lastSeen
			}
		}
		delete(s.byID, oldestID)
	}
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// with runs fn while holding the session lock.
func (s *session) with(fn func(*selection.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}
