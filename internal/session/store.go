package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"weddingplan/internal/domain"
)

// Store keeps import sessions in memory. Sessions expire after ttl of inactivity and are
// lost on restart.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the store's time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Start opens a new draft session for a wedding.
func (s *Store) Start(weddingID uuid.UUID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	sess := newSession(weddingID, s.now)
	s.sessions[sess.id] = sess
	return sess
}

// Get returns an open session owned by weddingID. Expired sessions are dropped.
func (s *Store) Get(weddingID, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.weddingID != weddingID {
		return nil, domain.ErrSessionNotFound
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Discard forgets a session, typically after commit or cancel.
func (s *Store) Discard(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session) bool {
	if s.ttl <= 0 {
		return false
	}
	if sess.State() == domain.SessionStateExecuting {
		return false
	}
	return s.now().Sub(sess.lastActive()) > s.ttl
}

// Sweep drops every expired session and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
