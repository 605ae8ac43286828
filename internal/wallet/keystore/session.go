package keystore

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock is the narrow time source the session store depends on. It is
// satisfied by time2.Clock and trivially stubbed in tests.
type Clock interface {
	Now() time.Time
}

// Session is the ephemeral unlock state. It lives in memory only and is never
// handed to a Backend.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionStore holds at most one active session.
type SessionStore struct {
	mu      sync.Mutex
	clock   Clock
	session *Session
}

func NewSessionStore(clock Clock) *SessionStore {
	return &SessionStore{clock: clock}
}

// SetSession starts a new session, replacing any previous one.
func (s *SessionStore) SetSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.session = &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
	}

	session := *s.session
	return &session
}

// GetSession returns a copy of the active session, or nil when locked.
func (s *SessionStore) GetSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}

	session := *s.session
	return &session
}

// Touch bumps the session's last-activity timestamp.
func (s *SessionStore) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.LastActivity = s.clock.Now()
	}
}

// ClearSession ends the session.
func (s *SessionStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
}

// ShouldAutoLock is true only when a session exists, autoLockMinutes > 0 and
// more than autoLockMinutes have elapsed since the last activity.
func (s *SessionStore) ShouldAutoLock(autoLockMinutes int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if autoLockMinutes <= 0 || s.session == nil {
		return false
	}

	elapsed := s.clock.Now().Sub(s.session.LastActivity)
	return elapsed > time.Duration(autoLockMinutes)*time.Minute
}
