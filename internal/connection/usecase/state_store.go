package usecase

import (
	"sync"
	"time"

	"flowstate-backend/internal/connection/domain"
)

const stateTTL = 10 * time.Minute

type pendingAuth struct {
	userID    string
	platform  domain.Platform
	expiresAt time.Time
}

// stateStore holds pending OAuth states in memory. A state is single-use
// and expires after stateTTL.
type stateStore struct {
	mu     sync.Mutex
	states map[string]pendingAuth
}

func newStateStore() *stateStore {
	return &stateStore{states: map[string]pendingAuth{}}
}

func (s *stateStore) Put(state, userID string, platform domain.Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.states[state] = pendingAuth{
		userID:    userID,
		platform:  platform,
		expiresAt: time.Now().Add(stateTTL),
	}
}

// Consume removes and returns the pending auth for state. The second
// return is false when the state is unknown or expired.
func (s *stateStore) Consume(state string) (pendingAuth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.states[state]
	if !ok {
		return pendingAuth{}, false
	}
	delete(s.states, state)
	if time.Now().After(pending.expiresAt) {
		return pendingAuth{}, false
	}
	return pending, true
}

// prune drops expired entries. Caller holds the lock.
func (s *stateStore) prune() {
	now := time.Now()
	for state, pending := range s.states {
		if now.After(pending.expiresAt) {
			delete(s.states, state)
		}
	}
}
