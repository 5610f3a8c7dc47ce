// Package session provides session persistence implementations. The
// in-memory store is the default for library use and tests; swap in a
// durable implementation behind core.SessionStore for production archives.
package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/archivist/core"
)

// InMemoryStore keeps sessions in a map guarded by a RWMutex. Sessions
// handed out by Get are clones so callers can inspect a trace without
// racing the loop that owns the live session.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create registers a new running session under id.
func (s *InMemoryStore) Create(id, question string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	sess := core.NewSession(id, question)
	s.sessions[id] = sess

	return sess, nil
}

// Get returns a clone of the stored session.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}

	return sess.Clone(), nil
}

// AppendStep appends a step to the stored session, subject to the
// session's own ordering invariant.
func (s *InMemoryStore) AppendStep(id string, step core.Step) error {
	s.mu.RLock()
	sess, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}

	return sess.AppendStep(step)
}

// SetStatus transitions the stored session's status.
func (s *InMemoryStore) SetStatus(id string, status core.Status) error {
	s.mu.RLock()
	sess, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}

	return sess.SetStatus(status)
}

// List returns clones of all stored sessions, in no particular order.
func (s *InMemoryStore) List() []*core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess.Clone())
	}

	return sessions
}

// Delete removes a session from the store.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}

	delete(s.sessions, id)
	return nil
}
