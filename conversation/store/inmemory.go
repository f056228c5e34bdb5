// Package store provides conversation storage backends.
package store

import (
	"context"
	"sync"

	"github.com/Pratham2403/insights-dashboard-sub001/conversation"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// InMemoryStore keeps conversation states in a map. Suitable for tests and
// single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*state.State
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states: make(map[string]*state.State),
	}
}

// Save stores a deep copy of the state.
func (s *InMemoryStore) Save(_ context.Context, st *state.State) error {
	if st == nil || st.ConversationID == "" {
		return conversation.NotFoundErr("")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.ConversationID] = st.Snapshot()
	return nil
}

// Load returns a deep copy of the stored state.
func (s *InMemoryStore) Load(_ context.Context, id string) (*state.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, conversation.NotFoundErr(id)
	}
	return st.Snapshot(), nil
}

// Delete removes a stored state.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

// List returns all stored conversation IDs.
func (s *InMemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of stored conversations.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states), nil
}

// Exists reports whether a conversation is stored.
func (s *InMemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[id]
	return ok, nil
}
