// Package conversation tracks live conversations and persists their state
// through pluggable storage backends.
package conversation

import (
	"sync"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Conversation pairs a conversation state with the mutex that serializes
// writes to it. All mutation goes through Update so two concurrent messages
// for the same conversation apply one at a time.
type Conversation struct {
	mu sync.Mutex
	st *state.State
}

func newConversation(st *state.State) *Conversation {
	return &Conversation{st: st}
}

// ID returns the conversation ID.
func (c *Conversation) ID() string {
	return c.st.ConversationID
}

// Update runs fn while holding the conversation lock. The state handed to fn
// is the live state; fn's error is returned unchanged.
func (c *Conversation) Update(fn func(*state.State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.st)
}

// Snapshot returns a deep copy of the current state, taken under the lock.
func (c *Conversation) Snapshot() *state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.Snapshot()
}
