package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/pkg/logging"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Store defines the interface for conversation storage backends that operate
// on serializable conversation states.
type Store interface {
	Save(ctx context.Context, st *state.State) error
	Load(ctx context.Context, id string) (*state.State, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Manager manages live conversations backed by a storage backend. Active
// conversations are cached in memory so per-conversation locks survive
// between messages.
type Manager struct {
	mu            sync.RWMutex
	store         Store
	conversations map[string]*Conversation
	logger        *slog.Logger
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithStore sets the store for the manager.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLogger overrides the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new conversation manager with the given options.
//
// Example:
//
//	mgr := conversation.NewManager(conversation.WithStore(store.NewInMemoryStore()))
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		conversations: make(map[string]*Conversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("conversation_manager")
	}
	return m
}

func (m *Manager) ensureStore() error {
	if m.store == nil {
		return fmt.Errorf("no store configured")
	}
	return nil
}

// Create starts a new conversation. An empty id gets a generated one.
func (m *Manager) Create(ctx context.Context, id string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	if id != "" {
		exists, err := m.store.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check conversation existence: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("conversation %s already exists", id)
		}
	}

	st := state.New(id)
	if err := m.store.Save(ctx, st); err != nil {
		m.logger.Error("create conversation persist failed", "id", st.ConversationID, "error", err)
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	conv := newConversation(st)
	m.conversations[st.ConversationID] = conv
	m.logger.Info("conversation created", "id", st.ConversationID)
	return conv, nil
}

// Get retrieves a conversation by ID, rehydrating it from the store when it
// is not cached.
func (m *Manager) Get(ctx context.Context, id string) (*Conversation, error) {
	m.mu.RLock()
	conv, ok := m.conversations[id]
	m.mu.RUnlock()
	if ok {
		return conv, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.conversations[id]; ok {
		return conv, nil
	}
	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	st, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	conv = newConversation(st)
	m.conversations[id] = conv
	m.logger.Info("conversation rehydrated", "id", id, "stage", st.Stage)
	return conv, nil
}

// GetOrCreate retrieves a conversation or starts a fresh one under the given
// ID when none exists.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Conversation, error) {
	conv, err := m.Get(ctx, id)
	if err == nil {
		return conv, nil
	}
	// Only a confirmed miss warrants a fresh state; a transient load failure
	// must not overwrite a live conversation under the same ID.
	if !errors.Is(err, inserr.ErrConversationNotFound) {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.conversations[id]; ok {
		return conv, nil
	}
	if err := m.ensureStore(); err != nil {
		return nil, err
	}

	st := state.New(id)
	if err := m.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	conv = newConversation(st)
	m.conversations[st.ConversationID] = conv
	m.logger.Info("conversation created", "id", st.ConversationID)
	return conv, nil
}

// Persist writes the conversation's current state to the store.
func (m *Manager) Persist(ctx context.Context, conv *Conversation) error {
	if err := m.ensureStore(); err != nil {
		return err
	}
	snapshot := conv.Snapshot()
	if err := m.store.Save(ctx, snapshot); err != nil {
		m.logger.Error("persist conversation failed", "id", conv.ID(), "error", err)
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Delete removes a conversation from the cache and the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStore(); err != nil {
		return err
	}
	delete(m.conversations, id)
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	m.logger.Info("conversation deleted", "id", id)
	return nil
}

// List returns the IDs of all stored conversations.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	return m.store.List(ctx)
}

// Count returns the number of stored conversations.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if err := m.ensureStore(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// CleanupInactive persists and evicts cached conversations older than maxAge
// or already ended. Returns the number of evicted conversations.
func (m *Manager) CleanupInactive(ctx context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStore(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	evicted := 0
	for id, conv := range m.conversations {
		snapshot := conv.Snapshot()
		if snapshot.Stage != state.StageEnd && snapshot.UpdatedAt.After(cutoff) {
			continue
		}
		if err := m.store.Save(ctx, snapshot); err != nil {
			m.logger.Error("cleanup persist failed", "id", id, "error", err)
			continue
		}
		delete(m.conversations, id)
		evicted++
	}
	if evicted > 0 {
		m.logger.Info("evicted inactive conversations", "count", evicted)
	}
	return evicted, nil
}

// NotFoundErr builds the canonical not-found error for a conversation ID.
// Store implementations use it so callers can match with errors.Is.
func NotFoundErr(id string) error {
	return fmt.Errorf("%w: %s", inserr.ErrConversationNotFound, id)
}
