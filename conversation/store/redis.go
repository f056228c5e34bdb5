package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pratham2403/insights-dashboard-sub001/conversation"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// RedisStore implements conversation storage using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for conversations.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a new Redis-based conversation store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "insights:conversation:",
			TTL:    24 * time.Hour,
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Save persists a conversation state to Redis.
func (s *RedisStore) Save(ctx context.Context, st *state.State) error {
	if st == nil || st.ConversationID == "" {
		return fmt.Errorf("conversation state cannot be nil")
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}

	if err := s.client.Set(ctx, s.stateKey(st.ConversationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if err := s.client.SAdd(ctx, s.setKey(), st.ConversationID).Err(); err != nil {
		return fmt.Errorf("failed to add conversation to index: %w", err)
	}
	return nil
}

// Load loads a conversation state from Redis.
func (s *RedisStore) Load(ctx context.Context, id string) (*state.State, error) {
	raw, err := s.client.Get(ctx, s.stateKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, conversation.NotFoundErr(id)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var st state.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return &st, nil
}

// Delete removes a conversation state from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.stateKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update conversation index: %w", err)
	}
	return nil
}

// List returns all conversation IDs.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored conversations.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.setKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return int(n), nil
}

// Exists reports whether a conversation is stored.
func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.stateKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check conversation existence: %w", err)
	}
	return n > 0, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) stateKey(id string) string {
	return s.prefix + id
}

func (s *RedisStore) setKey() string {
	return s.prefix + "ids"
}
