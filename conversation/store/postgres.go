package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Pratham2403/insights-dashboard-sub001/conversation"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// PostgresStore implements conversation storage using PostgreSQL. States are
// serialized to a JSONB column keyed by conversation ID.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// PostgresConfig holds PostgreSQL configuration for conversations.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Table    string
}

// NewPostgresStore connects to PostgreSQL and creates the conversation table
// if missing.
func NewPostgresStore(ctx context.Context, config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = &PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "insights",
			SSLMode: "disable",
			Table:   "conversations",
		}
	}
	if config.Table == "" {
		config.Table = "conversations"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStore{db: db, table: config.Table}
	if err := s.setup(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) setup(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create conversation table: %w", err)
	}
	return nil
}

// Save upserts a conversation state.
func (s *PostgresStore) Save(ctx context.Context, st *state.State) error {
	if st == nil || st.ConversationID == "" {
		return fmt.Errorf("conversation state cannot be nil")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET state = $2, updated_at = now()`, s.table)
	if _, err := s.db.ExecContext(ctx, query, st.ConversationID, raw); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Load finds a conversation state by ID.
func (s *PostgresStore) Load(ctx context.Context, id string) (*state.State, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE id = $1`, s.table)
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, conversation.NotFoundErr(id)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var st state.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return &st, nil
}

// Delete removes a conversation state.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns all conversation IDs.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY updated_at DESC`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored conversations.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return n, nil
}

// Exists reports whether a conversation is stored.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, s.table)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check conversation existence: %w", err)
	}
	return exists, nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
