package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/Pratham2403/insights-dashboard-sub001/vector"
)

// Store implements vector.Store using PostgreSQL with the pgvector extension.
type Store struct {
	db          *sql.DB
	dimension   int
	tableName   string
	indexMethod string
}

// Config holds pgvector configuration
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int    // Embedding dimension
	TableName string // Table name (default: filter_embeddings)
	IndexType string // HNSW or IVFFLAT (default: HNSW)
}

// DefaultConfig returns default pgvector configuration
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "",
		DBName:    "insights",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "filter_embeddings",
		IndexType: "HNSW",
	}
}

// New creates a new pgvector-based vector store
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &Store{
		db:          db,
		dimension:   config.Dimension,
		tableName:   config.TableName,
		indexMethod: config.IndexType,
	}

	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		metadata JSONB
	)`, s.tableName, s.dimension)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	method := "hnsw"
	if strings.EqualFold(s.indexMethod, "IVFFLAT") {
		method = "ivfflat"
	}
	createIndex := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING %s (embedding vector_cosine_ops)",
		s.tableName, s.tableName, method)
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Add inserts or replaces an embedding.
func (s *Store) Add(ctx context.Context, embedding *vector.Embedding) error {
	if embedding == nil || embedding.ID == "" {
		return fmt.Errorf("embedding cannot be nil or without ID")
	}
	if len(embedding.Vector) != s.dimension {
		return fmt.Errorf("expected dimension %d, got %d", s.dimension, len(embedding.Vector))
	}

	meta, err := json.Marshal(embedding.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3::vector, $4)
		ON CONFLICT (id) DO UPDATE SET content = $2, embedding = $3::vector, metadata = $4`,
		s.tableName)
	if _, err := s.db.ExecContext(ctx, query, embedding.ID, embedding.Text, encodeVector(embedding.Vector), meta); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// Search returns the topK nearest embeddings by cosine distance.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("expected dimension %d, got %d", s.dimension, len(queryVector))
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`SELECT id, content, embedding::text, metadata
		FROM %s ORDER BY embedding <=> $1::vector LIMIT $2`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query, encodeVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var results []*vector.Embedding
	for rows.Next() {
		emb, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, emb)
	}
	return results, rows.Err()
}

// Get retrieves a specific embedding by ID
func (s *Store) Get(ctx context.Context, id string) (*vector.Embedding, error) {
	query := fmt.Sprintf(`SELECT id, content, embedding::text, metadata FROM %s WHERE id = $1`, s.tableName)
	row := s.db.QueryRowContext(ctx, query, id)
	emb, err := scanEmbedding(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding %s not found", id)
	}
	return emb, err
}

// Delete removes an embedding by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("embedding %s not found", id)
	}
	return nil
}

// Clear removes all embeddings
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s", s.tableName)); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}

// Count returns the number of embeddings
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmbedding(row rowScanner) (*vector.Embedding, error) {
	var (
		emb     vector.Embedding
		raw     string
		rawMeta []byte
	)
	if err := row.Scan(&emb.ID, &emb.Text, &raw, &rawMeta); err != nil {
		return nil, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, err
	}
	emb.Vector = vec
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &emb.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &emb, nil
}

func encodeVector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func decodeVector(raw string) ([]float32, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse vector component: %w", err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
