package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Pratham2403/insights-dashboard-sub001/vector"
)

// Store implements vector.Store using in-memory storage. It backs the filter
// knowledge base in tests and single-process deployments.
type Store struct {
	embeddings map[string]*vector.Embedding
	mu         sync.RWMutex
}

// New creates a new in-memory vector store
func New() *Store {
	return &Store{
		embeddings: make(map[string]*vector.Embedding),
	}
}

// Add adds a new embedding to the store
func (s *Store) Add(ctx context.Context, embedding *vector.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	s.embeddings[embedding.ID] = embedding.Clone()
	return nil
}

// Search finds embeddings similar to the query vector
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	type scored struct {
		embedding  *vector.Embedding
		similarity float32
	}

	results := make([]scored, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{
			embedding:  emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}

	out := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].embedding.Clone()
	}
	return out, nil
}

// Get retrieves a specific embedding by ID
func (s *Store) Get(ctx context.Context, id string) (*vector.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emb, ok := s.embeddings[id]
	if !ok {
		return nil, fmt.Errorf("embedding %s not found", id)
	}
	return emb.Clone(), nil
}

// Delete removes an embedding by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.embeddings[id]; !ok {
		return fmt.Errorf("embedding %s not found", id)
	}
	delete(s.embeddings, id)
	return nil
}

// Clear removes all embeddings
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	return nil
}

// Count returns the number of embeddings
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.embeddings), nil
}
