package vector

import (
	"context"
	"math"
)

// Embedding represents an embedded knowledge-base entry. Metadata carries the
// filter name/value pair the entry was derived from so search hits can be
// mapped back to catalog definitions.
type Embedding struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Store defines the interface for vector storage and similarity search
type Store interface {
	// Add adds a new embedding to the store
	Add(ctx context.Context, embedding *Embedding) error

	// Search finds embeddings similar to the query vector, ranked by
	// descending similarity
	Search(ctx context.Context, queryVector []float32, topK int) ([]*Embedding, error)

	// Get retrieves a specific embedding by ID
	Get(ctx context.Context, id string) (*Embedding, error)

	// Delete removes an embedding by ID
	Delete(ctx context.Context, id string) error

	// Clear removes all embeddings
	Clear(ctx context.Context) error

	// Count returns the number of embeddings
	Count(ctx context.Context) (int, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// Clone returns a deep copy of the embedding.
func (e *Embedding) Clone() *Embedding {
	if e == nil {
		return nil
	}
	out := *e
	out.Vector = append([]float32(nil), e.Vector...)
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
