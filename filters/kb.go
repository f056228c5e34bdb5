package filters

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Pratham2403/insights-dashboard-sub001/pkg/logging"
	"github.com/Pratham2403/insights-dashboard-sub001/vector"
)

// Match is a single ranked hit from a knowledge-base lookup.
type Match struct {
	FilterName string
	Value      string
	Score      float32
}

// FilterSet is a normalized filter JSON shape: filter name to ordered values.
type FilterSet map[string][]string

// Add appends a value to the named filter, skipping duplicates.
func (fs FilterSet) Add(name, value string) {
	for _, existing := range fs[name] {
		if existing == value {
			return
		}
	}
	fs[name] = append(fs[name], value)
}

// Merge folds other into fs.
func (fs FilterSet) Merge(other FilterSet) {
	for name, values := range other {
		for _, v := range values {
			fs.Add(name, v)
		}
	}
}

// KnowledgeBase is the fixed filter/keyword catalog embedded offline and
// searched by similarity against refined queries. It is read-only after Index.
type KnowledgeBase struct {
	store    vector.Store
	embedder vector.Embedder
	topK     int
	minScore float32
	logger   *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithTopK sets the default number of matches returned per lookup.
func WithTopK(k int) Option {
	return func(kb *KnowledgeBase) {
		if k > 0 {
			kb.topK = k
		}
	}
}

// WithMinScore drops matches below the given similarity.
func WithMinScore(score float32) Option {
	return func(kb *KnowledgeBase) {
		kb.minScore = score
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(kb *KnowledgeBase) {
		if logger != nil {
			kb.logger = logger
		}
	}
}

// NewKnowledgeBase creates a knowledge base over the given store and embedder.
func NewKnowledgeBase(store vector.Store, embedder vector.Embedder, opts ...Option) *KnowledgeBase {
	kb := &KnowledgeBase{
		store:    store,
		embedder: embedder,
		topK:     8,
		minScore: 0.1,
	}
	for _, opt := range opts {
		opt(kb)
	}
	if kb.logger == nil {
		kb.logger = logging.WithComponent("filters_kb")
	}
	return kb
}

// Index embeds the catalog definitions and loads them into the vector store.
// Called once at startup; lookups afterwards are read-only.
func (kb *KnowledgeBase) Index(ctx context.Context, defs ...Definition) error {
	if kb.store == nil || kb.embedder == nil {
		return fmt.Errorf("knowledge base not fully configured")
	}
	if len(defs) == 0 {
		defs = DefaultCatalog()
	}

	texts := make([]string, len(defs))
	for i, def := range defs {
		texts[i] = def.DocumentText()
	}

	vectors, err := kb.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}
	if len(vectors) != len(defs) {
		return fmt.Errorf("expected %d embeddings, got %d", len(defs), len(vectors))
	}

	for i, def := range defs {
		emb := &vector.Embedding{
			ID:     def.ID(),
			Vector: vectors[i],
			Text:   texts[i],
			Metadata: map[string]string{
				"filter_name": def.Name,
				"value":       def.Value,
			},
		}
		if err := kb.store.Add(ctx, emb); err != nil {
			return fmt.Errorf("index definition %s: %w", def.ID(), err)
		}
	}

	kb.logger.Info("filter catalog indexed", "definitions", len(defs))
	return nil
}

// Lookup runs a similarity search for the refined query and returns ranked
// filter matches. An empty result is a lookup miss; callers surface it as a
// clarification request, never as a fatal error.
func (kb *KnowledgeBase) Lookup(ctx context.Context, query string, topK int) ([]Match, error) {
	if query == "" {
		return nil, fmt.Errorf("lookup query cannot be empty")
	}
	if topK <= 0 {
		topK = kb.topK
	}

	queryVec, err := kb.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := kb.store.Search(ctx, queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		score := vector.CosineSimilarity(queryVec, hit.Vector)
		if score < kb.minScore {
			continue
		}
		name := hit.Metadata["filter_name"]
		value := hit.Metadata["value"]
		if name == "" || value == "" {
			continue
		}
		matches = append(matches, Match{FilterName: name, Value: value, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	kb.logger.Debug("knowledge base lookup", "query", query, "matches", len(matches))
	return matches, nil
}
