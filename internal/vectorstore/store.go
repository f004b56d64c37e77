// Package vectorstore persists embedded chunks and answers nearest-neighbor
// queries over them.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/veridianlabs/lexrag/internal/corpus"
)

// ErrUnavailable marks a backend that cannot be reached or never became
// ready. It is fatal to the pipeline invocation, never retried here.
var ErrUnavailable = errors.New("vector store unavailable")

// SearchStrategy selects the nearest-neighbor algorithm for a query.
type SearchStrategy string

const (
	// StrategySimilarity returns the k nearest chunks by the index metric.
	StrategySimilarity SearchStrategy = "similarity"
	// StrategyMMR trades relevance against diversity, penalizing
	// near-duplicate results.
	StrategyMMR SearchStrategy = "mmr"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (SearchStrategy, error) {
	switch SearchStrategy(s) {
	case StrategySimilarity, StrategyMMR:
		return SearchStrategy(s), nil
	case "":
		return StrategyMMR, nil
	}
	return "", fmt.Errorf("unknown search strategy %q", s)
}

// ScoredChunk pairs a stored chunk with its query relevance score.
// Produced transiently per query; ordering (descending score) matters.
type ScoredChunk struct {
	Chunk corpus.Chunk
	Score float32
}

// wireDocument is the serialized context shape consumed by clients:
// provenance fields sit flat on the document, not nested under metadata.
type wireDocument struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Text       string `json:"text"`
}

type wireScoredChunk struct {
	Document wireDocument `json:"document"`
	Score    float32      `json:"score"`
}

func (s ScoredChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireScoredChunk{
		Document: wireDocument{
			ID:         s.Chunk.ID,
			Source:     s.Chunk.Metadata.Source,
			Page:       s.Chunk.Metadata.Page,
			TotalPages: s.Chunk.Metadata.TotalPages,
			Text:       s.Chunk.Text,
		},
		Score: s.Score,
	})
}

func (s *ScoredChunk) UnmarshalJSON(data []byte) error {
	var w wireScoredChunk
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Chunk = corpus.Chunk{
		ID:   w.Document.ID,
		Text: w.Document.Text,
		Metadata: corpus.Metadata{
			Source:     w.Document.Source,
			Page:       w.Document.Page,
			TotalPages: w.Document.TotalPages,
		},
	}
	s.Score = w.Score
	return nil
}

// Store is the interface all vector-store backends must implement.
// The store owns persisted chunk+vector pairs; callers only reference them.
type Store interface {
	// EnsureIndex creates the backing index with the configured dimension
	// and metric if it does not exist, and waits (bounded) until it is
	// ready for writes. Exceeding the wait budget returns ErrUnavailable.
	EnsureIndex(ctx context.Context) error
	// Store writes chunks with their vectors and returns the stored ids.
	// Writing an id that already exists overwrites identical content, so
	// duplicate writes are idempotent.
	Store(ctx context.Context, chunks []corpus.Chunk, vectors [][]float32) ([]string, error)
	// Query returns up to k chunks for the query vector using the given
	// strategy, scored and sorted by descending relevance.
	Query(ctx context.Context, vector []float32, strategy SearchStrategy, k int) ([]ScoredChunk, error)
	// Exists returns the subset of ids already present in the store.
	Exists(ctx context.Context, ids []string) ([]string, error)
	// Close releases resources.
	Close() error
}

// Config holds all configuration needed to create any vector-store backend.
type Config struct {
	Provider  string // "qdrant", "memory"
	IndexName string
	APIKey    string
	Host      string
	Port      int
	Dimension int // must match the embedding provider's dimension

	// ReadyAttempts bounds the index readiness poll (1s interval).
	ReadyAttempts int
}

// Constructor builds a Store from config.
type Constructor func(ctx context.Context, cfg Config) (Store, error)

// Factory creates Store instances from config.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a backend constructor under the given name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Create builds a Store from config, rejecting unknown backends and
// mismatched dimensions before first use.
func (f *Factory) Create(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("vector store provider not configured")
	}
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vector store provider %q, registered: %v", cfg.Provider, f.names())
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector store dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("vector store index name is required")
	}
	return ctor(ctx, cfg)
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}
