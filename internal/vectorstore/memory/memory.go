// Package memory implements an in-process vectorstore.Store using
// brute-force cosine similarity. Used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// Store keeps chunks and vectors in memory, keyed by chunk id.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[string]corpus.Chunk
	vectors   map[string][]float32
}

// New creates an empty in-memory store.
func New(_ context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	return &Store{
		dimension: cfg.Dimension,
		chunks:    make(map[string]corpus.Chunk),
		vectors:   make(map[string][]float32),
	}, nil
}

// EnsureIndex is immediate for an in-process store.
func (s *Store) EnsureIndex(_ context.Context) error { return nil }

func (s *Store) Store(_ context.Context, chunks []corpus.Chunk, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("memory store: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != s.dimension {
			return nil, fmt.Errorf("memory store: vector dimension %d does not match configured %d", len(vectors[i]), s.dimension)
		}
		s.chunks[c.ID] = c
		s.vectors[c.ID] = vectors[i]
		ids[i] = c.ID
	}
	return ids, nil
}

func (s *Store) Query(_ context.Context, vector []float32, strategy vectorstore.SearchStrategy, k int) ([]vectorstore.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("memory store: k must be positive, got %d", k)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id    string
		score float64
	}
	all := make([]scored, 0, len(s.vectors))
	for id, v := range s.vectors {
		all = append(all, scored{id: id, score: vectorstore.CosineSimilarity(vector, v)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})

	switch strategy {
	case vectorstore.StrategyMMR:
		fetch := k * 4
		if fetch > len(all) {
			fetch = len(all)
		}
		candidates := make([][]float32, fetch)
		for i := 0; i < fetch; i++ {
			candidates[i] = s.vectors[all[i].id]
		}
		var results []vectorstore.ScoredChunk
		for _, idx := range vectorstore.MaximalMarginalRelevance(vector, candidates, k) {
			results = append(results, vectorstore.ScoredChunk{
				Chunk: s.chunks[all[idx].id],
				Score: float32(all[idx].score),
			})
		}
		return results, nil
	case vectorstore.StrategySimilarity, "":
		if k > len(all) {
			k = len(all)
		}
		results := make([]vectorstore.ScoredChunk, k)
		for i := 0; i < k; i++ {
			results[i] = vectorstore.ScoredChunk{
				Chunk: s.chunks[all[i].id],
				Score: float32(all[i].score),
			}
		}
		return results, nil
	}
	return nil, fmt.Errorf("memory store: unknown strategy %q", strategy)
}

func (s *Store) Exists(_ context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var present []string
	for _, id := range ids {
		if _, ok := s.chunks[id]; ok {
			present = append(present, id)
		}
	}
	return present, nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored chunks. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

var _ vectorstore.Store = (*Store)(nil)
