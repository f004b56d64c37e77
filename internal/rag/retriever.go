package rag

import (
	"context"
	"fmt"

	"github.com/veridianlabs/lexrag/internal/embedding"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// Retriever embeds a query and searches the vector store. Reads are
// side-effect-free; a cancelled retrieval leaves nothing to roll back.
type Retriever struct {
	embedder embedding.Provider
	store    vectorstore.Store
	strategy vectorstore.SearchStrategy
}

// NewRetriever creates a retriever using the given search strategy.
func NewRetriever(embedder embedding.Provider, store vectorstore.Store, strategy vectorstore.SearchStrategy) *Retriever {
	if strategy == "" {
		strategy = vectorstore.StrategyMMR
	}
	return &Retriever{embedder: embedder, store: store, strategy: strategy}
}

// Retrieve returns up to k chunks relevant to the query, sorted by
// descending score. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]vectorstore.ScoredChunk, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := r.store.Query(ctx, vector, r.strategy, k)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	return results, nil
}
