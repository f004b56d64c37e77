package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// Reranker reorders retrieved chunks against the query with a secondary
// relevance signal, returning the top-N subset in descending order.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []vectorstore.ScoredChunk, topN int) ([]vectorstore.ScoredChunk, error)
}

const (
	defaultRerankBaseURL = "https://api.cohere.com"
	defaultRerankModel   = "rerank-v3.5"
)

// CohereReranker calls a Cohere-compatible /v2/rerank endpoint.
type CohereReranker struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// RerankerConfig configures the HTTP reranker.
type RerankerConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewCohereReranker creates a reranker client. The API key is required.
func NewCohereReranker(cfg RerankerConfig) (*CohereReranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reranker api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultRerankModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRerankBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CohereReranker{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores every chunk's text against the query and returns the top-N
// in descending relevance order, with scores replaced by the reranker's.
func (r *CohereReranker) Rerank(ctx context.Context, query string, chunks []vectorstore.ScoredChunk, topN int) ([]vectorstore.ScoredChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(chunks) {
		topN = len(chunks)
	}

	docs := make([]string, len(chunks))
	for i, c := range chunks {
		docs[i] = c.Chunk.Text
	}
	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling reranker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("reranker returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	out := make([]vectorstore.ScoredChunk, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		if res.Index < 0 || res.Index >= len(chunks) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", res.Index)
		}
		out = append(out, vectorstore.ScoredChunk{
			Chunk: chunks[res.Index].Chunk,
			Score: res.RelevanceScore,
		})
	}
	return out, nil
}

var _ Reranker = (*CohereReranker)(nil)
