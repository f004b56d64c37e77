// Package openai implements embedding.Provider for the OpenAI embeddings
// API and OpenAI-compatible endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridianlabs/lexrag/internal/embedding"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client calls the /embeddings endpoint.
type Client struct {
	apiKey    string
	model     string
	dimension int
	baseURL   string
	http      *http.Client
}

// New creates an OpenAI embedding provider. The API key is required.
func New(cfg embedding.Config) (embedding.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embeddings: api_key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		dimension: cfg.Dimension,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) Name() string   { return "openai" }
func (c *Client) Dimension() int { return c.dimension }

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := map[string]any{
		"model":      c.model,
		"input":      texts,
		"dimensions": c.dimension,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embeddings: %s: %s", resp.Status, respBody)
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors, want %d", len(result.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		if len(d.Embedding) != c.dimension {
			return nil, fmt.Errorf("openai embeddings: dimension %d does not match configured %d", len(d.Embedding), c.dimension)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

var _ embedding.Provider = (*Client)(nil)
