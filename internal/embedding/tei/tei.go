// Package tei implements embedding.Provider against a local
// text-embeddings-inference server, the offline alternative to hosted APIs.
package tei

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

const defaultBaseURL = "http://localhost:8081"

// Client calls the TEI /embed endpoint. No credentials are required; the
// server runs next to the process.
type Client struct {
	dimension int
	baseURL   string
	http      *http.Client
}

// New creates a TEI embedding provider.
func New(cfg embedding.Config) (embedding.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		dimension: cfg.Dimension,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *Client) Name() string   { return "tei" }
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
	data, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("tei embed: %s: %s", resp.Status, respBody)
	}

	var vecs [][]float32
	if err := json.Unmarshal(respBody, &vecs); err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("tei embed: got %d vectors, want %d", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if len(v) != c.dimension {
			return nil, fmt.Errorf("tei embed: dimension %d does not match configured %d", len(v), c.dimension)
		}
	}
	return vecs, nil
}

var _ embedding.Provider = (*Client)(nil)
