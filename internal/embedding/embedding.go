// Package embedding maps chunk text and queries to fixed-dimension vectors.
package embedding

import (
	"context"
	"fmt"
)

// Provider is the interface all embedding backends must implement.
// EmbedDocuments is batched: a failure anywhere in the batch fails the whole
// call, there is no partial retry at this layer.
type Provider interface {
	// EmbedDocuments returns one vector per input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the fixed vector dimension this provider produces.
	Dimension() int
	// Name returns the provider identifier (e.g. "openai", "tei").
	Name() string
}

// Config holds all configuration needed to create any embedding provider.
type Config struct {
	Provider  string // "openai", "tei"
	Model     string
	Dimension int
	APIKey    string
	BaseURL   string // override for self-hosted / local endpoints
}

// Constructor builds a Provider from config.
type Constructor func(cfg Config) (Provider, error)

// Factory creates Provider instances from config.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a provider constructor under the given name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Create builds a Provider from config. Unknown providers and missing
// credentials are rejected here, before any request is served.
func (f *Factory) Create(cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embedding provider not configured")
	}
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q, registered: %v", cfg.Provider, f.names())
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	return ctor(cfg)
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}
