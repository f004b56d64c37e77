// Package secrets resolves provider credentials from pluggable backends.
// Config files stay free of API keys; the manager fills them at startup.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Well-known credential names resolved at startup.
const (
	KeyChatAPIKey        = "chat_api_key"
	KeyEmbeddingAPIKey   = "embedding_api_key"
	KeyRerankerAPIKey    = "reranker_api_key"
	KeyVectorStoreAPIKey = "vector_store_api_key"
)

// Provider is a read-only secret backend.
type Provider interface {
	// Get retrieves a secret by key. A missing key is an error.
	Get(ctx context.Context, key string) (string, error)
	// Name returns the backend identifier.
	Name() string
}

// Config selects and configures the secret backend.
type Config struct {
	// Provider is "env", "file" or "vault". Empty means "env".
	Provider string
	// EnvPrefix for environment variable names (default "LEXRAG_").
	EnvPrefix string
	// FilePath for the file backend (JSON map, development only).
	FilePath string
	// Vault configuration, required for the vault backend.
	Vault *VaultConfig
}

// Manager resolves secrets from a primary backend with environment
// fallback. Lookups are cached for the process lifetime.
type Manager struct {
	primary  Provider
	fallback Provider

	mu    sync.RWMutex
	cache map[string]string
}

// NewManager creates a manager for the configured backend. The
// environment backend is always available as a fallback.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var primary Provider
	var err error
	switch cfg.Provider {
	case "env", "":
		primary = NewEnvProvider(cfg.EnvPrefix)
	case "file":
		primary, err = NewFileProvider(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("file secrets backend: %w", err)
		}
	case "vault":
		primary, err = NewVaultProvider(cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("vault secrets backend: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", cfg.Provider)
	}

	return &Manager{
		primary:  primary,
		fallback: NewEnvProvider(cfg.EnvPrefix),
		cache:    make(map[string]string),
	}, nil
}

// Get resolves a secret, trying the primary backend then the
// environment.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	if val, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return val, nil
	}
	m.mu.RUnlock()

	val, err := m.primary.Get(ctx, key)
	if err != nil || val == "" {
		val, err = m.fallback.Get(ctx, key)
	}
	if err != nil || val == "" {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	m.mu.Lock()
	m.cache[key] = val
	m.mu.Unlock()
	return val, nil
}

// Fill resolves each empty destination from the backend. Destinations
// that already hold a value (from config file or environment) are left
// alone, and unresolvable keys are skipped rather than failing startup;
// the provider factories report missing credentials with context.
func (m *Manager) Fill(ctx context.Context, dests map[string]*string) {
	for key, dest := range dests {
		if dest == nil || *dest != "" {
			continue
		}
		if val, err := m.Get(ctx, key); err == nil {
			*dest = val
		}
	}
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment backend. Keys are upper-cased
// and tried with the prefix first, then bare.
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "LEXRAG_"
	}
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Get(_ context.Context, key string) (string, error) {
	envKey := p.prefix + strings.ToUpper(key)
	if val := os.Getenv(envKey); val != "" {
		return val, nil
	}
	if val := os.Getenv(strings.ToUpper(key)); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("env var not found: %s", envKey)
}
