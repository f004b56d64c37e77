package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileProvider reads secrets from a JSON file mapping key to value.
// Development only; production deployments use env or vault.
type FileProvider struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

// NewFileProvider loads the secrets file. The file must exist and
// parse; a deployment pointing at a missing secrets file is
// misconfigured.
func NewFileProvider(path string) (*FileProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("secrets file path required")
	}
	p := &FileProvider{path: path, data: make(map[string]string)}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Get(_ context.Context, key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	val, ok := p.data[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return val, nil
}

// Reload re-reads the secrets file, replacing all entries.
func (p *FileProvider) Reload() error {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read secrets file: %w", err)
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse secrets file: %w", err)
	}

	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return nil
}
