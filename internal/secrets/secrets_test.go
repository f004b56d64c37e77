package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProviderPrefixed(t *testing.T) {
	t.Setenv("LEXRAG_CHAT_API_KEY", "sk-prefixed")

	p := NewEnvProvider("")
	val, err := p.Get(context.Background(), KeyChatAPIKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "sk-prefixed" {
		t.Errorf("value = %q, want sk-prefixed", val)
	}
}

func TestEnvProviderBareFallback(t *testing.T) {
	t.Setenv("RERANKER_API_KEY", "bare-value")

	p := NewEnvProvider("LEXRAG_")
	val, err := p.Get(context.Background(), KeyRerankerAPIKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "bare-value" {
		t.Errorf("value = %q, want bare-value", val)
	}
}

func TestEnvProviderMissing(t *testing.T) {
	p := NewEnvProvider("LEXRAG_")
	if _, err := p.Get(context.Background(), "definitely_not_set_key"); err == nil {
		t.Error("expected error for missing env var")
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	data := map[string]string{
		KeyChatAPIKey:     "sk-from-file",
		KeyRerankerAPIKey: "co-from-file",
	}
	raw, _ := json.Marshal(data)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}

	val, err := p.Get(context.Background(), KeyChatAPIKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "sk-from-file" {
		t.Errorf("value = %q, want sk-from-file", val)
	}

	if _, err := p.Get(context.Background(), "unknown"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	if _, err := NewFileProvider(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing secrets file")
	}
}

func TestFileProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	write := func(data map[string]string) {
		raw, _ := json.Marshal(data)
		if err := os.WriteFile(path, raw, 0600); err != nil {
			t.Fatal(err)
		}
	}
	write(map[string]string{KeyChatAPIKey: "v1"})

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatal(err)
	}

	write(map[string]string{KeyChatAPIKey: "v2"})
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	val, _ := p.Get(context.Background(), KeyChatAPIKey)
	if val != "v2" {
		t.Errorf("value after reload = %q, want v2", val)
	}
}

func TestVaultProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/v1/secret/data/lexrag" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": map[string]any{
					KeyChatAPIKey: "sk-from-vault",
				},
			},
		})
	}))
	defer srv.Close()

	p, err := NewVaultProvider(&VaultConfig{Address: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewVaultProvider: %v", err)
	}

	val, err := p.Get(context.Background(), KeyChatAPIKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "sk-from-vault" {
		t.Errorf("value = %q, want sk-from-vault", val)
	}

	if _, err := p.Get(context.Background(), "missing_key"); err == nil {
		t.Error("expected error for key absent from vault secret")
	}
}

func TestVaultProviderValidation(t *testing.T) {
	if _, err := NewVaultProvider(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewVaultProvider(&VaultConfig{Token: "t"}); err == nil {
		t.Error("expected error for missing address")
	}
	if _, err := NewVaultProvider(&VaultConfig{Address: "http://localhost:8200"}); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestManagerEnvFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEXRAG_EMBEDDING_API_KEY", "from-env")

	m, err := NewManager(&Config{Provider: "file", FilePath: path})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	val, err := m.Get(context.Background(), KeyEmbeddingAPIKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "from-env" {
		t.Errorf("value = %q, want from-env", val)
	}
}

func TestManagerUnknownProvider(t *testing.T) {
	if _, err := NewManager(&Config{Provider: "hsm"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestManagerFill(t *testing.T) {
	t.Setenv("LEXRAG_CHAT_API_KEY", "resolved")

	m, err := NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}

	chatKey := ""
	rerankerKey := "already-set"
	m.Fill(context.Background(), map[string]*string{
		KeyChatAPIKey:     &chatKey,
		KeyRerankerAPIKey: &rerankerKey,
		"unresolvable":    new(string),
	})

	if chatKey != "resolved" {
		t.Errorf("chat key = %q, want resolved", chatKey)
	}
	if rerankerKey != "already-set" {
		t.Errorf("reranker key = %q, want already-set (Fill must not overwrite)", rerankerKey)
	}
}

func TestManagerCache(t *testing.T) {
	t.Setenv("LEXRAG_CHAT_API_KEY", "first")

	m, err := NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(context.Background(), KeyChatAPIKey); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LEXRAG_CHAT_API_KEY", "second")
	val, err := m.Get(context.Background(), KeyChatAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	if val != "first" {
		t.Errorf("value = %q, want cached first", val)
	}
}
