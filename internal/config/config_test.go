package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := &Config{
		Chat: ChatConfig{Provider: "anthropic"},
	}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "api_key") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected warning about missing api_key")
	}
}

func TestValidate_TEINeedsNoKey(t *testing.T) {
	// A local embedding server has no credential to miss.
	cfg := &Config{Embedding: EmbeddingConfig{Provider: "tei"}}
	for _, w := range cfg.Validate() {
		if strings.Contains(w, "embedding") {
			t.Errorf("tei provider should not warn: %s", w)
		}
	}
}

func TestValidate_OverlapTooLarge(t *testing.T) {
	cfg := &Config{Ingest: IngestConfig{ChunkSize: 100, Overlap: 100}}
	found := false
	for _, w := range cfg.Validate() {
		if strings.Contains(w, "overlap") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about overlap >= chunk_size")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("default chunk_size = %d, want 1000", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.Overlap != 100 {
		t.Errorf("default overlap = %d, want 100", cfg.Ingest.Overlap)
	}
	if cfg.VectorStore.RerankTopN != 5 {
		t.Errorf("default rerank_top_n = %d, want 5", cfg.VectorStore.RerankTopN)
	}
	if cfg.VectorStore.Provider != "qdrant" {
		t.Errorf("default vector store = %s, want qdrant", cfg.VectorStore.Provider)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default server port = %d, want 8000", cfg.Server.Port)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexrag.yaml")
	content := `
embedding:
  provider: openai
  model: text-embedding-3-small
  dimension: 1536
  api_key: sk-test
vector_store:
  index_name: legal-docs
chat:
  provider: anthropic
  api_key: key
ingest:
  chunk_size: 800
  overlap: 80
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Dimension != 1536 {
		t.Errorf("embedding config not loaded: %+v", cfg.Embedding)
	}
	if cfg.VectorStore.IndexName != "legal-docs" {
		t.Errorf("index_name = %s", cfg.VectorStore.IndexName)
	}
	if cfg.Ingest.ChunkSize != 800 || cfg.Ingest.Overlap != 80 {
		t.Errorf("ingest config not loaded: %+v", cfg.Ingest)
	}
	// Defaults still fill the gaps.
	if cfg.Temporal.TaskQueue != "lexrag-ingestion" {
		t.Errorf("task_queue default missing: %s", cfg.Temporal.TaskQueue)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LEXRAG_CHAT_API_KEY", "from-env")
	t.Setenv("LEXRAG_VECTOR_STORE_INDEX_NAME", "env-index")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chat.APIKey != "from-env" {
		t.Errorf("chat api key = %q, want env value", cfg.Chat.APIKey)
	}
	if cfg.VectorStore.IndexName != "env-index" {
		t.Errorf("index name = %q, want env value", cfg.VectorStore.IndexName)
	}
}

func TestResolveSecrets_FileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte(`{"chat_api_key":"sk-file","reranker_api_key":"co-file"}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Secrets.Provider = "file"
	cfg.Secrets.FilePath = path
	cfg.Chat.APIKey = "explicit" // config-file values win over the backend

	if err := cfg.ResolveSecrets(context.Background()); err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if cfg.Chat.APIKey != "explicit" {
		t.Errorf("chat api key = %q, want explicit", cfg.Chat.APIKey)
	}
	if cfg.Reranker.APIKey != "co-file" {
		t.Errorf("reranker api key = %q, want co-file", cfg.Reranker.APIKey)
	}
}
