// Package config loads lexrag configuration from file and environment.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/veridianlabs/lexrag/internal/secrets"
)

// Config holds all application configuration.
type Config struct {
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Chat        ChatConfig        `mapstructure:"chat"`
	Reranker    RerankerConfig    `mapstructure:"reranker"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Server      ServerConfig      `mapstructure:"server"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Log         LogConfig         `mapstructure:"log"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`

	// RequestsPerMinute caps calls to hosted embedding APIs during
	// ingestion. Zero disables the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type VectorStoreConfig struct {
	Provider   string `mapstructure:"provider"`
	IndexName  string `mapstructure:"index_name"`
	APIKey     string `mapstructure:"api_key"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	RerankTopN int    `mapstructure:"rerank_top_n"`
}

type ChatConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

type RerankerConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type IngestConfig struct {
	DocumentsPath string        `mapstructure:"documents_path"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	Overlap       int           `mapstructure:"overlap"`
	LoadRetries   int           `mapstructure:"load_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecretsConfig struct {
	Provider        string `mapstructure:"provider"`
	FilePath        string `mapstructure:"file_path"`
	VaultAddress    string `mapstructure:"vault_address"`
	VaultToken      string `mapstructure:"vault_token"`
	VaultMountPath  string `mapstructure:"vault_mount_path"`
	VaultSecretPath string `mapstructure:"vault_secret_path"`
}

// Validate checks configuration for issues and returns warnings. Hard
// failures (a provider constructed without its credential) are reported by
// the provider factories, which see the final resolved values.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Embedding.Provider != "" && c.Embedding.Provider != "tei" && c.Embedding.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("embedding provider '%s' is configured but api_key is empty", c.Embedding.Provider))
	}
	if c.Embedding.Dimension < 0 {
		warnings = append(warnings, fmt.Sprintf("embedding dimension %d is negative", c.Embedding.Dimension))
	}
	if c.Chat.Provider != "" && c.Chat.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("chat provider '%s' is configured but api_key is empty", c.Chat.Provider))
	}
	if c.VectorStore.Provider == "qdrant" && c.VectorStore.Host == "" {
		warnings = append(warnings, "qdrant is configured but host is empty")
	}
	if c.VectorStore.RerankTopN < 0 {
		warnings = append(warnings, fmt.Sprintf("rerank_top_n %d is negative", c.VectorStore.RerankTopN))
	}
	if c.Ingest.ChunkSize > 0 && c.Ingest.Overlap >= c.Ingest.ChunkSize {
		warnings = append(warnings, fmt.Sprintf("ingest overlap %d must be smaller than chunk_size %d", c.Ingest.Overlap, c.Ingest.ChunkSize))
	}

	return warnings
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.provider", "tei")
	v.SetDefault("embedding.dimension", 384)

	v.SetDefault("vector_store.provider", "qdrant")
	v.SetDefault("vector_store.index_name", "lexrag")
	v.SetDefault("vector_store.host", "localhost")
	v.SetDefault("vector_store.port", 6334)
	v.SetDefault("vector_store.rerank_top_n", 5)

	v.SetDefault("ingest.documents_path", "documents")
	v.SetDefault("ingest.chunk_size", 1000)
	v.SetDefault("ingest.overlap", 100)
	v.SetDefault("ingest.load_retries", 2)
	v.SetDefault("ingest.retry_delay", 5*time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "lexrag-ingestion")

	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.environment", "development")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.output_path", "stdout")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("secrets.provider", "env")
}

// Load reads configuration from file and environment. Environment
// variables use the LEXRAG_ prefix (LEXRAG_CHAT_API_KEY overrides
// chat.api_key). A missing file is not an error; defaults plus
// environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LEXRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; keys without defaults
	// (credentials, endpoints) must be bound so env-only values survive.
	for _, key := range []string{
		"embedding.model", "embedding.api_key", "embedding.base_url", "embedding.requests_per_minute",
		"vector_store.api_key",
		"chat.provider", "chat.model", "chat.api_key", "chat.base_url",
		"reranker.api_key", "reranker.model", "reranker.base_url",
		"telemetry.otlp_endpoint",
		"secrets.file_path", "secrets.vault_address", "secrets.vault_token",
		"secrets.vault_mount_path", "secrets.vault_secret_path",
	} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
					return nil, fmt.Errorf("reading config: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// ResolveSecrets fills empty credentials from the configured secrets
// backend. Values already set by file or environment win.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	mgr, err := secrets.NewManager(&secrets.Config{
		Provider: c.Secrets.Provider,
		FilePath: c.Secrets.FilePath,
		Vault: &secrets.VaultConfig{
			Address:    c.Secrets.VaultAddress,
			Token:      c.Secrets.VaultToken,
			MountPath:  c.Secrets.VaultMountPath,
			SecretPath: c.Secrets.VaultSecretPath,
		},
	})
	if err != nil {
		return err
	}
	mgr.Fill(ctx, map[string]*string{
		secrets.KeyChatAPIKey:        &c.Chat.APIKey,
		secrets.KeyEmbeddingAPIKey:   &c.Embedding.APIKey,
		secrets.KeyRerankerAPIKey:    &c.Reranker.APIKey,
		secrets.KeyVectorStoreAPIKey: &c.VectorStore.APIKey,
	})
	return nil
}
