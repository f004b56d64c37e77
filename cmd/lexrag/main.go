package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/spf13/cobra"
	"github.com/veridianlabs/lexrag/internal/config"
	"github.com/veridianlabs/lexrag/internal/embedding"
	openaiembed "github.com/veridianlabs/lexrag/internal/embedding/openai"
	"github.com/veridianlabs/lexrag/internal/embedding/tei"
	"github.com/veridianlabs/lexrag/internal/ingest"
	"github.com/veridianlabs/lexrag/internal/llm"
	"github.com/veridianlabs/lexrag/internal/llm/anthropic"
	"github.com/veridianlabs/lexrag/internal/llm/openai"
	"github.com/veridianlabs/lexrag/internal/observability"
	"github.com/veridianlabs/lexrag/internal/rag"
	"github.com/veridianlabs/lexrag/internal/server"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
	"github.com/veridianlabs/lexrag/internal/vectorstore/memory"
	"github.com/veridianlabs/lexrag/internal/vectorstore/qdrant"
	"github.com/veridianlabs/lexrag/internal/workflow"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lexrag",
		Short: "Retrieval-augmented question answering over a private legal corpus",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/lexrag.yaml", "Config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the query API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	var (
		documentsPath string
		useTemporal   bool
		jsonReport    bool
	)
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load, chunk, embed and index documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(configPath, documentsPath, useTemporal, jsonReport)
		},
	}
	ingestCmd.Flags().StringVar(&documentsPath, "documents", "", "Documents directory (defaults to ingest.documents_path)")
	ingestCmd.Flags().BoolVar(&useTemporal, "temporal", false, "Run the ingestion as a Temporal workflow")
	ingestCmd.Flags().BoolVar(&jsonReport, "json", false, "Output the ingestion result as JSON")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available chat providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available chat providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-14s %s\n", name, url)
			}
			fmt.Println("  custom         (set base_url to any OpenAI-compatible endpoint)")
			fmt.Println()
			fmt.Println("Embedding providers: openai, tei (self-hosted, no api key)")
			fmt.Println()
			fmt.Println("Configure in lexrag.yaml or via environment:")
			fmt.Println("  LEXRAG_CHAT_PROVIDER=anthropic")
			fmt.Println("  LEXRAG_CHAT_API_KEY=sk-ant-...")
			fmt.Println("  LEXRAG_CHAT_MODEL=claude-sonnet-4-5")
			fmt.Println("  LEXRAG_EMBEDDING_BASE_URL=http://localhost:8080")
		},
	}

	rootCmd.AddCommand(serveCmd, ingestCmd, providersCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "lexrag",
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	audit, err := observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		OutputPath: cfg.Audit.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}

	store, err := buildStore(ctx, cfg, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	chat, err := buildChat(cfg)
	if err != nil {
		return fmt.Errorf("creating chat provider: %w", err)
	}

	opts := []rag.ServiceOption{rag.WithLogger(logger)}
	if cfg.Reranker.APIKey != "" {
		reranker, err := rag.NewCohereReranker(rag.RerankerConfig{
			APIKey:  cfg.Reranker.APIKey,
			Model:   cfg.Reranker.Model,
			BaseURL: cfg.Reranker.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("creating reranker: %w", err)
		}
		opts = append(opts, rag.WithReranker(reranker, cfg.VectorStore.RerankTopN))
	}

	retriever := rag.NewRetriever(embedder, store, vectorstore.StrategyMMR)
	svc := rag.NewService(retriever, chat, opts...)

	srv, err := server.New(svc, server.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Version:         version,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Audit:           audit,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Health().RegisterCheck("vector_store", server.VectorStoreHealthChecker(func(ctx context.Context) error {
		_, err := store.Exists(ctx, nil)
		return err
	}))
	srv.Health().RegisterCheck("chat", server.ChatModelHealthChecker(chat.Name(), nil))

	shutdown := server.NewShutdownHandler(cfg.Server.ShutdownTimeout, logger)
	shutdown.RegisterHook(server.HTTPServerShutdownHook(srv.Shutdown))
	shutdown.RegisterHook(server.TracingShutdownHook(tp.Shutdown))
	shutdown.RegisterHook(server.VectorStoreShutdownHook(store.Close))
	shutdown.RegisterHook(server.ShutdownHook{
		Name:     "audit",
		Priority: 70,
		Fn:       func(context.Context) error { return audit.Close() },
	})
	shutdown.Start()

	serveCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-shutdown.ShutdownCh()
		cancel()
	}()

	logger.Info("starting server",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"embedding", embedder.Name(),
		"chat", chat.Name(),
		"rerank_enabled", cfg.Reranker.APIKey != "")

	if err := srv.ListenAndServe(serveCtx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	shutdown.Shutdown()
	shutdown.Wait()
	return nil
}

func runIngest(configPath, documentsPath string, useTemporal, jsonReport bool) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if documentsPath == "" {
		documentsPath = cfg.Ingest.DocumentsPath
	}

	ctx := context.Background()

	if useTemporal {
		return startIngestionWorkflow(ctx, cfg, documentsPath, jsonReport)
	}

	audit, err := observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		OutputPath: cfg.Audit.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer audit.Close()

	pipeline, store, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	audit.LogIngestStart(documentsPath)
	start := time.Now()
	result, err := pipeline.Run(ctx, documentsPath)
	if err != nil {
		audit.LogIngestError(err)
		return fmt.Errorf("ingestion: %w", err)
	}
	audit.LogIngestComplete(string(result.Status), len(result.StoredIDs), result.Deduplicated, len(result.SkippedFiles), time.Since(start))
	return printIngestResult(result.Status, len(result.StoredIDs), result.Deduplicated, result.SkippedFiles, jsonReport)
}

// startIngestionWorkflow hands the run to a Temporal worker and blocks until
// the workflow completes, so the exit code reflects the ingestion outcome.
func startIngestionWorkflow(ctx context.Context, cfg *config.Config, documentsPath string, jsonReport bool) error {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("connecting to temporal: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("ingest-%d", time.Now().Unix()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflow.IngestionWorkflow, workflow.IngestionInput{
		DocumentsPath: documentsPath,
	})
	if err != nil {
		return fmt.Errorf("starting ingestion workflow: %w", err)
	}

	var result workflow.IngestionResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("ingestion workflow: %w", err)
	}
	return printIngestResult(ingest.Status(result.Status), result.StoredCount, result.Deduplicated, result.SkippedFiles, jsonReport)
}

func printIngestResult(status ingest.Status, stored, deduplicated int, skipped []string, jsonReport bool) error {
	if jsonReport {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":        status,
			"stored":        stored,
			"deduplicated":  deduplicated,
			"skipped_files": skipped,
		})
	}
	fmt.Printf("Ingestion %s: %d chunks stored, %d duplicates skipped\n", status, stored, deduplicated)
	for _, f := range skipped {
		fmt.Printf("  skipped: %s\n", f)
	}
	return nil
}

func loadConfig(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := buildLogger(cfg.Log)
	if err := cfg.ResolveSecrets(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("resolving secrets: %w", err)
	}
	for _, w := range cfg.Validate() {
		logger.Warn("config: " + w)
	}
	return cfg, logger, nil
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func buildEmbedder(cfg *config.Config) (embedding.Provider, error) {
	factory := embedding.NewFactory()
	factory.Register("openai", openaiembed.New)
	factory.Register("tei", tei.New)

	provider, err := factory.Create(embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Embedding.RequestsPerMinute > 0 {
		provider = embedding.WithRateLimit(provider, &embedding.RateLimitConfig{
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
		})
	}
	return provider, nil
}

func buildStore(ctx context.Context, cfg *config.Config, dimension int) (vectorstore.Store, error) {
	factory := vectorstore.NewFactory()
	factory.Register("qdrant", qdrant.New)
	factory.Register("memory", memory.New)

	store, err := factory.Create(ctx, vectorstore.Config{
		Provider:  cfg.VectorStore.Provider,
		IndexName: cfg.VectorStore.IndexName,
		APIKey:    cfg.VectorStore.APIKey,
		Host:      cfg.VectorStore.Host,
		Port:      cfg.VectorStore.Port,
		Dimension: dimension,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func buildChat(cfg *config.Config) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("anthropic", func(c llm.ProviderConfig) (llm.Provider, error) {
		return anthropic.New(c.APIKey, c.Model, c.BaseURL), nil
	})
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL), nil
	})
	// All OpenAI-compatible providers
	for _, p := range []struct{ name, url string }{
		{"groq", llm.KnownProviders["groq"]},
		{"ollama", llm.KnownProviders["ollama"]},
		{"together", llm.KnownProviders["together"]},
		{"deepseek", llm.KnownProviders["deepseek"]},
		{"custom", ""},
	} {
		p := p
		factory.Register(p.name, func(c llm.ProviderConfig) (llm.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = p.url
			}
			return openai.New(c.APIKey, c.Model, base), nil
		})
	}

	pc := llm.DefaultProviderConfig()
	pc.Provider = cfg.Chat.Provider
	pc.APIKey = cfg.Chat.APIKey
	pc.Model = cfg.Chat.Model
	pc.BaseURL = cfg.Chat.BaseURL
	return factory.Create(pc)
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ingest.Pipeline, vectorstore.Store, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedding provider: %w", err)
	}
	store, err := buildStore(ctx, cfg, embedder.Dimension())
	if err != nil {
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	loaders := ingest.NewLoaderRegistry(ingest.NewPDFLoader(), ingest.NewTextLoader())
	pipeline, err := ingest.NewPipeline(loaders, embedder, store, ingest.Options{
		ChunkSize:   cfg.Ingest.ChunkSize,
		Overlap:     cfg.Ingest.Overlap,
		LoadRetries: cfg.Ingest.LoadRetries,
		RetryDelay:  cfg.Ingest.RetryDelay,
	}, logger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("creating pipeline: %w", err)
	}
	return pipeline, store, nil
}
