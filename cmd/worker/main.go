package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/veridianlabs/lexrag/internal/config"
	"github.com/veridianlabs/lexrag/internal/embedding"
	openaiembed "github.com/veridianlabs/lexrag/internal/embedding/openai"
	"github.com/veridianlabs/lexrag/internal/embedding/tei"
	"github.com/veridianlabs/lexrag/internal/ingest"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
	"github.com/veridianlabs/lexrag/internal/vectorstore/memory"
	"github.com/veridianlabs/lexrag/internal/vectorstore/qdrant"
	"github.com/veridianlabs/lexrag/internal/workflow"

	temporalclient "go.temporal.io/sdk/client"
)

func main() {
	configPath := "configs/lexrag.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := context.Background()

	if err := cfg.ResolveSecrets(ctx); err != nil {
		log.Fatalf("resolving secrets: %v", err)
	}
	for _, w := range cfg.Validate() {
		logger.Warn("config: " + w)
	}

	embedFactory := embedding.NewFactory()
	embedFactory.Register("openai", openaiembed.New)
	embedFactory.Register("tei", tei.New)
	embedder, err := embedFactory.Create(embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
	})
	if err != nil {
		log.Fatalf("embedding provider: %v", err)
	}
	// Wire rate limiter before SetDependencies
	if cfg.Embedding.RequestsPerMinute > 0 {
		embedder = embedding.WithRateLimit(embedder, &embedding.RateLimitConfig{
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
		})
	}

	storeFactory := vectorstore.NewFactory()
	storeFactory.Register("qdrant", qdrant.New)
	storeFactory.Register("memory", memory.New)
	store, err := storeFactory.Create(ctx, vectorstore.Config{
		Provider:  cfg.VectorStore.Provider,
		IndexName: cfg.VectorStore.IndexName,
		APIKey:    cfg.VectorStore.APIKey,
		Host:      cfg.VectorStore.Host,
		Port:      cfg.VectorStore.Port,
		Dimension: embedder.Dimension(),
	})
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	defer store.Close()
	if err := store.EnsureIndex(ctx); err != nil {
		log.Fatalf("vector store index: %v", err)
	}

	loaders := ingest.NewLoaderRegistry(ingest.NewPDFLoader(), ingest.NewTextLoader())
	pipeline, err := ingest.NewPipeline(loaders, embedder, store, ingest.Options{
		ChunkSize:   cfg.Ingest.ChunkSize,
		Overlap:     cfg.Ingest.Overlap,
		LoadRetries: cfg.Ingest.LoadRetries,
		RetryDelay:  cfg.Ingest.RetryDelay,
	}, logger)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	workflow.SetDependencies(&workflow.Dependencies{
		Pipeline: pipeline,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := workflow.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	w.Stop()
	fmt.Println("Worker stopped")
}
