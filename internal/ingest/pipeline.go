package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/embedding"
	"github.com/veridianlabs/lexrag/internal/observability"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// Status classifies the outcome of an ingestion run, so a workflow runner
// can tell "nothing to do" from "everything failed".
type Status string

const (
	// StatusEmpty means no supported documents were found.
	StatusEmpty Status = "empty"
	// StatusSuccess means every supported document was processed.
	StatusSuccess Status = "success"
	// StatusPartial means some documents were skipped after exhausting
	// their load retries; the rest were processed.
	StatusPartial Status = "partial"
	// StatusFailed means the embed or store phase failed; nothing can be
	// said about what was written.
	StatusFailed Status = "failed"
)

// Result reports what an ingestion run did.
type Result struct {
	Status       Status
	StoredIDs    []string // ids written this run (net-new chunks only)
	Deduplicated int      // distinct chunk ids skipped as already present (in batch or store)
	SkippedFiles []string // files dropped after load retries were exhausted
}

// Options configures an ingestion pipeline.
type Options struct {
	ChunkSize   int
	Overlap     int
	LoadRetries int           // retries per document after the first attempt
	RetryDelay  time.Duration // fixed delay between load attempts
}

// DefaultOptions mirrors the production configuration.
func DefaultOptions() Options {
	return Options{
		ChunkSize:   1000,
		Overlap:     100,
		LoadRetries: 2,
		RetryDelay:  5 * time.Second,
	}
}

// Pipeline orchestrates load → chunk → dedup → embed → store.
type Pipeline struct {
	loaders  *LoaderRegistry
	chunker  *corpus.Chunker
	embedder embedding.Provider
	store    vectorstore.Store
	opts     Options
	logger   *slog.Logger
}

// NewPipeline builds a pipeline. Chunking parameters are validated here;
// overlap >= chunk size is a configuration error.
func NewPipeline(loaders *LoaderRegistry, embedder embedding.Provider, store vectorstore.Store, opts Options, logger *slog.Logger) (*Pipeline, error) {
	chunker, err := corpus.NewChunker(opts.ChunkSize, opts.Overlap)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loaders:  loaders,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Run ingests every supported file under documentsPath. Document loads run
// concurrently; each document is chunked as soon as its own load completes.
// A document that keeps failing to load is skipped, never aborting the run.
// Re-running over unchanged inputs stores nothing new.
func (p *Pipeline) Run(ctx context.Context, documentsPath string) (*Result, error) {
	ctx, span := observability.StartIngestionSpan(ctx, documentsPath)
	defer span.End()
	start := time.Now()

	res, err := p.run(ctx, documentsPath)
	if err != nil {
		observability.RecordError(span, err)
	}
	observability.RecordIngestionResult(span, string(res.Status),
		len(res.StoredIDs), res.Deduplicated, len(res.SkippedFiles))
	if res.Status != StatusFailed {
		observability.Metrics().RecordIngestion(
			len(res.StoredIDs), res.Deduplicated, len(res.SkippedFiles), time.Since(start))
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, documentsPath string) (*Result, error) {
	entries, err := os.ReadDir(documentsPath)
	if err != nil {
		return &Result{Status: StatusFailed}, fmt.Errorf("reading documents dir: %w", err)
	}

	var (
		mu      sync.Mutex
		chunks  []corpus.Chunk
		skipped []string
	)

	g, gctx := errgroup.WithContext(ctx)
	supported := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(documentsPath, entry.Name())
		loader := p.loaders.For(path)
		if loader == nil {
			continue
		}
		supported++

		g.Go(func() error {
			docs, err := p.loadWithRetry(gctx, loader, path)
			if err != nil {
				p.logger.Error("document load failed, skipping",
					"path", path, "retries", p.opts.LoadRetries, "error", err)
				mu.Lock()
				skipped = append(skipped, path)
				mu.Unlock()
				return nil
			}
			var docChunks []corpus.Chunk
			for _, doc := range docs {
				docChunks = append(docChunks, p.chunker.Chunk(doc)...)
			}
			mu.Lock()
			chunks = append(chunks, docChunks...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Result{Status: StatusFailed, SkippedFiles: skipped}, err
	}

	if supported == 0 || len(chunks) == 0 {
		p.logger.Info("no documents to process", "path", documentsPath)
		return &Result{Status: StatusEmpty, SkippedFiles: skipped}, nil
	}

	stored, deduplicated, err := p.embedAndStore(ctx, chunks)
	if err != nil {
		return &Result{Status: StatusFailed, SkippedFiles: skipped}, err
	}

	status := StatusSuccess
	if len(skipped) > 0 {
		status = StatusPartial
	}
	p.logger.Info("ingestion run complete",
		"status", string(status),
		"stored", len(stored),
		"deduplicated", deduplicated,
		"skipped_files", len(skipped))
	return &Result{
		Status:       status,
		StoredIDs:    stored,
		Deduplicated: deduplicated,
		SkippedFiles: skipped,
	}, nil
}

func (p *Pipeline) loadWithRetry(ctx context.Context, loader Loader, path string) ([]corpus.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= p.opts.LoadRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.opts.RetryDelay):
			}
		}
		docs, err := loader.Load(ctx, path)
		if err == nil {
			return docs, nil
		}
		lastErr = err
		p.logger.Warn("document load failed", "path", path, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

// embedAndStore deduplicates against the store (and within the batch, since
// an identical passage can appear on two pages), embeds only net-new chunks,
// and writes them. Pre-existing ids are left untouched. The deduplicated
// count is per distinct id: a chunk skipped both within the batch and by the
// existence check still counts once.
func (p *Pipeline) embedAndStore(ctx context.Context, chunks []corpus.Chunk) ([]string, int, error) {
	if err := p.store.EnsureIndex(ctx); err != nil {
		return nil, 0, fmt.Errorf("ensuring index: %w", err)
	}

	seen := make(map[string]struct{}, len(chunks))
	skippedIDs := make(map[string]struct{})
	unique := chunks[:0]
	for _, c := range chunks {
		if _, ok := seen[c.ID]; ok {
			skippedIDs[c.ID] = struct{}{}
			continue
		}
		seen[c.ID] = struct{}{}
		unique = append(unique, c)
	}

	ids := make([]string, len(unique))
	for i, c := range unique {
		ids[i] = c.ID
	}
	existing, err := p.store.Exists(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("existence check: %w", err)
	}
	present := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}

	var fresh []corpus.Chunk
	for _, c := range unique {
		if _, ok := present[c.ID]; ok {
			skippedIDs[c.ID] = struct{}{}
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		p.logger.Info("all chunks already stored", "deduplicated", len(skippedIDs))
		return nil, len(skippedIDs), nil
	}

	texts := make([]string, len(fresh))
	for i, c := range fresh {
		texts[i] = c.Text
	}
	ectx, span := observability.StartEmbeddingSpan(ctx, p.embedder.Name(), len(texts))
	vectors, err := p.embedder.EmbedDocuments(ectx, texts)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, 0, fmt.Errorf("embedding %d chunks: %w", len(fresh), err)
	}
	span.End()

	stored, err := p.store.Store(ctx, fresh, vectors)
	if err != nil {
		return nil, 0, fmt.Errorf("storing %d chunks: %w", len(fresh), err)
	}
	return stored, len(skippedIDs), nil
}
