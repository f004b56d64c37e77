package workflow

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/ingest"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
	"github.com/veridianlabs/lexrag/internal/vectorstore/memory"
)

type unitEmbedder struct{}

func (unitEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = unitVec(t)
	}
	return out, nil
}

func (unitEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return unitVec(text), nil
}

func (unitEmbedder) Dimension() int { return 4 }
func (unitEmbedder) Name() string   { return "unit" }

func unitVec(text string) []float32 {
	v := make([]float32, 4)
	for i, b := range []byte(corpus.HashText(text)) {
		v[i%4] += float32(b)
	}
	return v
}

func testPipeline(t *testing.T) *ingest.Pipeline {
	t.Helper()
	store, err := memory.New(context.Background(), vectorstore.Config{Provider: "memory", IndexName: "t", Dimension: 4})
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	p, err := ingest.NewPipeline(
		ingest.NewLoaderRegistry(ingest.NewTextLoader()),
		unitEmbedder{}, store,
		ingest.Options{ChunkSize: 200, Overlap: 20, LoadRetries: 1, RetryDelay: time.Millisecond},
		logger)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestIngestDocumentsActivity(t *testing.T) {
	SetDependencies(&Dependencies{Pipeline: testPipeline(t)})

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ley.txt"), []byte("la ley regula los contratos"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := IngestDocumentsActivity(context.Background(), IngestionInput{DocumentsPath: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != string(ingest.StatusSuccess) {
		t.Fatalf("status %s", res.Status)
	}
	if res.StoredCount == 0 {
		t.Fatal("expected stored chunks")
	}
}

func TestIngestDocumentsActivityEmptyDir(t *testing.T) {
	SetDependencies(&Dependencies{Pipeline: testPipeline(t)})

	res, err := IngestDocumentsActivity(context.Background(), IngestionInput{DocumentsPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != string(ingest.StatusEmpty) {
		t.Fatalf("status %s, want empty", res.Status)
	}
}

func TestIngestDocumentsActivityWithoutDependencies(t *testing.T) {
	SetDependencies(nil)
	if _, err := IngestDocumentsActivity(context.Background(), IngestionInput{DocumentsPath: "x"}); err == nil {
		t.Fatal("expected error when pipeline is not configured")
	}
}
