package memory

import (
	"context"
	"testing"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

func newStore(t *testing.T, dim int) *Store {
	t.Helper()
	s, err := New(context.Background(), vectorstore.Config{Provider: "memory", IndexName: "test", Dimension: dim})
	if err != nil {
		t.Fatal(err)
	}
	return s.(*Store)
}

func chunk(text string) corpus.Chunk {
	return corpus.Chunk{ID: corpus.HashText(text), Text: text, Metadata: corpus.Metadata{Source: "t.txt", TotalPages: 1}}
}

func TestStoreAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 2)

	chunks := []corpus.Chunk{chunk("a"), chunk("b"), chunk("c")}
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}
	ids, err := s.Store(ctx, chunks, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}

	results, err := s.Query(ctx, []float32{1, 0}, vectorstore.StrategySimilarity, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Text != "a" {
		t.Fatalf("expected the aligned vector first, got %q", results[0].Chunk.Text)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not descending: %v then %v", results[i-1].Score, results[i].Score)
		}
	}
}

func TestQueryEmptyStore(t *testing.T) {
	s := newStore(t, 2)
	results, err := s.Query(context.Background(), []float32{1, 0}, vectorstore.StrategySimilarity, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 1)

	c := chunk("known")
	if _, err := s.Store(ctx, []corpus.Chunk{c}, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}

	present, err := s.Exists(ctx, []string{c.ID, corpus.HashText("unknown")})
	if err != nil {
		t.Fatal(err)
	}
	if len(present) != 1 || present[0] != c.ID {
		t.Fatalf("expected only the stored id, got %v", present)
	}
}

func TestStoreIdempotentPerID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 1)

	c := chunk("same text")
	for i := 0; i < 2; i++ {
		if _, err := s.Store(ctx, []corpus.Chunk{c}, [][]float32{{1}}); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("duplicate write created a second entry: %d", s.Len())
	}
}

func TestStoreDimensionMismatch(t *testing.T) {
	s := newStore(t, 3)
	_, err := s.Store(context.Background(), []corpus.Chunk{chunk("x")}, [][]float32{{1, 2}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestQueryMMRSkipsNearDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 2)

	chunks := []corpus.Chunk{chunk("dup one"), chunk("dup two"), chunk("different")}
	vectors := [][]float32{{1, 0}, {0.999, 0.001}, {0.6, 0.8}}
	if _, err := s.Store(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}

	results, err := s.Query(ctx, []float32{1, 0}, vectorstore.StrategyMMR, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Chunk.Text != "different" {
		t.Fatalf("mmr should pick the diverse chunk second, got %q", results[1].Chunk.Text)
	}
}
