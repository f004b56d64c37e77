package vectorstore

import (
	"encoding/json"
	"testing"

	"github.com/veridianlabs/lexrag/internal/corpus"
)

func TestScoredChunkWireShape(t *testing.T) {
	sc := ScoredChunk{
		Chunk: corpus.Chunk{
			ID:   "abc",
			Text: "cuerpo",
			Metadata: corpus.Metadata{
				Source:     "codes.pdf",
				Page:       3,
				TotalPages: 10,
			},
		},
		Score: 0.9,
	}

	raw, err := json.Marshal(sc)
	if err != nil {
		t.Fatal(err)
	}

	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatal(err)
	}
	doc, ok := wire["document"].(map[string]any)
	if !ok {
		t.Fatalf("missing document object: %s", raw)
	}
	// Consumers read provenance flat off the document.
	for key, want := range map[string]any{
		"id":          "abc",
		"source":      "codes.pdf",
		"page":        float64(3),
		"total_pages": float64(10),
		"text":        "cuerpo",
	} {
		if doc[key] != want {
			t.Errorf("document.%s = %v, want %v", key, doc[key], want)
		}
	}
	if _, ok := doc["metadata"]; ok {
		t.Errorf("document must not nest metadata: %s", raw)
	}
	if wire["score"] != float64(0.9) {
		t.Errorf("score = %v, want 0.9", wire["score"])
	}

	var back ScoredChunk
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back != sc {
		t.Errorf("round trip mutated the chunk: %+v", back)
	}
}
