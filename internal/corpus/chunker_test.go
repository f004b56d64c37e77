package corpus

import (
	"strings"
	"testing"
)

func TestHashTextStable(t *testing.T) {
	a := HashText("the quick brown fox")
	b := HashText("the quick brown fox")
	if a != b {
		t.Fatalf("hash not stable: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashText("the quick brown fox ") {
		t.Fatal("distinct texts produced identical hashes")
	}
}

func TestHashTextIgnoresProvenance(t *testing.T) {
	// Identical text from two different documents must share one id.
	c, err := NewChunker(100, 0)
	if err != nil {
		t.Fatal(err)
	}
	text := "Article 12. The parties shall act in good faith."
	a := c.Chunk(Document{Text: text, Source: "/srv/docs/civil.pdf", Page: 3, TotalPages: 9})
	b := c.Chunk(Document{Text: text, Source: "commercial.pdf", Page: 0, TotalPages: 1})
	if a[0].ID != b[0].ID {
		t.Fatalf("same text, different ids: %s vs %s", a[0].ID, b[0].ID)
	}
}

func TestNewChunkerRejectsBadParams(t *testing.T) {
	cases := []struct {
		name      string
		size, ovl int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewChunker(tc.size, tc.ovl); err == nil {
				t.Fatalf("expected error for size=%d overlap=%d", tc.size, tc.ovl)
			}
		})
	}
}

func TestChunkShortDocument(t *testing.T) {
	c, err := NewChunker(1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	doc := Document{Text: "short text", Source: "a.txt", TotalPages: 1}
	chunks := c.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Fatalf("chunk text mutated: %q", chunks[0].Text)
	}
	if chunks[0].ID != HashText("short text") {
		t.Fatal("chunk id is not the content hash")
	}
}

func TestChunkSizeBoundAndOverlap(t *testing.T) {
	const size, overlap = 50, 10
	c, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing. ", 20)
	chunks := c.Chunk(Document{Text: text, Source: "b.txt", TotalPages: 1})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := len([]rune(ch.Text)); n > size {
			t.Fatalf("chunk %d exceeds size bound: %d > %d", i, n, size)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-overlap:])
		head := string(cur[:overlap])
		if tail != head {
			t.Fatalf("chunks %d/%d do not share %d characters: %q vs %q", i-1, i, overlap, tail, head)
		}
	}
}

func TestChunkPrefersParagraphBreaks(t *testing.T) {
	c, err := NewChunker(40, 5)
	if err != nil {
		t.Fatal(err)
	}
	text := "first paragraph body here\n\nsecond paragraph body goes on for a while longer"
	chunks := c.Chunk(Document{Text: text, Source: "c.md", TotalPages: 1})
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Fatalf("expected first cut at the paragraph break, got %q", chunks[0].Text)
	}
}

func TestChunkSourceBasename(t *testing.T) {
	c, err := NewChunker(1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk(Document{Text: "x", Source: "/var/data/ingest/codes.pdf", Page: 2, TotalPages: 5})
	m := chunks[0].Metadata
	if m.Source != "codes.pdf" {
		t.Fatalf("expected basename, got %q", m.Source)
	}
	if m.Page != 2 || m.TotalPages != 5 {
		t.Fatalf("page metadata lost: %+v", m)
	}
}

func TestChunkUnicodeBound(t *testing.T) {
	c, err := NewChunker(20, 4)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("artículo único año señoría ", 10)
	for i, ch := range c.Chunk(Document{Text: text, Source: "d.txt", TotalPages: 1}) {
		if n := len([]rune(ch.Text)); n > 20 {
			t.Fatalf("chunk %d exceeds rune bound: %d", i, n)
		}
	}
}

func TestChunkSkipsBlankText(t *testing.T) {
	c, err := NewChunker(1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	// An empty PDF page extracts to nothing; it must not become a chunk
	// stored under the constant hash of "".
	for _, text := range []string{"", "   ", "\n\n\n\t"} {
		if chunks := c.Chunk(Document{Text: text, Source: "blank.pdf", TotalPages: 1}); len(chunks) != 0 {
			t.Fatalf("blank text %q produced %d chunks", text, len(chunks))
		}
	}
}
