package corpus

import (
	"fmt"
	"path/filepath"
	"strings"
)

// separators is the priority-ordered list of split points: paragraph break,
// line break, sentence end, word boundary. An empty window falls back to a
// hard character cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits documents into overlapping chunks of bounded size and
// assigns each a content-addressed id.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker validates the chunking parameters. overlap must be strictly
// smaller than chunkSize or the window could never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits doc.Text into chunks of at most chunkSize characters, with
// consecutive chunks sharing exactly overlap characters. Cuts prefer the
// highest-priority separator found inside the window. A document shorter
// than chunkSize produces exactly one chunk; blank windows (an empty PDF
// page, a run of newlines) are dropped rather than embedded.
func (c *Chunker) Chunk(doc Document) []Chunk {
	source := filepath.Base(doc.Source)
	runes := []rune(doc.Text)

	var chunks []Chunk
	start := 0
	for {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = c.appendChunk(chunks, string(runes[start:]), source, doc)
			break
		}
		cut := c.findCut(runes, start, end)
		chunks = c.appendChunk(chunks, string(runes[start:cut]), source, doc)
		start = cut - c.overlap
	}
	return chunks
}

func (c *Chunker) appendChunk(chunks []Chunk, text, source string, doc Document) []Chunk {
	if strings.TrimSpace(text) == "" {
		return chunks
	}
	return append(chunks, c.newChunk(text, source, doc))
}

// findCut returns the split position inside (start, end]. It scans backwards
// from end for each separator in priority order, never cutting so early that
// the window fails to advance past the previous overlap.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	// The next window starts at cut-overlap, so cut must exceed
	// start+overlap for forward progress.
	min := start + c.overlap + 1
	window := string(runes[start:end])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + len([]rune(window[:idx])) + len([]rune(sep))
		if cut >= min && cut <= end {
			return cut
		}
	}
	return end
}

func (c *Chunker) newChunk(text, source string, doc Document) Chunk {
	return Chunk{
		ID:   HashText(text),
		Text: text,
		Metadata: Metadata{
			Source:     source,
			Page:       doc.Page,
			TotalPages: doc.TotalPages,
		},
	}
}
