// Package corpus defines the document and chunk model shared by the
// ingestion and query paths.
package corpus

// Document is a raw loaded unit of text. Paginated formats (PDF) produce
// one Document per page; plain text produces a single page.
type Document struct {
	Text       string
	Source     string // path of the originating file
	Page       int    // zero-based page index
	TotalPages int
}

// Metadata carries chunk provenance. Source holds only the basename of the
// originating file so ids and payloads stay stable across working directories.
type Metadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// Chunk is a contiguous text span extracted from a Document. ID is the
// content hash of Text: identical text always yields the identical id,
// regardless of which document it came from.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
