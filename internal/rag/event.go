package rag

import "github.com/veridianlabs/lexrag/internal/vectorstore"

// Stage tags one unit of the streaming answer protocol.
type Stage string

const (
	// StageToken carries one incremental token chunk.
	StageToken Stage = "tok"
	// StageEnd terminates the stream with the full answer and contexts.
	StageEnd Stage = "end"
)

// StagedEvent is the unit of the streaming protocol. A successful stream is
// zero or more token events followed by exactly one end event. Contexts are
// set only on the end event, and only when retrieval produced results.
type StagedEvent struct {
	Stage    Stage                     `json:"stage"`
	Data     string                    `json:"data"`
	Contexts []vectorstore.ScoredChunk `json:"contexts,omitempty"`
}
