package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridianlabs/lexrag/internal/corpus"
)

// TextLoader loads plain-text and markdown files as single-page documents.
type TextLoader struct{}

// NewTextLoader creates a plain-text loader.
func NewTextLoader() *TextLoader { return &TextLoader{} }

func (l *TextLoader) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func (l *TextLoader) Load(_ context.Context, path string) ([]corpus.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []corpus.Document{{
		Text:       string(data),
		Source:     path,
		Page:       0,
		TotalPages: 1,
	}}, nil
}

var _ Loader = (*TextLoader)(nil)
