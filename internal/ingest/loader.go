// Package ingest turns raw files into deduplicated, embedded chunks in the
// vector store.
package ingest

import (
	"context"

	"github.com/veridianlabs/lexrag/internal/corpus"
)

// Loader loads one file format into documents. Paginated formats return one
// Document per page.
type Loader interface {
	// Load reads the file at path into documents.
	Load(ctx context.Context, path string) ([]corpus.Document, error)
	// Supports reports whether this loader handles the given path.
	Supports(path string) bool
}

// LoaderRegistry resolves the loader for a path. Files no loader supports
// are silently skipped by the pipeline.
type LoaderRegistry struct {
	loaders []Loader
}

// NewLoaderRegistry creates a registry with the given loaders, consulted in
// order.
func NewLoaderRegistry(loaders ...Loader) *LoaderRegistry {
	return &LoaderRegistry{loaders: loaders}
}

// Register appends a loader.
func (r *LoaderRegistry) Register(l Loader) {
	r.loaders = append(r.loaders, l)
}

// For returns the first loader that supports path, or nil.
func (r *LoaderRegistry) For(path string) Loader {
	for _, l := range r.loaders {
		if l.Supports(path) {
			return l
		}
	}
	return nil
}
