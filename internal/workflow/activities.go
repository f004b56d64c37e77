package workflow

import (
	"context"
	"fmt"

	"github.com/veridianlabs/lexrag/internal/ingest"
)

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Pipeline *ingest.Pipeline
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// IngestDocumentsActivity runs the full ingestion pipeline over the
// configured documents directory. Duplicate work across retries is safe:
// chunk writes are idempotent per content id.
func IngestDocumentsActivity(ctx context.Context, input IngestionInput) (IngestionResult, error) {
	if deps == nil || deps.Pipeline == nil {
		return IngestionResult{}, fmt.Errorf("ingestion pipeline not configured")
	}

	res, err := deps.Pipeline.Run(ctx, input.DocumentsPath)
	out := IngestionResult{}
	if res != nil {
		out = IngestionResult{
			Status:       string(res.Status),
			StoredCount:  len(res.StoredIDs),
			Deduplicated: res.Deduplicated,
			SkippedFiles: res.SkippedFiles,
		}
	}
	if err != nil {
		return out, fmt.Errorf("ingestion run: %w", err)
	}
	return out, nil
}
