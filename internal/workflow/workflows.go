// Package workflow runs ingestion as a Temporal workflow so corpus loads
// survive process restarts and transient backend failures.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the default task queue for ingestion workflows.
const TaskQueue = "lexrag-ingestion"

// IngestionInput holds the workflow parameters. Chunking and retry
// behavior come from the worker's pipeline configuration.
type IngestionInput struct {
	DocumentsPath string
}

// IngestionResult is the serializable outcome of an ingestion run.
type IngestionResult struct {
	Status       string
	StoredCount  int
	Deduplicated int
	SkippedFiles []string
}

// IngestionWorkflow runs one corpus ingestion. The activity itself retries
// individual document loads; the workflow-level retry policy covers backend
// outages (vector store, embedding API) with a fixed delay.
func IngestionWorkflow(ctx workflow.Context, input IngestionInput) (*IngestionResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("ingestion workflow started", "path", input.DocumentsPath)

	var result IngestionResult
	if err := workflow.ExecuteActivity(ctx, IngestDocumentsActivity, input).Get(ctx, &result); err != nil {
		return nil, err
	}

	logger.Info("ingestion workflow finished",
		"status", result.Status,
		"stored", result.StoredCount,
		"deduplicated", result.Deduplicated,
		"skipped", len(result.SkippedFiles))
	return &result, nil
}
