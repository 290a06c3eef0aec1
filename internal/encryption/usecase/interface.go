// Package usecase implements the batch encryption pipeline: dispatching batches
// to the job queue, the bounded worker pool consuming it, and the reporter that
// aggregates per-batch results into a single completion signal.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/piicrypt/internal/encryption/domain"
)

// BatchProcessor encrypts every sensitive field of a batch.
type BatchProcessor interface {
	// ProcessBatch returns an encrypted copy of batch and never mutates its input.
	// Any record error fails the whole batch.
	ProcessBatch(ctx context.Context, batch domain.Batch) (domain.Batch, error)
}

// BatchRepository persists encrypted batches as output artifacts.
type BatchRepository interface {
	Save(ctx context.Context, batch domain.Batch) error
	Load(ctx context.Context, batchIndex int) (domain.Batch, error)
	// Delete removes the artifact for batchIndex. A missing artifact is not an error.
	Delete(ctx context.Context, batchIndex int) error
}

// Summary describes a finished pipeline run.
type Summary struct {
	Total            int           `json:"total"`
	Completed        int           `json:"completed"`
	Failed           int           `json:"failed"`
	RecordsEncrypted int           `json:"records_encrypted"`
	FailedBatches    []int         `json:"failed_batches"`
	Duration         time.Duration `json:"duration"`
}

// Notifier receives the one-shot completion signal. Delivery is fire-and-forget:
// an error is logged and never retried by the reporter.
type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}
