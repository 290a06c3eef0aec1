package usecase

import (
	"context"
	"time"

	"github.com/allisson/piicrypt/internal/encryption/domain"
	"github.com/allisson/piicrypt/internal/metrics"
)

// batchProcessorWithMetrics decorates BatchProcessor with metrics instrumentation.
type batchProcessorWithMetrics struct {
	next    BatchProcessor
	metrics metrics.BusinessMetrics
}

// NewBatchProcessorWithMetrics wraps a BatchProcessor with metrics recording.
func NewBatchProcessorWithMetrics(processor BatchProcessor, m metrics.BusinessMetrics) BatchProcessor {
	return &batchProcessorWithMetrics{
		next:    processor,
		metrics: m,
	}
}

// ProcessBatch records metrics for batch encryption operations.
func (b *batchProcessorWithMetrics) ProcessBatch(ctx context.Context, batch domain.Batch) (domain.Batch, error) {
	start := time.Now()
	out, err := b.next.ProcessBatch(ctx, batch)

	metrics.Observe(ctx, b.metrics, metrics.DomainPipeline, "batch_process", start, err)
	return out, err
}
