package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/job/domain"
	"github.com/allisson/piicrypt/internal/metrics"
)

// jobQueueWithMetrics decorates JobQueue with metrics instrumentation.
type jobQueueWithMetrics struct {
	next    JobQueue
	metrics metrics.BusinessMetrics
}

// NewJobQueueWithMetrics wraps a JobQueue with metrics recording.
func NewJobQueueWithMetrics(queue JobQueue, m metrics.BusinessMetrics) JobQueue {
	return &jobQueueWithMetrics{
		next:    queue,
		metrics: m,
	}
}

func (q *jobQueueWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, q.metrics, metrics.DomainQueue, operation, start, err)
}

// EnqueueBulk records metrics for bulk enqueue operations.
func (q *jobQueueWithMetrics) EnqueueBulk(
	ctx context.Context,
	params []domain.NewJobParams,
) ([]uuid.UUID, error) {
	start := time.Now()
	ids, err := q.next.EnqueueBulk(ctx, params)
	q.record(ctx, "job_enqueue", start, err)
	return ids, err
}

// Lease records metrics for lease polls. An empty poll is recorded with status "empty".
func (q *jobQueueWithMetrics) Lease(ctx context.Context, workerID string, maxConcurrent int) (*domain.Job, error) {
	start := time.Now()
	job, err := q.next.Lease(ctx, workerID, maxConcurrent)

	if err == nil && job == nil {
		q.metrics.RecordOperation(ctx, metrics.DomainQueue, "job_lease", metrics.StatusEmpty)
		return nil, nil
	}

	q.record(ctx, "job_lease", start, err)
	return job, err
}

// Ack records metrics for acknowledgements.
func (q *jobQueueWithMetrics) Ack(ctx context.Context, jobID uuid.UUID, workerID string) error {
	start := time.Now()
	err := q.next.Ack(ctx, jobID, workerID)
	q.record(ctx, "job_ack", start, err)
	return err
}

// Fail records metrics for failures; dead-letters are counted separately.
func (q *jobQueueWithMetrics) Fail(
	ctx context.Context,
	jobID uuid.UUID,
	workerID string,
	cause error,
) (*domain.Job, error) {
	start := time.Now()
	job, err := q.next.Fail(ctx, jobID, workerID, cause)
	q.record(ctx, "job_fail", start, err)

	if job != nil && job.Status == domain.StatusFailed {
		q.metrics.RecordOperation(ctx, metrics.DomainQueue, "job_dead_letter", metrics.StatusSuccess)
	}
	return job, err
}

// ReclaimExpired records metrics for the stall reaper.
func (q *jobQueueWithMetrics) ReclaimExpired(ctx context.Context, limit int) ([]*domain.Job, error) {
	start := time.Now()
	jobs, err := q.next.ReclaimExpired(ctx, limit)
	q.record(ctx, "job_reclaim", start, err)

	for _, job := range jobs {
		if job.Status == domain.StatusFailed {
			q.metrics.RecordOperation(ctx, metrics.DomainQueue, "job_dead_letter", metrics.StatusSuccess)
		}
	}
	return jobs, err
}

// Stats passes through without instrumentation.
func (q *jobQueueWithMetrics) Stats(ctx context.Context) (map[domain.Status]int, error) {
	return q.next.Stats(ctx)
}

// List passes through without instrumentation.
func (q *jobQueueWithMetrics) List(
	ctx context.Context,
	status domain.Status,
	offset, limit int,
) ([]*domain.Job, error) {
	return q.next.List(ctx, status, offset, limit)
}
