// Package usecase implements the lease-based job queue on top of a transactional
// repository. Lease, ack, fail and reclaim each run in one transaction so row
// locks are the only serialization point for job state.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/job/domain"
)

// JobRepository defines the persistence operations the queue needs.
type JobRepository interface {
	CreateBulk(ctx context.Context, jobs []*domain.Job) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	// NextLeasable returns nil when no job is eligible at now.
	NextLeasable(ctx context.Context, now time.Time) (*domain.Job, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Job, error)
	CountByStatus(ctx context.Context, status domain.Status) (int, error)
	Stats(ctx context.Context) (map[domain.Status]int, error)
	List(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
}

// JobQueue defines the queue operations consumed by the dispatcher and worker pool.
type JobQueue interface {
	// EnqueueBulk admits every job or none and returns their ids in input order.
	EnqueueBulk(ctx context.Context, params []domain.NewJobParams) ([]uuid.UUID, error)
	// Lease hands out one eligible job, or nil when none is available or when
	// maxConcurrent jobs are already active. A maxConcurrent of zero disables the check.
	Lease(ctx context.Context, workerID string, maxConcurrent int) (*domain.Job, error)
	// Ack completes a job. Acking a completed job succeeds without change; acking
	// a job whose lease now belongs to another worker returns ErrInvalidTransition.
	Ack(ctx context.Context, jobID uuid.UUID, workerID string) error
	// Fail records a failed attempt and returns the job after the transition.
	// The same lease ownership rule as Ack applies.
	Fail(ctx context.Context, jobID uuid.UUID, workerID string, cause error) (*domain.Job, error)
	// ReclaimExpired fails up to limit jobs whose lease ran out and returns them.
	ReclaimExpired(ctx context.Context, limit int) ([]*domain.Job, error)
	Stats(ctx context.Context) (map[domain.Status]int, error)
	List(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Job, error)
}
