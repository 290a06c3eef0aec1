package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/database"
	apperrors "github.com/allisson/piicrypt/internal/errors"
	"github.com/allisson/piicrypt/internal/job/domain"
)

// Config holds queue tuning parameters.
type Config struct {
	LeaseDuration time.Duration
	MaxAttempts   int
	Backoff       domain.Backoff
}

// DefaultConfig returns the stock queue settings: five minute leases, three
// attempts and a 5s exponential backoff capped at five minutes.
func DefaultConfig() Config {
	return Config{
		LeaseDuration: 5 * time.Minute,
		MaxAttempts:   3,
		Backoff:       domain.Backoff{Base: 5 * time.Second, Max: 5 * time.Minute},
	}
}

type jobQueue struct {
	config    Config
	txManager database.TxManager
	jobRepo   JobRepository
	now       func() time.Time
}

// NewJobQueue creates a JobQueue backed by jobRepo.
func NewJobQueue(config Config, txManager database.TxManager, jobRepo JobRepository) JobQueue {
	return &jobQueue{
		config:    config,
		txManager: txManager,
		jobRepo:   jobRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueBulk admits every job in a single transaction.
func (q *jobQueue) EnqueueBulk(ctx context.Context, params []domain.NewJobParams) ([]uuid.UUID, error) {
	if len(params) == 0 {
		return nil, nil
	}

	now := q.now()
	jobs := make([]*domain.Job, 0, len(params))
	ids := make([]uuid.UUID, 0, len(params))
	for _, p := range params {
		if len(p.Payload) == 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("batch %d has an empty payload", p.BatchIndex))
		}
		job := domain.NewJob(p.Payload, p.BatchIndex, q.config.MaxAttempts, now)
		jobs = append(jobs, job)
		ids = append(ids, job.ID)
	}

	err := q.txManager.WithTx(ctx, func(ctx context.Context) error {
		return q.jobRepo.CreateBulk(ctx, jobs)
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Lease marks the next eligible job active for workerID.
func (q *jobQueue) Lease(ctx context.Context, workerID string, maxConcurrent int) (*domain.Job, error) {
	var leased *domain.Job

	err := q.txManager.WithTx(ctx, func(ctx context.Context) error {
		if maxConcurrent > 0 {
			active, err := q.jobRepo.CountByStatus(ctx, domain.StatusActive)
			if err != nil {
				return err
			}
			if active >= maxConcurrent {
				return nil
			}
		}

		now := q.now()
		job, err := q.jobRepo.NextLeasable(ctx, now)
		if err != nil || job == nil {
			return err
		}

		if err := job.Lease(workerID, q.config.LeaseDuration, now); err != nil {
			return err
		}
		if err := q.jobRepo.Update(ctx, job); err != nil {
			return err
		}

		leased = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	return leased, nil
}

// Ack completes a job leased by workerID.
func (q *jobQueue) Ack(ctx context.Context, jobID uuid.UUID, workerID string) error {
	return q.txManager.WithTx(ctx, func(ctx context.Context) error {
		job, err := q.jobRepo.GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := job.CheckLease(workerID); err != nil {
			return err
		}

		changed, err := job.Complete(q.now())
		if err != nil || !changed {
			return err
		}

		return q.jobRepo.Update(ctx, job)
	})
}

// Fail records a failed attempt of a job leased by workerID. Causes wrapping
// errors.ErrNonRetryable dead-letter the job at once.
func (q *jobQueue) Fail(ctx context.Context, jobID uuid.UUID, workerID string, cause error) (*domain.Job, error) {
	var failed *domain.Job

	err := q.txManager.WithTx(ctx, func(ctx context.Context) error {
		job, err := q.jobRepo.GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := job.CheckLease(workerID); err != nil {
			return err
		}

		failed = job
		changed, err := job.Fail(cause, apperrors.IsRetryable(cause), q.config.Backoff, q.now())
		if err != nil || !changed {
			return err
		}

		return q.jobRepo.Update(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	return failed, nil
}

// ReclaimExpired treats every expired lease as a retryable failure.
func (q *jobQueue) ReclaimExpired(ctx context.Context, limit int) ([]*domain.Job, error) {
	var reclaimed []*domain.Job

	err := q.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := q.now()
		jobs, err := q.jobRepo.ListExpired(ctx, now, limit)
		if err != nil {
			return err
		}

		for _, job := range jobs {
			cause := fmt.Errorf("%w: held by %s", domain.ErrLeaseExpired, job.WorkerID)
			changed, err := job.Fail(cause, true, q.config.Backoff, now)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			if err := q.jobRepo.Update(ctx, job); err != nil {
				return err
			}
			reclaimed = append(reclaimed, job)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reclaimed, nil
}

// Stats counts jobs per status.
func (q *jobQueue) Stats(ctx context.Context) (map[domain.Status]int, error) {
	return q.jobRepo.Stats(ctx)
}

// List pages through jobs, optionally filtered by status.
func (q *jobQueue) List(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Job, error) {
	if offset < 0 || limit < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "offset and limit must not be negative")
	}
	return q.jobRepo.List(ctx, status, offset, limit)
}
