package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	"github.com/allisson/piicrypt/internal/encryption/domain"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
	jobUsecase "github.com/allisson/piicrypt/internal/job/usecase"
)

const resumePageSize = 500

// Dispatcher turns a record set into queue jobs and registers them with the reporter.
type Dispatcher struct {
	queue     jobUsecase.JobQueue
	reporter  *Reporter
	batchSize int
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(queue jobUsecase.JobQueue, reporter *Reporter, batchSize int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		reporter:  reporter,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Dispatch partitions records, enqueues one job per batch in a single bulk
// operation and registers every job with the reporter. Records are not validated here;
// a malformed record fails its job when a worker processes it.
func (d *Dispatcher) Dispatch(ctx context.Context, records []customerDomain.CustomerRecord) ([]uuid.UUID, error) {
	batches, err := domain.Partition(records, d.batchSize)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		d.logger.Info("no records to dispatch")
		return nil, nil
	}

	params := make([]jobDomain.NewJobParams, 0, len(batches))
	for _, batch := range batches {
		payload, err := batch.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode batch %d: %w", batch.BatchIndex, err)
		}
		params = append(params, jobDomain.NewJobParams{BatchIndex: batch.BatchIndex, Payload: payload})
	}

	ids, err := d.queue.EnqueueBulk(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue batches: %w", err)
	}
	if len(ids) != len(params) {
		return nil, fmt.Errorf("enqueued %d jobs for %d batches", len(ids), len(params))
	}

	if d.reporter != nil {
		refs := make([]domain.BatchRef, len(ids))
		for i, id := range ids {
			refs[i] = domain.BatchRef{JobID: id, BatchIndex: params[i].BatchIndex}
		}
		d.reporter.Register(ctx, refs...)
	}

	d.logger.Info("batches enqueued",
		slog.Int("records", len(records)),
		slog.Int("jobs", len(ids)),
		slog.Int("batch_size", d.batchSize),
	)
	return ids, nil
}

// Resume registers every batch still waiting, active or delayed in the queue,
// so a worker process started after dispatch can still raise the completion
// signal. It returns the number of batches registered.
func (d *Dispatcher) Resume(ctx context.Context) (int, error) {
	var refs []domain.BatchRef
	for _, status := range []jobDomain.Status{jobDomain.StatusWaiting, jobDomain.StatusActive, jobDomain.StatusDelayed} {
		for offset := 0; ; offset += resumePageSize {
			jobs, err := d.queue.List(ctx, status, offset, resumePageSize)
			if err != nil {
				return 0, fmt.Errorf("failed to list %s jobs: %w", status, err)
			}
			for _, job := range jobs {
				refs = append(refs, domain.BatchRef{JobID: job.ID, BatchIndex: job.BatchIndex})
			}
			if len(jobs) < resumePageSize {
				break
			}
		}
	}

	if len(refs) > 0 && d.reporter != nil {
		d.reporter.Register(ctx, refs...)
	}

	d.logger.Info("resumed outstanding batches", slog.Int("count", len(refs)))
	return len(refs), nil
}
