package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/allisson/piicrypt/internal/encryption/domain"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
	jobUsecase "github.com/allisson/piicrypt/internal/job/usecase"
)

// PoolConfig holds worker pool tuning parameters.
type PoolConfig struct {
	// Concurrency is the number of workers and the queue-wide active job cap.
	Concurrency int
	// PollInterval is the minimum delay between lease attempts after an empty
	// or failed poll.
	PollInterval time.Duration
	// ReapInterval is how often expired leases are reclaimed. Zero disables the reaper.
	ReapInterval time.Duration
	// ReapBatchSize caps how many expired jobs one reaper pass reclaims.
	ReapBatchSize int
	// StopWhenDone makes Run return once the reporter has seen every
	// registered batch reach a terminal state.
	StopWhenDone bool
	// WorkerIDPrefix identifies this process in lease records.
	WorkerIDPrefix string
}

// WorkerPool runs exactly Concurrency workers against the job queue.
type WorkerPool struct {
	config    PoolConfig
	queue     jobUsecase.JobQueue
	processor BatchProcessor
	batchRepo BatchRepository
	reporter  *Reporter
	logger    *slog.Logger
}

// NewWorkerPool creates a WorkerPool. A blank WorkerIDPrefix defaults to the
// host name and process id, and a zero PollInterval to 500ms.
func NewWorkerPool(
	config PoolConfig,
	queue jobUsecase.JobQueue,
	processor BatchProcessor,
	batchRepo BatchRepository,
	reporter *Reporter,
	logger *slog.Logger,
) *WorkerPool {
	if config.WorkerIDPrefix == "" {
		host, _ := os.Hostname()
		config.WorkerIDPrefix = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if config.ReapBatchSize <= 0 {
		config.ReapBatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	return &WorkerPool{
		config:    config,
		queue:     queue,
		processor: processor,
		batchRepo: batchRepo,
		reporter:  reporter,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled or, with StopWhenDone, until every
// registered batch is terminal. In-flight jobs interrupted by shutdown keep
// their lease and are redelivered after it expires.
func (p *WorkerPool) Run(ctx context.Context) error {
	if p.config.Concurrency < 1 {
		return fmt.Errorf("worker pool concurrency must be positive, got %d", p.config.Concurrency)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.logger.Info("starting worker pool",
		slog.Int("concurrency", p.config.Concurrency),
		slog.Duration("poll_interval", p.config.PollInterval),
		slog.Duration("reap_interval", p.config.ReapInterval),
		slog.Bool("stop_when_done", p.config.StopWhenDone),
	)

	g, gctx := errgroup.WithContext(ctx)

	for i := range p.config.Concurrency {
		workerID := fmt.Sprintf("%s-%d", p.config.WorkerIDPrefix, i)
		g.Go(func() error {
			p.work(gctx, workerID)
			return nil
		})
	}

	if p.config.ReapInterval > 0 {
		g.Go(func() error {
			p.reap(gctx)
			return nil
		})
	}

	if p.config.StopWhenDone && p.reporter != nil {
		g.Go(func() error {
			if err := p.reporter.Wait(gctx); err == nil {
				p.logger.Info("all batches terminal, stopping worker pool")
				cancel()
			}
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info("worker pool stopped")
	return err
}

// work is one worker's lease loop.
func (p *WorkerPool) work(ctx context.Context, workerID string) {
	limiter := rate.NewLimiter(rate.Every(p.config.PollInterval), 1)

	for ctx.Err() == nil {
		job, err := p.queue.Lease(ctx, workerID, p.config.Concurrency)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("failed to lease job", slog.String("worker_id", workerID), slog.Any("error", err))
		}
		if job == nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			continue
		}

		result := p.handle(ctx, workerID, job)
		if p.reporter != nil {
			p.reporter.Record(ctx, result)
		}
	}
}

// handle processes one leased job and returns the result of the attempt.
func (p *WorkerPool) handle(ctx context.Context, workerID string, job *jobDomain.Job) domain.JobResult {
	start := time.Now()
	result := domain.JobResult{JobID: job.ID, BatchIndex: job.BatchIndex, Outcome: domain.OutcomeRetrying}

	logger := p.logger.With(
		slog.String("worker_id", workerID),
		slog.String("job_id", job.ID.String()),
		slog.Int("batch_index", job.BatchIndex),
	)

	records, err := p.process(ctx, job)
	result.Duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("abandoning job on shutdown", slog.Any("error", err))
			result.Err = err
			return result
		}
		return p.fail(ctx, logger, workerID, job, err, result)
	}

	if err := p.queue.Ack(ctx, job.ID, workerID); err != nil {
		// Either the reaper already reclaimed the lease or it will once the
		// lease expires. The artifact stays until a replay overwrites it or
		// the job is dead-lettered.
		logger.Error("failed to ack job", slog.Any("error", err))
		result.Err = err
		return result
	}

	logger.Info("batch encrypted",
		slog.Int("records", records),
		slog.Duration("duration", result.Duration),
	)
	result.Outcome = domain.OutcomeCompleted
	result.Records = records
	result.Attempts = job.Attempts + 1
	return result
}

// process decodes, encrypts and persists a batch. Processing is bounded by the
// lease expiry so a stuck job is failed before it can be reclaimed twice.
func (p *WorkerPool) process(ctx context.Context, job *jobDomain.Job) (int, error) {
	if job.LeaseExpiresAt != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, *job.LeaseExpiresAt)
		defer cancel()
	}

	batch, err := domain.DecodeBatch(job.Payload)
	if err != nil {
		return 0, err
	}

	encrypted, err := p.processor.ProcessBatch(ctx, batch)
	if err != nil {
		return 0, err
	}

	if err := p.batchRepo.Save(ctx, encrypted); err != nil {
		return 0, err
	}

	return len(encrypted.Records), nil
}

func (p *WorkerPool) fail(
	ctx context.Context,
	logger *slog.Logger,
	workerID string,
	job *jobDomain.Job,
	cause error,
	result domain.JobResult,
) domain.JobResult {
	result.Err = cause

	failed, err := p.queue.Fail(ctx, job.ID, workerID, cause)
	if err != nil {
		logger.Error("failed to record job failure", slog.Any("cause", cause), slog.Any("error", err))
		return result
	}

	result.Attempts = failed.Attempts
	if failed.Status == jobDomain.StatusFailed {
		logger.Error("batch dead-lettered",
			slog.Int("attempts", failed.Attempts),
			slog.Any("error", cause),
		)
		p.discardArtifact(ctx, logger, job.BatchIndex)
		result.Outcome = domain.OutcomeFailed
		return result
	}

	logger.Warn("batch failed, will retry",
		slog.Int("attempts", failed.Attempts),
		slog.Int("max_attempts", failed.MaxAttempts),
		slog.Time("available_at", failed.AvailableAt),
		slog.Any("error", cause),
	)
	return result
}

// discardArtifact removes output a dead-lettered job may have written before
// its ack was lost, so failed batches leave nothing behind.
func (p *WorkerPool) discardArtifact(ctx context.Context, logger *slog.Logger, batchIndex int) {
	if p.batchRepo == nil {
		return
	}
	if err := p.batchRepo.Delete(context.WithoutCancel(ctx), batchIndex); err != nil {
		logger.Error("failed to remove artifact of dead-lettered batch", slog.Any("error", err))
	}
}

// reap periodically fails jobs whose lease expired.
func (p *WorkerPool) reap(ctx context.Context) {
	ticker := time.NewTicker(p.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ReapOnce(ctx)
		}
	}
}

// ReapOnce runs a single reaper pass and reports dead-lettered batches.
func (p *WorkerPool) ReapOnce(ctx context.Context) {
	jobs, err := p.queue.ReclaimExpired(ctx, p.config.ReapBatchSize)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("failed to reclaim expired leases", slog.Any("error", err))
		}
		return
	}

	for _, job := range jobs {
		logger := p.logger.With(
			slog.String("job_id", job.ID.String()),
			slog.Int("batch_index", job.BatchIndex),
			slog.String("worker_id", job.WorkerID),
			slog.Int("attempts", job.Attempts),
		)

		result := domain.JobResult{
			JobID:      job.ID,
			BatchIndex: job.BatchIndex,
			Outcome:    domain.OutcomeRetrying,
			Attempts:   job.Attempts,
			Err:        jobDomain.ErrLeaseExpired,
		}
		if job.Status == jobDomain.StatusFailed {
			logger.Error("stalled batch dead-lettered")
			p.discardArtifact(ctx, logger, job.BatchIndex)
			result.Outcome = domain.OutcomeFailed
		} else {
			logger.Warn("stalled batch reclaimed")
		}

		if p.reporter != nil {
			p.reporter.Record(ctx, result)
		}
	}
}
