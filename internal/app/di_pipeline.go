package app

import (
	"context"
	"fmt"

	"gocloud.dev/blob"

	encryptionRepository "github.com/allisson/piicrypt/internal/encryption/repository"
	encryptionUsecase "github.com/allisson/piicrypt/internal/encryption/usecase"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
	jobRepository "github.com/allisson/piicrypt/internal/job/repository"
	jobUsecase "github.com/allisson/piicrypt/internal/job/usecase"
	outboxUsecase "github.com/allisson/piicrypt/internal/outbox/usecase"
)

// progressLogEvery is how many terminal batches pass between progress log lines.
const progressLogEvery = 10

// JobRepository returns the job repository for the configured backend.
func (c *Container) JobRepository() (jobUsecase.JobRepository, error) {
	return lazy(c, &c.jobRepoInit, "jobRepo", &c.jobRepo, c.initJobRepository)
}

// JobQueue returns the job queue, instrumented with business metrics.
func (c *Container) JobQueue() (jobUsecase.JobQueue, error) {
	return lazy(c, &c.jobQueueInit, "jobQueue", &c.jobQueue, c.initJobQueue)
}

// Bucket returns the output bucket for encrypted batch artifacts.
func (c *Container) Bucket(ctx context.Context) (*blob.Bucket, error) {
	return lazy(c, &c.bucketInit, "bucket", &c.bucket, func() (*blob.Bucket, error) {
		return encryptionRepository.OpenBucket(ctx, c.config.OutputBucketURL)
	})
}

// BatchRepository returns the artifact repository backed by the output bucket.
func (c *Container) BatchRepository(ctx context.Context) (encryptionUsecase.BatchRepository, error) {
	return lazy(c, &c.batchRepoInit, "batchRepo", &c.batchRepo, func() (encryptionUsecase.BatchRepository, error) {
		bucket, err := c.Bucket(ctx)
		if err != nil {
			return nil, err
		}
		return encryptionRepository.NewBlobBatchRepository(bucket), nil
	})
}

// BatchProcessor returns the batch processor, instrumented with business metrics.
func (c *Container) BatchProcessor(ctx context.Context) (encryptionUsecase.BatchProcessor, error) {
	return lazy(c, &c.batchProcessorInit, "batchProcessor", &c.batchProcessor, func() (encryptionUsecase.BatchProcessor, error) {
		encryptor, err := c.FieldEncryptor(ctx)
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}
		return encryptionUsecase.NewBatchProcessorWithMetrics(encryptionUsecase.NewBatchProcessor(encryptor), businessMetrics), nil
	})
}

// Reporter returns the process-wide progress reporter. Its completion signal
// is logged and written to the outbox.
func (c *Container) Reporter() (*encryptionUsecase.Reporter, error) {
	return lazy(c, &c.reporterInit, "reporter", &c.reporter, func() (*encryptionUsecase.Reporter, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return nil, err
		}
		notifier := encryptionUsecase.NewMultiNotifier(
			encryptionUsecase.NewLogNotifier(c.Logger()),
			outboxUsecase.NewOutboxNotifier(txManager, outboxRepo),
		)
		return encryptionUsecase.NewReporter(notifier, c.Logger(), progressLogEvery), nil
	})
}

// Dispatcher returns the dispatcher that partitions records into queue jobs.
func (c *Container) Dispatcher() (*encryptionUsecase.Dispatcher, error) {
	return lazy(c, &c.dispatcherInit, "dispatcher", &c.dispatcher, func() (*encryptionUsecase.Dispatcher, error) {
		queue, err := c.JobQueue()
		if err != nil {
			return nil, err
		}
		reporter, err := c.Reporter()
		if err != nil {
			return nil, err
		}
		return encryptionUsecase.NewDispatcher(queue, reporter, c.config.BatchSize, c.Logger()), nil
	})
}

// WorkerPool returns the worker pool. stopWhenDone only applies to the first call.
func (c *Container) WorkerPool(ctx context.Context, stopWhenDone bool) (*encryptionUsecase.WorkerPool, error) {
	return lazy(c, &c.workerPoolInit, "workerPool", &c.workerPool, func() (*encryptionUsecase.WorkerPool, error) {
		return c.initWorkerPool(ctx, stopWhenDone)
	})
}

func (c *Container) initJobRepository() (jobUsecase.JobRepository, error) {
	if c.UsesMemoryBackend() {
		return jobRepository.NewMemoryJobRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return jobRepository.NewMySQLJobRepository(db), nil
	case "postgres":
		return jobRepository.NewPostgreSQLJobRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initJobQueue() (jobUsecase.JobQueue, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for job queue: %w", err)
	}

	repo, err := c.JobRepository()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	queue := jobUsecase.NewJobQueue(jobUsecase.Config{
		LeaseDuration: c.config.WorkerLeaseDuration,
		MaxAttempts:   c.config.WorkerMaxAttempts,
		Backoff: jobDomain.Backoff{
			Base: c.config.WorkerBackoff,
			Max:  c.config.WorkerMaxBackoff,
		},
	}, txManager, repo)

	return jobUsecase.NewJobQueueWithMetrics(queue, businessMetrics), nil
}

func (c *Container) initWorkerPool(ctx context.Context, stopWhenDone bool) (*encryptionUsecase.WorkerPool, error) {
	queue, err := c.JobQueue()
	if err != nil {
		return nil, err
	}
	processor, err := c.BatchProcessor(ctx)
	if err != nil {
		return nil, err
	}
	batchRepo, err := c.BatchRepository(ctx)
	if err != nil {
		return nil, err
	}
	reporter, err := c.Reporter()
	if err != nil {
		return nil, err
	}

	return encryptionUsecase.NewWorkerPool(encryptionUsecase.PoolConfig{
		Concurrency:   c.config.WorkerConcurrency,
		PollInterval:  c.config.WorkerPollInterval,
		ReapInterval:  c.config.WorkerReapInterval,
		ReapBatchSize: 100,
		StopWhenDone:  stopWhenDone,
	}, queue, processor, batchRepo, reporter, c.Logger()), nil
}
