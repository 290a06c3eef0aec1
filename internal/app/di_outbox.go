package app

import (
	"fmt"

	outboxRepository "github.com/allisson/piicrypt/internal/outbox/repository"
	outboxUsecase "github.com/allisson/piicrypt/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository for the configured backend.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	return lazy(c, &c.outboxRepoInit, "outboxRepo", &c.outboxRepo, c.initOutboxRepository)
}

// OutboxUseCase returns the outbox relay.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	return lazy(c, &c.outboxUseCaseInit, "outboxUseCase", &c.outboxUseCase, c.initOutboxUseCase)
}

func (c *Container) initOutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	if c.UsesMemoryBackend() {
		return outboxRepository.NewMemoryOutboxEventRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:   c.config.OutboxInterval,
		BatchSize:  c.config.OutboxBatchSize,
		MaxRetries: c.config.OutboxMaxRetries,
	}

	eventProcessor := outboxUsecase.NewDefaultEventProcessor(logger)
	return outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger), nil
}
